// Package stellar adapts the account+sequence-number, claimable-balance
// note transaction model to the uniform chainadapter.Adapter contract.
// Grounded on the teacher's internal/services/address/stellar.go for
// Ed25519 address handling (github.com/stellar/go/strkey), generalized
// to model this module's HTLC realization as ClaimableBalance-style
// operations: Stellar has no general-purpose smart contract VM in the
// teacher's dependency surface. The operations are plain descriptive
// strings carried in the "operation_xdr" field; no txnbuild transaction
// or real XDR envelope is built, and no ClaimableBalanceClaimant
// predicates are attached. This is also the module's default privacy-hub chain
// (domain.Properties.SupportsShieldedOps) — claimable balances approximate
// a shielded pool by letting a solver fund many same-denomination
// balances whose claim predicates are visible only to the claimant who
// knows the matching preimage, NOT a cryptographic shielding claim.
package stellar

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/stellar/go/strkey"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
)

// RPCClient is the minimal Horizon-equivalent surface the adapter needs.
type RPCClient interface {
	AccountSequence(ctx context.Context, address string) (int64, error)
	SubmitTransaction(ctx context.Context, envelopeXDR []byte) (hash string, err error)
	TransactionStatus(ctx context.Context, hash string) (confirmations int, ledger *uint64, err error)
	LatestLedger(ctx context.Context) (uint64, error)
	AccountBalance(ctx context.Context, address string) (*big.Int, error)
	BaseFee(ctx context.Context) (int64, error)
}

type Adapter struct {
	mu    sync.RWMutex
	rpc   RPCClient
	ready bool
}

func New(rpc RPCClient) *Adapter { return &Adapter{rpc: rpc} }

func (a *Adapter) Chain() domain.Chain { return domain.ChainStellar }

func (a *Adapter) Capabilities() chainadapter.Capabilities {
	return chainadapter.Capabilities{
		Chain:               domain.ChainStellar,
		SupportsMemo:        true,
		SupportsShieldedOps: true,
		MinConfirmations:    1,
	}
}

func (a *Adapter) Initialize(ctx context.Context, cfg chainadapter.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rpc == nil {
		return errs.AdapterInitFailed(string(domain.ChainStellar), fmt.Errorf("no RPC client configured"))
	}
	a.ready = true
	return nil
}

func (a *Adapter) DeriveAddress(publicKey []byte) (string, error) {
	if len(publicKey) != 32 {
		return "", errs.TxBuildFailed("stellar ed25519 public key must be 32 bytes", nil)
	}
	addr, err := strkey.Encode(strkey.VersionByteAccountID, publicKey)
	if err != nil {
		return "", errs.TxBuildFailed("encoding stellar account address", err)
	}
	return addr, nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error) {
	bal, err := a.rpc.AccountBalance(ctx, address)
	if err != nil {
		return nil, errs.NetworkRPC("accounts", err)
	}
	return bal, nil
}

func (a *Adapter) BuildTransaction(ctx context.Context, req chainadapter.TransactionRequest) (*chainadapter.UnsignedTransaction, error) {
	if req.From == "" || req.To == "" {
		return nil, errs.TxBuildFailed("from/to address required", nil)
	}
	if req.Amount == nil || req.Amount.Sign() < 0 {
		return nil, errs.TxBuildFailed("amount must be non-negative", nil)
	}
	seq, err := a.rpc.AccountSequence(ctx, req.From)
	if err != nil {
		return nil, errs.NetworkRPC("accounts/sequence", err)
	}
	fee, err := a.rpc.BaseFee(ctx)
	if err != nil || fee <= 0 {
		fee = 100 // stroops, the network's historical base fee
	}

	var opXDR []byte
	if d, ok := req.ChainSpecific["operation_xdr"].([]byte); ok {
		opXDR = d
	} else {
		opXDR = []byte(fmt.Sprintf("payment:%s:%s", req.To, req.Amount.String()))
	}

	payload := append([]byte{}, opXDR...)
	payload = append(payload, big.NewInt(seq+1).Bytes()...)

	return &chainadapter.UnsignedTransaction{
		ID:             fmt.Sprintf("stellar-%s-%d", req.From, seq+1),
		Chain:          domain.ChainStellar,
		From:           req.From,
		To:             req.To,
		Amount:         req.Amount,
		Fee:            big.NewInt(fee),
		SigningPayload: payload,
		ChainSpecific: map[string]any{
			"sequence":      seq + 1,
			"operation_xdr": opXDR,
		},
		CreatedAt: time.Now(),
	}, nil
}

func (a *Adapter) SignTransaction(ctx context.Context, unsigned *chainadapter.UnsignedTransaction, signer chainadapter.Signer) (*chainadapter.SignedTransaction, error) {
	if signer.GetAddress() != unsigned.From {
		return nil, errs.TxSignFailed("signer address does not match transaction sender", nil)
	}
	sig, err := signer.Sign(unsigned.SigningPayload, unsigned.From)
	if err != nil {
		return nil, errs.TxSignFailed("signing stellar transaction envelope", err)
	}
	return &chainadapter.SignedTransaction{Unsigned: unsigned, Signature: sig, SignedBy: unsigned.From, TxHash: unsigned.ID, SerializedTx: append(sig, unsigned.SigningPayload...), SignedAt: time.Now()}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, signed *chainadapter.SignedTransaction) (string, error) {
	hash, err := a.rpc.SubmitTransaction(ctx, signed.SerializedTx)
	if err != nil {
		return "", errs.TxBroadcastFailed("transactions POST", err)
	}
	return hash, nil
}

// CreateHTLC builds a createClaimableBalance-style operation string that
// records the hashlock, receiver and expiry. No claimant predicates are
// attached: neither the receiver's time-bounded claim nor the sender's
// post-expiry refund is expressed as a Stellar claim condition.
func (a *Adapter) CreateHTLC(ctx context.Context, params domain.HTLCParams) (*chainadapter.UnsignedTransaction, error) {
	if err := params.Validate(time.Now().Unix()); err != nil {
		return nil, errs.HTLCCreateFailed(err.Error(), nil)
	}
	opXDR := []byte(fmt.Sprintf("createClaimableBalance:hashlock=%x:receiver=%s:expiry=%d", params.Hashlock, params.Receiver, params.Expiry))
	req := chainadapter.TransactionRequest{From: params.Sender, To: params.Receiver, Amount: params.Amount, ChainSpecific: map[string]any{"operation_xdr": opXDR}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCCreateFailed("building createClaimableBalance operation", err)
	}
	return unsigned, nil
}

func (a *Adapter) ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*chainadapter.UnsignedTransaction, error) {
	opXDR := []byte(fmt.Sprintf("claimClaimableBalance:id=%s:preimage=%x", htlcID, preimage))
	req := chainadapter.TransactionRequest{To: htlcID, Amount: big.NewInt(0), ChainSpecific: map[string]any{"operation_xdr": opXDR}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCClaimFailed("building claimClaimableBalance operation", err)
	}
	return unsigned, nil
}

func (a *Adapter) RefundHTLC(ctx context.Context, htlcID string) (*chainadapter.UnsignedTransaction, error) {
	opXDR := []byte(fmt.Sprintf("claimClaimableBalance:id=%s:refund=true", htlcID))
	req := chainadapter.TransactionRequest{To: htlcID, Amount: big.NewInt(0), ChainSpecific: map[string]any{"operation_xdr": opXDR}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCRefundFailed("building claimClaimableBalance refund operation", err)
	}
	return unsigned, nil
}

func (a *Adapter) HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error) {
	confs, _, err := a.rpc.TransactionStatus(ctx, htlcID)
	if err != nil {
		return nil, errs.HTLCNotFound(htlcID)
	}
	state := domain.HTLCLocked
	if confs == 0 {
		state = domain.HTLCPending
	}
	return &domain.HTLCStatus{ID: htlcID, Chain: domain.ChainStellar, State: state, UpdatedAt: time.Now()}, nil
}

func (a *Adapter) SubscribeAddress(ctx context.Context, address string) (<-chan *chainadapter.Transaction, func(), error) {
	out := make(chan *chainadapter.Transaction, 8)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, cancel, nil
}

func (a *Adapter) GetTransaction(ctx context.Context, txHash string) (*chainadapter.Transaction, error) {
	confs, ledger, err := a.rpc.TransactionStatus(ctx, txHash)
	if err != nil {
		return nil, errs.NetworkRPC("transactions/{hash}", err)
	}
	return &chainadapter.Transaction{Hash: txHash, Chain: domain.ChainStellar, Confirmations: confs, BlockHeight: ledger}, nil
}

func (a *Adapter) BlockHeight(ctx context.Context) (uint64, error) {
	n, err := a.rpc.LatestLedger(ctx)
	if err != nil {
		return 0, errs.NetworkRPC("ledgers", err)
	}
	return n, nil
}

func (a *Adapter) Confirmations(ctx context.Context, txHash string) (int, error) {
	confs, _, err := a.rpc.TransactionStatus(ctx, txHash)
	if err != nil {
		return 0, errs.NetworkRPC("transactions/{hash}", err)
	}
	return confs, nil
}

func (a *Adapter) IsFinalized(ctx context.Context, txHash string) (bool, error) {
	confs, err := a.Confirmations(ctx, txHash)
	if err != nil {
		return false, err
	}
	return confs >= 1, nil
}

func (a *Adapter) BlockTimeMS(ctx context.Context) (int64, error) { return 5000, nil }

func (a *Adapter) EstimateGas(ctx context.Context, req chainadapter.TransactionRequest) (*big.Int, error) {
	fee, err := a.rpc.BaseFee(ctx)
	if err != nil || fee <= 0 {
		fee = 100
	}
	return big.NewInt(fee), nil
}

func (a *Adapter) WaitForConfirmation(ctx context.Context, txHash string, n int) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		confs, err := a.Confirmations(ctx, txHash)
		if err == nil && confs >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return errs.TxConfirmationTimeout(fmt.Sprintf("waiting for %d confirmations on %s", n, txHash))
		case <-ticker.C:
		}
	}
}
