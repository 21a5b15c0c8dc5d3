// Package zilliqa adapts the account-model, Scilla-contract transaction
// model to the uniform chainadapter.Adapter contract. Grounded on the
// teacher's internal/services/address/zilliqa.go for address derivation
// (Schnorr-over-secp256k1, SHA256(pubkey) -> Bech32 "zil1..." via
// github.com/Zilliqa/gozilliqa-sdk), generalized to also assemble Scilla
// "transition call" JSON payloads for HTLC lock/claim/refund — this
// module's stand-in for the "contract execute message as JSON" shape
// other account-model smart-contract chains use.
package zilliqa

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"github.com/Zilliqa/gozilliqa-sdk/keytools"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
)

// RPCClient is the minimal Zilliqa JSON-RPC surface the adapter needs.
type RPCClient interface {
	GetBalance(ctx context.Context, address string) (balance *big.Int, nonce uint64, err error)
	CreateTransaction(ctx context.Context, payload []byte) (txHash string, err error)
	GetTransactionStatus(ctx context.Context, txHash string) (confirmations int, blockNumber *uint64, err error)
	GetNumTxBlocks(ctx context.Context) (uint64, error)
}

// scillaTransition is the JSON shape Zilliqa nodes expect in a
// contract-call transaction's "data" field: {"_tag", "params": [...]}.
type scillaTransition struct {
	Tag    string           `json:"_tag"`
	Params []scillaParamKV  `json:"params"`
}

type scillaParamKV struct {
	VName string `json:"vname"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Adapter struct {
	mu      sync.RWMutex
	rpc     RPCClient
	htlcSC  string
	ready   bool
}

func New(rpc RPCClient, htlcContractAddress string) *Adapter {
	return &Adapter{rpc: rpc, htlcSC: htlcContractAddress}
}

func (a *Adapter) Chain() domain.Chain { return domain.ChainZilliqa }

func (a *Adapter) Capabilities() chainadapter.Capabilities {
	return chainadapter.Capabilities{
		Chain:            domain.ChainZilliqa,
		SupportsMemo:     true,
		MinConfirmations: 2,
	}
}

func (a *Adapter) Initialize(ctx context.Context, cfg chainadapter.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rpc == nil {
		return errs.AdapterInitFailed(string(domain.ChainZilliqa), fmt.Errorf("no RPC client configured"))
	}
	a.ready = true
	return nil
}

func (a *Adapter) DeriveAddress(publicKey []byte) (string, error) {
	rawAddress := keytools.GetAddressFromPublic(publicKey)
	if len(rawAddress) == 0 {
		return "", errs.TxBuildFailed("deriving zilliqa address", nil)
	}
	addr, err := bech32.ToBech32Address(rawAddress)
	if err != nil {
		return "", errs.TxBuildFailed("bech32-encoding zilliqa address", err)
	}
	return addr, nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error) {
	bal, _, err := a.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, errs.NetworkRPC("GetBalance", err)
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
	_, nonce, err := a.rpc.GetBalance(ctx, req.From)
	if err != nil {
		return nil, errs.NetworkRPC("GetBalance", err)
	}

	var data []byte
	if d, ok := req.ChainSpecific["scilla_data"].([]byte); ok {
		data = d
	}

	payload, err := json.Marshal(map[string]any{
		"version":  65537, // mainnet chain id 1 packed per Zilliqa's version scheme
		"nonce":    nonce + 1,
		"toAddr":   req.To,
		"amount":   req.Amount.String(),
		"gasPrice": "2000000000",
		"gasLimit": "9000",
		"data":     string(data),
	})
	if err != nil {
		return nil, errs.TxBuildFailed("marshaling zilliqa transaction payload", err)
	}

	return &chainadapter.UnsignedTransaction{
		ID:             fmt.Sprintf("zil-%s-%d", req.From, nonce+1),
		Chain:          domain.ChainZilliqa,
		From:           req.From,
		To:             req.To,
		Amount:         req.Amount,
		Fee:            big.NewInt(2000000000 * 9000),
		SigningPayload: payload,
		ChainSpecific: map[string]any{
			"nonce":       nonce + 1,
			"scilla_data": data,
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
		return nil, errs.TxSignFailed("signing zilliqa transaction (Schnorr-over-secp256k1)", err)
	}
	return &chainadapter.SignedTransaction{Unsigned: unsigned, Signature: sig, SignedBy: unsigned.From, TxHash: unsigned.ID, SerializedTx: unsigned.SigningPayload, SignedAt: time.Now()}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, signed *chainadapter.SignedTransaction) (string, error) {
	hash, err := a.rpc.CreateTransaction(ctx, signed.SerializedTx)
	if err != nil {
		return "", errs.TxBroadcastFailed("CreateTransaction", err)
	}
	return hash, nil
}

func scillaCall(tag string, params ...scillaParamKV) ([]byte, error) {
	out, err := json.Marshal(scillaTransition{Tag: tag, Params: params})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) CreateHTLC(ctx context.Context, params domain.HTLCParams) (*chainadapter.UnsignedTransaction, error) {
	if err := params.Validate(time.Now().Unix()); err != nil {
		return nil, errs.HTLCCreateFailed(err.Error(), nil)
	}
	data, err := scillaCall("Lock",
		scillaParamKV{VName: "hashlock", Type: "ByStr32", Value: fmt.Sprintf("0x%x", params.Hashlock)},
		scillaParamKV{VName: "receiver", Type: "ByStr20", Value: params.Receiver},
		scillaParamKV{VName: "expiry", Type: "BNum", Value: fmt.Sprintf("%d", params.Expiry)},
	)
	if err != nil {
		return nil, errs.HTLCCreateFailed("building Scilla Lock transition", err)
	}
	req := chainadapter.TransactionRequest{From: params.Sender, To: a.htlcSC, Amount: params.Amount, ChainSpecific: map[string]any{"scilla_data": data}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCCreateFailed("building HTLC lock transaction", err)
	}
	return unsigned, nil
}

func (a *Adapter) ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*chainadapter.UnsignedTransaction, error) {
	data, err := scillaCall("Claim", scillaParamKV{VName: "preimage", Type: "ByStr32", Value: fmt.Sprintf("0x%x", preimage)})
	if err != nil {
		return nil, errs.HTLCClaimFailed("building Scilla Claim transition", err)
	}
	req := chainadapter.TransactionRequest{To: a.htlcSC, Amount: big.NewInt(0), ChainSpecific: map[string]any{"scilla_data": data}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCClaimFailed("building HTLC claim transaction", err)
	}
	return unsigned, nil
}

func (a *Adapter) RefundHTLC(ctx context.Context, htlcID string) (*chainadapter.UnsignedTransaction, error) {
	data, err := scillaCall("Refund")
	if err != nil {
		return nil, errs.HTLCRefundFailed("building Scilla Refund transition", err)
	}
	req := chainadapter.TransactionRequest{To: a.htlcSC, Amount: big.NewInt(0), ChainSpecific: map[string]any{"scilla_data": data}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCRefundFailed("building HTLC refund transaction", err)
	}
	return unsigned, nil
}

func (a *Adapter) HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error) {
	confs, _, err := a.rpc.GetTransactionStatus(ctx, htlcID)
	if err != nil {
		return nil, errs.HTLCNotFound(htlcID)
	}
	state := domain.HTLCLocked
	if confs == 0 {
		state = domain.HTLCPending
	}
	return &domain.HTLCStatus{ID: htlcID, Chain: domain.ChainZilliqa, State: state, UpdatedAt: time.Now()}, nil
}

func (a *Adapter) SubscribeAddress(ctx context.Context, address string) (<-chan *chainadapter.Transaction, func(), error) {
	out := make(chan *chainadapter.Transaction, 8)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		ticker := time.NewTicker(45 * time.Second)
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
	confs, height, err := a.rpc.GetTransactionStatus(ctx, txHash)
	if err != nil {
		return nil, errs.NetworkRPC("GetTransactionStatus", err)
	}
	return &chainadapter.Transaction{Hash: txHash, Chain: domain.ChainZilliqa, Confirmations: confs, BlockHeight: height}, nil
}

func (a *Adapter) BlockHeight(ctx context.Context) (uint64, error) {
	n, err := a.rpc.GetNumTxBlocks(ctx)
	if err != nil {
		return 0, errs.NetworkRPC("GetNumTxBlocks", err)
	}
	return n, nil
}

func (a *Adapter) Confirmations(ctx context.Context, txHash string) (int, error) {
	confs, _, err := a.rpc.GetTransactionStatus(ctx, txHash)
	if err != nil {
		return 0, errs.NetworkRPC("GetTransactionStatus", err)
	}
	return confs, nil
}

func (a *Adapter) IsFinalized(ctx context.Context, txHash string) (bool, error) {
	confs, err := a.Confirmations(ctx, txHash)
	if err != nil {
		return false, err
	}
	return confs >= 2, nil
}

func (a *Adapter) BlockTimeMS(ctx context.Context) (int64, error) { return 45000, nil }

func (a *Adapter) EstimateGas(ctx context.Context, req chainadapter.TransactionRequest) (*big.Int, error) {
	return big.NewInt(2000000000 * 9000), nil
}

func (a *Adapter) WaitForConfirmation(ctx context.Context, txHash string, n int) error {
	ticker := time.NewTicker(45 * time.Second)
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
