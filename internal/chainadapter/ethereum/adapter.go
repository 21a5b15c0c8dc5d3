// Package ethereum adapts the account/nonce/gas EVM transaction model to
// the uniform chainadapter.Adapter contract. Grounded on the teacher's
// src/chainadapter/ethereum/adapter.go: nonce-then-gas-then-fee build
// order and the EIP-1559 fee-speed multiplier table are carried over,
// generalized to also ABI-encode calls against a fixed HTLC contract
// instead of only plain value transfers.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
)

// RPCClient is the subset of an Ethereum JSON-RPC client the adapter
// needs, mirroring the teacher's RPCHelper surface.
type RPCClient interface {
	NonceAt(ctx context.Context, address string) (uint64, error)
	EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error)
	BaseFee(ctx context.Context) (*big.Int, error)
	SuggestPriorityFee(ctx context.Context) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	TransactionReceipt(ctx context.Context, txHash string) (confirmations int, blockNumber *uint64, err error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, address string) (*big.Int, error)
}

// FeeSpeed picks the EIP-1559 base-fee multiplier, the teacher's table
// unchanged (src/chainadapter/ethereum/adapter.go Build, step 3).
type FeeSpeed int

const (
	FeeSpeedSlow FeeSpeed = iota
	FeeSpeedNormal
	FeeSpeedFast
)

// htlcABI is the fixed 4-byte selector table for the module's reference
// HTLC contract (newSwap/withdraw/refund), computed the same way the teacher's
// adapter would compute any method selector: keccak256(signature)[:4].
var htlcABI = struct {
	Lock, Claim, Refund [4]byte
}{
	Lock:   selector("newSwap(bytes32,address,uint256)"),
	Claim:  selector("withdraw(bytes32,bytes32)"),
	Refund: selector("refund(bytes32)"),
}

func selector(sig string) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Keccak256([]byte(sig))[:4])
	return out
}

// Adapter implements chainadapter.Adapter for Ethereum.
type Adapter struct {
	mu          sync.RWMutex
	rpc         RPCClient
	chainID     int64
	htlcAddress string
	ready       bool
}

func New(rpc RPCClient, htlcContractAddress string) *Adapter {
	return &Adapter{rpc: rpc, chainID: 1, htlcAddress: htlcContractAddress}
}

func (a *Adapter) Chain() domain.Chain { return domain.ChainEthereum }

func (a *Adapter) Capabilities() chainadapter.Capabilities {
	return chainadapter.Capabilities{
		Chain:            domain.ChainEthereum,
		SupportsMemo:     true,
		SupportsMultiSig: true,
		MinConfirmations: 12,
	}
}

func (a *Adapter) Initialize(ctx context.Context, cfg chainadapter.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rpc == nil {
		return errs.AdapterInitFailed(string(domain.ChainEthereum), fmt.Errorf("no RPC client configured"))
	}
	switch cfg.NetworkTag {
	case "mainnet", "":
		a.chainID = 1
	case "testnet":
		a.chainID = 11155111 // Sepolia
	}
	a.ready = true
	return nil
}

func (a *Adapter) DeriveAddress(publicKey []byte) (string, error) {
	if len(publicKey) != 65 && len(publicKey) != 64 {
		return "", errs.TxBuildFailed("ethereum address derivation requires an uncompressed public key", nil)
	}
	raw := publicKey
	if len(raw) == 65 {
		raw = raw[1:] // drop the 0x04 prefix
	}
	hash := crypto.Keccak256(raw)
	return ethcommon.BytesToAddress(hash[12:]).Hex(), nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error) {
	bal, err := a.rpc.BalanceAt(ctx, address)
	if err != nil {
		return nil, errs.NetworkRPC("eth_getBalance", err)
	}
	return bal, nil
}

// BuildTransaction follows the teacher's nonce -> gas-estimate (+10%
// buffer) -> EIP-1559 fee order verbatim.
func (a *Adapter) BuildTransaction(ctx context.Context, req chainadapter.TransactionRequest) (*chainadapter.UnsignedTransaction, error) {
	if req.From == "" || req.To == "" {
		return nil, errs.TxBuildFailed("from/to address required", nil)
	}
	if req.Amount == nil || req.Amount.Sign() < 0 {
		return nil, errs.TxBuildFailed("amount must be non-negative", nil)
	}

	nonce, err := a.rpc.NonceAt(ctx, req.From)
	if err != nil {
		return nil, errs.NetworkRPC("eth_getTransactionCount", err)
	}

	var data []byte
	if req.Memo != "" {
		data = []byte(req.Memo)
	}
	if d, ok := req.ChainSpecific["call_data"].([]byte); ok {
		data = d
	}

	gasLimit, err := a.rpc.EstimateGas(ctx, req.From, req.To, req.Amount, data)
	if err != nil {
		gasLimit = 21000
	}
	gasLimit = gasLimit * 110 / 100

	baseFee, err := a.rpc.BaseFee(ctx)
	if err != nil || baseFee == nil {
		baseFee = big.NewInt(30e9)
	}
	priorityFee, err := a.rpc.SuggestPriorityFee(ctx)
	if err != nil || priorityFee == nil {
		priorityFee = big.NewInt(2e9)
	}

	speed := FeeSpeedNormal
	if s, ok := req.ChainSpecific["fee_speed"].(FeeSpeed); ok {
		speed = s
	}
	var multiplier int64
	switch speed {
	case FeeSpeedFast:
		multiplier = 3
	case FeeSpeedSlow:
		multiplier = 1
	default:
		multiplier = 2
	}
	maxFeePerGas := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(multiplier)), priorityFee)

	signingPayload := append([]byte{}, data...)

	fee := new(big.Int).Mul(maxFeePerGas, big.NewInt(int64(gasLimit)))

	return &chainadapter.UnsignedTransaction{
		ID:             fmt.Sprintf("0x%x", crypto.Keccak256(signingPayload, []byte(req.From), big.NewInt(int64(nonce)).Bytes())),
		Chain:          domain.ChainEthereum,
		From:           req.From,
		To:             req.To,
		Amount:         req.Amount,
		Fee:            fee,
		SigningPayload: signingPayload,
		ChainSpecific: map[string]any{
			"nonce":          nonce,
			"gas_limit":      gasLimit,
			"max_fee_per_gas": maxFeePerGas,
			"priority_fee":   priorityFee,
			"chain_id":       a.chainID,
			"call_data":      data,
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
		return nil, errs.TxSignFailed("signing ethereum transaction", err)
	}
	return &chainadapter.SignedTransaction{Unsigned: unsigned, Signature: sig, SignedBy: unsigned.From, TxHash: unsigned.ID, SerializedTx: sig, SignedAt: time.Now()}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, signed *chainadapter.SignedTransaction) (string, error) {
	hash, err := a.rpc.SendRawTransaction(ctx, signed.SerializedTx)
	if err != nil {
		return "", errs.TxBroadcastFailed("eth_sendRawTransaction", err)
	}
	return hash, nil
}

func (a *Adapter) htlcCallData(method [4]byte, args ...[]byte) []byte {
	out := append([]byte{}, method[:]...)
	for _, a := range args {
		padded := make([]byte, 32)
		copy(padded[32-len(a):], a)
		out = append(out, padded...)
	}
	return out
}

func (a *Adapter) CreateHTLC(ctx context.Context, params domain.HTLCParams) (*chainadapter.UnsignedTransaction, error) {
	if err := params.Validate(time.Now().Unix()); err != nil {
		return nil, errs.HTLCCreateFailed(err.Error(), nil)
	}
	data := a.htlcCallData(htlcABI.Lock, params.Hashlock[:], ethcommon.HexToAddress(params.Receiver).Bytes(), big.NewInt(params.Expiry).Bytes())
	req := chainadapter.TransactionRequest{
		From: params.Sender, To: a.htlcAddress, Amount: params.Amount,
		ChainSpecific: map[string]any{"call_data": data},
	}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCCreateFailed("building HTLC lock call", err)
	}
	return unsigned, nil
}

func (a *Adapter) ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*chainadapter.UnsignedTransaction, error) {
	data := a.htlcCallData(htlcABI.Claim, ethcommon.HexToHash(htlcID).Bytes(), preimage[:])
	req := chainadapter.TransactionRequest{To: a.htlcAddress, Amount: big.NewInt(0), ChainSpecific: map[string]any{"call_data": data}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCClaimFailed("building HTLC claim call", err)
	}
	return unsigned, nil
}

func (a *Adapter) RefundHTLC(ctx context.Context, htlcID string) (*chainadapter.UnsignedTransaction, error) {
	data := a.htlcCallData(htlcABI.Refund, ethcommon.HexToHash(htlcID).Bytes())
	req := chainadapter.TransactionRequest{To: a.htlcAddress, Amount: big.NewInt(0), ChainSpecific: map[string]any{"call_data": data}}
	unsigned, err := a.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errs.HTLCRefundFailed("building HTLC refund call", err)
	}
	return unsigned, nil
}

func (a *Adapter) HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error) {
	confs, _, err := a.rpc.TransactionReceipt(ctx, htlcID)
	if err != nil {
		return nil, errs.HTLCNotFound(htlcID)
	}
	state := domain.HTLCLocked
	if confs == 0 {
		state = domain.HTLCPending
	}
	return &domain.HTLCStatus{ID: htlcID, Chain: domain.ChainEthereum, State: state, UpdatedAt: time.Now()}, nil
}

func (a *Adapter) SubscribeAddress(ctx context.Context, address string) (<-chan *chainadapter.Transaction, func(), error) {
	out := make(chan *chainadapter.Transaction, 8)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		ticker := time.NewTicker(12 * time.Second) // Ethereum's nominal block time
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
	confs, height, err := a.rpc.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, errs.NetworkRPC("eth_getTransactionReceipt", err)
	}
	return &chainadapter.Transaction{Hash: txHash, Chain: domain.ChainEthereum, Confirmations: confs, BlockHeight: height}, nil
}

func (a *Adapter) BlockHeight(ctx context.Context) (uint64, error) {
	n, err := a.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, errs.NetworkRPC("eth_blockNumber", err)
	}
	return n, nil
}

func (a *Adapter) Confirmations(ctx context.Context, txHash string) (int, error) {
	confs, _, err := a.rpc.TransactionReceipt(ctx, txHash)
	if err != nil {
		return 0, errs.NetworkRPC("eth_getTransactionReceipt", err)
	}
	return confs, nil
}

func (a *Adapter) IsFinalized(ctx context.Context, txHash string) (bool, error) {
	confs, err := a.Confirmations(ctx, txHash)
	if err != nil {
		return false, err
	}
	return confs >= 12, nil
}

func (a *Adapter) BlockTimeMS(ctx context.Context) (int64, error) { return 12000, nil }

func (a *Adapter) EstimateGas(ctx context.Context, req chainadapter.TransactionRequest) (*big.Int, error) {
	gasLimit, err := a.rpc.EstimateGas(ctx, req.From, req.To, req.Amount, nil)
	if err != nil {
		gasLimit = 21000
	}
	baseFee, err := a.rpc.BaseFee(ctx)
	if err != nil || baseFee == nil {
		baseFee = big.NewInt(30e9)
	}
	return new(big.Int).Mul(baseFee, big.NewInt(int64(gasLimit))), nil
}

func (a *Adapter) WaitForConfirmation(ctx context.Context, txHash string, n int) error {
	ticker := time.NewTicker(12 * time.Second)
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
