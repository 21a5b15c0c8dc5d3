package registry

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
)

// mockAdapter is a bare stand-in satisfying chainadapter.Adapter, enough
// to exercise registry wiring without a live chain.
type mockAdapter struct {
	chain     domain.Chain
	initErr   error
	initCalls int
}

func (m *mockAdapter) Chain() domain.Chain { return m.chain }
func (m *mockAdapter) Capabilities() chainadapter.Capabilities {
	return chainadapter.Capabilities{Chain: m.chain, MinConfirmations: 1}
}
func (m *mockAdapter) Initialize(ctx context.Context, cfg chainadapter.Config) error {
	m.initCalls++
	return m.initErr
}
func (m *mockAdapter) DeriveAddress(publicKey []byte) (string, error) { return "mock-address", nil }
func (m *mockAdapter) Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (m *mockAdapter) BuildTransaction(ctx context.Context, req chainadapter.TransactionRequest) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "tx1", Chain: m.chain}, nil
}
func (m *mockAdapter) SignTransaction(ctx context.Context, unsigned *chainadapter.UnsignedTransaction, signer chainadapter.Signer) (*chainadapter.SignedTransaction, error) {
	return &chainadapter.SignedTransaction{Unsigned: unsigned, TxHash: "tx1"}, nil
}
func (m *mockAdapter) Broadcast(ctx context.Context, signed *chainadapter.SignedTransaction) (string, error) {
	return signed.TxHash, nil
}
func (m *mockAdapter) CreateHTLC(ctx context.Context, params domain.HTLCParams) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "htlc1", Chain: m.chain}, nil
}
func (m *mockAdapter) ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "claim1", Chain: m.chain}, nil
}
func (m *mockAdapter) RefundHTLC(ctx context.Context, htlcID string) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "refund1", Chain: m.chain}, nil
}
func (m *mockAdapter) HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error) {
	return &domain.HTLCStatus{State: domain.HTLCLocked}, nil
}
func (m *mockAdapter) SubscribeAddress(ctx context.Context, address string) (<-chan *chainadapter.Transaction, func(), error) {
	ch := make(chan *chainadapter.Transaction)
	return ch, func() { close(ch) }, nil
}
func (m *mockAdapter) GetTransaction(ctx context.Context, txHash string) (*chainadapter.Transaction, error) {
	return &chainadapter.Transaction{Hash: txHash}, nil
}
func (m *mockAdapter) BlockHeight(ctx context.Context) (uint64, error)         { return 100, nil }
func (m *mockAdapter) Confirmations(ctx context.Context, txHash string) (int, error) { return 6, nil }
func (m *mockAdapter) IsFinalized(ctx context.Context, txHash string) (bool, error) { return true, nil }
func (m *mockAdapter) BlockTimeMS(ctx context.Context) (int64, error)          { return 600000, nil }
func (m *mockAdapter) EstimateGas(ctx context.Context, req chainadapter.TransactionRequest) (*big.Int, error) {
	return big.NewInt(21000), nil
}
func (m *mockAdapter) WaitForConfirmation(ctx context.Context, txHash string, n int) error { return nil }

var _ chainadapter.Adapter = (*mockAdapter)(nil)

func TestLookup_NotFound(t *testing.T) {
	r := New(zap.NewNop())
	_, err := r.Lookup(domain.ChainBitcoin)
	require.Error(t, err)
}

func TestLookup_NotInitialized(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(&mockAdapter{chain: domain.ChainBitcoin})
	_, err := r.Lookup(domain.ChainBitcoin)
	require.Error(t, err)
}

func TestInitializeAll_SucceedsAndUnblocksLookup(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(&mockAdapter{chain: domain.ChainBitcoin})
	r.Register(&mockAdapter{chain: domain.ChainEthereum})

	configs := map[domain.Chain]chainadapter.Config{
		domain.ChainBitcoin:  {RPCURL: "http://btc"},
		domain.ChainEthereum: {RPCURL: "http://eth"},
	}
	results := r.InitializeAll(context.Background(), configs)
	assert.Len(t, results, 2)
	for chain, err := range results {
		assert.NoErrorf(t, err, "chain %s", chain)
	}

	a, err := r.Lookup(domain.ChainBitcoin)
	require.NoError(t, err)
	assert.Equal(t, domain.ChainBitcoin, a.Chain())
}

func TestInitializeAll_CollectsPerChainErrors(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(&mockAdapter{chain: domain.ChainBitcoin, initErr: errors.New("rpc unreachable")})
	r.Register(&mockAdapter{chain: domain.ChainEthereum})

	configs := map[domain.Chain]chainadapter.Config{
		domain.ChainBitcoin:  {RPCURL: "http://btc"},
		domain.ChainEthereum: {RPCURL: "http://eth"},
	}
	results := r.InitializeAll(context.Background(), configs)
	assert.Error(t, results[domain.ChainBitcoin])
	assert.NoError(t, results[domain.ChainEthereum])

	_, err := r.Lookup(domain.ChainBitcoin)
	assert.Error(t, err, "a chain whose Initialize failed must stay unusable")

	_, err = r.Lookup(domain.ChainEthereum)
	assert.NoError(t, err)
}

func TestInitializeAll_MissingConfigIsPerChainError(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(&mockAdapter{chain: domain.ChainSolana})

	results := r.InitializeAll(context.Background(), map[domain.Chain]chainadapter.Config{})
	assert.Error(t, results[domain.ChainSolana])
}

func TestChains_ReturnsRegistered(t *testing.T) {
	r := New(zap.NewNop())
	r.Register(&mockAdapter{chain: domain.ChainBitcoin})
	r.Register(&mockAdapter{chain: domain.ChainZilliqa})

	chains := r.Chains()
	assert.ElementsMatch(t, []domain.Chain{domain.ChainBitcoin, domain.ChainZilliqa}, chains)
}
