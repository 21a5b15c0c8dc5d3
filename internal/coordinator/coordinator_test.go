package coordinator

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/registry"
	"github.com/swapcore/swapcore/internal/swapaudit"
	"github.com/swapcore/swapcore/internal/watchdog"
)

// stubAdapter is a minimal, always-succeeding chainadapter.Adapter, with
// hooks to force specific failures for the unhappy-path tests. It
// remembers the params of the last HTLC it was asked to create and
// echoes them back from HTLCStatus, mimicking the real adapters'
// created-HTLC cache closely enough to exercise the coordinator's
// destination-HTLC validation gate.
type stubAdapter struct {
	chain          domain.Chain
	failCreateHTLC bool
	failClaim      bool
	failConfirm    bool
	htlcCounter    int
	lastParams     domain.HTLCParams
	mismatchField  string // "hashlock", "amount", "receiver", or "expiry"; empty means echo faithfully
}

func (s *stubAdapter) Chain() domain.Chain { return s.chain }
func (s *stubAdapter) Capabilities() chainadapter.Capabilities {
	return chainadapter.Capabilities{Chain: s.chain, MinConfirmations: 1}
}
func (s *stubAdapter) Initialize(ctx context.Context, cfg chainadapter.Config) error { return nil }
func (s *stubAdapter) DeriveAddress(publicKey []byte) (string, error)                { return "addr", nil }
func (s *stubAdapter) Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (s *stubAdapter) BuildTransaction(ctx context.Context, req chainadapter.TransactionRequest) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "tx", Chain: s.chain}, nil
}
func (s *stubAdapter) SignTransaction(ctx context.Context, unsigned *chainadapter.UnsignedTransaction, signer chainadapter.Signer) (*chainadapter.SignedTransaction, error) {
	return &chainadapter.SignedTransaction{Unsigned: unsigned, TxHash: unsigned.ID}, nil
}
func (s *stubAdapter) Broadcast(ctx context.Context, signed *chainadapter.SignedTransaction) (string, error) {
	return signed.TxHash, nil
}
func (s *stubAdapter) CreateHTLC(ctx context.Context, params domain.HTLCParams) (*chainadapter.UnsignedTransaction, error) {
	if s.failCreateHTLC {
		return nil, assertErr("create htlc failed")
	}
	s.htlcCounter++
	s.lastParams = params
	return &chainadapter.UnsignedTransaction{ID: "htlc-tx", Chain: s.chain}, nil
}
func (s *stubAdapter) ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*chainadapter.UnsignedTransaction, error) {
	if s.failClaim {
		return nil, assertErr("claim htlc failed")
	}
	return &chainadapter.UnsignedTransaction{ID: "claim-tx", Chain: s.chain}, nil
}
func (s *stubAdapter) RefundHTLC(ctx context.Context, htlcID string) (*chainadapter.UnsignedTransaction, error) {
	return &chainadapter.UnsignedTransaction{ID: "refund-tx", Chain: s.chain}, nil
}
func (s *stubAdapter) HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error) {
	status := &domain.HTLCStatus{
		State:       domain.HTLCLocked,
		Receiver:    s.lastParams.Receiver,
		Amount:      s.lastParams.Amount.String(),
		HashlockHex: s.lastParams.Hashlock.Hex(),
		Expiry:      s.lastParams.Expiry,
	}
	switch s.mismatchField {
	case "hashlock":
		status.HashlockHex = "deadbeef"
	case "amount":
		status.Amount = "0"
	case "receiver":
		status.Receiver = "someone-else"
	case "expiry":
		status.Expiry += 1_000_000
	}
	return status, nil
}
func (s *stubAdapter) SubscribeAddress(ctx context.Context, address string) (<-chan *chainadapter.Transaction, func(), error) {
	ch := make(chan *chainadapter.Transaction)
	return ch, func() { close(ch) }, nil
}
func (s *stubAdapter) GetTransaction(ctx context.Context, txHash string) (*chainadapter.Transaction, error) {
	return &chainadapter.Transaction{Hash: txHash}, nil
}
func (s *stubAdapter) BlockHeight(ctx context.Context) (uint64, error) { return 1, nil }
func (s *stubAdapter) Confirmations(ctx context.Context, txHash string) (int, error) { return 1, nil }
func (s *stubAdapter) IsFinalized(ctx context.Context, txHash string) (bool, error)  { return true, nil }
func (s *stubAdapter) BlockTimeMS(ctx context.Context) (int64, error)                { return 1000, nil }
func (s *stubAdapter) EstimateGas(ctx context.Context, req chainadapter.TransactionRequest) (*big.Int, error) {
	return big.NewInt(1000), nil
}
func (s *stubAdapter) WaitForConfirmation(ctx context.Context, txHash string, n int) error {
	if s.failConfirm {
		return assertErr("confirmation timed out")
	}
	return nil
}

var _ chainadapter.Adapter = (*stubAdapter)(nil)

type assertErr string

func (e assertErr) Error() string { return string(e) }

func testIntent(t *testing.T) *domain.SwapIntent {
	t.Helper()
	return &domain.SwapIntent{
		ID:            "swap-1",
		UserAddresses: map[domain.Chain]string{domain.ChainBitcoin: "btc-user", domain.ChainEthereum: "eth-user"},
		SourceChain:   domain.ChainBitcoin,
		SourceAsset:   domain.Asset{Symbol: "BTC", Chain: domain.ChainBitcoin},
		SourceAmount:  big.NewInt(100000),
		DestChain:     domain.ChainEthereum,
		DestAsset:     domain.Asset{Symbol: "ETH", Chain: domain.ChainEthereum},
		MinDestAmount: big.NewInt(1_000_000_000_000_000),
		MaxSlippage:   0.01,
		Deadline:      time.Now().Add(24 * time.Hour),
		Privacy:       domain.PrivacyStandard,
		Status:        domain.IntentPending,
		CreatedAt:     time.Now(),
	}
}

func newTestCoordinator(t *testing.T, btc, eth *stubAdapter) (*Coordinator, *registry.Registry) {
	t.Helper()
	reg := registry.New(zap.NewNop())
	reg.Register(btc)
	reg.Register(eth)
	results := reg.InitializeAll(context.Background(), map[domain.Chain]chainadapter.Config{
		domain.ChainBitcoin:  {},
		domain.ChainEthereum: {},
	})
	for chain, err := range results {
		require.NoErrorf(t, err, "chain %s", chain)
	}

	wd := watchdog.New(reg, nil, time.Minute, 2, 3, zap.NewNop())
	return New(reg, wd, zap.NewNop()), reg
}

func TestExecute_PersistsStepsToAttachedAuditLog(t *testing.T) {
	btc := &stubAdapter{chain: domain.ChainBitcoin}
	eth := &stubAdapter{chain: domain.ChainEthereum}
	c, _ := newTestCoordinator(t, btc, eth)

	logger, err := swapaudit.New(filepath.Join(t.TempDir(), "audit.ndjson"))
	require.NoError(t, err)
	c.WithAudit(logger)

	intent := testIntent(t)
	exec, err := c.Execute(context.Background(), intent, testSolver())
	require.NoError(t, err)
	require.Equal(t, domain.StandardCompleted, exec.Phase)

	entries, err := logger.ReadAll(intent.ID)
	require.NoError(t, err)
	assert.Equal(t, len(exec.Log), len(entries))
	assert.Equal(t, "create_source_htlc", entries[0].Step.Name)
}

func testSolver() *domain.Solver {
	return &domain.Solver{
		ID: "solver-1",
		Addresses: map[domain.Chain]string{
			domain.ChainBitcoin:  "btc-solver",
			domain.ChainEthereum: "eth-solver",
		},
	}
}

func TestExecute_HappyPathCompletes(t *testing.T) {
	btc := &stubAdapter{chain: domain.ChainBitcoin}
	eth := &stubAdapter{chain: domain.ChainEthereum}
	c, _ := newTestCoordinator(t, btc, eth)

	exec, err := c.Execute(context.Background(), testIntent(t), testSolver())
	require.NoError(t, err)
	assert.Equal(t, domain.StandardCompleted, exec.Phase)
	assert.NotEmpty(t, exec.SourceTxID)
	assert.NotEmpty(t, exec.DestTxID)
	assert.NotEmpty(t, exec.Log)
}

func TestExecute_RejectsInvalidIntent(t *testing.T) {
	btc := &stubAdapter{chain: domain.ChainBitcoin}
	eth := &stubAdapter{chain: domain.ChainEthereum}
	c, _ := newTestCoordinator(t, btc, eth)

	intent := testIntent(t)
	intent.SourceChain = intent.DestChain // violates the distinct-chains invariant

	_, err := c.Execute(context.Background(), intent, testSolver())
	assert.Error(t, err)
}

func TestExecute_DestLockFailureSchedulesRefund(t *testing.T) {
	btc := &stubAdapter{chain: domain.ChainBitcoin}
	eth := &stubAdapter{chain: domain.ChainEthereum, failCreateHTLC: true}
	c, _ := newTestCoordinator(t, btc, eth)

	exec, err := c.Execute(context.Background(), testIntent(t), testSolver())
	assert.Error(t, err)
	assert.Equal(t, domain.StandardRefunding, exec.Phase)
}

func TestExecute_DestConfirmationFailureSchedulesRefund(t *testing.T) {
	btc := &stubAdapter{chain: domain.ChainBitcoin}
	eth := &stubAdapter{chain: domain.ChainEthereum, failConfirm: true}
	c, _ := newTestCoordinator(t, btc, eth)

	exec, err := c.Execute(context.Background(), testIntent(t), testSolver())
	assert.Error(t, err)
	assert.Equal(t, domain.StandardRefunding, exec.Phase)
}

func TestExecute_DestHTLCParamsMismatchSchedulesRefundAndDoesNotClaim(t *testing.T) {
	for _, field := range []string{"hashlock", "amount", "receiver", "expiry"} {
		t.Run(field, func(t *testing.T) {
			btc := &stubAdapter{chain: domain.ChainBitcoin}
			eth := &stubAdapter{chain: domain.ChainEthereum, mismatchField: field}
			c, _ := newTestCoordinator(t, btc, eth)

			exec, err := c.Execute(context.Background(), testIntent(t), testSolver())
			assert.Error(t, err)
			assert.Equal(t, domain.StandardRefunding, exec.Phase)
			for _, step := range exec.Log {
				assert.NotEqual(t, "claim_dest_htlc", step.Name, "must never claim a destination HTLC whose confirmed params don't match what was requested")
			}
		})
	}
}
