package stellar

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
)

type mockRPC struct {
	seq       int64
	fee       int64
	submitErr error
	confs     int
	ledger    uint64
	balance   *big.Int
}

func (m *mockRPC) AccountSequence(ctx context.Context, address string) (int64, error) { return m.seq, nil }
func (m *mockRPC) SubmitTransaction(ctx context.Context, envelopeXDR []byte) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return "stellar-hash", nil
}
func (m *mockRPC) TransactionStatus(ctx context.Context, hash string) (int, *uint64, error) {
	return m.confs, &m.ledger, nil
}
func (m *mockRPC) LatestLedger(ctx context.Context) (uint64, error) { return m.ledger, nil }
func (m *mockRPC) AccountBalance(ctx context.Context, address string) (*big.Int, error) {
	return m.balance, nil
}
func (m *mockRPC) BaseFee(ctx context.Context) (int64, error) { return m.fee, nil }

const (
	fromAddr = "GA7QYNF7SOWQ3GLR2BGMZEHXAVIRZA4KVWLTJJFC7MGXUA74P7UJVSGZ"
	toAddr   = "GCKFBEIYTKP6RJGFQW5QKNGQEF4JYZF5GSX45G25AE4PQ3Z6YXAVEGHZ"
)

func TestInitialize_RejectsNilRPC(t *testing.T) {
	a := New(nil)
	err := a.Initialize(context.Background(), chainadapter.Config{})
	assert.Error(t, err)
}

func TestCapabilities_IsShieldedHubCapable(t *testing.T) {
	a := New(&mockRPC{})
	caps := a.Capabilities()
	assert.Equal(t, domain.ChainStellar, caps.Chain)
	assert.True(t, caps.SupportsShieldedOps, "stellar is the module's default privacy-hub chain")
	assert.Equal(t, 1, caps.MinConfirmations)
}

func TestDeriveAddress_RejectsWrongLength(t *testing.T) {
	a := New(&mockRPC{})
	_, err := a.DeriveAddress([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDeriveAddress_ProducesGAddress(t *testing.T) {
	a := New(&mockRPC{})
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	addr, err := a.DeriveAddress(seed)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "G"))
}

func TestBuildTransaction_UsesDefaultFeeOnZeroQuote(t *testing.T) {
	rpc := &mockRPC{fee: 0}
	a := New(rpc)
	unsigned, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), unsigned.Fee)
}

func TestBuildTransaction_IncrementsSequence(t *testing.T) {
	rpc := &mockRPC{seq: 10, fee: 100}
	a := New(rpc)
	unsigned, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), unsigned.ChainSpecific["sequence"])
}

func TestCreateHTLC_EmbedsHashlockInOperationPayload(t *testing.T) {
	a := New(&mockRPC{fee: 100})

	var hashlock domain.Hashlock
	copy(hashlock[:], []byte("01234567890123456789012345678901"))

	unsigned, err := a.CreateHTLC(context.Background(), domain.HTLCParams{
		Sender: fromAddr, Receiver: toAddr, Amount: big.NewInt(100), Hashlock: hashlock, Expiry: 2000000000,
	})
	require.NoError(t, err)
	opXDR := string(unsigned.ChainSpecific["operation_xdr"].([]byte))
	assert.Contains(t, opXDR, fmt.Sprintf("%x", hashlock))
	assert.Contains(t, opXDR, "createClaimableBalance")
}

func TestClaimHTLC_EmbedsPreimage(t *testing.T) {
	a := New(&mockRPC{fee: 100})

	var secret domain.Secret
	copy(secret[:], []byte("preimage-preimage-preimage-pad!"))

	unsigned, err := a.ClaimHTLC(context.Background(), "balance-id-1", secret)
	require.NoError(t, err)
	opXDR := string(unsigned.ChainSpecific["operation_xdr"].([]byte))
	assert.Contains(t, opXDR, "claimClaimableBalance")
	assert.Contains(t, opXDR, fmt.Sprintf("%x", secret))
}

func TestHTLCStatus_PendingWithoutConfirmations(t *testing.T) {
	a := New(&mockRPC{confs: 0})
	status, err := a.HTLCStatus(context.Background(), "balance-id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.HTLCPending, status.State)
}

func TestIsFinalized_RequiresOneConfirmation(t *testing.T) {
	a := New(&mockRPC{confs: 0})
	finalized, err := a.IsFinalized(context.Background(), "stellar-hash")
	require.NoError(t, err)
	assert.False(t, finalized)

	a = New(&mockRPC{confs: 1})
	finalized, err = a.IsFinalized(context.Background(), "stellar-hash")
	require.NoError(t, err)
	assert.True(t, finalized)
}
