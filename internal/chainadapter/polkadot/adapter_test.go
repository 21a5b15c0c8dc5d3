package polkadot

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/cryptoutil"
	"github.com/swapcore/swapcore/internal/domain"
)

type mockRPC struct {
	nonce       uint32
	specVersion uint32
	txVersion   uint32
	submitErr   error
	confs       int
	height      uint64
	balance     *big.Int
}

func (m *mockRPC) AccountNonce(ctx context.Context, address string) (uint32, error) { return m.nonce, nil }
func (m *mockRPC) SubmitExtrinsic(ctx context.Context, raw []byte) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return "0xextrinsic", nil
}
func (m *mockRPC) ExtrinsicStatus(ctx context.Context, extrinsicHash string) (int, *uint64, error) {
	return m.confs, &m.height, nil
}
func (m *mockRPC) BlockNumber(ctx context.Context) (uint64, error) { return m.height, nil }
func (m *mockRPC) FreeBalance(ctx context.Context, address string) (*big.Int, error) {
	return m.balance, nil
}
func (m *mockRPC) RuntimeVersion(ctx context.Context) (uint32, uint32, error) {
	return m.specVersion, m.txVersion, nil
}

const (
	fromAddr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	toAddr   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
)

func TestInitialize_RejectsNilRPC(t *testing.T) {
	a := New(nil)
	err := a.Initialize(context.Background(), chainadapter.Config{})
	assert.Error(t, err)
}

func TestInitialize_Succeeds(t *testing.T) {
	a := New(&mockRPC{})
	require.NoError(t, a.Initialize(context.Background(), chainadapter.Config{}))
}

func TestCapabilities_ReportsDifferingNativeHash(t *testing.T) {
	a := New(&mockRPC{})
	caps := a.Capabilities()
	assert.Equal(t, domain.ChainPolkadot, caps.Chain)
	assert.True(t, caps.NativeHashDiffers)
	assert.Equal(t, 2, caps.MinConfirmations)
}

func TestDeriveAddress_RejectsWrongLength(t *testing.T) {
	a := New(&mockRPC{})
	_, err := a.DeriveAddress([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDeriveAddress_ProducesStableEncoding(t *testing.T) {
	a := New(&mockRPC{})
	pub := make([]byte, 32)
	addr1, err := a.DeriveAddress(pub)
	require.NoError(t, err)
	addr2, err := a.DeriveAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2, "SS58 encoding of the same key must be deterministic")
	assert.NotEmpty(t, addr1)
}

func TestBuildTransaction_RejectsMissingAddresses(t *testing.T) {
	a := New(&mockRPC{})
	_, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		To: toAddr, Amount: big.NewInt(100),
	})
	assert.Error(t, err)
}

func TestBuildTransaction_EmbedsNonceAndRuntimeVersion(t *testing.T) {
	rpc := &mockRPC{nonce: 7, specVersion: 9010, txVersion: 4}
	a := New(rpc)
	unsigned, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), unsigned.ChainSpecific["nonce"])
	assert.Equal(t, uint32(9010), unsigned.ChainSpecific["spec_version"])
	assert.Equal(t, big.NewInt(0), unsigned.Fee, "fees are weight-resolved at inclusion, not quoted here")
}

func TestCreateHTLC_BridgesHashlockToBlake2b(t *testing.T) {
	a := New(&mockRPC{})

	var hashlock domain.Hashlock
	copy(hashlock[:], []byte("01234567890123456789012345678901"))

	unsigned, err := a.CreateHTLC(context.Background(), domain.HTLCParams{
		Sender: fromAddr, Receiver: toAddr, Amount: big.NewInt(100), Hashlock: hashlock, Expiry: 2000000000,
	})
	require.NoError(t, err)

	data := unsigned.ChainSpecific["call_data"].([]byte)
	require.True(t, len(data) >= 2+32)
	assert.Equal(t, htlcPalletIndex, data[0])
	assert.Equal(t, callLock, data[1])

	expected, err := cryptoutil.BridgeToNativeHash([32]byte(hashlock))
	require.NoError(t, err)
	assert.Equal(t, expected[:], data[2:34])
}

func TestClaimHTLC_EmbedsClaimCall(t *testing.T) {
	a := New(&mockRPC{})

	var secret domain.Secret
	copy(secret[:], []byte("preimage-preimage-preimage-pad!"))

	unsigned, err := a.ClaimHTLC(context.Background(), toAddr, secret)
	require.NoError(t, err)
	data := unsigned.ChainSpecific["call_data"].([]byte)
	assert.Equal(t, callClaim, data[1])
}

func TestHTLCStatus_PendingWithoutConfirmations(t *testing.T) {
	a := New(&mockRPC{confs: 0})
	status, err := a.HTLCStatus(context.Background(), "0xextrinsic")
	require.NoError(t, err)
	assert.Equal(t, domain.HTLCPending, status.State)
}

func TestIsFinalized_RequiresTwoConfirmations(t *testing.T) {
	a := New(&mockRPC{confs: 1})
	finalized, err := a.IsFinalized(context.Background(), "0xextrinsic")
	require.NoError(t, err)
	assert.False(t, finalized)

	a = New(&mockRPC{confs: 2})
	finalized, err = a.IsFinalized(context.Background(), "0xextrinsic")
	require.NoError(t, err)
	assert.True(t, finalized)
}
