package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
)

type mockRPC struct {
	nonce        uint64
	gas          uint64
	gasErr       error
	baseFee      *big.Int
	priorityFee  *big.Int
	sendErr      error
	confs        int
	blockNum     uint64
	balance      *big.Int
}

func (m *mockRPC) NonceAt(ctx context.Context, address string) (uint64, error) { return m.nonce, nil }
func (m *mockRPC) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	if m.gasErr != nil {
		return 0, m.gasErr
	}
	return m.gas, nil
}
func (m *mockRPC) BaseFee(ctx context.Context) (*big.Int, error)           { return m.baseFee, nil }
func (m *mockRPC) SuggestPriorityFee(ctx context.Context) (*big.Int, error) { return m.priorityFee, nil }
func (m *mockRPC) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return "0xhash", nil
}
func (m *mockRPC) TransactionReceipt(ctx context.Context, txHash string) (int, *uint64, error) {
	return m.confs, &m.blockNum, nil
}
func (m *mockRPC) BlockNumber(ctx context.Context) (uint64, error) { return m.blockNum, nil }
func (m *mockRPC) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	return m.balance, nil
}

const (
	fromAddr = "0x0000000000000000000000000000000000dEaD"
	toAddr   = "0x000000000000000000000000000000000C0FFE"
)

func TestInitialize_RejectsNilRPC(t *testing.T) {
	a := New(nil, toAddr)
	err := a.Initialize(context.Background(), chainadapter.Config{NetworkTag: "mainnet"})
	assert.Error(t, err)
}

func TestInitialize_PicksSepoliaForTestnet(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	require.NoError(t, a.Initialize(context.Background(), chainadapter.Config{NetworkTag: "testnet"}))
	assert.Equal(t, int64(11155111), a.chainID)
}

func TestCapabilities(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	caps := a.Capabilities()
	assert.Equal(t, domain.ChainEthereum, caps.Chain)
	assert.True(t, caps.SupportsMemo)
	assert.True(t, caps.SupportsMultiSig)
	assert.Equal(t, 12, caps.MinConfirmations)
}

func TestDeriveAddress_RejectsShortKeys(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	_, err := a.DeriveAddress([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDeriveAddress_AcceptsUncompressedKey(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	pub := make([]byte, 65)
	pub[0] = 0x04
	addr, err := a.DeriveAddress(pub)
	require.NoError(t, err)
	assert.True(t, len(addr) == 42 && addr[:2] == "0x")
}

func TestBuildTransaction_RejectsNegativeAmount(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	_, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(-1),
	})
	assert.Error(t, err)
}

func TestBuildTransaction_FallsBackToDefaultsOnRPCErrors(t *testing.T) {
	rpc := &mockRPC{nonce: 3, gasErr: assertErr("estimate failed")}
	a := New(rpc, toAddr)
	unsigned, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000*110/100), unsigned.ChainSpecific["gas_limit"])
}

func TestBuildTransaction_AppliesFeeSpeedMultiplier(t *testing.T) {
	rpc := &mockRPC{gas: 21000, baseFee: big.NewInt(10), priorityFee: big.NewInt(1)}
	a := New(rpc, toAddr)

	slow, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(1000),
		ChainSpecific: map[string]any{"fee_speed": FeeSpeedSlow},
	})
	require.NoError(t, err)
	fast, err := a.BuildTransaction(context.Background(), chainadapter.TransactionRequest{
		From: fromAddr, To: toAddr, Amount: big.NewInt(1000),
		ChainSpecific: map[string]any{"fee_speed": FeeSpeedFast},
	})
	require.NoError(t, err)

	slowFee := slow.ChainSpecific["max_fee_per_gas"].(*big.Int)
	fastFee := fast.ChainSpecific["max_fee_per_gas"].(*big.Int)
	assert.True(t, fastFee.Cmp(slowFee) > 0, "fast speed must command a higher max fee per gas than slow")
}

func TestSignTransaction_RejectsMismatchedSigner(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	unsigned := &chainadapter.UnsignedTransaction{From: fromAddr, SigningPayload: []byte("payload")}
	_, err := a.SignTransaction(context.Background(), unsigned, &stubSigner{addr: "0xsomeoneelse"})
	assert.Error(t, err)
}

func TestSignTransaction_Succeeds(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	unsigned := &chainadapter.UnsignedTransaction{From: fromAddr, SigningPayload: []byte("payload")}
	signed, err := a.SignTransaction(context.Background(), unsigned, &stubSigner{addr: fromAddr})
	require.NoError(t, err)
	assert.Equal(t, fromAddr, signed.SignedBy)
}

func TestBroadcast_PropagatesRPCError(t *testing.T) {
	a := New(&mockRPC{sendErr: assertErr("rpc down")}, toAddr)
	_, err := a.Broadcast(context.Background(), &chainadapter.SignedTransaction{})
	assert.Error(t, err)
}

func TestCreateHTLC_RejectsInvalidParams(t *testing.T) {
	a := New(&mockRPC{}, toAddr)
	_, err := a.CreateHTLC(context.Background(), domain.HTLCParams{})
	assert.Error(t, err)
}

func TestCreateHTLC_EmbedsLockSelector(t *testing.T) {
	rpc := &mockRPC{gas: 21000, baseFee: big.NewInt(10), priorityFee: big.NewInt(1)}
	a := New(rpc, toAddr)

	var hashlock domain.Hashlock
	copy(hashlock[:], []byte("01234567890123456789012345678901"))

	unsigned, err := a.CreateHTLC(context.Background(), domain.HTLCParams{
		Sender: fromAddr, Receiver: toAddr, Amount: big.NewInt(1000), Hashlock: hashlock, Expiry: 2000000000,
	})
	require.NoError(t, err)
	data := unsigned.ChainSpecific["call_data"].([]byte)
	require.True(t, len(data) >= 4)
	assert.Equal(t, htlcABI.Lock[:], data[:4])
}

func TestClaimHTLC_EmbedsClaimSelector(t *testing.T) {
	rpc := &mockRPC{gas: 21000, baseFee: big.NewInt(10), priorityFee: big.NewInt(1)}
	a := New(rpc, toAddr)

	var secret domain.Secret
	copy(secret[:], []byte("preimage-preimage-preimage-pad!"))

	unsigned, err := a.ClaimHTLC(context.Background(), "0xhtlc1", secret)
	require.NoError(t, err)
	data := unsigned.ChainSpecific["call_data"].([]byte)
	assert.Equal(t, htlcABI.Claim[:], data[:4])
}

func TestHTLCStatus_PendingWithoutConfirmations(t *testing.T) {
	a := New(&mockRPC{confs: 0}, toAddr)
	status, err := a.HTLCStatus(context.Background(), "0xhtlc1")
	require.NoError(t, err)
	assert.Equal(t, domain.HTLCPending, status.State)
}

func TestHTLCStatus_LockedOnceConfirmed(t *testing.T) {
	a := New(&mockRPC{confs: 3}, toAddr)
	status, err := a.HTLCStatus(context.Background(), "0xhtlc1")
	require.NoError(t, err)
	assert.Equal(t, domain.HTLCLocked, status.State)
}

func TestIsFinalized_Requires12Confirmations(t *testing.T) {
	a := New(&mockRPC{confs: 11}, toAddr)
	finalized, err := a.IsFinalized(context.Background(), "0xtx")
	require.NoError(t, err)
	assert.False(t, finalized)

	a = New(&mockRPC{confs: 12}, toAddr)
	finalized, err = a.IsFinalized(context.Background(), "0xtx")
	require.NoError(t, err)
	assert.True(t, finalized)
}

type stubSigner struct{ addr string }

func (s *stubSigner) Sign(payload []byte, address string) ([]byte, error) { return []byte("sig"), nil }
func (s *stubSigner) GetAddress() string                                  { return s.addr }

type assertErr string

func (e assertErr) Error() string { return string(e) }
