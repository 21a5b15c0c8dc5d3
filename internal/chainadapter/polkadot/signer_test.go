package polkadot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/hdseed"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestNewSr25519Signer_SameSeedAndPathBothSignSuccessfully(t *testing.T) {
	// schnorrkel signatures are randomized per call (merlin transcript +
	// fresh nonce), so two signers derived from identical seed material
	// are expected to produce distinct signature bytes — this only
	// confirms derivation from the same inputs is repeatable and usable,
	// not byte-for-byte signature equality.
	s1, err := NewSr25519Signer(testSeed(), "m/0'", "addr-1")
	require.NoError(t, err)
	s2, err := NewSr25519Signer(testSeed(), "m/0'", "addr-1")
	require.NoError(t, err)

	sig1, err := s1.Sign([]byte("payload"), "addr-1")
	require.NoError(t, err)
	sig2, err := s2.Sign([]byte("payload"), "addr-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sig1)
	assert.NotEmpty(t, sig2)
}

func TestNewSr25519Signer_AcceptsMnemonicDerivedSeed(t *testing.T) {
	mnemonic, err := hdseed.GenerateMnemonic(12)
	require.NoError(t, err)

	seed, err := hdseed.ToSeed(mnemonic, "")
	require.NoError(t, err)
	require.Len(t, seed, 64)

	s, err := NewSr25519Signer(seed[:32], "m/0'", "addr-1")
	require.NoError(t, err)
	sig, err := s.Sign([]byte("payload"), "addr-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestSign_RejectsAddressMismatch(t *testing.T) {
	s, err := NewSr25519Signer(testSeed(), "m/0'", "addr-1")
	require.NoError(t, err)

	_, err = s.Sign([]byte("payload"), "addr-2")
	assert.Error(t, err)
}

func TestGetAddress_ReturnsBoundAddress(t *testing.T) {
	s, err := NewSr25519Signer(testSeed(), "m/0'", "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "addr-1", s.GetAddress())
}

func TestSign_ProducesNonEmptySignature(t *testing.T) {
	s, err := NewSr25519Signer(testSeed(), "m/0'", "addr-1")
	require.NoError(t, err)
	sig, err := s.Sign([]byte("some transaction payload"), "addr-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}
