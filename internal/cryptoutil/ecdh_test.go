package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemeralX25519_SharedSecretMatches(t *testing.T) {
	alice, err := GenerateEphemeralX25519()
	require.NoError(t, err)
	bob, err := GenerateEphemeralX25519()
	require.NoError(t, err)

	aliceShared, err := alice.SharedSecret(bob.Public)
	require.NoError(t, err)
	bobShared, err := bob.SharedSecret(alice.Public)
	require.NoError(t, err)

	assert.Equal(t, aliceShared, bobShared)
}

func TestSealOpenSecret_RoundTrip(t *testing.T) {
	alice, err := GenerateEphemeralX25519()
	require.NoError(t, err)
	bob, err := GenerateEphemeralX25519()
	require.NoError(t, err)
	shared, err := alice.SharedSecret(bob.Public)
	require.NoError(t, err)

	key, err := DeriveAEADKey(shared, []byte("recipient-identity"))
	require.NoError(t, err)

	secret, err := RandomSecret32()
	require.NoError(t, err)

	sealed, err := SealSecret(key, secret[:], []byte("aad"))
	require.NoError(t, err)

	opened, err := OpenSecret(key, sealed, []byte("aad"))
	require.NoError(t, err)
	assert.Equal(t, secret[:], opened)
}

func TestOpenSecret_RejectsWrongAAD(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	sealed, err := SealSecret(key, []byte("payload"), []byte("correct-aad"))
	require.NoError(t, err)

	_, err = OpenSecret(key, sealed, []byte("wrong-aad"))
	assert.Error(t, err)
}

func TestOpenSecret_RejectsTruncatedInput(t *testing.T) {
	var key [32]byte
	_, err := OpenSecret(key, []byte("short"), nil)
	assert.Error(t, err)
}

func TestDeriveAEADKey_DiffersPerIdentity(t *testing.T) {
	var shared [32]byte
	copy(shared[:], []byte("a-shared-secret-used-for-testing"))

	k1, err := DeriveAEADKey(shared, []byte("alice"))
	require.NoError(t, err)
	k2, err := DeriveAEADKey(shared, []byte("bob"))
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}
