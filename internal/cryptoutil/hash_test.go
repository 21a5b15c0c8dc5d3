package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256_Deterministic(t *testing.T) {
	a := SHA256([]byte("preimage"))
	b := SHA256([]byte("preimage"))
	assert.Equal(t, a, b)
}

func TestSHA256_DiffersOnInput(t *testing.T) {
	a := SHA256([]byte("preimage-a"))
	b := SHA256([]byte("preimage-b"))
	assert.NotEqual(t, a, b)
}

func TestDomainSeparatedSHA256_TagChangesOutput(t *testing.T) {
	data := []byte("shared-secret")
	a := DomainSeparatedSHA256("tag-a", data)
	b := DomainSeparatedSHA256("tag-b", data)
	assert.NotEqual(t, a, b, "distinct domain tags must yield independent outputs from the same input")
}

func TestBridgeToNativeHash_Deterministic(t *testing.T) {
	image := SHA256([]byte("hashlock-preimage"))
	a, err := BridgeToNativeHash(image)
	assert.NoError(t, err)
	b, err := BridgeToNativeHash(image)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, image, a, "bridged hash must differ from the SHA-256 image it was derived from")
}
