package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"io"

	"crypto/sha256"
)

// EphemeralX25519Keypair is a fresh X25519 keypair for one ECDH exchange.
type EphemeralX25519Keypair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateEphemeralX25519 produces a fresh keypair from the CSPRNG.
func GenerateEphemeralX25519() (*EphemeralX25519Keypair, error) {
	var priv [32]byte
	b, err := RandomBytes(32)
	if err != nil {
		return nil, err
	}
	copy(priv[:], b)

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: deriving X25519 public key: %w", err)
	}
	var pubArr [32]byte
	copy(pubArr[:], pub)
	return &EphemeralX25519Keypair{Private: priv, Public: pubArr}, nil
}

// SharedSecret performs the ECDH exchange with a peer's public key.
func (k *EphemeralX25519Keypair) SharedSecret(peerPublic [32]byte) ([32]byte, error) {
	shared, err := curve25519.X25519(k.Private[:], peerPublic[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("cryptoutil: ECDH: %w", err)
	}
	var out [32]byte
	copy(out[:], shared)
	return out, nil
}

// DeriveAEADKey binds an ECDH shared secret to a long-term identity via
// HKDF-SHA256, addressing the open question in spec.md §9 about how
// phase 11's destination-secret delivery should bind to the user's
// identity: the recipient's identifier (an address, a stable account
// key) is folded in as the HKDF "info" parameter so the derived key is
// specific to this (ephemeral key, recipient) pair.
func DeriveAEADKey(sharedSecret [32]byte, recipientIdentity []byte) ([32]byte, error) {
	hk := hkdf.New(sha256.New, sharedSecret[:], nil, append([]byte("swapcore/phase11-aead/v1:"), recipientIdentity...))
	var key [32]byte
	if _, err := io.ReadFull(hk, key[:]); err != nil {
		return key, fmt.Errorf("cryptoutil: HKDF expand: %w", err)
	}
	return key, nil
}

// SealSecret authenticated-encrypts a 32-byte swap secret with
// AES-256-GCM under the derived key. The nonce is generated fresh per
// call and prepended to the ciphertext.
func SealSecret(key [32]byte, plaintext []byte, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce, err := RandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, additionalData), nil
}

// OpenSecret reverses SealSecret.
func OpenSecret(key [32]byte, sealed []byte, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("cryptoutil: sealed secret too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, additionalData)
}
