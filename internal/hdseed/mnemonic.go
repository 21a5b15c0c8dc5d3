// Package hdseed turns a user-held BIP-39 mnemonic into the 64-byte
// seed each chain adapter's key derivation (SLIP-10 for Polkadot,
// ECDSA/Ed25519 elsewhere) starts from. Grounded on the teacher's
// internal/services/bip39service/service.go, narrowed to mnemonic
// generation, validation, and mnemonic-to-seed derivation. Wordlist
// browsing stays with the embedding wallet application, not this library.
package hdseed

import (
	"crypto/rand"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic returns a fresh BIP-39 mnemonic. wordCount must be
// 12 (128-bit entropy) or 24 (256-bit entropy).
func GenerateMnemonic(wordCount int) (string, error) {
	var entropyBits int
	switch wordCount {
	case 12:
		entropyBits = 128
	case 24:
		entropyBits = 256
	default:
		return "", fmt.Errorf("hdseed: invalid word count %d: must be 12 or 24", wordCount)
	}

	entropy := make([]byte, entropyBits/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("hdseed: generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("hdseed: generating mnemonic: %w", err)
	}
	return mnemonic, nil
}

// Validate checks wordlist membership and the embedded checksum.
func Validate(mnemonic string) error {
	if mnemonic == "" {
		return fmt.Errorf("hdseed: mnemonic cannot be empty")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("hdseed: invalid mnemonic: checksum verification failed or unknown words")
	}
	return nil
}

// ToSeed derives the 64-byte PBKDF2 seed a SLIP-10/BIP-32 path walks
// from, optionally salted with a passphrase (the BIP-39 "25th word").
func ToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := Validate(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}
