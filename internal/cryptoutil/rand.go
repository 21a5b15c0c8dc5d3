// Package cryptoutil provides the CSPRNG, hashing, capped log-normal
// sampling, ECDH, and AEAD primitives shared by the timelock generator,
// the stealth-address generator, and both swap coordinators. It never
// falls back to a non-cryptographic generator (spec.md §4.5): every
// random byte here comes from crypto/rand, the OS entropy source.
package cryptoutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("cryptoutil: reading CSPRNG: %w", err)
	}
	return b, nil
}

// RandomSecret32 returns 32 cryptographically random bytes, the size of
// a swap secret/preimage.
func RandomSecret32() ([32]byte, error) {
	var out [32]byte
	b, err := RandomBytes(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// RandomUniformFloat returns a uniform float64 in [0, 1), resampling on
// an exact zero to avoid a log(0) singularity in the Box-Muller transform
// (spec.md §4.5 step 1).
func RandomUniformFloat() (float64, error) {
	for {
		b, err := RandomBytes(8)
		if err != nil {
			return 0, err
		}
		u := float64(binary.BigEndian.Uint64(b)>>11) / (1 << 53)
		if u != 0 {
			return u, nil
		}
	}
}

// RandomInt63n returns a uniform random int64 in [0, n) using rejection
// sampling against the CSPRNG, for callers (mixing-delay jitter,
// denomination shuffles) that need a bounded integer rather than a float.
func RandomInt63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("cryptoutil: n must be positive, got %d", n)
	}
	// Largest multiple of n that fits in 63 bits, to reject without bias.
	max := (int64(1)<<63 - 1) - (int64(1)<<63-1)%n
	for {
		b, err := RandomBytes(8)
		if err != nil {
			return 0, err
		}
		v := int64(binary.BigEndian.Uint64(b) &^ (1 << 63))
		if v <= max {
			return v % n, nil
		}
	}
}

// Shuffle performs a Fisher-Yates shuffle of s in place using the CSPRNG.
func Shuffle[T any](s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := RandomInt63n(int64(i + 1))
		if err != nil {
			return err
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}
