package polkadot

import (
	"fmt"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	slip10 "github.com/anyproto/go-slip10"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/errs"
)

// Sr25519Signer is a reference chainadapter.Signer for embedders that
// hold a raw seed rather than delegating to a hardware wallet or remote
// KMS. It derives an sr25519 keypair with SLIP-10 (the teacher's
// kusama.go notes that Substrate's own derivation differs from BIP32;
// SLIP-10's ed25519/generic curve support gives a deterministic,
// library-backed stand-in) and signs with go-schnorrkel, matching
// Substrate's native signature scheme.
type Sr25519Signer struct {
	address string
	kp      *schnorrkel.MiniSecretKey
}

// NewSr25519Signer derives a signer from a 32-byte master seed and
// derivation path, both caller-supplied — this package never generates
// or stores seed material itself.
func NewSr25519Signer(seed []byte, path string, address string) (*Sr25519Signer, error) {
	key, err := slip10.DeriveForPath(path, seed)
	if err != nil {
		return nil, errs.TxSignFailed("deriving sr25519 key via slip10", err)
	}
	var raw [32]byte
	copy(raw[:], key.Key)
	msk, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, errs.TxSignFailed("constructing schnorrkel mini secret key", err)
	}
	return &Sr25519Signer{address: address, kp: msk}, nil
}

func (s *Sr25519Signer) GetAddress() string { return s.address }

func (s *Sr25519Signer) Sign(payload []byte, address string) ([]byte, error) {
	if address != s.address {
		return nil, fmt.Errorf("polkadot: signer bound to %s, asked to sign for %s", s.address, address)
	}
	secret := s.kp.ExpandEd25519()
	var msg [32]byte
	copy(msg[:], payload)
	ctx := schnorrkel.NewSigningContext([]byte("substrate"), payload)
	sig, err := secret.Sign(ctx)
	if err != nil {
		return nil, errs.TxSignFailed("schnorrkel sign", err)
	}
	encoded := sig.Encode()
	return encoded[:], nil
}

var _ chainadapter.Signer = (*Sr25519Signer)(nil)
