// Package stealthaddr generates one-time receive addresses so a swap's
// funding and claim legs cannot be linked through address reuse
// (spec.md §4.6). A recipient publishes a long-term (scan key, spend
// key) pair once; each sender derives a fresh one-time address by ECDH
// with a fresh ephemeral keypair, and the recipient later recognizes and
// spends from it without any further interaction. Grounded on the
// ECDH/domain-separated-hash primitives in internal/cryptoutil, the same
// shape the teacher's internal/services/crypto package uses for
// encryption key derivation (scrypt/Argon2id -> domain-tagged subkeys).
package stealthaddr

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/swapcore/swapcore/internal/cryptoutil"
)

// RecipientKeys is the long-term key material a recipient publishes
// out-of-band (e.g. embedded in a SwapIntent) to receive stealth payments.
//
// IdentityX25519Public/Private are a separate keypair on a separate curve
// from Scan/Spend: the stealth-address construction above is secp256k1
// (matching the chain adapters' own key type), but the off-chain
// destination-secret delivery channel (spec.md §4.4 phase 11) is ECDH
// over X25519 via internal/cryptoutil's HKDF/AEAD helpers. Bridging the
// two by reusing ScanPublic/Private for both purposes would mean a
// stealth-address observer and a secret-delivery eavesdropper learn
// about the same key; keeping them distinct keeps the two privacy
// mechanisms independently revocable.
type RecipientKeys struct {
	ScanPublic  *btcec.PublicKey  // published; senders ECDH against this
	ScanPrivate *btcec.PrivateKey // kept secret; used to recognize incoming payments
	SpendPublic *btcec.PublicKey

	IdentityX25519Public  [32]byte // published; senders ECDH against this for off-chain secret delivery
	IdentityX25519Private [32]byte // kept secret; opens secrets sealed to IdentityX25519Public
}

// GenerateRecipientKeys creates a fresh scan/spend keypair set plus the
// X25519 identity keypair used for off-chain secret delivery.
func GenerateRecipientKeys() (*RecipientKeys, *btcec.PrivateKey, error) {
	scanPriv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("stealthaddr: generating scan key: %w", err)
	}
	spendPriv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("stealthaddr: generating spend key: %w", err)
	}
	identity, err := cryptoutil.GenerateEphemeralX25519()
	if err != nil {
		return nil, nil, fmt.Errorf("stealthaddr: generating identity key: %w", err)
	}
	return &RecipientKeys{
		ScanPublic:  scanPriv.PubKey(),
		ScanPrivate: scanPriv,
		SpendPublic: spendPriv.PubKey(),

		IdentityX25519Public:  identity.Public,
		IdentityX25519Private: identity.Private,
	}, spendPriv, nil
}

// OneTimeAddress is what a sender computes and hands to a chain adapter's
// DeriveAddress; the recipient later recomputes the same one-time
// spending key once it recognizes the payment (via Recognize).
type OneTimeAddress struct {
	EphemeralPublic  *btcec.PublicKey
	OneTimePublicKey *btcec.PublicKey
}

// Derive computes a one-time public key for recipient, following the
// standard stealth-address construction: shared = ECDH(ephemeral,
// recipient.ScanPublic); tag = H("stealthaddr/v1/tag", shared); one-time
// public key = recipient.SpendPublic + tag*G.
func Derive(recipient *RecipientKeys) (*OneTimeAddress, error) {
	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("stealthaddr: generating ephemeral key: %w", err)
	}
	shared := ecdh(ephemeral, recipient.ScanPublic)
	tag := cryptoutil.DomainSeparatedSHA256("stealthaddr/v1/tag", shared[:])

	var tagScalar btcec.ModNScalar
	tagScalar.SetBytes(&tag)

	var tagPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tagScalar, &tagPoint)

	var spendPoint btcec.JacobianPoint
	recipient.SpendPublic.AsJacobian(&spendPoint)

	var sum btcec.JacobianPoint
	btcec.AddNonConst(&tagPoint, &spendPoint, &sum)
	sum.ToAffine()
	oneTimePub := btcec.NewPublicKey(&sum.X, &sum.Y)

	return &OneTimeAddress{EphemeralPublic: ephemeral.PubKey(), OneTimePublicKey: oneTimePub}, nil
}

// Recognize lets the recipient recompute whether a published ephemeral
// key was addressed to them, and if so derive the one-time private key
// needed to spend it: onetime_priv = spend_priv + tag.
func Recognize(recipient *RecipientKeys, spendPrivate *btcec.PrivateKey, ephemeralPublic *btcec.PublicKey) (*btcec.PrivateKey, error) {
	shared := ecdh(recipient.ScanPrivate, ephemeralPublic)
	tag := cryptoutil.DomainSeparatedSHA256("stealthaddr/v1/tag", shared[:])

	var tagScalar, spendScalar, sum btcec.ModNScalar
	tagScalar.SetBytes(&tag)
	spendScalar.Set(&spendPrivate.Key)
	sum.Add2(&spendScalar, &tagScalar)

	return btcec.PrivKeyFromScalar(&sum), nil
}

// ecdh performs a raw ECDH exchange (x-coordinate of priv*pub), the
// primitive both Derive and Recognize build on.
func ecdh(priv *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	var pubJ, result btcec.JacobianPoint
	pub.AsJacobian(&pubJ)
	btcec.ScalarMultNonConst(&priv.Key, &pubJ, &result)
	result.ToAffine()
	var out [32]byte
	b := result.X.Bytes()
	copy(out[:], b[:])
	return out
}
