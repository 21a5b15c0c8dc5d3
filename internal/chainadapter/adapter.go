// Package chainadapter defines the capability set every per-chain backend
// satisfies (spec.md §4.1, §9 "Polymorphic adapters via open inheritance"
// design note: modeled as a closed trait, not a class hierarchy). It
// generalizes the teacher's general-purpose wallet ChainAdapter
// (src/chainadapter/adapter.go) with the six HTLC-specific operations a
// swap coordinator needs and that the teacher's wallet-transfer adapter
// never required.
package chainadapter

import (
	"context"
	"math/big"
	"time"

	"github.com/swapcore/swapcore/internal/domain"
)

// Adapter is the uniform interface the coordinators are polymorphic over.
// All methods are safe for concurrent use (spec.md §5: "adapters are
// shared across all tasks").
type Adapter interface {
	Chain() domain.Chain
	Capabilities() Capabilities

	// Initialize idempotently binds the adapter to its configured RPC
	// endpoint. May fail with a recoverable adapter-init error.
	Initialize(ctx context.Context, cfg Config) error

	// DeriveAddress is a pure function from a public key to a
	// chain-formatted address.
	DeriveAddress(publicKey []byte) (string, error)

	// Balance queries the balance of an address, optionally scoped to a
	// specific asset (nil means the chain's native asset).
	Balance(ctx context.Context, address string, asset *domain.Asset) (*big.Int, error)

	// BuildTransaction pure-assembles an unsigned transaction from
	// endpoint state. Each adapter picks its own transaction-model
	// discriminant internally (UTXO selection, nonce+gas, slot+fee,
	// account-id+note-script) — callers never see the form.
	BuildTransaction(ctx context.Context, req TransactionRequest) (*UnsignedTransaction, error)

	// SignTransaction delegates to the supplied Signer. The adapter never
	// stores key material.
	SignTransaction(ctx context.Context, unsigned *UnsignedTransaction, signer Signer) (*SignedTransaction, error)

	// Broadcast is idempotent on the network; retries are the caller's
	// discretion via errs.RetryPolicy.
	Broadcast(ctx context.Context, signed *SignedTransaction) (string, error)

	// CreateHTLC internally chooses the correct on-chain realization
	// (P2SH script, smart-contract call, note with script, pallet call)
	// — callers never see the form.
	CreateHTLC(ctx context.Context, params domain.HTLCParams) (*UnsignedTransaction, error)
	ClaimHTLC(ctx context.Context, htlcID string, preimage domain.Secret) (*UnsignedTransaction, error)
	// RefundHTLC may reject with errs.HTLCTimelockNotExpired if the chain
	// enforces it on its own.
	RefundHTLC(ctx context.Context, htlcID string) (*UnsignedTransaction, error)
	HTLCStatus(ctx context.Context, htlcID string) (*domain.HTLCStatus, error)

	// SubscribeAddress produces a lazy, infinite sequence of transactions
	// touching address until the returned cancel func is called or ctx is
	// done. The contract is merely eventual notification; push vs pull is
	// an adapter implementation detail.
	SubscribeAddress(ctx context.Context, address string) (<-chan *Transaction, func(), error)

	GetTransaction(ctx context.Context, txHash string) (*Transaction, error)
	BlockHeight(ctx context.Context) (uint64, error)
	Confirmations(ctx context.Context, txHash string) (int, error)
	IsFinalized(ctx context.Context, txHash string) (bool, error)
	BlockTimeMS(ctx context.Context) (int64, error)
	EstimateGas(ctx context.Context, req TransactionRequest) (*big.Int, error)

	// WaitForConfirmation suspends the caller until observed
	// confirmations >= n, polling at the adapter's own block cadence.
	WaitForConfirmation(ctx context.Context, txHash string, n int) error
}

// Capabilities are feature flags a coordinator consults instead of
// branching on chain identity.
type Capabilities struct {
	Chain                domain.Chain
	SupportsMemo         bool
	SupportsMultiSig     bool
	SupportsShieldedOps  bool // gates eligibility as a privacy-hub chain, §9 design note
	NativeHashDiffers    bool
	MinConfirmations     int
}

// Config is the per-chain binding an embedding application supplies at
// initialization (spec.md §6: "mapping of Chain -> adapter configuration").
type Config struct {
	RPCURL     string
	APIKey     string
	NetworkTag string // "mainnet" | "testnet"
	Timeout    time.Duration
}

// TransactionRequest is a chain-agnostic transaction description.
type TransactionRequest struct {
	From      string
	To        string
	Asset     *domain.Asset
	Amount    *big.Int
	Memo      string
	ConfirmBy *time.Time
	ChainSpecific map[string]any
}

// UnsignedTransaction is the sum-type-over-per-chain-variant the signer
// callback pattern-matches on (spec.md §9 design note on loosely typed
// transaction records): SigningPayload is the canonical bytes to sign,
// and ChainSpecific carries whatever additional structure (PSBT, an
// ABI-encoded call, an instruction list, an XDR operation) the adapter
// that built it needs to finish signing.
type UnsignedTransaction struct {
	ID             string
	Chain          domain.Chain
	From           string
	To             string
	Amount         *big.Int
	Fee            *big.Int
	SigningPayload []byte
	ChainSpecific  map[string]any
	CreatedAt      time.Time
}

// SignedTransaction is ready for broadcast.
type SignedTransaction struct {
	Unsigned     *UnsignedTransaction
	Signature    []byte
	SignedBy     string
	TxHash       string
	SerializedTx []byte
	SignedAt     time.Time
}

// Transaction is an observed on-chain transaction, used both by
// GetTransaction and by the SubscribeAddress stream.
type Transaction struct {
	Hash          string
	Chain         domain.Chain
	From          string
	To            string
	Amount        *big.Int
	Confirmations int
	BlockHeight   *uint64
	Timestamp     time.Time
}

// Signer abstracts transaction signing. This is the teacher's
// chainadapter.Signer contract verbatim (src/chainadapter/signer.go):
// the core never touches raw key material, full stop.
type Signer interface {
	Sign(payload []byte, address string) ([]byte, error)
	GetAddress() string
}
