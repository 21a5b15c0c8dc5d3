package domain

import (
	"math/big"
	"time"

	"github.com/swapcore/swapcore/internal/utils"
)

// PrivacyLevel selects which coordinator executes a SwapIntent.
type PrivacyLevel string

const (
	PrivacyStandard PrivacyLevel = "standard"
	PrivacyMaximum  PrivacyLevel = "maximum" // routed through the privacy hub
)

// IntentStatus is the SwapIntent's own lifecycle, independent of the
// coordinator execution-record phase enums.
type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentMatched   IntentStatus = "matched"
	IntentExecuting IntentStatus = "executing"
	IntentCompleted IntentStatus = "completed"
	IntentFailed    IntentStatus = "failed"
	IntentCancelled IntentStatus = "cancelled"
)

// SwapIntent is the user-expressed desire to swap value across chains.
type SwapIntent struct {
	ID string

	UserAddresses map[Chain]string

	SourceChain  Chain
	SourceAsset  Asset
	SourceAmount *big.Int

	DestChain     Chain
	DestAsset     Asset
	MinDestAmount *big.Int

	MaxSlippage float64 // in [0, 1]
	Deadline    time.Time
	Privacy     PrivacyLevel
	Status      IntentStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSwapIntent assigns a fresh ID and timestamps and returns an
// otherwise-zero-valued intent for the caller to populate.
func NewSwapIntent() (*SwapIntent, error) {
	id, err := utils.GenerateSecureUUID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &SwapIntent{ID: id, Status: IntentPending, CreatedAt: now, UpdatedAt: now}, nil
}

// Validate enforces the invariants spec.md §3 assigns to SwapIntent.
func (i *SwapIntent) Validate(now time.Time) error {
	if i.SourceChain == i.DestChain {
		return errIntent("source and destination chains must differ")
	}
	if i.SourceAmount == nil || i.SourceAmount.Sign() <= 0 {
		return errIntent("source amount must be > 0")
	}
	if !i.Deadline.After(now) {
		return errIntent("deadline must be strictly in the future")
	}
	if i.MaxSlippage < 0 || i.MaxSlippage > 1 {
		return errIntent("slippage must be in [0, 1]")
	}
	return nil
}

type errIntent string

func (e errIntent) Error() string { return string(e) }

// Solver is a counterparty inventory summary. The core treats everything
// beyond the fields it reads (addresses and fee rate) as opaque — it is
// supplied in full by the embedding application's quoting layer.
type Solver struct {
	ID          string
	Addresses   map[Chain]string
	Inventory   map[string]*big.Int // asset symbol -> available amount
	Reputation  float64
	FeeRateBps  int
}
