package privacyhub

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/swapcore/swapcore/internal/cryptoutil"
)

// HubConfig carries the per-swap dials spec.md §6 names for the
// Privacy-Hub leg: how widely deposits are split across a denomination
// ladder, how long and how often the hub pauses between internal
// transfers, and whether it pads real traffic with decoys. HubChain
// itself stays a module-wide var (see HubChain in privacyhub.go) since
// which chain can act as a hub is an adapter-capability question, not a
// per-swap one.
type HubConfig struct {
	MinMixingDelay       time.Duration
	MaxMixingDelay       time.Duration
	UseSplitAmounts      bool
	SplitDenominations   []*big.Int
	UseDecoyTransactions bool
	DecoyCount           int
}

// DefaultHubConfig mirrors the §8 split-testable-property fixture
// (amounts expressed in atomic units of an 18-decimal asset) and a
// conservative 5-35s mixing-delay band.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MinMixingDelay:  5 * time.Second,
		MaxMixingDelay:  35 * time.Second,
		UseSplitAmounts: true,
		SplitDenominations: []*big.Int{
			big.NewInt(1_000_000_000_000_000_000),
			big.NewInt(100_000_000_000_000_000),
			big.NewInt(10_000_000_000_000_000),
		},
		UseDecoyTransactions: false,
		DecoyCount:           0,
	}
}

// Validate rejects a configuration the mixing/split phases would
// otherwise fail on only partway through an in-flight swap.
func (c HubConfig) Validate() error {
	if c.MinMixingDelay <= 0 {
		return fmt.Errorf("privacyhub: min mixing delay must be > 0")
	}
	if c.MaxMixingDelay < c.MinMixingDelay {
		return fmt.Errorf("privacyhub: max mixing delay must be >= min mixing delay")
	}
	if c.UseSplitAmounts && len(c.SplitDenominations) == 0 {
		return fmt.Errorf("privacyhub: split amounts enabled but no denomination ladder configured")
	}
	if c.UseDecoyTransactions && c.DecoyCount <= 0 {
		return fmt.Errorf("privacyhub: decoy transactions enabled but decoy count must be > 0")
	}
	return nil
}

// splitAmount partitions amount across ladder's denominations, largest
// first, then returns the resulting sub-amounts in randomized order
// (spec.md §4.4 phase 5; §8's worked example is 1.37 split over
// {1.0, 0.1, 0.01}, which this produces as parts [1.0, 0.1, 0.1, 0.1,
// 0.01 x7] before shuffling). The ladder's smallest denomination must
// evenly divide amount — a remainder means the caller picked a ladder
// that can't represent this asset's amount at all.
func splitAmount(amount *big.Int, ladder []*big.Int) ([]*big.Int, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("privacyhub: split amount must be positive, got %s", amount)
	}
	sorted := append([]*big.Int(nil), ladder...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) > 0 })

	remaining := new(big.Int).Set(amount)
	var parts []*big.Int
	for _, denom := range sorted {
		if denom.Sign() <= 0 {
			continue
		}
		for remaining.Cmp(denom) >= 0 {
			parts = append(parts, new(big.Int).Set(denom))
			remaining.Sub(remaining, denom)
		}
	}
	if remaining.Sign() != 0 {
		return nil, fmt.Errorf("privacyhub: amount %s is not representable on the configured denomination ladder", amount)
	}
	if err := cryptoutil.Shuffle(parts); err != nil {
		return nil, fmt.Errorf("privacyhub: shuffling split parts: %w", err)
	}
	return parts, nil
}

// randomDelay draws a uniform delay in [min, max] from the CSPRNG, used
// for the inter-transfer mixing pauses (phase 6).
func randomDelay(min, max time.Duration) (time.Duration, error) {
	if max <= min {
		return min, nil
	}
	jitter, err := cryptoutil.RandomInt63n(int64(max - min))
	if err != nil {
		return 0, fmt.Errorf("privacyhub: sampling mixing delay: %w", err)
	}
	return min + time.Duration(jitter), nil
}

// randomTransferCount draws the number of shielded-to-shielded hops
// phase 6 performs: spec.md §4.4 bounds this to 2-4.
func randomTransferCount() (int, error) {
	jitter, err := cryptoutil.RandomInt63n(3) // 0, 1, or 2
	if err != nil {
		return 0, fmt.Errorf("privacyhub: sampling mix transfer count: %w", err)
	}
	return int(jitter) + 2, nil
}
