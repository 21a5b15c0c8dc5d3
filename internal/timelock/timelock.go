// Package timelock generates the pair of HTLC expiries a swap needs
// without leaking a fixed, fingerprintable offset between them
// (spec.md §4.5: "privacy-preserving timelock generator"). A naive
// generator that always sets the destination-chain timelock to exactly
// half the source-chain timelock lets an observer correlate two
// otherwise-unrelated on-chain HTLCs purely from their expiry gap; this
// package samples each leg from its own capped log-normal distribution
// instead, then reconciles the pair so the source leg always leaves the
// destination leg enough room to be claimed first.
package timelock

import (
	"fmt"
	"time"

	"github.com/swapcore/swapcore/internal/cryptoutil"
)

// Generator draws the two independently-distributed per-leg offsets
// spec.md §4.5 names: a wider spread for the source-chain lock (the
// user's leg) and a narrower spread for the destination-chain lock (the
// solver's leg), joined by a minimum inter-leg buffer so the user always
// has room to observe the destination claim and still claim source
// before its own expiry.
type Generator struct {
	source cryptoutil.LogNormalParams
	dest   cryptoutil.LogNormalParams
	buffer time.Duration
}

// New constructs a Generator from the two per-leg distributions and the
// minimum gap required between them. Both distributions are validated
// independently since a degenerate (zero-sigma) leg reintroduces exactly
// the fixed, fingerprintable offset this package exists to avoid.
func New(source, dest cryptoutil.LogNormalParams, buffer time.Duration) (*Generator, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("timelock: source leg: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return nil, fmt.Errorf("timelock: dest leg: %w", err)
	}
	if buffer <= 0 {
		return nil, fmt.Errorf("timelock: buffer must be > 0, got %s", buffer)
	}
	return &Generator{source: source, dest: dest, buffer: buffer}, nil
}

// Pair is the pair of absolute HTLC expiries for one swap. Dest always
// expires strictly before Source, leaving the buffer for the user to
// observe the destination claim and still claim the source leg in time.
type Pair struct {
	Source time.Time
	Dest   time.Time
}

// Generate draws both legs' offsets from their own configured
// distributions and joint-samples them into one consistent pair
// (spec.md §4.5 step 5): the destination offset is sampled first, from
// the destination leg's own distribution; the source offset is then
// sampled fresh from the source leg's own distribution and raised to
// destOffset+buffer if the fresh sample would leave too little room.
// Each leg's absolute offset is therefore independently
// fingerprint-resistant — the only thing enforced across the pair is the
// minimum ordering buffer, never a fixed shared gap.
func (g *Generator) Generate(now time.Time) (Pair, error) {
	destSeconds, err := g.dest.Sample()
	if err != nil {
		return Pair{}, fmt.Errorf("timelock: sampling dest offset: %w", err)
	}
	destOffset := time.Duration(destSeconds) * time.Second

	sourceSeconds, err := g.source.Sample()
	if err != nil {
		return Pair{}, fmt.Errorf("timelock: sampling source offset: %w", err)
	}
	sourceOffset := time.Duration(sourceSeconds) * time.Second
	if floor := destOffset + g.buffer; sourceOffset < floor {
		sourceOffset = floor
	}

	return Pair{Source: now.Add(sourceOffset), Dest: now.Add(destOffset)}, nil
}

// MixingDelay draws a single delay from the destination leg's
// distribution, reused by the privacy hub for its one random wait
// between the hub withdrawal and the destination lock. The per-transfer
// mixing pauses are drawn separately from the hub's own delay band.
func (g *Generator) MixingDelay() (time.Duration, error) {
	seconds, err := g.dest.Sample()
	if err != nil {
		return 0, fmt.Errorf("timelock: sampling mixing delay: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}
