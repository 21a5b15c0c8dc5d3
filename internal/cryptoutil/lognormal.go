package cryptoutil

import (
	"fmt"
	"math"
)

// LogNormalParams describes a single capped log-normal distribution:
// CSPRNG-seeded Box-Muller, clamped to [Min, Max], rounded up to the next
// multiple of Granularity (spec.md §4.5).
type LogNormalParams struct {
	Min         float64
	Median      float64
	Max         float64
	Sigma       float64
	Granularity float64 // 0 disables rounding
}

// Sample draws one value from the configured capped log-normal
// distribution.
//
// Algorithm (spec.md §4.5 step 1-4):
//  1. u1, u2 uniform in [0, 1) from the CSPRNG.
//  2. Box-Muller: z = sqrt(-2 ln u1) * cos(2*pi*u2). The sine companion
//     output is discarded so successive calls stay independent.
//  3. raw = exp(ln(median) + sigma*z)
//  4. clamp to [min, max], then round up to the next multiple of
//     granularity.
func (p LogNormalParams) Sample() (float64, error) {
	u1, err := nonZeroUniform()
	if err != nil {
		return 0, err
	}
	u2, err := RandomUniformFloat()
	if err != nil {
		return 0, err
	}

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	raw := math.Exp(math.Log(p.Median) + p.Sigma*z)

	if raw < p.Min {
		raw = p.Min
	}
	if raw > p.Max {
		raw = p.Max
	}

	if p.Granularity > 0 {
		raw = math.Ceil(raw/p.Granularity) * p.Granularity
	}
	return raw, nil
}

// Validate rejects configurations the spec's open question flags as
// unsafe to let through implicitly: a zero or negative sigma collapses
// the distribution to a constant, which is exactly the timelock
// fingerprint the generator exists to avoid (spec.md §9 open question:
// "implementers should validate configuration at load time").
func (p LogNormalParams) Validate() error {
	if p.Sigma <= 0 {
		return fmt.Errorf("cryptoutil: sigma must be > 0, got %v", p.Sigma)
	}
	if p.Min <= 0 || p.Median <= 0 || p.Max <= 0 {
		return fmt.Errorf("cryptoutil: min/median/max must be positive")
	}
	if p.Min > p.Median || p.Median > p.Max {
		return fmt.Errorf("cryptoutil: require min <= median <= max")
	}
	return nil
}

// nonZeroUniform re-draws on an exact 0, which would otherwise take
// math.Log to -Inf in Sample's Box-Muller step.
func nonZeroUniform() (float64, error) {
	for {
		u, err := RandomUniformFloat()
		if err != nil {
			return 0, err
		}
		if u != 0 {
			return u, nil
		}
	}
}
