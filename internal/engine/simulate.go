package engine

import "fmt"

// TierCount is how often a tier came up in a simulation.
type TierCount struct {
	Tier  SeverityTier
	Count int
}

// Simulate resolves trials overflow checks at a fixed excess and counts the
// tiers hit, in table order. step, when non-nil, is called after each trial.
func (e *OverflowEngine) Simulate(excess, trials int, rng RandomSource, step func()) ([]TierCount, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d: %w", trials, ErrInvalidAmount)
	}

	counts := make([]TierCount, len(e.table))
	index := make(map[int]int, len(e.table))
	for i, tier := range e.table {
		counts[i].Tier = tier
		index[tier.Low] = i
	}

	for n := 0; n < trials; n++ {
		outcome, err := e.Resolve(excess, rng)
		if err != nil {
			return nil, err
		}
		counts[index[outcome.Tier.Low]].Count++
		if step != nil {
			step()
		}
	}
	return counts, nil
}
