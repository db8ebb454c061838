package optimizer

import (
	"math"
	"math/rand/v2"
)

const (
	minBoost    = 5
	boostSpread = 15 // boosts fall in [5, 19]
)

// BoostSource supplies the randomness behind the expected score boost.
// *rand.Rand satisfies it.
type BoostSource interface {
	IntN(n int) int
}

// globalSource draws from the goroutine-safe top-level math/rand/v2 functions
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// NewSeededSource returns a deterministic source for reproducible estimates
func NewSeededSource(seed uint64) BoostSource {
	return rand.New(rand.NewPCG(seed, seed))
}

// ExpectedBoost is a bounded random estimate of how much a rewrite could gain:
// min(100-total, 5..19). It is not derived from the rewritten text.
func ExpectedBoost(total float64, src BoostSource) float64 {
	headroom := math.Max(0, 100-total)
	draw := float64(src.IntN(boostSpread) + minBoost)
	return math.Round(math.Min(headroom, draw)*10) / 10
}
