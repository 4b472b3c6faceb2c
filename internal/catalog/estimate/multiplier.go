package estimate

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// DefaultMultiplier is used when no multiplier is configured.
const DefaultMultiplier = 1500

// Multiplier supplies the per-entry factor in the GDP estimate.
type Multiplier interface {
	Next() float64
}

// Fixed always returns the same multiplier.
type Fixed float64

func (f Fixed) Next() float64 {
	return float64(f)
}

// Random draws an integer multiplier uniformly from [min, max] using a
// seeded generator, so a given seed yields a reproducible sequence.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
	min int
	max int
}

// NewRandom creates a seeded range multiplier.
func NewRandom(min, max int, seed uint64) (*Random, error) {
	if min <= 0 || max < min {
		return nil, fmt.Errorf("invalid multiplier range [%d, %d]", min, max)
	}
	return &Random{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		min: min,
		max: max,
	}, nil
}

func (r *Random) Next() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(r.min + r.rng.IntN(r.max-r.min+1))
}
