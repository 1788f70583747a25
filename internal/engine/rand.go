package engine

import "math/rand"

// Rand is the source of uniform draws in [0, 1) used by every update rule.
type Rand interface {
	Float64() float64
}

// NewRand returns a seedable generator. Equal seeds give equal simulations.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// centered maps a draw in [0, 1) onto [-1, 1).
func centered(r Rand) float64 {
	return (r.Float64() - 0.5) * 2
}
