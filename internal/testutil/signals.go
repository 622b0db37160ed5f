// Package testutil provides deterministic fixtures shared by the hrtf and
// sound package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DecayingNoise generates an exponentially decaying noise burst, a synthetic
// stand-in for a measured head-related impulse response. The envelope falls
// by roughly 50 dB over the burst.
func DecayingNoise(seed int64, length int) []float64 {
	out := DeterministicNoise(seed, 1, length)
	decay := 6.0 / float64(length)
	for i := range out {
		out[i] *= math.Exp(-decay * float64(i))
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}
