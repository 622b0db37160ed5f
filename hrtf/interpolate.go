package hrtf

import (
	"fmt"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Interpolate produces a two-channel filter approximating the response at a
// direction not necessarily present in the corpus.
//
// The target is projected onto the unit sphere and located within the
// memoized spherical triangulation of the measured directions. The filters
// at the three enclosing vertices are combined per ear in the spectral
// domain: magnitudes are summed with the barycentric weights of the target,
// while phase is taken from the vertex with the largest weight
// (magnitude-only interpolation; a phase discontinuity relative to the other
// two vertices is accepted). A target within directionToleranceDeg of a
// stored direction returns that filter unchanged rather than interpolating.
//
// The output level is not renormalized to match any input filter; callers
// that need loudness matching must rescale the result themselves.
//
// Returns ErrOutOfHull when the target falls outside the hull of measured
// directions; NearestDirection offers a clamp for that case.
func (b *Bank) Interpolate(target Source) (Filter, error) {
	if target.Distance() <= 0 {
		return Filter{}, fmt.Errorf("hrtf: target direction must have positive distance")
	}

	for _, e := range b.entries {
		if e.Source.AngleTo(target) < directionToleranceDeg {
			return e.Filter.Clone(), nil
		}
	}

	x, y, z := target.Unit()
	face, weights, ok := b.triangulate().locate(vec3{x, y, z})
	if !ok {
		return Filter{}, ErrOutOfHull
	}

	dominant := 0
	for v := 1; v < 3; v++ {
		if weights[v] > weights[dominant] {
			dominant = v
		}
	}

	fftSize := nextPowerOf2(b.filterLength)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Filter{}, fmt.Errorf("hrtf: failed to create FFT plan: %w", err)
	}

	var taps [3][]float64
	for v, idx := range face {
		taps[v] = b.entries[idx].Filter.Left
	}
	left, err := interpolateChannel(plan, fftSize, b.filterLength, taps, weights, dominant)
	if err != nil {
		return Filter{}, err
	}

	for v, idx := range face {
		taps[v] = b.entries[idx].Filter.Right
	}
	right, err := interpolateChannel(plan, fftSize, b.filterLength, taps, weights, dominant)
	if err != nil {
		return Filter{}, err
	}

	return Filter{SampleRate: b.sampleRate, Left: left, Right: right}, nil
}

// interpolateChannel combines three vertex filters for one ear: weighted sum
// of spectral magnitudes, phase reused from the dominant vertex.
func interpolateChannel(plan *algofft.Plan[complex128], fftSize, outLen int, taps [3][]float64, weights [3]float64, dominant int) ([]float64, error) {
	input := make([]complex128, fftSize)
	spectra := make([][]complex128, 3)

	acc := make([]float64, fftSize)
	mag := make([]float64, fftSize)
	re := make([]float64, fftSize)
	im := make([]float64, fftSize)
	scaled := make([]float64, fftSize)

	for v := range taps {
		for i := range input {
			input[i] = 0
		}
		for i, s := range taps[v] {
			input[i] = complex(s, 0)
		}

		spec := make([]complex128, fftSize)
		if err := plan.Forward(spec, input); err != nil {
			return nil, fmt.Errorf("hrtf: forward FFT failed: %w", err)
		}
		spectra[v] = spec

		for i, c := range spec {
			re[i] = real(c)
			im[i] = imag(c)
		}
		vecmath.Magnitude(mag, re, im)
		vecmath.ScaleBlock(scaled, mag, weights[v])
		vecmath.AddBlockInPlace(acc, scaled)
	}

	combined := make([]complex128, fftSize)
	for k, c := range spectra[dominant] {
		m := cmplx.Abs(c)
		if m > 0 {
			combined[k] = c * complex(acc[k]/m, 0)
		} else {
			combined[k] = complex(acc[k], 0)
		}
	}

	result := make([]complex128, fftSize)
	if err := plan.Inverse(result, combined); err != nil {
		return nil, fmt.Errorf("hrtf: inverse FFT failed: %w", err)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(result[i])
	}

	return out, nil
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
