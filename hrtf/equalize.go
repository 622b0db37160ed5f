package hrtf

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// dfeEpsilon floors the diffuse-field magnitude before division, preventing
// blow-up at bins where the corpus has no energy.
const dfeEpsilon = 1e-12

// DiffuseFieldEqualized returns a new bank with the direction-independent
// (diffuse-field) component removed from every filter.
//
// The diffuse field is estimated per frequency bin and per ear as the RMS
// average magnitude across all stored directions. Every filter's magnitude
// spectrum is divided by this (epsilon-floored) average; phase is left
// unmodified. The resulting filters emphasize direction-dependent spectral
// cues. Applying the equalization twice is idempotent up to numerical
// tolerance: the second pass sees a near-unity average magnitude.
func (b *Bank) DiffuseFieldEqualized() (*Bank, error) {
	fftSize := nextPowerOf2(b.filterLength)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("hrtf: failed to create FFT plan: %w", err)
	}

	channels := make([][]float64, len(b.entries))
	for i, e := range b.entries {
		channels[i] = e.Filter.Left
	}
	lefts, err := equalizeChannel(plan, fftSize, b.filterLength, channels)
	if err != nil {
		return nil, err
	}

	for i, e := range b.entries {
		channels[i] = e.Filter.Right
	}
	rights, err := equalizeChannel(plan, fftSize, b.filterLength, channels)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		entries[i] = Entry{
			Source: e.Source,
			Filter: Filter{SampleRate: b.sampleRate, Left: lefts[i], Right: rights[i]},
		}
	}

	return NewBank(entries)
}

// equalizeChannel removes the RMS-average magnitude across all directions
// from each filter of one ear.
func equalizeChannel(plan *algofft.Plan[complex128], fftSize, outLen int, channels [][]float64) ([][]float64, error) {
	input := make([]complex128, fftSize)
	spectra := make([][]complex128, len(channels))

	power := make([]float64, fftSize)
	re := make([]float64, fftSize)
	im := make([]float64, fftSize)
	acc := make([]float64, fftSize)

	for i, taps := range channels {
		for k := range input {
			input[k] = 0
		}
		for k, s := range taps {
			input[k] = complex(s, 0)
		}

		spec := make([]complex128, fftSize)
		if err := plan.Forward(spec, input); err != nil {
			return nil, fmt.Errorf("hrtf: forward FFT failed: %w", err)
		}
		spectra[i] = spec

		for k, c := range spec {
			re[k] = real(c)
			im[k] = imag(c)
		}
		vecmath.Power(power, re, im)
		vecmath.AddBlockInPlace(acc, power)
	}

	average := make([]float64, fftSize)
	for k := range acc {
		average[k] = math.Sqrt(acc[k] / float64(len(channels)))
		if average[k] < dfeEpsilon {
			average[k] = dfeEpsilon
		}
	}

	out := make([][]float64, len(channels))
	result := make([]complex128, fftSize)
	equalized := make([]complex128, fftSize)

	for i, spec := range spectra {
		// Real positive divisor: magnitude shrinks, phase is untouched.
		for k, c := range spec {
			equalized[k] = c / complex(average[k], 0)
		}

		if err := plan.Inverse(result, equalized); err != nil {
			return nil, fmt.Errorf("hrtf: inverse FFT failed: %w", err)
		}

		taps := make([]float64, outLen)
		for k := range taps {
			taps[k] = real(result[k])
		}
		out[i] = taps
	}

	return out, nil
}
