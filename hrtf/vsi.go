package hrtf

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// VSIOptions configures the vertical spatial information metric.
type VSIOptions struct {
	// Equalize applies diffuse-field equalization to the whole bank before
	// comparing spectra. Callers holding an already-equalized bank should
	// set this to false to avoid recomputation.
	Equalize bool

	// LowHz and HighHz bound the analysis band. Elevation cues live in the
	// upper spectrum, so the default band starts at 4 kHz. HighHz is
	// clamped to the Nyquist frequency.
	LowHz  float64
	HighHz float64
}

// DefaultVSIOptions returns the default metric configuration: diffuse-field
// equalization enabled, 4-16 kHz analysis band.
func DefaultVSIOptions() VSIOptions {
	return VSIOptions{
		Equalize: true,
		LowHz:    4000,
		HighHz:   16000,
	}
}

// VerticalSpatialInformation computes a scalar spectral dissimilarity over
// the chosen subset of directions, typically a vertical cone or slice
// obtained from SelectByConeAngle or SelectByElevation.
//
// For every pair of directions in the subset, the Pearson correlation
// between their band-restricted magnitude spectra (both ears) is computed;
// the metric is 1 minus the mean pairwise correlation. Identical filters
// yield approximately 0; maximally dissimilar filters approach 1 and beyond
// (anticorrelated spectra can exceed 1).
//
// Returns ErrEmptySubset for an empty subset and ErrSubsetTooSmall for a
// single direction: the metric is undefined below two.
func (b *Bank) VerticalSpatialInformation(subset []int, opts VSIOptions) (float64, error) {
	if len(subset) == 0 {
		return 0, ErrEmptySubset
	}
	if len(subset) == 1 {
		return 0, ErrSubsetTooSmall
	}
	for _, i := range subset {
		if i < 0 || i >= len(b.entries) {
			return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
	}

	bank := b
	if opts.Equalize {
		eq, err := b.DiffuseFieldEqualized()
		if err != nil {
			return 0, err
		}
		bank = eq
	}

	features, err := bank.bandMagnitudes(subset, opts.LowHz, opts.HighHz)
	if err != nil {
		return 0, err
	}

	var sum float64
	var pairs int
	for p := 0; p < len(features); p++ {
		for q := p + 1; q < len(features); q++ {
			sum += pearson(features[p], features[q])
			pairs++
		}
	}

	return 1 - sum/float64(pairs), nil
}

// bandMagnitudes returns, for each subset index, the magnitude spectrum of
// both ears restricted to [lowHz, highHz] and concatenated into one feature
// vector.
func (b *Bank) bandMagnitudes(subset []int, lowHz, highHz float64) ([][]float64, error) {
	if lowHz < 0 || math.IsNaN(lowHz) || math.IsInf(lowHz, 0) || math.IsNaN(highHz) {
		return nil, fmt.Errorf("%w: low %v, high %v", ErrInvalidBand, lowHz, highHz)
	}

	fftSize := nextPowerOf2(b.filterLength)
	nyquist := b.sampleRate / 2
	if highHz > nyquist {
		highHz = nyquist
	}
	if highHz <= lowHz {
		return nil, fmt.Errorf("%w: low %v, high %v", ErrInvalidBand, lowHz, highHz)
	}

	binHz := b.sampleRate / float64(fftSize)
	lowBin := int(math.Ceil(lowHz / binHz))
	highBin := int(math.Floor(highHz / binHz))
	if highBin > fftSize/2 {
		highBin = fftSize / 2
	}
	if lowBin > highBin {
		return nil, fmt.Errorf("%w: no bins between %v Hz and %v Hz at fft size %d", ErrInvalidBand, lowHz, highHz, fftSize)
	}
	bins := highBin - lowBin + 1

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("hrtf: failed to create FFT plan: %w", err)
	}

	input := make([]complex128, fftSize)
	spec := make([]complex128, fftSize)
	re := make([]float64, fftSize)
	im := make([]float64, fftSize)
	mag := make([]float64, fftSize)

	magnitudeBand := func(taps []float64, dst []float64) error {
		for k := range input {
			input[k] = 0
		}
		for k, s := range taps {
			input[k] = complex(s, 0)
		}
		if err := plan.Forward(spec, input); err != nil {
			return fmt.Errorf("hrtf: forward FFT failed: %w", err)
		}

		for k, c := range spec {
			re[k] = real(c)
			im[k] = imag(c)
		}
		vecmath.Magnitude(mag, re, im)
		copy(dst, mag[lowBin:highBin+1])

		return nil
	}

	features := make([][]float64, len(subset))
	for i, idx := range subset {
		feature := make([]float64, 2*bins)
		if err := magnitudeBand(b.entries[idx].Filter.Left, feature[:bins]); err != nil {
			return nil, err
		}
		if err := magnitudeBand(b.entries[idx].Filter.Right, feature[bins:]); err != nil {
			return nil, err
		}
		features[i] = feature
	}

	return features, nil
}

// pearson computes the correlation coefficient between two equal-length
// vectors. Two near-constant vectors are treated as perfectly correlated;
// one near-constant vector against a varying one as uncorrelated.
func pearson(a, b []float64) float64 {
	n := float64(len(a))

	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	const tiny = 1e-20
	if varA < tiny || varB < tiny {
		if varA < tiny && varB < tiny {
			return 1
		}
		return 0
	}

	return cov / math.Sqrt(varA*varB)
}
