package hrtf

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Apply renders a mono signal through the filter at entry i, returning the
// binaural left/right outputs. Output length is len(mono)+FilterLength()-1.
func (b *Bank) Apply(i int, mono []float64) (left, right []float64, err error) {
	if i < 0 || i >= len(b.entries) {
		return nil, nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}

	return ApplyFilter(b.entries[i].Filter, mono)
}

// ApplyFilter convolves a mono signal with both channels of a filter via
// FFT fast convolution. Output length is len(mono)+f.Len()-1 per channel.
// Interpolated filters can be rendered this way without belonging to a bank.
func ApplyFilter(f Filter, mono []float64) (left, right []float64, err error) {
	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	if len(mono) == 0 {
		return nil, nil, ErrEmptySignal
	}

	outLen := len(mono) + f.Len() - 1
	fftSize := nextPowerOf2(outLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, nil, fmt.Errorf("hrtf: failed to create FFT plan: %w", err)
	}

	input := make([]complex128, fftSize)
	for i, s := range mono {
		input[i] = complex(s, 0)
	}
	signalSpec := make([]complex128, fftSize)
	if err := plan.Forward(signalSpec, input); err != nil {
		return nil, nil, fmt.Errorf("hrtf: forward FFT failed: %w", err)
	}

	left, err = convolveSpectrum(plan, fftSize, outLen, signalSpec, f.Left)
	if err != nil {
		return nil, nil, err
	}
	right, err = convolveSpectrum(plan, fftSize, outLen, signalSpec, f.Right)
	if err != nil {
		return nil, nil, err
	}

	return left, right, nil
}

func convolveSpectrum(plan *algofft.Plan[complex128], fftSize, outLen int, signalSpec []complex128, taps []float64) ([]float64, error) {
	input := make([]complex128, fftSize)
	for i, s := range taps {
		input[i] = complex(s, 0)
	}

	tapSpec := make([]complex128, fftSize)
	if err := plan.Forward(tapSpec, input); err != nil {
		return nil, fmt.Errorf("hrtf: forward FFT failed: %w", err)
	}

	for k := range tapSpec {
		tapSpec[k] *= signalSpec[k]
	}

	result := make([]complex128, fftSize)
	if err := plan.Inverse(result, tapSpec); err != nil {
		return nil, fmt.Errorf("hrtf: inverse FFT failed: %w", err)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(result[i])
	}

	return out, nil
}
