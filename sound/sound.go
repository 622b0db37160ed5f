// Package sound generates deterministic test stimuli used alongside the
// hrtf package: pure tones, harmonic complexes, white and power-law noise,
// and clicks, plus RMS level measurement and adjustment.
package sound

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by the generators.
var (
	ErrInvalidSampleRate = errors.New("sound: sample rate must be positive")
	ErrInvalidLength     = errors.New("sound: length must be positive")
	ErrInvalidFrequency  = errors.New("sound: frequency must be between 0 and sampleRate/2")
)

// Tone generates a sine wave at the given frequency with unit amplitude.
func Tone(frequency, sampleRate float64, length int) ([]float64, error) {
	if err := validateRate(sampleRate); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if frequency <= 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("%w: %v at rate %v", ErrInvalidFrequency, frequency, sampleRate)
	}

	out := make([]float64, length)
	step := 2 * math.Pi * frequency / sampleRate
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}

	return out, nil
}

// HarmonicComplex generates a sum of harmonics of f0 with a 1/n amplitude
// taper. Harmonics above the Nyquist frequency are omitted.
func HarmonicComplex(f0, sampleRate float64, harmonics, length int) ([]float64, error) {
	if err := validateRate(sampleRate); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if f0 <= 0 || f0 > sampleRate/2 || math.IsNaN(f0) {
		return nil, fmt.Errorf("%w: %v at rate %v", ErrInvalidFrequency, f0, sampleRate)
	}
	if harmonics < 1 {
		return nil, fmt.Errorf("sound: harmonic count must be >= 1: %d", harmonics)
	}

	out := make([]float64, length)
	nyquist := sampleRate / 2
	for h := 1; h <= harmonics; h++ {
		freq := f0 * float64(h)
		if freq > nyquist {
			break
		}

		amp := 1 / float64(h)
		step := 2 * math.Pi * freq / sampleRate
		for i := range out {
			out[i] += amp * math.Sin(step*float64(i))
		}
	}

	return out, nil
}

// WhiteNoise generates uniform white noise in [-1, 1] with a fixed seed for
// reproducibility.
func WhiteNoise(seed int64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}

	return out, nil
}

// PowerLawNoise generates noise with a 1/f^alpha power spectrum by spectral
// shaping of seeded white noise: alpha 0 is white, 1 pink, 2 brown. The
// result is normalized to unit peak amplitude.
func PowerLawNoise(seed int64, alpha float64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("sound: alpha must be finite: %v", alpha)
	}

	fftSize := nextPowerOf2(length)

	noise, err := WhiteNoise(seed, fftSize)
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("sound: failed to create FFT plan: %w", err)
	}

	input := make([]complex128, fftSize)
	for i, s := range noise {
		input[i] = complex(s, 0)
	}
	spec := make([]complex128, fftSize)
	if err := plan.Forward(spec, input); err != nil {
		return nil, fmt.Errorf("sound: forward FFT failed: %w", err)
	}

	// Amplitude scaling of f^(-alpha/2) yields 1/f^alpha in power.
	// The conjugate bin gets the same gain to keep the signal real.
	spec[0] = 0
	for k := 1; k <= fftSize/2; k++ {
		gain := complex(math.Pow(float64(k), -alpha/2), 0)
		spec[k] *= gain
		if k != fftSize-k {
			spec[fftSize-k] *= gain
		}
	}

	result := make([]complex128, fftSize)
	if err := plan.Inverse(result, spec); err != nil {
		return nil, fmt.Errorf("sound: inverse FFT failed: %w", err)
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = real(result[i])
	}

	if peak := vecmath.MaxAbs(out); peak > 0 {
		vecmath.ScaleBlockInPlace(out, 1/peak)
	}

	return out, nil
}

// Click generates a unit impulse at the given sample position.
func Click(length, position int) ([]float64, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if position < 0 || position >= length {
		return nil, fmt.Errorf("sound: click position %d outside signal of length %d", position, length)
	}

	out := make([]float64, length)
	out[position] = 1

	return out, nil
}

// Level returns the RMS level of a signal in dB re full scale, with a floor
// at -300 dB for silence.
func Level(x []float64) float64 {
	if len(x) == 0 {
		return -300
	}

	var sum float64
	for _, v := range x {
		sum += v * v
	}

	rms := math.Sqrt(sum / float64(len(x)))
	if rms <= 1e-15 {
		return -300
	}

	return 20 * math.Log10(rms)
}

// SetLevel scales x in place so its RMS level matches levelDB. Silent
// signals are left unchanged.
func SetLevel(x []float64, levelDB float64) {
	current := Level(x)
	if current <= -300 {
		return
	}

	vecmath.ScaleBlockInPlace(x, math.Pow(10, (levelDB-current)/20))
}

func validateRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	return nil
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
