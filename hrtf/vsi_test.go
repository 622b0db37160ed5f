package hrtf

import (
	"errors"
	"math"
	"testing"
)

func TestVSIIdenticalFiltersIsZero(t *testing.T) {
	b := identicalCorpusBank(t, testFilter(21, 64))

	subset := make([]int, b.Len())
	for i := range subset {
		subset[i] = i
	}

	vsi, err := b.VerticalSpatialInformation(subset, DefaultVSIOptions())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(vsi) > 1e-6 {
		t.Fatalf("VSI of identical filters = %v, want ~0", vsi)
	}
}

func TestVSIDistinctFiltersExceedsIdentical(t *testing.T) {
	b := gridBank(t, 64)

	idx, err := b.SelectByConeAngle(0, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	vsi, err := b.VerticalSpatialInformation(idx, DefaultVSIOptions())
	if err != nil {
		t.Fatal(err)
	}
	if vsi <= 1e-6 {
		t.Fatalf("VSI of distinct filters = %v, want clearly above 0", vsi)
	}
	if vsi > 2 {
		t.Fatalf("VSI = %v outside the metric's range", vsi)
	}
}

func TestVSIEmptySubset(t *testing.T) {
	b := gridBank(t, 32)

	_, err := b.VerticalSpatialInformation(nil, DefaultVSIOptions())
	if !errors.Is(err, ErrEmptySubset) {
		t.Fatalf("err = %v, want ErrEmptySubset", err)
	}
}

func TestVSISingleDirection(t *testing.T) {
	b := gridBank(t, 32)

	_, err := b.VerticalSpatialInformation([]int{0}, DefaultVSIOptions())
	if !errors.Is(err, ErrSubsetTooSmall) {
		t.Fatalf("err = %v, want ErrSubsetTooSmall", err)
	}
}

func TestVSIIndexOutOfRange(t *testing.T) {
	b := gridBank(t, 32)

	_, err := b.VerticalSpatialInformation([]int{0, b.Len()}, DefaultVSIOptions())
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestVSIInvalidBand(t *testing.T) {
	b := gridBank(t, 32)

	opts := DefaultVSIOptions()
	opts.LowHz = b.SampleRate() // above Nyquist
	_, err := b.VerticalSpatialInformation([]int{0, 1}, opts)
	if !errors.Is(err, ErrInvalidBand) {
		t.Fatalf("err = %v, want ErrInvalidBand", err)
	}

	opts = DefaultVSIOptions()
	opts.LowHz = 8000
	opts.HighHz = 4000
	_, err = b.VerticalSpatialInformation([]int{0, 1}, opts)
	if !errors.Is(err, ErrInvalidBand) {
		t.Fatalf("err = %v, want ErrInvalidBand", err)
	}
}

func TestVSIOnPreEqualizedBank(t *testing.T) {
	// A caller that has already equalized the bank disables the built-in
	// pass; the result must match the equalize-on-the-fly path.
	b := gridBank(t, 64)

	idx, err := b.SelectByConeAngle(0, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	withEq, err := b.VerticalSpatialInformation(idx, DefaultVSIOptions())
	if err != nil {
		t.Fatal(err)
	}

	eq, err := b.DiffuseFieldEqualized()
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultVSIOptions()
	opts.Equalize = false
	preEq, err := eq.VerticalSpatialInformation(idx, opts)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(withEq-preEq) > 1e-9 {
		t.Fatalf("pre-equalized VSI %v differs from built-in path %v", preEq, withEq)
	}
}

func TestPearson(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	if r := pearson(a, a); math.Abs(r-1) > 1e-12 {
		t.Fatalf("self correlation = %v, want 1", r)
	}

	neg := []float64{4, 3, 2, 1}
	if r := pearson(a, neg); math.Abs(r+1) > 1e-12 {
		t.Fatalf("reversed correlation = %v, want -1", r)
	}

	flat := []float64{2, 2, 2, 2}
	if r := pearson(flat, flat); r != 1 {
		t.Fatalf("constant-vs-constant correlation = %v, want 1", r)
	}
	if r := pearson(flat, a); r != 0 {
		t.Fatalf("constant-vs-varying correlation = %v, want 0", r)
	}
}
