package hrtf

import (
	"errors"
	"math"
	"testing"

	"github.com/sammosummo/slab/internal/testutil"
)

func TestInterpolateStoredDirectionReturnsStoredFilter(t *testing.T) {
	b := gridBank(t, 64)

	for _, i := range []int{0, 13, 37, b.Len() - 1} {
		src, err := b.Source(i)
		if err != nil {
			t.Fatal(err)
		}

		got, err := b.Interpolate(src)
		if err != nil {
			t.Fatalf("interpolate at stored direction %d: %v", i, err)
		}

		want, err := b.Filter(i)
		if err != nil {
			t.Fatal(err)
		}

		for k := range want.Left {
			if got.Left[k] != want.Left[k] || got.Right[k] != want.Right[k] {
				t.Fatalf("direction %d: interpolated filter differs from stored at sample %d", i, k)
			}
		}
	}
}

func TestInterpolateIdenticalCorpus(t *testing.T) {
	// Every direction carries the same filter; interpolation anywhere
	// inside the hull must reproduce it.
	ref := testFilter(5, 64)

	var entries []Entry
	for _, el := range []float64{-60, 0, 60} {
		for az := 0.0; az < 360; az += 60 {
			entries = append(entries, Entry{Source: NewDirection(az, el), Filter: ref.Clone()})
		}
	}
	entries = append(entries,
		Entry{Source: NewDirection(0, 90), Filter: ref.Clone()},
		Entry{Source: NewDirection(0, -90), Filter: ref.Clone()},
	)

	b, err := NewBank(entries)
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Interpolate(NewDirection(25, 20))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got.Left, ref.Left, 1e-9)
	testutil.RequireSliceNearlyEqual(t, got.Right, ref.Right, 1e-9)
}

func TestInterpolateScaledImpulses(t *testing.T) {
	// Filters are scaled unit impulses: flat magnitude, zero phase. The
	// interpolated filter must be a scaled impulse whose gain is the
	// barycentric mix of the vertex gains.
	gains := map[float64]float64{-60: 0.5, 0: 1.0, 60: 2.0}

	var entries []Entry
	for el, g := range gains {
		for az := 0.0; az < 360; az += 45 {
			imp := testutil.Impulse(64, 0)
			for i := range imp {
				imp[i] *= g
			}
			right := make([]float64, len(imp))
			copy(right, imp)
			entries = append(entries, Entry{
				Source: NewDirection(az, el),
				Filter: Filter{SampleRate: testRate, Left: imp, Right: right},
			})
		}
	}
	entries = append(entries,
		Entry{Source: NewDirection(0, 90), Filter: Filter{SampleRate: testRate, Left: testutil.Impulse(64, 0), Right: testutil.Impulse(64, 0)}},
		Entry{Source: NewDirection(0, -90), Filter: Filter{SampleRate: testRate, Left: testutil.Impulse(64, 0), Right: testutil.Impulse(64, 0)}},
	)

	b, err := NewBank(entries)
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Interpolate(NewDirection(100, 30))
	if err != nil {
		t.Fatal(err)
	}

	if got.Left[0] < 0.5 || got.Left[0] > 2.0 {
		t.Fatalf("interpolated gain %v outside vertex gain range [0.5, 2]", got.Left[0])
	}
	for k := 1; k < len(got.Left); k++ {
		if math.Abs(got.Left[k]) > 1e-9 {
			t.Fatalf("interpolated impulse has energy at sample %d: %v", k, got.Left[k])
		}
	}
	testutil.RequireSliceNearlyEqual(t, got.Right, got.Left, 1e-9)
}

func TestInterpolateThreeDirectionScenario(t *testing.T) {
	// Corpus of three measured elevations; an exact match must bypass
	// interpolation and a direction far outside the triangle must fail.
	entries := []Entry{
		{Source: NewDirection(0, -40), Filter: testFilter(1, 32)},
		{Source: NewDirection(30, 0), Filter: testFilter(2, 32)},
		{Source: NewDirection(0, 40), Filter: testFilter(3, 32)},
	}

	b, err := NewBank(entries)
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Interpolate(NewDirection(0, 40))
	if err != nil {
		t.Fatal(err)
	}
	want, err := b.Filter(2)
	if err != nil {
		t.Fatal(err)
	}
	for k := range want.Left {
		if got.Left[k] != want.Left[k] {
			t.Fatalf("exact-match interpolation altered the filter at sample %d", k)
		}
	}

	_, err = b.Interpolate(NewDirection(180, 0))
	if !errors.Is(err, ErrOutOfHull) {
		t.Fatalf("err = %v, want ErrOutOfHull", err)
	}
}

func TestInterpolateOutOfHullThenClamp(t *testing.T) {
	// Hemisphere corpus: below-horizon targets are outside the hull and
	// the documented fallback is NearestDirection.
	var entries []Entry
	seed := int64(1)
	for _, el := range []float64{0, 30, 60} {
		for az := 0.0; az < 360; az += 45 {
			entries = append(entries, Entry{Source: NewDirection(az, el), Filter: testFilter(seed, 32)})
			seed++
		}
	}
	entries = append(entries, Entry{Source: NewDirection(0, 90), Filter: testFilter(seed, 32)})

	b, err := NewBank(entries)
	if err != nil {
		t.Fatal(err)
	}

	target := NewDirection(90, -50)
	_, err = b.Interpolate(target)
	if !errors.Is(err, ErrOutOfHull) {
		t.Fatalf("err = %v, want ErrOutOfHull", err)
	}

	idx, err := b.NearestDirection(target)
	if err != nil {
		t.Fatal(err)
	}
	src, err := b.Source(idx)
	if err != nil {
		t.Fatal(err)
	}
	if src.Elevation() != 0 {
		t.Fatalf("clamped to elevation %v, want rim elevation 0", src.Elevation())
	}
}

func TestInterpolatePreservesShape(t *testing.T) {
	b := gridBank(t, 64)

	got, err := b.Interpolate(NewDirection(47, 13))
	if err != nil {
		t.Fatal(err)
	}

	if got.Len() != b.FilterLength() {
		t.Fatalf("interpolated length %d, want %d", got.Len(), b.FilterLength())
	}
	if got.SampleRate != b.SampleRate() {
		t.Fatalf("interpolated rate %v, want %v", got.SampleRate, b.SampleRate())
	}
	testutil.RequireFinite(t, got.Left)
	testutil.RequireFinite(t, got.Right)
}

func TestInterpolateZeroTarget(t *testing.T) {
	b := gridBank(t, 32)

	if _, err := b.Interpolate(NewSourceCartesian(0, 0, 0)); err == nil {
		t.Fatal("expected error for zero-length target")
	}
}

func BenchmarkInterpolate(b *testing.B) {
	var entries []Entry
	seed := int64(1)
	for _, el := range []float64{-60, -30, 0, 30, 60} {
		for az := 0.0; az < 360; az += 15 {
			entries = append(entries, Entry{Source: NewDirection(az, el), Filter: testFilter(seed, 256)})
			seed++
		}
	}

	bank, err := NewBank(entries)
	if err != nil {
		b.Fatal(err)
	}

	// Prime the memoized triangulation outside the timed loop.
	if _, err := bank.Interpolate(NewDirection(17, 12)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bank.Interpolate(NewDirection(17, 12)); err != nil {
			b.Fatal(err)
		}
	}
}
