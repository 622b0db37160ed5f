package hrtf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Errors returned by bank construction and analysis.
var (
	ErrEmptyBank          = errors.New("hrtf: bank must contain at least one entry")
	ErrSampleRateMismatch = errors.New("hrtf: filters recorded at different sample rates")
	ErrDuplicateDirection = errors.New("hrtf: two entries share the same direction")
	ErrIndexOutOfRange    = errors.New("hrtf: filter index out of range")
	ErrOutOfHull          = errors.New("hrtf: target direction outside the hull of measured directions")
	ErrEmptySubset        = errors.New("hrtf: no directions match the selection")
	ErrSubsetTooSmall     = errors.New("hrtf: at least two directions are required")
	ErrEmptySignal        = errors.New("hrtf: input signal is empty")
	ErrInvalidBand        = errors.New("hrtf: frequency band is empty or out of range")
)

// directionToleranceDeg is the angular tolerance in degrees below which two
// directions are considered coincident. Measurement grids are spaced orders
// of magnitude wider than this.
const directionToleranceDeg = 1e-5

// Filter is a two-channel (left/right ear) impulse response recorded at one
// sample rate. Both channels have the same length.
type Filter struct {
	SampleRate float64
	Left       []float64
	Right      []float64
}

// Len returns the filter length in samples.
func (f Filter) Len() int { return len(f.Left) }

// Clone returns a deep copy of the filter.
func (f Filter) Clone() Filter {
	left := make([]float64, len(f.Left))
	right := make([]float64, len(f.Right))
	copy(left, f.Left)
	copy(right, f.Right)

	return Filter{SampleRate: f.SampleRate, Left: left, Right: right}
}

func (f Filter) validate() error {
	if f.SampleRate <= 0 || math.IsNaN(f.SampleRate) || math.IsInf(f.SampleRate, 0) {
		return fmt.Errorf("hrtf: sample rate must be positive and finite: %v", f.SampleRate)
	}
	if len(f.Left) == 0 || len(f.Right) == 0 {
		return fmt.Errorf("hrtf: filter channels must not be empty")
	}
	if len(f.Left) != len(f.Right) {
		return fmt.Errorf("hrtf: filter channels must have equal length: %d != %d", len(f.Left), len(f.Right))
	}

	return nil
}

// Entry pairs a source direction with the filter measured from it.
type Entry struct {
	Source Source
	Filter Filter
}

// Bank is an immutable ordered corpus of directional filters sharing one
// sample rate and filter length. Insertion order defines stable indices used
// by selection and lookup. Derived banks (equalized, interpolated) are new
// values; a Bank is never mutated after construction.
//
// The spherical triangulation used by Interpolate is computed lazily on
// first use and memoized for the lifetime of the bank.
type Bank struct {
	entries      []Entry
	sampleRate   float64
	filterLength int

	triOnce sync.Once
	tri     *triangulation
}

// NewBank constructs a bank from measured entries. All filters must share
// one sample rate and length, and no two entries may point in the same
// direction. Entries are deep-copied; the caller's slices are not retained.
func NewBank(entries []Entry) (*Bank, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBank
	}

	rate := entries[0].Filter.SampleRate
	length := entries[0].Filter.Len()

	owned := make([]Entry, len(entries))
	for i, e := range entries {
		if err := e.Filter.validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.Filter.SampleRate != rate {
			return nil, fmt.Errorf("entry %d: %w: %v != %v", i, ErrSampleRateMismatch, e.Filter.SampleRate, rate)
		}
		if e.Filter.Len() != length {
			return nil, fmt.Errorf("hrtf: entry %d: filter length %d differs from bank length %d", i, e.Filter.Len(), length)
		}
		if e.Source.Distance() <= 0 {
			return nil, fmt.Errorf("hrtf: entry %d: direction must have positive distance", i)
		}

		for j := range i {
			if entries[j].Source.AngleTo(e.Source) < directionToleranceDeg {
				return nil, fmt.Errorf("entries %d and %d: %w", j, i, ErrDuplicateDirection)
			}
		}

		owned[i] = Entry{Source: e.Source, Filter: e.Filter.Clone()}
	}

	return &Bank{
		entries:      owned,
		sampleRate:   rate,
		filterLength: length,
	}, nil
}

// Len returns the number of entries in the bank.
func (b *Bank) Len() int { return len(b.entries) }

// SampleRate returns the shared sample rate of all filters.
func (b *Bank) SampleRate() float64 { return b.sampleRate }

// FilterLength returns the shared filter length in samples.
func (b *Bank) FilterLength() int { return b.filterLength }

// Source returns the direction of entry i.
func (b *Bank) Source(i int) (Source, error) {
	if i < 0 || i >= len(b.entries) {
		return Source{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return b.entries[i].Source, nil
}

// Filter returns a copy of the filter at entry i. This is the lookup for a
// known measured direction; use Interpolate for directions not in the
// corpus.
func (b *Bank) Filter(i int) (Filter, error) {
	if i < 0 || i >= len(b.entries) {
		return Filter{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return b.entries[i].Filter.Clone(), nil
}

// Sources returns the directions of all entries in insertion order.
func (b *Bank) Sources() []Source {
	out := make([]Source, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Source
	}
	return out
}

// SelectByElevation returns the indices of all directions whose elevation is
// within tolerance degrees of elevation. The result is ordered by ascending
// azimuth, with insertion order breaking ties; repeated calls return the
// same order. Returns ErrEmptySubset if no direction matches.
func (b *Bank) SelectByElevation(elevation, tolerance float64) ([]int, error) {
	if err := validTolerance(tolerance); err != nil {
		return nil, err
	}

	var idx []int
	for i, e := range b.entries {
		if math.Abs(e.Source.Elevation()-elevation) <= tolerance {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, ErrEmptySubset
	}

	sort.SliceStable(idx, func(p, q int) bool {
		return b.entries[idx[p]].Source.Azimuth() < b.entries[idx[q]].Source.Azimuth()
	})

	return idx, nil
}

// SelectByConeAngle returns the indices of all directions lying on the
// vertical plane offset coneAngle degrees from the median plane, within
// tolerance degrees. The result is ordered by ascending elevation, with
// insertion order breaking ties. Returns ErrEmptySubset if no direction
// matches.
func (b *Bank) SelectByConeAngle(coneAngle, tolerance float64) ([]int, error) {
	if err := validTolerance(tolerance); err != nil {
		return nil, err
	}

	var idx []int
	for i, e := range b.entries {
		if math.Abs(e.Source.ConeAngle()-coneAngle) <= tolerance {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, ErrEmptySubset
	}

	sort.SliceStable(idx, func(p, q int) bool {
		return b.entries[idx[p]].Source.Elevation() < b.entries[idx[q]].Source.Elevation()
	})

	return idx, nil
}

// NearestDirection returns the index of the stored direction with the
// smallest great-circle angle to target. Callers whose target fell outside
// the hull during Interpolate can use this to clamp to the closest
// measurement.
func (b *Bank) NearestDirection(target Source) (int, error) {
	if target.Distance() <= 0 {
		return 0, fmt.Errorf("hrtf: target direction must have positive distance")
	}

	best := 0
	bestAngle := math.Inf(1)
	for i, e := range b.entries {
		if a := e.Source.AngleTo(target); a < bestAngle {
			best = i
			bestAngle = a
		}
	}

	return best, nil
}

func validTolerance(tolerance float64) error {
	if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return fmt.Errorf("hrtf: tolerance must be non-negative and finite: %v", tolerance)
	}
	return nil
}
