// Package hrtf provides analysis of directional filter banks, such as
// head-related transfer function measurements.
//
// A [Bank] is an immutable corpus of two-channel filters, each recorded from
// a source direction on a sphere around the listening point. The package
// supports interpolation of a filter for an unmeasured direction via
// barycentric weighting on a spherical triangulation of the measured
// directions, diffuse-field equalization, selection of direction subsets by
// elevation or cone angle, and a vertical spatial information (VSI) metric
// quantifying spectral dissimilarity across elevations.
//
// All operations are pure: derived banks and filters are new values, the
// source corpus is never mutated. The spherical triangulation is memoized per
// bank, so repeated Interpolate calls on one bank are cheap and safe to make
// concurrently.
//
// Loading measurement files (e.g. SOFA), visualization, and playback are out
// of scope; callers construct banks from already-decoded measurements.
package hrtf
