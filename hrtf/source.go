package hrtf

import "math"

// Source is a source direction relative to the listening point, held in both
// Cartesian and vertical-polar form. A Source is immutable once constructed;
// the two forms are kept consistent by the constructors.
//
// Coordinate convention: the x axis points to the front of the listener, the
// y axis to the left, the z axis up. Azimuth is measured in degrees from the
// front, positive toward the left; elevation in degrees from the horizontal
// plane, positive upward; distance in meters.
type Source struct {
	x, y, z   float64
	azimuth   float64
	elevation float64
	distance  float64
}

// NewSourcePolar constructs a Source from vertical-polar coordinates.
// Azimuth and elevation are in degrees, distance in meters.
func NewSourcePolar(azimuth, elevation, distance float64) Source {
	az := azimuth * math.Pi / 180
	el := elevation * math.Pi / 180

	return Source{
		x:         distance * math.Cos(el) * math.Cos(az),
		y:         distance * math.Cos(el) * math.Sin(az),
		z:         distance * math.Sin(el),
		azimuth:   azimuth,
		elevation: elevation,
		distance:  distance,
	}
}

// NewDirection constructs a Source at unit distance from vertical-polar
// angles in degrees.
func NewDirection(azimuth, elevation float64) Source {
	return NewSourcePolar(azimuth, elevation, 1)
}

// NewSourceCartesian constructs a Source from Cartesian coordinates in
// meters.
func NewSourceCartesian(x, y, z float64) Source {
	distance := math.Sqrt(x*x + y*y + z*z)

	azimuth := 0.0
	elevation := 0.0
	if distance > 0 {
		azimuth = math.Atan2(y, x) * 180 / math.Pi
		elevation = math.Asin(clampUnit(z/distance)) * 180 / math.Pi
	}

	return Source{
		x:         x,
		y:         y,
		z:         z,
		azimuth:   azimuth,
		elevation: elevation,
		distance:  distance,
	}
}

// Cartesian returns the x, y, z coordinates in meters.
func (s Source) Cartesian() (x, y, z float64) { return s.x, s.y, s.z }

// Azimuth returns the azimuth in degrees (0 = front, positive left).
func (s Source) Azimuth() float64 { return s.azimuth }

// Elevation returns the elevation in degrees (0 = horizontal, positive up).
func (s Source) Elevation() float64 { return s.elevation }

// Distance returns the distance from the listening point in meters.
func (s Source) Distance() float64 { return s.distance }

// Unit returns the direction projected onto the unit sphere.
// The zero direction projects to the zero vector.
func (s Source) Unit() (x, y, z float64) {
	if s.distance <= 0 {
		return 0, 0, 0
	}
	return s.x / s.distance, s.y / s.distance, s.z / s.distance
}

// AngleTo returns the great-circle angle between two directions in degrees,
// ignoring distance.
func (s Source) AngleTo(other Source) float64 {
	ax, ay, az := s.Unit()
	bx, by, bz := other.Unit()

	dot := ax*bx + ay*by + az*bz
	return math.Acos(clampUnit(dot)) * 180 / math.Pi
}

// ConeAngle returns the lateral angle of the direction in degrees: the
// angular offset of the direction from the median (front-back, vertical)
// plane. Directions on the median plane have cone angle 0; directions on the
// left interaural axis have cone angle 90.
func (s Source) ConeAngle() float64 {
	_, y, _ := s.Unit()
	return math.Asin(clampUnit(y)) * 180 / math.Pi
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
