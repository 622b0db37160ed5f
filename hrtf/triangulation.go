package hrtf

import "math"

// The spherical triangulation of the measured directions is the convex hull
// of their unit vectors: for points on a sphere the hull triangles coincide
// with the spherical Delaunay triangulation. The hull is built once per bank
// with an incremental algorithm and memoized; a bank's directions never
// change, so there is no invalidation.
//
// Degenerate corpora get reduced triangulations: exactly three non-collinear
// directions form a single triangle, fewer (or collinear/coplanar sets that
// admit no hull) produce no triangles at all, in which case every target
// that is not coincident with a stored direction is outside the hull.

type vec3 struct{ x, y, z float64 }

func sub(a, b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }

func cross(a, b vec3) vec3 {
	return vec3{
		a.y*b.z - a.z*b.y,
		a.z*b.x - a.x*b.z,
		a.x*b.y - a.y*b.x,
	}
}

func dot(a, b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }

func norm(a vec3) float64 { return math.Sqrt(dot(a, a)) }

type triangulation struct {
	points []vec3
	faces  [][3]int
}

// triangulate returns the memoized spherical triangulation of the bank's
// directions. Safe for concurrent use.
func (b *Bank) triangulate() *triangulation {
	b.triOnce.Do(func() {
		pts := make([]vec3, len(b.entries))
		for i, e := range b.entries {
			x, y, z := e.Source.Unit()
			pts[i] = vec3{x, y, z}
		}
		b.tri = buildTriangulation(pts)
	})

	return b.tri
}

func buildTriangulation(pts []vec3) *triangulation {
	t := &triangulation{points: pts}

	switch {
	case len(pts) < 3:
		// No triangles; only coincident lookups can succeed.
	case len(pts) == 3:
		if norm(cross(sub(pts[1], pts[0]), sub(pts[2], pts[0]))) > hullEpsilon {
			t.faces = [][3]int{{0, 1, 2}}
		}
	default:
		t.faces = convexHull(pts)
	}

	return t
}

const (
	hullEpsilon = 1e-10
	baryEpsilon = 1e-9
	detEpsilon  = 1e-12
)

// locate finds the hull triangle whose cone (as seen from the listening
// point) contains the unit direction p and returns its vertex indices with
// normalized barycentric weights. Weights are non-negative and sum to 1.
// ok is false when p lies outside every triangle's cone, i.e. outside the
// hull of measured directions.
func (t *triangulation) locate(p vec3) (face [3]int, weights [3]float64, ok bool) {
	bestScore := math.Inf(-1)

	for _, f := range t.faces {
		a, b, c := t.points[f[0]], t.points[f[1]], t.points[f[2]]

		det := dot(a, cross(b, c))
		if math.Abs(det) < detEpsilon {
			continue
		}

		w0 := dot(p, cross(b, c)) / det
		w1 := dot(a, cross(p, c)) / det
		w2 := dot(a, cross(b, p)) / det

		sum := w0 + w1 + w2
		if sum <= 0 || w0 < -baryEpsilon || w1 < -baryEpsilon || w2 < -baryEpsilon {
			continue
		}

		// When the listening point lies outside the hull (partial spherical
		// coverage) a direction can fall in the cone of two opposing faces;
		// prefer the one whose vertices are closest to the target.
		score := math.Min(dot(p, a), math.Min(dot(p, b), dot(p, c)))
		if score > bestScore {
			bestScore = score
			face = f
			weights = [3]float64{w0 / sum, w1 / sum, w2 / sum}
			ok = true
		}
	}

	if ok {
		for i, w := range weights {
			if w < 0 {
				weights[i] = 0
			}
		}
		total := weights[0] + weights[1] + weights[2]
		for i := range weights {
			weights[i] /= total
		}
	}

	return face, weights, ok
}

// convexHull builds the hull of pts incrementally and returns its faces
// with outward-consistent winding. Returns nil when the points are
// degenerate (collinear or coplanar).
func convexHull(pts []vec3) [][3]int {
	i1, i2, i3, ok := seedTetrahedron(pts)
	if !ok {
		return nil
	}

	faces := tetrahedronFaces(pts, 0, i1, i2, i3)
	seeded := map[int]bool{0: true, i1: true, i2: true, i3: true}

	for p := range pts {
		if seeded[p] {
			continue
		}
		faces = addPoint(pts, faces, p)
	}

	return faces
}

// seedTetrahedron finds three indices that, together with index 0, form a
// non-degenerate tetrahedron.
func seedTetrahedron(pts []vec3) (i1, i2, i3 int, ok bool) {
	i1 = -1
	for i := 1; i < len(pts); i++ {
		if norm(sub(pts[i], pts[0])) > hullEpsilon {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return 0, 0, 0, false
	}

	i2 = -1
	bestArea := hullEpsilon
	for i := 1; i < len(pts); i++ {
		if i == i1 {
			continue
		}
		area := norm(cross(sub(pts[i1], pts[0]), sub(pts[i], pts[0])))
		if area > bestArea {
			bestArea = area
			i2 = i
		}
	}
	if i2 < 0 {
		return 0, 0, 0, false
	}

	n := cross(sub(pts[i1], pts[0]), sub(pts[i2], pts[0]))

	i3 = -1
	bestVol := hullEpsilon
	for i := 1; i < len(pts); i++ {
		if i == i1 || i == i2 {
			continue
		}
		vol := math.Abs(dot(n, sub(pts[i], pts[0])))
		if vol > bestVol {
			bestVol = vol
			i3 = i
		}
	}
	if i3 < 0 {
		return 0, 0, 0, false
	}

	return i1, i2, i3, true
}

func tetrahedronFaces(pts []vec3, a, b, c, d int) [][3]int {
	faces := [][3]int{{a, b, c}, {a, c, d}, {a, d, b}, {b, d, c}}
	for i, f := range faces {
		// Orient each face so the remaining vertex lies behind it.
		opposite := a ^ b ^ c ^ d ^ f[0] ^ f[1] ^ f[2]
		if signedDistance(pts, f, pts[opposite]) > 0 {
			faces[i] = [3]int{f[0], f[2], f[1]}
		}
	}

	return faces
}

func signedDistance(pts []vec3, f [3]int, p vec3) float64 {
	n := cross(sub(pts[f[1]], pts[f[0]]), sub(pts[f[2]], pts[f[0]]))
	return dot(n, sub(p, pts[f[0]]))
}

// addPoint grows the hull by one point: faces visible from the point are
// replaced by a fan from the point to the horizon edges.
func addPoint(pts []vec3, faces [][3]int, p int) [][3]int {
	var visible, kept [][3]int
	for _, f := range faces {
		if signedDistance(pts, f, pts[p]) > hullEpsilon {
			visible = append(visible, f)
		} else {
			kept = append(kept, f)
		}
	}
	if len(visible) == 0 {
		// Point inside (or on) the current hull; nothing to do.
		return faces
	}

	type edge struct{ u, v int }
	edges := make(map[edge]bool, 3*len(visible))
	for _, f := range visible {
		edges[edge{f[0], f[1]}] = true
		edges[edge{f[1], f[2]}] = true
		edges[edge{f[2], f[0]}] = true
	}

	// Horizon edges are those whose reverse is not shared by another
	// visible face; the retained winding keeps new faces outward.
	for _, f := range visible {
		for _, e := range [3]edge{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}} {
			if !edges[edge{e.v, e.u}] {
				kept = append(kept, [3]int{e.u, e.v, p})
			}
		}
	}

	return kept
}
