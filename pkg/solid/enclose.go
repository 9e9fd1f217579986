package solid

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/facet"
	"github.com/chazu/ifcsolid/pkg/geom"
)

// rays are skewed so that a ray rarely grazes an edge or vertex of an
// axis-aligned model.
var rays = [3]geom.Vec{
	unit(geom.V(1, 0.31, 0.17)),
	unit(geom.V(-0.23, 1, 0.41)),
	unit(geom.V(0.13, -0.37, -1)),
}

func unit(v geom.Vec) geom.Vec {
	u, _ := geom.Unit(v)
	return u
}

// maxSamples bounds the number of near-surface sample points tried after the
// bounding box centre.
const maxSamples = 16

// Encloses reports whether a possibly open mesh bounds a region of space.
// The mesh must have non-zero signed volume, and some sample point must lie
// inside by the even-odd count of crossings along a majority of three
// fixed rays. Samples are the bounding box centre followed by points just
// behind a sample of triangles.
func Encloses(m facet.Mesh, tol geom.Tolerance) bool {
	if m.IsEmpty() {
		return false
	}
	bb := geom.Bounds(m.Positions)
	centre := bb.Center()
	if math.Abs(m.Volume(centre)) <= math.Pow(tol.Precision, 3) {
		return false
	}
	if inside(m, centre) {
		return true
	}

	delta := 1e-3 * geom.Diagonal(bb)
	step := max(1, len(m.Triangles)/maxSamples)
	for i := 0; i < len(m.Triangles); i += step {
		t := m.Triangles[i]
		a, b, c := m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]
		n, ok := geom.Unit(geom.TriangleNormal(a, b, c))
		if !ok {
			continue
		}
		g := geom.Centroid([]geom.Vec{a, b, c})
		if inside(m, g.Sub(n.MulScalar(delta))) || inside(m, g.Add(n.MulScalar(delta))) {
			return true
		}
	}
	return false
}

// inside is the majority vote of the even-odd rule over the fixed rays.
func inside(m facet.Mesh, p geom.Vec) bool {
	votes := 0
	for _, d := range rays {
		n := 0
		for _, t := range m.Triangles {
			if crosses(p, d, m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]) {
				n++
			}
		}
		if n%2 == 1 {
			votes++
		}
	}
	return votes >= 2
}

// crosses reports whether the ray from o along d hits triangle abc
// (Möller-Trumbore).
func crosses(o, d, a, b, c geom.Vec) bool {
	const eps = 1e-12
	e1, e2 := b.Sub(a), c.Sub(a)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps*e1.Length()*e2.Length() {
		return false
	}
	inv := 1 / det
	s := o.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	return e2.Dot(q)*inv > eps
}
