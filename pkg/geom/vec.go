package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a 3D point or direction.
type Vec = v3.Vec

// V is shorthand for a Vec literal.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Dist returns the euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Near reports whether a and b coincide within tol.
func Near(a, b Vec, tol float64) bool {
	return Dist(a, b) <= tol
}

// Lerp interpolates between a (s=0) and b (s=1).
func Lerp(a, b Vec, s float64) Vec {
	return a.Add(b.Sub(a).MulScalar(s))
}

// Unit returns v scaled to unit length. ok is false for a zero-length vector.
func Unit(v Vec) (u Vec, ok bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// Angle returns the angle in radians between two non-zero directions.
func Angle(a, b Vec) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// TriangleNormal returns the (unnormalised) normal of triangle abc, whose
// length is twice the triangle area.
func TriangleNormal(a, b, c Vec) Vec {
	return b.Sub(a).Cross(c.Sub(a))
}

// Centroid returns the average of pts.
func Centroid(pts []Vec) Vec {
	var sum Vec
	if len(pts) == 0 {
		return sum
	}
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.MulScalar(1 / float64(len(pts)))
}

// PolygonNormal returns the Newell normal of a closed polygon. Its length is
// twice the polygon area.
func PolygonNormal(pts []Vec) Vec {
	var n Vec
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}
