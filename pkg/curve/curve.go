// Package curve evaluates the parametric curves that bound faces and drive
// sweeps: lines, circles, polylines, and trimmed sub-ranges of them.
package curve

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Kind names a curve variant.
type Kind string

const (
	KindLine     Kind = "line"
	KindCircle   Kind = "circle"
	KindPolyline Kind = "polyline"
	KindTrimmed  Kind = "trimmed"
)

// Curve is a parametric 1D geometric object.
type Curve interface {
	// Point evaluates the curve at parameter t.
	Point(t float64) geom.Vec
	// Tangent returns the first derivative at t.
	Tangent(t float64) geom.Vec
	// Domain returns the parameter bounds. Unbounded curves return
	// infinities.
	Domain() (t0, t1 float64)
	// Period returns the parameter period of a closed curve.
	Period() (float64, bool)
	// Closest returns the parameter of the point on the curve nearest to p
	// and its distance from p.
	Closest(p geom.Vec) (t, dist float64)
	// Discretize returns ascending parameter stations from t0 to t1
	// (inclusive, t0 < t1) such that the chords stay within the tolerance's
	// deflection limits.
	Discretize(t0, t1 float64, tol geom.Tolerance) []float64
	Kind() Kind
}

// Bounded reports whether c has a finite domain.
func Bounded(c Curve) bool {
	t0, t1 := c.Domain()
	return !math.IsInf(t0, 0) && !math.IsInf(t1, 0)
}

// wrap maps t into [0, period).
func wrap(t, period float64) float64 {
	t = math.Mod(t, period)
	if t < 0 {
		t += period
	}
	return t
}

// arcSegments returns how many chords approximate an arc of the given
// radius and sweep angle within the deflection limits.
func arcSegments(radius, sweep float64, tol geom.Tolerance) int {
	sweep = math.Abs(sweep)
	step := tol.DeflectionAngle
	if tol.DeflectionTolerance < radius {
		// sag of a chord spanning angle d is r(1-cos(d/2))
		if byDefl := 2 * math.Acos(1-tol.DeflectionTolerance/radius); byDefl < step {
			step = byDefl
		}
	}
	n := int(math.Ceil(sweep / step))
	if q := int(math.Ceil(sweep / (math.Pi / 2))); q > n {
		n = q
	}
	if n < 1 {
		n = 1
	}
	return n
}

// uniform returns n+1 evenly spaced stations from t0 to t1.
func uniform(t0, t1 float64, n int) []float64 {
	ts := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		ts[i] = t0 + (t1-t0)*float64(i)/float64(n)
	}
	ts[n] = t1
	return ts
}
