package curve

import (
	"github.com/chazu/ifcsolid/pkg/geom"
)

// Span is a resolved parameter range on a curve, traversed from T0 to T1.
// T1 < T0 runs against the curve's parametrisation.
type Span struct {
	Curve  Curve
	T0, T1 float64
}

// Start returns the first point of the span.
func (s Span) Start() geom.Vec { return s.Curve.Point(s.T0) }

// End returns the last point of the span.
func (s Span) End() geom.Vec { return s.Curve.Point(s.T1) }

// At evaluates the span at normalised position u in [0, 1].
func (s Span) At(u float64) geom.Vec {
	return s.Curve.Point(s.T0 + (s.T1-s.T0)*u)
}

// Reversed returns the same span traversed backwards.
func (s Span) Reversed() Span {
	return Span{Curve: s.Curve, T0: s.T1, T1: s.T0}
}

// Params returns the discretisation stations in traversal order.
func (s Span) Params(tol geom.Tolerance) []float64 {
	if s.T0 <= s.T1 {
		return s.Curve.Discretize(s.T0, s.T1, tol)
	}
	ts := s.Curve.Discretize(s.T1, s.T0, tol)
	for i, j := 0, len(ts)-1; i < j; i, j = i+1, j-1 {
		ts[i], ts[j] = ts[j], ts[i]
	}
	return ts
}

// Points discretises the span in traversal order.
func (s Span) Points(tol geom.Tolerance) []geom.Vec {
	ts := s.Params(tol)
	pts := make([]geom.Vec, len(ts))
	for i, t := range ts {
		pts[i] = s.Curve.Point(t)
	}
	return pts
}

// Length is the length of the span's discretisation.
func (s Span) Length(tol geom.Tolerance) float64 {
	pts := s.Points(tol)
	l := 0.0
	for i := 1; i < len(pts); i++ {
		l += geom.Dist(pts[i-1], pts[i])
	}
	return l
}
