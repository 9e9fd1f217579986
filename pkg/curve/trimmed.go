package curve

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/workaround"
)

// Trim selects one end of a trimmed curve, by parameter, by cartesian
// point, or both. When both are given the parameter wins.
type Trim struct {
	Param    float64
	HasParam bool
	Point    geom.Vec
	HasPoint bool
}

// AtParam is a parameter trim.
func AtParam(t float64) Trim { return Trim{Param: t, HasParam: true} }

// AtPoint is a cartesian point trim.
func AtPoint(p geom.Vec) Trim { return Trim{Point: p, HasPoint: true} }

// Trimmed is a sub-range of a basis curve. Sense false means the curve
// runs against the basis parametrisation.
type Trimmed struct {
	Basis Curve
	Trim1 Trim
	Trim2 Trim
	Sense bool
}

// The basis parametrisation is exposed unchanged so a trimmed curve can be
// the geometry of an edge, which is bounded by its own vertices.

func (c *Trimmed) Point(t float64) geom.Vec              { return c.Basis.Point(t) }
func (c *Trimmed) Tangent(t float64) geom.Vec            { return c.Basis.Tangent(t) }
func (c *Trimmed) Domain() (float64, float64)            { return c.Basis.Domain() }
func (c *Trimmed) Period() (float64, bool)               { return c.Basis.Period() }
func (c *Trimmed) Closest(p geom.Vec) (float64, float64) { return c.Basis.Closest(p) }
func (c *Trimmed) Kind() Kind                            { return KindTrimmed }
func (c *Trimmed) Discretize(t0, t1 float64, tol geom.Tolerance) []float64 {
	return c.Basis.Discretize(t0, t1, tol)
}

// Resolve turns the trim selects into a concrete parameter span on the
// basis curve. It returns the identifiers of the workarounds that had to
// be applied. Without a matching workaround, anything that would yield a
// zero-length or off-curve span fails with geom.ErrTrimResolution.
func (c *Trimmed) Resolve(reg *workaround.Registry, tol geom.Tolerance) (Span, []string, error) {
	var healed []string
	snap := reg.IsEnabled(workaround.SnapTrimToCurve)

	t1, err := c.param(c.Trim1, snap, tol, &healed)
	if err != nil {
		return Span{}, nil, err
	}
	t2, err := c.param(c.Trim2, snap, tol, &healed)
	if err != nil {
		return Span{}, nil, err
	}

	wholePoly := false
	if pl, ok := c.Basis.(*Polyline); ok && len(pl.Points) > 2 &&
		c.Trim1.HasParam && c.Trim2.HasParam &&
		reg.IsEnabled(workaround.PolylineTrimLengthOne) {
		end := float64(pl.segments())
		switch {
		case t1 == 0 && t2 == 1:
			t2, wholePoly = end, true
		case t1 == 1 && t2 == 0:
			t1, wholePoly = end, true
		}
		if wholePoly {
			healed = append(healed, workaround.PolylineTrimLengthOne)
		}
	}

	if period, ok := c.Basis.Period(); ok {
		return c.resolvePeriodic(t1, t2, period, wholePoly, snap, reg, tol, healed)
	}
	return c.resolveBounded(t1, t2, snap, tol, healed)
}

func (c *Trimmed) param(tr Trim, snap bool, tol geom.Tolerance, healed *[]string) (float64, error) {
	switch {
	case tr.HasParam:
		return tr.Param, nil
	case tr.HasPoint:
		t, d := c.Basis.Closest(tr.Point)
		if d > tol.Precision {
			if !snap {
				return 0, fmt.Errorf("%w: trim point %v lies %g off the %s", geom.ErrTrimResolution, tr.Point, d, c.Basis.Kind())
			}
			*healed = append(*healed, workaround.SnapTrimToCurve)
		}
		return t, nil
	default:
		return 0, fmt.Errorf("%w: trim has neither parameter nor point", geom.ErrTrimResolution)
	}
}

func (c *Trimmed) resolvePeriodic(t1, t2, period float64, wholePoly, snap bool, reg *workaround.Registry, tol geom.Tolerance, healed []string) (Span, []string, error) {
	if wholePoly {
		if c.Sense {
			return Span{Curve: c.Basis, T0: t1, T1: t1 + period}, healed, nil
		}
		return Span{Curve: c.Basis, T0: t1, T1: t1 - period}, healed, nil
	}

	declared := t2 - t1
	a, b := wrap(t1, period), wrap(t2, period)
	var length float64
	if c.Sense {
		length = wrap(b-a, period)
	} else {
		length = wrap(a-b, period)
	}

	// A span shorter than precision along the curve is a zero-length curve.
	eps := tol.Precision / math.Max(c.scale(), 1e-12)
	if length < eps || period-length < eps {
		fullPeriods := math.Abs(declared) > eps
		switch {
		case fullPeriods && reg.IsEnabled(workaround.TrimSpansFullPeriod):
			healed = append(healed, workaround.TrimSpansFullPeriod)
		case snap:
			healed = append(healed, workaround.SnapTrimToCurve)
		case fullPeriods:
			return Span{}, nil, fmt.Errorf("%w: trim range %g..%g spans whole periods of the %s", geom.ErrTrimResolution, t1, t2, c.Basis.Kind())
		default:
			return Span{}, nil, fmt.Errorf("%w: coincident trims at %g on the %s", geom.ErrTrimResolution, t1, c.Basis.Kind())
		}
		length = period
	}
	if c.Sense {
		return Span{Curve: c.Basis, T0: a, T1: a + length}, healed, nil
	}
	return Span{Curve: c.Basis, T0: a, T1: a - length}, healed, nil
}

func (c *Trimmed) resolveBounded(t1, t2 float64, snap bool, tol geom.Tolerance, healed []string) (Span, []string, error) {
	lo, hi := c.Basis.Domain()
	eps := tol.Precision / math.Max(c.scale(), 1e-12)
	clamp := func(t float64) (float64, error) {
		if t >= lo-eps && t <= hi+eps {
			return math.Max(lo, math.Min(hi, t)), nil
		}
		if !snap {
			return 0, fmt.Errorf("%w: trim %g outside %s domain [%g, %g]", geom.ErrTrimResolution, t, c.Basis.Kind(), lo, hi)
		}
		healed = append(healed, workaround.SnapTrimToCurve)
		return math.Max(lo, math.Min(hi, t)), nil
	}
	var err error
	if t1, err = clamp(t1); err != nil {
		return Span{}, nil, err
	}
	if t2, err = clamp(t2); err != nil {
		return Span{}, nil, err
	}
	if math.Abs(t2-t1) < eps {
		if !snap || !Bounded(c.Basis) {
			return Span{}, nil, fmt.Errorf("%w: coincident trims at %g on the %s", geom.ErrTrimResolution, t1, c.Basis.Kind())
		}
		healed = append(healed, workaround.SnapTrimToCurve)
		if c.Sense {
			t1, t2 = lo, hi
		} else {
			t1, t2 = hi, lo
		}
	}
	return Span{Curve: c.Basis, T0: t1, T1: t2}, healed, nil
}

// scale estimates how far the curve moves per unit parameter.
func (c *Trimmed) scale() float64 {
	switch b := c.Basis.(type) {
	case *Circle:
		return b.Radius
	case *Line:
		return b.Dir.Length()
	case *Polyline:
		s := 0.0
		for i := 0; i < b.segments(); i++ {
			s = math.Max(s, geom.Dist(b.Points[i], b.Points[i+1]))
		}
		return s
	}
	return 1
}
