// Package surface evaluates the parametric surfaces that carry faces.
package surface

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
)

// Kind names a surface variant.
type Kind string

const (
	KindPlane           Kind = "plane"
	KindCylinder        Kind = "cylinder"
	KindLinearExtrusion Kind = "linear-extrusion"
	KindSweptArea       Kind = "swept-area"
)

// Surface is a parametric 2D geometric object.
type Surface interface {
	Point(u, v float64) geom.Vec
	// Normal returns the unit normal at (u, v), oriented as Su x Sv.
	Normal(u, v float64) geom.Vec
	// Project returns the parameters of the surface point nearest to p and
	// its distance from p.
	Project(p geom.Vec) (u, v, dist float64)
	Planar() bool
	UPeriod() (float64, bool)
	Kind() Kind
}

// Plane is the XY plane of its placement.
type Plane struct {
	Frame geom.Frame
}

func NewPlane(f geom.Frame) *Plane { return &Plane{Frame: f} }

func (s *Plane) Point(u, v float64) geom.Vec  { return s.Frame.ToWorld(geom.V(u, v, 0)) }
func (s *Plane) Normal(_, _ float64) geom.Vec { return s.Frame.Z }
func (s *Plane) Planar() bool                 { return true }
func (s *Plane) UPeriod() (float64, bool)     { return 0, false }
func (s *Plane) Kind() Kind                   { return KindPlane }

func (s *Plane) Project(p geom.Vec) (float64, float64, float64) {
	l := s.Frame.ToLocal(p)
	return l.X, l.Y, math.Abs(l.Z)
}

// Cylinder has its axis along the placement Z axis. u is the angle from
// the placement X axis, v the height along the axis.
type Cylinder struct {
	Frame  geom.Frame
	Radius float64
}

func NewCylinder(f geom.Frame, radius float64) (*Cylinder, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("cylinder: %w: radius %g", geom.ErrDegenerateGeometry, radius)
	}
	return &Cylinder{Frame: f, Radius: radius}, nil
}

func (s *Cylinder) Point(u, v float64) geom.Vec {
	return s.Frame.ToWorld(geom.V(s.Radius*math.Cos(u), s.Radius*math.Sin(u), v))
}

// Normal points away from the axis.
func (s *Cylinder) Normal(u, _ float64) geom.Vec {
	return s.Frame.DirToWorld(geom.V(math.Cos(u), math.Sin(u), 0))
}

func (s *Cylinder) Planar() bool             { return false }
func (s *Cylinder) UPeriod() (float64, bool) { return 2 * math.Pi, true }
func (s *Cylinder) Kind() Kind               { return KindCylinder }

func (s *Cylinder) Project(p geom.Vec) (float64, float64, float64) {
	l := s.Frame.ToLocal(p)
	u := math.Atan2(l.Y, l.X)
	if u < 0 {
		u += 2 * math.Pi
	}
	return u, l.Z, math.Abs(math.Hypot(l.X, l.Y) - s.Radius)
}

// LinearExtrusion sweeps a profile curve, given in the XY plane of its
// placement, along a direction. u follows the profile parametrisation, v
// the distance along the unit direction.
type LinearExtrusion struct {
	Profile curve.Curve
	Frame   geom.Frame
	Dir     geom.Vec // unit, world coordinates
	Depth   float64
}

// NewLinearExtrusion builds the surface. dir is read in the placement's
// coordinates unless worldDir is set, which is how some exporters write
// it. A direction parallel to the profile is degenerate.
func NewLinearExtrusion(profile curve.Curve, f geom.Frame, dir geom.Vec, depth float64, worldDir bool) (*LinearExtrusion, error) {
	if !worldDir {
		dir = f.DirToWorld(dir)
	}
	d, ok := geom.Unit(dir)
	if !ok {
		return nil, fmt.Errorf("linear extrusion: %w: zero direction", geom.ErrDegenerateGeometry)
	}
	s := &LinearExtrusion{Profile: profile, Frame: f, Dir: d, Depth: depth}
	t0, _ := profile.Domain()
	if math.IsInf(t0, 0) {
		t0 = 0
	}
	if tan, ok := geom.Unit(f.DirToWorld(profile.Tangent(t0))); !ok || tan.Cross(d).Length() < 1e-9 {
		return nil, fmt.Errorf("linear extrusion: %w: direction is parallel to the profile", geom.ErrDegenerateGeometry)
	}
	return s, nil
}

func (s *LinearExtrusion) base(u float64) geom.Vec {
	return s.Frame.ToWorld(s.Profile.Point(u))
}

func (s *LinearExtrusion) Point(u, v float64) geom.Vec {
	return s.base(u).Add(s.Dir.MulScalar(v))
}

func (s *LinearExtrusion) Normal(u, _ float64) geom.Vec {
	su := s.Frame.DirToWorld(s.Profile.Tangent(u))
	n, ok := geom.Unit(su.Cross(s.Dir))
	if !ok {
		return s.Frame.Z
	}
	return n
}

func (s *LinearExtrusion) Planar() bool {
	return s.Profile.Kind() == curve.KindLine
}

func (s *LinearExtrusion) UPeriod() (float64, bool) { return s.Profile.Period() }
func (s *LinearExtrusion) Kind() Kind               { return KindLinearExtrusion }

// flat removes the component along the extrusion direction.
func (s *LinearExtrusion) flat(p geom.Vec) geom.Vec {
	return p.Sub(s.Dir.MulScalar(p.Dot(s.Dir)))
}

// Project finds the profile parameter whose extrusion line passes nearest
// to p, looking along the extrusion direction.
func (s *LinearExtrusion) Project(p geom.Vec) (float64, float64, float64) {
	u := s.closestU(p)
	v := p.Sub(s.base(u)).Dot(s.Dir)
	return u, v, geom.Dist(p, s.Point(u, v))
}

func (s *LinearExtrusion) closestU(p geom.Vec) float64 {
	target := s.flat(p)
	gap := func(u float64) float64 { return geom.Dist(s.flat(s.base(u)), target) }

	if l, ok := s.Profile.(*curve.Line); ok {
		o := s.flat(s.Frame.ToWorld(l.Origin))
		e := s.flat(s.Frame.DirToWorld(l.Dir))
		return target.Sub(o).Dot(e) / e.Dot(e)
	}

	t0, t1 := s.Profile.Domain()
	if period, ok := s.Profile.Period(); ok {
		t0, t1 = 0, period
	}
	ts := s.Profile.Discretize(t0, t1, sampling)
	best := 0
	for i := range ts {
		if gap(ts[i]) < gap(ts[best]) {
			best = i
		}
	}
	lo, hi := ts[max(best-1, 0)], ts[min(best+1, len(ts)-1)]
	for i := 0; i < 60; i++ {
		m1, m2 := lo+(hi-lo)/3, hi-(hi-lo)/3
		if gap(m1) < gap(m2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return (lo + hi) / 2
}

// sampling seeds the closest-point search on curved profiles.
var sampling = geom.Tolerance{Precision: 1e-9, DeflectionTolerance: 1e-4, DeflectionAngle: 0.05}
