package surface

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
)

// SweptArea sweeps a profile curve along a directrix. u is the directrix
// parameter and v the profile parameter, so a closed directrix makes the
// surface periodic in u. The profile lies in the XY plane of a section
// frame that travels with the directrix: Z is the directrix tangent, Y
// the reference direction made orthogonal to it, X = Y x Z. Directrix and
// reference are given in the placement's coordinates.
type SweptArea struct {
	Profile   curve.Curve
	Directrix curve.Curve
	Frame     geom.Frame
	Ref       geom.Vec // unit, placement coordinates
}

// NewSweptArea builds the surface. The directrix must be bounded and the
// reference direction may never run along it.
func NewSweptArea(profile, directrix curve.Curve, f geom.Frame, ref geom.Vec) (*SweptArea, error) {
	if !curve.Bounded(directrix) {
		return nil, fmt.Errorf("swept surface: %w: unbounded %s directrix", geom.ErrDegenerateGeometry, directrix.Kind())
	}
	r, ok := geom.Unit(ref)
	if !ok {
		return nil, fmt.Errorf("swept surface: %w: zero reference direction", geom.ErrDegenerateGeometry)
	}
	s := &SweptArea{Profile: profile, Directrix: directrix, Frame: f, Ref: r}
	for _, u := range s.stations() {
		if _, _, _, ok := s.section(u); !ok {
			return nil, fmt.Errorf("swept surface: %w: reference runs along the directrix at %g", geom.ErrDegenerateGeometry, u)
		}
	}
	return s, nil
}

// section returns the section frame axes at directrix parameter u.
func (s *SweptArea) section(u float64) (x, y, z geom.Vec, ok bool) {
	z, ok = geom.Unit(s.Directrix.Tangent(u))
	if !ok {
		return x, y, z, false
	}
	y, ok = geom.Unit(s.Ref.Sub(z.MulScalar(s.Ref.Dot(z))))
	if !ok {
		return x, y, z, false
	}
	return y.Cross(z), y, z, true
}

func (s *SweptArea) local(u, v float64) geom.Vec {
	x, y, _, _ := s.section(u)
	p := s.Profile.Point(v)
	return s.Directrix.Point(u).Add(x.MulScalar(p.X)).Add(y.MulScalar(p.Y))
}

func (s *SweptArea) Point(u, v float64) geom.Vec { return s.Frame.ToWorld(s.local(u, v)) }

// normalStep is the parameter step of the numeric u derivative.
const normalStep = 1e-6

func (s *SweptArea) Normal(u, v float64) geom.Vec {
	x, y, _, _ := s.section(u)
	pt := s.Profile.Tangent(v)
	sv := x.MulScalar(pt.X).Add(y.MulScalar(pt.Y))
	su := s.local(u+normalStep, v).Sub(s.local(u-normalStep, v))
	n, ok := geom.Unit(su.Cross(sv))
	if !ok {
		return s.Frame.DirToWorld(s.Ref)
	}
	return s.Frame.DirToWorld(n)
}

func (s *SweptArea) Planar() bool             { return false }
func (s *SweptArea) UPeriod() (float64, bool) { return s.Directrix.Period() }
func (s *SweptArea) Kind() Kind               { return KindSweptArea }

func (s *SweptArea) stations() []float64 {
	t0, t1 := s.Directrix.Domain()
	return s.Directrix.Discretize(t0, t1, sampling)
}

// Project finds the sections whose plane contains p, then the nearest
// profile point within each, and keeps the closest.
func (s *SweptArea) Project(p geom.Vec) (float64, float64, float64) {
	l := s.Frame.ToLocal(p)
	along := func(u float64) float64 {
		_, _, z, _ := s.section(u)
		return l.Sub(s.Directrix.Point(u)).Dot(z)
	}

	ts := s.stations()
	cands := append([]float64(nil), ts...)
	for i := 1; i < len(ts); i++ {
		lo, hi := ts[i-1], ts[i]
		glo, ghi := along(lo), along(hi)
		if glo*ghi > 0 {
			continue
		}
		for k := 0; k < 60; k++ {
			mid := (lo + hi) / 2
			if gm := along(mid); (gm > 0) == (glo > 0) {
				lo, glo = mid, gm
			} else {
				hi = mid
			}
		}
		cands = append(cands, (lo+hi)/2)
	}

	bestU, bestV, best := 0.0, 0.0, math.Inf(1)
	for _, u := range cands {
		x, y, _, _ := s.section(u)
		d := l.Sub(s.Directrix.Point(u))
		v, _ := s.Profile.Closest(geom.V(d.Dot(x), d.Dot(y), 0))
		if dist := geom.Dist(s.local(u, v), l); dist < best {
			bestU, bestV, best = u, v, dist
		}
	}
	return bestU, bestV, best
}
