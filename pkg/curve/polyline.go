package curve

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Polyline is a chain of straight segments. Segment i spans parameters
// i..i+1, so the domain is [0, n-1]. A polyline whose last point repeats
// its first is periodic with period n-1.
type Polyline struct {
	Points []geom.Vec
}

// NewPolyline needs at least two points.
func NewPolyline(pts []geom.Vec) (*Polyline, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("polyline: %w: %d points", geom.ErrDegenerateGeometry, len(pts))
	}
	return &Polyline{Points: append([]geom.Vec(nil), pts...)}, nil
}

// Closed reports whether the last point repeats the first.
func (p *Polyline) Closed() bool {
	n := len(p.Points)
	return n > 2 && p.Points[0] == p.Points[n-1]
}

func (p *Polyline) segments() int { return len(p.Points) - 1 }

// locate returns the segment index and local parameter for t.
func (p *Polyline) locate(t float64) (int, float64) {
	n := p.segments()
	if p.Closed() {
		t = wrap(t, float64(n))
	}
	i := int(math.Floor(t))
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i, t - float64(i)
}

func (p *Polyline) Point(t float64) geom.Vec {
	i, s := p.locate(t)
	return geom.Lerp(p.Points[i], p.Points[i+1], s)
}

func (p *Polyline) Tangent(t float64) geom.Vec {
	i, _ := p.locate(t)
	return p.Points[i+1].Sub(p.Points[i])
}

func (p *Polyline) Domain() (float64, float64) { return 0, float64(p.segments()) }

func (p *Polyline) Period() (float64, bool) {
	if p.Closed() {
		return float64(p.segments()), true
	}
	return 0, false
}

func (p *Polyline) Kind() Kind { return KindPolyline }

func (p *Polyline) Closest(q geom.Vec) (float64, float64) {
	best, bestD := 0.0, math.Inf(1)
	for i := 0; i < p.segments(); i++ {
		a, b := p.Points[i], p.Points[i+1]
		ab := b.Sub(a)
		s := 0.0
		if l2 := ab.Dot(ab); l2 > 0 {
			s = math.Max(0, math.Min(1, q.Sub(a).Dot(ab)/l2))
		}
		if d := geom.Dist(q, geom.Lerp(a, b, s)); d < bestD {
			best, bestD = float64(i)+s, d
		}
	}
	return best, bestD
}

// Discretize breaks at every vertex between t0 and t1.
func (p *Polyline) Discretize(t0, t1 float64, _ geom.Tolerance) []float64 {
	ts := []float64{t0}
	for k := math.Floor(t0) + 1; k < t1; k++ {
		if k-t0 > 1e-12 && t1-k > 1e-12 {
			ts = append(ts, k)
		}
	}
	return append(ts, t1)
}
