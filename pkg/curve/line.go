package curve

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Line is an unbounded straight line: Point(t) = Origin + t*Dir. The
// parameter is measured in multiples of Dir, as IfcLine does with its
// vector magnitude.
type Line struct {
	Origin geom.Vec
	Dir    geom.Vec
}

// NewLine validates that dir is non-zero.
func NewLine(origin, dir geom.Vec) (*Line, error) {
	if dir.Length() == 0 {
		return nil, fmt.Errorf("line: %w: zero direction", geom.ErrDegenerateGeometry)
	}
	return &Line{Origin: origin, Dir: dir}, nil
}

// LineThrough returns the line from a (t=0) to b (t=1).
func LineThrough(a, b geom.Vec) (*Line, error) {
	return NewLine(a, b.Sub(a))
}

func (l *Line) Point(t float64) geom.Vec   { return l.Origin.Add(l.Dir.MulScalar(t)) }
func (l *Line) Tangent(float64) geom.Vec   { return l.Dir }
func (l *Line) Period() (float64, bool)    { return 0, false }
func (l *Line) Kind() Kind                 { return KindLine }
func (l *Line) Domain() (float64, float64) { return math.Inf(-1), math.Inf(1) }

func (l *Line) Closest(p geom.Vec) (float64, float64) {
	t := p.Sub(l.Origin).Dot(l.Dir) / l.Dir.Dot(l.Dir)
	return t, geom.Dist(p, l.Point(t))
}

func (l *Line) Discretize(t0, t1 float64, _ geom.Tolerance) []float64 {
	return []float64{t0, t1}
}
