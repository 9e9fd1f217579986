package curve

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Circle lies in the XY plane of its placement; the parameter is the angle
// in radians measured from the placement X axis.
type Circle struct {
	Frame  geom.Frame
	Radius float64
}

// NewCircle validates the radius.
func NewCircle(frame geom.Frame, radius float64) (*Circle, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("circle: %w: radius %g", geom.ErrDegenerateGeometry, radius)
	}
	return &Circle{Frame: frame, Radius: radius}, nil
}

func (c *Circle) Point(t float64) geom.Vec {
	return c.Frame.ToWorld(geom.V(c.Radius*math.Cos(t), c.Radius*math.Sin(t), 0))
}

func (c *Circle) Tangent(t float64) geom.Vec {
	return c.Frame.DirToWorld(geom.V(-c.Radius*math.Sin(t), c.Radius*math.Cos(t), 0))
}

func (c *Circle) Domain() (float64, float64) { return 0, 2 * math.Pi }
func (c *Circle) Period() (float64, bool)    { return 2 * math.Pi, true }
func (c *Circle) Kind() Kind                 { return KindCircle }

func (c *Circle) Closest(p geom.Vec) (float64, float64) {
	l := c.Frame.ToLocal(p)
	t := 0.0
	if l.X != 0 || l.Y != 0 {
		t = wrap(math.Atan2(l.Y, l.X), 2*math.Pi)
	}
	return t, geom.Dist(p, c.Point(t))
}

func (c *Circle) Discretize(t0, t1 float64, tol geom.Tolerance) []float64 {
	return uniform(t0, t1, arcSegments(c.Radius, t1-t0, tol))
}
