package sweep

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
)

// outline returns the profile as a counter-clockwise ring in its XY plane,
// without a repeated closing point.
func outline(p *model.ProfileDef, tol geom.Tolerance) ([]geom.Vec, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no profile", geom.ErrDegenerateGeometry)
	}
	var ring []geom.Vec
	switch p.Kind {
	case model.ProfileRectangle:
		if p.XDim <= tol.Precision || p.YDim <= tol.Precision {
			return nil, fmt.Errorf("%w: rectangle profile %s is %gx%g", geom.ErrDegenerateGeometry, p.ID.Label(), p.XDim, p.YDim)
		}
		x, y := p.XDim/2, p.YDim/2
		ring = []geom.Vec{geom.V(-x, -y, 0), geom.V(x, -y, 0), geom.V(x, y, 0), geom.V(-x, y, 0)}
	case model.ProfileCircle:
		c, err := curve.NewCircle(geom.WorldFrame, p.Radius)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID.Label(), err)
		}
		ts := c.Discretize(0, 2*math.Pi, tol)
		for _, t := range ts[:len(ts)-1] {
			ring = append(ring, c.Point(t))
		}
	case model.ProfilePolygon:
		for _, q := range p.Points {
			q = geom.V(q.X, q.Y, 0)
			if len(ring) > 0 && geom.Near(ring[len(ring)-1], q, tol.Precision) {
				continue
			}
			ring = append(ring, q)
		}
		if len(ring) > 1 && geom.Near(ring[0], ring[len(ring)-1], tol.Precision) {
			ring = ring[:len(ring)-1]
		}
	default:
		return nil, fmt.Errorf("%w: unsupported profile kind %s", geom.ErrDegenerateGeometry, p.Kind)
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: profile %s has %d distinct points", geom.ErrDegenerateGeometry, p.ID.Label(), len(ring))
	}
	n := geom.PolygonNormal(ring)
	if math.Abs(n.Z) <= tol.Precision*tol.Precision {
		return nil, fmt.Errorf("%w: profile %s encloses no area", geom.ErrDegenerateGeometry, p.ID.Label())
	}
	if n.Z < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	return ring, nil
}
