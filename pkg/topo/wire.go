package topo

import "github.com/chazu/ifcsolid/pkg/geom"

// Wire is a closed ordered sequence of edge uses. Each use ends where the
// next begins and the last ends where the first begins.
type Wire struct {
	Uses   []EdgeUse
	Healed bool
}

// Reverse returns the wire traversed the other way.
func (w *Wire) Reverse() *Wire {
	out := &Wire{Uses: make([]EdgeUse, len(w.Uses)), Healed: w.Healed}
	for i, u := range w.Uses {
		out.Uses[len(w.Uses)-1-i] = u.Flip()
	}
	return out
}

// Ring returns the wire as a closed ring of points without repeating the
// first point.
func (w *Wire) Ring() []geom.Vec {
	return Ring(w.Uses, func(u EdgeUse) []geom.Vec { return u.Points() })
}

// RingAt is Ring re-discretised at tol.
func (w *Wire) RingAt(tol geom.Tolerance) []geom.Vec {
	return Ring(w.Uses, func(u EdgeUse) []geom.Vec { return u.PointsAt(tol) })
}

// Ring joins the polylines of consecutive uses, dropping each use's last
// point since the next use starts there.
func Ring(uses []EdgeUse, points func(EdgeUse) []geom.Vec) []geom.Vec {
	var ring []geom.Vec
	for _, u := range uses {
		pts := points(u)
		ring = append(ring, pts[:len(pts)-1]...)
	}
	return ring
}
