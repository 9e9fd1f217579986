package topo

import (
	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
)

// Edge is a resolved edge: a curve span between two vertices. The span's
// end points are snapped onto the vertices, so adjacent edges meet exactly.
type Edge struct {
	ID        model.EntityID
	Start     geom.Vec
	End       geom.Vec
	Span      curve.Span
	Synthetic bool // inserted to bridge a wire gap

	points []geom.Vec
}

func newEdge(id model.EntityID, start, end geom.Vec, span curve.Span, tol geom.Tolerance) *Edge {
	e := &Edge{ID: id, Start: start, End: end, Span: span}
	e.points = e.Discretize(tol)
	return e
}

// Points returns the edge polyline at the tolerance it was built with.
// The slice is shared; callers must not modify it.
func (e *Edge) Points() []geom.Vec { return e.points }

// Discretize returns a fresh polyline from Start to End honouring tol.
func (e *Edge) Discretize(tol geom.Tolerance) []geom.Vec {
	pts := e.Span.Points(tol)
	pts[0] = e.Start
	pts[len(pts)-1] = e.End
	return pts
}

// Closed reports whether the edge starts and ends on the same vertex.
func (e *Edge) Closed() bool { return e.Start == e.End }

// Label identifies the edge in diagnostics.
func (e *Edge) Label() string { return e.ID.Label() }

// EdgeUse is an edge traversed forwards or backwards within a wire.
type EdgeUse struct {
	Edge     *Edge
	Reversed bool
}

// First returns the vertex the use starts from.
func (u EdgeUse) First() geom.Vec {
	if u.Reversed {
		return u.Edge.End
	}
	return u.Edge.Start
}

// Last returns the vertex the use ends on.
func (u EdgeUse) Last() geom.Vec {
	if u.Reversed {
		return u.Edge.Start
	}
	return u.Edge.End
}

// Flip returns the use traversed the other way.
func (u EdgeUse) Flip() EdgeUse { return EdgeUse{Edge: u.Edge, Reversed: !u.Reversed} }

// Points returns the use's polyline in traversal order.
func (u EdgeUse) Points() []geom.Vec {
	return orient(u.Edge.Points(), u.Reversed)
}

// PointsAt returns the use's polyline in traversal order at tolerance tol.
func (u EdgeUse) PointsAt(tol geom.Tolerance) []geom.Vec {
	return orient(u.Edge.Discretize(tol), u.Reversed)
}

func orient(pts []geom.Vec, reversed bool) []geom.Vec {
	out := make([]geom.Vec, len(pts))
	if !reversed {
		copy(out, pts)
		return out
	}
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
