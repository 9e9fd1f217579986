// Package sew stitches faces into shells. Edges from different faces are
// identified when their end vertices weld together and their polylines
// agree; the first such edge becomes canonical and every later face refers
// to it, so shared edges have one discretisation. Faces sharing a
// canonical edge belong to the same shell.
package sew

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/topo"
	"github.com/samber/lo"
)

// Face is a built face whose loops refer to canonical edges.
type Face struct {
	Source *topo.Face
	Loops  [][]topo.EdgeUse // outer loop first
}

// Index returns the face's position in the input.
func (f *Face) Index() int { return f.Source.Index }

// Rings returns the loop point rings at the sewing tolerance.
func (f *Face) Rings() [][]geom.Vec {
	return lo.Map(f.Loops, func(l []topo.EdgeUse, _ int) []geom.Vec {
		return topo.Ring(l, topo.EdgeUse.Points)
	})
}

// RingsAt re-discretises the loops at tol. Shared edges are discretised
// identically for every face using them.
func (f *Face) RingsAt(tol geom.Tolerance) [][]geom.Vec {
	return lo.Map(f.Loops, func(l []topo.EdgeUse, _ int) []geom.Vec {
		return topo.Ring(l, func(u topo.EdgeUse) []geom.Vec { return u.PointsAt(tol) })
	})
}

// EdgeRef is one use of a canonical edge within a shell.
type EdgeRef struct {
	Face     int // index into Shell.Faces
	Reversed bool
}

// Shell is a connected group of faces.
type Shell struct {
	Faces []*Face
	// Edges lists canonical edges in order of first use.
	Edges []*topo.Edge
	Uses  map[*topo.Edge][]EdgeRef
	// Manifold is set when every edge is used by exactly two faces.
	Manifold bool
	// Closed is set when every edge is used by exactly two faces in
	// opposite directions.
	Closed bool
}

// First returns the input index of the shell's first face.
func (s *Shell) First() int { return s.Faces[0].Index() }

type canonical struct {
	edge       *topo.Edge
	start, end int
}

type sewer struct {
	tol   geom.Tolerance
	weld  *welder
	byKey map[[2]int][]*canonical
	steps *geom.Budget
}

// Sew groups faces into shells. Invalid faces are dropped with a
// diagnostic. Shells are ordered by their first face in input order.
func Sew(faces []*topo.Face, tol geom.Tolerance, budget *geom.Budget, log *diag.Log) ([]*Shell, error) {
	s := &sewer{
		tol:   tol,
		weld:  newWelder(tol.Precision),
		byKey: make(map[[2]int][]*canonical),
		steps: budget,
	}

	var sewn []*Face
	for _, f := range faces {
		if !f.Valid {
			log.Addf(diag.StageSew, diag.KindDropped, diag.SeverityError, f.Label(), "invalid face not sewn: %v", f.Err)
			continue
		}
		sf := &Face{Source: f}
		for _, w := range f.Wires() {
			loop := make([]topo.EdgeUse, 0, len(w.Uses))
			for _, u := range w.Uses {
				cu, err := s.canonicalUse(u)
				if err != nil {
					return nil, err
				}
				loop = append(loop, cu)
			}
			sf.Loops = append(sf.Loops, loop)
		}
		sewn = append(sewn, sf)
	}
	return group(sewn)
}

// canonicalUse maps a face's edge use onto the canonical edge it matches,
// registering the edge as canonical when nothing matches.
func (s *sewer) canonicalUse(u topo.EdgeUse) (topo.EdgeUse, error) {
	a, b := s.weld.weld(u.First()), s.weld.weld(u.Last())
	key := [2]int{min(a, b), max(a, b)}
	trav := u.Points()
	for _, c := range s.byKey[key] {
		if err := s.steps.Spend(1); err != nil {
			return topo.EdgeUse{}, err
		}
		rev, ok := s.match(c, a, b, trav)
		if ok {
			return topo.EdgeUse{Edge: c.edge, Reversed: rev}, nil
		}
	}
	// register in the direction of the underlying edge
	start, end := a, b
	if u.Reversed {
		start, end = b, a
	}
	s.byKey[key] = append(s.byKey[key], &canonical{edge: u.Edge, start: start, end: end})
	return u, nil
}

// match reports whether a traversal from vertex a to vertex b along trav
// follows canonical edge c, and in which direction.
func (s *sewer) match(c *canonical, a, b int, trav []geom.Vec) (reversed, ok bool) {
	canon := c.edge.Points()
	switch {
	case a != b && a == c.start && b == c.end:
		reversed = false
	case a != b && a == c.end && b == c.start:
		reversed = true
	case a == b:
		// closed edge: the second point tells the direction
		if len(trav) > 2 && len(canon) > 2 {
			reversed = geom.Dist(trav[1], canon[1]) > geom.Dist(trav[1], canon[len(canon)-2])
		}
	default:
		return false, false
	}
	return reversed, s.agree(trav, canon)
}

// agree reports whether two polylines follow the same geometry.
func (s *sewer) agree(p, q []geom.Vec) bool {
	lim := s.tol.Agreement()
	return within(p, q, lim) && within(q, p, lim)
}

// within reports whether every point and segment midpoint of p lies
// within lim of polyline q.
func within(p, q []geom.Vec, lim float64) bool {
	for i, pt := range p {
		if distToPolyline(pt, q) > lim {
			return false
		}
		if i > 0 && distToPolyline(geom.Lerp(p[i-1], pt, 0.5), q) > lim {
			return false
		}
	}
	return true
}

func distToPolyline(p geom.Vec, q []geom.Vec) float64 {
	best := math.Inf(1)
	for i := 1; i < len(q); i++ {
		a, b := q[i-1], q[i]
		ab := b.Sub(a)
		t := 0.0
		if l2 := ab.Dot(ab); l2 > 0 {
			t = math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
		}
		best = math.Min(best, geom.Dist(p, geom.Lerp(a, b, t)))
	}
	return best
}

// group partitions sewn faces into shells connected through canonical
// edges. A face touching several shells merges them.
func group(faces []*Face) ([]*Shell, error) {
	fg, err := NewFaceGraph(len(faces))
	if err != nil {
		return nil, err
	}
	firstUser := make(map[*topo.Edge]int)
	for i, f := range faces {
		for _, loop := range f.Loops {
			for _, u := range loop {
				j, ok := firstUser[u.Edge]
				if !ok {
					firstUser[u.Edge] = i
					continue
				}
				if err := fg.Link(i, j); err != nil {
					return nil, err
				}
			}
		}
	}
	comps, err := fg.Components()
	if err != nil {
		return nil, err
	}

	shells := make([]*Shell, 0, len(comps))
	for _, comp := range comps {
		sh := &Shell{Uses: make(map[*topo.Edge][]EdgeRef)}
		for _, fi := range comp {
			f := faces[fi]
			sh.Faces = append(sh.Faces, f)
			for _, loop := range f.Loops {
				for _, u := range loop {
					if _, seen := sh.Uses[u.Edge]; !seen {
						sh.Edges = append(sh.Edges, u.Edge)
					}
					sh.Uses[u.Edge] = append(sh.Uses[u.Edge], EdgeRef{Face: len(sh.Faces) - 1, Reversed: u.Reversed})
				}
			}
		}
		sh.Manifold = lo.EveryBy(sh.Edges, func(e *topo.Edge) bool { return len(sh.Uses[e]) == 2 })
		sh.Closed = sh.Manifold && lo.EveryBy(sh.Edges, func(e *topo.Edge) bool {
			refs := sh.Uses[e]
			return refs[0].Reversed != refs[1].Reversed
		})
		shells = append(shells, sh)
	}
	return shells, nil
}
