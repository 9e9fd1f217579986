package facet

import (
	"github.com/chazu/ifcsolid/pkg/geom"
)

type edgeKey struct{ a, b int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// refine splits interior edges, then triangle interiors, until the mesh
// stays within the deflection limits of the surface. Boundary edges are
// never split.
func (t *work) refine(tris [][3]int, tol geom.Tolerance, budget *geom.Budget) ([][3]int, error) {
	for {
		if err := budget.Spend(1); err != nil {
			return nil, err
		}
		if next, ok := t.splitEdge(tris, tol); ok {
			tris = next
			continue
		}
		if next, ok := t.splitCentroid(tris, tol); ok {
			tris = next
			continue
		}
		return tris, nil
	}
}

// deviates reports whether the straight chord between two parameter
// points strays from the surface beyond the tolerance.
func (t *work) deviates(chordMid geom.Vec, mid UV, na, nb geom.Vec, length float64, tol geom.Tolerance) bool {
	if length <= 2*tol.Precision {
		return false
	}
	if geom.Dist(chordMid, t.surf.Point(mid.U, mid.V)) > tol.DeflectionTolerance {
		return true
	}
	return geom.Angle(na, nb) > tol.DeflectionAngle
}

func (t *work) normal(i int) geom.Vec {
	return t.surf.Normal(t.uv[i].U, t.uv[i].V)
}

func (t *work) insert(p UV) int {
	t.uv = append(t.uv, p)
	t.pos = append(t.pos, t.surf.Point(p.U, p.V))
	return len(t.pos) - 1
}

func (t *work) splitEdge(tris [][3]int, tol geom.Tolerance) ([][3]int, bool) {
	uses := make(map[edgeKey][]int, len(tris)*3/2)
	for ti, tr := range tris {
		for k := 0; k < 3; k++ {
			key := keyOf(tr[k], tr[(k+1)%3])
			uses[key] = append(uses[key], ti)
		}
	}
	for _, tr := range tris {
		for k := 0; k < 3; k++ {
			a, b := tr[k], tr[(k+1)%3]
			owners := uses[keyOf(a, b)]
			if len(owners) != 2 {
				continue
			}
			pa, pb := t.pos[a], t.pos[b]
			mid := UV{(t.uv[a].U + t.uv[b].U) / 2, (t.uv[a].V + t.uv[b].V) / 2}
			if !t.deviates(geom.Lerp(pa, pb, 0.5), mid, t.normal(a), t.normal(b), geom.Dist(pa, pb), tol) {
				continue
			}
			m := t.insert(mid)
			out := make([][3]int, 0, len(tris)+2)
			for ti, o := range tris {
				if ti != owners[0] && ti != owners[1] {
					out = append(out, o)
					continue
				}
				out = append(out, splitTriangle(o, a, b, m)...)
			}
			return out, true
		}
	}
	return tris, false
}

// splitTriangle divides tr across its edge {a, b} at vertex m, keeping the
// winding.
func splitTriangle(tr [3]int, a, b, m int) [][3]int {
	for k := 0; k < 3; k++ {
		p, q, r := tr[k], tr[(k+1)%3], tr[(k+2)%3]
		if (p == a && q == b) || (p == b && q == a) {
			return [][3]int{{p, m, r}, {m, q, r}}
		}
	}
	return [][3]int{tr}
}

func (t *work) splitCentroid(tris [][3]int, tol geom.Tolerance) ([][3]int, bool) {
	for ti, tr := range tris {
		a, b, c := tr[0], tr[1], tr[2]
		flat := geom.Centroid([]geom.Vec{t.pos[a], t.pos[b], t.pos[c]})
		mid := UV{
			(t.uv[a].U + t.uv[b].U + t.uv[c].U) / 3,
			(t.uv[a].V + t.uv[b].V + t.uv[c].V) / 3,
		}
		size := geom.TriangleNormal(t.pos[a], t.pos[b], t.pos[c]).Length()
		if size <= tol.Precision*tol.Precision {
			continue
		}
		if geom.Dist(flat, t.surf.Point(mid.U, mid.V)) <= tol.DeflectionTolerance {
			continue
		}
		m := t.insert(mid)
		out := make([][3]int, 0, len(tris)+2)
		out = append(out, tris[:ti]...)
		out = append(out, [3]int{a, b, m}, [3]int{b, c, m}, [3]int{c, a, m})
		out = append(out, tris[ti+1:]...)
		return out, true
	}
	return tris, false
}
