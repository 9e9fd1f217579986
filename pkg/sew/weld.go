package sew

import (
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// vertex is a welded vertex stored in the R-tree.
type vertex struct {
	id   int
	p    geom.Vec
	rect rtreego.Rect
}

func (v *vertex) Bounds() rtreego.Rect { return v.rect }

func point(p geom.Vec) rtreego.Point { return rtreego.Point{p.X, p.Y, p.Z} }

// welder merges points that coincide within precision into one vertex id.
// When several existing vertices are in reach, the oldest wins, which keeps
// the result independent of R-tree search order.
type welder struct {
	tree  *rtreego.Rtree
	verts []geom.Vec
	tol   float64
}

func newWelder(precision float64) *welder {
	return &welder{tree: rtreego.NewTree(3, 25, 50), tol: precision}
}

func (w *welder) weld(p geom.Vec) int {
	best := -1
	for _, hit := range w.tree.SearchIntersect(point(p).ToRect(w.tol)) {
		v := hit.(*vertex)
		if geom.Dist(v.p, p) <= w.tol && (best < 0 || v.id < best) {
			best = v.id
		}
	}
	if best >= 0 {
		return best
	}
	id := len(w.verts)
	w.verts = append(w.verts, p)
	w.tree.Insert(&vertex{id: id, p: p, rect: point(p).ToRect(w.tol / 2)})
	return id
}
