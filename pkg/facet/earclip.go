package facet

import (
	"math"
	"sort"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// polygon is a ring of vertex indices into a shared uv table.
type polygon []int

// earClip triangulates a simple counter-clockwise polygon (holes already
// bridged in). Zero-area ears are never clipped, so vertices lying on a
// straight run of the boundary stay in the mesh.
func earClip(poly polygon, uv []UV, eps float64, budget *geom.Budget) ([][3]int, error) {
	ring := append(polygon(nil), poly...)
	var tris [][3]int
	for len(ring) > 3 {
		if err := budget.Spend(1); err != nil {
			return nil, err
		}
		n := len(ring)
		clipped := false
		best, bestCross := -1, 0.0
		for i := 0; i < n; i++ {
			a, b, c := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
			cr := cross2(uv[b].sub(uv[a]), uv[c].sub(uv[b]))
			if cr <= eps {
				continue
			}
			if cr > bestCross {
				best, bestCross = i, cr
			}
			if containsAny(ring, a, b, c, uv) {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if clipped {
			continue
		}
		if best < 0 {
			// nothing convex left: the rest is degenerate
			return tris, nil
		}
		// no clean ear; clip the most convex vertex so the loop terminates
		a, b, c := ring[(best+n-1)%n], ring[best], ring[(best+1)%n]
		tris = append(tris, [3]int{a, b, c})
		ring = append(ring[:best], ring[best+1:]...)
	}
	if len(ring) == 3 {
		a, b, c := ring[0], ring[1], ring[2]
		if cross2(uv[b].sub(uv[a]), uv[c].sub(uv[b])) > eps {
			tris = append(tris, [3]int{a, b, c})
		}
	}
	return tris, nil
}

// containsAny reports whether a vertex of ring other than the triangle's
// own corners lies inside or on triangle abc.
func containsAny(ring polygon, a, b, c int, uv []UV) bool {
	pa, pb, pc := uv[a], uv[b], uv[c]
	for _, k := range ring {
		if k == a || k == b || k == c {
			continue
		}
		p := uv[k]
		if p == pa || p == pb || p == pc {
			continue
		}
		if cross2(pb.sub(pa), p.sub(pa)) >= 0 &&
			cross2(pc.sub(pb), p.sub(pb)) >= 0 &&
			cross2(pa.sub(pc), p.sub(pc)) >= 0 {
			return true
		}
	}
	return false
}

// bridgeHoles splices every hole into the outer polygon through a
// visible connecting segment, producing one weakly simple polygon.
// Holes are clockwise, the outer polygon counter-clockwise.
func bridgeHoles(outer polygon, holes []polygon, uv []UV) polygon {
	rightmost := func(h polygon) int {
		best := 0
		for i, k := range h {
			if uv[k].U > uv[h[best]].U {
				best = i
			}
		}
		return best
	}
	sort.SliceStable(holes, func(i, j int) bool {
		return uv[holes[i][rightmost(holes[i])]].U > uv[holes[j][rightmost(holes[j])]].U
	})

	poly := append(polygon(nil), outer...)
	for hi, h := range holes {
		m := rightmost(h)
		mp := uv[h[m]]
		blockers := append([]polygon{poly, h}, holes[hi+1:]...)
		best, bestD := -1, math.Inf(1)
		for i, k := range poly {
			d := math.Hypot(uv[k].U-mp.U, uv[k].V-mp.V)
			if d >= bestD || !visible(mp, uv[k], uv, blockers) {
				continue
			}
			best, bestD = i, d
		}
		if best < 0 {
			best = 0
		}
		merged := make(polygon, 0, len(poly)+len(h)+2)
		merged = append(merged, poly[:best+1]...)
		for j := 0; j <= len(h); j++ {
			merged = append(merged, h[(m+j)%len(h)])
		}
		merged = append(merged, poly[best:]...)
		poly = merged
	}
	return poly
}

// visible reports whether segment pq crosses no edge of the given rings.
func visible(p, q UV, uv []UV, rings []polygon) bool {
	for _, ring := range rings {
		for i := range ring {
			a, b := uv[ring[i]], uv[ring[(i+1)%len(ring)]]
			if properCross(p, q, a, b) {
				return false
			}
		}
	}
	return true
}

// properCross reports whether segments pq and ab cross at a point interior
// to both.
func properCross(p, q, a, b UV) bool {
	if p == a || p == b || q == a || q == b {
		return false
	}
	d1 := cross2(q.sub(p), a.sub(p))
	d2 := cross2(q.sub(p), b.sub(p))
	d3 := cross2(b.sub(a), p.sub(a))
	d4 := cross2(b.sub(a), q.sub(a))
	return d1*d2 < 0 && d3*d4 < 0
}
