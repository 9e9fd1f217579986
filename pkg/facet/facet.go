// Package facet triangulates a single face. Loops are projected into the
// surface's parameter space, holes are bridged into the outer loop, and the
// polygon is ear-clipped. Curved faces are then refined by splitting
// interior edges until the mesh follows the surface within the deflection
// limits. Boundary vertices keep the exact loop points, so neighbouring
// faces that share an edge discretisation meet without cracks.
package facet

import (
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/surface"
)

// Mesh is an indexed triangle mesh. Triangles wind counter-clockwise
// around their outward side.
type Mesh struct {
	Positions []geom.Vec
	Triangles [][3]int
}

// IsEmpty reports whether the mesh has no triangles.
func (m Mesh) IsEmpty() bool { return len(m.Triangles) == 0 }

// Flipped returns the mesh with every triangle reversed.
func (m Mesh) Flipped() Mesh {
	out := Mesh{Positions: m.Positions, Triangles: make([][3]int, len(m.Triangles))}
	for i, t := range m.Triangles {
		out.Triangles[i] = [3]int{t[0], t[2], t[1]}
	}
	return out
}

// Area returns the total triangle area.
func (m Mesh) Area() float64 {
	a := 0.0
	for _, t := range m.Triangles {
		a += geom.TriangleNormal(m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]).Length() / 2
	}
	return a
}

// Volume returns the signed volume of the cones from ref to every
// triangle. Summed over a closed outward-oriented mesh it is the enclosed
// volume.
func (m Mesh) Volume(ref geom.Vec) float64 {
	v := 0.0
	for _, t := range m.Triangles {
		a := m.Positions[t[0]].Sub(ref)
		b := m.Positions[t[1]].Sub(ref)
		c := m.Positions[t[2]].Sub(ref)
		v += a.Dot(b.Cross(c))
	}
	return v / 6
}

// Options controls one triangulation.
type Options struct {
	Tolerance geom.Tolerance
	Budget    *geom.Budget // nil is unlimited
	Log       *diag.Log    // nil discards
	Entity    string       // face label for diagnostics
}

// Triangulate meshes a face given its outer ring and inner rings (holes),
// each a closed ring of points without a repeated closing point. The
// triangles follow the winding of the outer ring. On a periodic surface
// two rings that go around the period in opposite directions bound a band;
// the band is cut open along a seam through the start of the first of
// them. A face with no area yields an empty mesh.
func Triangulate(s surface.Surface, outer []geom.Vec, inners [][]geom.Vec, opt Options) (Mesh, error) {
	tol := opt.Tolerance
	outer = clean(outer, tol.Precision)
	if len(outer) < 3 {
		return Mesh{}, nil
	}
	period, periodic := s.UPeriod()

	loops := []loop{newLoop(s, outer)}
	for _, ring := range inners {
		ring = clean(ring, tol.Precision)
		if len(ring) < 3 {
			continue
		}
		loops = append(loops, newLoop(s, ring))
	}
	var wrapping, rest []loop
	for _, l := range loops {
		if periodic && Wraps(l.turn, period) {
			wrapping = append(wrapping, l)
		} else {
			rest = append(rest, l)
		}
	}

	t := &work{surf: s}
	var (
		outerIdx polygon
		ref      float64
	)
	switch {
	case len(wrapping) == 0:
		outerIdx = t.add(outer, loops[0].uv)
		ref, rest = loops[0].uv[0].U, rest[1:]
	case len(wrapping) == 2 && wrapping[0].turn*wrapping[1].turn < 0:
		outerIdx, ref = t.band(wrapping[0], wrapping[1], period)
	default:
		return Mesh{}, fmt.Errorf("face %s: %w: %d loops wrap around the periodic %s surface",
			opt.Entity, geom.ErrInvalidWire, len(wrapping), s.Kind())
	}

	var holes []polygon
	for _, l := range rest {
		if periodic {
			align(l.uv, ref, period)
		}
		holes = append(holes, t.add(l.ring, l.uv))
	}

	// a face narrower than precision has no area
	area := signedArea(t.polyUV(outerIdx))
	scale := t.extent()
	if math.Abs(area) <= tol.Precision*scale {
		return Mesh{}, nil
	}
	eps := 1e-12 * scale * scale
	// work counter-clockwise: mirror u when the outer ring runs clockwise
	mirrored := area < 0
	if mirrored {
		for i := range t.uv {
			t.uv[i].U = -t.uv[i].U
		}
	}

	outerPoly := t.polyUV(outerIdx)
	kept := holes[:0]
	for _, h := range holes {
		if !pointInPolygon(t.uv[h[0]], outerPoly) {
			opt.Log.Addf(diag.StageFace, diag.KindDropped, diag.SeverityWarning, opt.Entity, "inner loop lies outside the outer loop")
			continue
		}
		if signedArea(t.polyUV(h)) > 0 {
			h = reversed(h)
		}
		kept = append(kept, h)
	}

	tris, err := earClip(bridgeHoles(outerIdx, kept, t.uv), t.uv, eps, opt.Budget)
	if err != nil {
		return Mesh{}, fmt.Errorf("face %s: %w", opt.Entity, err)
	}

	if mirrored {
		for i := range t.uv {
			t.uv[i].U = -t.uv[i].U
		}
	}
	if !s.Planar() {
		if tris, err = t.refine(tris, tol, opt.Budget); err != nil {
			return Mesh{}, fmt.Errorf("face %s: %w", opt.Entity, err)
		}
	}
	return Mesh{Positions: t.pos, Triangles: tris}, nil
}

// work holds the shared vertex tables of one triangulation.
type work struct {
	surf surface.Surface
	pos  []geom.Vec
	uv   []UV
}

func (t *work) add(ring []geom.Vec, uvs []UV) polygon {
	idx := make(polygon, len(ring))
	for i := range ring {
		idx[i] = len(t.pos)
		t.pos = append(t.pos, ring[i])
		t.uv = append(t.uv, uvs[i])
	}
	return idx
}

// loop is a ring with its parameter-space image.
type loop struct {
	ring []geom.Vec
	uv   []UV
	turn float64
}

func newLoop(s surface.Surface, ring []geom.Vec) loop {
	uvs, turn := parametrize(s, ring)
	return loop{ring: ring, uv: uvs, turn: turn}
}

// band joins two loops wrapping around the period into one strip polygon.
// The strip runs along a, crosses the seam to the point of b nearest the
// end of a, runs along b and crosses back. The seam points are repeated
// one period apart. It also returns the u at the middle of the strip.
func (t *work) band(a, b loop, period float64) (polygon, float64) {
	end := a.uv[0].U + a.turn
	k, shift, best := 0, 0.0, math.Inf(1)
	for j, p := range b.uv {
		sh := math.Round((end-p.U)/period) * period
		if d := math.Abs(p.U + sh - end); d < best {
			k, shift, best = j, sh, d
		}
	}

	n, m := len(a.ring), len(b.ring)
	pts := make([]geom.Vec, 0, n+m+2)
	uvs := make([]UV, 0, n+m+2)
	pts = append(pts, a.ring...)
	uvs = append(uvs, a.uv...)
	pts = append(pts, a.ring[0])
	uvs = append(uvs, UV{end, a.uv[0].V})
	for j := 0; j <= m; j++ {
		i := (k + j) % m
		p := b.uv[i]
		p.U += shift
		if k+j >= m {
			p.U += b.turn
		}
		pts = append(pts, b.ring[i])
		uvs = append(uvs, p)
	}
	return t.add(pts, uvs), a.uv[0].U + a.turn/2
}

func (t *work) polyUV(p polygon) []UV {
	out := make([]UV, len(p))
	for i, k := range p {
		out[i] = t.uv[k]
	}
	return out
}

func (t *work) extent() float64 {
	if len(t.uv) == 0 {
		return 0
	}
	lo, hi := t.uv[0], t.uv[0]
	for _, p := range t.uv {
		lo.U, lo.V = math.Min(lo.U, p.U), math.Min(lo.V, p.V)
		hi.U, hi.V = math.Max(hi.U, p.U), math.Max(hi.V, p.V)
	}
	return math.Hypot(hi.U-lo.U, hi.V-lo.V)
}

// clean drops consecutive repeated points and a repeated closing point.
func clean(ring []geom.Vec, precision float64) []geom.Vec {
	out := make([]geom.Vec, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && geom.Near(out[len(out)-1], p, precision) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && geom.Near(out[0], out[len(out)-1], precision) {
		out = out[:len(out)-1]
	}
	return out
}

func reversed(p polygon) polygon {
	out := make(polygon, len(p))
	for i, k := range p {
		out[len(p)-1-i] = k
	}
	return out
}
