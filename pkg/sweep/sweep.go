// Package sweep turns a surface-curve swept area solid into a faceted
// B-rep. The profile is carried along the directrix with mitred sections
// at every directrix vertex; consecutive sections are joined by planar
// side faces, and open sweeps are closed by two caps.
package sweep

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/surface"
	"github.com/chazu/ifcsolid/pkg/workaround"
)

// Options controls one sweep.
type Options struct {
	Tolerance   geom.Tolerance
	Workarounds *workaround.Registry
	Log         *diag.Log
	// Surface is the built reference surface, in the solid's local
	// coordinates. Nil means the local XY plane.
	Surface surface.Surface
}

// Build returns the faceted boundary of a swept solid in world
// coordinates. Face normals point out of the solid.
func Build(def *model.SweptSolid, opt Options) (*model.Brep, error) {
	tol := opt.Tolerance
	ring, err := outline(def.Profile, tol)
	if err != nil {
		return nil, fmt.Errorf("swept solid %s: %w", def.ID.Label(), err)
	}
	span, healed, err := directrix(def, opt.Workarounds, tol)
	if err != nil {
		return nil, fmt.Errorf("swept solid %s: %w", def.ID.Label(), err)
	}
	for _, name := range healed {
		opt.Log.Addf(diag.StageSweep, diag.KindHealed, diag.SeverityWarning, def.ID.Label(), "directrix trim healed by %s", name)
	}

	path, closed := stations(span, tol)
	if len(path) < 2 || (closed && len(path) < 3) {
		return nil, fmt.Errorf("swept solid %s: %w: directrix has no length", def.ID.Label(), geom.ErrDegenerateGeometry)
	}
	sections, err := mitre(path, closed, ring, opt.Surface)
	if err != nil {
		return nil, fmt.Errorf("swept solid %s: %w", def.ID.Label(), err)
	}

	pos := def.Position
	if pos.Z == (geom.Vec{}) {
		pos = geom.WorldFrame
	}
	for _, s := range sections {
		for k := range s {
			s[k] = pos.ToWorld(s[k])
		}
	}
	return assemble(def, sections, closed)
}

// directrix resolves the part of the directrix to sweep along.
func directrix(def *model.SweptSolid, reg *workaround.Registry, tol geom.Tolerance) (curve.Span, []string, error) {
	c := def.Directrix
	if c == nil {
		return curve.Span{}, nil, fmt.Errorf("%w: no directrix", geom.ErrDegenerateGeometry)
	}
	lo, hi := c.Domain()
	if !def.HasStart && !def.HasEnd {
		if t, ok := c.(*curve.Trimmed); ok {
			return t.Resolve(reg, tol)
		}
		if period, ok := c.Period(); ok {
			return curve.Span{Curve: c, T0: lo, T1: lo + period}, nil, nil
		}
		if !curve.Bounded(c) {
			return curve.Span{}, nil, fmt.Errorf("%w: unbounded %s directrix without trims", geom.ErrTrimResolution, c.Kind())
		}
		return curve.Span{Curve: c, T0: lo, T1: hi}, nil, nil
	}
	start, end := lo, hi
	if def.HasStart {
		start = def.StartParam
	}
	if def.HasEnd {
		end = def.EndParam
	}
	t := &curve.Trimmed{Basis: c, Trim1: curve.AtParam(start), Trim2: curve.AtParam(end), Sense: true}
	return t.Resolve(reg, tol)
}

// stations discretises the span. A span that returns to its start is
// closed and its repeated end point is dropped.
func stations(span curve.Span, tol geom.Tolerance) ([]geom.Vec, bool) {
	var path []geom.Vec
	for _, p := range span.Points(tol) {
		if len(path) > 0 && geom.Near(path[len(path)-1], p, tol.Precision) {
			continue
		}
		path = append(path, p)
	}
	closed := len(path) > 2 && geom.Near(path[0], path[len(path)-1], tol.Precision)
	if closed {
		path = path[:len(path)-1]
	}
	return path, closed
}

// mitre places the profile at every station. The profile frame has Z
// along the directrix, Y along the reference surface normal and X = Y×Z.
// At interior stations the section lies in the plane bisecting the
// incoming and outgoing directions.
func mitre(path []geom.Vec, closed bool, ring []geom.Vec, ref surface.Surface) ([][]geom.Vec, error) {
	n := len(path)
	nseg := n - 1
	if closed {
		nseg = n
	}
	seg := make([]geom.Vec, nseg)
	for i := range seg {
		d, ok := geom.Unit(path[(i+1)%n].Sub(path[i]))
		if !ok {
			return nil, fmt.Errorf("%w: zero-length directrix segment %d", geom.ErrDegenerateGeometry, i)
		}
		seg[i] = d
	}

	sections := make([][]geom.Vec, n)
	for i, p := range path {
		var in, out geom.Vec
		switch {
		case closed:
			in, out = seg[(i+nseg-1)%nseg], seg[i]
		case i == 0:
			in, out = seg[0], seg[0]
		case i == n-1:
			in, out = seg[nseg-1], seg[nseg-1]
		default:
			in, out = seg[i-1], seg[i]
		}
		m, ok := geom.Unit(in.Add(out))
		if !ok {
			return nil, fmt.Errorf("%w: directrix folds back at station %d", geom.ErrDegenerateGeometry, i)
		}

		up := geom.V(0, 0, 1)
		if ref != nil {
			u, v, _ := ref.Project(p)
			up = ref.Normal(u, v)
		}
		y, ok := geom.Unit(up.Sub(in.MulScalar(up.Dot(in))))
		if !ok {
			return nil, fmt.Errorf("%w: directrix runs along the reference surface normal at station %d", geom.ErrDegenerateGeometry, i)
		}
		x := y.Cross(in)

		sec := make([]geom.Vec, len(ring))
		for k, q := range ring {
			s := p.Add(x.MulScalar(q.X)).Add(y.MulScalar(q.Y))
			// slide along the incoming direction onto the mitre plane
			s = s.Sub(in.MulScalar(s.Sub(p).Dot(m) / in.Dot(m)))
			sec[k] = s
		}
		sections[i] = sec
	}
	return sections, nil
}

// assemble joins the sections into planar faces.
func assemble(def *model.SweptSolid, sections [][]geom.Vec, closed bool) (*model.Brep, error) {
	b := &model.Brep{ID: def.ID, Name: def.Name}
	n, m := len(sections), len(sections[0])
	nseg := n - 1
	if closed {
		nseg = n
	}
	for i := 0; i < nseg; i++ {
		a, c := sections[i], sections[(i+1)%n]
		for k := 0; k < m; k++ {
			l := (k + 1) % m
			f, err := model.PlanarFace(def.ID, []geom.Vec{a[k], a[l], c[l], c[k]})
			if err != nil {
				return nil, err
			}
			b.Faces = append(b.Faces, f)
		}
	}
	if !closed {
		first := sections[0]
		start := make([]geom.Vec, m)
		for k := range first {
			start[m-1-k] = first[k]
		}
		for _, ring := range [][]geom.Vec{start, sections[n-1]} {
			f, err := model.PlanarFace(def.ID, ring)
			if err != nil {
				return nil, err
			}
			b.Faces = append(b.Faces, f)
		}
	}
	return b, nil
}
