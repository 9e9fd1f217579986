// Package topo assembles faces from surfaces and wire loops. It resolves
// edge curves between their vertices, checks that wires close within
// precision, and applies the gap and degeneracy rules. Faces that cannot
// be built cleanly are still returned, flagged invalid, so that shell
// assembly can decide what to do with them.
package topo

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/facet"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/surface"
	"github.com/chazu/ifcsolid/pkg/workaround"
)

// errDegenerateEdge marks an edge that collapses to a point.
var errDegenerateEdge = fmt.Errorf("%w: zero-length edge", geom.ErrDegenerateGeometry)

// Builder builds the topology of one reconstruction. Edges and surfaces
// are resolved once per definition and shared by every face that uses
// them. A Builder is not safe for concurrent use.
type Builder struct {
	tol geom.Tolerance
	reg *workaround.Registry
	log *diag.Log

	edges    map[*model.EdgeDef]*Edge
	failed   map[*model.EdgeDef]error
	surfaces map[*model.SurfaceDef]surface.Surface
}

// NewBuilder returns a builder for one reconstruction. log may be nil.
func NewBuilder(tol geom.Tolerance, reg *workaround.Registry, log *diag.Log) *Builder {
	return &Builder{
		tol:      tol,
		reg:      reg,
		log:      log,
		edges:    make(map[*model.EdgeDef]*Edge),
		failed:   make(map[*model.EdgeDef]error),
		surfaces: make(map[*model.SurfaceDef]surface.Surface),
	}
}

// Tolerance returns the builder's tolerance context.
func (b *Builder) Tolerance() geom.Tolerance { return b.tol }

// BuildSurface evaluates a surface descriptor.
func (b *Builder) BuildSurface(def *model.SurfaceDef) (surface.Surface, error) {
	if s, ok := b.surfaces[def]; ok {
		return s, nil
	}
	var (
		s   surface.Surface
		err error
	)
	switch def.Kind {
	case model.SurfacePlane:
		s = surface.NewPlane(def.Frame)
	case model.SurfaceCylinder:
		s, err = surface.NewCylinder(def.Frame, def.Radius)
	case model.SurfaceLinearExtrusion:
		if def.Profile == nil {
			return nil, fmt.Errorf("surface %s: %w: extrusion without profile", def.ID.Label(), geom.ErrDegenerateGeometry)
		}
		s, err = surface.NewLinearExtrusion(def.Profile, def.Frame, def.Dir, def.Depth,
			b.reg.IsEnabled(workaround.SurfaceOfLinearExtrusion))
	case model.SurfaceSweptArea:
		if def.Profile == nil || def.Directrix == nil {
			return nil, fmt.Errorf("surface %s: %w: swept surface without profile or directrix", def.ID.Label(), geom.ErrDegenerateGeometry)
		}
		s, err = surface.NewSweptArea(def.Profile, def.Directrix, def.Frame, def.Dir)
	default:
		return nil, fmt.Errorf("surface %s: unsupported kind %s", def.ID.Label(), def.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("surface %s: %w", def.ID.Label(), err)
	}
	b.surfaces[def] = s
	return s, nil
}

// BuildEdge resolves an edge curve between its vertices. Edges whose
// vertices coincide on a non-periodic curve are degenerate.
func (b *Builder) BuildEdge(def *model.EdgeDef) (*Edge, error) {
	if e, ok := b.edges[def]; ok {
		return e, nil
	}
	if err, ok := b.failed[def]; ok {
		return nil, err
	}
	e, err := b.buildEdge(def)
	if err != nil {
		b.failed[def] = err
		return nil, err
	}
	b.edges[def] = e
	return e, nil
}

func (b *Builder) buildEdge(def *model.EdgeDef) (*Edge, error) {
	c := def.Curve
	if c == nil {
		return nil, fmt.Errorf("edge %s: %w: no curve", def.ID.Label(), geom.ErrTrimResolution)
	}
	period, periodic := c.Period()
	closed := geom.Near(def.Start, def.End, b.tol.Precision)
	if closed && !periodic {
		return nil, fmt.Errorf("edge %s: %w", def.ID.Label(), errDegenerateEdge)
	}

	// a trimmed curve that already runs between the vertices is used as is
	if tc, ok := c.(*curve.Trimmed); ok {
		span, healed, err := tc.Resolve(b.reg, b.tol)
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", def.ID.Label(), err)
		}
		b.noteHealed(diag.StageCurve, def.ID, healed)
		switch {
		case b.matches(span, def.Start, def.End):
			return newEdge(def.ID, def.Start, def.End, span, b.tol), nil
		case b.matches(span.Reversed(), def.Start, def.End):
			return newEdge(def.ID, def.Start, def.End, span.Reversed(), b.tol), nil
		}
	}

	t0, err := b.vertexParam(def, c, def.Start)
	if err != nil {
		return nil, err
	}
	t1, err := b.vertexParam(def, c, def.End)
	if err != nil {
		return nil, err
	}
	if periodic {
		switch {
		case closed && def.SameSense:
			t1 = t0 + period
		case closed:
			t1 = t0 - period
		default:
			t1 = t0 + math.Mod(math.Mod(t1-t0, period)+period, period)
			if !def.SameSense {
				t1 -= period
			}
		}
	}
	span := curve.Span{Curve: c, T0: t0, T1: t1}
	if !periodic && span.Length(b.tol) <= b.tol.Precision {
		return nil, fmt.Errorf("edge %s: %w", def.ID.Label(), errDegenerateEdge)
	}
	return newEdge(def.ID, def.Start, def.End, span, b.tol), nil
}

func (b *Builder) matches(s curve.Span, start, end geom.Vec) bool {
	return geom.Near(s.Start(), start, b.tol.Precision) && geom.Near(s.End(), end, b.tol.Precision)
}

// vertexParam locates a vertex on its edge curve.
func (b *Builder) vertexParam(def *model.EdgeDef, c curve.Curve, p geom.Vec) (float64, error) {
	t, d := c.Closest(p)
	if d <= b.tol.Precision {
		return t, nil
	}
	if b.reg.IsEnabled(workaround.SnapTrimToCurve) {
		b.noteHealed(diag.StageCurve, def.ID, []string{workaround.SnapTrimToCurve})
		return t, nil
	}
	return 0, fmt.Errorf("edge %s: %w: vertex %v lies %g off the %s", def.ID.Label(), geom.ErrTrimResolution, p, d, c.Kind())
}

func (b *Builder) noteHealed(stage diag.Stage, id model.EntityID, names []string) {
	for _, n := range names {
		b.log.Addf(stage, diag.KindHealed, diag.SeverityWarning, id.Label(), "applied %s", n)
	}
}

// BuildWire assembles a loop. orientation false reverses the loop.
// Degenerate edges are dropped; edges that cannot be resolved leave a gap.
// A gap wider than precision fails with geom.ErrInvalidWire unless gap
// bridging is enabled.
func (b *Builder) BuildWire(loop *model.LoopDef, orientation bool) (*Wire, error) {
	if loop.IsPoly() {
		w, err := b.BuildPolyWire(loop.ID, loop.Polygon)
		if err != nil || orientation {
			return w, err
		}
		return w.Reverse(), nil
	}

	var uses []EdgeUse
	for _, oe := range loop.Edges {
		e, err := b.BuildEdge(oe.Edge)
		switch {
		case errors.Is(err, errDegenerateEdge):
			b.log.Addf(diag.StageWire, diag.KindDropped, diag.SeverityWarning, oe.Edge.ID.Label(), "degenerate edge dropped from loop %s", loop.ID.Label())
			continue
		case err != nil:
			b.log.Addf(diag.StageWire, diag.KindUnresolved, diag.SeverityError, oe.Edge.ID.Label(), "%v", err)
			continue
		}
		uses = append(uses, EdgeUse{Edge: e, Reversed: !oe.Orientation})
	}
	if len(uses) == 0 {
		return nil, fmt.Errorf("loop %s: %w: no usable edges", loop.ID.Label(), geom.ErrInvalidWire)
	}
	w := &Wire{Uses: uses}
	if !orientation {
		w = w.Reverse()
	}
	return b.close(loop.ID, w)
}

// close checks continuity between consecutive uses and bridges gaps when
// allowed.
func (b *Builder) close(id model.EntityID, w *Wire) (*Wire, error) {
	bridge := b.reg.IsEnabled(workaround.BridgeWireGaps)
	out := &Wire{Healed: w.Healed}
	for i, u := range w.Uses {
		out.Uses = append(out.Uses, u)
		next := w.Uses[(i+1)%len(w.Uses)]
		from, to := u.Last(), next.First()
		gap := geom.Dist(from, to)
		if gap <= b.tol.Precision {
			continue
		}
		if !bridge {
			return nil, fmt.Errorf("loop %s: %w: gap of %g after edge %d", id.Label(), geom.ErrInvalidWire, gap, i)
		}
		line, err := curve.LineThrough(from, to)
		if err != nil {
			return nil, fmt.Errorf("loop %s: %w", id.Label(), err)
		}
		e := newEdge(0, from, to, curve.Span{Curve: line, T0: 0, T1: 1}, b.tol)
		e.Synthetic = true
		out.Uses = append(out.Uses, EdgeUse{Edge: e})
		out.Healed = true
		b.log.Addf(diag.StageWire, diag.KindHealed, diag.SeverityWarning, id.Label(), "bridged gap of %g with a synthetic edge", gap)
	}
	if len(out.Uses) == 1 && !out.Uses[0].Edge.Closed() {
		return nil, fmt.Errorf("loop %s: %w: single open edge", id.Label(), geom.ErrInvalidWire)
	}
	return out, nil
}

// BuildPolyWire builds a wire of straight edges through pts. Repeated
// points are dropped; fewer than three distinct points cannot enclose
// anything.
func (b *Builder) BuildPolyWire(id model.EntityID, pts []geom.Vec) (*Wire, error) {
	var ring []geom.Vec
	for _, p := range pts {
		if len(ring) > 0 && geom.Near(ring[len(ring)-1], p, b.tol.Precision) {
			continue
		}
		ring = append(ring, p)
	}
	if len(ring) > 1 && geom.Near(ring[0], ring[len(ring)-1], b.tol.Precision) {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("poly loop %s: %w: %d distinct points", id.Label(), geom.ErrInvalidWire, len(ring))
	}
	w := &Wire{}
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		line, err := curve.LineThrough(p, q)
		if err != nil {
			return nil, fmt.Errorf("poly loop %s: %w", id.Label(), err)
		}
		w.Uses = append(w.Uses, EdgeUse{Edge: newEdge(id, p, q, curve.Span{Curve: line, T0: 0, T1: 1}, b.tol)})
	}
	return w, nil
}

// Face is a built face. Outer is nil when the outer wire could not be
// closed; such a face is never Valid.
type Face struct {
	ID        model.EntityID
	Index     int // position in the input face list
	Surface   surface.Surface
	Outer     *Wire
	Inner     []*Wire
	SameSense bool
	Valid     bool
	Healed    bool
	Band      bool  // two loops wrap around a periodic surface
	Err       error // why the face is invalid
}

// Label identifies the face in diagnostics.
func (f *Face) Label() string { return f.ID.Label() }

// Wires returns the outer wire followed by the inner wires.
func (f *Face) Wires() []*Wire {
	if f.Outer == nil {
		return nil
	}
	return append([]*Wire{f.Outer}, f.Inner...)
}

// BuildFace builds one face. The face is always returned; when it cannot be
// built cleanly it is flagged invalid and the returned error says why.
func (b *Builder) BuildFace(index int, def *model.FaceDef) (*Face, error) {
	f := &Face{ID: def.ID, Index: index, SameSense: def.SameSense}
	err := b.buildFace(f, def)
	if err != nil {
		f.Valid, f.Err = false, err
		b.log.Addf(diag.StageFace, diag.KindInvalid, diag.SeverityError, def.ID.Label(), "%v", err)
		return f, err
	}
	f.Valid = true
	if f.Healed {
		b.log.Addf(diag.StageFace, diag.KindHealed, diag.SeverityInfo, def.ID.Label(), "face built with healed wires")
	}
	return f, nil
}

func (b *Builder) buildFace(f *Face, def *model.FaceDef) error {
	if def.Surface == nil {
		return fmt.Errorf("face %s: no surface", def.ID.Label())
	}
	s, err := b.BuildSurface(def.Surface)
	if err != nil {
		return fmt.Errorf("face %s: %w", def.ID.Label(), err)
	}
	f.Surface = s
	if len(def.Bounds) == 0 {
		return fmt.Errorf("face %s: %w: no bounds", def.ID.Label(), geom.ErrInvalidWire)
	}

	outer := model.OuterBound(def)
	for i, bd := range def.Bounds {
		if bd.Loop == nil {
			return fmt.Errorf("face %s: %w: bound without loop", def.ID.Label(), geom.ErrInvalidWire)
		}
		w, err := b.BuildWire(bd.Loop, bd.Orientation)
		if err != nil {
			return fmt.Errorf("face %s: %w", def.ID.Label(), err)
		}
		if err := b.onSurface(s, w); err != nil {
			return fmt.Errorf("face %s: %w", def.ID.Label(), err)
		}
		f.Healed = f.Healed || w.Healed
		if i == outer {
			f.Outer = w
		} else {
			f.Inner = append(f.Inner, w)
		}
	}
	if period, periodic := s.UPeriod(); periodic {
		var turns []float64
		for _, w := range f.Wires() {
			if turn := facet.Turn(s, w.Ring()); facet.Wraps(turn, period) {
				turns = append(turns, turn)
			}
		}
		// wrapping loops come in pairs running opposite ways, bounding a band
		if len(turns) != 0 && (len(turns) != 2 || turns[0]*turns[1] > 0) {
			return fmt.Errorf("face %s: %w: %d loops wrap around the periodic %s surface",
				def.ID.Label(), geom.ErrInvalidWire, len(turns), s.Kind())
		}
		f.Band = len(turns) == 2
	}
	return nil
}

// onSurface checks that every point of w lies on s within precision.
func (b *Builder) onSurface(s surface.Surface, w *Wire) error {
	for _, u := range w.Uses {
		for _, p := range u.Edge.Points() {
			if _, _, d := s.Project(p); d > b.tol.Precision {
				return fmt.Errorf("%w: edge %s lies %g off the %s surface", geom.ErrInvalidWire, u.Edge.Label(), d, s.Kind())
			}
		}
	}
	return nil
}

// BuildFaces builds every face of a B-rep, in order.
func (b *Builder) BuildFaces(defs []*model.FaceDef) []*Face {
	faces := make([]*Face, 0, len(defs))
	for i, def := range defs {
		f, _ := b.BuildFace(i, def)
		faces = append(faces, f)
	}
	return faces
}
