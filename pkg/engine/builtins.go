package engine

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builder accumulates entities into one model during a single evaluation.
// Entities without an explicit :id are numbered after the highest id seen
// so far.
type builder struct {
	m    *model.Model
	next model.EntityID
}

func newBuilder(m *model.Model) *builder {
	return &builder{m: m, next: 1}
}

func (b *builder) id(pa kwArgs) (model.EntityID, error) {
	v, ok := pa.kw["id"]
	if !ok {
		id := b.next
		b.next++
		return id, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("id: %w", err)
	}
	if f < 1 || f != float64(int(f)) {
		return 0, fmt.Errorf("id: must be a positive integer, got %g", f)
	}
	id := model.EntityID(int(f))
	if id >= b.next {
		b.next = id + 1
	}
	return id, nil
}

func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (a kwArgs) boolean(name string, def bool) (bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	bv, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return bv, nil
}

// placement reads the :placement keyword, defaulting to the world frame.
func (a kwArgs) placement() (geom.Frame, error) {
	v, ok := a.kw["placement"]
	if !ok {
		return geom.WorldFrame, nil
	}
	f, err := toFrame(v)
	if err != nil {
		return geom.Frame{}, fmt.Errorf("placement: %w", err)
	}
	return f, nil
}

func (a kwArgs) vec(name string, def geom.Vec) (geom.Vec, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	p, err := toVec(v)
	if err != nil {
		return geom.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// builtinFunc is the signature zygomys expects from a Go function.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// wrap prefixes any error with the builtin's name so that the evaluation
// error points at the form that failed.
func wrap(fn func(pa kwArgs) (zygo.Sexp, error)) builtinFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		out, err := fn(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return out, nil
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the description builtins into a zygomys
// environment. Source must be passed through translate so that
// :keyword tokens arrive as recognisable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	fns := map[string]func(pa kwArgs) (zygo.Sexp, error){
		// (tolerance :precision 1e-5 :deflection 1e-3 :angle 0.5)
		"tolerance": b.tolerance,
		// (workaround "#SnapTrimToCurve" ...)
		"workaround": b.workaround,

		"vec3":      b.vec3,
		"placement": b.placement,

		"line":     b.line,
		"circle":   b.circle,
		"polyline": b.polyline,
		"trimmed":  b.trimmed,

		"edge":      b.edge,
		"reversed":  b.reversed,
		"loop":      b.loop,
		"poly_loop": b.polyLoop,
		"bound":     b.bound,

		"plane":         b.plane,
		"cylinder":      b.cylinder,
		"extrusion":     b.extrusion,
		"swept_surface": b.sweptSurface,
		"face":          b.face,
		"planar_face":   b.planarFace,
		"brep":          b.brep,

		"rectangle_profile": b.rectangleProfile,
		"circle_profile":    b.circleProfile,
		"polygon_profile":   b.polygonProfile,
		"swept_solid":       b.sweptSolid,
	}
	for name, fn := range fns {
		env.AddFunction(name, wrap(fn))
	}
}

// ---------------------------------------------------------------------------
// Session settings
// ---------------------------------------------------------------------------

func (b *builder) tolerance(pa kwArgs) (zygo.Sexp, error) {
	t := b.m.Tolerance
	var err error
	if t.Precision, err = pa.float("precision", t.Precision); err != nil {
		return nil, err
	}
	if t.DeflectionTolerance, err = pa.float("deflection", t.DeflectionTolerance); err != nil {
		return nil, err
	}
	if t.DeflectionAngle, err = pa.float("angle", t.DeflectionAngle); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	b.m.SetTolerance(t)
	return zygo.SexpNull, nil
}

func (b *builder) workaround(pa kwArgs) (zygo.Sexp, error) {
	for _, a := range pa.flatPositional() {
		name, err := toString(a)
		if err != nil {
			return nil, err
		}
		if err := b.m.Workarounds.Enable(name); err != nil {
			return nil, err
		}
	}
	return zygo.SexpNull, nil
}

// ---------------------------------------------------------------------------
// Points and placements
// ---------------------------------------------------------------------------

// (vec3 x y) or (vec3 x y z)
func (b *builder) vec3(pa kwArgs) (zygo.Sexp, error) {
	n := len(pa.positional)
	if n < 2 || n > 3 {
		return nil, fmt.Errorf("expected 2 or 3 coordinates, got %d", n)
	}
	var c [3]float64
	for i, a := range pa.positional {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		c[i] = f
	}
	return &sexpVec{vec: geom.V(c[0], c[1], c[2])}, nil
}

// (placement :origin (vec3 ..) :axis (vec3 0 0 1) :ref (vec3 1 0 0))
func (b *builder) placement(pa kwArgs) (zygo.Sexp, error) {
	origin, err := pa.vec("origin", geom.Vec{})
	if err != nil {
		return nil, err
	}
	axis, err := pa.vec("axis", geom.V(0, 0, 1))
	if err != nil {
		return nil, err
	}
	var f geom.Frame
	if _, ok := pa.kw["ref"]; ok {
		ref, err := pa.vec("ref", geom.Vec{})
		if err != nil {
			return nil, err
		}
		f, err = geom.NewFrame(origin, axis, ref)
		if err != nil {
			return nil, err
		}
	} else if f, err = geom.FrameFromAxis(origin, axis); err != nil {
		return nil, err
	}
	return &sexpFrame{frame: f}, nil
}

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

// (line a b) or (line :origin o :direction d)
func (b *builder) line(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) == 2 {
		pts, err := toVecs(pa.positional)
		if err != nil {
			return nil, err
		}
		l, err := curve.LineThrough(pts[0], pts[1])
		if err != nil {
			return nil, err
		}
		return &sexpCurve{curve: l}, nil
	}
	origin, err := pa.vec("origin", geom.Vec{})
	if err != nil {
		return nil, err
	}
	dir, err := pa.vec("direction", geom.Vec{})
	if err != nil {
		return nil, err
	}
	l, err := curve.NewLine(origin, dir)
	if err != nil {
		return nil, err
	}
	return &sexpCurve{curve: l}, nil
}

// (circle radius :placement p)
func (b *builder) circle(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a radius")
	}
	r, err := toFloat64(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	f, err := pa.placement()
	if err != nil {
		return nil, err
	}
	c, err := curve.NewCircle(f, r)
	if err != nil {
		return nil, err
	}
	return &sexpCurve{curve: c}, nil
}

// (polyline p0 p1 ...)
func (b *builder) polyline(pa kwArgs) (zygo.Sexp, error) {
	pts, err := toVecs(pa.flatPositional())
	if err != nil {
		return nil, err
	}
	p, err := curve.NewPolyline(pts)
	if err != nil {
		return nil, err
	}
	return &sexpCurve{curve: p}, nil
}

// (trimmed basis :trim1 0 :trim2 (vec3 ..) :sense true)
func (b *builder) trimmed(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a basis curve")
	}
	basis, err := toCurve(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("basis: %w", err)
	}
	tc := &curve.Trimmed{Basis: basis}
	for key, dst := range map[string]*curve.Trim{"trim1": &tc.Trim1, "trim2": &tc.Trim2} {
		v, ok := pa.kw[key]
		if !ok {
			return nil, fmt.Errorf("missing :%s", key)
		}
		if *dst, err = toTrim(v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	if tc.Sense, err = pa.boolean("sense", true); err != nil {
		return nil, err
	}
	return &sexpCurve{curve: tc}, nil
}

// ---------------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------------

// (edge start end :curve c :same-sense true :id 12). Without a curve the
// edge is straight.
func (b *builder) edge(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return nil, fmt.Errorf("expected start and end vertices")
	}
	pts, err := toVecs(pa.positional)
	if err != nil {
		return nil, err
	}
	e := &model.EdgeDef{Start: pts[0], End: pts[1]}
	if v, ok := pa.kw["curve"]; ok {
		if e.Curve, err = toCurve(v); err != nil {
			return nil, fmt.Errorf("curve: %w", err)
		}
	} else if e.Curve, err = curve.LineThrough(pts[0], pts[1]); err != nil {
		return nil, err
	}
	if e.SameSense, err = pa.boolean("same-sense", true); err != nil {
		return nil, err
	}
	if e.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpEdge{edge: e}, nil
}

// (reversed e) uses an edge from its end vertex to its start vertex.
func (b *builder) reversed(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected one edge")
	}
	switch v := pa.positional[0].(type) {
	case *sexpEdge:
		return &sexpEdgeUse{use: model.OrientedEdge{Edge: v.edge}}, nil
	case *sexpEdgeUse:
		return &sexpEdgeUse{use: model.OrientedEdge{Edge: v.use.Edge, Orientation: !v.use.Orientation}}, nil
	}
	return nil, fmt.Errorf("expected edge, got %T", pa.positional[0])
}

// (loop e1 (reversed e2) e3 ...)
func (b *builder) loop(pa kwArgs) (zygo.Sexp, error) {
	items := pa.flatPositional()
	if len(items) == 0 {
		return nil, fmt.Errorf("expected at least one edge")
	}
	l := &model.LoopDef{}
	for i, it := range items {
		switch v := it.(type) {
		case *sexpEdge:
			l.Edges = append(l.Edges, model.OrientedEdge{Edge: v.edge, Orientation: true})
		case *sexpEdgeUse:
			l.Edges = append(l.Edges, v.use)
		default:
			return nil, fmt.Errorf("edge %d: expected edge, got %T", i, it)
		}
	}
	var err error
	if l.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpLoop{loop: l}, nil
}

// (poly-loop p0 p1 p2 ...)
func (b *builder) polyLoop(pa kwArgs) (zygo.Sexp, error) {
	pts, err := toVecs(pa.flatPositional())
	if err != nil {
		return nil, err
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("expected at least 3 points, got %d", len(pts))
	}
	l := &model.LoopDef{Polygon: pts}
	if l.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpLoop{loop: l}, nil
}

// (bound loop :orientation true :outer false)
func (b *builder) bound(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected one loop")
	}
	l, err := toLoop(pa.positional[0])
	if err != nil {
		return nil, err
	}
	bd := model.BoundDef{Loop: l}
	if bd.Orientation, err = pa.boolean("orientation", true); err != nil {
		return nil, err
	}
	if bd.Outer, err = pa.boolean("outer", false); err != nil {
		return nil, err
	}
	return &sexpBound{bound: bd}, nil
}

// ---------------------------------------------------------------------------
// Surfaces and faces
// ---------------------------------------------------------------------------

func (b *builder) surface(pa kwArgs, s *model.SurfaceDef) (zygo.Sexp, error) {
	var err error
	if s.Frame, err = pa.placement(); err != nil {
		return nil, err
	}
	if s.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpSurface{surface: s}, nil
}

// (plane :placement p)
func (b *builder) plane(pa kwArgs) (zygo.Sexp, error) {
	return b.surface(pa, &model.SurfaceDef{Kind: model.SurfacePlane})
}

// (cylinder radius :placement p)
func (b *builder) cylinder(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a radius")
	}
	r, err := toFloat64(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	if r <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %g", r)
	}
	return b.surface(pa, &model.SurfaceDef{Kind: model.SurfaceCylinder, Radius: r})
}

// (extrusion profile-curve :direction (vec3 0 0 1) :depth 3 :placement p)
func (b *builder) extrusion(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a profile curve")
	}
	c, err := toCurve(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	dir, err := pa.vec("direction", geom.V(0, 0, 1))
	if err != nil {
		return nil, err
	}
	depth, err := pa.float("depth", 1)
	if err != nil {
		return nil, err
	}
	return b.surface(pa, &model.SurfaceDef{Kind: model.SurfaceLinearExtrusion, Profile: c, Dir: dir, Depth: depth})
}

// (swept-surface profile-curve :directrix (circle 5) :reference (vec3 0 0 1))
func (b *builder) sweptSurface(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a profile curve")
	}
	c, err := toCurve(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	v, ok := pa.kw["directrix"]
	if !ok {
		return nil, fmt.Errorf("expected a :directrix curve")
	}
	d, err := toCurve(v)
	if err != nil {
		return nil, fmt.Errorf("directrix: %w", err)
	}
	ref, err := pa.vec("reference", geom.V(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return b.surface(pa, &model.SurfaceDef{Kind: model.SurfaceSweptArea, Profile: c, Directrix: d, Dir: ref})
}

// (face surface outer-loop hole-loop ... :same-sense true :id 7). Bare
// loops become forward bounds; the first is outer unless a (bound ...)
// says otherwise.
func (b *builder) face(pa kwArgs) (zygo.Sexp, error) {
	items := pa.flatPositional()
	if len(items) < 2 {
		return nil, fmt.Errorf("expected a surface and at least one bound")
	}
	s, err := toSurface(items[0])
	if err != nil {
		return nil, err
	}
	f := &model.FaceDef{Surface: s}
	explicitOuter := false
	firstBare := -1
	for i, it := range items[1:] {
		switch v := it.(type) {
		case *sexpLoop:
			if firstBare < 0 {
				firstBare = len(f.Bounds)
			}
			f.Bounds = append(f.Bounds, model.BoundDef{Loop: v.loop, Orientation: true})
		case *sexpBound:
			explicitOuter = explicitOuter || v.bound.Outer
			f.Bounds = append(f.Bounds, v.bound)
		default:
			return nil, fmt.Errorf("bound %d: expected loop or bound, got %T", i, it)
		}
	}
	if !explicitOuter && firstBare >= 0 {
		f.Bounds[firstBare].Outer = true
	}
	if f.SameSense, err = pa.boolean("same-sense", true); err != nil {
		return nil, err
	}
	if f.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpFace{face: f}, nil
}

// (planar-face p0 p1 p2 ... :id 9) is a poly-loop face on the plane of
// its own points, as faceted B-reps write them.
func (b *builder) planarFace(pa kwArgs) (zygo.Sexp, error) {
	pts, err := toVecs(pa.flatPositional())
	if err != nil {
		return nil, err
	}
	id, err := b.id(pa)
	if err != nil {
		return nil, err
	}
	f, err := model.PlanarFace(id, pts)
	if err != nil {
		return nil, err
	}
	return &sexpFace{face: f}, nil
}

// (brep "name" face ... :id 100) registers an advanced B-rep.
func (b *builder) brep(pa kwArgs) (zygo.Sexp, error) {
	items := pa.flatPositional()
	br := &model.Brep{}
	if len(items) > 0 {
		if s, ok := items[0].(*zygo.SexpStr); ok {
			br.Name = s.S
			items = items[1:]
		}
	}
	for i, it := range items {
		f, ok := it.(*sexpFace)
		if !ok {
			return nil, fmt.Errorf("face %d: expected face, got %T", i, it)
		}
		br.Faces = append(br.Faces, f.face)
	}
	var err error
	if br.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	if err := b.checkName(br.Name); err != nil {
		return nil, err
	}
	b.m.AddBrep(br)
	return &sexpItem{name: br.Name, id: br.ID, kind: "brep"}, nil
}

func (b *builder) checkName(name string) error {
	if name == "" {
		return nil
	}
	if _, taken := b.m.NameIndex[name]; taken {
		return fmt.Errorf("name %q already defined", name)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Profiles and swept solids
// ---------------------------------------------------------------------------

func (b *builder) profile(pa kwArgs, p *model.ProfileDef) (zygo.Sexp, error) {
	var err error
	if p.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	return &sexpProfile{profile: p}, nil
}

// (rectangle-profile xdim ydim)
func (b *builder) rectangleProfile(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 2 {
		return nil, fmt.Errorf("expected x and y dimensions")
	}
	x, err := toFloat64(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("xdim: %w", err)
	}
	y, err := toFloat64(pa.positional[1])
	if err != nil {
		return nil, fmt.Errorf("ydim: %w", err)
	}
	return b.profile(pa, &model.ProfileDef{Kind: model.ProfileRectangle, XDim: x, YDim: y})
}

// (circle-profile radius)
func (b *builder) circleProfile(pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) != 1 {
		return nil, fmt.Errorf("expected a radius")
	}
	r, err := toFloat64(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	return b.profile(pa, &model.ProfileDef{Kind: model.ProfileCircle, Radius: r})
}

// (polygon-profile p0 p1 p2 ...)
func (b *builder) polygonProfile(pa kwArgs) (zygo.Sexp, error) {
	pts, err := toVecs(pa.flatPositional())
	if err != nil {
		return nil, err
	}
	return b.profile(pa, &model.ProfileDef{Kind: model.ProfilePolygon, Points: pts})
}

// (swept-solid "name" :profile p :directrix c :reference s
//
//	:start 0 :end 1 :placement f :id 200)
func (b *builder) sweptSolid(pa kwArgs) (zygo.Sexp, error) {
	s := &model.SweptSolid{}
	if len(pa.positional) > 0 {
		name, err := toString(pa.positional[0])
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		s.Name = name
	}
	var err error
	if v, ok := pa.kw["profile"]; ok {
		if s.Profile, err = toProfile(v); err != nil {
			return nil, err
		}
	}
	if v, ok := pa.kw["directrix"]; ok {
		if s.Directrix, err = toCurve(v); err != nil {
			return nil, fmt.Errorf("directrix: %w", err)
		}
	}
	if v, ok := pa.kw["reference"]; ok {
		if s.ReferenceSurface, err = toSurface(v); err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
	}
	if _, s.HasStart = pa.kw["start"]; s.HasStart {
		if s.StartParam, err = pa.float("start", 0); err != nil {
			return nil, err
		}
	}
	if _, s.HasEnd = pa.kw["end"]; s.HasEnd {
		if s.EndParam, err = pa.float("end", 0); err != nil {
			return nil, err
		}
	}
	if s.Position, err = pa.placement(); err != nil {
		return nil, err
	}
	if s.ID, err = b.id(pa); err != nil {
		return nil, err
	}
	if err := b.checkName(s.Name); err != nil {
		return nil, err
	}
	b.m.AddSweptSolid(s)
	return &sexpItem{name: s.Name, id: s.ID, kind: "swept-solid"}, nil
}
