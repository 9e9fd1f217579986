package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing entities through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec struct {
	vec geom.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

type sexpFrame struct {
	frame geom.Frame
}

func (f *sexpFrame) SexpString(ps *zygo.PrintState) string {
	o := f.frame.Origin
	return fmt.Sprintf("#<placement %g %g %g>", o.X, o.Y, o.Z)
}
func (f *sexpFrame) Type() *zygo.RegisteredType { return nil }

type sexpCurve struct {
	curve curve.Curve
}

func (c *sexpCurve) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<curve %s>", c.curve.Kind())
}
func (c *sexpCurve) Type() *zygo.RegisteredType { return nil }

// sexpEdge is an edge curve. Used directly in a loop it is traversed
// forwards; (reversed e) wraps it in a sexpEdgeUse.
type sexpEdge struct {
	edge *model.EdgeDef
}

func (e *sexpEdge) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<edge %s>", e.edge.ID.Label())
}
func (e *sexpEdge) Type() *zygo.RegisteredType { return nil }

type sexpEdgeUse struct {
	use model.OrientedEdge
}

func (u *sexpEdgeUse) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<oriented-edge %s %v>", u.use.Edge.ID.Label(), u.use.Orientation)
}
func (u *sexpEdgeUse) Type() *zygo.RegisteredType { return nil }

type sexpLoop struct {
	loop *model.LoopDef
}

func (l *sexpLoop) SexpString(ps *zygo.PrintState) string {
	if l.loop.IsPoly() {
		return fmt.Sprintf("#<poly-loop %s %d>", l.loop.ID.Label(), len(l.loop.Polygon))
	}
	return fmt.Sprintf("#<loop %s %d>", l.loop.ID.Label(), len(l.loop.Edges))
}
func (l *sexpLoop) Type() *zygo.RegisteredType { return nil }

type sexpBound struct {
	bound model.BoundDef
}

func (b *sexpBound) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<bound %s outer=%v>", b.bound.Loop.ID.Label(), b.bound.Outer)
}
func (b *sexpBound) Type() *zygo.RegisteredType { return nil }

type sexpSurface struct {
	surface *model.SurfaceDef
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<%s %s>", s.surface.Kind, s.surface.ID.Label())
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

type sexpFace struct {
	face *model.FaceDef
}

func (f *sexpFace) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<face %s>", f.face.ID.Label())
}
func (f *sexpFace) Type() *zygo.RegisteredType { return nil }

type sexpProfile struct {
	profile *model.ProfileDef
}

func (p *sexpProfile) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<%s-profile %s>", p.profile.Kind, p.profile.ID.Label())
}
func (p *sexpProfile) Type() *zygo.RegisteredType { return nil }

// sexpItem is a registered representation item: a *model.Brep or a
// *model.SweptSolid.
type sexpItem struct {
	name string
	id   model.EntityID
	kind string
}

func (i *sexpItem) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("#<%s %q %s>", i.kind, i.name, i.id.Label())
}
func (i *sexpItem) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a translated keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword is a flag.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// flatPositional returns the positional arguments with list and array
// arguments spliced in, recursively, so that (loop e1 e2) and
// (loop (list e1 e2)) agree.
func (a kwArgs) flatPositional() []zygo.Sexp {
	return flatten(a.positional)
}

func flatten(items []zygo.Sexp) []zygo.Sexp {
	var out []zygo.Sexp
	for _, p := range items {
		switch p.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			inner, err := sexpListToSlice(p)
			if err == nil {
				out = append(out, flatten(inner)...)
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	if s == zygo.SexpNull {
		return true, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toVecs(items []zygo.Sexp) ([]geom.Vec, error) {
	pts := make([]geom.Vec, 0, len(items))
	for i, it := range items {
		v, err := toVec(it)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts = append(pts, v)
	}
	return pts, nil
}

func toFrame(s zygo.Sexp) (geom.Frame, error) {
	if f, ok := s.(*sexpFrame); ok {
		return f.frame, nil
	}
	return geom.Frame{}, fmt.Errorf("expected placement, got %T (%s)", s, s.SexpString(nil))
}

func toCurve(s zygo.Sexp) (curve.Curve, error) {
	if c, ok := s.(*sexpCurve); ok {
		return c.curve, nil
	}
	return nil, fmt.Errorf("expected curve, got %T (%s)", s, s.SexpString(nil))
}

func toLoop(s zygo.Sexp) (*model.LoopDef, error) {
	if l, ok := s.(*sexpLoop); ok {
		return l.loop, nil
	}
	return nil, fmt.Errorf("expected loop, got %T (%s)", s, s.SexpString(nil))
}

func toSurface(s zygo.Sexp) (*model.SurfaceDef, error) {
	if sf, ok := s.(*sexpSurface); ok {
		return sf.surface, nil
	}
	return nil, fmt.Errorf("expected surface, got %T (%s)", s, s.SexpString(nil))
}

func toProfile(s zygo.Sexp) (*model.ProfileDef, error) {
	if p, ok := s.(*sexpProfile); ok {
		return p.profile, nil
	}
	return nil, fmt.Errorf("expected profile, got %T (%s)", s, s.SexpString(nil))
}

// toTrim reads a trim select: a number is a parameter, a vec3 is a point,
// and a two-element list carries both.
func toTrim(s zygo.Sexp) (curve.Trim, error) {
	switch v := s.(type) {
	case *zygo.SexpInt, *zygo.SexpFloat:
		t, _ := toFloat64(v)
		return curve.AtParam(t), nil
	case *sexpVec:
		return curve.AtPoint(v.vec), nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(v)
		if err != nil {
			return curve.Trim{}, err
		}
		var tr curve.Trim
		for _, it := range items {
			one, err := toTrim(it)
			if err != nil {
				return curve.Trim{}, err
			}
			if one.HasParam {
				tr.Param, tr.HasParam = one.Param, true
			}
			if one.HasPoint {
				tr.Point, tr.HasPoint = one.Point, true
			}
		}
		return tr, nil
	}
	return curve.Trim{}, fmt.Errorf("expected trim parameter or point, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
