package model

import (
	"strings"
	"testing"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
)

func TestNewModelDefaults(t *testing.T) {
	m := New()
	if m.Tolerance != geom.DefaultTolerance() {
		t.Errorf("Tolerance = %+v", m.Tolerance)
	}
	if m.Workarounds == nil || m.Workarounds.ModelID() != m.ID {
		t.Fatal("registry should be bound to the model")
	}
	if m.ItemCount() != 0 {
		t.Errorf("ItemCount = %d", m.ItemCount())
	}
}

func TestLookup(t *testing.T) {
	m := New()
	b := &Brep{ID: 10, Name: "wall"}
	s := &SweptSolid{ID: 11, Name: "rail"}
	m.AddBrep(b)
	m.AddSweptSolid(s)

	if m.Brep("wall") != b {
		t.Error("Brep lookup failed")
	}
	if m.SweptSolid("rail") != s {
		t.Error("SweptSolid lookup failed")
	}
	if m.Brep("rail") != nil {
		t.Error("a swept solid is not a brep")
	}
	defer func() {
		if recover() == nil {
			t.Error("MustBrep should panic on a missing name")
		}
	}()
	m.MustBrep("missing")
}

func TestEntityLabel(t *testing.T) {
	if got := EntityID(42).Label(); got != "#42" {
		t.Errorf("Label = %q", got)
	}
	if got := EntityID(0).Label(); got != "" {
		t.Errorf("synthesised label = %q", got)
	}
}

func TestValidate(t *testing.T) {
	line, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(1, 0, 0))
	good := &FaceDef{
		ID:      3,
		Surface: &SurfaceDef{Kind: SurfacePlane, Frame: geom.WorldFrame},
		Bounds: []BoundDef{{
			Loop:        &LoopDef{Edges: []OrientedEdge{{Edge: &EdgeDef{Curve: line}, Orientation: true}}},
			Orientation: true,
			Outer:       true,
		}},
		SameSense: true,
	}

	tests := []struct {
		name     string
		build    func(m *Model)
		wantErrs int
		wantText string
	}{
		{"valid", func(m *Model) { m.AddBrep(&Brep{ID: 1, Faces: []*FaceDef{good}}) }, 0, ""},
		{"no faces", func(m *Model) { m.AddBrep(&Brep{ID: 1, Name: "empty"}) }, 1, "no faces"},
		{"no surface", func(m *Model) {
			m.AddBrep(&Brep{ID: 1, Faces: []*FaceDef{{ID: 2, Bounds: good.Bounds}}})
		}, 1, "no surface"},
		{"duplicate names", func(m *Model) {
			m.AddBrep(&Brep{ID: 1, Name: "a", Faces: []*FaceDef{good}})
			m.AddSweptSolid(&SweptSolid{ID: 2, Name: "a", Profile: &ProfileDef{}, Directrix: line, ReferenceSurface: good.Surface})
		}, 1, "duplicate name"},
		{"swept without directrix", func(m *Model) {
			m.AddSweptSolid(&SweptSolid{ID: 2, Profile: &ProfileDef{}, ReferenceSurface: good.Surface})
		}, 1, "no directrix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.build(m)
			errs, _ := diag.Split(Validate(m))
			if len(errs) != tt.wantErrs {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
			if tt.wantText != "" && !strings.Contains(errs[0].Message, tt.wantText) {
				t.Errorf("message %q does not mention %q", errs[0].Message, tt.wantText)
			}
		})
	}
}

func TestOuterBound(t *testing.T) {
	f := &FaceDef{Bounds: []BoundDef{{}, {Outer: true}}}
	if got := OuterBound(f); got != 1 {
		t.Errorf("OuterBound = %d", got)
	}
	if got := OuterBound(&FaceDef{Bounds: []BoundDef{{}, {}}}); got != 0 {
		t.Errorf("OuterBound without outer = %d", got)
	}
}
