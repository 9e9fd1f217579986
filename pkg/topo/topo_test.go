package topo

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/model/modeltest"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
)

func registry(t *testing.T, names ...string) *workaround.Registry {
	t.Helper()
	r := workaround.NewRegistry(uuid.New())
	for _, n := range names {
		if err := r.Enable(n); err != nil {
			t.Fatalf("enable %s: %v", n, err)
		}
	}
	return r
}

func validCount(faces []*Face) int {
	n := 0
	for _, f := range faces {
		if f.Valid {
			n++
		}
	}
	return n
}

func TestBuildFacesPrism(t *testing.T) {
	tests := []struct {
		name  string
		opt   modeltest.Options
		names []string
		valid int
	}{
		{"plain", modeltest.Options{}, nil, 8},
		{"trimmed edges", modeltest.Options{TrimmedEdges: true}, nil, 8},
		{"extrusion sides literal", modeltest.Options{ExtrusionSides: true}, nil, 2},
		{"extrusion sides healed", modeltest.Options{ExtrusionSides: true}, []string{workaround.SurfaceOfLinearExtrusion}, 8},
		{"bad edge", modeltest.Options{BadEdge: 2}, nil, 6},
		{"bad edge bridged", modeltest.Options{BadEdge: 2}, []string{workaround.BridgeWireGaps}, 8},
		{"bad edge snapped", modeltest.Options{BadEdge: 2}, []string{workaround.SnapTrimToCurve}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := modeltest.Prism(0, 6, geom.V(0, 0, 0), 1, 1, tt.opt)
			faces := NewBuilder(geom.DefaultTolerance(), registry(t, tt.names...), nil).BuildFaces(b.Faces)
			if len(faces) != 8 {
				t.Fatalf("got %d faces, want 8", len(faces))
			}
			if got := validCount(faces); got != tt.valid {
				for _, f := range faces {
					if !f.Valid {
						t.Logf("%s: %v", f.Label(), f.Err)
					}
				}
				t.Errorf("got %d valid faces, want %d", got, tt.valid)
			}
		})
	}
}

func TestDegenerateEdgeDropped(t *testing.T) {
	log := &diag.Log{}
	b := modeltest.Prism(0, 4, geom.V(0, 0, 0), 1, 1, modeltest.Options{DegenerateEdge: true})
	faces := NewBuilder(geom.DefaultTolerance(), registry(t), log).BuildFaces(b.Faces)
	if got := validCount(faces); got != 6 {
		t.Fatalf("got %d valid faces, want 6", got)
	}
	if got := len(faces[1].Outer.Uses); got != 4 {
		t.Errorf("top loop has %d uses, want 4", got)
	}
	if log.Count(diag.KindDropped) != 1 {
		t.Errorf("want one dropped-edge diagnostic, got %v", log.Entries())
	}
}

func TestBridgedWireCloses(t *testing.T) {
	log := &diag.Log{}
	b := modeltest.Prism(0, 4, geom.V(0, 0, 0), 1, 1, modeltest.Options{BadEdge: 1})
	faces := NewBuilder(geom.DefaultTolerance(), registry(t, workaround.BridgeWireGaps), log).BuildFaces(b.Faces)
	bottom := faces[0]
	if !bottom.Valid || !bottom.Healed {
		t.Fatalf("bottom face valid=%t healed=%t err=%v", bottom.Valid, bottom.Healed, bottom.Err)
	}
	synthetic := 0
	for _, u := range bottom.Outer.Uses {
		if u.Edge.Synthetic {
			synthetic++
		}
	}
	if synthetic != 1 {
		t.Errorf("got %d synthetic edges, want 1", synthetic)
	}
	if log.Count(diag.KindHealed) < 2 {
		t.Errorf("want healed diagnostics for both faces of the bad edge, got %v", log.Entries())
	}
}

func TestBuildEdgeSharedBetweenFaces(t *testing.T) {
	b := modeltest.Prism(0, 3, geom.V(0, 0, 0), 1, 1, modeltest.Options{})
	bl := NewBuilder(geom.DefaultTolerance(), registry(t), nil)
	faces := bl.BuildFaces(b.Faces)
	bottomEdge := faces[0].Outer.Uses[0].Edge
	found := false
	for _, f := range faces[2:] {
		for _, u := range f.Outer.Uses {
			if u.Edge == bottomEdge {
				found = true
				if u.Reversed == faces[0].Outer.Uses[0].Reversed {
					t.Errorf("side and bottom traverse the shared edge the same way")
				}
			}
		}
	}
	if !found {
		t.Fatal("bottom edge not shared with any side")
	}
}

func TestBuildEdgeCircleArc(t *testing.T) {
	c, err := curve.NewCircle(geom.WorldFrame, 2)
	if err != nil {
		t.Fatal(err)
	}
	def := &model.EdgeDef{ID: 9, Start: geom.V(2, 0, 0), End: geom.V(0, 2, 0), Curve: c, SameSense: true}
	e, err := NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildEdge(def)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Span.T1 - e.Span.T0; math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("sense true spans %g, want pi/2", got)
	}

	def = &model.EdgeDef{ID: 10, Start: geom.V(2, 0, 0), End: geom.V(0, 2, 0), Curve: c, SameSense: false}
	e, err = NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildEdge(def)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Span.T1 - e.Span.T0; math.Abs(got+3*math.Pi/2) > 1e-12 {
		t.Errorf("sense false spans %g, want -3pi/2", got)
	}

	def = &model.EdgeDef{ID: 11, Start: geom.V(2, 0, 0), End: geom.V(2, 0, 0), Curve: c, SameSense: true}
	e, err = NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildEdge(def)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Closed() {
		t.Error("full circle edge should be closed")
	}
}

func TestBuildEdgeOffCurve(t *testing.T) {
	line, _ := curve.LineThrough(geom.V(0, 0, 0), geom.V(1, 0, 0))
	def := &model.EdgeDef{ID: 5, Start: geom.V(0, 0.1, 0), End: geom.V(1, 0, 0), Curve: line, SameSense: true}
	_, err := NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildEdge(def)
	if !errors.Is(err, geom.ErrTrimResolution) {
		t.Fatalf("got %v, want ErrTrimResolution", err)
	}
	log := &diag.Log{}
	_, err = NewBuilder(geom.DefaultTolerance(), registry(t, workaround.SnapTrimToCurve), log).BuildEdge(def)
	if err != nil {
		t.Fatalf("snapping: %v", err)
	}
	if log.Count(diag.KindHealed) != 1 {
		t.Errorf("want one healed diagnostic, got %v", log.Entries())
	}
}

func TestBuildPolyWire(t *testing.T) {
	bl := NewBuilder(geom.DefaultTolerance(), registry(t), nil)
	w, err := bl.BuildPolyWire(1, []geom.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(1, 0, 0), geom.V(1, 1, 0), geom.V(0, 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Uses) != 3 {
		t.Errorf("got %d uses, want 3", len(w.Uses))
	}
	if _, err := bl.BuildPolyWire(2, []geom.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0)}); !errors.Is(err, geom.ErrInvalidWire) {
		t.Errorf("got %v, want ErrInvalidWire", err)
	}
}

func TestHalfCylinderFaces(t *testing.T) {
	faces := NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildFaces(modeltest.HalfCylinder(0, 1, 1).Faces)
	if got := validCount(faces); got != 4 {
		for _, f := range faces {
			t.Logf("%s valid=%t err=%v", f.Label(), f.Valid, f.Err)
		}
		t.Fatalf("got %d valid faces, want 4", got)
	}
}

func TestCylinderBandFace(t *testing.T) {
	faces := NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildFaces(modeltest.Cylinder(0, 1, 2).Faces)
	if got := validCount(faces); got != 3 {
		for _, f := range faces {
			t.Logf("%s valid=%t err=%v", f.Label(), f.Valid, f.Err)
		}
		t.Fatalf("got %d valid faces, want 3", got)
	}
	if faces[0].Band || !faces[2].Band {
		t.Errorf("only the side face is a band: %t %t %t", faces[0].Band, faces[1].Band, faces[2].Band)
	}
	if n := len(faces[2].Outer.Ring()); n < 16 {
		t.Errorf("full circle discretised into %d points", n)
	}
}

func TestClosedEdgeAgainstCurve(t *testing.T) {
	c, _ := curve.NewCircle(geom.WorldFrame, 1)
	a := geom.V(1, 0, 0)
	b := NewBuilder(geom.DefaultTolerance(), registry(t), nil)
	for _, sense := range []bool{true, false} {
		e, err := b.BuildEdge(&model.EdgeDef{ID: 1, Start: a, End: a, Curve: c, SameSense: sense})
		if err != nil {
			t.Fatalf("sense %t: %v", sense, err)
		}
		pts := e.Points()
		if len(pts) < 16 {
			t.Fatalf("sense %t: %d points", sense, len(pts))
		}
		// the second point tells which way round the edge runs
		if got := pts[1].Y > 0; got != sense {
			t.Errorf("sense %t: second point %v", sense, pts[1])
		}
	}
}

func TestUnpairedWrapRejected(t *testing.T) {
	b := modeltest.Cylinder(0, 1, 2)
	side := b.Faces[2]
	side.Bounds = side.Bounds[:1]
	f, err := NewBuilder(geom.DefaultTolerance(), registry(t), nil).BuildFace(0, side)
	if f.Valid || !errors.Is(err, geom.ErrInvalidWire) {
		t.Errorf("valid=%t err=%v, want ErrInvalidWire", f.Valid, err)
	}
}
