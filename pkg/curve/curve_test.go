package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
)

func registry(t *testing.T, names ...string) *workaround.Registry {
	t.Helper()
	r := workaround.NewRegistry(uuid.New())
	for _, n := range names {
		if err := r.Enable(n); err != nil {
			t.Fatalf("Enable(%s): %v", n, err)
		}
	}
	r.Seal()
	return r
}

func unitCircle(t *testing.T) *Circle {
	t.Helper()
	c, err := NewCircle(geom.WorldFrame, 2)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCircleDiscretizeWithinDeflection(t *testing.T) {
	c := unitCircle(t)
	tol := geom.DefaultTolerance()
	ts := c.Discretize(0, math.Pi, tol)
	if len(ts) < 3 {
		t.Fatalf("too few stations: %d", len(ts))
	}
	for i := 1; i < len(ts); i++ {
		mid := (ts[i-1] + ts[i]) / 2
		chordMid := geom.Lerp(c.Point(ts[i-1]), c.Point(ts[i]), 0.5)
		if sag := geom.Dist(chordMid, c.Point(mid)); sag > tol.DeflectionTolerance+1e-12 {
			t.Fatalf("sag %g exceeds deflection", sag)
		}
		if ts[i]-ts[i-1] > tol.DeflectionAngle+1e-12 {
			t.Fatalf("step %g exceeds deflection angle", ts[i]-ts[i-1])
		}
	}
}

func TestCircleClosest(t *testing.T) {
	c := unitCircle(t)
	tt, d := c.Closest(geom.V(0, -5, 0))
	if math.Abs(tt-3*math.Pi/2) > 1e-12 || math.Abs(d-3) > 1e-12 {
		t.Errorf("Closest = (%g, %g)", tt, d)
	}
}

func TestNewCircleDegenerate(t *testing.T) {
	if _, err := NewCircle(geom.WorldFrame, 0); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
	if _, err := NewLine(geom.V(0, 0, 0), geom.V(0, 0, 0)); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestPolylineParametrisation(t *testing.T) {
	pl, err := NewPolyline([]geom.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(1, 1, 0), geom.V(0, 0, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if !pl.Closed() {
		t.Fatal("expected closed polyline")
	}
	if p, ok := pl.Period(); !ok || p != 3 {
		t.Fatalf("Period = %g, %v", p, ok)
	}
	if got := pl.Point(1.5); geom.Dist(got, geom.V(1, 0.5, 0)) > 1e-12 {
		t.Errorf("Point(1.5) = %v", got)
	}
	if got := pl.Point(3.5); geom.Dist(got, geom.V(0.5, 0, 0)) > 1e-12 {
		t.Errorf("Point(3.5) should wrap, got %v", got)
	}
	ts := pl.Discretize(0.5, 2.5, geom.DefaultTolerance())
	want := []float64{0.5, 1, 2, 2.5}
	if len(ts) != len(want) {
		t.Fatalf("Discretize = %v, want %v", ts, want)
	}
}

func TestResolvePeriodicWrap(t *testing.T) {
	c := unitCircle(t)
	tr := &Trimmed{Basis: c, Trim1: AtParam(3 * math.Pi / 2), Trim2: AtParam(math.Pi / 2), Sense: true}
	span, healed, err := tr.Resolve(registry(t), geom.DefaultTolerance())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(healed) != 0 {
		t.Errorf("unexpected healing %v", healed)
	}
	if math.Abs((span.T1-span.T0)-math.Pi) > 1e-12 {
		t.Errorf("span length = %g, want pi", span.T1-span.T0)
	}
	// crosses the seam at angle 0
	if mid := span.At(0.5); geom.Dist(mid, geom.V(2, 0, 0)) > 1e-9 {
		t.Errorf("mid point = %v, want (2,0,0)", mid)
	}

	tr.Sense = false
	span, _, err = tr.Resolve(registry(t), geom.DefaultTolerance())
	if err != nil {
		t.Fatal(err)
	}
	if mid := span.At(0.5); geom.Dist(mid, geom.V(-2, 0, 0)) > 1e-9 {
		t.Errorf("reversed mid point = %v, want (-2,0,0)", mid)
	}
}

func TestResolveFullPeriod(t *testing.T) {
	c := unitCircle(t)
	tr := &Trimmed{Basis: c, Trim1: AtParam(0), Trim2: AtParam(2 * math.Pi), Sense: true}

	_, _, err := tr.Resolve(registry(t), geom.DefaultTolerance())
	if !errors.Is(err, geom.ErrTrimResolution) {
		t.Fatalf("expected ErrTrimResolution, got %v", err)
	}

	span, healed, err := tr.Resolve(registry(t, workaround.TrimSpansFullPeriod), geom.DefaultTolerance())
	if err != nil {
		t.Fatalf("with workaround: %v", err)
	}
	if len(healed) != 1 || healed[0] != workaround.TrimSpansFullPeriod {
		t.Errorf("healed = %v", healed)
	}
	if l := span.T1 - span.T0; math.Abs(l-2*math.Pi) > 1e-12 {
		t.Errorf("resolved length %g, want one period", l)
	}
}

func TestResolveCoincident(t *testing.T) {
	c := unitCircle(t)
	tr := &Trimmed{Basis: c, Trim1: AtParam(1), Trim2: AtParam(1), Sense: true}
	if _, _, err := tr.Resolve(registry(t, workaround.TrimSpansFullPeriod), geom.DefaultTolerance()); !errors.Is(err, geom.ErrTrimResolution) {
		t.Fatalf("coincident trims are not a full-period range, got %v", err)
	}
	if _, _, err := tr.Resolve(registry(t, workaround.SnapTrimToCurve), geom.DefaultTolerance()); err != nil {
		t.Fatalf("snap should heal coincident trims: %v", err)
	}

	l, _ := NewLine(geom.V(0, 0, 0), geom.V(1, 0, 0))
	lt := &Trimmed{Basis: l, Trim1: AtParam(2), Trim2: AtParam(2), Sense: true}
	if _, _, err := lt.Resolve(registry(t, workaround.SnapTrimToCurve), geom.DefaultTolerance()); !errors.Is(err, geom.ErrTrimResolution) {
		t.Fatalf("a line has no valid sub-range to snap to, got %v", err)
	}
}

func TestResolvePointTrims(t *testing.T) {
	l, _ := NewLine(geom.V(0, 0, 0), geom.V(2, 0, 0))
	tr := &Trimmed{Basis: l, Trim1: AtPoint(geom.V(1, 0, 0)), Trim2: AtPoint(geom.V(4, 0, 0)), Sense: true}
	span, _, err := tr.Resolve(registry(t), geom.DefaultTolerance())
	if err != nil {
		t.Fatal(err)
	}
	if span.T0 != 0.5 || span.T1 != 2 {
		t.Errorf("span = %g..%g, want 0.5..2", span.T0, span.T1)
	}

	tr.Trim2 = AtPoint(geom.V(4, 0.1, 0))
	if _, _, err := tr.Resolve(registry(t), geom.DefaultTolerance()); !errors.Is(err, geom.ErrTrimResolution) {
		t.Fatalf("expected off-curve trim to fail, got %v", err)
	}
	if _, healed, err := tr.Resolve(registry(t, workaround.SnapTrimToCurve), geom.DefaultTolerance()); err != nil || len(healed) != 1 {
		t.Fatalf("snap: healed=%v err=%v", healed, err)
	}
}

func TestResolvePolylineTrimLengthOne(t *testing.T) {
	pl, _ := NewPolyline([]geom.Vec{geom.V(0, 0, 0), geom.V(4, 0, 0), geom.V(4, 3, 0), geom.V(0, 3, 0), geom.V(0, 0, 0)})
	tr := &Trimmed{Basis: pl, Trim1: AtParam(0), Trim2: AtParam(1), Sense: true}
	tol := geom.DefaultTolerance()

	span, _, err := tr.Resolve(registry(t), tol)
	if err != nil {
		t.Fatal(err)
	}
	if got := span.Length(tol); math.Abs(got-4) > 1e-12 {
		t.Errorf("literal trim length = %g, want 4", got)
	}

	span, healed, err := tr.Resolve(registry(t, workaround.PolylineTrimLengthOne), tol)
	if err != nil {
		t.Fatal(err)
	}
	if len(healed) != 1 {
		t.Errorf("healed = %v", healed)
	}
	if got := span.Length(tol); math.Abs(got-14) > 1e-12 {
		t.Errorf("healed trim length = %g, want 14", got)
	}
}

func TestSpanReversedParams(t *testing.T) {
	pl, _ := NewPolyline([]geom.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(2, 0, 0)})
	s := Span{Curve: pl, T0: 2, T1: 0}
	ts := s.Params(geom.DefaultTolerance())
	if len(ts) != 3 || ts[0] != 2 || ts[2] != 0 {
		t.Errorf("Params = %v", ts)
	}
	if s.Start() != geom.V(2, 0, 0) {
		t.Errorf("Start = %v", s.Start())
	}
}
