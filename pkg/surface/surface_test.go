package surface

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
)

func TestPlaneProject(t *testing.T) {
	f, _ := geom.NewFrame(geom.V(0, 0, 1), geom.V(0, 0, 1), geom.V(1, 0, 0))
	s := NewPlane(f)
	u, v, d := s.Project(geom.V(2, 3, 4))
	if u != 2 || v != 3 || d != 3 {
		t.Errorf("Project = (%g, %g, %g)", u, v, d)
	}
}

func TestCylinderProjectAndNormal(t *testing.T) {
	s, err := NewCylinder(geom.WorldFrame, 2)
	if err != nil {
		t.Fatal(err)
	}
	u, v, d := s.Project(geom.V(0, 3, 5))
	if math.Abs(u-math.Pi/2) > 1e-12 || v != 5 || math.Abs(d-1) > 1e-12 {
		t.Errorf("Project = (%g, %g, %g)", u, v, d)
	}
	if n := s.Normal(u, v); geom.Dist(n, geom.V(0, 1, 0)) > 1e-12 {
		t.Errorf("Normal = %v, want outward +Y", n)
	}
	if _, err := NewCylinder(geom.WorldFrame, -1); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestLinearExtrusionDirectionFrame(t *testing.T) {
	// placement rotated so its Z axis is world X
	f, err := geom.NewFrame(geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	line, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(1, 0, 0))

	local, err := NewLinearExtrusion(line, f, geom.V(0, 0, 1), 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if geom.Dist(local.Dir, geom.V(1, 0, 0)) > 1e-12 {
		t.Errorf("local direction mapped to %v, want world X", local.Dir)
	}

	// the profile runs along world Y; a world Y direction cannot extrude it
	if _, err := NewLinearExtrusion(line, f, geom.V(0, 1, 0), 3, true); !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
	world, err := NewLinearExtrusion(line, f, geom.V(0, 0, 1), 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if geom.Dist(world.Dir, geom.V(0, 0, 1)) > 1e-12 {
		t.Errorf("world direction = %v", world.Dir)
	}
	// a point on the wall spanned by world Y and world Z
	u, v, d := world.Project(geom.V(0, 0.5, 2))
	if math.Abs(u-0.5) > 1e-12 || math.Abs(v-2) > 1e-12 || d > 1e-12 {
		t.Errorf("Project = (%g, %g, %g)", u, v, d)
	}
}

func TestLinearExtrusionProjectRoundTrip(t *testing.T) {
	circ, _ := curve.NewCircle(geom.WorldFrame, 1.5)
	s, err := NewLinearExtrusion(circ, geom.WorldFrame, geom.V(0, 0, 1), 4, false)
	if err != nil {
		t.Fatal(err)
	}
	p := s.Point(1.2, 2.5)
	u, v, d := s.Project(p)
	if math.Abs(u-1.2) > 1e-9 || math.Abs(v-2.5) > 1e-9 || d > 1e-9 {
		t.Errorf("Project(Point(1.2, 2.5)) = (%g, %g, %g)", u, v, d)
	}
	if s.Planar() {
		t.Error("circular extrusion is not planar")
	}
	if _, ok := s.UPeriod(); !ok {
		t.Error("circular extrusion should be periodic in u")
	}
}

func ring(t *testing.T, radius float64) *curve.Circle {
	t.Helper()
	c, err := curve.NewCircle(geom.WorldFrame, radius)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSweptAreaAcrossPeriod(t *testing.T) {
	// a profile line along the section Y axis sweeps a cylinder wall
	up, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(0, 1, 0))
	s, err := NewSweptArea(up, ring(t, 5), geom.WorldFrame, geom.V(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if period, ok := s.UPeriod(); !ok || math.Abs(period-2*math.Pi) > 1e-12 {
		t.Fatalf("UPeriod = %g, %v", period, ok)
	}
	if d := geom.Dist(s.Point(0, 1.5), s.Point(2*math.Pi, 1.5)); d > 1e-9 {
		t.Errorf("surface jumps by %g across the period", d)
	}
	if d := geom.Dist(s.Point(-0.25, 1), s.Point(2*math.Pi-0.25, 1)); d > 1e-9 {
		t.Errorf("surface jumps by %g below the domain start", d)
	}
	if p := s.Point(math.Pi/2, 2); geom.Dist(p, geom.V(0, 5, 2)) > 1e-9 {
		t.Errorf("Point(pi/2, 2) = %v", p)
	}
	if n := s.Normal(math.Pi/2, 2); geom.Dist(n, geom.V(0, 1, 0)) > 1e-6 {
		t.Errorf("Normal = %v, want outward +Y", n)
	}
}

func TestSweptAreaProjectRoundTrip(t *testing.T) {
	across, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(1, 0, 0))
	up, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(0, 1, 0))
	f, _ := geom.NewFrame(geom.V(1, 2, 3), geom.V(0, 0, 1), geom.V(1, 0, 0))
	tests := []struct {
		name    string
		profile curve.Curve
		u, v    float64
	}{
		{"annulus", across, 0.3, 1.25},
		{"annulus near seam", across, 2*math.Pi - 1e-3, 0.5},
		{"wall", up, 4.0, -2},
		{"wall at seam", up, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSweptArea(tt.profile, ring(t, 5), f, geom.V(0, 0, 1))
			if err != nil {
				t.Fatal(err)
			}
			p := s.Point(tt.u, tt.v)
			u, v, d := s.Project(p)
			if d > 1e-9 {
				t.Fatalf("Project(%v) distance = %g", p, d)
			}
			if q := s.Point(u, v); geom.Dist(p, q) > 1e-9 {
				t.Errorf("Project gave (%g, %g) -> %v, want %v", u, v, q, p)
			}
			if math.Abs(v-tt.v) > 1e-9 {
				t.Errorf("v = %g, want %g", v, tt.v)
			}
		})
	}
}

func TestNewSweptAreaDegenerate(t *testing.T) {
	up, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(0, 1, 0))
	straight, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(0, 0, 1))
	tests := []struct {
		name      string
		directrix curve.Curve
		ref       geom.Vec
	}{
		{"unbounded directrix", straight, geom.V(1, 0, 0)},
		{"zero reference", ring(t, 2), geom.V(0, 0, 0)},
		{"reference along directrix", ring(t, 2), geom.V(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSweptArea(up, tt.directrix, geom.WorldFrame, tt.ref); !errors.Is(err, geom.ErrDegenerateGeometry) {
				t.Errorf("expected ErrDegenerateGeometry, got %v", err)
			}
		})
	}
}
