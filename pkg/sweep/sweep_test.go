package sweep

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const railDepth = 11.508373673816533

// polyVolume is the divergence-theorem volume of a closed polyhedron with
// planar faces.
func polyVolume(b *model.Brep) float64 {
	v := 0.0
	for _, f := range b.Faces {
		poly := f.Bounds[0].Loop.Polygon
		v += poly[0].Dot(geom.PolygonNormal(poly))
	}
	return v / 6
}

func rail(t *testing.T) *model.SweptSolid {
	t.Helper()
	path, err := curve.NewPolyline([]geom.Vec{
		geom.V(0, 0, 0), geom.V(20, 0, 0), geom.V(20, railDepth, 0), geom.V(0, railDepth, 0), geom.V(0, 0, 0),
	})
	require.NoError(t, err)
	return &model.SweptSolid{
		ID:         40,
		Profile:    &model.ProfileDef{ID: 41, Kind: model.ProfileRectangle, XDim: 0.5, YDim: 0.4},
		Position:   geom.WorldFrame,
		Directrix:  path,
		StartParam: 0, HasStart: true,
		EndParam: 1, HasEnd: true,
	}
}

func TestBuildClosedRailWithPolylineTrimWorkaround(t *testing.T) {
	reg := workaround.NewRegistry(uuid.New())
	require.NoError(t, reg.Enable(workaround.PolylineTrimLengthOne))
	log := &diag.Log{}

	b, err := Build(rail(t), Options{Tolerance: geom.DefaultTolerance(), Workarounds: reg, Log: log})
	require.NoError(t, err)
	assert.Len(t, b.Faces, 16, "four mitred segments, four sides each, no caps")
	assert.InDelta(t, 12.603349469526613, polyVolume(b), 1e-7)
	assert.Equal(t, 1, log.Count(diag.KindHealed))
}

func TestBuildRailLiteralTrim(t *testing.T) {
	b, err := Build(rail(t), Options{Tolerance: geom.DefaultTolerance(), Workarounds: workaround.NewRegistry(uuid.New())})
	require.NoError(t, err)
	assert.Len(t, b.Faces, 6)
	assert.InDelta(t, 0.5*0.4*20, polyVolume(b), 1e-9)
}

func TestBuildCircleProfileAlongLine(t *testing.T) {
	line, err := curve.LineThrough(geom.V(0, 0, 0), geom.V(0, 0, 3))
	require.NoError(t, err)
	def := &model.SweptSolid{
		ID:         7,
		Profile:    &model.ProfileDef{Kind: model.ProfileCircle, Radius: 1},
		Directrix:  line,
		StartParam: 0, HasStart: true,
		EndParam: 1, HasEnd: true,
	}
	// the directrix runs along the default reference normal
	_, err = Build(def, Options{Tolerance: geom.DefaultTolerance()})
	require.ErrorIs(t, err, geom.ErrDegenerateGeometry)

	line, err = curve.LineThrough(geom.V(0, 0, 0), geom.V(3, 0, 0))
	require.NoError(t, err)
	def.Directrix = line
	b, err := Build(def, Options{Tolerance: geom.DefaultTolerance()})
	require.NoError(t, err)
	v := polyVolume(b)
	assert.Less(t, v, 3*math.Pi)
	assert.InEpsilon(t, 3*math.Pi, v, 0.01)
}

func TestBuildPositionMovesSolid(t *testing.T) {
	reg := workaround.NewRegistry(uuid.New())
	require.NoError(t, reg.Enable(workaround.PolylineTrimLengthOne))
	def := rail(t)
	pos, err := geom.NewFrame(geom.V(100, 0, 5), geom.V(0, 0, 1), geom.V(0, 1, 0))
	require.NoError(t, err)
	def.Position = pos

	b, err := Build(def, Options{Tolerance: geom.DefaultTolerance(), Workarounds: reg})
	require.NoError(t, err)
	assert.InDelta(t, 12.603349469526613, polyVolume(b), 1e-7)
	for _, f := range b.Faces {
		for _, p := range f.Bounds[0].Loop.Polygon {
			assert.InDelta(t, 5, p.Z, 0.2+1e-9)
			assert.Greater(t, p.X, 80.0)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(*model.SweptSolid)
		want error
	}{
		{"no profile", func(d *model.SweptSolid) { d.Profile = nil }, geom.ErrDegenerateGeometry},
		{"flat rectangle", func(d *model.SweptSolid) { d.Profile.YDim = 0 }, geom.ErrDegenerateGeometry},
		{"no directrix", func(d *model.SweptSolid) { d.Directrix = nil }, geom.ErrDegenerateGeometry},
		{"coincident trims", func(d *model.SweptSolid) { d.EndParam = 0 }, geom.ErrTrimResolution},
		{"collinear polygon", func(d *model.SweptSolid) {
			d.Profile = &model.ProfileDef{Kind: model.ProfilePolygon, Points: []geom.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(2, 0, 0)}}
		}, geom.ErrDegenerateGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := rail(t)
			tt.edit(def)
			_, err := Build(def, Options{Tolerance: geom.DefaultTolerance(), Workarounds: workaround.NewRegistry(uuid.New())})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOutlineCounterClockwise(t *testing.T) {
	ring, err := outline(&model.ProfileDef{Kind: model.ProfilePolygon, Points: []geom.Vec{
		geom.V(0, 0, 0), geom.V(0, 1, 0), geom.V(1, 1, 0), geom.V(1, 0, 0), geom.V(0, 0, 0),
	}}, geom.DefaultTolerance())
	require.NoError(t, err)
	require.Len(t, ring, 4)
	assert.Greater(t, geom.PolygonNormal(ring).Z, 0.0)
}
