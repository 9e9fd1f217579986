package solid

import (
	"testing"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/facet"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/model/modeltest"
	"github.com/chazu/ifcsolid/pkg/sew"
	"github.com/chazu/ifcsolid/pkg/topo"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shells(t *testing.T, faces []*model.FaceDef) []*sew.Shell {
	t.Helper()
	tol := geom.DefaultTolerance()
	built := topo.NewBuilder(tol, workaround.NewRegistry(uuid.New()), nil).BuildFaces(faces)
	out, err := sew.Sew(built, tol, nil, nil)
	require.NoError(t, err)
	return out
}

func options(p Policy, log *diag.Log) Options {
	return Options{Tolerance: geom.DefaultTolerance(), Policy: p, Limits: geom.DefaultLimits(), Log: log}
}

func TestDecomposeFlipsInconsistentFace(t *testing.T) {
	b := modeltest.Box(0, geom.V(0, 0, 0), geom.V(1, 1, 1), modeltest.Options{})
	b.Faces[3].Bounds[0].Orientation = false

	log := &diag.Log{}
	set, err := Decompose(shells(t, b.Faces), options(RetainEnclosed, log))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	s := set.Solids[0]
	assert.True(t, s.Closed())
	assert.True(t, s.Consistent())
	assert.Equal(t, 1, log.Count(diag.KindFlipped))

	faces := s.Faces()
	assert.True(t, faces[3].Flipped)
	assert.InDelta(t, 1, s.Mesh().Volume(geom.V(0.5, 0.5, 0.5)), 1e-12)
}

func TestDecomposePolicies(t *testing.T) {
	var faces []*model.FaceDef
	faces = append(faces, modeltest.Box(0, geom.V(0, 0, 0), geom.V(1, 1, 1), modeltest.Options{}).Faces...)
	open := modeltest.Box(100, geom.V(3, 0, 0), geom.V(1, 1, 1), modeltest.Options{}).Faces
	faces = append(faces, open[1:]...) // no bottom
	flat := modeltest.Box(200, geom.V(6, 0, 0), geom.V(1, 1, 1), modeltest.Options{}).Faces
	faces = append(faces, flat[0]) // a lone face encloses nothing

	tests := []struct {
		policy Policy
		want   []int
	}{
		{RetainEnclosed, []int{6, 5}},
		{DropOpen, []int{6}},
		{RetainAll, []int{6, 5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			set, err := Decompose(shells(t, faces), options(tt.policy, nil))
			require.NoError(t, err)
			var got []int
			for _, s := range set.Solids {
				got = append(got, s.FaceCount())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnclosesFallsBackToSurfaceSamples(t *testing.T) {
	// an L-shaped cross-section puts the box centre outside the solid
	mesh := facet.Mesh{}
	add := func(origin, size geom.Vec) {
		b := modeltest.Box(0, origin, size, modeltest.Options{})
		set, err := Decompose(shells(t, b.Faces), options(RetainAll, nil))
		require.NoError(t, err)
		m := set.Solids[0].Mesh()
		base := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, m.Positions...)
		for _, tr := range m.Triangles {
			mesh.Triangles = append(mesh.Triangles, [3]int{tr[0] + base, tr[1] + base, tr[2] + base})
		}
	}
	add(geom.V(0, 0, 0), geom.V(4, 1, 1))
	add(geom.V(0, 1, 0), geom.V(1, 3, 1))
	assert.True(t, Encloses(mesh, geom.DefaultTolerance()))
	assert.False(t, Encloses(facet.Mesh{}, geom.DefaultTolerance()))
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{RetainEnclosed, DropOpen, RetainAll} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestInverted(t *testing.T) {
	b := modeltest.Box(0, geom.V(0, 0, 0), geom.V(1, 1, 1), modeltest.Options{})
	set, err := Decompose(shells(t, b.Faces), options(RetainEnclosed, nil))
	require.NoError(t, err)
	s := set.Solids[0]
	inv := s.Inverted()
	c := geom.V(0.5, 0.5, 0.5)
	assert.InDelta(t, -s.Mesh().Volume(c), inv.Mesh().Volume(c), 1e-12)
	assert.False(t, s.Faces()[0].Flipped, "original is unchanged")
}

// ring links three faces in a cycle; the last edge's sense decides whether
// the cycle can be oriented.
func ring(lastSame bool) *sew.Shell {
	e1, e2, e3 := &topo.Edge{ID: 1}, &topo.Edge{ID: 2}, &topo.Edge{ID: 3}
	return &sew.Shell{
		Faces: []*sew.Face{{}, {}, {}},
		Edges: []*topo.Edge{e1, e2, e3},
		Uses: map[*topo.Edge][]sew.EdgeRef{
			e1: {{Face: 0}, {Face: 1, Reversed: true}},
			e2: {{Face: 1}, {Face: 2}},
			e3: {{Face: 2}, {Face: 0, Reversed: !lastSame}},
		},
	}
}

func TestOrientPropagatesThroughFaceGraph(t *testing.T) {
	flips, consistent, err := orient(ring(true), nil)
	require.NoError(t, err)
	assert.True(t, consistent)
	assert.Equal(t, []bool{false, false, true}, flips)

	_, consistent, err = orient(ring(false), nil)
	require.NoError(t, err)
	assert.False(t, consistent)

	_, _, err = orient(ring(true), geom.NewBudget("shell", 2))
	assert.ErrorIs(t, err, geom.ErrReconstructionTimeout)
}
