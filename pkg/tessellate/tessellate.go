// Package tessellate turns reconstructed solids into shape geometry at a
// caller-chosen accuracy. Each face is triangulated on its own; shared
// edges are discretised once per edge, so neighbouring faces meet on the
// same vertices. The tessellator is read-only and never mutates a solid.
package tessellate

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/facet"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/shape"
	"github.com/chazu/ifcsolid/pkg/solid"
)

// Params controls the accuracy and encoding of a tessellation.
type Params struct {
	Precision           float64
	DeflectionTolerance float64
	DeflectionAngle     float64
	Type                shape.Type
	// FaceSteps caps refinement per face; zero means the default.
	FaceSteps int
}

// FromTolerance returns parameters matching a tolerance context.
func FromTolerance(tol geom.Tolerance, t shape.Type) Params {
	return Params{
		Precision:           tol.Precision,
		DeflectionTolerance: tol.DeflectionTolerance,
		DeflectionAngle:     tol.DeflectionAngle,
		Type:                t,
	}
}

func (p Params) tolerance() geom.Tolerance {
	return geom.Tolerance{
		Precision:           p.Precision,
		DeflectionTolerance: p.DeflectionTolerance,
		DeflectionAngle:     p.DeflectionAngle,
	}
}

// Tessellate triangulates every solid of a set, in set order. Faces with
// no area are skipped and recorded in log.
func Tessellate(set *solid.Set, p Params, log *diag.Log) (*shape.Geometry, error) {
	tol := p.tolerance()
	if err := tol.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	g := &shape.Geometry{Type: p.Type}
	if set == nil {
		return g, nil
	}
	for i, s := range set.Solids {
		out, err := tessellateSolid(s, p, tol, log)
		if err != nil {
			return nil, fmt.Errorf("tessellate: solid %d: %w", i, err)
		}
		g.Solids = append(g.Solids, out)
	}
	return g, nil
}

// Solid triangulates a single solid.
func Solid(s *solid.Solid, p Params, log *diag.Log) (*shape.Geometry, error) {
	return Tessellate(&solid.Set{Solids: []*solid.Solid{s}}, p, log)
}

func tessellateSolid(s *solid.Solid, p Params, tol geom.Tolerance, log *diag.Log) (*shape.Solid, error) {
	steps := p.FaceSteps
	if steps == 0 {
		steps = geom.DefaultFaceSteps
	}
	out := &shape.Solid{}
	index := make(map[geom.Vec]uint32)
	vertex := func(v geom.Vec) uint32 {
		if i, ok := index[v]; ok {
			return i
		}
		i := uint32(len(out.Positions))
		index[v] = i
		out.Positions = append(out.Positions, v)
		return i
	}

	for _, f := range s.Faces() {
		label := f.Label()
		rings := f.Source.RingsAt(tol)
		mesh, err := facet.Triangulate(f.Source.Source.Surface, rings[0], rings[1:], facet.Options{
			Tolerance: tol,
			Budget:    geom.NewBudget("face "+label, steps),
			Log:       log,
			Entity:    label,
		})
		if err != nil {
			return nil, err
		}
		if mesh.IsEmpty() {
			log.Addf(diag.StageTessel, diag.KindDropped, diag.SeverityInfo, label, "face without area skipped")
			continue
		}
		if f.Flipped {
			mesh = mesh.Flipped()
		}
		sf := shape.Face{Entity: label, Triangles: make([][3]uint32, 0, len(mesh.Triangles))}
		for _, t := range mesh.Triangles {
			a, b, c := vertex(mesh.Positions[t[0]]), vertex(mesh.Positions[t[1]]), vertex(mesh.Positions[t[2]])
			if a == b || b == c || c == a {
				continue
			}
			sf.Triangles = append(sf.Triangles, [3]uint32{a, b, c})
		}
		out.Faces = append(out.Faces, sf)
	}
	return out, nil
}
