// Package sdfx bridges tessellated geometry to the github.com/deadsy/sdfx
// CAD library, mainly to write STL files with its renderer.
package sdfx

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/shape"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// Triangles converts every triangle of the geometry to an sdfx triangle.
// Triangles without area are skipped.
func Triangles(g *shape.Geometry) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, s := range g.Solids {
		for _, f := range s.Faces {
			for _, t := range f.Triangles {
				a, b, c := s.Positions[t[0]], s.Positions[t[1]], s.Positions[t[2]]
				if _, ok := geom.Unit(geom.TriangleNormal(a, b, c)); !ok {
					continue
				}
				out = append(out, &sdf.Triangle3{a, b, c})
			}
		}
	}
	return out
}

// SaveSTL writes the geometry as a binary STL file.
func SaveSTL(path string, g *shape.Geometry) error {
	tris := Triangles(g)
	if len(tris) == 0 {
		return fmt.Errorf("stl %s: geometry has no triangles", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("stl %s: %w", path, err)
	}
	return nil
}
