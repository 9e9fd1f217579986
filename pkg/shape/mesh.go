package shape

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// Vertices are not shared between triangles so that every triangle
// carries its own face normal.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which solid this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Meshes flattens the geometry into one render mesh per solid. Solid i is
// named "solid-i".
func (g *Geometry) Meshes() []*Mesh {
	out := make([]*Mesh, 0, len(g.Solids))
	for i, s := range g.Solids {
		m := &Mesh{PartName: fmt.Sprintf("solid-%d", i)}
		for _, f := range s.Faces {
			for _, t := range f.Triangles {
				a, b, c := s.Positions[t[0]], s.Positions[t[1]], s.Positions[t[2]]
				n, ok := geom.Unit(geom.TriangleNormal(a, b, c))
				if !ok {
					continue
				}
				for _, p := range [3]geom.Vec{a, b, c} {
					m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
					m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
					m.Indices = append(m.Indices, uint32(len(m.Indices)))
				}
			}
		}
		out = append(out, m)
	}
	return out
}
