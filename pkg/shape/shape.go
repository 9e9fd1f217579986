// Package shape holds tessellated geometry: per solid, a vertex table and
// the triangles of every face, tagged with the encoding it is written in.
package shape

import (
	"fmt"
	"strings"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// Type is the encoding of a Geometry.
type Type int

const (
	// PolyhedronBinary is the packed little-endian encoding.
	PolyhedronBinary Type = iota
	// Polyhedron is a line-oriented text encoding with "v" and "f" records.
	Polyhedron
)

func (t Type) String() string {
	switch t {
	case PolyhedronBinary:
		return "polyhedron-binary"
	case Polyhedron:
		return "polyhedron"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType reads a type name.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "polyhedron-binary", "binary":
		return PolyhedronBinary, nil
	case "polyhedron", "text":
		return Polyhedron, nil
	}
	return 0, fmt.Errorf("unknown geometry type %q", s)
}

// Face is the triangulation of one source face.
type Face struct {
	Entity    string      `json:"entity,omitempty"`
	Triangles [][3]uint32 `json:"triangles"`
}

// Solid is the tessellation of one solid. Faces index into Positions;
// faces that share an edge share its vertices.
type Solid struct {
	Positions []geom.Vec `json:"positions"`
	Faces     []Face     `json:"faces"`
}

// TriangleCount returns the number of triangles over all faces.
func (s *Solid) TriangleCount() int {
	n := 0
	for _, f := range s.Faces {
		n += len(f.Triangles)
	}
	return n
}

// Geometry is a tessellated solid set.
type Geometry struct {
	Type   Type     `json:"type"`
	Solids []*Solid `json:"solids"`
}

// TriangleCount returns the number of triangles over all solids.
func (g *Geometry) TriangleCount() int {
	n := 0
	for _, s := range g.Solids {
		n += s.TriangleCount()
	}
	return n
}

// IsEmpty reports whether the geometry has no triangles.
func (g *Geometry) IsEmpty() bool { return g.TriangleCount() == 0 }

// Bounds returns the bounding box of every vertex.
func (g *Geometry) Bounds() (geom.Vec, geom.Vec) {
	var pts []geom.Vec
	for _, s := range g.Solids {
		pts = append(pts, s.Positions...)
	}
	bb := geom.Bounds(pts)
	return bb.Min, bb.Max
}
