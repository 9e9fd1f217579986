package model

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
)

// EntityID is the instance number of an entity in its source file. Zero
// means the entity was synthesised.
type EntityID int

// Label renders the id the way STEP files write it.
func (id EntityID) Label() string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("#%d", int(id))
}

// EdgeDef is an edge curve between two vertices. SameSense false means the
// edge runs against the curve's parametrisation.
type EdgeDef struct {
	ID        EntityID
	Start     geom.Vec
	End       geom.Vec
	Curve     curve.Curve
	SameSense bool
}

// OrientedEdge is a use of an edge within a loop. Orientation false
// traverses the edge from End to Start.
type OrientedEdge struct {
	Edge        *EdgeDef
	Orientation bool
}

// LoopDef is either an edge loop or a poly loop. A poly loop lists its
// corner points and has no Edges.
type LoopDef struct {
	ID      EntityID
	Edges   []OrientedEdge
	Polygon []geom.Vec
}

// IsPoly reports whether the loop is a poly loop.
func (l *LoopDef) IsPoly() bool { return len(l.Edges) == 0 && len(l.Polygon) > 0 }

// BoundDef attaches a loop to a face. Orientation false reverses the loop.
type BoundDef struct {
	Loop        *LoopDef
	Orientation bool
	Outer       bool
}

// SurfaceKind enumerates the surface descriptors.
type SurfaceKind int

const (
	SurfacePlane SurfaceKind = iota
	SurfaceCylinder
	SurfaceLinearExtrusion
	SurfaceSweptArea
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfacePlane:
		return "plane"
	case SurfaceCylinder:
		return "cylinder"
	case SurfaceLinearExtrusion:
		return "linear-extrusion"
	case SurfaceSweptArea:
		return "swept-area"
	default:
		return "unknown"
	}
}

// SurfaceDef describes a face surface. Which fields are meaningful depends
// on Kind: Radius for cylinders; Profile, Dir and Depth for linear
// extrusions; Profile, Directrix and Dir (the section reference direction)
// for swept areas. The surface itself is built at reconstruction time because
// its interpretation can depend on active workarounds.
type SurfaceDef struct {
	ID      EntityID
	Kind    SurfaceKind
	Frame   geom.Frame
	Radius  float64
	Profile curve.Curve
	Dir     geom.Vec
	Depth   float64

	Directrix curve.Curve
}

// FaceDef is an advanced face: a surface plus its bounds. SameSense false
// means the face normal opposes the surface normal.
type FaceDef struct {
	ID        EntityID
	Surface   *SurfaceDef
	Bounds    []BoundDef
	SameSense bool
}

// Brep is an advanced B-rep: a closed shell described face by face.
type Brep struct {
	ID    EntityID
	Name  string
	Faces []*FaceDef
}

// FaceCount returns the number of declared faces.
func (b *Brep) FaceCount() int { return len(b.Faces) }

// ProfileKind enumerates swept-area profiles.
type ProfileKind int

const (
	ProfileRectangle ProfileKind = iota
	ProfileCircle
	ProfilePolygon
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileRectangle:
		return "rectangle"
	case ProfileCircle:
		return "circle"
	case ProfilePolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// ProfileDef is a closed 2D area in the XY plane of the sweep section.
// Rectangles and circles are centred on the origin; polygon points are
// listed without repeating the first.
type ProfileDef struct {
	ID     EntityID
	Kind   ProfileKind
	XDim   float64
	YDim   float64
	Radius float64
	Points []geom.Vec
}

// SweptSolid is a profile swept along a directrix lying on a reference
// surface. StartParam and EndParam trim the directrix; when absent the
// whole directrix is used.
type SweptSolid struct {
	ID               EntityID
	Name             string
	Profile          *ProfileDef
	Position         geom.Frame
	Directrix        curve.Curve
	StartParam       float64
	HasStart         bool
	EndParam         float64
	HasEnd           bool
	ReferenceSurface *SurfaceDef
}

// PlanarFace wraps a polygon as a face on its own plane: the plane passes
// through the centroid, its normal follows the polygon winding and its X
// axis runs along the first side.
func PlanarFace(id EntityID, poly []geom.Vec) (*FaceDef, error) {
	normal := geom.PolygonNormal(poly)
	if _, ok := geom.Unit(normal); !ok || len(poly) < 3 {
		return nil, fmt.Errorf("%w: planar face has no area", geom.ErrDegenerateGeometry)
	}
	frame, err := geom.NewFrame(geom.Centroid(poly), normal, poly[1].Sub(poly[0]))
	if err != nil {
		return nil, fmt.Errorf("planar face: %w", err)
	}
	return &FaceDef{
		ID:      id,
		Surface: &SurfaceDef{ID: id, Kind: SurfacePlane, Frame: frame},
		Bounds: []BoundDef{{
			Loop:        &LoopDef{ID: id, Polygon: poly},
			Orientation: true,
			Outer:       true,
		}},
		SameSense: true,
	}, nil
}
