// Package modeltest builds small B-rep fixtures for tests: regular prisms,
// boxes and cylinders, each optionally carrying one of the authoring
// defects the pipeline knows how to tolerate.
package modeltest

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/curve"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
)

// Options selects how a prism is written.
type Options struct {
	// Phase rotates the first vertex away from the +X axis.
	Phase float64
	// TrimmedEdges writes every edge curve as a line trimmed by parameter.
	TrimmedEdges bool
	// ExtrusionSides writes side faces as surfaces of linear extrusion
	// with the extrusion direction in world coordinates, the way some
	// Revit exports do.
	ExtrusionSides bool
	// BadEdge, when positive, offsets the curve of bottom edge BadEdge-1
	// so that it misses its vertices.
	BadEdge int
	// DegenerateEdge adds a zero-length edge to the top loop.
	DegenerateEdge bool
}

// ids hands out entity ids.
type ids struct{ next model.EntityID }

func (g *ids) id() model.EntityID {
	g.next++
	return g.next
}

// PrismVolume is the volume of a regular n-gon prism.
func PrismVolume(n int, radius, height float64) float64 {
	return float64(n) / 2 * radius * radius * math.Sin(2*math.Pi/float64(n)) * height
}

// Prism returns a vertical regular n-gon prism standing on center. Entity
// ids start above base. It has n+2 faces: bottom, top, then the sides.
func Prism(base model.EntityID, n int, center geom.Vec, radius, height float64, opt Options) *model.Brep {
	g := &ids{next: base}
	up := geom.V(0, 0, height)
	bottom := make([]geom.Vec, n)
	top := make([]geom.Vec, n)
	for i := 0; i < n; i++ {
		a := opt.Phase + 2*math.Pi*float64(i)/float64(n)
		bottom[i] = center.Add(geom.V(radius*math.Cos(a), radius*math.Sin(a), 0))
		top[i] = bottom[i].Add(up)
	}

	eb := make([]*model.EdgeDef, n)
	et := make([]*model.EdgeDef, n)
	ev := make([]*model.EdgeDef, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		eb[i] = edge(g, bottom[i], bottom[j], opt.TrimmedEdges)
		et[i] = edge(g, top[i], top[j], opt.TrimmedEdges)
		ev[i] = edge(g, bottom[i], top[i], opt.TrimmedEdges)
	}
	if k := opt.BadEdge - 1; k >= 0 && k < n {
		off, _ := curve.NewLine(bottom[k].Add(geom.V(0, 0, radius/10)), bottom[(k+1)%n].Sub(bottom[k]))
		eb[k].Curve = off
	}

	b := &model.Brep{ID: g.id()}

	// bottom: clockwise from above so that its normal points down
	var bl []model.OrientedEdge
	for i := n - 1; i >= 0; i-- {
		bl = append(bl, model.OrientedEdge{Edge: eb[i], Orientation: false})
	}
	down, _ := geom.NewFrame(center, geom.V(0, 0, -1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, down, bl))

	var tl []model.OrientedEdge
	for i := 0; i < n; i++ {
		tl = append(tl, model.OrientedEdge{Edge: et[i], Orientation: true})
		if i == 0 && opt.DegenerateEdge {
			line, _ := curve.NewLine(top[1], top[2].Sub(top[1]))
			tl = append(tl, model.OrientedEdge{
				Edge:        &model.EdgeDef{ID: g.id(), Start: top[1], End: top[1], Curve: line, SameSense: true},
				Orientation: true,
			})
		}
	}
	upf, _ := geom.NewFrame(center.Add(up), geom.V(0, 0, 1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, upf, tl))

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		loop := []model.OrientedEdge{
			{Edge: eb[i], Orientation: true},
			{Edge: ev[j], Orientation: true},
			{Edge: et[i], Orientation: false},
			{Edge: ev[i], Orientation: false},
		}
		along := bottom[j].Sub(bottom[i])
		mid := geom.Lerp(bottom[i], bottom[j], 0.5).Sub(center)
		outward := geom.V(mid.X, mid.Y, 0)
		f, _ := geom.NewFrame(bottom[i], outward, along)
		if !opt.ExtrusionSides {
			b.Faces = append(b.Faces, planarFace(g, f, loop))
			continue
		}
		profile, _ := curve.NewLine(geom.V(0, 0, 0), geom.V(along.Length(), 0, 0))
		s := &model.SurfaceDef{
			ID:      g.id(),
			Kind:    model.SurfaceLinearExtrusion,
			Frame:   f,
			Profile: profile,
			Dir:     geom.V(0, 0, 1), // world up; the placement's Y axis is the correct local direction
			Depth:   height,
		}
		b.Faces = append(b.Faces, face(g, s, loop))
	}
	return b
}

// Box is an axis-aligned box with its minimum corner at origin.
func Box(base model.EntityID, origin, size geom.Vec, opt Options) *model.Brep {
	// a square prism scaled to the box footprint
	b := Prism(base, 4, geom.V(0, 0, 0), math.Sqrt2/2, 1, Options{
		Phase:          math.Pi / 4,
		TrimmedEdges:   opt.TrimmedEdges,
		ExtrusionSides: opt.ExtrusionSides,
		BadEdge:        opt.BadEdge,
		DegenerateEdge: opt.DegenerateEdge,
	})
	centre := origin.Add(size.MulScalar(0.5))
	scale := func(p geom.Vec) geom.Vec {
		return geom.V(centre.X+p.X*size.X, centre.Y+p.Y*size.Y, origin.Z+p.Z*size.Z)
	}
	transform(b, scale)
	return b
}

// transform maps every vertex and placement of a prism-shaped B-rep
// through an axis-aligned affine map.
func transform(b *model.Brep, m func(geom.Vec) geom.Vec) {
	seenEdge := map[*model.EdgeDef]bool{}
	seenSurf := map[*model.SurfaceDef]bool{}
	for _, f := range b.Faces {
		if !seenSurf[f.Surface] {
			seenSurf[f.Surface] = true
			s := f.Surface
			o := s.Frame.Origin
			if s.Kind == model.SurfaceLinearExtrusion {
				if l, ok := s.Profile.(*curve.Line); ok {
					end := m(o.Add(s.Frame.X.MulScalar(l.Dir.X)))
					l.Dir = geom.V(geom.Dist(m(o), end), 0, 0)
				}
				s.Depth = m(o.Add(geom.V(0, 0, s.Depth))).Z - m(o).Z
			}
			s.Frame.Origin = m(o)
		}
		for _, bd := range f.Bounds {
			for _, oe := range bd.Loop.Edges {
				e := oe.Edge
				if seenEdge[e] {
					continue
				}
				seenEdge[e] = true
				e.Start, e.End = m(e.Start), m(e.End)
				e.Curve = remap(e.Curve, m, e.Start, e.End)
			}
		}
	}
}

func remap(c curve.Curve, m func(geom.Vec) geom.Vec, start, end geom.Vec) curve.Curve {
	switch v := c.(type) {
	case *curve.Line:
		o := m(v.Origin)
		d := m(v.Origin.Add(v.Dir)).Sub(o)
		if d.Length() == 0 {
			d = end.Sub(start)
		}
		l, _ := curve.NewLine(o, d)
		return l
	case *curve.Trimmed:
		return &curve.Trimmed{Basis: remap(v.Basis, m, start, end), Trim1: v.Trim1, Trim2: v.Trim2, Sense: v.Sense}
	}
	return c
}

func edge(g *ids, a, b geom.Vec, trimmed bool) *model.EdgeDef {
	line, _ := curve.LineThrough(a, b)
	var c curve.Curve = line
	if trimmed {
		c = &curve.Trimmed{Basis: line, Trim1: curve.AtParam(0), Trim2: curve.AtParam(1), Sense: true}
	}
	return &model.EdgeDef{ID: g.id(), Start: a, End: b, Curve: c, SameSense: true}
}

func planarFace(g *ids, f geom.Frame, loop []model.OrientedEdge) *model.FaceDef {
	return face(g, &model.SurfaceDef{ID: g.id(), Kind: model.SurfacePlane, Frame: f}, loop)
}

func face(g *ids, s *model.SurfaceDef, loop []model.OrientedEdge) *model.FaceDef {
	return &model.FaceDef{
		ID:      g.id(),
		Surface: s,
		Bounds: []model.BoundDef{{
			Loop:        &model.LoopDef{ID: g.id(), Edges: loop},
			Orientation: true,
			Outer:       true,
		}},
		SameSense: true,
	}
}

// HalfCylinder is the half of a vertical cylinder on the +Y side of the
// XZ plane: one cylindrical face, one planar face and two half-disc caps.
func HalfCylinder(base model.EntityID, radius, height float64) *model.Brep {
	g := &ids{next: base}
	up := geom.V(0, 0, height)
	a, bb := geom.V(radius, 0, 0), geom.V(-radius, 0, 0)
	at, bt := a.Add(up), bb.Add(up)

	lowFrame := geom.WorldFrame
	highFrame := geom.WorldFrame
	highFrame.Origin = up
	low, _ := curve.NewCircle(lowFrame, radius)
	high, _ := curve.NewCircle(highFrame, radius)

	arcLow := &model.EdgeDef{ID: g.id(), Start: a, End: bb, Curve: low, SameSense: true}
	arcHigh := &model.EdgeDef{ID: g.id(), Start: at, End: bt, Curve: high, SameSense: true}
	diaLow := edge(g, bb, a, false)
	diaHigh := edge(g, at, bt, false)
	vA := edge(g, a, at, false)
	vB := edge(g, bb, bt, false)

	b := &model.Brep{ID: g.id()}
	cyl := &model.SurfaceDef{ID: g.id(), Kind: model.SurfaceCylinder, Frame: geom.WorldFrame, Radius: radius}
	b.Faces = append(b.Faces, face(g, cyl, []model.OrientedEdge{
		{Edge: arcLow, Orientation: true},
		{Edge: vB, Orientation: true},
		{Edge: arcHigh, Orientation: false},
		{Edge: vA, Orientation: false},
	}))
	flat, _ := geom.NewFrame(geom.V(0, 0, 0), geom.V(0, -1, 0), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, flat, []model.OrientedEdge{
		{Edge: diaLow, Orientation: true},
		{Edge: vA, Orientation: true},
		{Edge: diaHigh, Orientation: true},
		{Edge: vB, Orientation: false},
	}))
	down, _ := geom.NewFrame(geom.V(0, 0, 0), geom.V(0, 0, -1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, down, []model.OrientedEdge{
		{Edge: diaLow, Orientation: false},
		{Edge: arcLow, Orientation: false},
	}))
	upf, _ := geom.NewFrame(up, geom.V(0, 0, 1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, upf, []model.OrientedEdge{
		{Edge: arcHigh, Orientation: true},
		{Edge: diaHigh, Orientation: false},
	}))
	return b
}

// Cylinder is a vertical cylinder standing on the origin. Each cap circle is
// a single closed edge, so the side face is a band bounded by both.
func Cylinder(base model.EntityID, radius, height float64) *model.Brep {
	g := &ids{next: base}
	up := geom.V(0, 0, height)
	a := geom.V(radius, 0, 0)

	highFrame := geom.WorldFrame
	highFrame.Origin = up
	low, _ := curve.NewCircle(geom.WorldFrame, radius)
	high, _ := curve.NewCircle(highFrame, radius)
	rimLow := &model.EdgeDef{ID: g.id(), Start: a, End: a, Curve: low, SameSense: true}
	rimHigh := &model.EdgeDef{ID: g.id(), Start: a.Add(up), End: a.Add(up), Curve: high, SameSense: true}

	b := &model.Brep{ID: g.id()}
	down, _ := geom.NewFrame(geom.V(0, 0, 0), geom.V(0, 0, -1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, down, []model.OrientedEdge{{Edge: rimLow, Orientation: false}}))
	upf, _ := geom.NewFrame(up, geom.V(0, 0, 1), geom.V(1, 0, 0))
	b.Faces = append(b.Faces, planarFace(g, upf, []model.OrientedEdge{{Edge: rimHigh, Orientation: true}}))

	cyl := &model.SurfaceDef{ID: g.id(), Kind: model.SurfaceCylinder, Frame: geom.WorldFrame, Radius: radius}
	side := face(g, cyl, []model.OrientedEdge{{Edge: rimLow, Orientation: true}})
	side.Bounds = append(side.Bounds, model.BoundDef{
		Loop:        &model.LoopDef{ID: g.id(), Edges: []model.OrientedEdge{{Edge: rimHigh, Orientation: false}}},
		Orientation: true,
	})
	b.Faces = append(b.Faces, side)
	return b
}
