package geom

import (
	"fmt"
	"math"
)

// Frame is a right-handed orthonormal placement: an origin and three axes.
type Frame struct {
	Origin  Vec
	X, Y, Z Vec
}

// WorldFrame is the identity placement.
var WorldFrame = Frame{X: V(1, 0, 0), Y: V(0, 1, 0), Z: V(0, 0, 1)}

// NewFrame builds a placement from an origin, a Z axis and a reference
// direction for X. The reference direction is made orthogonal to the axis.
// A zero axis, or a reference direction parallel to it, is degenerate.
func NewFrame(origin, axis, ref Vec) (Frame, error) {
	z, ok := Unit(axis)
	if !ok {
		return Frame{}, fmt.Errorf("%w: placement axis has zero length", ErrDegenerateGeometry)
	}
	x, ok := Unit(ref.Sub(z.MulScalar(ref.Dot(z))))
	if !ok {
		return Frame{}, fmt.Errorf("%w: placement reference direction is parallel to its axis", ErrDegenerateGeometry)
	}
	return Frame{Origin: origin, X: x, Y: z.Cross(x), Z: z}, nil
}

// FrameFromAxis builds a placement with an arbitrary but deterministic X axis.
func FrameFromAxis(origin, axis Vec) (Frame, error) {
	ref := V(1, 0, 0)
	if z, ok := Unit(axis); ok && math.Abs(z.X) > 0.9 {
		ref = V(0, 1, 0)
	}
	return NewFrame(origin, axis, ref)
}

// ToWorld maps local coordinates to world coordinates.
func (f Frame) ToWorld(p Vec) Vec {
	return f.Origin.Add(f.X.MulScalar(p.X)).Add(f.Y.MulScalar(p.Y)).Add(f.Z.MulScalar(p.Z))
}

// DirToWorld maps a local direction to a world direction.
func (f Frame) DirToWorld(d Vec) Vec {
	return f.X.MulScalar(d.X).Add(f.Y.MulScalar(d.Y)).Add(f.Z.MulScalar(d.Z))
}

// ToLocal maps world coordinates to local coordinates.
func (f Frame) ToLocal(p Vec) Vec {
	d := p.Sub(f.Origin)
	return V(d.Dot(f.X), d.Dot(f.Y), d.Dot(f.Z))
}

// DirToLocal maps a world direction to a local direction.
func (f Frame) DirToLocal(d Vec) Vec {
	return V(d.Dot(f.X), d.Dot(f.Y), d.Dot(f.Z))
}
