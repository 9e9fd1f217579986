package geom

import "github.com/deadsy/sdfx/sdf"

// Bounds returns the axis-aligned bounding box of pts.
func Bounds(pts []Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

// Diagonal returns the length of the box diagonal.
func Diagonal(bb sdf.Box3) float64 {
	return bb.Size().Length()
}
