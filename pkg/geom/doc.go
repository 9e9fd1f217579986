// Package geom holds the small geometric vocabulary shared by every stage of
// the reconstruction pipeline: vectors and placements, the tolerance context,
// the error kinds, and the deterministic iteration budget.
package geom
