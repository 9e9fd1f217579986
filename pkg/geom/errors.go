package geom

import "errors"

// Error kinds raised by the pipeline. Callers match them with errors.Is;
// the wrapped message carries the entity and detail.
var (
	// ErrDegenerateGeometry: a curve or surface is singular at a required
	// parameter (zero-length direction, zero radius, ...).
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrTrimResolution: trim bounds cannot be resolved against their curve.
	ErrTrimResolution = errors.New("trim resolution failed")

	// ErrInvalidWire: a wire cannot be closed within precision.
	ErrInvalidWire = errors.New("invalid wire")

	// ErrReconstructionTimeout: an iteration cap was exceeded.
	ErrReconstructionTimeout = errors.New("reconstruction iteration cap exceeded")

	// ErrNoFaces: the input declares no faces at all.
	ErrNoFaces = errors.New("no faces to reconstruct")
)
