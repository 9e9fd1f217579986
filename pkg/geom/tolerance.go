package geom

import "fmt"

// Model factor defaults, matching the usual IFC model factors for models
// expressed in metres.
const (
	DefaultPrecision           = 1e-5
	DefaultDeflectionTolerance = 1e-3
	DefaultDeflectionAngle     = 0.5
)

// Tolerance is the numeric context of one reconstruction. It is read-only
// for the duration of the reconstruction and may be shared.
type Tolerance struct {
	Precision           float64 `json:"precision" yaml:"precision"`                       // minimal distinguishable distance
	DeflectionTolerance float64 `json:"deflection_tolerance" yaml:"deflection_tolerance"` // max chordal deviation
	DeflectionAngle     float64 `json:"deflection_angle" yaml:"deflection_angle"`         // max angular deviation, radians
}

// DefaultTolerance returns the default model factors.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Precision:           DefaultPrecision,
		DeflectionTolerance: DefaultDeflectionTolerance,
		DeflectionAngle:     DefaultDeflectionAngle,
	}
}

// Validate checks that every factor is positive.
func (t Tolerance) Validate() error {
	if !(t.Precision > 0) {
		return fmt.Errorf("tolerance: precision must be positive, got %g", t.Precision)
	}
	if !(t.DeflectionTolerance > 0) {
		return fmt.Errorf("tolerance: deflection tolerance must be positive, got %g", t.DeflectionTolerance)
	}
	if !(t.DeflectionAngle > 0) {
		return fmt.Errorf("tolerance: deflection angle must be positive, got %g", t.DeflectionAngle)
	}
	return nil
}

// Agreement is the distance within which two discretised curves are
// considered to follow the same geometry.
func (t Tolerance) Agreement() float64 {
	if t.DeflectionTolerance > t.Precision {
		return t.DeflectionTolerance
	}
	return t.Precision
}
