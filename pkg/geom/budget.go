package geom

import "fmt"

// Default iteration caps.
const (
	DefaultFaceSteps  = 200_000
	DefaultShellSteps = 2_000_000
	DefaultSewSteps   = 4_000_000
)

// Limits bounds the work spent on one face, on one shell and on sewing all
// the faces of one B-rep.
type Limits struct {
	FaceSteps  int `json:"face_steps" yaml:"face_steps"`
	ShellSteps int `json:"shell_steps" yaml:"shell_steps"`
	SewSteps   int `json:"sew_steps" yaml:"sew_steps"`
}

// DefaultLimits returns the default iteration caps.
func DefaultLimits() Limits {
	return Limits{FaceSteps: DefaultFaceSteps, ShellSteps: DefaultShellSteps, SewSteps: DefaultSewSteps}
}

// Budget is a deterministic iteration counter. It replaces wall-clock
// timeouts so that the same input always fails (or succeeds) the same way.
// A nil *Budget is unlimited.
type Budget struct {
	scope string
	limit int
	used  int
}

// NewBudget returns a budget allowing limit steps. A non-positive limit is
// unlimited.
func NewBudget(scope string, limit int) *Budget {
	return &Budget{scope: scope, limit: limit}
}

// Spend consumes n steps and fails once the cap is exceeded.
func (b *Budget) Spend(n int) error {
	if b == nil {
		return nil
	}
	b.used += n
	if b.limit > 0 && b.used > b.limit {
		return fmt.Errorf("%w: %s used %d of %d steps", ErrReconstructionTimeout, b.scope, b.used, b.limit)
	}
	return nil
}

// Used returns the steps consumed so far.
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	return b.used
}
