// Package diag records the anomalies met while reconstructing a solid:
// healed elements, dropped elements, orientation fixes and invalid faces.
// Diagnostics never change the outcome of a reconstruction; they exist so a
// caller can log or audit what the pipeline tolerated.
package diag

import (
	"fmt"
	"sync"
)

// Severity indicates how much a finding affects the result.
type Severity int

const (
	SeverityError   Severity = iota // element lost or marked invalid
	SeverityWarning                 // element repaired or altered
	SeverityInfo                    // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Kind classifies a finding.
type Kind string

const (
	KindHealed     Kind = "healed"     // repaired by an active workaround
	KindDropped    Kind = "dropped"    // element discarded
	KindInvalid    Kind = "invalid"    // element kept but flagged invalid
	KindFlipped    Kind = "flipped"    // orientation reversed to agree with neighbours
	KindOpenShell  Kind = "open-shell" // shell could not be closed
	KindInverted   Kind = "inverted"   // solid had negative signed volume
	KindUnresolved Kind = "unresolved" // trim or wire could not be resolved
)

// Stage names the pipeline stage that produced a finding.
type Stage string

const (
	StageModel     Stage = "model"
	StageCurve     Stage = "curve"
	StageWire      Stage = "wire"
	StageFace      Stage = "face"
	StageSew       Stage = "sew"
	StageDecompose Stage = "decompose"
	StageValidity  Stage = "validity"
	StageSweep     Stage = "sweep"
	StageTessel    Stage = "tessellate"
)

// Diagnostic is a single recorded anomaly.
type Diagnostic struct {
	Stage    Stage    `json:"stage" yaml:"stage"`
	Entity   string   `json:"entity,omitempty" yaml:"entity,omitempty"` // entity label, e.g. "#1203"
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) Error() string {
	if d.Entity == "" {
		return fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.Stage, d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s %s %s: %s", d.Severity, d.Stage, d.Kind, d.Entity, d.Message)
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a severity written by MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	for _, v := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Log accumulates diagnostics in the order they were recorded. The zero
// value is ready to use. A nil *Log discards everything.
type Log struct {
	mu      sync.Mutex
	entries []Diagnostic
}

// Add records d.
func (l *Log) Add(d Diagnostic) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, d)
	l.mu.Unlock()
}

// Addf records a finding built from its parts.
func (l *Log) Addf(stage Stage, kind Kind, sev Severity, entity, format string, args ...any) {
	l.Add(Diagnostic{
		Stage:    stage,
		Entity:   entity,
		Kind:     kind,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Entries returns a copy of the recorded diagnostics.
func (l *Log) Entries() []Diagnostic {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded diagnostics.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Count returns how many diagnostics of kind k were recorded.
func (l *Log) Count(k Kind) int {
	n := 0
	for _, d := range l.Entries() {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Split separates errors from warnings and info, like a validation result.
func Split(ds []Diagnostic) (errs, rest []Diagnostic) {
	for _, d := range ds {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		} else {
			rest = append(rest, d)
		}
	}
	return errs, rest
}
