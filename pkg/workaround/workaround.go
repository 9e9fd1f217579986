// Package workaround holds the per-model registry of named healing
// switches. Each switch relaxes one class of authoring defect (a known
// exporter bug) so that otherwise-rejected input can be reconstructed.
//
// A Registry is populated once per model and sealed before reconstruction
// begins; after sealing it is read-only and safe to share across goroutines.
package workaround

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Known workaround identifiers.
const (
	// SurfaceOfLinearExtrusion treats the extrusion direction of a surface
	// of linear extrusion as a world direction instead of a direction in the
	// surface's own placement. Some Revit exports write it that way.
	SurfaceOfLinearExtrusion = "#SurfaceOfLinearExtrusion"

	// PolylineTrimLengthOne reinterprets parameter trims 0..1 on a polyline
	// with more than two points as spanning the entire polyline.
	PolylineTrimLengthOne = "#PolylineTrimLengthOneForEntireLine"

	// TrimSpansFullPeriod accepts a trimmed periodic curve whose declared
	// range is a whole multiple of the period and resolves it to one period.
	TrimSpansFullPeriod = "#TrimSpansFullPeriod"

	// SnapTrimToCurve projects trim points that lie off their curve onto it
	// and clamps out-of-range parameters.
	SnapTrimToCurve = "#SnapTrimToCurve"

	// BridgeWireGaps closes wire gaps larger than precision with a synthetic
	// straight edge.
	BridgeWireGaps = "#BridgeWireGaps"
)

// ErrSealed is returned when enabling a workaround after reconstruction
// has started.
var ErrSealed = errors.New("workaround registry is sealed")

// Known lists the identifiers this module interprets, in display order.
func Known() []Info {
	return []Info{
		{SurfaceOfLinearExtrusion, "extrusion direction of a surface of linear extrusion is in world coordinates"},
		{PolylineTrimLengthOne, "polyline trimmed 0..1 spans the entire polyline"},
		{TrimSpansFullPeriod, "periodic trim spanning whole periods resolves to one period"},
		{SnapTrimToCurve, "project off-curve trim points and clamp out-of-range trims"},
		{BridgeWireGaps, "bridge wire gaps with synthetic straight edges"},
	}
}

// Info describes one known workaround.
type Info struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Registry is the set of workarounds enabled for one model.
type Registry struct {
	mu      sync.RWMutex
	modelID uuid.UUID
	enabled map[string]bool
	sealed  bool
}

// NewRegistry returns an empty registry bound to modelID.
func NewRegistry(modelID uuid.UUID) *Registry {
	return &Registry{modelID: modelID, enabled: make(map[string]bool)}
}

// ModelID returns the model the registry belongs to.
func (r *Registry) ModelID() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.modelID
}

// Enable turns on a workaround. Workarounds are independent: enabling one
// never changes another. Unknown identifiers are recorded but have no
// effect. Enabling the same identifier twice is a no-op.
func (r *Registry) Enable(name string) error {
	if name == "" {
		return fmt.Errorf("workaround: empty identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("enable %s: %w", name, ErrSealed)
	}
	r.enabled[name] = true
	return nil
}

// IsEnabled reports whether name is active. A nil registry has nothing
// enabled.
func (r *Registry) IsEnabled(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[name]
}

// Names returns the enabled identifiers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.enabled))
	for n := range r.enabled {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Seal freezes the registry. Sealing twice is harmless.
func (r *Registry) Seal() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry is frozen.
func (r *Registry) Sealed() bool {
	if r == nil {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Clone returns an unsealed copy with the same enabled set, bound to the
// same model.
func (r *Registry) Clone() *Registry {
	c := NewRegistry(r.ModelID())
	for _, n := range r.Names() {
		c.enabled[n] = true
	}
	return c
}
