package model

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
)

// Model is the top-level input of a reconstruction session. It is built
// once (by the description language or a loader) and read thereafter.
type Model struct {
	ID           uuid.UUID
	Tolerance    geom.Tolerance
	ToleranceSet bool // the description chose the tolerance
	Workarounds  *workaround.Registry
	Breps        []*Brep
	SweptSolids  []*SweptSolid
	NameIndex    map[string]any
}

// New creates an empty model with default tolerances and a fresh
// workaround registry.
func New() *Model {
	id := uuid.New()
	return &Model{
		ID:          id,
		Tolerance:   geom.DefaultTolerance(),
		Workarounds: workaround.NewRegistry(id),
		NameIndex:   make(map[string]any),
	}
}

// SetTolerance fixes the tolerance explicitly.
func (m *Model) SetTolerance(t geom.Tolerance) {
	m.Tolerance, m.ToleranceSet = t, true
}

// AddBrep registers a B-rep.
func (m *Model) AddBrep(b *Brep) {
	m.Breps = append(m.Breps, b)
	if b.Name != "" {
		m.NameIndex[b.Name] = b
	}
}

// AddSweptSolid registers a swept solid.
func (m *Model) AddSweptSolid(s *SweptSolid) {
	m.SweptSolids = append(m.SweptSolids, s)
	if s.Name != "" {
		m.NameIndex[s.Name] = s
	}
}

// Brep returns the B-rep with the given name, or nil.
func (m *Model) Brep(name string) *Brep {
	b, _ := m.NameIndex[name].(*Brep)
	return b
}

// SweptSolid returns the swept solid with the given name, or nil.
func (m *Model) SweptSolid(name string) *SweptSolid {
	s, _ := m.NameIndex[name].(*SweptSolid)
	return s
}

// MustBrep returns the named B-rep or panics.
func (m *Model) MustBrep(name string) *Brep {
	b := m.Brep(name)
	if b == nil {
		panic(fmt.Sprintf("model: no brep named %q", name))
	}
	return b
}

// ItemCount returns the number of representation items in the model.
func (m *Model) ItemCount() int {
	return len(m.Breps) + len(m.SweptSolids)
}
