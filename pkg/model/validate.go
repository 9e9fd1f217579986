package model

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/diag"
)

// Validate runs structural checks over the model and returns every
// finding. Errors name entities the pipeline cannot use at all; warnings
// name entities it will have to interpret. Validate never mutates the
// model.
func Validate(m *Model) []diag.Diagnostic {
	var out []diag.Diagnostic
	out = append(out, validateNames(m)...)
	for _, b := range m.Breps {
		out = append(out, validateBrep(b)...)
	}
	for _, s := range m.SweptSolids {
		out = append(out, validateSwept(s)...)
	}
	return out
}

func finding(sev diag.Severity, id EntityID, format string, args ...any) diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageModel,
		Entity:   id.Label(),
		Kind:     diag.KindInvalid,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}
}

// validateNames checks that no two items share a name.
func validateNames(m *Model) []diag.Diagnostic {
	var out []diag.Diagnostic
	seen := make(map[string]int)
	for _, b := range m.Breps {
		if b.Name != "" {
			seen[b.Name]++
		}
	}
	for _, s := range m.SweptSolids {
		if s.Name != "" {
			seen[s.Name]++
		}
	}
	for name, n := range seen {
		if n > 1 {
			out = append(out, finding(diag.SeverityError, 0, "duplicate name %q assigned to %d items", name, n))
		}
	}
	return out
}

func validateBrep(b *Brep) []diag.Diagnostic {
	var out []diag.Diagnostic
	if len(b.Faces) == 0 {
		out = append(out, finding(diag.SeverityError, b.ID, "brep %q has no faces", b.Name))
	}
	for _, f := range b.Faces {
		if f == nil {
			out = append(out, finding(diag.SeverityError, b.ID, "brep %q lists a nil face", b.Name))
			continue
		}
		if f.Surface == nil {
			out = append(out, finding(diag.SeverityError, f.ID, "face has no surface"))
		}
		outer := 0
		for _, bd := range f.Bounds {
			if bd.Outer {
				outer++
			}
			if bd.Loop == nil {
				out = append(out, finding(diag.SeverityError, f.ID, "face bound has no loop"))
				continue
			}
			for _, oe := range bd.Loop.Edges {
				if oe.Edge == nil || oe.Edge.Curve == nil {
					out = append(out, finding(diag.SeverityError, bd.Loop.ID, "loop references an edge without a curve"))
				}
			}
		}
		switch {
		case len(f.Bounds) == 0:
			out = append(out, finding(diag.SeverityError, f.ID, "face has no bounds"))
		case outer == 0 && len(f.Bounds) > 1:
			out = append(out, finding(diag.SeverityWarning, f.ID, "face has %d bounds and no outer bound; the first is used", len(f.Bounds)))
		case outer > 1:
			out = append(out, finding(diag.SeverityWarning, f.ID, "face declares %d outer bounds; the first is used", outer))
		}
	}
	return out
}

func validateSwept(s *SweptSolid) []diag.Diagnostic {
	var out []diag.Diagnostic
	if s.Profile == nil {
		out = append(out, finding(diag.SeverityError, s.ID, "swept solid %q has no profile", s.Name))
	}
	if s.Directrix == nil {
		out = append(out, finding(diag.SeverityError, s.ID, "swept solid %q has no directrix", s.Name))
	}
	if s.ReferenceSurface == nil {
		out = append(out, finding(diag.SeverityError, s.ID, "swept solid %q has no reference surface", s.Name))
	}
	return out
}

// OuterBound returns the index of the bound used as the outer boundary.
func OuterBound(f *FaceDef) int {
	for i, b := range f.Bounds {
		if b.Outer {
			return i
		}
	}
	return 0
}
