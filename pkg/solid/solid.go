// Package solid turns sewn shells into solids. Face orientations are made
// consistent by propagation across shared edges, each face is meshed, and
// shells that did not close are kept or dropped according to a Policy.
package solid

import (
	"fmt"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/facet"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/sew"
)

// Face is one face of a solid with its orientation relative to the sewn
// face and its mesh, already oriented.
type Face struct {
	Source  *sew.Face
	Flipped bool
	Mesh    facet.Mesh
}

// Label identifies the face in diagnostics.
func (f Face) Label() string { return f.Source.Source.Label() }

// Solid is an immutable reconstructed solid.
type Solid struct {
	faces      []Face
	closed     bool
	consistent bool
	first      int
}

// Faces returns a copy of the solid's faces in input order.
func (s *Solid) Faces() []Face { return append([]Face(nil), s.faces...) }

// FaceCount returns the number of faces.
func (s *Solid) FaceCount() int { return len(s.faces) }

// Closed reports whether every edge is shared by exactly two consistently
// oriented faces.
func (s *Solid) Closed() bool { return s.closed }

// Consistent reports whether face orientations agree across every shared
// edge.
func (s *Solid) Consistent() bool { return s.consistent }

// First returns the input index of the solid's first face.
func (s *Solid) First() int { return s.first }

// Mesh merges the face meshes into one mesh.
func (s *Solid) Mesh() facet.Mesh {
	var out facet.Mesh
	for _, f := range s.faces {
		base := len(out.Positions)
		out.Positions = append(out.Positions, f.Mesh.Positions...)
		for _, t := range f.Mesh.Triangles {
			out.Triangles = append(out.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// Set is an ordered, growable sequence of solids, ordered by the input
// position of each solid's first face.
type Set struct {
	Solids []*Solid
}

// Len returns the number of solids.
func (s *Set) Len() int { return len(s.Solids) }

// Options controls decomposition.
type Options struct {
	Tolerance geom.Tolerance
	Policy    Policy
	Limits    geom.Limits
	Log       *diag.Log
}

// Decompose converts shells into solids. Only an exceeded iteration cap is
// an error; everything else is recorded as a diagnostic.
func Decompose(shells []*sew.Shell, opt Options) (*Set, error) {
	set := &Set{}
	for _, sh := range shells {
		if len(sh.Faces) == 0 {
			continue
		}
		s, err := build(sh, opt)
		if err != nil {
			return nil, err
		}
		if s != nil {
			set.Solids = append(set.Solids, s)
		}
	}
	return set, nil
}

func build(sh *sew.Shell, opt Options) (*Solid, error) {
	label := sh.Faces[0].Source.Label()
	budget := geom.NewBudget(fmt.Sprintf("shell %s", label), opt.Limits.ShellSteps)

	flips, consistent, err := orient(sh, budget)
	if err != nil {
		return nil, err
	}
	if !consistent {
		opt.Log.Addf(diag.StageDecompose, diag.KindInvalid, diag.SeverityWarning, label, "face orientations conflict across shared edges")
	}
	s := &Solid{first: sh.First(), consistent: consistent, closed: sh.Manifold && consistent}

	for i, f := range sh.Faces {
		rings := f.Rings()
		mesh, err := facet.Triangulate(f.Source.Surface, rings[0], rings[1:], facet.Options{
			Tolerance: opt.Tolerance,
			Budget:    geom.NewBudget(fmt.Sprintf("face %s", f.Source.Label()), opt.Limits.FaceSteps),
			Log:       opt.Log,
			Entity:    f.Source.Label(),
		})
		if err != nil {
			return nil, err
		}
		if flips[i] {
			mesh = mesh.Flipped()
			opt.Log.Addf(diag.StageDecompose, diag.KindFlipped, diag.SeverityInfo, f.Source.Label(), "face reversed to agree with its neighbours")
		}
		s.faces = append(s.faces, Face{Source: f, Flipped: flips[i], Mesh: mesh})
	}
	if s.closed {
		return s, nil
	}

	keep := false
	switch opt.Policy {
	case RetainAll:
		keep = true
	case RetainEnclosed:
		keep = Encloses(s.Mesh(), opt.Tolerance)
	}
	if !keep {
		opt.Log.Addf(diag.StageDecompose, diag.KindDropped, diag.SeverityError, label,
			"open shell of %d faces dropped under %s policy", len(s.faces), opt.Policy)
		return nil, nil
	}
	opt.Log.Addf(diag.StageDecompose, diag.KindOpenShell, diag.SeverityWarning, label,
		"open shell of %d faces retained under %s policy", len(s.faces), opt.Policy)
	return s, nil
}

// orient assigns each face a flip so that every manifold edge is
// traversed in opposite directions by its two faces. Flips propagate
// breadth-first through the face graph from the lowest unvisited face; a
// shared edge whose faces still disagree makes the shell inconsistent.
func orient(sh *sew.Shell, budget *geom.Budget) ([]bool, bool, error) {
	type link struct {
		a, b int
		same bool // both faces traverse the edge the same way
	}
	fg, err := sew.NewFaceGraph(len(sh.Faces))
	if err != nil {
		return nil, false, err
	}
	var links []link
	first := make(map[[2]int]bool)
	for _, e := range sh.Edges {
		refs := sh.Uses[e]
		if len(refs) != 2 || refs[0].Face == refs[1].Face {
			continue
		}
		l := link{refs[0].Face, refs[1].Face, refs[0].Reversed == refs[1].Reversed}
		links = append(links, l)
		if _, ok := first[[2]int{l.a, l.b}]; !ok {
			first[[2]int{l.a, l.b}], first[[2]int{l.b, l.a}] = l.same, l.same
		}
		if err := fg.Link(l.a, l.b); err != nil {
			return nil, false, err
		}
	}

	flips := make([]bool, len(sh.Faces))
	seen := make([]bool, len(sh.Faces))
	for start := range sh.Faces {
		if seen[start] {
			continue
		}
		steps, err := fg.Walk(start)
		if err != nil {
			return nil, false, err
		}
		for _, st := range steps {
			if err := budget.Spend(1); err != nil {
				return nil, false, err
			}
			seen[st.Face] = true
			if st.From >= 0 {
				flips[st.Face] = flips[st.From] != first[[2]int{st.From, st.Face}]
			}
		}
	}

	consistent := true
	for _, l := range links {
		if err := budget.Spend(1); err != nil {
			return nil, false, err
		}
		if flips[l.b] != (flips[l.a] != l.same) {
			consistent = false
		}
	}
	return flips, consistent, nil
}
