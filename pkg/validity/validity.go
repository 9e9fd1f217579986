// Package validity measures reconstructed solids: face count, enclosed
// volume and orientation. Volumes are computed with the divergence theorem
// over the face meshes, relative to each solid's bounding box centre.
package validity

import (
	"math"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/solid"
	"github.com/samber/lo"
)

// Metrics describes one solid.
type Metrics struct {
	FaceCount             int     `json:"face_count" yaml:"face_count"`
	Volume                float64 `json:"volume" yaml:"volume"`
	SignedVolume          float64 `json:"signed_volume" yaml:"signed_volume"`
	OrientationConsistent bool    `json:"orientation_consistent" yaml:"orientation_consistent"`
	Inverted              bool    `json:"inverted" yaml:"inverted"`
	Closed                bool    `json:"closed" yaml:"closed"`
	Valid                 bool    `json:"valid" yaml:"valid"`
}

// SetReport describes a solid set.
type SetReport struct {
	IsValid bool      `json:"is_valid" yaml:"is_valid"`
	Solids  []Metrics `json:"solids" yaml:"solids"`
}

// Evaluate measures a solid. A solid is valid when its faces are
// consistently oriented and it encloses more than precision cubed. Closure
// is reported but not required.
func Evaluate(s *solid.Solid, tol geom.Tolerance) Metrics {
	mesh := s.Mesh()
	m := Metrics{
		FaceCount:             s.FaceCount(),
		OrientationConsistent: s.Consistent(),
		Closed:                s.Closed(),
	}
	if !mesh.IsEmpty() {
		m.SignedVolume = mesh.Volume(geom.Bounds(mesh.Positions).Center())
	}
	m.Volume = math.Abs(m.SignedVolume)
	m.Inverted = m.SignedVolume < 0
	m.Valid = m.OrientationConsistent && m.Volume > math.Pow(tol.Precision, 3)
	return m
}

// EvaluateSet measures every solid of a set. Inverted solids are flipped
// as a whole; the returned set holds the corrected solids and the report
// describes them after correction. An empty set is not valid.
func EvaluateSet(set *solid.Set, tol geom.Tolerance, log *diag.Log) (*solid.Set, SetReport) {
	out := &solid.Set{Solids: make([]*solid.Solid, 0, set.Len())}
	var rep SetReport
	for _, s := range set.Solids {
		m := Evaluate(s, tol)
		if m.Inverted {
			s = s.Inverted()
			m.SignedVolume = -m.SignedVolume
			label := ""
			if fs := s.Faces(); len(fs) > 0 {
				label = fs[0].Label()
			}
			log.Addf(diag.StageValidity, diag.KindInverted, diag.SeverityWarning, label,
				"solid enclosed negative volume %.6g; all faces reversed", -m.Volume)
		}
		if !m.Valid {
			log.Addf(diag.StageValidity, diag.KindInvalid, diag.SeverityError, "",
				"solid %d is not valid (volume %.6g, consistent %t)", len(rep.Solids), m.Volume, m.OrientationConsistent)
		}
		out.Solids = append(out.Solids, s)
		rep.Solids = append(rep.Solids, m)
	}
	rep.IsValid = len(rep.Solids) > 0 && lo.EveryBy(rep.Solids, func(m Metrics) bool { return m.Valid })
	return out, rep
}
