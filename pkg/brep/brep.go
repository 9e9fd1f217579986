// Package brep runs the reconstruction pipeline: faces are built from their
// definitions, sewn into shells, decomposed into solids and measured. Every
// stage records what it tolerated in a diagnostic log; only missing input
// and exhausted iteration budgets abort a reconstruction.
package brep

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/logging"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/sew"
	"github.com/chazu/ifcsolid/pkg/solid"
	"github.com/chazu/ifcsolid/pkg/surface"
	"github.com/chazu/ifcsolid/pkg/sweep"
	"github.com/chazu/ifcsolid/pkg/topo"
	"github.com/chazu/ifcsolid/pkg/validity"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Reconstructor holds the read-only context shared by reconstructions of
// one model. It is safe for concurrent use once its registry is sealed,
// which New and the first reconstruction do.
type Reconstructor struct {
	Tolerance   geom.Tolerance
	Workarounds *workaround.Registry
	Limits      geom.Limits
	Policy      solid.Policy
	Logger      *log.Logger
}

// New returns a reconstructor for a model. The model's workaround
// registry is sealed.
func New(m *model.Model, logger *log.Logger) *Reconstructor {
	r := &Reconstructor{
		Tolerance:   m.Tolerance,
		Workarounds: m.Workarounds,
		Limits:      geom.DefaultLimits(),
		Policy:      solid.RetainEnclosed,
		Logger:      logger,
	}
	r.seal()
	return r
}

func (r *Reconstructor) seal() {
	if r.Workarounds == nil {
		r.Workarounds = workaround.NewRegistry(uuid.New())
	}
	if r.Workarounds.Sealed() {
		return
	}
	r.Workarounds.Seal()
	known := lo.Map(workaround.Known(), func(i workaround.Info, _ int) string { return i.Name })
	for _, name := range r.Workarounds.Names() {
		if !lo.Contains(known, name) {
			r.logger().Warn("workaround not interpreted", "name", name)
		}
	}
}

var discard = logging.Discard()

func (r *Reconstructor) logger() *log.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

// Summary is the public view of one solid.
type Summary struct {
	FaceCount int     `json:"face_count" yaml:"face_count"`
	Volume    float64 `json:"volume" yaml:"volume"`
	IsValid   bool    `json:"is_valid" yaml:"is_valid"`
}

// Result is the outcome of one reconstruction.
type Result struct {
	Set         *solid.Set
	Report      validity.SetReport
	Diagnostics []diag.Diagnostic
}

// Count returns the number of solids.
func (r *Result) Count() int { return r.Set.Len() }

// IsValid reports whether the set is non-empty and every solid is valid.
func (r *Result) IsValid() bool { return r.Report.IsValid }

// Solids returns the per-solid summaries in set order.
func (r *Result) Solids() []Summary {
	return lo.Map(r.Report.Solids, func(m validity.Metrics, _ int) Summary {
		return Summary{FaceCount: m.FaceCount, Volume: m.Volume, IsValid: m.Valid}
	})
}

// CreateSolidSet reconstructs every solid bounded by the B-rep's faces.
func (r *Reconstructor) CreateSolidSet(b *model.Brep) (*Result, error) {
	if err := r.Tolerance.Validate(); err != nil {
		return nil, err
	}
	r.seal()
	if b == nil || len(b.Faces) == 0 {
		return nil, fmt.Errorf("brep: %w", geom.ErrNoFaces)
	}
	label := b.ID.Label()
	lg := r.logger().With("brep", label)
	dl := &diag.Log{}

	builder := topo.NewBuilder(r.Tolerance, r.Workarounds, dl)
	faces := builder.BuildFaces(b.Faces)
	lg.Debug("faces built", "faces", len(faces), "valid", lo.CountBy(faces, func(f *topo.Face) bool { return f.Valid }))

	shells, err := sew.Sew(faces, r.Tolerance, geom.NewBudget("sew "+label, r.Limits.SewSteps), dl)
	if err != nil {
		return nil, fmt.Errorf("brep %s: %w", label, err)
	}
	lg.Debug("faces sewn", "shells", len(shells))

	return r.finish(lg, shells, dl)
}

func (r *Reconstructor) finish(lg *log.Logger, shells []*sew.Shell, dl *diag.Log) (*Result, error) {
	set, err := solid.Decompose(shells, solid.Options{
		Tolerance: r.Tolerance,
		Policy:    r.Policy,
		Limits:    r.Limits,
		Log:       dl,
	})
	if err != nil {
		return nil, err
	}
	set, rep := validity.EvaluateSet(set, r.Tolerance, dl)
	res := &Result{Set: set, Report: rep, Diagnostics: dl.Entries()}

	for _, d := range res.Diagnostics {
		if d.Severity == diag.SeverityInfo {
			lg.Debug(d.Message, "stage", d.Stage, "kind", d.Kind, "entity", d.Entity)
			continue
		}
		lg.Warn(d.Message, "stage", d.Stage, "kind", d.Kind, "entity", d.Entity)
	}
	lg.Debug("reconstructed", "solids", res.Count(), "valid", res.IsValid())
	return res, nil
}

// CreateSolid reconstructs a B-rep expected to bound a single solid. When
// the faces bound several, only the first is kept and the rest are
// reported as dropped.
func (r *Reconstructor) CreateSolid(b *model.Brep) (*Result, error) {
	res, err := r.CreateSolidSet(b)
	if err != nil || res.Count() <= 1 {
		return res, err
	}
	for i, m := range res.Report.Solids[1:] {
		res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
			Stage:    diag.StageDecompose,
			Entity:   b.ID.Label(),
			Kind:     diag.KindDropped,
			Severity: diag.SeverityWarning,
			Message:  fmt.Sprintf("extra solid %d of %d faces dropped from single-solid result", i+1, m.FaceCount),
		})
	}
	res.Set = &solid.Set{Solids: res.Set.Solids[:1]}
	res.Report = validity.SetReport{IsValid: res.Report.Solids[0].Valid, Solids: res.Report.Solids[:1]}
	return res, nil
}

// CreateSweptSolid reconstructs a surface-curve swept area solid.
func (r *Reconstructor) CreateSweptSolid(def *model.SweptSolid) (*Result, error) {
	if err := r.Tolerance.Validate(); err != nil {
		return nil, err
	}
	r.seal()
	label := def.ID.Label()
	lg := r.logger().With("swept", label)
	dl := &diag.Log{}
	builder := topo.NewBuilder(r.Tolerance, r.Workarounds, dl)

	var ref surface.Surface
	if def.ReferenceSurface != nil {
		s, err := builder.BuildSurface(def.ReferenceSurface)
		if err != nil {
			return nil, fmt.Errorf("swept solid %s: reference surface: %w", label, err)
		}
		ref = s
	}
	b, err := sweep.Build(def, sweep.Options{
		Tolerance:   r.Tolerance,
		Workarounds: r.Workarounds,
		Log:         dl,
		Surface:     ref,
	})
	if err != nil {
		return nil, err
	}
	lg.Debug("swept", "faces", len(b.Faces))

	faces := builder.BuildFaces(b.Faces)
	shells, err := sew.Sew(faces, r.Tolerance, geom.NewBudget("sew "+label, r.Limits.SewSteps), dl)
	if err != nil {
		return nil, fmt.Errorf("swept solid %s: %w", label, err)
	}
	return r.finish(lg, shells, dl)
}

// CreateModel reconstructs every item of a model in order, B-reps first.
// Items that fail are reported through the returned error slice at the
// same index as their item.
func (r *Reconstructor) CreateModel(m *model.Model) ([]*Result, []error) {
	results := make([]*Result, 0, m.ItemCount())
	errs := make([]error, 0, m.ItemCount())
	for _, b := range m.Breps {
		res, err := r.CreateSolidSet(b)
		results, errs = append(results, res), append(errs, err)
	}
	for _, s := range m.SweptSolids {
		res, err := r.CreateSweptSolid(s)
		results, errs = append(results, res), append(errs, err)
	}
	return results, errs
}
