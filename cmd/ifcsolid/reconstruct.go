package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/ifcsolid/pkg/brep"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/engine"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/shape"
	"github.com/chazu/ifcsolid/pkg/shape/sdfx"
	"github.com/chazu/ifcsolid/pkg/solid"
	"github.com/chazu/ifcsolid/pkg/tessellate"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type reconstructFlags struct {
	format       string
	geometry     string
	geometryType string
	stl          string
	meshes       string
	workarounds  []string
	openShells   string
	strict       bool
}

func newReconstructCmd(opts *options) *cobra.Command {
	f := &reconstructFlags{}
	cmd := &cobra.Command{
		Use:   "reconstruct <model.lisp>",
		Short: "Reconstruct every solid in a model description",
		Long: `Evaluate a model description and reconstruct each advanced B-rep and
swept solid in it. A report of solids, volumes, validity and healing
diagnostics is written to stdout; tessellated geometry is written with
--geometry, --stl and --meshes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, out, err := reconstruct(opts, f, args[0])
			if err != nil {
				return err
			}
			if err := out.write(f); err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), f.format, rep, rep.writeText); err != nil {
				return err
			}
			if f.strict && !rep.Valid() {
				return errors.New("reconstruct: model has invalid items")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "text", "Report format (text|json|yaml)")
	cmd.Flags().StringVar(&f.geometry, "geometry", "", "Write tessellated geometry to this file")
	cmd.Flags().StringVar(&f.geometryType, "geometry-type", "binary", "Geometry encoding (binary|text)")
	cmd.Flags().StringVar(&f.stl, "stl", "", "Write tessellated geometry as binary STL to this file")
	cmd.Flags().StringVar(&f.meshes, "meshes", "", "Write render meshes as JSON to this file")
	cmd.Flags().StringSliceVar(&f.workarounds, "workaround", nil, "Enable a workaround by identifier (repeatable)")
	cmd.Flags().StringVar(&f.openShells, "open-shells", "", "Open shell policy (retain-enclosed|drop-open|retain-all)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit with an error when any item is invalid")
	return cmd
}

// evaluate runs the description at path and applies configuration to the
// resulting model.
func evaluate(opts *options, f *reconstructFlags, path string) (*model.Model, []diag.Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.NewEngine()
	eng.Timeout = opts.cfg.EvalTimeout
	res, err := eng.EvaluateFull(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if res.Model == nil {
		errs := lo.Map(res.Errors, func(e engine.EvalError, _ int) error { return e })
		return nil, nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	m := res.Model
	cfg := *opts.cfg
	cfg.Workarounds = lo.Uniq(append(append([]string{}, cfg.Workarounds...), f.workarounds...))
	if err := cfg.Apply(m); err != nil {
		return nil, nil, err
	}
	return m, res.Findings, nil
}

// output is the tessellated geometry of every item, combined.
type output struct {
	geometry *shape.Geometry
	meshes   []*shape.Mesh
}

func reconstruct(opts *options, f *reconstructFlags, path string) (*Report, *output, error) {
	m, findings, err := evaluate(opts, f, path)
	if err != nil {
		return nil, nil, err
	}

	policy, err := opts.cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	if f.openShells != "" {
		if policy, err = solid.ParsePolicy(f.openShells); err != nil {
			return nil, nil, err
		}
	}
	gtype, err := shape.ParseType(f.geometryType)
	if err != nil {
		return nil, nil, err
	}

	r := brep.New(m, opts.logger)
	r.Limits = opts.cfg.GeomLimits()
	r.Policy = policy
	opts.logger.Info("reconstructing", "file", path, "items", m.ItemCount(), "model", m.ID)

	results, errs := r.CreateModel(m)

	rep := &Report{
		Model:       m.ID.String(),
		Tolerance:   m.Tolerance,
		Workarounds: m.Workarounds.Names(),
		Policy:      policy.String(),
		Findings:    findings,
	}
	out := &output{geometry: &shape.Geometry{Type: gtype}}
	want := f.geometry != "" || f.stl != "" || f.meshes != ""
	params := tessellate.FromTolerance(m.Tolerance, gtype)
	params.FaceSteps = r.Limits.FaceSteps

	for i, lbl := range itemLabels(m) {
		item := ItemReport{Item: lbl.name, Kind: lbl.kind}
		if errs[i] != nil {
			item.Error = errs[i].Error()
			opts.logger.Error("reconstruction failed", "item", lbl.name, "err", errs[i])
			rep.Items = append(rep.Items, item)
			continue
		}
		res := results[i]
		item.Valid = res.IsValid()
		item.Solids = res.Solids()
		item.Diagnostics = res.Diagnostics
		if want {
			dl := &diag.Log{}
			g, err := tessellate.Tessellate(res.Set, params, dl)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", lbl.name, err)
			}
			item.Triangles = g.TriangleCount()
			item.Diagnostics = append(item.Diagnostics, dl.Entries()...)
			out.geometry.Solids = append(out.geometry.Solids, g.Solids...)
			for _, mesh := range g.Meshes() {
				mesh.PartName = lbl.name + "/" + mesh.PartName
				out.meshes = append(out.meshes, mesh)
			}
		}
		rep.Items = append(rep.Items, item)
	}
	return rep, out, nil
}

type itemLabel struct {
	name string
	kind string
}

// itemLabels names the items in the order CreateModel reconstructs them.
func itemLabels(m *model.Model) []itemLabel {
	name := func(n string, id model.EntityID) string {
		if n != "" {
			return n
		}
		return id.Label()
	}
	out := lo.Map(m.Breps, func(b *model.Brep, _ int) itemLabel {
		return itemLabel{name: name(b.Name, b.ID), kind: "brep"}
	})
	return append(out, lo.Map(m.SweptSolids, func(s *model.SweptSolid, _ int) itemLabel {
		return itemLabel{name: name(s.Name, s.ID), kind: "swept-solid"}
	})...)
}

func (o *output) write(f *reconstructFlags) error {
	g := o.geometry
	if f.geometry != "" {
		out, err := os.Create(f.geometry)
		if err != nil {
			return err
		}
		if err := shape.Encode(out, g); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	if f.stl != "" {
		if err := sdfx.SaveSTL(f.stl, g); err != nil {
			return err
		}
	}
	if f.meshes != "" {
		return writeMeshes(f.meshes, o.meshes)
	}
	return nil
}
