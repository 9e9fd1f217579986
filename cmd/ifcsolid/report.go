package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chazu/ifcsolid/pkg/brep"
	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/workaround"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Report is the outcome of one reconstruct run.
type Report struct {
	Model       string            `json:"model" yaml:"model"`
	Tolerance   geom.Tolerance    `json:"tolerance" yaml:"tolerance"`
	Workarounds []string          `json:"workarounds,omitempty" yaml:"workarounds,omitempty"`
	Policy      string            `json:"open_shells" yaml:"open_shells"`
	Findings    []diag.Diagnostic `json:"findings,omitempty" yaml:"findings,omitempty"`
	Items       []ItemReport      `json:"items" yaml:"items"`
}

// ItemReport describes one representation item.
type ItemReport struct {
	Item        string            `json:"item" yaml:"item"`
	Kind        string            `json:"kind" yaml:"kind"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Valid       bool              `json:"is_valid" yaml:"is_valid"`
	Solids      []brep.Summary    `json:"solids,omitempty" yaml:"solids,omitempty"`
	Triangles   int               `json:"triangles,omitempty" yaml:"triangles,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Valid reports whether every item reconstructed into a valid set.
func (r *Report) Valid() bool {
	for _, it := range r.Items {
		if !it.Valid {
			return false
		}
	}
	return len(r.Items) > 0
}

func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func (r *Report) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "model\t%s\n", r.Model)
	fmt.Fprintf(tw, "precision\t%g\n", r.Tolerance.Precision)
	if len(r.Workarounds) > 0 {
		fmt.Fprintf(tw, "workarounds\t%s\n", strings.Join(r.Workarounds, " "))
	}
	fmt.Fprintf(tw, "open shells\t%s\n", r.Policy)
	for _, d := range r.Findings {
		fmt.Fprintf(tw, "  %s\n", d.Error())
	}
	fmt.Fprintln(tw)
	for _, it := range r.Items {
		status := "valid"
		switch {
		case it.Error != "":
			status = "error: " + it.Error
		case !it.Valid:
			status = "invalid"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", it.Kind, it.Item, status)
		for i, s := range it.Solids {
			fmt.Fprintf(tw, "  solid %d\tfaces %d\tvolume %.6g\tvalid %v\n", i, s.FaceCount, s.Volume, s.IsValid)
		}
		if it.Triangles > 0 {
			fmt.Fprintf(tw, "  triangles\t%d\n", it.Triangles)
		}
		for _, d := range it.Diagnostics {
			fmt.Fprintf(tw, "  %s\n", d.Error())
		}
	}
	return tw.Flush()
}

func newWorkaroundsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "workarounds",
		Short: "List the workaround identifiers ifcsolid interprets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			known := workaround.Known()
			return render(cmd.OutOrStdout(), format, known, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, k := range known {
					fmt.Fprintf(tw, "%s\t%s\n", k.Name, k.Description)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text|json|yaml)")
	return cmd
}
