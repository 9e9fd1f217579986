// Command ifcsolid reconstructs solids from model descriptions: it sews
// advanced B-rep faces into shells, heals known exporter defects, checks
// validity and writes tessellated geometry.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/chazu/ifcsolid/pkg/config"
	"github.com/chazu/ifcsolid/pkg/logging"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

// options are the global flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
}

// load reads the configuration and builds the logger. Flags take
// precedence over the file and the environment.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	lg, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.cfg, o.logger = cfg, lg
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ifcsolid",
		Short: "Reconstruct and heal IFC advanced B-rep solids",
		Long: `ifcsolid evaluates a model description, reconstructs every advanced
B-rep and swept solid in it, reports validity and healing diagnostics, and
optionally writes tessellated geometry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")

	root.AddCommand(newReconstructCmd(opts))
	root.AddCommand(newWorkaroundsCmd())
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ifcsolid v%s\n", version)
		},
	})
	return root
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
