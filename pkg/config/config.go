// Package config loads reconstruction settings from a YAML file and
// IFCSOLID_* environment variables.
package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chazu/ifcsolid/pkg/engine"
	"github.com/chazu/ifcsolid/pkg/geom"
	"github.com/chazu/ifcsolid/pkg/model"
	"github.com/chazu/ifcsolid/pkg/solid"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// IFCSOLID_TOLERANCE_PRECISION or IFCSOLID_OPEN_SHELLS.
const EnvPrefix = "IFCSOLID"

// Config is the root configuration structure.
type Config struct {
	Tolerance   Tolerance     `mapstructure:"tolerance" yaml:"tolerance"`
	Workarounds []string      `mapstructure:"workarounds" yaml:"workarounds,omitempty"`
	Limits      Limits        `mapstructure:"limits" yaml:"limits"`
	OpenShells  string        `mapstructure:"open_shells" yaml:"open_shells"`
	EvalTimeout time.Duration `mapstructure:"eval_timeout" yaml:"eval_timeout"`
	LogLevel    string        `mapstructure:"log_level" yaml:"log_level"`
}

// Tolerance mirrors geom.Tolerance with the shorter key names used in
// configuration files.
type Tolerance struct {
	Precision  float64 `mapstructure:"precision" yaml:"precision"`
	Deflection float64 `mapstructure:"deflection" yaml:"deflection"`
	Angle      float64 `mapstructure:"angle" yaml:"angle"`
}

// Limits holds the iteration caps.
type Limits struct {
	FaceSteps  int `mapstructure:"face_steps" yaml:"face_steps"`
	ShellSteps int `mapstructure:"shell_steps" yaml:"shell_steps"`
	SewSteps   int `mapstructure:"sew_steps" yaml:"sew_steps"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Tolerance: Tolerance{
			Precision:  geom.DefaultPrecision,
			Deflection: geom.DefaultDeflectionTolerance,
			Angle:      geom.DefaultDeflectionAngle,
		},
		Limits: Limits{
			FaceSteps:  geom.DefaultFaceSteps,
			ShellSteps: geom.DefaultShellSteps,
			SewSteps:   geom.DefaultSewSteps,
		},
		OpenShells:  solid.RetainEnclosed.String(),
		EvalTimeout: engine.DefaultTimeout,
		LogLevel:    "info",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("tolerance.precision", d.Tolerance.Precision)
	v.SetDefault("tolerance.deflection", d.Tolerance.Deflection)
	v.SetDefault("tolerance.angle", d.Tolerance.Angle)
	v.SetDefault("workarounds", []string{})
	v.SetDefault("limits.face_steps", d.Limits.FaceSteps)
	v.SetDefault("limits.shell_steps", d.Limits.ShellSteps)
	v.SetDefault("limits.sew_steps", d.Limits.SewSteps)
	v.SetDefault("open_shells", d.OpenShells)
	v.SetDefault("eval_timeout", d.EvalTimeout)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path, if any, applies environment
// overrides and validates the result. An empty path means defaults plus
// environment.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return decode(v)
}

// Parse is Load for an in-memory YAML document.
func Parse(r io.Reader) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	// IFCSOLID_WORKAROUNDS arrives as one comma separated string.
	if s, ok := v.Get("workarounds").(string); ok {
		cfg.Workarounds = splitList(s)
	}
	cfg.Workarounds = lo.Uniq(cfg.Workarounds)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	return lo.Compact(parts)
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := c.GeomTolerance().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Limits.FaceSteps <= 0 || c.Limits.ShellSteps <= 0 || c.Limits.SewSteps <= 0 {
		return fmt.Errorf("config: limits must be positive, got face_steps=%d shell_steps=%d sew_steps=%d",
			c.Limits.FaceSteps, c.Limits.ShellSteps, c.Limits.SewSteps)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("config: eval_timeout must be positive, got %s", c.EvalTimeout)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GeomTolerance converts the tolerance section.
func (c *Config) GeomTolerance() geom.Tolerance {
	return geom.Tolerance{
		Precision:           c.Tolerance.Precision,
		DeflectionTolerance: c.Tolerance.Deflection,
		DeflectionAngle:     c.Tolerance.Angle,
	}
}

// GeomLimits converts the limits section.
func (c *Config) GeomLimits() geom.Limits {
	return geom.Limits{FaceSteps: c.Limits.FaceSteps, ShellSteps: c.Limits.ShellSteps, SewSteps: c.Limits.SewSteps}
}

// Policy parses the open shell policy.
func (c *Config) Policy() (solid.Policy, error) {
	return solid.ParsePolicy(c.OpenShells)
}

// Apply copies the tolerance and workarounds into a freshly built model.
// A model whose description set its own tolerance keeps it, even when that
// tolerance equals the defaults.
func (c *Config) Apply(m *model.Model) error {
	if !m.ToleranceSet {
		m.Tolerance = c.GeomTolerance()
	}
	for _, name := range c.Workarounds {
		if err := m.Workarounds.Enable(name); err != nil {
			return fmt.Errorf("config: workaround %s: %w", name, err)
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
