// Package config loads mirror-generator settings from a config file,
// MIRRORGEN_* environment variables, and defaults.
package config

import (
	"errors"
	"go/token"
	"io"
	"log/slog"

	"mirror-generator/internal/analyze"
	"mirror-generator/internal/gen"
	"mirror-generator/internal/roundtrip"
)

// Config is the top-level configuration struct for mirror-generator.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// Schema is the path of the JSON or YAML schema file.
	Schema string `mapstructure:"schema"`
	// Exceptions is the path of the exception tables. Empty selects the
	// built-in tables.
	Exceptions string          `mapstructure:"exceptions"`
	Features   []string        `mapstructure:"features"`
	Verbose    bool            `mapstructure:"verbose"`
	Output     OutputConfig    `mapstructure:"output"`
	Roundtrip  RoundtripConfig `mapstructure:"roundtrip"`
}

// OutputConfig controls the generated package.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	Package        string `mapstructure:"package"`
	OriginalImport string `mapstructure:"original_import"`
	TokenImport    string `mapstructure:"token_import"`
	RuntimeImport  string `mapstructure:"runtime_import"`
	PunctImport    string `mapstructure:"punct_import"`
}

// RoundtripConfig holds round-trip checker settings.
type RoundtripConfig struct {
	Seed    uint64 `mapstructure:"seed"`
	Samples int    `mapstructure:"samples"`
	Depth   int    `mapstructure:"depth"`
}

// Sentinel validation errors.
var (
	ErrMissingOutputDir = errors.New("output.dir must not be empty")
	ErrInvalidPackage   = errors.New("output.package must be a Go identifier")
	ErrMissingImport    = errors.New("output import paths must not be empty")
	ErrInvalidSamples   = errors.New("roundtrip.samples must be positive")
	ErrInvalidDepth     = errors.New("roundtrip.depth must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	outputErr := c.validateOutput()
	if outputErr != nil {
		return outputErr
	}

	return c.validateRoundtrip()
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if !token.IsIdentifier(c.Output.Package) {
		return ErrInvalidPackage
	}

	for _, path := range []string{
		c.Output.OriginalImport,
		c.Output.TokenImport,
		c.Output.RuntimeImport,
		c.Output.PunctImport,
	} {
		if path == "" {
			return ErrMissingImport
		}
	}

	return nil
}

func (c *Config) validateRoundtrip() error {
	if c.Roundtrip.Samples <= 0 {
		return ErrInvalidSamples
	}

	if c.Roundtrip.Depth < 0 {
		return ErrInvalidDepth
	}

	return nil
}

// Generator returns the code generator configuration.
func (c *Config) Generator(logger *slog.Logger) gen.Config {
	return gen.Config{
		PackageName:    c.Output.Package,
		OutputDir:      c.Output.Dir,
		OriginalImport: c.Output.OriginalImport,
		TokenImport:    c.Output.TokenImport,
		RuntimeImport:  c.Output.RuntimeImport,
		PunctImport:    c.Output.PunctImport,
		Logger:         logger,
	}
}

// Check returns the round-trip configuration restricted to nodes.
func (c *Config) Check(nodes []string, logger *slog.Logger) roundtrip.Config {
	return roundtrip.Config{
		Seed:    c.Roundtrip.Seed,
		Samples: c.Roundtrip.Samples,
		Depth:   c.Roundtrip.Depth,
		Nodes:   nodes,
		Logger:  logger,
	}
}

// Imports returns the import paths the original package is checked against.
func (c *Config) Imports() analyze.Imports {
	return analyze.Imports{
		Original: c.Output.OriginalImport,
		Token:    c.Output.TokenImport,
		Punct:    c.Output.PunctImport,
	}
}

// Logger builds the CLI logger: text on w, debug level when verbose.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
