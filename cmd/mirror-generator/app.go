package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mirror-generator/internal/config"
	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
)

var errMissingSchema = errors.New("no schema given: use --schema or set schema in the config file")

type globalFlags struct {
	configPath string
	schema     string
	exceptions string
	features   []string
	verbose    bool
	noColor    bool
}

// app is the state shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	if flags.noColor {
		color.NoColor = true
	}

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("schema") {
		cfg.Schema = flags.schema
	}

	if fs.Changed("exceptions") {
		cfg.Exceptions = flags.exceptions
	}

	if fs.Changed("features") {
		cfg.Features = flags.features
	}

	if flags.verbose {
		cfg.Verbose = true
	}

	if len(cfg.Features) == 0 {
		cfg.Features = nil
	}

	if cfg.Schema == "" {
		return nil, errMissingSchema
	}

	return &app{
		cfg:    cfg,
		logger: cfg.Logger(cmd.ErrOrStderr()),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

func (a *app) tables() (*exceptions.Tables, error) {
	if a.cfg.Exceptions == "" {
		return exceptions.Default(), nil
	}

	return exceptions.LoadFile(a.cfg.Exceptions)
}

// plan loads the schema and tables and builds the plan, printing every
// diagnostic.
func (a *app) plan() (*plan.Plan, error) {
	defs, err := schema.LoadFile(a.cfg.Schema)
	if err != nil {
		return nil, err
	}

	tables, err := a.tables()
	if err != nil {
		return nil, err
	}

	a.logger.Debug("schema loaded", "path", a.cfg.Schema, "nodes", len(defs.Nodes))

	p, err := plan.NewBuilder(defs, tables, plan.Config{
		Features: a.cfg.Features,
		Logger:   a.logger,
	}).Build()

	printDiagnostics(a.errOut, &p.Diagnostics)

	if err != nil {
		return p, fmt.Errorf("planning %s: %d error(s)", a.cfg.Schema, len(p.Diagnostics.Errors))
	}

	return p, nil
}

// printDiagnostics writes d with one colored line per diagnostic.
func printDiagnostics(w io.Writer, d *diagnostic.Diagnostics) {
	for _, e := range d.Errors {
		color.New(color.FgRed).Fprintf(w, "error: %s\n", e)
	}

	for _, e := range d.Warnings {
		color.New(color.FgYellow).Fprintf(w, "warning: %s\n", e)
	}

	for _, e := range d.Infos {
		color.New(color.FgCyan).Fprintf(w, "info: %s\n", e)
	}
}
