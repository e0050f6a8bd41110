package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mirror-generator/internal/roundtrip"
)

var errRoundtripFailed = errors.New("round trip failed")

func roundtripCmd(flags *globalFlags) *cobra.Command {
	var (
		seed    uint64
		samples int
		depth   int
		nodes   []string
		dump    bool
	)

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Check that rebuilding a projected value yields the original",
		Long: `Roundtrip synthesizes original values for every generated node, projects
them, encodes the mirror, rebuilds the original and compares the result.`,
		Example: `  mirror-generator roundtrip -s syn.json --samples 50
  mirror-generator roundtrip -s syn.json --node ItemFn --node Expr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			fs := cmd.Flags()
			if fs.Changed("seed") {
				a.cfg.Roundtrip.Seed = seed
			}

			if fs.Changed("samples") {
				a.cfg.Roundtrip.Samples = samples
			}

			if fs.Changed("depth") {
				a.cfg.Roundtrip.Depth = depth
			}

			validateErr := a.cfg.Validate()
			if validateErr != nil {
				return validateErr
			}

			return runRoundtrip(a, nodes, dump)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().IntVar(&samples, "samples", 0, "values per node (default from config)")
	cmd.Flags().IntVar(&depth, "depth", 0, "nesting bound (default from config)")
	cmd.Flags().StringSliceVar(&nodes, "node", nil, "restrict the check to these nodes")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the failing original values")

	return cmd
}

func runRoundtrip(a *app, nodes []string, dump bool) error {
	p, err := a.plan()
	if err != nil {
		return err
	}

	checker := roundtrip.NewChecker(p, a.logger)

	report, err := checker.Run(a.cfg.Check(nodes, a.logger))
	if err != nil {
		return err
	}

	var checked, skipped int

	for _, res := range report.Results {
		checked += res.Samples

		if res.Skipped {
			skipped++
		}
	}

	for _, f := range report.Failures() {
		color.New(color.FgRed).Fprintf(a.errOut, "%s\n", f.String())

		if dump {
			fmt.Fprint(a.errOut, f.Value)
		}
	}

	if report.Failed() {
		return fmt.Errorf("%w: %d of %d values", errRoundtripFailed, len(report.Failures()), checked)
	}

	color.New(color.FgGreen).Fprintf(a.out, "ok: %d nodes, %d values, %d skipped\n",
		len(report.Results), checked, skipped)

	return nil
}
