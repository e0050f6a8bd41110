package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mirror-generator/internal/plan"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	var report bool

	var export string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the schema and exception tables without generating",
		Example: `  mirror-generator check -s syn.json --report
  mirror-generator check -s syn.json --export plan.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			return runCheck(a, report, export)
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "print how every field and variant is mirrored")
	cmd.Flags().StringVar(&export, "export", "", "write the plan report as YAML to this path")

	return cmd
}

func runCheck(a *app, report bool, export string) error {
	p, err := a.plan()
	if err != nil {
		return err
	}

	if report {
		fmt.Fprint(a.out, plan.FormatReport(plan.GenerateReport(p)))
	}

	if export != "" {
		data, err := plan.ExportYAML(p)
		if err != nil {
			return fmt.Errorf("exporting plan: %w", err)
		}

		err = os.WriteFile(export, data, 0o644)
		if err != nil {
			return fmt.Errorf("writing %s: %w", export, err)
		}
	}

	color.New(color.FgGreen).Fprintf(a.out, "ok: %d structs, %d enums, %d empty, %d manual, %d warning(s)\n",
		len(p.Structs), len(p.Enums), len(p.Empty), len(p.Manual), len(p.Diagnostics.Warnings))

	return nil
}
