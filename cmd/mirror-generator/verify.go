package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mirror-generator/internal/analyze"
)

func verifyCmd(flags *globalFlags) *cobra.Command {
	var dir, pattern string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the original AST package against the schema",
		Long: `Verify type-checks the original AST package and reports every struct
field, enum discriminant and payload whose Go type differs from what the
generated conversions expect.`,
		Example: `  mirror-generator verify -s syn.json --dir ../syn`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			if pattern == "" {
				pattern = a.cfg.Output.OriginalImport
			}

			return runVerify(a, dir, pattern)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory the package pattern is resolved in")
	cmd.Flags().StringVar(&pattern, "package", "", "package pattern (default output.original_import)")

	return cmd
}

func runVerify(a *app, dir, pattern string) error {
	p, err := a.plan()
	if err != nil {
		return err
	}

	pkg, err := analyze.Load(dir, pattern)
	if err != nil {
		return err
	}

	diags := analyze.Verify(p, pkg, a.cfg.Imports())
	printDiagnostics(a.errOut, diags)

	if diags.HasErrors() {
		return fmt.Errorf("%s does not match the schema: %d error(s)", pkg.Path(), len(diags.Errors))
	}

	color.New(color.FgGreen).Fprintf(a.out, "ok: %s matches %d structs and %d enums\n",
		pkg.Path(), len(p.Structs), len(p.Enums))

	return nil
}
