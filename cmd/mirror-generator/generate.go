package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mirror-generator/internal/gen"
)

func generateCmd(flags *globalFlags) *cobra.Command {
	var output, pkg string

	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate mirror types and conversion functions",
		Long: `Generate writes mirror_structs.go, mirror_enums.go and mirror_convert.go
to the output directory. Nothing is written when planning reports an error.`,
		Example: `  mirror-generator generate -s syn.json -o ./synmirror
  mirror-generator generate -s syn.json --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("output") {
				a.cfg.Output.Dir = output
			}

			if cmd.Flags().Changed("package") {
				a.cfg.Output.Package = pkg
			}

			validateErr := a.cfg.Validate()
			if validateErr != nil {
				return validateErr
			}

			return runGenerate(a, dryRun)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&pkg, "package", "", "generated package name (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the generated files instead of writing them")

	return cmd
}

func runGenerate(a *app, dryRun bool) error {
	p, err := a.plan()
	if err != nil {
		return err
	}

	files, err := gen.NewGenerator(a.cfg.Generator(a.logger)).Generate(p)
	if err != nil {
		return fmt.Errorf("generating: %w", err)
	}

	if dryRun {
		for _, f := range files {
			fmt.Fprintf(a.out, "=== %s ===\n%s\n", f.Filename, f.Content)
		}

		return nil
	}

	err = gen.WriteFiles(files, a.cfg.Output.Dir)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(a.out, "wrote %d files to %s (%d structs, %d enums)\n",
		len(files), a.cfg.Output.Dir, len(p.Structs), len(p.Enums))

	return nil
}
