// Package main provides the CLI entrypoint for mirror-generator.
//
// mirror-generator reads a structural schema of syntax tree nodes and
// emits serializable mirror types together with total projection and
// fallible reconstruction functions between the tree and its mirror.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "mirror-generator",
		Short: "Generate serializable mirror types for a syntax tree schema",
		Long: `mirror-generator derives mirror types, serialization annotations and
conversion functions from a schema of syntax tree nodes.

Settings are read from .mirror-generator.yaml (CWD or $HOME),
MIRRORGEN_* environment variables and the flags below.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is ./.mirror-generator.yaml)")
	pf.StringVarP(&flags.schema, "schema", "s", "", "schema file (JSON or YAML)")
	pf.StringVarP(&flags.exceptions, "exceptions", "e", "", "exception tables YAML (default built-in)")
	pf.StringSliceVar(&flags.features, "features", nil, "features that gate node availability")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(generateCmd(flags))
	rootCmd.AddCommand(checkCmd(flags))
	rootCmd.AddCommand(roundtripCmd(flags))
	rootCmd.AddCommand(verifyCmd(flags))

	return rootCmd
}
