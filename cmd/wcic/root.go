package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var flagConfig string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wcic",
		Short: "Find the recipes you can cook with what you have",
		Long: "wcic ranks recipes by how many of their ingredients you already own.\n" +
			"Run it as an HTTP service or match offline against a JSON corpus file.",
		Example: `  wcic serve --config config.yaml
  wcic match --corpus recipes.json --min 50 chicken rice
  wcic version`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")

	root.AddCommand(newServeCmd(), newMatchCmd(), newVersionCmd())
	return root
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	flagConfig = ""

	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
