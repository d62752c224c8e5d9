package main

import (
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "wikigraph",
	Short: "wikigraph explores wikipedia and the web as a graph",
	Long: brand.Sprint("wikigraph") + " builds a graph of articles, pages, notices and media\n" +
		subtle.Sprint("Serve the workspace, inspect saved graphs or preview an article"),
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.SetVersionTemplate("wikigraph {{ .Version }}\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(
		serveCmd(),
		inspectCmd(),
		fetchCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
