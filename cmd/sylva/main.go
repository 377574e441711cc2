package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sylva-dev/sylva/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "sylva",
	Short: "A grammar-driven incremental parsing toolkit",
	Long: `sylva parses source files with grammars compiled to portable
grammar blobs, builds concrete syntax trees with error recovery, and
runs structural pattern queries over them.

Grammars are registered in .sylva.toml, one per language, with the file
extensions they handle.`,
	Version: version.Short(),
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")

	rootCmd.AddCommand(NewParseCmd())
	rootCmd.AddCommand(NewQueryCmd())
	rootCmd.AddCommand(NewLanguagesCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
