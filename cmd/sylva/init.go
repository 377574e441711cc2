package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sylva-dev/sylva/internal/config"
)

var initForce bool

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter .sylva.toml in the current directory",
		Long: `Create a starter configuration file with a commented example
language entry. Edit it to register your grammars.

Examples:
  sylva init            # Create .sylva.toml
  sylva init --force    # Overwrite an existing config`,
		Args: cobra.NoArgs,
		RunE: runInitCommand,
	}

	cmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefaultConfig(".", initForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
