package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sylva-dev/sylva/service"
)

// NewLanguagesCmd creates the languages command
func NewLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the configured languages",
		Long: `List every language registered in the configuration together with
its grammar path and file extensions. Each grammar is loaded to verify
it compiles.`,
		Args: cobra.NoArgs,
		RunE: runLanguagesCommand,
	}
}

func runLanguagesCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	languages := service.NewLanguageManager(cfg)
	names := languages.Names()
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No languages configured. Run `sylva init` to create a config.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		lc := cfg.Languages[name]
		status := "ok"
		if _, err := languages.Language(name); err != nil {
			status = err.Error()
		}
		fmt.Fprintf(out, "%-16s %-28s %-20s %s\n",
			name, lc.Grammar, strings.Join(lc.Extensions, ","), status)
	}
	return nil
}
