package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/internal/config"
	"github.com/sylva-dev/sylva/service"
)

// loadConfigFromCmd loads the config file named by the persistent
// --config flag, falling back to the default search path
func loadConfigFromCmd(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}
	return cfg, nil
}

// resolveFormat picks the output format from the json/yaml flags, the
// config default, or text
func resolveFormat(jsonFlag, yamlFlag bool, cfg *config.Config) domain.OutputFormat {
	switch {
	case jsonFlag:
		return domain.OutputFormatJSON
	case yamlFlag:
		return domain.OutputFormatYAML
	case cfg.Output.Format != "":
		return domain.OutputFormat(cfg.Output.Format)
	default:
		return domain.OutputFormatText
	}
}

// parseTimeout converts the configured timeout into a duration, zero
// means no limit
func parseTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Parse.TimeoutSeconds) * time.Second
}

// selectPatterns prefers patterns given on the command line over the
// configured defaults
func selectPatterns(flags *pflag.FlagSet, flagName string, flagPatterns, cfgPatterns []string) []string {
	if flags.Changed(flagName) {
		return flagPatterns
	}
	return cfgPatterns
}

// newProgressReporter builds the progress reporter shared by the
// service and use case layers
func newProgressReporter(noProgress bool) domain.ProgressReporter {
	return service.CreateProgressReporter(noProgress)
}
