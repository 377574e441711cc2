package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sylva-dev/sylva/app"
	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/service"
)

var (
	parseRecursive       bool
	parseIncludePatterns []string
	parseExcludePatterns []string
	parseLanguage        string
	parseJSON            bool
	parseYAML            bool
	parseShowTree        bool
	parseErrorsOnly      bool
	parseNoProgress      bool
)

// NewParseCmd creates the parse command
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [paths...]",
		Short: "Parse source files and report syntax trees",
		Long: `Parse source files with the configured grammars and report node
counts, syntax errors, and optionally the full syntax tree.

Examples:
  sylva parse src/                  # Parse every configured source file in src/
  sylva parse --tree main.ex        # Print the syntax tree
  sylva parse --errors-only src/    # Report only files with syntax errors
  sylva parse --json src/           # Output as JSON`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParseCommand,
	}

	cmd.Flags().BoolVar(&parseRecursive, "recursive", true, "Recursively scan subdirectories")
	cmd.Flags().StringSliceVar(&parseIncludePatterns, "include", nil, "Include file patterns")
	cmd.Flags().StringSliceVar(&parseExcludePatterns, "exclude", nil, "Exclude file patterns")
	cmd.Flags().StringVarP(&parseLanguage, "language", "l", "", "Force a language instead of detecting by extension")
	cmd.Flags().BoolVar(&parseJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&parseYAML, "yaml", false, "Output as YAML")
	cmd.Flags().BoolVar(&parseShowTree, "tree", false, "Print the syntax tree for each file")
	cmd.Flags().BoolVar(&parseErrorsOnly, "errors-only", false, "Report only files with syntax errors")
	cmd.Flags().BoolVar(&parseNoProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	request := &domain.ParseRequest{
		Paths:           args,
		Recursive:       parseRecursive,
		IncludePatterns: selectPatterns(cmd.Flags(), "include", parseIncludePatterns, cfg.Parse.IncludePatterns),
		ExcludePatterns: selectPatterns(cmd.Flags(), "exclude", parseExcludePatterns, cfg.Parse.ExcludePatterns),
		Language:        parseLanguage,
		OutputFormat:    resolveFormat(parseJSON, parseYAML, cfg),
		OutputWriter:    os.Stdout,
		ShowTree:        parseShowTree,
		ErrorsOnly:      parseErrorsOnly,
		NoProgress:      parseNoProgress,
	}

	languages := service.NewLanguageManager(cfg)
	fileReader := service.NewFileReader()
	progress := newProgressReporter(parseNoProgress)
	parseService := service.NewParseService(languages, fileReader, progress,
		cfg.Parse.MaxConcurrency, parseTimeout(cfg))
	formatter := service.NewParseOutputFormatter()

	useCase := app.NewParseUseCase(parseService, fileReader, formatter, progress, languages.Extensions())
	return useCase.Execute(cmd.Context(), request)
}
