package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sylva-dev/sylva/app"
	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/service"
)

var (
	queryPatternFile     string
	queryRecursive       bool
	queryIncludePatterns []string
	queryExcludePatterns []string
	queryLanguage        string
	queryJSON            bool
	queryYAML            bool
	queryNoProgress      bool
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <pattern> [paths...]",
		Short: "Run a structural pattern query over source files",
		Long: `Run an s-expression pattern query over source files and report the
captured nodes.

Patterns follow the usual query syntax: node kinds in parentheses,
fields with "field:", captures with "@name", and predicates such as
(#eq? @a "text") or (#match? @a "regex").

Examples:
  sylva query '(identifier) @id' src/
  sylva query '(list open: "(" @open)' main.ex
  sylva query --file pattern.scm src/  # Read the pattern from a file
  sylva query --json '(comment) @c' src/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runQueryCommand,
	}

	cmd.Flags().StringVarP(&queryPatternFile, "file", "f", "", "Read the pattern from a file instead of the first argument")
	cmd.Flags().BoolVar(&queryRecursive, "recursive", true, "Recursively scan subdirectories")
	cmd.Flags().StringSliceVar(&queryIncludePatterns, "include", nil, "Include file patterns")
	cmd.Flags().StringSliceVar(&queryExcludePatterns, "exclude", nil, "Exclude file patterns")
	cmd.Flags().StringVarP(&queryLanguage, "language", "l", "", "Force a language instead of detecting by extension")
	cmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&queryYAML, "yaml", false, "Output as YAML")
	cmd.Flags().BoolVar(&queryNoProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func runQueryCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	pattern := ""
	paths := args
	if queryPatternFile != "" {
		data, err := os.ReadFile(queryPatternFile)
		if err != nil {
			return domain.NewFileNotFoundError(queryPatternFile, err)
		}
		pattern = string(data)
	} else {
		pattern = args[0]
		paths = args[1:]
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	request := &domain.QueryRequest{
		Pattern:         pattern,
		Paths:           paths,
		Recursive:       queryRecursive,
		IncludePatterns: selectPatterns(cmd.Flags(), "include", queryIncludePatterns, cfg.Parse.IncludePatterns),
		ExcludePatterns: selectPatterns(cmd.Flags(), "exclude", queryExcludePatterns, cfg.Parse.ExcludePatterns),
		Language:        queryLanguage,
		OutputFormat:    resolveFormat(queryJSON, queryYAML, cfg),
		OutputWriter:    os.Stdout,
		NoProgress:      queryNoProgress,
	}

	languages := service.NewLanguageManager(cfg)
	fileReader := service.NewFileReader()
	progress := newProgressReporter(queryNoProgress)
	queryService := service.NewQueryService(languages, fileReader, progress,
		cfg.Parse.MaxConcurrency, parseTimeout(cfg))
	formatter := service.NewQueryOutputFormatter()

	useCase := app.NewQueryUseCase(queryService, fileReader, formatter, progress, languages.Extensions())
	return useCase.Execute(cmd.Context(), request)
}
