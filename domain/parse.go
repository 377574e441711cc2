package domain

import (
	"context"
	"io"
)

// OutputFormat represents the output format for results
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseRequest represents a request to parse source files
type ParseRequest struct {
	// Input specification
	Paths           []string
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Language selects the grammar; empty means detect by extension
	Language string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowTree     bool
	ErrorsOnly   bool
	NoProgress   bool
}

// Validate checks the request for basic problems before any work starts
func (r *ParseRequest) Validate() error {
	if len(r.Paths) == 0 {
		return NewValidationError("no input paths specified")
	}
	if r.OutputWriter == nil {
		return NewValidationError("no output writer specified")
	}
	switch r.OutputFormat {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
	default:
		return NewUnsupportedFormatError(string(r.OutputFormat))
	}
	return nil
}

// FileParseResult is the parse outcome for one file
type FileParseResult struct {
	FilePath   string `json:"file_path" yaml:"file_path"`
	Language   string `json:"language" yaml:"language"`
	NodeCount  int    `json:"node_count" yaml:"node_count"`
	ErrorCount int    `json:"error_count" yaml:"error_count"`
	HasError   bool   `json:"has_error" yaml:"has_error"`
	DurationUS int64  `json:"duration_us" yaml:"duration_us"`

	// Tree is the root rendered as an s-expression, filled only when
	// the request asked for it
	Tree string `json:"tree,omitempty" yaml:"tree,omitempty"`

	// Failed is set when the file could not be read or no grammar
	// matched; the parse itself never fails on malformed input
	Failed bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ParseSummary aggregates results across all files
type ParseSummary struct {
	TotalFiles   int   `json:"total_files" yaml:"total_files"`
	ParsedFiles  int   `json:"parsed_files" yaml:"parsed_files"`
	FailedFiles  int   `json:"failed_files" yaml:"failed_files"`
	FilesWithErr int   `json:"files_with_errors" yaml:"files_with_errors"`
	TotalNodes   int   `json:"total_nodes" yaml:"total_nodes"`
	DurationUS   int64 `json:"duration_us" yaml:"duration_us"`
}

// ParseResponse represents the result of parsing files
type ParseResponse struct {
	Files   []FileParseResult `json:"files" yaml:"files"`
	Summary ParseSummary      `json:"summary" yaml:"summary"`
}

// ParseService parses a set of files
type ParseService interface {
	Parse(ctx context.Context, req *ParseRequest, files []string) (*ParseResponse, error)
}

// FileReader discovers and reads source files
type FileReader interface {
	CollectSourceFiles(paths []string, recursive bool, includePatterns, excludePatterns []string, extensions []string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	FileExists(path string) (bool, error)
}

// ParseOutputFormatter renders a ParseResponse
type ParseOutputFormatter interface {
	Write(response *ParseResponse, format OutputFormat, writer io.Writer) error
}

// ProgressReporter reports per-file progress on long runs
type ProgressReporter interface {
	StartProgress(totalFiles int)
	UpdateProgress(currentFile string, processed, total int)
	FinishProgress()
}
