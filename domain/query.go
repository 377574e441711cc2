package domain

import (
	"context"
	"io"
)

// QueryRequest represents a request to run a structural pattern query
// over source files
type QueryRequest struct {
	// Pattern is the s-expression pattern text
	Pattern string

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
	NoProgress   bool
}

// Validate checks the request for basic problems before any work starts
func (r *QueryRequest) Validate() error {
	if r.Pattern == "" {
		return NewValidationError("no query pattern specified")
	}
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

// CaptureResult is one captured node within a match
type CaptureResult struct {
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	StartRow  uint32 `json:"start_row" yaml:"start_row"`
	StartCol  uint32 `json:"start_col" yaml:"start_col"`
	Text      string `json:"text" yaml:"text"`
}

// MatchResult is one pattern match within a file
type MatchResult struct {
	PatternIndex int             `json:"pattern_index" yaml:"pattern_index"`
	Captures     []CaptureResult `json:"captures" yaml:"captures"`
}

// FileQueryResult groups the matches found in one file
type FileQueryResult struct {
	FilePath string        `json:"file_path" yaml:"file_path"`
	Matches  []MatchResult `json:"matches" yaml:"matches"`

	Failed bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// QuerySummary aggregates matches across all files
type QuerySummary struct {
	TotalFiles   int   `json:"total_files" yaml:"total_files"`
	TotalMatches int   `json:"total_matches" yaml:"total_matches"`
	FailedFiles  int   `json:"failed_files" yaml:"failed_files"`
	DurationUS   int64 `json:"duration_us" yaml:"duration_us"`
}

// QueryResponse represents the result of a query run
type QueryResponse struct {
	Files   []FileQueryResult `json:"files" yaml:"files"`
	Summary QuerySummary      `json:"summary" yaml:"summary"`
}

// QueryService compiles the pattern and runs it over a set of files
type QueryService interface {
	Query(ctx context.Context, req *QueryRequest, files []string) (*QueryResponse, error)
}

// QueryOutputFormatter renders a QueryResponse
type QueryOutputFormatter interface {
	Write(response *QueryResponse, format OutputFormat, writer io.Writer) error
}
