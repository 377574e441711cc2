package app

import (
	"context"
	"fmt"

	"github.com/sylva-dev/sylva/domain"
)

// ParseUseCase orchestrates the parse workflow: collect files, parse
// them, render the results
type ParseUseCase struct {
	service    domain.ParseService
	fileReader domain.FileReader
	formatter  domain.ParseOutputFormatter
	progress   domain.ProgressReporter
	extensions []string
}

// NewParseUseCase creates a new parse use case
func NewParseUseCase(
	service domain.ParseService,
	fileReader domain.FileReader,
	formatter domain.ParseOutputFormatter,
	progress domain.ProgressReporter,
	extensions []string,
) *ParseUseCase {
	return &ParseUseCase{
		service:    service,
		fileReader: fileReader,
		formatter:  formatter,
		progress:   progress,
		extensions: extensions,
	}
}

// Execute performs the complete parse workflow
func (uc *ParseUseCase) Execute(ctx context.Context, req *domain.ParseRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	files, err := uc.fileReader.CollectSourceFiles(
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
		uc.extensions,
	)
	if err != nil {
		return domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return domain.NewInvalidInputError("no source files found in the specified paths", nil)
	}

	if uc.progress != nil && !req.NoProgress {
		uc.progress.StartProgress(len(files))
		defer uc.progress.FinishProgress()
	}

	response, err := uc.service.Parse(ctx, req, files)
	if err != nil {
		return domain.NewParseError("parse run failed", err)
	}

	if err := uc.formatter.Write(response, req.OutputFormat, req.OutputWriter); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}

// ExecuteFile parses a single file
func (uc *ParseUseCase) ExecuteFile(ctx context.Context, filePath string, req *domain.ParseRequest) error {
	if req.OutputWriter == nil {
		return domain.NewValidationError("no output writer specified")
	}

	exists, err := uc.fileReader.FileExists(filePath)
	if err != nil {
		return domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return domain.NewFileNotFoundError(filePath, fmt.Errorf("no such file"))
	}

	response, err := uc.service.Parse(ctx, req, []string{filePath})
	if err != nil {
		return domain.NewParseError("parse run failed", err)
	}

	if err := uc.formatter.Write(response, req.OutputFormat, req.OutputWriter); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}
