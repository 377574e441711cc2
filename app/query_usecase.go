package app

import (
	"context"

	"github.com/sylva-dev/sylva/domain"
)

// QueryUseCase orchestrates the query workflow: collect files, run the
// pattern over each, render the matches
type QueryUseCase struct {
	service    domain.QueryService
	fileReader domain.FileReader
	formatter  domain.QueryOutputFormatter
	progress   domain.ProgressReporter
	extensions []string
}

// NewQueryUseCase creates a new query use case
func NewQueryUseCase(
	service domain.QueryService,
	fileReader domain.FileReader,
	formatter domain.QueryOutputFormatter,
	progress domain.ProgressReporter,
	extensions []string,
) *QueryUseCase {
	return &QueryUseCase{
		service:    service,
		fileReader: fileReader,
		formatter:  formatter,
		progress:   progress,
		extensions: extensions,
	}
}

// Execute performs the complete query workflow
func (uc *QueryUseCase) Execute(ctx context.Context, req *domain.QueryRequest) error {
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

	response, err := uc.service.Query(ctx, req, files)
	if err != nil {
		return domain.NewQueryError("query run failed", err)
	}

	if err := uc.formatter.Write(response, req.OutputFormat, req.OutputWriter); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}
