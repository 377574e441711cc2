package service

import (
	"context"
	"sync/atomic"
	"time"

	sylva "github.com/sylva-dev/sylva"
	"github.com/sylva-dev/sylva/domain"
)

// ParseServiceImpl implements the ParseService interface
type ParseServiceImpl struct {
	languages *LanguageManager
	reader    domain.FileReader
	progress  domain.ProgressReporter
	executor  *fileExecutor
}

// NewParseService creates a new parse service
func NewParseService(languages *LanguageManager, reader domain.FileReader, progress domain.ProgressReporter, maxConcurrency int, timeout time.Duration) *ParseServiceImpl {
	return &ParseServiceImpl{
		languages: languages,
		reader:    reader,
		progress:  progress,
		executor:  newFileExecutor(maxConcurrency, timeout),
	}
}

// Parse parses every file and reports per-file results in input order
func (s *ParseServiceImpl) Parse(ctx context.Context, req *domain.ParseRequest, files []string) (*domain.ParseResponse, error) {
	start := time.Now()
	results := make([]domain.FileParseResult, len(files))
	var processed atomic.Int64

	err := s.executor.run(ctx, files, func(ctx context.Context, index int, path string) {
		results[index] = s.parseFile(ctx, req, path)
		done := processed.Add(1)
		if s.progress != nil {
			s.progress.UpdateProgress(path, int(done)-1, len(files))
		}
	})
	if err != nil {
		return nil, err
	}

	response := &domain.ParseResponse{}
	for _, r := range results {
		response.Summary.TotalFiles++
		if r.Failed {
			response.Summary.FailedFiles++
		} else {
			response.Summary.ParsedFiles++
			response.Summary.TotalNodes += r.NodeCount
			if r.HasError {
				response.Summary.FilesWithErr++
			}
		}
		if req.ErrorsOnly && !r.Failed && !r.HasError {
			continue
		}
		response.Files = append(response.Files, r)
	}
	response.Summary.DurationUS = time.Since(start).Microseconds()

	return response, nil
}

func (s *ParseServiceImpl) parseFile(ctx context.Context, req *domain.ParseRequest, path string) domain.FileParseResult {
	result := domain.FileParseResult{FilePath: path}

	langName := req.Language
	if langName == "" {
		name, ok := s.languages.LanguageNameForFile(path)
		if !ok {
			result.Failed = true
			result.Reason = "no language configured for this file"
			return result
		}
		langName = name
	}
	result.Language = langName

	pool, err := s.languages.Pool(langName)
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}

	source, err := s.reader.ReadFile(path)
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}

	fileStart := time.Now()
	parser := pool.Get()
	tree, err := parser.ParseCtx(ctx, source, nil)
	pool.Put(parser)
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}
	result.DurationUS = time.Since(fileStart).Microseconds()

	nodes, errors := countNodes(tree)
	result.NodeCount = nodes
	result.ErrorCount = errors
	result.HasError = tree.RootNode().HasError()
	if req.ShowTree {
		result.Tree = tree.RootNode().String()
	}

	return result
}

// countNodes walks the whole tree counting nodes and ERROR or missing
// nodes along the way
func countNodes(tree *sylva.Tree) (total, errs int) {
	cursor := tree.Walk()
	for {
		n := cursor.CurrentNode()
		total++
		if n.IsError() || n.IsMissing() {
			errs++
		}

		if cursor.GotoFirstChild() {
			continue
		}
		for {
			if cursor.GotoNextSibling() {
				break
			}
			if !cursor.GotoParent() {
				return total, errs
			}
		}
	}
}
