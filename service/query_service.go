package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	sylva "github.com/sylva-dev/sylva"
	"github.com/sylva-dev/sylva/domain"
)

// QueryServiceImpl implements the QueryService interface
type QueryServiceImpl struct {
	languages *LanguageManager
	reader    domain.FileReader
	progress  domain.ProgressReporter
	executor  *fileExecutor

	mu       sync.Mutex
	compiled map[queryKey]*sylva.Query
}

// queryKey caches one compilation per language and pattern pair.
type queryKey struct {
	language string
	pattern  string
}

// NewQueryService creates a new query service
func NewQueryService(languages *LanguageManager, reader domain.FileReader, progress domain.ProgressReporter, maxConcurrency int, timeout time.Duration) *QueryServiceImpl {
	return &QueryServiceImpl{
		languages: languages,
		reader:    reader,
		progress:  progress,
		executor:  newFileExecutor(maxConcurrency, timeout),
		compiled:  make(map[queryKey]*sylva.Query),
	}
}

// Query runs the pattern over every file and reports matches in input
// order
func (s *QueryServiceImpl) Query(ctx context.Context, req *domain.QueryRequest, files []string) (*domain.QueryResponse, error) {
	start := time.Now()
	results := make([]domain.FileQueryResult, len(files))
	var processed atomic.Int64

	err := s.executor.run(ctx, files, func(ctx context.Context, index int, path string) {
		results[index] = s.queryFile(ctx, req, path)
		done := processed.Add(1)
		if s.progress != nil {
			s.progress.UpdateProgress(path, int(done)-1, len(files))
		}
	})
	if err != nil {
		return nil, err
	}

	response := &domain.QueryResponse{Files: results}
	for _, r := range results {
		response.Summary.TotalFiles++
		if r.Failed {
			response.Summary.FailedFiles++
		}
		response.Summary.TotalMatches += len(r.Matches)
	}
	response.Summary.DurationUS = time.Since(start).Microseconds()

	return response, nil
}

// compiledQuery compiles each pattern once per language
func (s *QueryServiceImpl) compiledQuery(langName, pattern string) (*sylva.Query, error) {
	key := queryKey{language: langName, pattern: pattern}

	s.mu.Lock()
	if q, ok := s.compiled[key]; ok {
		s.mu.Unlock()
		return q, nil
	}
	s.mu.Unlock()

	lang, err := s.languages.Language(langName)
	if err != nil {
		return nil, err
	}
	q, err := sylva.CompileQuery(lang, pattern)
	if err != nil {
		return nil, domain.NewQueryError("failed to compile query", err)
	}

	s.mu.Lock()
	s.compiled[key] = q
	s.mu.Unlock()
	return q, nil
}

func (s *QueryServiceImpl) queryFile(ctx context.Context, req *domain.QueryRequest, path string) domain.FileQueryResult {
	result := domain.FileQueryResult{FilePath: path}

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

	query, err := s.compiledQuery(langName, req.Pattern)
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}

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

	parser := pool.Get()
	tree, err := parser.ParseCtx(ctx, source, nil)
	pool.Put(parser)
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		return result
	}

	cursor := query.Matches(tree)
	for {
		match, ok := cursor.Next()
		if !ok {
			break
		}
		mr := domain.MatchResult{PatternIndex: match.PatternIndex}
		for _, cap := range match.Captures {
			mr.Captures = append(mr.Captures, domain.CaptureResult{
				Name:      cap.Name,
				Kind:      cap.Node.Kind(),
				StartByte: cap.Node.StartByte(),
				EndByte:   cap.Node.EndByte(),
				StartRow:  cap.Node.StartPoint().Row,
				StartCol:  cap.Node.StartPoint().Column,
				Text:      string(cap.Node.Text()),
			})
		}
		result.Matches = append(result.Matches, mr)
	}

	return result
}
