package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sylva-dev/sylva/domain"
)

type mockParseService struct {
	mock.Mock
}

func (m *mockParseService) Parse(ctx context.Context, req *domain.ParseRequest, files []string) (*domain.ParseResponse, error) {
	args := m.Called(ctx, req, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseResponse), args.Error(1)
}

type mockFileReader struct {
	mock.Mock
}

func (m *mockFileReader) CollectSourceFiles(paths []string, recursive bool, includePatterns, excludePatterns, extensions []string) ([]string, error) {
	args := m.Called(paths, recursive, includePatterns, excludePatterns, extensions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFileReader) ReadFile(path string) ([]byte, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockFileReader) FileExists(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

type mockParseFormatter struct {
	mock.Mock
}

func (m *mockParseFormatter) Write(response *domain.ParseResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	return args.Error(0)
}

type mockProgressReporter struct {
	mock.Mock
}

func (m *mockProgressReporter) StartProgress(totalFiles int) { m.Called(totalFiles) }
func (m *mockProgressReporter) UpdateProgress(currentFile string, processed, total int) {
	m.Called(currentFile, processed, total)
}
func (m *mockProgressReporter) FinishProgress() { m.Called() }

func validParseRequest() *domain.ParseRequest {
	return &domain.ParseRequest{
		Paths:        []string{"src"},
		Recursive:    true,
		OutputFormat: domain.OutputFormatText,
		OutputWriter: &strings.Builder{},
	}
}

func TestParseUseCaseExecute(t *testing.T) {
	svc := &mockParseService{}
	reader := &mockFileReader{}
	formatter := &mockParseFormatter{}

	req := validParseRequest()
	files := []string{"src/a.ex", "src/b.ex"}
	response := &domain.ParseResponse{}

	reader.On("CollectSourceFiles", req.Paths, true, []string(nil), []string(nil), []string{".ex"}).Return(files, nil)
	svc.On("Parse", mock.Anything, req, files).Return(response, nil)
	formatter.On("Write", response, domain.OutputFormatText, req.OutputWriter).Return(nil)

	uc := NewParseUseCase(svc, reader, formatter, nil, []string{".ex"})
	err := uc.Execute(context.Background(), req)

	assert.NoError(t, err)
	svc.AssertExpectations(t)
	reader.AssertExpectations(t)
	formatter.AssertExpectations(t)
}

func TestParseUseCaseInvalidRequest(t *testing.T) {
	uc := NewParseUseCase(&mockParseService{}, &mockFileReader{}, &mockParseFormatter{}, nil, nil)

	err := uc.Execute(context.Background(), &domain.ParseRequest{})
	assert.Error(t, err)
}

func TestParseUseCaseNoFiles(t *testing.T) {
	svc := &mockParseService{}
	reader := &mockFileReader{}
	req := validParseRequest()

	reader.On("CollectSourceFiles", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]string{}, nil)

	uc := NewParseUseCase(svc, reader, &mockParseFormatter{}, nil, nil)
	err := uc.Execute(context.Background(), req)

	assert.Error(t, err)
	svc.AssertNotCalled(t, "Parse")
}

func TestParseUseCaseServiceError(t *testing.T) {
	svc := &mockParseService{}
	reader := &mockFileReader{}
	req := validParseRequest()

	reader.On("CollectSourceFiles", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]string{"a.ex"}, nil)
	svc.On("Parse", mock.Anything, req, []string{"a.ex"}).Return(nil, errors.New("boom"))

	uc := NewParseUseCase(svc, reader, &mockParseFormatter{}, nil, nil)
	err := uc.Execute(context.Background(), req)

	assert.Error(t, err)
	var de domain.DomainError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeParseError, de.Code)
}

func TestParseUseCaseProgressLifecycle(t *testing.T) {
	svc := &mockParseService{}
	reader := &mockFileReader{}
	formatter := &mockParseFormatter{}
	progress := &mockProgressReporter{}
	req := validParseRequest()

	reader.On("CollectSourceFiles", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]string{"a.ex"}, nil)
	svc.On("Parse", mock.Anything, req, []string{"a.ex"}).Return(&domain.ParseResponse{}, nil)
	formatter.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	progress.On("StartProgress", 1).Return()
	progress.On("FinishProgress").Return()

	uc := NewParseUseCase(svc, reader, formatter, progress, nil)
	err := uc.Execute(context.Background(), req)

	assert.NoError(t, err)
	progress.AssertExpectations(t)
}

func TestParseUseCaseExecuteFile(t *testing.T) {
	svc := &mockParseService{}
	reader := &mockFileReader{}
	formatter := &mockParseFormatter{}
	req := validParseRequest()

	reader.On("FileExists", "a.ex").Return(true, nil)
	svc.On("Parse", mock.Anything, req, []string{"a.ex"}).Return(&domain.ParseResponse{}, nil)
	formatter.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := NewParseUseCase(svc, reader, formatter, nil, nil)
	err := uc.ExecuteFile(context.Background(), "a.ex", req)

	assert.NoError(t, err)
}

func TestParseUseCaseExecuteFileMissing(t *testing.T) {
	reader := &mockFileReader{}
	reader.On("FileExists", "nope.ex").Return(false, nil)

	uc := NewParseUseCase(&mockParseService{}, reader, &mockParseFormatter{}, nil, nil)
	err := uc.ExecuteFile(context.Background(), "nope.ex", validParseRequest())

	assert.Error(t, err)
}
