package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dir = "../internal/grammar/testdata"
	cfg.Languages = map[string]config.LanguageConfig{
		"sexp": {Grammar: "sexp.json", Extensions: []string{".ex"}},
	}
	return cfg
}

func TestLanguageManagerLoads(t *testing.T) {
	m := NewLanguageManager(testConfig(t))

	lang, err := m.Language("sexp")
	require.NoError(t, err)
	assert.Equal(t, "sexp", lang.Name())

	// Second lookup hits the registry, same instance
	again, err := m.Language("sexp")
	require.NoError(t, err)
	assert.Same(t, lang, again)

	pool, err := m.Pool("sexp")
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestLanguageManagerUnknownLanguage(t *testing.T) {
	m := NewLanguageManager(testConfig(t))

	_, err := m.Language("fortran")
	assert.Error(t, err)
}

func TestLanguageManagerForFile(t *testing.T) {
	m := NewLanguageManager(testConfig(t))

	name, ok := m.LanguageNameForFile("src/main.ex")
	require.True(t, ok)
	assert.Equal(t, "sexp", name)

	_, ok = m.LanguageNameForFile("src/main.rs")
	assert.False(t, ok)
}

func TestParseServiceParsesFiles(t *testing.T) {
	tmpDir := t.TempDir()
	good := createTestFile(t, tmpDir, "good.ex", "(a (b) c)")
	bad := createTestFile(t, tmpDir, "bad.ex", "(a $ b)")

	svc := NewParseService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 2, time.Minute)
	req := &domain.ParseRequest{ShowTree: true}

	resp, err := svc.Parse(context.Background(), req, []string{good, bad})
	require.NoError(t, err)

	require.Len(t, resp.Files, 2)
	assert.Equal(t, 2, resp.Summary.TotalFiles)
	assert.Equal(t, 2, resp.Summary.ParsedFiles)
	assert.Equal(t, 1, resp.Summary.FilesWithErr)

	first := resp.Files[0]
	assert.Equal(t, good, first.FilePath)
	assert.Equal(t, "sexp", first.Language)
	assert.False(t, first.HasError)
	assert.Greater(t, first.NodeCount, 0)
	assert.Contains(t, first.Tree, "(program")

	second := resp.Files[1]
	assert.True(t, second.HasError)
	assert.Greater(t, second.ErrorCount, 0)
}

func TestParseServiceErrorsOnly(t *testing.T) {
	tmpDir := t.TempDir()
	good := createTestFile(t, tmpDir, "good.ex", "(a)")
	bad := createTestFile(t, tmpDir, "bad.ex", "(a $")

	svc := NewParseService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)
	req := &domain.ParseRequest{ErrorsOnly: true}

	resp, err := svc.Parse(context.Background(), req, []string{good, bad})
	require.NoError(t, err)

	require.Len(t, resp.Files, 1)
	assert.Equal(t, bad, resp.Files[0].FilePath)
	assert.Equal(t, 2, resp.Summary.TotalFiles)
}

func TestParseServiceUnknownExtension(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "main.rs", "fn main() {}")

	svc := NewParseService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)

	resp, err := svc.Parse(context.Background(), &domain.ParseRequest{}, []string{file})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.True(t, resp.Files[0].Failed)
	assert.Equal(t, 1, resp.Summary.FailedFiles)
}

func TestParseServiceCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	var files []string
	for i := 0; i < 4; i++ {
		files = append(files, createTestFile(t, tmpDir, string(rune('a'+i))+".ex", "(a b c)"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewParseService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)
	_, err := svc.Parse(ctx, &domain.ParseRequest{}, files)
	assert.ErrorIs(t, err, context.Canceled)
}
