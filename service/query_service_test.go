package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sylva-dev/sylva/domain"
)

func TestQueryServiceFindsMatches(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "main.ex", "(a (b) c)")

	svc := NewQueryService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)
	req := &domain.QueryRequest{Pattern: "(identifier) @id"}

	resp, err := svc.Query(context.Background(), req, []string{file})
	require.NoError(t, err)

	require.Len(t, resp.Files, 1)
	result := resp.Files[0]
	require.False(t, result.Failed)
	require.Len(t, result.Matches, 3)
	assert.Equal(t, 3, resp.Summary.TotalMatches)

	first := result.Matches[0].Captures[0]
	assert.Equal(t, "id", first.Name)
	assert.Equal(t, "identifier", first.Kind)
	assert.Equal(t, "a", first.Text)
	assert.Equal(t, uint32(1), first.StartByte)
}

func TestQueryServiceWithPredicate(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "main.ex", "(a b a)")

	svc := NewQueryService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)
	req := &domain.QueryRequest{Pattern: `((identifier) @id (#eq? @id "a"))`}

	resp, err := svc.Query(context.Background(), req, []string{file})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.Len(t, resp.Files[0].Matches, 2)
}

func TestQueryServiceBadPattern(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "main.ex", "(a)")

	svc := NewQueryService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)
	req := &domain.QueryRequest{Pattern: "(no_such_kind) @x"}

	resp, err := svc.Query(context.Background(), req, []string{file})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.True(t, resp.Files[0].Failed)
	assert.Equal(t, 1, resp.Summary.FailedFiles)
}

func TestQueryServiceCompilesOncePerPattern(t *testing.T) {
	tmpDir := t.TempDir()
	a := createTestFile(t, tmpDir, "a.ex", "(x)")
	b := createTestFile(t, tmpDir, "b.ex", "(y)")

	svc := NewQueryService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 2, time.Minute)
	req := &domain.QueryRequest{Pattern: "(identifier) @id"}

	_, err := svc.Query(context.Background(), req, []string{a, b})
	require.NoError(t, err)
	assert.Len(t, svc.compiled, 1)
}

func TestQueryServiceSeparatePatternsPerRequest(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "main.ex", "(a 42)")

	svc := NewQueryService(NewLanguageManager(testConfig(t)), NewFileReader(), nil, 1, time.Minute)

	resp, err := svc.Query(context.Background(), &domain.QueryRequest{Pattern: "(identifier) @id"}, []string{file})
	require.NoError(t, err)
	require.Len(t, resp.Files[0].Matches, 1)
	assert.Equal(t, "identifier", resp.Files[0].Matches[0].Captures[0].Kind)

	// A second request with a different pattern must not be served the
	// first request's compiled query.
	resp, err = svc.Query(context.Background(), &domain.QueryRequest{Pattern: "(number) @n"}, []string{file})
	require.NoError(t, err)
	require.Len(t, resp.Files[0].Matches, 1)
	first := resp.Files[0].Matches[0].Captures[0]
	assert.Equal(t, "n", first.Name)
	assert.Equal(t, "number", first.Kind)
	assert.Equal(t, "42", first.Text)
	assert.Len(t, svc.compiled, 2)
}
