package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, dirPath, fileName, content string) string {
	t.Helper()
	filePath := filepath.Join(dirPath, fileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func createTestDirectoryStructure(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "main.ex", "(a b c)")
	createTestFile(t, tmpDir, "util.ex", "(x)")
	createTestFile(t, tmpDir, "README.md", "# docs")
	createTestFile(t, tmpDir, "sub/module.ex", "(y)")
	createTestFile(t, tmpDir, "sub/deep/file.ex", "(z)")
	createTestFile(t, tmpDir, ".hidden.ex", "(h)")
	createTestFile(t, tmpDir, ".hidden_dir/inner.ex", "(h)")
	createTestFile(t, tmpDir, "node_modules/dep.ex", "(d)")

	return tmpDir
}

func TestCollectSourceFilesRecursive(t *testing.T) {
	tmpDir := createTestDirectoryStructure(t)
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles([]string{tmpDir}, true, nil, nil, []string{".ex"})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(tmpDir, f)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{
		"main.ex",
		"util.ex",
		"sub/module.ex",
		"sub/deep/file.ex",
	}, names)
}

func TestCollectSourceFilesNonRecursive(t *testing.T) {
	tmpDir := createTestDirectoryStructure(t)
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles([]string{tmpDir}, false, nil, nil, []string{".ex"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCollectSourceFilesPatterns(t *testing.T) {
	tmpDir := createTestDirectoryStructure(t)
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles([]string{tmpDir}, true, nil, []string{"util*"}, []string{".ex"})
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f, "util")
	}

	files, err = reader.CollectSourceFiles([]string{tmpDir}, true, []string{"main*"}, nil, []string{".ex"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "main.ex")
}

func TestCollectSourceFilesDoublestarExclude(t *testing.T) {
	tmpDir := createTestDirectoryStructure(t)
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles([]string{tmpDir}, true, nil, []string{"**/sub/**"}, []string{".ex"})
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, filepath.ToSlash(f), "/sub/")
	}
}

func TestCollectSourceFilesSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "one.ex", "(a)")
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles([]string{path, path}, true, nil, nil, []string{".ex"})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestCollectSourceFilesMissingPath(t *testing.T) {
	reader := NewFileReader()
	_, err := reader.CollectSourceFiles([]string{"/does/not/exist"}, true, nil, nil, nil)
	assert.Error(t, err)
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "one.ex", "(a)")
	reader := NewFileReader()

	ok, err := reader.FileExists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reader.FileExists(tmpDir)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = reader.FileExists(filepath.Join(tmpDir, "nope.ex"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "one.ex", "(a)")
	reader := NewFileReader()

	content, err := reader.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(a)", string(content))

	_, err = reader.ReadFile(filepath.Join(tmpDir, "nope.ex"))
	assert.Error(t, err)
}
