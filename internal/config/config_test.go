package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
	assert.Empty(t, cfg.Languages)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".sylva.toml")
	content := `
[output]
format = "json"
color = false

[parse]
max_concurrency = 4
timeout_seconds = 30

[languages.sexp]
grammar = "grammars/sexp.json"
extensions = [".ex", ".sx"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
	assert.Equal(t, 4, cfg.Parse.MaxConcurrency)
	assert.Equal(t, 30, cfg.Parse.TimeoutSeconds)

	lang, ok := cfg.Languages["sexp"]
	require.True(t, ok)
	assert.Equal(t, []string{".ex", ".sx"}, lang.Extensions)

	// Relative grammar paths resolve against the config directory
	grammarPath, ok := cfg.GrammarPath("sexp")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(tmpDir, "grammars/sexp.json"), grammarPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigNoFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no grammar path", func(c *Config) {
			c.Languages["x"] = LanguageConfig{Extensions: []string{".x"}}
		}, true},
		{"no extensions", func(c *Config) {
			c.Languages["x"] = LanguageConfig{Grammar: "x.json"}
		}, true},
		{"bad format", func(c *Config) { c.Output.Format = "csv" }, true},
		{"negative concurrency", func(c *Config) { c.Parse.MaxConcurrency = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLanguageForExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages = map[string]LanguageConfig{
		"sexp": {Grammar: "s.json", Extensions: []string{"ex", ".sx"}},
	}

	name, ok := cfg.LanguageForExtension(".ex")
	require.True(t, ok)
	assert.Equal(t, "sexp", name)

	name, ok = cfg.LanguageForExtension(".sx")
	require.True(t, ok)
	assert.Equal(t, "sexp", name)

	_, ok = cfg.LanguageForExtension(".rs")
	assert.False(t, ok)
}

func TestWriteDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := WriteDefaultConfig(tmpDir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, DefaultConfigFileName), path)

	// Written file loads back cleanly
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.Languages, "example")

	// Refuses to overwrite without force
	_, err = WriteDefaultConfig(tmpDir, false)
	assert.Error(t, err)

	_, err = WriteDefaultConfig(tmpDir, true)
	assert.NoError(t, err)
}
