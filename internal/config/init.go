package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFileName is the file written by `sylva init`
const DefaultConfigFileName = ".sylva.toml"

const configHeader = `# sylva configuration
#
# Register grammars under [languages.<name>] with the path to the
# compiled grammar blob and the file extensions it handles.

`

// WriteDefaultConfig writes a starter config file into dir. It refuses
// to overwrite an existing file unless force is set
func WriteDefaultConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, DefaultConfigFileName)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists: %s", path)
		}
	}

	cfg := DefaultConfig()
	cfg.Languages = map[string]LanguageConfig{
		"example": {
			Grammar:    "grammars/example.json",
			Extensions: []string{".ex"},
		},
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	out := append([]byte(configHeader), data...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
