package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LanguageConfig describes one registered grammar
type LanguageConfig struct {
	// Grammar is the path to the compiled grammar blob, relative paths
	// are resolved against the config file's directory
	Grammar string `mapstructure:"grammar" toml:"grammar"`

	// Extensions lists the file extensions handled by this grammar
	Extensions []string `mapstructure:"extensions" toml:"extensions"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Format string `mapstructure:"format" toml:"format"`
	Color  bool   `mapstructure:"color" toml:"color"`
}

// ParseConfig holds parse run settings
type ParseConfig struct {
	MaxConcurrency  int      `mapstructure:"max_concurrency" toml:"max_concurrency"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns"`
}

// Config represents the complete sylva configuration
type Config struct {
	Languages map[string]LanguageConfig `mapstructure:"languages" toml:"languages"`
	Output    OutputConfig              `mapstructure:"output" toml:"output"`
	Parse     ParseConfig               `mapstructure:"parse" toml:"parse"`

	// Dir is the directory the config file was loaded from, used to
	// resolve relative grammar paths. Not read from the file
	Dir string `mapstructure:"-" toml:"-"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Languages: map[string]LanguageConfig{},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Parse: ParseConfig{
			MaxConcurrency: 0,
			TimeoutSeconds: 600,
		},
	}
}

// LoadConfig loads configuration from the given file, or searches the
// current and home directories for .sylva.toml when the path is empty
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = findDefaultConfig()
	}
	if configPath == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	config.Dir = filepath.Dir(abs)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	for name, lang := range c.Languages {
		if lang.Grammar == "" {
			return fmt.Errorf("language %q has no grammar path", name)
		}
		if len(lang.Extensions) == 0 {
			return fmt.Errorf("language %q has no extensions", name)
		}
	}
	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}
	if c.Parse.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative")
	}
	if c.Parse.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}
	return nil
}

// GrammarPath resolves a language's grammar blob path against the
// config file location
func (c *Config) GrammarPath(name string) (string, bool) {
	lang, ok := c.Languages[name]
	if !ok {
		return "", false
	}
	path := lang.Grammar
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	return path, true
}

// AllExtensions returns every extension claimed by any language
func (c *Config) AllExtensions() []string {
	var exts []string
	for _, lang := range c.Languages {
		exts = append(exts, lang.Extensions...)
	}
	return exts
}

// LanguageForExtension maps a file extension to a language name
func (c *Config) LanguageForExtension(ext string) (string, bool) {
	for name, lang := range c.Languages {
		for _, e := range lang.Extensions {
			if len(e) > 0 && e[0] != '.' {
				e = "." + e
			}
			if e == ext {
				return name, true
			}
		}
	}
	return "", false
}

func findDefaultConfig() string {
	candidates := []string{
		".sylva.toml",
		"sylva.toml",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(home, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
