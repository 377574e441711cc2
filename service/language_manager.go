package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sylva "github.com/sylva-dev/sylva"
	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/internal/config"
)

// LanguageManager loads grammars on demand and hands out pooled
// parsers for them. Safe for concurrent use
type LanguageManager struct {
	cfg *config.Config

	mu       sync.Mutex
	registry *sylva.Registry
	pools    map[string]*sylva.ParserPool
}

// NewLanguageManager creates a language manager over the given config
func NewLanguageManager(cfg *config.Config) *LanguageManager {
	return &LanguageManager{
		cfg:      cfg,
		registry: sylva.NewRegistry(),
		pools:    make(map[string]*sylva.ParserPool),
	}
}

// Names lists the configured language names, sorted
func (m *LanguageManager) Names() []string {
	names := make([]string, 0, len(m.cfg.Languages))
	for name := range m.cfg.Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions lists every file extension claimed by any language
func (m *LanguageManager) Extensions() []string {
	return m.cfg.AllExtensions()
}

// LanguageNameForFile maps a file path to a configured language name
func (m *LanguageManager) LanguageNameForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	return m.cfg.LanguageForExtension(ext)
}

// Language returns the loaded language for a configured name, reading
// and compiling the grammar blob on first use
func (m *LanguageManager) Language(name string) (*sylva.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lang, ok := m.registry.Get(name); ok {
		return lang, nil
	}

	path, ok := m.cfg.GrammarPath(name)
	if !ok {
		return nil, domain.NewGrammarError(name, fmt.Errorf("language not configured"))
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewGrammarError(name, err)
	}

	lang, err := m.registry.Load(blob)
	if err != nil {
		return nil, domain.NewGrammarError(name, err)
	}

	// The registry keys languages by their declared name, which must
	// agree with the config key so later lookups hit
	if lang.Name() != name {
		return nil, domain.NewGrammarError(name,
			fmt.Errorf("grammar declares name %q", lang.Name()))
	}

	m.pools[name] = sylva.NewParserPool(lang)
	return lang, nil
}

// Pool returns the parser pool for a loaded language
func (m *LanguageManager) Pool(name string) (*sylva.ParserPool, error) {
	if _, err := m.Language(name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pools[name], nil
}
