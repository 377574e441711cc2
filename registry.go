package sylva

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps language names to loaded Language values. Languages
// themselves are immutable; the registry adds the mutable name table a
// host needs when it manages several grammars, guarded for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]*Language
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{languages: map[string]*Language{}}
}

// Register adds a language under its declared name. Registering a
// second language with the same name replaces the first.
func (r *Registry) Register(lang *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.Name()] = lang
}

// Get looks up a language by name.
func (r *Registry) Get(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.languages[name]
	return l, ok
}

// Load parses a grammar blob and registers the result in one step.
func (r *Registry) Load(blob []byte, opts ...LanguageOption) (*Language, error) {
	lang, err := LoadLanguage(blob, opts...)
	if err != nil {
		return nil, fmt.Errorf("registry load: %w", err)
	}
	r.Register(lang)
	return lang, nil
}

// Names returns the registered language names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.languages))
	for n := range r.languages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
