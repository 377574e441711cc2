package sylva

import (
	"errors"
	"fmt"

	"github.com/sylva-dev/sylva/internal/grammar"
)

// Language is a compiled grammar: node kind and field name tables plus
// the lexing and parsing automata. A Language is immutable after
// LoadLanguage returns and may be shared by any number of concurrent
// parsers, trees, and queries.
type Language struct {
	g          *grammar.Grammar
	newScanner func() ExternalScanner
}

// ExternalScanner recognizes tokens whose lexing depends on parser
// context (delimited strings, indentation, here-docs). The parser asks
// the scanner before the built-in lexer whenever the current state
// expects one of the grammar's external tokens.
//
// Scan inspects source at byte offset pos and either recognizes one of
// the tokens named in valid, returning its name and byte length, or
// reports no match. A scanner may keep state between calls within one
// parse; each parse gets a fresh instance.
type ExternalScanner interface {
	Scan(source []byte, pos int, valid []string) (token string, byteLen int, ok bool)
}

// LanguageOption configures a Language at load time.
type LanguageOption func(*Language)

// WithExternalScanner supplies the factory for the grammar's external
// token scanner. The factory is invoked once per parse.
func WithExternalScanner(factory func() ExternalScanner) LanguageOption {
	return func(l *Language) { l.newScanner = factory }
}

// LoadLanguage compiles a grammar blob into a Language. A blob built
// for a different table format fails with ErrLanguageVersion; a
// structurally invalid blob fails with ErrInvalidLanguage.
func LoadLanguage(blob []byte, opts ...LanguageOption) (*Language, error) {
	g, err := grammar.Load(blob)
	if err != nil {
		if errors.Is(err, grammar.ErrFormatVersion) {
			return nil, fmt.Errorf("%w: %v", ErrLanguageVersion, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidLanguage, err)
	}
	l := &Language{g: g}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name returns the grammar's declared name.
func (l *Language) Name() string { return l.g.Name }

// KindCount returns the number of node kinds (terminals and visible
// nonterminals) the language defines.
func (l *Language) KindCount() int { return l.g.SymbolCount() }

// KindName returns the name of a node kind id.
func (l *Language) KindName(id uint16) string {
	return l.g.SymbolName(grammar.Symbol(id))
}

// KindID resolves a node kind name. The second result reports whether
// the name is defined.
func (l *Language) KindID(name string) (uint16, bool) {
	s, ok := l.g.SymbolForName(name)
	return uint16(s), ok
}

// FieldName returns the name of a field id, or "" if the id is out of
// range.
func (l *Language) FieldName(id uint16) string {
	return l.g.FieldName(grammar.FieldID(id))
}

// FieldID resolves a field name.
func (l *Language) FieldID(name string) (uint16, bool) {
	id, ok := l.g.FieldIDForName(name)
	return uint16(id), ok
}

// HasExternalTokens reports whether the grammar declares external
// tokens.
func (l *Language) HasExternalTokens() bool {
	return len(l.g.ExternalTokens()) > 0
}
