package sylva

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadTestLanguage(t *testing.T, path string, opts ...LanguageOption) *Language {
	t.Helper()
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	lang, err := LoadLanguage(blob, opts...)
	require.NoError(t, err)
	return lang
}

func sexpLang(t *testing.T) *Language {
	return loadTestLanguage(t, "internal/grammar/testdata/sexp.json")
}

func calcLang(t *testing.T) *Language {
	return loadTestLanguage(t, "internal/grammar/testdata/calc.json")
}

func mustParse(t *testing.T, lang *Language, source string) *Tree {
	t.Helper()
	tree, err := NewParser(lang).Parse([]byte(source), nil)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

// collectRanges flattens a tree into (kind, range) pairs in pre-order,
// for structural comparisons between trees.
func collectRanges(n Node) []string {
	out := []string{n.Kind() + " " + n.Range().String()}
	for i := 0; i < n.ChildCount(); i++ {
		out = append(out, collectRanges(n.Child(i))...)
	}
	return out
}
