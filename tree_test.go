package sylva

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithEditValidation(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a b c")

	tests := []struct {
		name string
		edit Edit
	}{
		{"start after old end", Edit{StartByte: 4, OldEndByte: 2, NewEndByte: 4}},
		{"old end past source", Edit{StartByte: 0, OldEndByte: 99, NewEndByte: 99}},
		{"new end before start", Edit{StartByte: 3, OldEndByte: 3, NewEndByte: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.WithEdit(tt.edit)
			assert.ErrorIs(t, err, ErrInvalidEditRange)
		})
	}

	// The rejected edits left the tree intact.
	assert.Equal(t, uint32(5), tree.RootNode().EndByte())
}

func TestWithEditDoesNotMutateOriginal(t *testing.T) {
	src := "a b c"
	tree := mustParse(t, sexpLang(t), src)
	before := collectRanges(tree.RootNode())

	edited, err := tree.WithEdit(NewEdit([]byte(src), 2, 3, []byte("xyz")))
	require.NoError(t, err)
	require.NotNil(t, edited)

	assert.Equal(t, before, collectRanges(tree.RootNode()))
}

func TestNoOpEditIdempotence(t *testing.T) {
	src := "(a (b) c)"
	tree := mustParse(t, sexpLang(t), src)

	edited, err := tree.WithEdit(NewEdit([]byte(src), 4, 4, nil))
	require.NoError(t, err)

	reparsed, err := NewParser(sexpLang(t)).Parse([]byte(src), edited)
	require.NoError(t, err)

	assert.Equal(t, collectRanges(tree.RootNode()), collectRanges(reparsed.RootNode()))
	assert.Equal(t, tree.RootNode().String(), reparsed.RootNode().String())
}

func TestIncrementalMatchesFullReparse(t *testing.T) {
	lang := sexpLang(t)
	tests := []struct {
		name          string
		before, after string
		start, oldEnd uint32
		replacement   string
	}{
		{"replace identifier", "(a (b) c)", "(a (zz) c)", 4, 5, "zz"},
		{"insert item", "(a c)", "(a b c)", 3, 3, "b "},
		{"delete item", "(a b c)", "(a c)", 3, 5, ""},
		{"append at end", "a b", "a b c", 3, 3, " c"},
		{"edit in nested list", "(a (b c) d)", "(a (b x) d)", 6, 7, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldTree := mustParse(t, lang, tt.before)
			edit := NewEdit([]byte(tt.before), tt.start, tt.oldEnd, []byte(tt.replacement))

			incr, err := NewParser(lang).ParseWithEdits(
				context.Background(), []byte(tt.after), oldTree, []Edit{edit})
			require.NoError(t, err)

			fresh := mustParse(t, lang, tt.after)
			assert.Equal(t, fresh.RootNode().String(), incr.RootNode().String())
			assert.Equal(t, collectRanges(fresh.RootNode()), collectRanges(incr.RootNode()))
		})
	}
}

func TestIncrementalReusesSubtrees(t *testing.T) {
	lang := sexpLang(t)
	before := "(a (b) c)"
	after := "(a (zz) c)"

	oldTree := mustParse(t, lang, before)
	edit := NewEdit([]byte(before), 4, 5, []byte("zz"))
	incr, err := NewParser(lang).ParseWithEdits(
		context.Background(), []byte(after), oldTree, []Edit{edit})
	require.NoError(t, err)

	// The identifier "a" sits before the edit; "c" sits after it. Both
	// survive by pointer into the new tree.
	oldA := oldTree.RootNode().Child(0).Child(1)
	newA := incr.RootNode().Child(0).Child(1)
	require.Equal(t, "identifier", oldA.Kind())
	assert.Same(t, oldA.sub, newA.sub, "unchanged leaf before the edit should be shared")

	oldC := oldTree.RootNode().Child(0).Child(3)
	newC := incr.RootNode().Child(0).Child(3)
	require.Equal(t, "identifier", oldC.Kind())
	assert.Same(t, oldC.sub, newC.sub, "unchanged leaf after the edit should be shared")
}

func TestIncrementalReusesListAfterEdit(t *testing.T) {
	lang := sexpLang(t)
	before := "(x) (a b) c"
	after := "(yy) (a b) c"

	oldTree := mustParse(t, lang, before)
	edit := NewEdit([]byte(before), 1, 2, []byte("yy"))
	incr, err := NewParser(lang).ParseWithEdits(
		context.Background(), []byte(after), oldTree, []Edit{edit})
	require.NoError(t, err)

	// The second list sits entirely after the edit and must reach the
	// new tree as one shared subtree, not a reparse.
	oldList := oldTree.RootNode().Child(1)
	newList := incr.RootNode().Child(1)
	require.Equal(t, "list", oldList.Kind())
	assert.Same(t, oldList.sub, newList.sub, "unchanged list after the edit should be shared")

	oldC := oldTree.RootNode().Child(2)
	newC := incr.RootNode().Child(2)
	require.Equal(t, "identifier", oldC.Kind())
	assert.Same(t, oldC.sub, newC.sub, "trailing identifier should be shared")
}

func TestChangedRanges(t *testing.T) {
	lang := sexpLang(t)
	before := "(a (b) c)"
	after := "(a (zz) c)"

	oldTree := mustParse(t, lang, before)
	edit := NewEdit([]byte(before), 4, 5, []byte("zz"))
	incr, err := NewParser(lang).ParseWithEdits(
		context.Background(), []byte(after), oldTree, []Edit{edit})
	require.NoError(t, err)

	ranges := oldTree.ChangedRanges(incr)
	require.NotEmpty(t, ranges)

	// The edited region is covered.
	covered := false
	for _, r := range ranges {
		if r.StartByte <= 4 && r.EndByte >= 6 {
			covered = true
		}
	}
	assert.True(t, covered, "changed ranges %v must cover the edit [4,6)", ranges)

	// Untouched identifiers are not reported.
	for _, r := range ranges {
		assert.False(t, r.StartByte <= 1 && r.EndByte >= 2, "identifier a reported changed: %v", r)
		assert.Greater(t, uint32(9), r.StartByte, "trailing region reported changed: %v", r)
	}
}

func TestChangedRangesNoOp(t *testing.T) {
	lang := sexpLang(t)
	src := "(a (b) c)"
	oldTree := mustParse(t, lang, src)

	edited, err := oldTree.WithEdit(NewEdit([]byte(src), 4, 4, nil))
	require.NoError(t, err)
	reparsed, err := NewParser(lang).Parse([]byte(src), edited)
	require.NoError(t, err)

	assert.Empty(t, oldTree.ChangedRanges(reparsed))
}

func TestTreeSourceAliasing(t *testing.T) {
	src := "(hello)"
	tree := mustParse(t, sexpLang(t), src)
	assert.Equal(t, src, string(tree.Source()))
	assert.Equal(t, "hello", string(tree.RootNode().Child(0).Child(1).Text()))
}
