package sylva

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeNavigation(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b) c)")
	root := tree.RootNode()
	list := root.Child(0)

	a := list.Child(1)
	inner := list.Child(2)
	c := list.Child(3)

	assert.Equal(t, list.sub, a.Parent().sub)
	assert.Equal(t, root.sub, list.Parent().sub)
	assert.True(t, root.Parent().IsZero())

	assert.Equal(t, inner.sub, a.NextSibling().sub)
	assert.Equal(t, a.sub, inner.PrevSibling().sub)
	assert.True(t, list.Child(4).NextSibling().IsZero())
	assert.True(t, list.Child(0).PrevSibling().IsZero())

	// Named navigation skips the parentheses.
	assert.Equal(t, a.sub, list.NamedChild(0).sub)
	assert.Equal(t, 3, list.NamedChildCount())
	assert.Equal(t, c.sub, inner.NextNamedSibling().sub)
	assert.Equal(t, a.sub, inner.PrevNamedSibling().sub)
}

func TestNodeOutOfRangeChildren(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a")
	root := tree.RootNode()
	assert.True(t, root.Child(-1).IsZero())
	assert.True(t, root.Child(99).IsZero())
	assert.True(t, root.NamedChild(5).IsZero())
	assert.True(t, root.ChildByFieldName("nope").IsZero())
}

func TestNodeText(t *testing.T) {
	src := "(alpha (beta) gamma)"
	tree := mustParse(t, sexpLang(t), src)
	list := tree.RootNode().Child(0)

	assert.Equal(t, src, string(list.Text()))
	assert.Equal(t, "alpha", string(list.Child(1).Text()))
	assert.Equal(t, "(beta)", string(list.Child(2).Text()))
}

func TestNodeDescendantForByteRange(t *testing.T) {
	src := "(a (b) c)"
	tree := mustParse(t, sexpLang(t), src)
	root := tree.RootNode()

	// Byte 4 is "b".
	b := root.DescendantForByteRange(4, 5)
	assert.Equal(t, "identifier", b.Kind())
	assert.Equal(t, "b", string(b.Text()))

	// Range spanning "(b)" lands on the inner list.
	inner := root.DescendantForByteRange(3, 6)
	assert.Equal(t, "list", inner.Kind())

	named := root.NamedDescendantForByteRange(0, 1)
	assert.Equal(t, "list", named.Kind(), "named lookup skips the ( token")
}

func TestNodeFieldNames(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a)")
	list := tree.RootNode().Child(0)

	assert.Equal(t, "open", list.FieldNameForChild(0))
	assert.Equal(t, "", list.FieldNameForChild(1))
	assert.Equal(t, "close", list.FieldNameForChild(2))

	id, ok := tree.Language().FieldID("open")
	require.True(t, ok)
	assert.Equal(t, list.Child(0).sub, list.ChildByFieldID(id).sub)
}

func TestNodeKindIDs(t *testing.T) {
	lang := sexpLang(t)
	tree := mustParse(t, lang, "a")
	id := tree.RootNode().Child(0)

	assert.Equal(t, "identifier", lang.KindName(id.KindID()))
	kid, ok := lang.KindID("identifier")
	require.True(t, ok)
	assert.Equal(t, kid, id.KindID())
}
