package sylva

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b c) d)")
	cur := tree.Walk()
	start := cur.CurrentNode()

	require.True(t, cur.GotoFirstChild())  // list
	require.True(t, cur.GotoFirstChild())  // (
	require.True(t, cur.GotoNextSibling()) // a
	require.True(t, cur.GotoNextSibling()) // (b c)
	require.True(t, cur.GotoFirstChild())  // (
	require.True(t, cur.GotoNextSibling()) // b

	assert.Equal(t, "identifier", cur.CurrentNode().Kind())
	assert.Equal(t, "b", string(cur.CurrentNode().Text()))
	assert.Equal(t, 3, cur.Depth())

	require.True(t, cur.GotoParent())
	require.True(t, cur.GotoParent())
	require.True(t, cur.GotoParent())
	assert.Equal(t, start.sub, cur.CurrentNode().sub)
	assert.False(t, cur.GotoParent(), "root has no parent")
}

func TestCursorFullTraversalVisitsEveryNode(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b) c)")

	var visited int
	cur := tree.Walk()
	var walk func()
	walk = func() {
		visited++
		if cur.GotoFirstChild() {
			for {
				walk()
				if !cur.GotoNextSibling() {
					break
				}
			}
			cur.GotoParent()
		}
	}
	walk()

	var count func(n Node) int
	count = func(n Node) int {
		total := 1
		for i := 0; i < n.ChildCount(); i++ {
			total += count(n.Child(i))
		}
		return total
	}
	assert.Equal(t, count(tree.RootNode()), visited)
}

func TestCursorFieldName(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a)")
	cur := tree.Walk()

	require.True(t, cur.GotoFirstChild()) // list
	assert.Equal(t, "", cur.CurrentFieldName())
	require.True(t, cur.GotoFirstChild()) // (
	assert.Equal(t, "open", cur.CurrentFieldName())
	require.True(t, cur.GotoNextSibling()) // a
	assert.Equal(t, "", cur.CurrentFieldName())
	require.True(t, cur.GotoNextSibling()) // )
	assert.Equal(t, "close", cur.CurrentFieldName())
}

func TestCursorSeekAndReset(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b) c)")
	cur := tree.Walk()

	n := cur.SeekToByte(4)
	assert.Equal(t, "identifier", n.Kind())
	assert.Equal(t, "b", string(n.Text()))

	cur.Reset()
	assert.Equal(t, tree.RootNode().sub, cur.CurrentNode().sub)
	assert.Equal(t, 0, cur.Depth())
}

func TestCursorGotoFirstChildForByte(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b) c)")
	cur := tree.Walk()
	require.True(t, cur.GotoFirstChild()) // list

	idx := cur.GotoFirstChildForByte(7)
	assert.Equal(t, 3, idx)
	assert.Equal(t, "c", string(cur.CurrentNode().Text()))

	assert.Equal(t, -1, cur.GotoFirstChildForByte(99))

	cur.Reset()
	require.True(t, cur.GotoFirstChild())
	assert.Equal(t, 0, cur.GotoFirstChildForByte(0))
	assert.Equal(t, "(", string(cur.CurrentNode().Text()))

	// A byte on a child boundary lands on the child starting there.
	cur.GotoParent()
	assert.Equal(t, 1, cur.GotoFirstChildForByte(1))
	assert.Equal(t, "a", string(cur.CurrentNode().Text()))
}
