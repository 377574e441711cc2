package sylva

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatIdentifiers(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a b c")
	root := tree.RootNode()

	assert.Equal(t, "program", root.Kind())
	assert.Equal(t, uint32(0), root.StartByte())
	assert.Equal(t, uint32(5), root.EndByte())
	require.Equal(t, 3, root.ChildCount())
	for i := 0; i < 3; i++ {
		assert.Equal(t, "identifier", root.Child(i).Kind())
		assert.True(t, root.Child(i).IsNamed())
	}
	assert.Equal(t,
		"(program (identifier) (identifier) (identifier))",
		root.String())
}

func TestParseCoversWholeSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"plain", "a b c"},
		{"leading and trailing space", "  a  "},
		{"nested lists", "(a (b c) (d))"},
		{"only whitespace", "   \n  "},
		{"empty", ""},
		{"malformed", "(a (b"},
		{"garbage bytes", "a $$$ b"},
	}
	lang := sexpLang(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, lang, tt.source)
			root := tree.RootNode()
			assert.Equal(t, uint32(0), root.StartByte())
			assert.Equal(t, uint32(len(tt.source)), root.EndByte(),
				"root must span the entire source")
		})
	}
}

func TestParseNestedLists(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a (b) c)")
	root := tree.RootNode()

	require.Equal(t, 1, root.ChildCount())
	list := root.Child(0)
	assert.Equal(t, "list", list.Kind())
	require.Equal(t, 5, list.ChildCount())
	assert.Equal(t, "(", list.Child(0).Kind())
	assert.Equal(t, "identifier", list.Child(1).Kind())
	assert.Equal(t, "list", list.Child(2).Kind())
	assert.Equal(t, "identifier", list.Child(3).Kind())
	assert.Equal(t, ")", list.Child(4).Kind())

	assert.False(t, list.Child(0).IsNamed())
	assert.Equal(t, "(", list.ChildByFieldName("open").Kind())
	assert.Equal(t, ")", list.ChildByFieldName("close").Kind())
	assert.Equal(t, uint32(8), list.ChildByFieldName("close").StartByte())
}

func TestParseExtraComment(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a ; note")
	root := tree.RootNode()

	require.Equal(t, 2, root.ChildCount())
	assert.Equal(t, "identifier", root.Child(0).Kind())
	comment := root.Child(1)
	assert.Equal(t, "comment", comment.Kind())
	assert.True(t, comment.IsExtra())
	assert.Equal(t, "; note", string(comment.Text()))
	assert.False(t, root.HasError())
}

func TestParseRecoversFromGarbage(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a $ b")
	root := tree.RootNode()

	assert.True(t, root.HasError())
	assert.Equal(t, uint32(5), root.EndByte())

	var errNode Node
	for i := 0; i < root.ChildCount(); i++ {
		if root.Child(i).IsError() {
			errNode = root.Child(i)
		}
	}
	require.False(t, errNode.IsZero(), "expected an ERROR node among root children")
	assert.Equal(t, "ERROR", errNode.Kind())

	// The identifiers around the garbage still parse.
	assert.Equal(t, "identifier", root.Child(0).Kind())
	assert.Equal(t, "identifier", root.Child(root.ChildCount()-1).Kind())
}

func TestParseInsertsMissingToken(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "(a")
	root := tree.RootNode()

	assert.True(t, root.HasError())
	assert.Contains(t, root.String(), "MISSING")

	var missing Node
	var walk func(Node)
	walk = func(n Node) {
		if n.IsMissing() {
			missing = n
		}
		for i := 0; i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	require.False(t, missing.IsZero())
	assert.Equal(t, ")", missing.Kind())
	assert.Equal(t, missing.StartByte(), missing.EndByte(), "missing tokens are zero width")
}

func TestParseEmptyInput(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "")
	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.Equal(t, 0, root.ChildCount())
	assert.False(t, root.HasError())
}

func TestParseCalcPrecedence(t *testing.T) {
	lang := calcLang(t)
	tests := []struct {
		source string
		want   string
	}{
		{
			"1+2*3",
			"(program (binary_expression left: (number) right: (binary_expression left: (number) right: (number))))",
		},
		{
			"1*2+3",
			"(program (binary_expression left: (binary_expression left: (number) right: (number)) right: (number)))",
		},
		{
			"1+2+3",
			"(program (binary_expression left: (binary_expression left: (number) right: (number)) right: (number)))",
		},
		{
			"(1+2)*3",
			"(program (binary_expression left: (parenthesized_expression (binary_expression left: (number) right: (number))) right: (number)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tree := mustParse(t, lang, tt.source)
			assert.Equal(t, tt.want, tree.RootNode().String())
		})
	}
}

func TestParseFieldsOnCalc(t *testing.T) {
	tree := mustParse(t, calcLang(t), "x + 1")
	bin := tree.RootNode().Child(0)
	require.Equal(t, "binary_expression", bin.Kind())

	assert.Equal(t, "identifier", bin.ChildByFieldName("left").Kind())
	assert.Equal(t, "+", bin.ChildByFieldName("operator").Kind())
	assert.Equal(t, "number", bin.ChildByFieldName("right").Kind())
	assert.Equal(t, "x", string(bin.ChildByFieldName("left").Text()))
	assert.Equal(t, "1", string(bin.ChildByFieldName("right").Text()))
}

func TestParseCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := strings.Repeat("a ", 3000)
	_, err := NewParser(sexpLang(t)).ParseCtx(ctx, []byte(source), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseNoLanguage(t *testing.T) {
	_, err := (&Parser{}).Parse([]byte("x"), nil)
	assert.ErrorIs(t, err, ErrNoLanguage)
}

func TestParsePoints(t *testing.T) {
	tree := mustParse(t, sexpLang(t), "a\nbb\n(c)")
	root := tree.RootNode()

	// Third item starts on row 2.
	list := root.Child(2)
	require.Equal(t, "list", list.Kind())
	assert.Equal(t, Point{Row: 2, Column: 0}, list.StartPoint())
	assert.Equal(t, Point{Row: 2, Column: 3}, list.EndPoint())

	b := root.Child(1)
	assert.Equal(t, Point{Row: 1, Column: 0}, b.StartPoint())
	assert.Equal(t, Point{Row: 1, Column: 2}, b.EndPoint())
}
