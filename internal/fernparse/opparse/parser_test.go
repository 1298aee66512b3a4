package opparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/opg"
	"github.com/dawid33/fernparse/internal/fernparse/rgram"
	"github.com/dawid33/fernparse/internal/fernparse/types"
)

// sumGrammar is stratified (EXPR over TERM) so that PLUS never has to be
// related to itself across the EXPR self-recursion: a flat "EXPR : EXPR
// PLUS EXPR" alternative is not a valid operator-precedence grammar (PLUS
// would need both <· and ·> against itself).
const sumGrammar = `
%terminal PLUS NUM LPAREN RPAREN
%nonterminal EXPR TERM
%axiom EXPR
%%
EXPR : EXPR.1 PLUS TERM.2
     | TERM
     ;
TERM : NUM
     | LPAREN EXPR.1 RPAREN
     ;
`

func compileSumGrammar(t *testing.T) *opg.Grammar {
	t.Helper()
	ns := ids.NewNamespace()
	raw, err := rgram.Parse(sumGrammar, ns)
	require.NoError(t, err)
	norm, err := opg.Normalize(raw)
	require.NoError(t, err)
	return norm
}

func tok(g *opg.Grammar, name, lexeme string) types.Token {
	id, ok := g.NS.Lookup(name)
	if !ok {
		panic("unknown terminal " + name)
	}
	return types.NewToken(types.NewClass(id, name), lexeme, &types.Payload{Text: lexeme}, 1, 1, lexeme)
}

// root unwraps the fresh-axiom indirection rule that normalization always
// introduces (the axiom rule has exactly one RHS symbol), returning the
// subtree for the grammar's "real" top-level production.
func root(t *testing.T, g *opg.Grammar, tree *types.ParseTree) *types.ParseTree {
	t.Helper()
	require.Equal(t, g.Axiom, tree.TokenID)
	require.Len(t, tree.Children, 1)
	return tree.Children[0]
}

func TestParse_SingleNumber(t *testing.T) {
	g := compileSumGrammar(t)
	stream := types.NewSliceStream([]types.Token{tok(g, "NUM", "42")})

	tree, err := Parse(g, stream)
	require.NoError(t, err)

	inner := root(t, g, tree)
	require.Len(t, inner.Children, 1)
	assert.True(t, inner.Children[0].Terminal)
	assert.Equal(t, "42", inner.Children[0].Payload.Text)
}

func TestParse_SumOfTwoNumbers(t *testing.T) {
	g := compileSumGrammar(t)
	stream := types.NewSliceStream([]types.Token{
		tok(g, "NUM", "1"),
		tok(g, "PLUS", "+"),
		tok(g, "NUM", "2"),
	})

	tree, err := Parse(g, stream)
	require.NoError(t, err)

	inner := root(t, g, tree)
	require.Len(t, inner.Children, 3)
	assert.False(t, inner.Children[0].Terminal)
	assert.True(t, inner.Children[1].Terminal)
	assert.False(t, inner.Children[2].Terminal)
}

func TestParse_Parenthesized(t *testing.T) {
	g := compileSumGrammar(t)
	stream := types.NewSliceStream([]types.Token{
		tok(g, "LPAREN", "("),
		tok(g, "NUM", "1"),
		tok(g, "PLUS", "+"),
		tok(g, "NUM", "2"),
		tok(g, "RPAREN", ")"),
	})

	tree, err := Parse(g, stream)
	require.NoError(t, err)

	inner := root(t, g, tree)
	require.Len(t, inner.Children, 3)
	assert.True(t, inner.Children[0].Terminal)
	assert.False(t, inner.Children[1].Terminal)
	assert.True(t, inner.Children[2].Terminal)
}

func TestParse_MalformedInputErrors(t *testing.T) {
	g := compileSumGrammar(t)
	stream := types.NewSliceStream([]types.Token{
		tok(g, "PLUS", "+"),
		tok(g, "NUM", "1"),
	})

	_, err := Parse(g, stream)
	assert.Error(t, err)
}

func TestParseChunks_SingleChunkMatchesParse(t *testing.T) {
	g := compileSumGrammar(t)
	toks := []types.Token{tok(g, "NUM", "5")}

	direct, err := Parse(g, types.NewSliceStream(toks))
	require.NoError(t, err)

	chunked, err := ParseChunks(g, []types.TokenStream{types.NewSliceStream(toks)})
	require.NoError(t, err)

	assert.Equal(t, direct.String(), chunked.String())
}

func TestParseChunks_MultipleChunksWrapped(t *testing.T) {
	g := compileSumGrammar(t)
	chunks := []types.TokenStream{
		types.NewSliceStream([]types.Token{tok(g, "NUM", "1")}),
		types.NewSliceStream([]types.Token{tok(g, "NUM", "2")}),
	}

	tree, err := ParseChunks(g, chunks)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	for _, child := range tree.Children {
		assert.Equal(t, g.Axiom, child.TokenID)
	}
}
