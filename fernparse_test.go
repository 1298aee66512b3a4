package fernparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLexicalGrammar = `
NUM = "[0-9]+"
PLUS = "\+"
LPAREN = "\("
RPAREN = "\)"
WS = "[ \n]+"
`

const testGrammar = `
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

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testLexicalGrammar, testGrammar, Options{Workers: 2, Discard: []string{"WS"}})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPipeline_ParseBytes_SumExpression(t *testing.T) {
	p := newTestPipeline(t)

	tree, err := p.ParseBytes([]byte("1 + 2"), 1024)
	require.NoError(t, err)
	assert.Equal(t, p.Grammar.Axiom, tree.TokenID)
}

func TestPipeline_ParseBytesChunked_IndependentRecordsPerChunk(t *testing.T) {
	p := newTestPipeline(t)

	// Each chunk boundary falls at whitespace between whole numbers, so
	// every chunk is independently a complete axiom-rooted sentence - the
	// precondition spec §4.8's simplified merge policy relies on.
	tree, err := p.ParseBytesChunked([]byte("1 2 3"), 1)
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)
	for _, child := range tree.Children {
		assert.Equal(t, p.Grammar.Axiom, child.TokenID)
	}
}

func TestPipeline_WriteGrammar(t *testing.T) {
	p := newTestPipeline(t)

	var buf strings.Builder
	n, err := p.WriteGrammar(&buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Contains(t, buf.String(), "%axiom")
}

const statementLexicalGrammar = `
NAME = "[a-zA-Z][a-zA-Z0-9]*"
WS = "[ \n]+"
`

const statementGrammar = `
%terminal FN NAME
%nonterminal STMT
%axiom STMT
%%
STMT : FN NAME
     | NAME
     ;
`

// TestPipeline_Keywords_PromotesFnToKeyword is spec §4.1's mandatory
// keyword-promotion scenario: "fn foo" must tokenize to FN NAME(foo), not
// two NAME tokens, once a keyword sub-table is registered on NAME.
func TestPipeline_Keywords_PromotesFnToKeyword(t *testing.T) {
	p, err := New(statementLexicalGrammar, statementGrammar, Options{
		Workers:  2,
		Discard:  []string{"WS"},
		Keywords: map[string]string{"NAME": `FN = "fn"`},
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	tree, err := p.ParseBytes([]byte("fn foo"), 1024)
	require.NoError(t, err)

	require.Equal(t, p.Grammar.Axiom, tree.TokenID)
	require.Len(t, tree.Children, 1)
	inner := tree.Children[0]

	require.Len(t, inner.Children, 2)
	assert.True(t, inner.Children[0].Terminal)
	assert.Equal(t, "FN", inner.Children[0].Name)
	assert.True(t, inner.Children[1].Terminal)
	assert.Equal(t, "foo", inner.Children[1].Payload.Text)
}
