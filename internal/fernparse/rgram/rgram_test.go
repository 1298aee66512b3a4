package rgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
)

const simpleGrammar = `
%terminal PLUS NUM LPAREN RPAREN
%nonterminal EXPR
%axiom EXPR
%%
EXPR : NUM
     | EXPR.1 PLUS EXPR.2
     | LPAREN EXPR.1 RPAREN
     ;
`

func TestParse_BasicGrammar(t *testing.T) {
	ns := ids.NewNamespace()
	g, err := Parse(simpleGrammar, ns)
	require.NoError(t, err)

	assert.Len(t, g.Rules, 3)
	axiomID, ok := ns.Lookup("EXPR")
	require.True(t, ok)
	assert.Equal(t, axiomID, g.Axiom)
	assert.Equal(t, axiomID, ns.Axiom())

	numID, ok := ns.Lookup("NUM")
	require.True(t, ok)
	rule, ok := g.Tree.Match([]ids.ID{numID})
	require.True(t, ok)
	assert.Equal(t, axiomID, rule.Left)
}

func TestParse_NestingSuffixDefaultsToNegativeOne(t *testing.T) {
	ns := ids.NewNamespace()
	g, err := Parse(simpleGrammar, ns)
	require.NoError(t, err)

	for _, r := range g.Rules {
		if len(r.Right) == 1 {
			assert.Equal(t, []int{-1}, r.Nesting[0])
		}
	}
}

func TestParse_TerminalIDsSynchronizeWithExistingNamespace(t *testing.T) {
	ns := ids.NewNamespace()
	preexisting := ns.NewTerminal("NUM")

	g, err := Parse(simpleGrammar, ns)
	require.NoError(t, err)

	numID, ok := ns.Lookup("NUM")
	require.True(t, ok)
	assert.Equal(t, preexisting, numID)
	assert.Contains(t, g.Terminals, numID)
}

func TestParse_RepeatedRHSRejected(t *testing.T) {
	src := `
%terminal A B
%nonterminal X Y
%axiom X
%%
X : A B ;
Y : A B ;
`
	ns := ids.NewNamespace()
	_, err := Parse(src, ns)
	assert.Error(t, err)
}

func TestParse_UndefinedSymbolRejected(t *testing.T) {
	src := `
%terminal A
%nonterminal X
%axiom X
%%
X : A B ;
`
	ns := ids.NewNamespace()
	_, err := Parse(src, ns)
	assert.Error(t, err)
}

func TestParse_MissingAxiomRejected(t *testing.T) {
	src := `
%terminal A
%nonterminal X
%%
X : A ;
`
	ns := ids.NewNamespace()
	_, err := Parse(src, ns)
	assert.Error(t, err)
}
