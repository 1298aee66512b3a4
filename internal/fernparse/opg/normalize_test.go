package opg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/rgram"
)

const exprGrammar = `
%terminal PLUS STAR NUM LPAREN RPAREN
%nonterminal EXPR TERM FACTOR
%axiom EXPR
%%
EXPR : EXPR.1 PLUS TERM.2
     | TERM
     ;
TERM : TERM.1 STAR FACTOR.2
     | FACTOR
     ;
FACTOR : NUM
       | LPAREN EXPR.1 RPAREN
       ;
`

func mustNormalize(t *testing.T, src string) (*rgram.Grammar, *Grammar) {
	t.Helper()
	ns := ids.NewNamespace()
	raw, err := rgram.Parse(src, ns)
	require.NoError(t, err)
	norm, err := Normalize(raw)
	require.NoError(t, err)
	return raw, norm
}

func TestNormalize_EveryRHSIsUnique(t *testing.T) {
	_, norm := mustNormalize(t, exprGrammar)

	seen := map[string]bool{}
	for _, r := range norm.Rules {
		key := rhsIDKey(r.Right)
		assert.False(t, seen[key], "duplicate RHS survived normalization: %v", r.Right)
		seen[key] = true
	}
}

func TestNormalize_NoCopyRulesSurvive(t *testing.T) {
	_, norm := mustNormalize(t, exprGrammar)

	nonTerminals := map[ids.ID]bool{}
	for _, nt := range norm.NonTerminal {
		nonTerminals[nt] = true
	}
	for _, r := range norm.Rules {
		// The fresh axiom's S' -> X rules are the single-symbol rules that
		// normalization adds on purpose; every other rule must be copy-free.
		if r.Left == norm.Axiom {
			continue
		}
		if len(r.Right) == 1 && nonTerminals[r.Right[0]] {
			t.Fatalf("copy rule survived normalization: %s -> %s", norm.NS.Name(r.Left), norm.NS.Name(r.Right[0]))
		}
	}
}

func TestNormalize_FreshAxiomIntroduced(t *testing.T) {
	raw, norm := mustNormalize(t, exprGrammar)
	assert.NotEqual(t, raw.Axiom, norm.Axiom)

	found := false
	for _, r := range norm.Rules {
		if r.Left == norm.Axiom {
			found = true
		}
	}
	assert.True(t, found, "fresh axiom must be the LHS of at least one rule")
}

func TestNormalize_RepeatedRHSAcrossDistinctNonTerminalsMerges(t *testing.T) {
	// A and B both produce "X Y", and S reaches each of them through a copy
	// rule, so normalization merges the two productions under one composite
	// non-terminal over {A, B, S} rather than keeping two rules with the
	// identical RHS "X Y" (spec §8 scenario 5).
	src := `
%terminal X Y
%nonterminal S A B
%axiom S
%%
S : A
  | B
  ;
A : X Y ;
B : X Y ;
`
	_, norm := mustNormalize(t, src)

	seen := map[string]bool{}
	for _, r := range norm.Rules {
		key := rhsIDKey(r.Right)
		assert.False(t, seen[key], "repeated RHS must have been merged away")
		seen[key] = true
	}

	mergedID, ok := norm.NS.Lookup("A__B__S")
	require.True(t, ok, "merged non-terminal must be printable as A__B__S, not a separator-less ABS")
	require.True(t, norm.NS.IsTerminal(mergedID) == false)
}

func TestNormalize_PrecedenceTableBuilt(t *testing.T) {
	_, norm := mustNormalize(t, exprGrammar)
	require.NotNil(t, norm.Prec)

	lparenID, ok := norm.NS.Lookup("LPAREN")
	require.True(t, ok)
	rparenID, ok := norm.NS.Lookup("RPAREN")
	require.True(t, ok)
	numID, ok := norm.NS.Lookup("NUM")
	require.True(t, ok)

	rel, ok := norm.Prec.Lookup(lparenID, numID)
	require.True(t, ok)
	assert.Equal(t, Left, rel, "'(' yields precedence to whatever can open the parenthesized expression")

	rel, ok = norm.Prec.Lookup(numID, rparenID)
	require.True(t, ok)
	assert.Equal(t, Right, rel, "a value ending the parenthesized expression takes precedence over ')'")
}

func TestNormalize_DelimiterRelations(t *testing.T) {
	_, norm := mustNormalize(t, exprGrammar)
	numID, ok := norm.NS.Lookup("NUM")
	require.True(t, ok)

	rel, ok := norm.Prec.Lookup(norm.Delimiter, numID)
	require.True(t, ok)
	assert.Equal(t, Right, rel, "delimiter is Right as the left operand against any other terminal")

	rel, ok = norm.Prec.Lookup(numID, norm.Delimiter)
	require.True(t, ok)
	assert.Equal(t, Right, rel, "delimiter is Right as the right operand from any other terminal")

	rel, ok = norm.Prec.Lookup(norm.Delimiter, norm.Delimiter)
	require.True(t, ok)
	assert.Equal(t, Equal, rel, "delimiter is Equal with itself")
}
