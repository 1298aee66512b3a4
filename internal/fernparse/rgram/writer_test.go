package rgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
)

func TestWrite_RoundTripsThroughParse(t *testing.T) {
	ns := ids.NewNamespace()
	g, err := Parse(simpleGrammar, ns)
	require.NoError(t, err)

	src := Write(g)

	ns2 := ids.NewNamespace()
	g2, err := Parse(src, ns2)
	require.NoError(t, err)

	assert.Equal(t, len(g.Rules), len(g2.Rules))
	assert.Equal(t, ns2.Name(g2.Axiom), ns.Name(g.Axiom))

	for _, r := range g2.Rules {
		window := r.Right
		match, ok := g2.Tree.Match(window)
		require.True(t, ok)
		assert.Equal(t, r.Left, match.Left)
	}
}
