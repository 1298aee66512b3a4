package opg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/rgram"
)

func TestWriteTo_RoundTripsThroughNormalize(t *testing.T) {
	_, norm := mustNormalize(t, exprGrammar)

	var buf strings.Builder
	n, err := norm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	ns2 := ids.NewNamespace()
	raw2, err := rgram.Parse(buf.String(), ns2)
	require.NoError(t, err)
	norm2, err := Normalize(raw2)
	require.NoError(t, err)

	assert.Equal(t, len(norm.Rules), len(norm2.Rules))
	assert.Equal(t, norm.NS.Name(norm.Axiom), raw2.NS.Name(raw2.Axiom))
}
