package lgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
)

const identifierLG = `
NAME = "[a-zA-Z][a-zA-Z0-9]*"
WS = "[ \n]+"
`

const fnKeywordLG = `
FN = "fn"
`

// TestAddSubTable_PromotesKeyword exercises spec §4.1's sub-table keyword
// promotion: "fn foo" lexes as FN NAME(foo), not two NAME tokens, once a
// keyword sub-table is attached to NAME.
func TestAddSubTable_PromotesKeyword(t *testing.T) {
	ns := ids.NewNamespace()
	tbl, err := Compile(identifierLG, ns)
	require.NoError(t, err)

	kw, err := Compile(fnKeywordLG, ns)
	require.NoError(t, err)

	nameID, ok := ns.Lookup("NAME")
	require.True(t, ok)
	fnID, ok := ns.Lookup("FN")
	require.True(t, ok)

	tbl.AddSubTable(nameID, kw)

	toks, _, err := tbl.TokenizeChunk([]byte("fn foo"), 0, "")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, fnID, toks[0].Terminal)
	assert.Equal(t, "fn", toks[0].Lexeme)
	assert.Equal(t, nameID, toks[2].Terminal)
	assert.Equal(t, "foo", toks[2].Lexeme)
}

// TestAddSubTable_FallsBackWhenNoMatch confirms an ordinary identifier that
// doesn't match any keyword in the sub-table keeps the parent terminal.
func TestAddSubTable_FallsBackWhenNoMatch(t *testing.T) {
	ns := ids.NewNamespace()
	tbl, err := Compile(identifierLG, ns)
	require.NoError(t, err)

	kw, err := Compile(fnKeywordLG, ns)
	require.NoError(t, err)

	nameID, ok := ns.Lookup("NAME")
	require.True(t, ok)
	tbl.AddSubTable(nameID, kw)

	toks, _, err := tbl.TokenizeChunk([]byte("foo"), 0, "")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, nameID, toks[0].Terminal)
	assert.Equal(t, "foo", toks[0].Lexeme)
}
