package lexpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawid33/fernparse/internal/fernparse/chunk"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/lgram"
)

const jsonLG = `
LBRACE = "\{"
RBRACE = "\}"
COLON = "\:"
COMMA = "\,"
STRING = "\"[^\"]*\""
NUMBER = "[0-9]+"
WS = "[ \n]+"
`

func compileJSONTable(t *testing.T) (*lgram.Table, *ids.Namespace) {
	t.Helper()
	ns := ids.NewNamespace()
	tbl, err := lgram.Compile(jsonLG, ns)
	require.NoError(t, err)
	return tbl, ns
}

func lexViaPool(t *testing.T, tbl *lgram.Table, input string, workers, chunkSize int) []string {
	t.Helper()

	chunks, err := chunk.Split([]byte(input), chunkSize)
	require.NoError(t, err)

	pool := New(tbl, workers, tbl.StringLikeStates(), tbl.StartState())
	batch := pool.NewBatch()
	for i, c := range chunks {
		pool.Submit(batch, c, i)
	}

	toks, err := pool.Collect(batch)
	require.NoError(t, err)
	pool.Shutdown()

	var names []string
	for _, tok := range toks {
		names = append(names, tok.Class().Human())
	}
	return names
}

func TestPool_SingleChunkMatchesWholeInput(t *testing.T) {
	tbl, _ := compileJSONTable(t)
	names := lexViaPool(t, tbl, `{"x":1}`, 1, 1024)
	assert.Contains(t, names, "LBRACE")
	assert.Contains(t, names, "RBRACE")
	assert.Contains(t, names, "NUMBER")
	assert.Contains(t, names, "STRING")
}

func TestPool_ChunkBoundaryInvariance(t *testing.T) {
	tbl, _ := compileJSONTable(t)
	// the long quoted string's interior spaces are legal chunker split
	// points even though they fall inside a single STRING token; only the
	// table's string-like interesting start states let reassembly recover.
	input := `{"a long string with many words inside it":1, "beta":2, "gamma":3}`

	serial := lexViaPool(t, tbl, input, 1, len(input)+1)
	parallel := lexViaPool(t, tbl, input, 4, 8)

	assert.Equal(t, serial, parallel)
}

func TestPool_SplitFailsWithoutInterestingStates(t *testing.T) {
	tbl, _ := compileJSONTable(t)
	input := `{"a a a a a a a a a a a a":1}`

	chunks, err := chunk.Split([]byte(input), 6)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	pool := New(tbl, 2, nil, tbl.StartState())
	batch := pool.NewBatch()
	for i, c := range chunks {
		pool.Submit(batch, c, i)
	}

	_, err = pool.Collect(batch)
	assert.Error(t, err)
	pool.Shutdown()
}
