package opparse

import (
	"github.com/dawid33/fernparse/internal/fernparse/opg"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
	"github.com/dawid33/fernparse/internal/fernparse/types"
)

// chunkRootName is the synthetic non-terminal name used for the wrapper node
// ParseChunks returns when more than one chunk was parsed. It is never
// registered in any ids.Namespace and never matched against a reduction
// tree; it exists purely to give the merged forest a single root.
const chunkRootName = "_chunks"

// ParseChunks parses each chunk's token stream independently to its own
// axiom-rooted subtree, then assembles those subtrees into one tree (spec
// §4.8 "Parse-tree merging across parallel chunks"). This is the simplified
// merge policy the spec explicitly sanctions in place of a true single
// shift-reduce pass across chunk boundaries: each chunk is parsed against a
// fresh stack (so it resyncs cleanly at the delimiter implied by stream end,
// spec §4.2's chunker guarantee that a chunk never splits a token apart
// without the lexer pool having already resolved that), and every chunk's
// topmost axiom node is carried forward as one ordered child of the
// assembled result.
//
// If exactly one chunk is given, its axiom subtree is returned directly with
// no wrapper node, so single-chunk callers see the same tree shape Parse
// would have produced on its own.
func ParseChunks(g *opg.Grammar, chunkStreams []types.TokenStream) (*types.ParseTree, error) {
	if len(chunkStreams) == 0 {
		return nil, synerr.Parser("no chunks to parse")
	}

	roots := make([]*types.ParseTree, len(chunkStreams))
	for i, stream := range chunkStreams {
		tree, err := Parse(g, stream)
		if err != nil {
			return nil, synerr.WrapParser(err, "chunk %d failed to parse", i)
		}
		roots[i] = tree
	}

	if len(roots) == 1 {
		return roots[0], nil
	}

	return &types.ParseTree{
		Terminal: false,
		TokenID:  g.Axiom,
		Name:     chunkRootName,
		Children: roots,
	}, nil
}
