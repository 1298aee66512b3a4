// Package fernparse is the thin root-level facade over the pipeline's
// internal packages (spec §6 "External Interfaces"), the way tunaq's root
// package wires game/command/input into one Engine. A Pipeline owns the
// shared ids.Namespace, the compiled lexical grammar, the normalized OPG,
// and the lexer worker pool; ParseBytes and ParseBytesChunked drive the full
// chunk -> lex -> parse flow against it.
package fernparse

import (
	"io"

	"github.com/dawid33/fernparse/internal/fernparse/chunk"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/lexpool"
	"github.com/dawid33/fernparse/internal/fernparse/lgram"
	"github.com/dawid33/fernparse/internal/fernparse/opg"
	"github.com/dawid33/fernparse/internal/fernparse/opparse"
	"github.com/dawid33/fernparse/internal/fernparse/rgram"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
	"github.com/dawid33/fernparse/internal/fernparse/types"
)

// Pipeline is a compiled lexical grammar plus a normalized OPG, ready to lex
// and parse input under a shared token-id namespace (spec §3 "grammars are
// built once, then shared read-only across workers").
type Pipeline struct {
	NS      *ids.Namespace
	Lexicon *lgram.Table
	Grammar *opg.Grammar

	pool    *lexpool.Pool
	discard map[string]bool
}

// Options configures the worker pool behind a Pipeline (spec §5 "Ordering
// guarantees", "N OS-level worker threads"). Zero values fall back to
// sensible defaults: Workers defaults to 4, and InterestingStartStates
// defaults to Lexicon.StringLikeStates().
type Options struct {
	Workers                int
	InterestingStartStates []string

	// Discard names terminal classes (e.g. whitespace, comments) that the
	// lexical grammar must recognize in order to advance past them but that
	// never appear in the parsing grammar; tokens of these classes are
	// dropped after lexing and before the parser ever sees them.
	Discard []string

	// Keywords maps a parent terminal name (e.g. "NAME") to a keyword
	// sub-table's lexical-grammar source (e.g. `FN = "fn"`). Whenever the
	// lexer emits the parent terminal, the sub-table re-scans the full
	// lexeme and, on an exact match, promotes the token to the sub-table's
	// terminal instead (spec §4.1 "Sub-tables" — "fn foo" tokenizes to FN
	// NAME(foo) rather than two NAME tokens).
	Keywords map[string]string
}

const defaultWorkers = 4

// New compiles lexSrc as a lexical grammar (spec §4.1) and grammarSrc as a
// raw `.g` grammar normalized into an OPG (spec §4.4-§4.6), sharing one
// ids.Namespace between the two so a terminal named the same way in both
// sources resolves to the same id (spec §4.4 "LG/raw grammar
// synchronization"). It then starts the lexer worker pool.
func New(lexSrc, grammarSrc string, opts Options) (*Pipeline, error) {
	ns := ids.NewNamespace()

	table, err := lgram.Compile(lexSrc, ns)
	if err != nil {
		return nil, synerr.WrapGrammar(err, "compiling lexical grammar")
	}

	for parentName, kwSrc := range opts.Keywords {
		parentID, ok := ns.Lookup(parentName)
		if !ok {
			return nil, synerr.Grammar("keyword sub-table parent terminal %q not declared in lexical grammar", parentName)
		}
		sub, err := lgram.Compile(kwSrc, ns)
		if err != nil {
			return nil, synerr.WrapGrammar(err, "compiling keyword sub-table for %q", parentName)
		}
		table.AddSubTable(parentID, sub)
	}

	raw, err := rgram.Parse(grammarSrc, ns)
	if err != nil {
		return nil, synerr.WrapGrammar(err, "parsing grammar")
	}
	norm, err := opg.Normalize(raw)
	if err != nil {
		return nil, synerr.WrapGrammar(err, "normalizing grammar")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	interesting := opts.InterestingStartStates
	if interesting == nil {
		interesting = table.StringLikeStates()
	}

	discard := map[string]bool{}
	for _, name := range opts.Discard {
		discard[name] = true
	}

	return &Pipeline{
		NS:      ns,
		Lexicon: table,
		Grammar: norm,
		pool:    lexpool.New(table, workers, interesting, table.StartState()),
		discard: discard,
	}, nil
}

// filterDiscarded drops every token whose class is named in Options.Discard.
func (p *Pipeline) filterDiscarded(toks []types.Token) []types.Token {
	if len(p.discard) == 0 {
		return toks
	}
	kept := toks[:0:0]
	for _, tok := range toks {
		if !p.discard[tok.Class().Human()] {
			kept = append(kept, tok)
		}
	}
	return kept
}

// Close shuts down the pipeline's worker pool, waiting for any in-flight
// chunk to finish (spec §5 "Cancellation/timeouts").
func (p *Pipeline) Close() {
	p.pool.Shutdown()
}

// ParseBytes splits input into chunks of at least chunkSize bytes (spec
// §4.2), lexes them concurrently across the worker pool, reassembles a
// single token stream (spec §4.3 "Reassembly"), and parses that stream with
// the Floyd operator-precedence parser (spec §4.7).
func (p *Pipeline) ParseBytes(input []byte, chunkSize int) (*types.ParseTree, error) {
	chunks, err := chunk.Split(input, chunkSize)
	if err != nil {
		return nil, err
	}

	batch := p.pool.NewBatch()
	for i, c := range chunks {
		p.pool.Submit(batch, c, i)
	}

	toks, err := p.pool.Collect(batch)
	if err != nil {
		return nil, err
	}

	return opparse.Parse(p.Grammar, types.NewSliceStream(p.filterDiscarded(toks)))
}

// ParseBytesChunked is ParseBytes, but parses each chunk's tokens
// independently instead of reassembling one stream first, returning the
// parallel-merged tree from spec §4.8 (a synthetic root over every chunk's
// axiom subtree when there's more than one chunk). Each chunk must parse on
// its own to a complete axiom-rooted sentence; a production spanning a chunk
// boundary makes the whole call fail.
func (p *Pipeline) ParseBytesChunked(input []byte, chunkSize int) (*types.ParseTree, error) {
	chunks, err := chunk.Split(input, chunkSize)
	if err != nil {
		return nil, err
	}

	batch := p.pool.NewBatch()
	for i, c := range chunks {
		p.pool.Submit(batch, c, i)
	}

	perChunk, err := p.pool.CollectChunks(batch)
	if err != nil {
		return nil, err
	}

	streams := make([]types.TokenStream, len(perChunk))
	for i, toks := range perChunk {
		streams[i] = types.NewSliceStream(p.filterDiscarded(toks))
	}

	return opparse.ParseChunks(p.Grammar, streams)
}

// WriteGrammar serializes the pipeline's normalized grammar back to `.g`
// source (spec §3's round-trip convenience serializer).
func (p *Pipeline) WriteGrammar(w io.Writer) (int64, error) {
	return p.Grammar.WriteTo(w)
}
