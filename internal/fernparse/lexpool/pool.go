// Package lexpool implements the parallel lexer (spec component D, §4.3): a
// fixed-size worker pool lexes disjoint byte chunks concurrently, each chunk
// from every "interesting" start state, and a batch reassembles a single
// token stream by chaining each chunk's matching entry state to the prior
// chunk's finish state.
package lexpool

import (
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/lgram"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
	"github.com/dawid33/fernparse/internal/fernparse/types"
)

// run is one worker's lex of a chunk starting from a single state (spec
// §4.3 "Per-chunk work").
type run struct {
	tokens      []types.Token
	finishState string
	err         error
}

// chunkResult is everything a worker produced for one submitted chunk: a run
// per interesting start state, keyed by that state's name.
type chunkResult struct {
	runs map[string]run
}

// Batch collects chunk tasks submitted against a Pool and their results in
// submission order, regardless of completion order (spec §5 "Ordering
// guarantees"). Each batch carries a uuid so two batches running against the
// same pool never collide in logs or errors.
type Batch struct {
	id uuid.UUID

	mu        sync.Mutex
	cond      *sync.Cond
	results   map[int]chunkResult
	submitted int
}

// ID returns the batch's identifying uuid.
func (b *Batch) ID() uuid.UUID {
	return b.id
}

// Pool dispatches chunk-lexing tasks to a fixed set of worker goroutines
// backed by github.com/gammazero/workerpool, matching spec §5's "N OS-level
// worker threads sharing a lock-free FIFO work queue" scheduling model.
type Pool struct {
	table       *lgram.Table
	wp          *workerpool.WorkerPool
	interesting []string
	defaultStt  string
}

// New builds a Pool of the given worker count. interestingStartStates is the
// set of DFA states a chunk may need to be lexed from, beyond the table's own
// start state (spec §4.3; see lgram.Table.StringLikeStates for a reasonable
// default). defaultStart is the state the very first chunk of any batch is
// lexed from; ordinarily this is table.StartState().
func New(table *lgram.Table, workers int, interestingStartStates []string, defaultStart string) *Pool {
	interesting := cset.NewStringSet()
	interesting.Add(defaultStart)
	for _, s := range interestingStartStates {
		interesting.Add(s)
	}

	return &Pool{
		table:       table,
		wp:          workerpool.New(workers),
		interesting: interesting.Elements(),
		defaultStt:  defaultStart,
	}
}

// NewBatch returns a handle that Submit and Collect operate against.
func (p *Pool) NewBatch() *Batch {
	b := &Batch{id: uuid.New(), results: map[int]chunkResult{}}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Submit enqueues chunkBytes for lexing under b, recorded at position order
// in the reassembled output. Submit may be called many times against the
// same batch before Collect; chunks are lexed concurrently and out of order,
// but Collect always reassembles them by order.
func (p *Pool) Submit(b *Batch, chunkBytes []byte, order int) {
	b.mu.Lock()
	b.submitted++
	b.mu.Unlock()

	p.wp.Submit(func() {
		runs := make(map[string]run, len(p.interesting))
		for _, start := range p.interesting {
			runs[start] = p.lexFrom(chunkBytes, start)
		}

		b.mu.Lock()
		b.results[order] = chunkResult{runs: runs}
		b.cond.Broadcast()
		b.mu.Unlock()
	})
}

// lexFrom runs the pool's table over chunkBytes starting at start, capturing
// whichever of tokens/finish-state/error TokenizeChunk produced (spec §4.3
// "for each start state it records: the emitted tokens with payloads, the
// finishing state, whether lexing completed without error").
func (p *Pool) lexFrom(chunkBytes []byte, start string) run {
	results, finish, err := p.table.TokenizeChunk(chunkBytes, 0, start)
	if err != nil {
		return run{finishState: finish, err: err}
	}

	toks := make([]types.Token, len(results))
	for i, r := range results {
		var payload *types.Payload
		if r.Lexeme != "" {
			payload = &types.Payload{Text: r.Lexeme, TokenIndex: i}
		}
		class := types.NewClass(r.Terminal, p.table.NS.Name(r.Terminal))
		toks[i] = types.NewToken(class, r.Lexeme, payload, 0, 0, "")
	}

	return run{tokens: toks, finishState: finish}
}

// Collect blocks until every chunk submitted to b has produced a result,
// then reassembles the token stream: the first chunk contributes its
// default-start run, and every later chunk contributes the run whose start
// state equals the prior chunk's finish state (spec §4.3 "Reassembly"). No
// matching run is a fatal "lexer split failed" error.
func (p *Pool) Collect(b *Batch) ([]types.Token, error) {
	b.mu.Lock()
	for len(b.results) < b.submitted {
		b.cond.Wait()
	}
	n := b.submitted
	b.mu.Unlock()

	var out []types.Token
	state := p.defaultStt

	for i := 0; i < n; i++ {
		b.mu.Lock()
		res := b.results[i]
		b.mu.Unlock()

		r, ok := res.runs[state]
		if !ok {
			return nil, synerr.Lexer("lexer split failed: chunk %d has no run starting in state %q", i, state)
		}
		if r.err != nil {
			return nil, synerr.WrapLexer(r.err, "lexer split failed: chunk %d errored from state %q", i, state)
		}

		out = append(out, r.tokens...)
		state = r.finishState
	}

	return out, nil
}

// CollectChunks is Collect but keeps each submitted chunk's tokens separate
// instead of flattening them into one stream, so a caller can hand each
// chunk's tokens to its own independent parse (spec §4.8's parallel parse
// path, as opposed to parsing one reassembled stream sequentially). The
// chaining rule for resolving each chunk's start state is identical to
// Collect's.
func (p *Pool) CollectChunks(b *Batch) ([][]types.Token, error) {
	b.mu.Lock()
	for len(b.results) < b.submitted {
		b.cond.Wait()
	}
	n := b.submitted
	b.mu.Unlock()

	out := make([][]types.Token, n)
	state := p.defaultStt

	for i := 0; i < n; i++ {
		b.mu.Lock()
		res := b.results[i]
		b.mu.Unlock()

		r, ok := res.runs[state]
		if !ok {
			return nil, synerr.Lexer("lexer split failed: chunk %d has no run starting in state %q", i, state)
		}
		if r.err != nil {
			return nil, synerr.WrapLexer(r.err, "lexer split failed: chunk %d errored from state %q", i, state)
		}

		out[i] = r.tokens
		state = r.finishState
	}

	return out, nil
}

// Shutdown sends the cooperative termination signal and waits for every
// worker to finish its in-flight task and exit (spec §5 "Cancellation/
// timeouts"). No task-level cancellation is supported.
func (p *Pool) Shutdown() {
	p.wp.StopWait()
}
