package lgram

import (
	"github.com/dawid33/fernparse/internal/fernparse/automaton"
	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
)

// Table is a compiled lexical grammar (spec §4.1 stage 4): a byte-indexed
// DFA whose accepting states are tagged with a terminal id, plus any
// sub-tables attached for keyword-style promotion.
type Table struct {
	NS *ids.Namespace

	dfa        automaton.DFA[ids.ID]
	subTables  map[ids.ID]*Table
	startState string
}

// resolveAccepting collapses each subset-constructed DFA state's per-NFA-state
// payloads to the single terminal id the state accepts, or ids.Invalid if the
// state is non-accepting, failing if one accepting state binds two terminals.
func resolveAccepting(dfa automaton.DFA[cset.SVSet[ids.ID]]) (automaton.DFA[ids.ID], error) {
	resolve := func(vals cset.SVSet[ids.ID]) ids.ID {
		found := ids.Invalid
		conflict := false
		for _, v := range vals {
			if v == ids.Invalid {
				continue
			}
			if found == ids.Invalid {
				found = v
			} else if found != v {
				conflict = true
			}
		}
		if conflict {
			return ids.ID(-2) // sentinel caught by caller via dfa.IsAccepting + lookup
		}
		return found
	}

	resolved := automaton.TransformDFA(dfa, resolve)

	for _, name := range resolved.States().Elements() {
		if !resolved.IsAccepting(name) {
			continue
		}
		if resolved.GetValue(name) == ids.ID(-2) {
			return automaton.DFA[ids.ID]{}, synerr.Grammar("ambiguous DFA accepting state binds to more than one terminal")
		}
	}

	return resolved, nil
}

// Compile builds a Table from lexical-grammar source text (spec §4.1 stages
// 1-4): scan entries, compile each regex to an NFA fragment tagged with its
// terminal id, subset-construct a DFA, and resolve accepting states to a
// single terminal each.
func Compile(src string, ns *ids.Namespace) (*Table, error) {
	entries, err := scanEntries(src)
	if err != nil {
		return nil, err
	}

	nfa := &automaton.NFA[string]{}
	start := "start"
	nfa.AddState(start, false)
	nfa.Start = start

	for _, e := range entries {
		ns.NewTerminal(e.name)

		b := newBuilder(nfa, e.name)
		f, err := b.compileRegex(e.regex)
		if err != nil {
			return nil, err
		}

		accept := b.newState()
		nfa.AddTransition(start, automaton.Epsilon, f.start)
		b.patch(f.out, accept)

		// mark accept as accepting and stash the terminal name as its
		// payload; retagWithIDs below resolves names back to the shared
		// ids.ID namespace once every entry's states exist.
		markAccepting(nfa, accept, e.name)
	}

	tagged := retagWithIDs(nfa, ns)

	subset := tagged.ToDFA()
	dfa, err := resolveAccepting(subset)
	if err != nil {
		return nil, err
	}
	dfa.NumberStates()

	if err := dfa.Validate(); err != nil {
		return nil, synerr.Grammar("compiled lexical DFA is malformed: %s", err)
	}

	return &Table{NS: ns, dfa: dfa, subTables: map[ids.ID]*Table{}, startState: dfa.Start}, nil
}

// markAccepting is a small helper kept separate from Compile so the
// accepting-state bookkeeping (name -> terminal) reads as one step; it
// mutates nfa in place via its exported API only.
func markAccepting(nfa *automaton.NFA[string], state string, terminalName string) {
	nfa.SetValue(state, terminalName)
}

// retagWithIDs rebuilds nfa with payload values switched from terminal name
// strings to ids.ID, non-accepting states tagged ids.Invalid. Kept as a
// separate pass because the namespace assigns ids as entries are scanned,
// but Thompson construction is easiest to write against plain string labels.
func retagWithIDs(nfa *automaton.NFA[string], ns *ids.Namespace) automaton.NFA[ids.ID] {
	out := automaton.NFA[ids.ID]{Start: nfa.Start}
	for _, name := range nfa.States().Elements() {
		id := ids.Invalid
		if termName := nfa.GetValue(name); termName != "" {
			id, _ = ns.Lookup(termName)
		}
		out.AddState(name, id != ids.Invalid)
		out.SetValue(name, id)
	}
	// restore transitions through the exported API: MOVE from a single state
	// on each input symbol (ε included) yields that state's outgoing edges.
	for _, name := range nfa.States().Elements() {
		for _, sym := range nfa.InputSymbols().Elements() {
			for _, next := range nfa.MOVE(cset.StringSetOf([]string{name}), sym).Elements() {
				out.AddTransition(name, sym, next)
			}
		}
	}
	return out
}

// AddSubTable attaches child as the sub-table run over the accumulated
// lexeme whenever parentTerminal is emitted by dfa (spec §4.1 "Sub-tables").
func (t *Table) AddSubTable(parentTerminal ids.ID, child *Table) {
	t.subTables[parentTerminal] = child
}

// StartState returns the DFA's own start state name. The parallel lexer pool
// (spec §4.3) treats this as the default "interesting" start state every
// chunk is also lexed from.
func (t *Table) StartState() string {
	return t.dfa.Start
}

// TokenizeChunk lexes as much of input as possible starting at offset, with
// the underlying DFA beginning in fromState (the default dfa.Start if empty).
// Every token after the first restarts from dfa.Start, matching ordinary
// whole-input lexing; fromState only affects how the chunk's leading bytes
// are interpreted, which is what lets the parallel lexer pool (spec §4.3)
// resume a lexeme that began in a previous chunk.
//
// If lexing runs out of chunk bytes mid-lexeme (no accepting state was ever
// reached for the token in progress, but at least one byte was consumed),
// that is not an error: it reports the tokens found so far and the DFA state
// the run is stuck in, so the caller can try resuming from that same state
// against the next chunk. A byte rejected with zero progress is a genuine
// LexerError.
func (t *Table) TokenizeChunk(input []byte, offset int, fromState string) ([]Result, string, error) {
	state := fromState
	if state == "" {
		state = t.dfa.Start
	}

	var toks []Result
	pos := offset

	for pos < len(input) {
		tokenStart := pos
		cur := state
		p := pos
		lastAcceptPos := -1
		var lastAcceptTerm ids.ID

		for {
			if t.dfa.IsAccepting(cur) {
				lastAcceptPos = p
				lastAcceptTerm = t.dfa.GetValue(cur)
			}
			if p >= len(input) {
				break
			}
			next := t.dfa.Next(cur, string(input[p:p+1]))
			if next == "" {
				break
			}
			cur = next
			p++
		}

		if lastAcceptPos < 0 {
			if p == tokenStart {
				return toks, cur, synerr.LexerAt(0, 0, "byte %q not accepted in state %q", input[tokenStart], cur)
			}
			// ran out of chunk bytes partway through an as-yet-unaccepted
			// lexeme (e.g. an unterminated string literal): not an error,
			// the caller resumes this same state against the next chunk.
			return toks, cur, nil
		}

		lexeme := string(input[tokenStart:lastAcceptPos])
		terminal := lastAcceptTerm
		if sub, ok := t.subTables[terminal]; ok {
			if refined, err := sub.runWholeString(lexeme); err == nil {
				terminal = refined
			}
		}
		toks = append(toks, Result{Terminal: terminal, Lexeme: lexeme, NextByte: lastAcceptPos})

		pos = lastAcceptPos
		state = t.dfa.Start
	}

	return toks, t.dfa.Start, nil
}

// Result is one completed run of the table against a byte sequence.
type Result struct {
	Terminal ids.ID
	Lexeme   string
	NextByte int // index of the first unconsumed byte
}

// Run executes the DFA from fromState against input starting at offset,
// applying earliest-longest-match policy: it keeps advancing while a
// transition exists, and remembers the last position at which the current
// state was accepting. It returns an error if no terminal was ever accepted
// before a byte with no transition is hit (spec §8 "earliest-longest match").
func (t *Table) Run(input []byte, offset int, fromState string) (Result, error) {
	state := fromState
	if state == "" {
		state = t.dfa.Start
	}

	lastAcceptPos := -1
	var lastAcceptTerm ids.ID
	pos := offset

	for {
		if t.dfa.IsAccepting(state) {
			lastAcceptPos = pos
			lastAcceptTerm = t.dfa.GetValue(state)
		}
		if pos >= len(input) {
			break
		}
		next := t.dfa.Next(state, string(input[pos:pos+1]))
		if next == "" {
			break
		}
		state = next
		pos++
	}

	if lastAcceptPos < 0 {
		bad := byte(0)
		if offset < len(input) {
			bad = input[offset]
		}
		return Result{}, synerr.LexerAt(0, 0, "byte %q not accepted in state %q", bad, state)
	}

	lexeme := string(input[offset:lastAcceptPos])
	terminal := lastAcceptTerm

	if sub, ok := t.subTables[terminal]; ok {
		if refined, err := sub.runWholeString(lexeme); err == nil {
			terminal = refined
		}
	}

	return Result{Terminal: terminal, Lexeme: lexeme, NextByte: lastAcceptPos}, nil
}

// runWholeString runs the table from its start state over all of s and
// requires the whole string to be consumed as a single accepted run; used by
// sub-table keyword promotion (spec §4.1 "Sub-tables").
func (t *Table) runWholeString(s string) (ids.ID, error) {
	res, err := t.Run([]byte(s), 0, "")
	if err != nil {
		return ids.Invalid, err
	}
	if res.NextByte != len(s) {
		return ids.Invalid, synerr.Lexer("sub-table did not consume entire lexeme %q", s)
	}
	return res.Terminal, nil
}

// StringLikeStates returns a reasonable default set of "interesting start
// states" for the parallel lexer (spec.md doesn't require a particular
// heuristic; this one walks backward from every accepting state whose
// terminal name looks string/quote-shaped and collects every state from
// which that accept is reachable without passing back through the DFA start
// state). Callers may override with their own set.
func (t *Table) StringLikeStates() []string {
	result := cset.NewStringSet()
	result.Add(t.dfa.Start)

	for _, name := range t.dfa.States().Elements() {
		if !t.dfa.IsAccepting(name) {
			continue
		}
		termName := t.NS.Name(t.dfa.GetValue(name))
		if !looksStringLike(termName) {
			continue
		}
		for _, reachable := range reachableWithoutStart(t.dfa, name) {
			result.Add(reachable)
		}
	}

	return result.Elements()
}

func looksStringLike(name string) bool {
	for _, want := range []string{"STRING", "QUOTE", "CHAR"} {
		if len(name) >= len(want) && containsFold(name, want) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			a, b := s[i+j], substr[j]
			if 'a' <= a && a <= 'z' {
				a -= 'a' - 'A'
			}
			if 'a' <= b && b <= 'z' {
				b -= 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// reachableWithoutStart walks dfa backward from target, collecting every
// state with a forward path to target that never passes through dfa.Start.
func reachableWithoutStart(dfa automaton.DFA[ids.ID], target string) []string {
	found := cset.NewStringSet()
	var visit func(state string, seen cset.StringSet)
	visit = func(state string, seen cset.StringSet) {
		if seen.Has(state) {
			return
		}
		seen.Add(state)
		for _, pair := range dfa.AllTransitionsTo(state) {
			from := pair[0]
			if from == dfa.Start {
				continue
			}
			found.Add(from)
			visit(from, seen)
		}
	}
	visit(target, cset.NewStringSet())
	return found.Elements()
}
