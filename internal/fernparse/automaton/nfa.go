package automaton

import (
	"fmt"
	"strings"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
)

// NFA is a non-deterministic finite automaton over a byte (or ε, for
// Epsilon) alphabet, with an arbitrary payload value E attached to every
// state.
type NFA[E any] struct {
	states map[string]NFAState[E]
	Start  string
}

// NFATransitionTo is a (fromState, input) pair feeding toState, as returned
// by AllTransitionsTo.
type NFATransitionTo struct {
	from  string
	input string
	index int
}

// AllTransitionsTo returns every (fromState, input) pair with a transition
// landing on toState.
func (nfa NFA[E]) AllTransitionsTo(toState string) []NFATransitionTo {
	if _, ok := nfa.states[toState]; !ok {
		return []NFATransitionTo{}
	}

	var transitions []NFATransitionTo
	for _, sName := range nfa.States().Elements() {
		state := nfa.states[sName]
		for k := range state.transitions {
			for i := range state.transitions[k] {
				if state.transitions[k][i].next == toState {
					transitions = append(transitions, NFATransitionTo{from: sName, input: k, index: i})
				}
			}
		}
	}
	return transitions
}

// AcceptingStates returns the names of every accepting state.
func (nfa NFA[E]) AcceptingStates() cset.StringSet {
	accepting := cset.NewStringSet()
	for _, s := range nfa.States().Elements() {
		if nfa.states[s].accepting {
			accepting.Add(s)
		}
	}
	return accepting
}

// Copy returns a duplicate of this NFA.
func (nfa NFA[E]) Copy() NFA[E] {
	copied := NFA[E]{Start: nfa.Start, states: make(map[string]NFAState[E])}
	for k := range nfa.states {
		copied.states[k] = nfa.states[k].Copy()
	}
	return copied
}

// States returns all state names in the NFA.
func (nfa NFA[E]) States() cset.StringSet {
	states := cset.NewStringSet()
	for k := range nfa.states {
		states.Add(k)
	}
	return states
}

// ToDFA converts the NFA into a DFA accepting the same strings via subset
// construction (spec §4.1 stage 3, purple dragon book algorithm 3.20). Each
// resulting DFA state's payload is the set of NFA states (with their
// payloads) it was built from, so a caller can resolve which terminal a
// merged accepting state should inherit and detect ambiguous merges.
func (nfa NFA[E]) ToDFA() DFA[cset.SVSet[E]] {
	inputSymbols := nfa.InputSymbols()

	dStart := nfa.EpsilonClosure(nfa.Start)

	marked := cset.NewStringSet()
	dStates := map[string]cset.StringSet{dStart.StringOrdered(): dStart}

	dfa := DFA[cset.SVSet[E]]{states: map[string]DFAState[cset.SVSet[E]]{}}

	for {
		names := cset.StringSetOf(cset.OrderedKeys(dStates))
		unmarked := names.Difference(marked)
		if unmarked.Len() < 1 {
			break
		}

		for _, tName := range unmarked.Elements() {
			T := dStates[tName]
			marked.Add(tName)

			values := cset.NewSVSet[E]()
			for nfaName := range T {
				values.Set(nfaName, nfa.GetValue(nfaName))
			}

			newState := DFAState[cset.SVSet[E]]{name: tName, value: values, transitions: map[string]FATransition{}}
			if T.Any(func(v string) bool { return nfa.states[v].accepting }) {
				newState.accepting = true
			}

			for a := range inputSymbols {
				if a == Epsilon {
					continue
				}

				U := nfa.EpsilonClosureOfSet(nfa.MOVE(T, a))
				if U.Empty() {
					continue
				}
				if !names.Has(U.StringOrdered()) {
					names.Add(U.StringOrdered())
					dStates[U.StringOrdered()] = U
				}
				newState.transitions[a] = FATransition{input: a, next: U.StringOrdered()}
			}

			dfa.states[tName] = newState
			if dfa.Start == "" {
				dfa.Start = tName
			}
		}
	}

	return dfa
}

// InputSymbols returns every input symbol used by some transition, including
// ε when any ε-transition exists.
func (nfa NFA[E]) InputSymbols() cset.StringSet {
	symbols := cset.NewStringSet()
	for sName := range nfa.states {
		for a := range nfa.states[sName].transitions {
			symbols.Add(a)
		}
	}
	return symbols
}

// MOVE returns the set of states reachable with one transition from some
// state in X on input a (purple dragon book, algorithm 3.20, page 153).
func (nfa NFA[E]) MOVE(X cset.ISet[string], a string) cset.StringSet {
	moves := cset.NewStringSet()
	for _, s := range X.Elements() {
		st, ok := nfa.states[s]
		if !ok {
			continue
		}
		for _, t := range st.transitions[a] {
			moves.Add(t.next)
		}
	}
	return moves
}

// EpsilonClosureOfSet is EpsilonClosure extended over a whole set of states.
func (nfa NFA[E]) EpsilonClosureOfSet(X cset.ISet[string]) cset.StringSet {
	all := cset.NewStringSet()
	for _, s := range X.Elements() {
		all.AddAll(nfa.EpsilonClosure(s))
	}
	return all
}

// EpsilonClosure gives the set of states reachable from s using zero or more
// ε-moves.
func (nfa NFA[E]) EpsilonClosure(s string) cset.StringSet {
	stateItem, ok := nfa.states[s]
	if !ok {
		return nil
	}

	closure := cset.NewStringSet()
	checking := cset.Stack[NFAState[E]]{}
	checking.Push(stateItem)

	for checking.Len() > 0 {
		cur := checking.Pop()
		if closure.Has(cur.name) {
			continue
		}
		closure.Add(cur.name)

		for _, move := range cur.transitions[Epsilon] {
			next, ok := nfa.states[move.next]
			if !ok {
				panic(fmt.Sprintf("points to invalid state: %q", move.next))
			}
			checking.Push(next)
		}
	}

	return closure
}

func (nfa NFA[E]) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<START: %q, STATES:", nfa.Start))

	names := cset.OrderedKeys(nfa.states)
	for i, name := range names {
		sb.WriteString("\n\t")
		sb.WriteString(nfa.states[name].String())
		if i+1 < len(names) {
			sb.WriteRune(',')
		} else {
			sb.WriteRune('\n')
		}
	}
	sb.WriteRune('>')
	return sb.String()
}

// NumberStates renames every state to a small increasing integer string,
// with the start state guaranteed to be "0". Used after construction to keep
// automaton dumps and generated table indices stable and compact.
func (nfa *NFA[E]) NumberStates() {
	if _, ok := nfa.states[nfa.Start]; !ok {
		panic("can't number states of NFA with no start state set")
	}

	origNames := cset.OrderedKeys(nfa.States())
	startIdx := -1
	for i, n := range origNames {
		if n == nfa.Start {
			startIdx = i
			break
		}
	}
	origNames = append(origNames[:startIdx], origNames[startIdx+1:]...)
	origNames = append([]string{nfa.Start}, origNames...)

	numMapping := map[string]string{}
	for i, name := range origNames {
		numMapping[name] = fmt.Sprintf("%d", i)
	}

	newNfa := NFA[E]{states: make(map[string]NFAState[E]), Start: numMapping[nfa.Start]}
	for _, name := range origNames {
		st := nfa.states[name]
		newName := numMapping[name]
		newNfa.AddState(newName, st.accepting)
		newNfa.SetValue(newName, st.value)
	}
	for _, name := range origNames {
		st := nfa.states[name]
		from := numMapping[name]
		for sym, trans := range st.transitions {
			for _, t := range trans {
				newNfa.AddTransition(from, sym, numMapping[t.next])
			}
		}
	}

	nfa.states = newNfa.states
	nfa.Start = newNfa.Start
}

func (nfa *NFA[E]) AddState(state string, accepting bool) {
	if _, ok := nfa.states[state]; ok {
		return
	}
	if nfa.states == nil {
		nfa.states = map[string]NFAState[E]{}
	}
	nfa.states[state] = NFAState[E]{name: state, transitions: make(map[string][]FATransition), accepting: accepting}
}

func (nfa *NFA[E]) SetValue(state string, v E) {
	s, ok := nfa.states[state]
	if !ok {
		panic(fmt.Sprintf("setting value on non-existing state: %q", state))
	}
	s.value = v
	nfa.states[state] = s
}

func (nfa *NFA[E]) GetValue(state string) E {
	s, ok := nfa.states[state]
	if !ok {
		panic(fmt.Sprintf("getting value on non-existing state: %q", state))
	}
	return s.value
}

// AddTransition adds an edge fromState --input--> toState. Multiple edges on
// the same input are allowed (that's what makes this non-deterministic);
// input == Epsilon adds an ε-edge.
func (nfa *NFA[E]) AddTransition(fromState string, input string, toState string) {
	curFromState, ok := nfa.states[fromState]
	if !ok {
		panic(fmt.Sprintf("add transition from non-existent state %q", fromState))
	}
	if _, ok := nfa.states[toState]; !ok {
		panic(fmt.Sprintf("add transition to non-existent state %q", toState))
	}

	curFromState.transitions[input] = append(curFromState.transitions[input], FATransition{input: input, next: toState})
	nfa.states[fromState] = curFromState
}
