package automaton

import (
	"testing"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/stretchr/testify/assert"
)

func buildDFA(from map[string][]string, start string, acceptingStates []string) *DFA[string] {
	dfa := &DFA[string]{}

	acceptSet := cset.StringSetOf(acceptingStates)

	for k := range from {
		dfa.AddState(k, acceptSet.Has(k))
		dfa.SetValue(k, k)
	}

	// add transitions AFTER all states are already in or it will cause a panic
	for k := range from {
		for i := range from[k] {
			transition := mustParseFATransition(from[k][i])
			dfa.AddTransition(k, transition.input, transition.next)
		}
	}

	dfa.Start = start

	return dfa
}

func Test_DFA_Next(t *testing.T) {
	dfa := buildDFA(map[string][]string{
		"0": {"=(a)=> 1"},
		"1": {"=(b)=> 2"},
		"2": {},
	}, "0", []string{"2"})

	assert.Equal(t, "1", dfa.Next("0", "a"))
	assert.Equal(t, "2", dfa.Next("1", "b"))
	assert.Equal(t, "", dfa.Next("0", "b"))
	assert.Equal(t, "", dfa.Next("nonexistent", "a"))
}

func Test_DFA_IsAccepting(t *testing.T) {
	dfa := buildDFA(map[string][]string{
		"0": {"=(a)=> 1"},
		"1": {},
	}, "0", []string{"1"})

	assert.False(t, dfa.IsAccepting("0"))
	assert.True(t, dfa.IsAccepting("1"))
	assert.False(t, dfa.IsAccepting("nonexistent"))
}

func Test_DFA_Validate_unreachableState(t *testing.T) {
	dfa := buildDFA(map[string][]string{
		"0": {"=(a)=> 1"},
		"1": {},
		"2": {},
	}, "0", []string{"1"})

	err := dfa.Validate()
	assert.Error(t, err)
}

func Test_DFA_Validate_ok(t *testing.T) {
	dfa := buildDFA(map[string][]string{
		"0": {"=(a)=> 1"},
		"1": {"=(b)=> 0"},
	}, "0", []string{"1"})

	assert.NoError(t, dfa.Validate())
}

func Test_NFA_ToDFA_subsetConstruction(t *testing.T) {
	// (a|b)*abb, the textbook subset-construction example (dragon book 3.20)
	nfa := &NFA[string]{}
	for _, s := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		nfa.AddState(s, s == "10")
	}
	nfa.Start = "0"
	nfa.AddTransition("0", Epsilon, "1")
	nfa.AddTransition("0", Epsilon, "7")
	nfa.AddTransition("1", Epsilon, "2")
	nfa.AddTransition("1", Epsilon, "4")
	nfa.AddTransition("2", "a", "3")
	nfa.AddTransition("4", "b", "5")
	nfa.AddTransition("3", Epsilon, "6")
	nfa.AddTransition("5", Epsilon, "6")
	nfa.AddTransition("6", Epsilon, "1")
	nfa.AddTransition("6", Epsilon, "7")
	nfa.AddTransition("7", "a", "8")
	nfa.AddTransition("8", "b", "9")
	nfa.AddTransition("9", "b", "10")

	dfa := nfa.ToDFA()
	assert.NoError(t, dfa.Validate())

	// the resulting DFA must accept the language (a|b)*abb and reject
	// anything not ending in abb.
	accept := func(input string) bool {
		cur := dfa.Start
		for _, ch := range input {
			cur = dfa.Next(cur, string(ch))
			if cur == "" {
				return false
			}
		}
		return dfa.IsAccepting(cur)
	}

	assert.True(t, accept("abb"))
	assert.True(t, accept("aababb"))
	assert.False(t, accept("abbb"))
	assert.False(t, accept("a"))
}

func Test_NFA_EpsilonClosure(t *testing.T) {
	nfa := &NFA[string]{}
	nfa.AddState("0", false)
	nfa.AddState("1", false)
	nfa.AddState("2", true)
	nfa.Start = "0"
	nfa.AddTransition("0", Epsilon, "1")
	nfa.AddTransition("1", Epsilon, "2")

	closure := nfa.EpsilonClosure("0")
	assert.True(t, closure.Has("0"))
	assert.True(t, closure.Has("1"))
	assert.True(t, closure.Has("2"))
}
