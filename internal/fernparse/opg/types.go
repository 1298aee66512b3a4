// Package opg implements OPG normalization and precedence-table
// construction (spec components F and G, §4.5-§4.6): it rewrites a raw CFG
// into fully-normalized form (no copy rules, no repeated right-hand sides)
// via a powerset-like merge of non-terminals, then computes FIRST_OP/LAST_OP
// and the Left/Right/Equal/None precedence relation the Floyd parser drives
// against. It is grounded on the Rust source this spec distills
// (`original_source/src/grammar/transform.rs`, `opg.rs`), restated in
// idiomatic Go: BTreeSet<Token> becomes cset.KeySet[ids.ID], and the
// HashMap-of-Vec<Token> dictionaries become string-keyed Go maps built from
// a canonical, sorted id encoding so merges stay deterministic.
package opg

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
)

// Rule is one production of the normalized grammar (spec §3 "Rule"). Left
// and every element of Right are final token ids — either an original
// terminal/non-terminal id, or a freshly allocated id representing a merged
// non-terminal set (spec §4.5 step 7).
type Rule struct {
	Left    ids.ID
	Right   []ids.ID
	Nesting [][]int
}

// Grammar is the fully-normalized OPG (spec §4.5 postcondition: every RHS
// unique, no copy rules) plus the precedence table built over it (spec
// §4.6).
type Grammar struct {
	NS          *ids.Namespace
	Rules       []Rule
	NonTerminal []ids.ID
	Axiom       ids.ID
	Delimiter   ids.ID
	Tree        *ReductionTree
	Prec        *PrecedenceTable
}

// reductionNode is one trie node of a ReductionTree (kept identical in
// shape to rgram.ReductionTree; duplicated here rather than shared because
// the raw grammar's reduction tree and the normalized one key different Rule
// types and are built at different pipeline stages).
type reductionNode struct {
	children map[ids.ID]*reductionNode
	rule     *Rule
}

// ReductionTree is the trie keyed by normalized rule right-hand sides (spec
// §3 "Reduction tree", §4.5 postcondition "invertible under the reduction-
// tree trie").
type ReductionTree struct {
	root *reductionNode
}

func newReductionTree() *ReductionTree {
	return &ReductionTree{root: &reductionNode{children: map[ids.ID]*reductionNode{}}}
}

func (rt *ReductionTree) insert(r *Rule) error {
	node := rt.root
	for _, tok := range r.Right {
		child, ok := node.children[tok]
		if !ok {
			child = &reductionNode{children: map[ids.ID]*reductionNode{}}
			node.children[tok] = child
		}
		node = child
	}
	if node.rule != nil {
		return repeatedRHSError(node.rule, r)
	}
	node.rule = r
	return nil
}

// Match returns the rule whose RHS exactly equals window, if any (spec
// §4.7 "Reduction-tree matching").
func (rt *ReductionTree) Match(window []ids.ID) (*Rule, bool) {
	node := rt.root
	for _, tok := range window {
		child, ok := node.children[tok]
		if !ok {
			return nil, false
		}
		node = child
	}
	if node.rule == nil {
		return nil, false
	}
	return node.rule, true
}

// idSetKey returns a canonical, order-independent string key for a set of
// ids, used as a map key wherever a BTreeSet<Token> would be used in the
// Rust source.
func idSetKey(s cset.ISet[ids.ID]) string {
	return keyOf(sortedIDs(s))
}

func keyOf(sorted []ids.ID) string {
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}

func sortedIDs(s cset.ISet[ids.ID]) []ids.ID {
	els := append([]ids.ID(nil), s.Elements()...)
	sort.Slice(els, func(i, j int) bool { return els[i] < els[j] })
	return els
}

// position is the set of original-grammar ids a single normalized RHS slot
// represents: a singleton for an unmerged terminal or non-terminal, or the
// full merged set for a non-terminal slot expanded during step 4.
type position []ids.ID

func positionKey(p position) string {
	sorted := append(position(nil), p...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return keyOf(sorted)
}

func rhsPositionsKey(positions []position) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = positionKey(p)
	}
	return strings.Join(parts, "|")
}
