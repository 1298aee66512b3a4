package opg

import (
	"sort"
	"strings"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/rgram"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
)

func repeatedRHSError(existing, incoming *Rule) error {
	return synerr.Grammar("repeated right-hand side survived normalization (rules producing %v and %v)",
		existing.Right, incoming.Right)
}

// dictEntry is one distinct original RHS and the set of LHS ids that
// directly produce it via a non-copy rule (transform.rs's `dict_rules`
// before the copy-rule closure is folded in).
type dictEntry struct {
	rhs []ids.ID
	lhs cset.KeySet[ids.ID]
}

// iterEntry accumulates, for one substituted RHS discovered during the
// powerset expansion, the union of every original LHS-set that produced it
// (transform.rs's `dict_rules_for_iteration`).
type iterEntry struct {
	positions []position
	lhs       cset.KeySet[ids.ID]
}

func isCopyRule(r rgram.Rule, nonTerminals cset.KeySet[ids.ID]) bool {
	return len(r.Right) == 1 && nonTerminals.Has(r.Right[0])
}

func isPureTerminalRHS(rhs []ids.ID, nonTerminals cset.KeySet[ids.ID]) bool {
	for _, t := range rhs {
		if nonTerminals.Has(t) {
			return false
		}
	}
	return true
}

func rhsIDKey(rhs []ids.ID) string {
	parts := make([]string, len(rhs))
	for i, id := range rhs {
		parts[i] = keyOf([]ids.ID{id})
	}
	return strings.Join(parts, ",")
}

// Normalize rewrites a raw grammar into OPG-normalized form: copy rules are
// eliminated, non-terminals reachable from one another purely through copy
// rules are merged into fresh composite symbols, and the resulting grammar
// has no two rules sharing a right-hand side (spec §4.5, "the hardest
// step"). It is a direct port of
// `original_source/src/grammar/transform.rs`'s `RawGrammar::delete_repeated_rhs`,
// restated over `cset.KeySet[ids.ID]` in place of Rust's `BTreeSet<Token>`.
func Normalize(g *rgram.Grammar) (*Grammar, error) {
	ns := g.NS
	nonTerminals := cset.KeySetOf(g.NonTerminals)
	terminals := cset.KeySetOf(g.Terminals)

	dictRules := map[string]*dictEntry{}
	rhsDict := map[ids.ID][][]ids.ID{}
	copySet := map[ids.ID]cset.KeySet[ids.ID]{}
	ruleByRHSKey := map[string]*rgram.Rule{}
	for _, nt := range g.NonTerminals {
		copySet[nt] = cset.NewKeySet[ids.ID]()
	}

	for i := range g.Rules {
		r := &g.Rules[i]
		if isCopyRule(*r, nonTerminals) {
			copySet[r.Left].Add(r.Right[0])
			continue
		}
		key := rhsIDKey(r.Right)
		rhsDict[r.Left] = append(rhsDict[r.Left], r.Right)
		entry, ok := dictRules[key]
		if !ok {
			entry = &dictEntry{rhs: r.Right, lhs: cset.NewKeySet[ids.ID]()}
			dictRules[key] = entry
		}
		entry.lhs.Add(r.Left)
		if _, exists := ruleByRHSKey[key]; !exists {
			ruleByRHSKey[key] = r
		}
	}

	// Transitive closure of the copy relation (spec §4.5 step 2).
	changed := true
	for changed {
		changed = false
		for nt, reach := range copySet {
			before := reach.Len()
			for _, r := range reach.Elements() {
				reach.AddAll(copySet[r])
			}
			if reach.Len() > before {
				changed = true
			}
			copySet[nt] = reach
		}
	}

	// Fold the copy closure into dict_rules: any non-terminal that reaches
	// another purely through copy rules also directly produces everything
	// that non-terminal produces (spec §4.5 step 3).
	for nt, reach := range copySet {
		for _, other := range reach.Elements() {
			for _, rhs := range rhsDict[other] {
				if entry, ok := dictRules[rhsIDKey(rhs)]; ok {
					entry.lhs.Add(nt)
				}
			}
		}
	}

	// Seed V with the LHS-set of every distinct original RHS, before
	// partitioning into terminal-only vs. mixed productions.
	v := map[string]cset.KeySet[ids.ID]{}
	for _, entry := range dictRules {
		v[idSetKey(entry.lhs)] = entry.lhs
	}

	newDictRules := map[string]*iterEntry{}
	var mixed []*dictEntry
	for _, entry := range dictRules {
		if isPureTerminalRHS(entry.rhs, nonTerminals) {
			positions := make([]position, len(entry.rhs))
			for i, t := range entry.rhs {
				positions[i] = position{t}
			}
			key := rhsPositionsKey(positions)
			newDictRules[key] = &iterEntry{positions: positions, lhs: entry.lhs.Copy().(cset.KeySet[ids.ID])}
		} else {
			mixed = append(mixed, entry)
		}
	}

	// dictRulesForIteration accumulates across every outer round (it is
	// never reset): a substitution discovered in an earlier round, re-keyed
	// the same way in a later round, keeps merging its contributing LHS-sets
	// rather than starting over.
	dictRulesForIteration := map[string]*iterEntry{}

	var addNewRules func(rhs []ids.ID, lhs cset.KeySet[ids.ID], idx int, acc []position)
	addNewRules = func(rhs []ids.ID, lhs cset.KeySet[ids.ID], idx int, acc []position) {
		if idx == len(rhs) {
			key := rhsPositionsKey(acc)
			entry, ok := dictRulesForIteration[key]
			if !ok {
				entry = &iterEntry{positions: append([]position(nil), acc...), lhs: cset.NewKeySet[ids.ID]()}
				dictRulesForIteration[key] = entry
			}
			entry.lhs.AddAll(lhs)
			return
		}
		tok := rhs[idx]
		if nonTerminals.Has(tok) {
			for _, memberSet := range v {
				if memberSet.Has(tok) {
					addNewRules(rhs, lhs, idx+1, append(acc, position(sortedIDs(memberSet))))
				}
			}
		} else {
			addNewRules(rhs, lhs, idx+1, append(acc, position{tok}))
		}
	}

	for {
		for _, entry := range mixed {
			addNewRules(entry.rhs, entry.lhs, 0, nil)
		}

		difference := map[string]cset.KeySet[ids.ID]{}
		for _, e := range dictRulesForIteration {
			k := idSetKey(e.lhs)
			if _, exists := v[k]; !exists {
				difference[k] = e.lhs
			}
		}
		for k, s := range difference {
			v[k] = s
		}
		for key, e := range dictRulesForIteration {
			newDictRules[key] = e
		}
		if len(difference) == 0 {
			break
		}
	}

	// Prune (spec §4.5 step 5): a rule survives only if every non-terminal
	// slot in its RHS is itself a member of the final V.
	recomputeV := func() map[string]cset.KeySet[ids.ID] {
		nv := map[string]cset.KeySet[ids.ID]{}
		for _, e := range newDictRules {
			nv[idSetKey(e.lhs)] = e.lhs
		}
		return nv
	}
	v = recomputeV()
	for {
		var toDelete []string
		for key, e := range newDictRules {
			ok := true
			for _, p := range e.positions {
				if isTerminalPosition(p, terminals) {
					continue
				}
				if _, exists := v[positionKey(p)]; !exists {
					ok = false
					break
				}
			}
			if !ok {
				toDelete = append(toDelete, key)
			}
		}
		if len(toDelete) == 0 {
			break
		}
		for _, key := range toDelete {
			delete(newDictRules, key)
		}
		v = recomputeV()
	}

	// Fresh axiom (spec §4.5 step 6): add S' -> X for every merged set X
	// still containing the old axiom.
	freshAxiomName := uniqueName(ns, "_axiom")
	freshAxiom := ns.NewNonTerminal(freshAxiomName)
	for _, s := range v {
		if s.Has(g.Axiom) {
			positions := []position{position(sortedIDs(s))}
			key := rhsPositionsKey(positions)
			newDictRules[key] = &iterEntry{positions: positions, lhs: cset.KeySetOf([]ids.ID{freshAxiom})}
		}
	}
	v[idSetKey(cset.KeySetOf([]ids.ID{freshAxiom}))] = cset.KeySetOf([]ids.ID{freshAxiom})

	finalID := func(s cset.KeySet[ids.ID]) ids.ID {
		if s.Len() == 1 {
			return s.Elements()[0]
		}
		members := sortedIDs(s)
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = ns.Name(m)
		}
		sort.Strings(names)
		return ns.NewNonTerminal(strings.Join(names, "__"))
	}

	tree := newReductionTree()
	var rules []Rule
	var normalNonTerminals []ids.ID
	seenNT := cset.NewKeySet[ids.ID]()
	for _, e := range newDictRules {
		lhsID := finalID(e.lhs)
		right := make([]ids.ID, len(e.positions))
		for i, p := range e.positions {
			right[i] = finalID(cset.KeySetOf(p))
		}
		nesting := defaultNesting(len(right))
		if orig, ok := ruleByRHSKey[rhsIDKey(rightAsOriginal(e.positions))]; ok && len(orig.Nesting) == len(right) {
			nesting = orig.Nesting
		}
		r := Rule{Left: lhsID, Right: right, Nesting: nesting}
		rules = append(rules, r)
		if !seenNT.Has(lhsID) {
			seenNT.Add(lhsID)
			normalNonTerminals = append(normalNonTerminals, lhsID)
		}
	}
	for i := range rules {
		if err := tree.insert(&rules[i]); err != nil {
			return nil, err
		}
	}

	ns.SetAxiom(freshAxiom)

	out := &Grammar{
		NS:          ns,
		Rules:       rules,
		NonTerminal: normalNonTerminals,
		Axiom:       freshAxiom,
		Delimiter:   ns.Delimiter(),
		Tree:        tree,
	}
	prec, err := buildPrecedenceTable(out, terminals)
	if err != nil {
		return nil, err
	}
	out.Prec = prec
	return out, nil
}

// rightAsOriginal recovers the plain id sequence a []position represents
// when every position is a singleton, which is the only shape that can
// still correspond 1:1 with an original rule's RHS (a purely terminal
// production untouched by the powerset expansion). Positions with more than
// one member can never match an original rule this way, so the zero value
// (a key nothing in ruleByRHSKey can match) is returned instead.
func rightAsOriginal(positions []position) []ids.ID {
	out := make([]ids.ID, len(positions))
	for i, p := range positions {
		if len(p) != 1 {
			return nil
		}
		out[i] = p[0]
	}
	return out
}

func defaultNesting(n int) [][]int {
	nesting := make([][]int, n)
	for i := range nesting {
		nesting[i] = []int{-1}
	}
	return nesting
}

func isTerminalPosition(p position, terminals cset.KeySet[ids.ID]) bool {
	for _, t := range p {
		if terminals.Has(t) {
			return true
		}
	}
	return false
}

// uniqueName returns name, or name with an underscore appended repeatedly
// until it no longer collides with an existing namespace entry.
func uniqueName(ns *ids.Namespace, name string) string {
	for {
		if _, ok := ns.Lookup(name); !ok {
			return name
		}
		name = name + "_"
	}
}
