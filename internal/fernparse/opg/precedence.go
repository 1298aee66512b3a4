package opg

import (
	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
	"github.com/dawid33/fernparse/internal/util"
)

// Relation is one cell of the operator-precedence table (spec §4.6).
type Relation int

const (
	// NoRelation means no rule places the two terminals adjacent to each
	// other (directly or via a single intervening non-terminal); the Floyd
	// parser treats this as a syntax error (spec §7 "None precedence
	// encountered").
	NoRelation Relation = iota
	// Left means the row terminal yields precedence to the column terminal
	// (a <· b): shift.
	Left
	// Right means the row terminal takes precedence over the column
	// terminal (a ·> b): reduce.
	Right
	// Equal means the two terminals appear adjacent in some rule, directly
	// or with one non-terminal between them (a .= b): shift, matching the
	// reduction tree on an equal run.
	Equal
)

func (r Relation) String() string {
	switch r {
	case Left:
		return "<·"
	case Right:
		return "·>"
	case Equal:
		return ".="
	default:
		return "none"
	}
}

// PrecedenceTable is the Left/Right/Equal/None relation between every pair
// of terminals (including the delimiter), computed from FIRST_OP/LAST_OP
// over the normalized grammar (spec §4.6).
type PrecedenceTable struct {
	NS    *ids.Namespace
	table map[[2]ids.ID]Relation
}

// Lookup returns the relation between a (on the left of the comparison) and
// b (on the right), or (NoRelation, false) if the pair never appears
// together in the grammar.
func (t *PrecedenceTable) Lookup(a, b ids.ID) (Relation, bool) {
	rel, ok := t.table[[2]ids.ID{a, b}]
	return rel, ok
}

// buildPrecedenceTable computes FIRST_OP and LAST_OP for every non-terminal
// by fixed-point iteration, then derives the Left/Right/Equal relation for
// every pair of terminals that appear adjacent (directly, or separated by
// exactly one non-terminal) in some rule. A non-terminal heading a
// production is transparent to this scan, so a terminal sitting immediately
// after it belongs to FIRST_OP too (symmetrically for LAST_OP and the
// terminal immediately before a trailing non-terminal) — without this, a
// left-recursive rule like "E -> E PLUS E" never lets PLUS see itself or a
// sibling operator across the recursion. Two terminals receiving
// conflicting relations is a grammar ambiguity (spec §7 "ambiguous
// precedence error naming both terminals"); a flat ambiguous production such
// as "E -> E PLUS E" with no stratification by precedence level will
// legitimately fail this way, since the relation between PLUS and itself is
// both <· and ·> depending on which occurrence of E is substituted.
func buildPrecedenceTable(g *Grammar, terminals cset.KeySet[ids.ID]) (*PrecedenceTable, error) {
	byLHS := map[ids.ID][]*Rule{}
	for i := range g.Rules {
		byLHS[g.Rules[i].Left] = append(byLHS[g.Rules[i].Left], &g.Rules[i])
	}

	first := map[ids.ID]cset.KeySet[ids.ID]{}
	last := map[ids.ID]cset.KeySet[ids.ID]{}
	for _, nt := range g.NonTerminal {
		first[nt] = cset.NewKeySet[ids.ID]()
		last[nt] = cset.NewKeySet[ids.ID]()
	}

	// add registers b into dst if not already present, reporting growth.
	add := func(dst cset.KeySet[ids.ID], b ids.ID) bool {
		if dst.Has(b) {
			return false
		}
		dst.Add(b)
		return true
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range g.NonTerminal {
			for _, r := range byLHS[nt] {
				n := len(r.Right)
				if n == 0 {
					continue
				}
				head := r.Right[0]
				if terminals.Has(head) {
					if add(first[nt], head) {
						changed = true
					}
				} else {
					before := first[nt].Len()
					first[nt].AddAll(first[head])
					if first[nt].Len() > before {
						changed = true
					}
					// A terminal directly after a leading non-terminal is
					// reachable too: the non-terminal is transparent to
					// precedence comparisons, so the scan can land on this
					// terminal without descending into head's own expansion.
					if n >= 2 && terminals.Has(r.Right[1]) {
						if add(first[nt], r.Right[1]) {
							changed = true
						}
					}
				}

				tail := r.Right[n-1]
				if terminals.Has(tail) {
					if add(last[nt], tail) {
						changed = true
					}
				} else {
					before := last[nt].Len()
					last[nt].AddAll(last[tail])
					if last[nt].Len() > before {
						changed = true
					}
					if n >= 2 && terminals.Has(r.Right[n-2]) {
						if add(last[nt], r.Right[n-2]) {
							changed = true
						}
					}
				}
			}
		}
	}

	table := map[[2]ids.ID]Relation{}
	setRel := func(a, b ids.ID, rel Relation) error {
		key := [2]ids.ID{a, b}
		if existing, ok := table[key]; ok && existing != rel {
			names := util.MakeTextList([]string{g.NS.Name(a), g.NS.Name(b)})
			return synerr.Grammar("ambiguous operator precedence between %s: both %s and %s apply", names, existing, rel)
		}
		table[key] = rel
		return nil
	}

	for ri := range g.Rules {
		rhs := g.Rules[ri].Right
		for i, tok := range rhs {
			if !terminals.Has(tok) {
				continue
			}
			if i+1 < len(rhs) {
				next := rhs[i+1]
				if terminals.Has(next) {
					if err := setRel(tok, next, Equal); err != nil {
						return nil, err
					}
				} else {
					for _, b := range first[next].Elements() {
						if err := setRel(tok, b, Left); err != nil {
							return nil, err
						}
					}
				}
			}
			if i+2 < len(rhs) && !terminals.Has(rhs[i+1]) && terminals.Has(rhs[i+2]) {
				if err := setRel(tok, rhs[i+2], Equal); err != nil {
					return nil, err
				}
			}
			if i > 0 {
				prev := rhs[i-1]
				if !terminals.Has(prev) {
					for _, c := range last[prev].Elements() {
						if err := setRel(c, tok, Right); err != nil {
							return nil, err
						}
					}
				}
			}
		}
	}

	// The delimiter relates to every terminal as Right in both directions,
	// and to itself as Equal (spec §3 data model; original_source's
	// grammar/opg.rs:763-777 builds the row/column the same way). The
	// parser never actually consults the delimiter row — it bootstraps a
	// shift before anything has been pushed, same as the original's
	// empty-stack special case — but the table is a public §6 interface and
	// must hold these values regardless of how the parser happens to use it.
	delim := g.Delimiter
	for _, t := range terminals.Elements() {
		if err := setRel(delim, t, Right); err != nil {
			return nil, err
		}
		if err := setRel(t, delim, Right); err != nil {
			return nil, err
		}
	}
	if err := setRel(delim, delim, Equal); err != nil {
		return nil, err
	}

	return &PrecedenceTable{NS: g.NS, table: table}, nil
}
