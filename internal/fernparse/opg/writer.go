package opg

import (
	"fmt"
	"io"
	"sort"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/util"
)

// WriteTo serializes the normalized grammar back to `.g` source text (spec
// §3's "convenience serializer", `src/grammar/printing.rs` in
// `original_source/`). It satisfies io.WriterTo the way tunaq's config and
// save-data types do, so a normalized grammar can be handed straight to
// os.Stdout or a file. Re-parsing the output through rgram.Parse yields the
// same rules under the same names, with the fresh axiom as the axiom.
// Normalizing that again is not a no-op: the fresh axiom's single-symbol
// rules read back as copy rules, and another fresh axiom with a new name is
// introduced.
func (g *Grammar) WriteTo(w io.Writer) (int64, error) {
	var sb util.UndoableStringBuilder

	nonTerminal := map[ids.ID]bool{}
	for _, nt := range g.NonTerminal {
		nonTerminal[nt] = true
	}

	terminalSet := map[ids.ID]bool{}
	for _, r := range g.Rules {
		for _, tok := range r.Right {
			if !nonTerminal[tok] {
				terminalSet[tok] = true
			}
		}
	}
	terminals := make([]ids.ID, 0, len(terminalSet))
	for id := range terminalSet {
		terminals = append(terminals, id)
	}
	sort.Slice(terminals, func(i, j int) bool { return terminals[i] < terminals[j] })

	writeNameList := func(directive string, idList []ids.ID) {
		if len(idList) == 0 {
			return
		}
		sb.WriteString(directive)
		for _, id := range idList {
			sb.WriteByte(' ')
			sb.WriteString(g.NS.Name(id))
		}
		sb.WriteByte('\n')
	}

	writeNameList("%terminal", terminals)
	writeNameList("%nonterminal", g.NonTerminal)
	sb.WriteString("%axiom ")
	sb.WriteString(g.NS.Name(g.Axiom))
	sb.WriteByte('\n')
	sb.WriteString("%%\n")

	byLHS := map[ids.ID][]*Rule{}
	var order []ids.ID
	seen := map[ids.ID]bool{}
	for i := range g.Rules {
		r := &g.Rules[i]
		if !seen[r.Left] {
			seen[r.Left] = true
			order = append(order, r.Left)
		}
		byLHS[r.Left] = append(byLHS[r.Left], r)
	}

	for _, lhs := range order {
		sb.WriteString(g.NS.Name(lhs))
		sb.WriteString(" : ")
		for i, r := range byLHS[lhs] {
			if i > 0 {
				sb.WriteString("\n    | ")
			}
			writeRuleAlt(&sb, g.NS, r)
		}
		sb.WriteString(" ;\n")
	}

	out := sb.String()
	n, err := io.WriteString(w, out)
	return int64(n), err
}

func writeRuleAlt(sb *util.UndoableStringBuilder, ns *ids.Namespace, r *Rule) {
	for i, tok := range r.Right {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(ns.Name(tok))
		if i < len(r.Nesting) {
			if nest := r.Nesting[i]; !(len(nest) == 1 && nest[0] == -1) {
				for _, n := range nest {
					sb.WriteString(fmt.Sprintf(".%d", n))
				}
			}
		}
	}
}
