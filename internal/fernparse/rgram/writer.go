package rgram

import (
	"fmt"

	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/util"
)

// Write serializes g back to `.g` source text (the supplemented "grammar
// round-trip writer" feature, spec §3: re-parsing the output of Write must
// produce an equivalent Grammar). It builds the text with
// util.UndoableStringBuilder the way tunaq assembles other generated,
// section-structured text; separators are written before each list item
// after the first, and nothing is undone.
func Write(g *Grammar) string {
	var sb util.UndoableStringBuilder

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

	writeNameList("%terminal", g.Terminals)
	writeNameList("%nonterminal", g.NonTerminals)
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
			writeAlt(&sb, g.NS, r)
		}
		sb.WriteString(" ;\n")
	}

	return sb.String()
}

func writeAlt(sb *util.UndoableStringBuilder, ns *ids.Namespace, r *Rule) {
	for i, tok := range r.Right {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(ns.Name(tok))
		if nest := r.Nesting[i]; !(len(nest) == 1 && nest[0] == -1) {
			for _, n := range nest {
				sb.WriteString(fmt.Sprintf(".%d", n))
			}
		}
	}
}
