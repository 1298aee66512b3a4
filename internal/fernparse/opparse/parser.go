// Package opparse implements the Floyd operator-precedence shift-reduce
// parser (spec component H, §4.7): a stack machine driven entirely by the
// Left/Right/Equal/None relation from opg.PrecedenceTable, with handles
// identified by scanning down the stack for the nearest Left boundary and
// matched against opg.Grammar's reduction tree. It is grounded on tunaq's
// ictiobus LR-style parser shape (an explicit symbol/value stack, external
// token stream, building *types.ParseTree nodes on reduction) adapted to
// precedence-driven (rather than table-driven LR) shift/reduce decisions,
// since ictiobus itself has no operator-precedence parser to imitate
// directly.
package opparse

import (
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/opg"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
	"github.com/dawid33/fernparse/internal/fernparse/types"
)

// stackEntry is one symbol on the parser's stack: either a shifted terminal
// (leaf tree) or a previously-reduced non-terminal (subtree).
type stackEntry struct {
	id   ids.ID
	tree *types.ParseTree
}

// Parse drives the shift-reduce stack machine over stream until it reduces
// to a single node of g.Axiom, or returns a ParserError (spec §7: "None
// precedence encountered", "stack underflow on reduction", "end of input
// before axiom").
func Parse(g *opg.Grammar, stream types.TokenStream) (*types.ParseTree, error) {
	stack := []stackEntry{{id: g.Delimiter}}

	next := stream.Next()
	tokenIndex := 0

	nextID := func() ids.ID {
		if next == nil {
			return g.Delimiter
		}
		return next.Class().ID()
	}

	advance := func() {
		tokenIndex++
		next = stream.Next()
	}

	shift := func(b ids.ID) {
		leaf := &types.ParseTree{Terminal: true, TokenID: b, Name: next.Class().Human()}
		if p := next.Payload(); p != nil {
			leaf.Payload = p
		} else {
			leaf.Payload = &types.Payload{Text: next.Lexeme(), TokenIndex: tokenIndex}
		}
		stack = append(stack, stackEntry{id: b, tree: leaf})
		advance()
	}

	for {
		topIdx := topmostTerminal(stack, g.NS)
		if topIdx < 0 {
			return nil, synerr.Parser("parser stack has no terminal to compare precedence against")
		}
		a := stack[topIdx].id
		b := nextID()

		if a == g.Delimiter {
			if b == g.Delimiter {
				// Input is exhausted: a lone non-terminal left on the
				// delimiter reduces through the fresh axiom's S' -> X rule.
				if len(stack) == 2 && stack[1].id != g.Axiom {
					if rule, ok := g.Tree.Match([]ids.ID{stack[1].id}); ok && rule.Left == g.Axiom {
						reduced, err := reduce(g, &stack)
						if err != nil {
							return nil, err
						}
						stack = append(stack, *reduced)
						continue
					}
				}
				break
			}
			// Nothing real sits below the sentinel yet (either this is the
			// very first token, or every prior token has already reduced
			// down to a subtree sitting on top of the delimiter): shift
			// unconditionally, the same bootstrap the original parser gets
			// for free by never pushing its delimiter onto the stack at
			// all. The table's delimiter row (spec §3) is Right throughout
			// and isn't meant to be consulted here.
			shift(b)
			continue
		}

		rel, ok := g.Prec.Lookup(a, b)
		if !ok {
			return nil, synerr.Parser("no precedence relation between %q and %q", g.NS.Name(a), g.NS.Name(b))
		}

		switch rel {
		case opg.Left, opg.Equal:
			shift(b)
		case opg.Right:
			reduced, err := reduce(g, &stack)
			if err != nil {
				return nil, err
			}
			stack = append(stack, *reduced)
		default:
			return nil, synerr.Parser("undefined precedence relation between %q and %q", g.NS.Name(a), g.NS.Name(b))
		}
	}

	if len(stack) != 2 || stack[1].id != g.Axiom {
		return nil, synerr.Parser("input did not reduce to a single %q", g.NS.Name(g.Axiom))
	}
	return stack[1].tree, nil
}

// topmostTerminal returns the index of the highest stack entry whose symbol
// is a terminal, or -1 if the stack holds none (should never happen: the
// delimiter at index 0 is always a terminal).
func topmostTerminal(stack []stackEntry, ns *ids.Namespace) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if ns.IsTerminal(stack[i].id) {
			return i
		}
	}
	return -1
}

// reduce pops the handle off the top of *stack — found by popping down until
// the newly-exposed topmost terminal has a Left relation to the last
// terminal popped, or is the delimiter, then also taking a non-terminal left
// directly below that point — and matches it against g.Tree,
// replacing it with the resulting non-terminal (spec §4.7 "Reduction-tree
// matching"). The delimiter itself is never part of a handle: the table's
// delimiter row is Right throughout (spec §3), so it can't serve as this
// loop's Left boundary the way a real operator can; exposing it just means
// the handle bottoms out at the floor of the stack.
func reduce(g *opg.Grammar, stack *[]stackEntry) (*stackEntry, error) {
	s := *stack
	var handle []stackEntry
	lastPoppedTerminal := ids.Invalid

	for {
		if len(s) == 0 {
			return nil, synerr.Parser("stack underflow while reducing")
		}
		top := s[len(s)-1]
		s = s[:len(s)-1]
		handle = append([]stackEntry{top}, handle...)

		if g.NS.IsTerminal(top.id) {
			lastPoppedTerminal = top.id
		}

		newTopIdx := topmostTerminal(s, g.NS)
		if newTopIdx < 0 {
			break
		}
		if s[newTopIdx].id == g.Delimiter {
			break
		}
		if lastPoppedTerminal == ids.Invalid {
			continue
		}
		rel, ok := g.Prec.Lookup(s[newTopIdx].id, lastPoppedTerminal)
		if ok && rel == opg.Left {
			break
		}
	}
	// A non-terminal directly below the handle's leftmost terminal is part
	// of the handle.
	if len(s) > 0 && !g.NS.IsTerminal(s[len(s)-1].id) {
		handle = append([]stackEntry{s[len(s)-1]}, handle...)
		s = s[:len(s)-1]
	}

	window := make([]ids.ID, len(handle))
	for i, e := range handle {
		window[i] = e.id
	}
	rule, ok := g.Tree.Match(window)
	if !ok {
		names := make([]string, len(window))
		for i, id := range window {
			names[i] = g.NS.Name(id)
		}
		return nil, synerr.Parser("no rule reduces handle %v", names)
	}

	children := make([]*types.ParseTree, len(handle))
	for i, e := range handle {
		children[i] = e.tree
	}
	node := &types.ParseTree{
		Terminal: false,
		TokenID:  rule.Left,
		Name:     g.NS.Name(rule.Left),
		Children: children,
	}

	*stack = s
	return &stackEntry{id: rule.Left, tree: node}, nil
}
