// Package ids implements the single global token-identifier namespace shared
// by the lexer and the parser (spec §3 "Data Model"): terminals and
// non-terminals are drawn from disjoint subsets of one integer space, and a
// distinguished delimiter token marks stream boundaries.
package ids

import "fmt"

// ID is a token identifier. Terminals and non-terminals each occupy their own
// contiguous range so that IsTerminal is a cheap comparison rather than a map
// lookup.
type ID int

// Invalid is returned by lookups that find nothing.
const Invalid ID = -1

// Namespace allocates and names tokens. It is built once (during lexical- and
// parsing-grammar compilation) and then shared read-only, matching the
// "grammars are built once, then shared read-only across workers" lifecycle
// from spec §3.
type Namespace struct {
	names    []string
	terminal []bool
	byName   map[string]ID
	delim    ID
	axiom    ID
}

// NewNamespace returns an empty namespace with its delimiter token already
// allocated as terminal 0 — the delimiter always exists, per spec §4.5 step 8
// and §4.6's precedence-table construction, which needs it before any user
// grammar has been read.
func NewNamespace() *Namespace {
	ns := &Namespace{
		byName: map[string]ID{},
		axiom:  Invalid,
	}
	ns.delim = ns.NewTerminal("$")
	return ns
}

// NewTerminal allocates a fresh terminal ID for name. If name is already
// registered (as a terminal or a non-terminal), the existing ID is returned
// instead (the LG/raw
// grammar synchronization step in spec §4.4 relies on this idempotence).
func (ns *Namespace) NewTerminal(name string) ID {
	if id, ok := ns.byName[name]; ok {
		return id
	}
	id := ID(len(ns.names))
	ns.names = append(ns.names, name)
	ns.terminal = append(ns.terminal, true)
	ns.byName[name] = id
	return id
}

// NewNonTerminal allocates a fresh non-terminal ID for name. If name is
// already registered (as any kind of token), the existing ID is returned.
func (ns *Namespace) NewNonTerminal(name string) ID {
	if id, ok := ns.byName[name]; ok {
		return id
	}
	id := ID(len(ns.names))
	ns.names = append(ns.names, name)
	ns.terminal = append(ns.terminal, false)
	ns.byName[name] = id
	return id
}

// Lookup returns the ID registered under name, or (Invalid, false).
func (ns *Namespace) Lookup(name string) (ID, bool) {
	id, ok := ns.byName[name]
	if !ok {
		return Invalid, false
	}
	return id, true
}

// Name returns the printable name of id. Panics on an id this namespace never
// allocated — that is always a caller bug, not a user-facing error.
func (ns *Namespace) Name(id ID) string {
	if int(id) < 0 || int(id) >= len(ns.names) {
		panic(fmt.Sprintf("ids: no such token id %d", id))
	}
	return ns.names[id]
}

// IsTerminal reports whether id was allocated by NewTerminal.
func (ns *Namespace) IsTerminal(id ID) bool {
	return ns.terminal[id]
}

// Delimiter returns the synthetic end-of-stream terminal (spec §3, §4.5 step
// 8, §4.6).
func (ns *Namespace) Delimiter() ID {
	return ns.delim
}

// SetAxiom records the grammar's start (or, after OPG normalization, the
// fresh S' axiom from spec §4.5 step 6).
func (ns *Namespace) SetAxiom(id ID) {
	ns.axiom = id
}

// Axiom returns the grammar's start symbol ID, or Invalid if none has been
// set yet.
func (ns *Namespace) Axiom() ID {
	return ns.axiom
}

// Terminals returns every terminal ID in allocation order.
func (ns *Namespace) Terminals() []ID {
	var out []ID
	for i, isTerm := range ns.terminal {
		if isTerm {
			out = append(out, ID(i))
		}
	}
	return out
}

// NonTerminals returns every non-terminal ID in allocation order.
func (ns *Namespace) NonTerminals() []ID {
	var out []ID
	for i, isTerm := range ns.terminal {
		if !isTerm {
			out = append(out, ID(i))
		}
	}
	return out
}

// Len returns the total number of IDs allocated, terminal and non-terminal.
func (ns *Namespace) Len() int {
	return len(ns.names)
}
