// Package rgram implements the raw grammar parser (spec component E, §4.4):
// it reads a `.g` context-free-grammar source (declarations section, `%%`,
// rules section), resolves every symbol against the shared ids.Namespace
// (synchronizing terminal names with whatever a lexical-grammar compilation
// already registered), and builds the reduction-tree trie used to identify
// which rule a parser handle matches.
package rgram

import (
	"strconv"
	"strings"

	"github.com/dawid33/fernparse/internal/fernparse/cset"
	"github.com/dawid33/fernparse/internal/fernparse/ids"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
)

// Rule is one production (spec §3 "Rule"): a left-hand side token, an
// ordered right-hand side, and one nesting annotation per RHS position. The
// nesting field is opaque metadata for downstream AST reducers; rgram and
// everything built on top of it preserve it verbatim.
type Rule struct {
	Left    ids.ID
	Right   []ids.ID
	Nesting [][]int
}

// reductionNode is one trie node of a ReductionTree, keyed by RHS symbol.
type reductionNode struct {
	children map[ids.ID]*reductionNode
	rule     *Rule
}

// ReductionTree is a trie keyed by rule right-hand sides (spec §3 "Reduction
// tree"). Matching a stack window against it yields at most one rule;
// inserting two rules with the same RHS (a repeated RHS) is rejected.
type ReductionTree struct {
	root *reductionNode
}

func newReductionTree() *ReductionTree {
	return &ReductionTree{root: &reductionNode{children: map[ids.ID]*reductionNode{}}}
}

// Insert adds r to the tree, keyed by r.Right. It fails if another rule
// already occupies that RHS (spec §3: "if several rules share an RHS ...
// the grammar is rejected").
func (rt *ReductionTree) Insert(r *Rule, ns *ids.Namespace) error {
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
		return synerr.Grammar("repeated right-hand side: rules %q and %q both produce %q",
			ns.Name(node.rule.Left), ns.Name(r.Left), rhsString(r.Right, ns))
	}
	node.rule = r
	return nil
}

// Match returns the rule whose RHS exactly equals window, if any.
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

func rhsString(rhs []ids.ID, ns *ids.Namespace) string {
	names := make([]string, len(rhs))
	for i, id := range rhs {
		names[i] = ns.Name(id)
	}
	return strings.Join(names, " ")
}

// Grammar is a compiled `.g` source: its rules, partitioned terminal/
// non-terminal sets, axiom, and reduction tree.
type Grammar struct {
	NS           *ids.Namespace
	Rules        []Rule
	Terminals    []ids.ID
	NonTerminals []ids.ID
	Axiom        ids.ID
	Tree         *ReductionTree
}

type parser struct {
	toks []rawTok
	pos  int
}

func (p *parser) peek() (rawTok, bool) {
	if p.pos >= len(p.toks) {
		return rawTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) advance() (rawTok, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) expect(kind tokKind, what string) (rawTok, error) {
	t, ok := p.peek()
	if !ok {
		return rawTok{}, synerr.Grammar("unexpected end of grammar source, expected %s", what)
	}
	if t.kind != kind {
		return rawTok{}, synerr.GrammarAt(t.line, t.linePos, "expected %s, found %q", what, t.text)
	}
	p.advance()
	return t, nil
}

// Parse compiles `.g` source text into a Grammar (spec §4.4). Declared
// terminal names are registered against ns idempotently, so a name already
// allocated by a prior lexical-grammar compilation keeps its existing id
// (spec §4.4 "synchronization step").
func Parse(src string, ns *ids.Namespace) (*Grammar, error) {
	toks, err := scanAll(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}

	var terminalNames, nonTerminalNames []string
	var axiomName string
	axiomSeen := false

	for {
		t, ok := p.peek()
		if !ok {
			return nil, synerr.Grammar("grammar source ended before '%%' rules separator")
		}
		if t.kind == tokSection {
			p.advance()
			break
		}
		if t.kind != tokDirective {
			return nil, synerr.GrammarAt(t.line, t.linePos, "expected a '%%terminal'/'%%nonterminal'/'%%axiom' directive, found %q", t.text)
		}
		p.advance()

		switch t.text {
		case "%terminal":
			names, err := p.scanNameList()
			if err != nil {
				return nil, err
			}
			terminalNames = append(terminalNames, names...)
		case "%nonterminal":
			names, err := p.scanNameList()
			if err != nil {
				return nil, err
			}
			nonTerminalNames = append(nonTerminalNames, names...)
		case "%axiom":
			nt, ok := p.advance()
			if !ok || nt.kind != tokIdent {
				return nil, synerr.GrammarAt(t.line, t.linePos, "%%axiom requires exactly one non-terminal name")
			}
			axiomName = nt.text
			axiomSeen = true
		default:
			return nil, synerr.GrammarAt(t.line, t.linePos, "unknown directive %q", t.text)
		}
	}

	if !axiomSeen {
		return nil, synerr.Grammar("grammar source has no '%%axiom' declaration")
	}
	if len(nonTerminalNames) == 0 {
		return nil, synerr.Grammar("grammar source declares no non-terminals")
	}

	for _, name := range terminalNames {
		ns.NewTerminal(name)
	}
	for _, name := range nonTerminalNames {
		ns.NewNonTerminal(name)
	}

	axiomID, ok := ns.Lookup(axiomName)
	if !ok {
		return nil, synerr.Grammar("axiom %q was not declared as a non-terminal", axiomName)
	}
	ns.SetAxiom(axiomID)

	rules, err := p.parseRules(ns)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, synerr.Grammar("grammar source defines no rules")
	}

	tree := newReductionTree()
	for i := range rules {
		if err := tree.Insert(&rules[i], ns); err != nil {
			return nil, err
		}
	}

	g := &Grammar{
		NS:           ns,
		Rules:        rules,
		Terminals:    idsOf(terminalNames, ns),
		NonTerminals: idsOf(nonTerminalNames, ns),
		Axiom:        axiomID,
		Tree:         tree,
	}
	return g, nil
}

func idsOf(names []string, ns *ids.Namespace) []ids.ID {
	out := make([]ids.ID, 0, len(names))
	seen := cset.NewKeySet[ids.ID]()
	for _, n := range names {
		id, ok := ns.Lookup(n)
		if !ok || seen.Has(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}

// scanNameList reads identifiers until the next directive or section marker,
// for `%terminal`/`%nonterminal` declaration lines that may list many names.
func (p *parser) scanNameList() ([]string, error) {
	var names []string
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokIdent {
			break
		}
		names = append(names, t.text)
		p.advance()
	}
	if len(names) == 0 {
		return nil, synerr.Grammar("directive requires at least one name")
	}
	return names, nil
}

// parseRules reads `LHS : RHS_ALT1 | RHS_ALT2 ... ;` blocks until EOF (spec
// §6 "Rules").
func (p *parser) parseRules(ns *ids.Namespace) ([]Rule, error) {
	var rules []Rule

	for {
		_, ok := p.peek()
		if !ok {
			break
		}

		lhsTok, err := p.expect(tokIdent, "a rule left-hand side")
		if err != nil {
			return nil, err
		}
		lhsID, ok := ns.Lookup(lhsTok.text)
		if !ok {
			return nil, synerr.GrammarAt(lhsTok.line, lhsTok.linePos, "undefined non-terminal %q used as a rule left-hand side", lhsTok.text)
		}

		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}

		for {
			right, nesting, err := p.parseAlt(ns)
			if err != nil {
				return nil, err
			}
			rules = append(rules, Rule{Left: lhsID, Right: right, Nesting: nesting})

			t, ok := p.peek()
			if !ok {
				return nil, synerr.Grammar("rule for %q is missing a terminating ';'", lhsTok.text)
			}
			if t.kind == tokPipe {
				p.advance()
				continue
			}
			if t.kind == tokSemi {
				p.advance()
				break
			}
			return nil, synerr.GrammarAt(t.line, t.linePos, "expected '|' or ';' in rule for %q, found %q", lhsTok.text, t.text)
		}
	}

	return rules, nil
}

// parseAlt reads one RHS alternative: a run of symbols, each optionally
// carrying a dotted nesting suffix, until a '|' or ';' is seen.
func (p *parser) parseAlt(ns *ids.Namespace) ([]ids.ID, [][]int, error) {
	var right []ids.ID
	var nesting [][]int

	for {
		t, ok := p.peek()
		if !ok || t.kind != tokIdent {
			break
		}
		p.advance()

		name, nest, err := splitNesting(t.text)
		if err != nil {
			return nil, nil, synerr.GrammarAt(t.line, t.linePos, "%s", err.Error())
		}

		id, ok := ns.Lookup(name)
		if !ok {
			return nil, nil, synerr.GrammarAt(t.line, t.linePos, "undefined symbol %q in rule right-hand side", name)
		}

		right = append(right, id)
		nesting = append(nesting, nest)
	}

	if len(right) == 0 {
		t, _ := p.peek()
		return nil, nil, synerr.GrammarAt(t.line, t.linePos, "empty right-hand side alternatives are not supported")
	}

	return right, nesting, nil
}

// splitNesting splits a scanned RHS token such as "foo.1.2" into its bare
// symbol name and its nesting suffix (spec §4.4: "a missing suffix means
// -1").
func splitNesting(text string) (string, []int, error) {
	parts := strings.Split(text, ".")
	name := parts[0]
	if name == "" {
		return "", nil, synerr.Grammar("empty symbol name in %q", text)
	}
	if len(parts) == 1 {
		return name, []int{-1}, nil
	}

	nesting := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", nil, synerr.Grammar("invalid nesting index %q in %q", p, text)
		}
		nesting = append(nesting, n)
	}
	return name, nesting, nil
}
