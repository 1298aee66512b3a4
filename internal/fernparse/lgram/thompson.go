package lgram

import (
	"fmt"
	"regexp/syntax"

	"github.com/dawid33/fernparse/internal/fernparse/automaton"
	"github.com/dawid33/fernparse/internal/fernparse/synerr"
)

// frag is a fragment of an in-progress NFA build: a start state and a set of
// dangling "out" states still needing a transition wired up. Building a
// regex bottom-up as fragments and splicing them is the standard Thompson
// construction (spec §4.1 stage 2).
type frag struct {
	start string
	out   []string
}

// builder accumulates states into a shared NFA[string] while compiling one
// regex (component A output) into a fragment; the name is only used to scope
// generated state names so multiple entries compiled against the same
// builder never collide.
type builder struct {
	nfa     *automaton.NFA[string]
	counter int
	prefix  string
}

func newBuilder(nfa *automaton.NFA[string], prefix string) *builder {
	return &builder{nfa: nfa, prefix: prefix}
}

func (b *builder) newState() string {
	name := fmt.Sprintf("%s_%d", b.prefix, b.counter)
	b.counter++
	b.nfa.AddState(name, false)
	return name
}

func (b *builder) patch(out []string, to string) {
	for _, s := range out {
		b.nfa.AddTransition(s, automaton.Epsilon, to)
	}
}

// compileRegex parses pattern with regexp/syntax (the sanctioned external
// library for component A) and compiles its AST into a fragment spliced into
// b's shared NFA. Byte-oriented only: literal runes must fit in one byte (0-255), classes
// are restricted to byte ranges 0-255, and empty-match / look-around
// constructs are rejected (spec §4.1 stage 2 Non-goals).
func (b *builder) compileRegex(pattern string) (frag, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return frag{}, synerr.Grammar("invalid regex %q: %v", pattern, err)
	}
	re = re.Simplify()
	return b.compileNode(re)
}

func (b *builder) compileNode(re *syntax.Regexp) (frag, error) {
	switch re.Op {
	case syntax.OpLiteral:
		return b.compileLiteral(re.Rune)
	case syntax.OpCharClass:
		return b.compileClass(re.Rune)
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return b.compileClass([]rune{0, 0x10FFFF})
	case syntax.OpConcat:
		return b.compileConcat(re.Sub)
	case syntax.OpAlternate:
		return b.compileAlternate(re.Sub)
	case syntax.OpStar:
		return b.compileStar(re.Sub[0])
	case syntax.OpPlus:
		return b.compilePlus(re.Sub[0])
	case syntax.OpQuest:
		return b.compileQuest(re.Sub[0])
	case syntax.OpRepeat:
		return b.compileRepeat(re.Sub[0], re.Min, re.Max)
	case syntax.OpCapture:
		// capture groups are transparent: compile the child directly
		return b.compileNode(re.Sub[0])
	case syntax.OpEmptyMatch:
		return frag{}, synerr.Grammar("empty match not supported in lexical grammar regex")
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return frag{}, synerr.Grammar("look-around/anchors not supported in lexical grammar regex")
	default:
		return frag{}, synerr.Grammar("unsupported regex construct (op %v)", re.Op)
	}
}

func (b *builder) compileByteRange(lo, hi byte) frag {
	start := b.newState()
	end := b.newState()
	for c := int(lo); c <= int(hi); c++ {
		b.nfa.AddTransition(start, string([]byte{byte(c)}), end)
	}
	return frag{start: start, out: []string{end}}
}

func (b *builder) compileLiteral(runes []rune) (frag, error) {
	if len(runes) == 0 {
		return frag{}, synerr.Grammar("empty literal not supported in lexical grammar regex")
	}
	var cur frag
	for i, r := range runes {
		if r > 0xFF {
			return frag{}, synerr.Grammar("non-ASCII byte %U not supported (byte-oriented grammars only)", r)
		}
		f := b.compileByteRange(byte(r), byte(r))
		if i == 0 {
			cur = f
			continue
		}
		b.patch(cur.out, f.start)
		cur.out = f.out
	}
	return cur, nil
}

func (b *builder) compileClass(ranges []rune) (frag, error) {
	if len(ranges) == 0 {
		return frag{}, synerr.Grammar("empty character class not supported in lexical grammar regex")
	}
	start := b.newState()
	end := b.newState()
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if lo > 0xFF {
			continue
		}
		if hi > 0xFF {
			hi = 0xFF
		}
		for c := int(lo); c <= int(hi); c++ {
			b.nfa.AddTransition(start, string([]byte{byte(c)}), end)
		}
	}
	return frag{start: start, out: []string{end}}, nil
}

func (b *builder) compileConcat(subs []*syntax.Regexp) (frag, error) {
	if len(subs) == 0 {
		return frag{}, synerr.Grammar("empty match not supported in lexical grammar regex")
	}
	cur, err := b.compileNode(subs[0])
	if err != nil {
		return frag{}, err
	}
	for _, sub := range subs[1:] {
		next, err := b.compileNode(sub)
		if err != nil {
			return frag{}, err
		}
		b.patch(cur.out, next.start)
		cur.out = next.out
	}
	return cur, nil
}

func (b *builder) compileAlternate(subs []*syntax.Regexp) (frag, error) {
	start := b.newState()
	end := b.newState()
	var out []string
	for _, sub := range subs {
		f, err := b.compileNode(sub)
		if err != nil {
			return frag{}, err
		}
		b.nfa.AddTransition(start, automaton.Epsilon, f.start)
		out = append(out, f.out...)
	}
	b.patch(out, end)
	return frag{start: start, out: []string{end}}, nil
}

func (b *builder) compileStar(sub *syntax.Regexp) (frag, error) {
	start := b.newState()
	end := b.newState()
	inner, err := b.compileNode(sub)
	if err != nil {
		return frag{}, err
	}
	b.nfa.AddTransition(start, automaton.Epsilon, inner.start)
	b.nfa.AddTransition(start, automaton.Epsilon, end)
	b.patch(inner.out, inner.start)
	b.patch(inner.out, end)
	return frag{start: start, out: []string{end}}, nil
}

func (b *builder) compilePlus(sub *syntax.Regexp) (frag, error) {
	inner, err := b.compileNode(sub)
	if err != nil {
		return frag{}, err
	}
	end := b.newState()
	b.patch(inner.out, inner.start)
	b.patch(inner.out, end)
	return frag{start: inner.start, out: []string{end}}, nil
}

func (b *builder) compileQuest(sub *syntax.Regexp) (frag, error) {
	start := b.newState()
	end := b.newState()
	inner, err := b.compileNode(sub)
	if err != nil {
		return frag{}, err
	}
	b.nfa.AddTransition(start, automaton.Epsilon, inner.start)
	b.nfa.AddTransition(start, automaton.Epsilon, end)
	b.patch(inner.out, end)
	return frag{start: start, out: []string{end}}, nil
}

// compileRepeat expands {min,max} as min required copies followed by
// (max-min) optional copies, or, when max == -1 (unbounded), min required
// copies followed by a star. Bounded/unbounded repetition (spec §4.1 stage 2).
func (b *builder) compileRepeat(sub *syntax.Regexp, min, max int) (frag, error) {
	if min == 0 && max == -1 {
		return b.compileStar(sub)
	}
	if min == 1 && max == -1 {
		return b.compilePlus(sub)
	}

	var cur frag
	first := true
	for i := 0; i < min; i++ {
		f, err := b.compileNode(sub)
		if err != nil {
			return frag{}, err
		}
		if first {
			cur = f
			first = false
		} else {
			b.patch(cur.out, f.start)
			cur.out = f.out
		}
	}

	if max == -1 {
		star, err := b.compileStar(sub)
		if err != nil {
			return frag{}, err
		}
		if first {
			return star, nil
		}
		b.patch(cur.out, star.start)
		cur.out = star.out
		return cur, nil
	}

	for i := min; i < max; i++ {
		opt, err := b.compileQuest(sub)
		if err != nil {
			return frag{}, err
		}
		if first {
			cur = opt
			first = false
		} else {
			b.patch(cur.out, opt.start)
			cur.out = opt.out
		}
	}

	if first {
		// min == max == 0: equivalent to an empty match, unsupported.
		return frag{}, synerr.Grammar("zero-length repetition not supported in lexical grammar regex")
	}

	return cur, nil
}
