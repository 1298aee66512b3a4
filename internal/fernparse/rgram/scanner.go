package rgram

import (
	"unicode"

	"github.com/dawid33/fernparse/internal/fernparse/synerr"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokColon
	tokPipe
	tokSemi
	tokSection
	tokDirective
)

// rawTok is one scanned token of a `.g` source file, with the source
// position of its first rune for diagnostics.
type rawTok struct {
	kind    tokKind
	text    string
	line    int
	linePos int
}

type scanner struct {
	src     []rune
	pos     int
	line    int
	linePos int
}

func newScanner(src string) *scanner {
	return &scanner{src: []rune(src), line: 1, linePos: 1}
}

func (s *scanner) peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) peekAt(off int) (rune, bool) {
	if s.pos+off >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos+off], true
}

func (s *scanner) advance() (rune, bool) {
	r, ok := s.peek()
	if !ok {
		return 0, false
	}
	s.pos++
	if r == '\n' {
		s.line++
		s.linePos = 1
	} else {
		s.linePos++
	}
	return r, true
}

// isSymbolRune reports whether r may appear in a grammar symbol name or its
// dotted nesting suffix (spec §4.4: "RHS_ALT1 ... foo.1.2").
func isSymbolRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func (s *scanner) skipSpaceAndComments() {
	for {
		r, ok := s.peek()
		if !ok {
			return
		}
		if unicode.IsSpace(r) {
			s.advance()
			continue
		}
		if r == '#' {
			for {
				r, ok := s.advance()
				if !ok || r == '\n' {
					break
				}
			}
			continue
		}
		return
	}
}

// scanAll tokenizes the full `.g` source (spec §6 "Parsing-grammar file
// format").
func scanAll(src string) ([]rawTok, error) {
	s := newScanner(src)
	var toks []rawTok

	for {
		s.skipSpaceAndComments()
		r, ok := s.peek()
		if !ok {
			break
		}

		line, linePos := s.line, s.linePos

		switch {
		case r == '%':
			next, hasNext := s.peekAt(1)
			if hasNext && next == '%' {
				s.advance()
				s.advance()
				toks = append(toks, rawTok{kind: tokSection, text: "%%", line: line, linePos: linePos})
				continue
			}
			s.advance()
			start := s.pos
			for {
				r, ok := s.peek()
				if !ok || !isSymbolRune(r) {
					break
				}
				s.advance()
			}
			if s.pos == start {
				return nil, synerr.GrammarAt(line, linePos, "bare '%%' is not a valid directive")
			}
			toks = append(toks, rawTok{kind: tokDirective, text: "%" + string(s.src[start:s.pos]), line: line, linePos: linePos})
		case r == ':':
			s.advance()
			toks = append(toks, rawTok{kind: tokColon, text: ":", line: line, linePos: linePos})
		case r == '|':
			s.advance()
			toks = append(toks, rawTok{kind: tokPipe, text: "|", line: line, linePos: linePos})
		case r == ';':
			s.advance()
			toks = append(toks, rawTok{kind: tokSemi, text: ";", line: line, linePos: linePos})
		case isSymbolRune(r):
			start := s.pos
			for {
				r, ok := s.peek()
				if !ok || !isSymbolRune(r) {
					break
				}
				s.advance()
			}
			toks = append(toks, rawTok{kind: tokIdent, text: string(s.src[start:s.pos]), line: line, linePos: linePos})
		default:
			return nil, synerr.GrammarAt(line, linePos, "unexpected character %q in grammar source", r)
		}
	}

	return toks, nil
}
