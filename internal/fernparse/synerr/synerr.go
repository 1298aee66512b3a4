// Package synerr defines the error kinds surfaced across the pipeline (spec
// §7): GrammarError for compile-time lexical/parsing-grammar problems,
// LexerError for byte-stream rejections and chunk-reassembly failures, and
// ParserError for shift-reduce failures. It stands in for ictiobus's
// icterrors package, whose source wasn't available to study directly; its
// shape is reconstructed from icterrors' call sites elsewhere in tunaq
// (parse/ll1.go, parse/lr.go, lex/immediate.go all call
// icterrors.NewSyntaxErrorFromToken(msg, tok).FullMessage()).
package synerr

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// Kind distinguishes the phase of the pipeline an error came from.
type Kind int

const (
	KindGrammar Kind = iota
	KindLexer
	KindParser
)

func (k Kind) String() string {
	switch k {
	case KindGrammar:
		return "grammar error"
	case KindLexer:
		return "lexer error"
	case KindParser:
		return "parser error"
	default:
		return "error"
	}
}

// Error is a diagnostic produced by the pipeline. It always carries a
// one-line Error() message (spec §7 "User-visible behavior") and optionally
// wraps an underlying cause.
type Error struct {
	kind    Kind
	msg     string
	line    int
	linePos int
	wrap    error
}

func (e *Error) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("%s at line %d:%d: %s", e.kind, e.line, e.linePos, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.wrap
}

// Kind returns which phase produced the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// FullMessage wraps Error() to a reasonable width for terminal display, using
// rosed the way the rest of tunaq formats multi-line human-facing text.
func (e *Error) FullMessage() string {
	return rosed.Edit(e.Error()).Wrap(100).String()
}

// Grammar returns a GrammarError (spec §7: malformed regex/`.g` source,
// duplicate names, undefined references, missing axiom, empty grammar,
// repeated RHS surviving normalization).
func Grammar(format string, a ...interface{}) error {
	return &Error{kind: KindGrammar, msg: fmt.Sprintf(format, a...)}
}

// WrapGrammar is Grammar but chains an underlying cause.
func WrapGrammar(cause error, format string, a ...interface{}) error {
	return &Error{kind: KindGrammar, msg: fmt.Sprintf(format, a...), wrap: cause}
}

// GrammarAt is Grammar with source position attached.
func GrammarAt(line, linePos int, format string, a ...interface{}) error {
	return &Error{kind: KindGrammar, msg: fmt.Sprintf(format, a...), line: line, linePos: linePos}
}

// Lexer returns a LexerError (spec §7: byte not accepted in current state,
// chunk reassembly could not match an exit state).
func Lexer(format string, a ...interface{}) error {
	return &Error{kind: KindLexer, msg: fmt.Sprintf(format, a...)}
}

// LexerAt is Lexer with source position attached, the way a Token-aware
// diagnostic would report it.
func LexerAt(line, linePos int, format string, a ...interface{}) error {
	return &Error{kind: KindLexer, msg: fmt.Sprintf(format, a...), line: line, linePos: linePos}
}

// WrapLexer is Lexer but chains an underlying cause.
func WrapLexer(cause error, format string, a ...interface{}) error {
	return &Error{kind: KindLexer, msg: fmt.Sprintf(format, a...), wrap: cause}
}

// Parser returns a ParserError (spec §7: None precedence encountered, stack
// underflow on reduction, end of input before axiom).
func Parser(format string, a ...interface{}) error {
	return &Error{kind: KindParser, msg: fmt.Sprintf(format, a...)}
}

// ParserAt is Parser with source position attached.
func ParserAt(line, linePos int, format string, a ...interface{}) error {
	return &Error{kind: KindParser, msg: fmt.Sprintf(format, a...), line: line, linePos: linePos}
}

// WrapParser is Parser but chains an underlying cause.
func WrapParser(cause error, format string, a ...interface{}) error {
	return &Error{kind: KindParser, msg: fmt.Sprintf(format, a...), wrap: cause}
}
