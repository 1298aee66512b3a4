package types

import "fmt"

// Payload is the optional data carried by a terminal occurrence (spec §3
// "Data payload"): the raw lexeme text plus the index of the token it came
// from within its stream, so downstream consumers can correlate payloads back
// to positions without re-scanning.
type Payload struct {
	Text       string
	TokenIndex int
}

// Token is a lexeme read from text combined with the token class it is, plus
// positional information to inform error reporting.
type Token interface {
	// Class returns the TokenClass of the Token.
	Class() TokenClass

	// Lexeme returns the text that was lexed, as it appears in the source.
	Lexeme() string

	// Payload returns the data payload attached to this occurrence, or nil if
	// none was attached (spec §3: payloads are optional per occurrence).
	Payload() *Payload

	// LinePos returns the 1-indexed character-of-line the token starts at.
	LinePos() int

	// Line returns the 1-indexed line number the token appears on.
	Line() int

	// FullLine returns the full text of the line the token appears on.
	FullLine() string

	// String is the string representation.
	String() string
}

type simpleToken struct {
	class   TokenClass
	lexeme  string
	payload *Payload
	linePos int
	line    int
	text    string
}

// NewToken builds a Token. payload may be nil.
func NewToken(class TokenClass, lexeme string, payload *Payload, line, linePos int, fullLine string) Token {
	return simpleToken{class: class, lexeme: lexeme, payload: payload, line: line, linePos: linePos, text: fullLine}
}

func (t simpleToken) Class() TokenClass  { return t.class }
func (t simpleToken) Lexeme() string     { return t.lexeme }
func (t simpleToken) Payload() *Payload  { return t.payload }
func (t simpleToken) LinePos() int       { return t.linePos }
func (t simpleToken) Line() int          { return t.line }
func (t simpleToken) FullLine() string   { return t.text }

func (t simpleToken) String() string {
	return fmt.Sprintf("(%s %q)", t.class.Human(), t.lexeme)
}
