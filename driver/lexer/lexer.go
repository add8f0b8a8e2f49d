// Package lexer adapts lexical analyzers to parser.TokenSource.
package lexer

import (
	"github.com/nihei9/yuzu/driver/parser"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'yuzu.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("yuzu.lexer")
}

// token is a token produced by a lexer of this package. Its value is the lexeme as a string.
type token struct {
	terminal int
	lexeme   []byte
	eof      bool
	invalid  bool
	row      int
	col      int
}

var _ parser.VToken = &token{}

func (t *token) TerminalID() int {
	return t.terminal
}

func (t *token) Value() parser.Value {
	return string(t.lexeme)
}

func (t *token) Lexeme() []byte {
	return t.lexeme
}

func (t *token) EOF() bool {
	return t.eof
}

func (t *token) Invalid() bool {
	return t.invalid
}

func (t *token) Position() (int, int) {
	return t.row, t.col
}
