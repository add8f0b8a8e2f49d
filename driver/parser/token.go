package parser

import "context"

// Value is a semantic value a parser keeps on its value stack.
type Value interface{}

// VToken is a token a parser reads. TerminalID is meaningless when EOF or Invalid is true.
type VToken interface {
	TerminalID() int

	// Value returns the payload shifted onto the value stack.
	Value() Value

	Lexeme() []byte
	EOF() bool
	Invalid() bool

	// Position returns a 1-based row and column when the source knows them.
	Position() (int, int)
}

// TokenSource produces tokens one at a time. After the end of input it keeps returning an EOF token.
// A parser passes its context to Next, so a source doing blocking I/O can stop when the parse is cancelled.
type TokenSource interface {
	Next(ctx context.Context) (VToken, error)
}

// Token is a plain VToken.
type Token struct {
	terminal int
	value    Value
	lexeme   []byte
	eof      bool
	invalid  bool
	row      int
	col      int
}

var _ VToken = &Token{}

// NewToken returns a token of a terminal. The lexeme is used as the value when value is nil.
func NewToken(terminal int, lexeme string, value Value) *Token {
	if value == nil {
		value = lexeme
	}
	return &Token{
		terminal: terminal,
		value:    value,
		lexeme:   []byte(lexeme),
	}
}

func NewEOFToken() *Token {
	return &Token{
		eof: true,
	}
}

func NewInvalidToken(lexeme string) *Token {
	return &Token{
		lexeme:  []byte(lexeme),
		invalid: true,
	}
}

// At sets a position of a token.
func (t *Token) At(row, col int) *Token {
	t.row = row
	t.col = col
	return t
}

func (t *Token) TerminalID() int {
	return t.terminal
}

func (t *Token) Value() Value {
	return t.value
}

func (t *Token) Lexeme() []byte {
	return t.lexeme
}

func (t *Token) EOF() bool {
	return t.eof
}

func (t *Token) Invalid() bool {
	return t.invalid
}

func (t *Token) Position() (int, int) {
	return t.row, t.col
}

type tokenSlice struct {
	toks []VToken
	next int
}

// NewTokenSlice returns a TokenSource reading tokens from a slice. The slice doesn't need an EOF token.
func NewTokenSlice(toks ...VToken) TokenSource {
	return &tokenSlice{
		toks: toks,
	}
}

func (s *tokenSlice) Next(ctx context.Context) (VToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.toks) {
		return NewEOFToken(), nil
	}
	tok := s.toks[s.next]
	s.next++
	return tok, nil
}
