package parser

import (
	"fmt"
	"strings"
)

type ParseErrorKind string

const (
	// UnexpectedToken means no action was legal for the token in the current state.
	UnexpectedToken = ParseErrorKind("unexpected token")

	// RecoveryExhausted means error recovery found no state that can shift the error symbol, or the input
	// ended while tokens were discarded.
	RecoveryExhausted = ParseErrorKind("recovery exhausted")

	// StackOverflow means the state stack grew beyond the limit set by MaxStackDepth.
	StackOverflow = ParseErrorKind("stack overflow")
)

// ParseError is scoped to one parse. Tables are never affected by it.
type ParseError struct {
	Kind  ParseErrorKind
	Token VToken

	// Terminal is the name of the offending terminal.
	Terminal string

	// States is a copy of the state stack, the bottom first.
	States []int

	ExpectedTerminals []string

	// Cause is the UnexpectedToken error that started a failed recovery.
	Cause error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Token != nil {
		if row, col := e.Token.Position(); row > 0 {
			fmt.Fprintf(&b, "%v:%v: ", row, col)
		}
	}
	fmt.Fprintf(&b, "%v", e.Kind)
	if e.Terminal != "" {
		fmt.Fprintf(&b, ": %v", e.Terminal)
		if e.Token != nil && len(e.Token.Lexeme()) > 0 {
			fmt.Fprintf(&b, " %q", e.Token.Lexeme())
		}
	}
	if len(e.ExpectedTerminals) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.ExpectedTerminals, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ParseErrors holds syntax errors a parser recovered from.
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}
