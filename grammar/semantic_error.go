package grammar

import (
	"fmt"
	"strings"
)

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	ErrEmptyGrammar          = newSemanticError("a grammar needs at least one production")
	ErrUndeclaredSymbol      = newSemanticError("undeclared symbol")
	ErrUnreachableProduction = newSemanticError("production is unreachable from the start symbol")
	ErrAugmentedSymbolMisuse = newSemanticError("misuse of the augmented start symbol")
	ErrReservedSymbolMisuse  = newSemanticError("misuse of a reserved symbol")
	ErrDuplicateTerminal     = newSemanticError("duplicate terminal")
	ErrDuplicateProduction   = newSemanticError("duplicate production")
	ErrDuplicatePrecedence   = newSemanticError("a terminal can have only one precedence")
	ErrSymbolKindMismatch    = newSemanticError("a terminal cannot appear on the LHS of a production")
	ErrFallbackCycle         = newSemanticError("fallback terminals form a cycle")
)

// GrammarError reports an invalid grammar. Cause is one of the Err* values, so callers can use errors.Is.
type GrammarError struct {
	Cause  *SemanticError
	Detail string
}

func (e *GrammarError) Error() string {
	if e.Detail == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%v: %v", e.Cause, e.Detail)
}

func (e *GrammarError) Unwrap() error {
	return e.Cause
}

type GrammarErrors []*GrammarError

func (e GrammarErrors) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Is reports whether any of the errors has the target as its cause.
func (e GrammarErrors) Is(target error) bool {
	for _, err := range e {
		if err.Cause == target {
			return true
		}
	}
	return false
}
