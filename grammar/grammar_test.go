package grammar

import (
	"errors"
	"testing"

	"github.com/nihei9/yuzu/grammar/symbol"
)

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		caption string
		build   func(b *Builder)
		errs    []*SemanticError
	}{
		{
			caption: "a grammar without productions is an error",
			build:   func(b *Builder) {},
			errs:    []*SemanticError{ErrEmptyGrammar},
		},
		{
			caption: "a symbol appearing only on the RHS is undeclared",
			build: func(b *Builder) {
				b.LHS("s").RHS("foo").End()
			},
			errs: []*SemanticError{ErrUndeclaredSymbol},
		},
		{
			caption: "the start symbol must have productions",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Start("t")
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrUndeclaredSymbol},
		},
		{
			caption: "a production unreachable from the start symbol is an error",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("a").End()
				b.LHS("t").RHS("a").End()
			},
			errs: []*SemanticError{ErrUnreachableProduction},
		},
		{
			caption: "the augmented start symbol cannot appear on the RHS",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("s'", "a").End()
			},
			errs: []*SemanticError{ErrAugmentedSymbolMisuse},
		},
		{
			caption: "the augmented start symbol cannot be declared as a terminal",
			build: func(b *Builder) {
				b.Terminal("s'", Literal("a"))
				b.LHS("s").Epsilon()
			},
			errs: []*SemanticError{ErrAugmentedSymbolMisuse},
		},
		{
			caption: "the end of input cannot appear on the RHS",
			build: func(b *Builder) {
				b.LHS("s").RHS(symbol.NameEOF).End()
			},
			errs: []*SemanticError{ErrReservedSymbolMisuse},
		},
		{
			caption: "the error symbol cannot be a LHS",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("error").End()
				b.LHS("error").RHS("a").End()
			},
			errs: []*SemanticError{ErrReservedSymbolMisuse},
		},
		{
			caption: "a terminal cannot be declared twice",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Terminal("a", Literal("b"))
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrDuplicateTerminal},
		},
		{
			caption: "a production cannot be declared twice",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("a").End()
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrDuplicateProduction},
		},
		{
			caption: "a terminal can have only one precedence",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Left("a")
				b.Right("a")
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrDuplicatePrecedence},
		},
		{
			caption: "the error symbol cannot have a precedence",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Left("error")
				b.LHS("s").RHS("a").End()
				b.LHS("s").RHS("error").End()
			},
			errs: []*SemanticError{ErrReservedSymbolMisuse},
		},
		{
			caption: "the end of input cannot have a precedence",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Right(symbol.NameEOF)
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrReservedSymbolMisuse},
		},
		{
			caption: "a precedence declaration refers to terminals only",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Left("s")
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrUndeclaredSymbol},
		},
		{
			caption: "a precedence override refers to terminals only",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("a").Prec("b").End()
			},
			errs: []*SemanticError{ErrUndeclaredSymbol},
		},
		{
			caption: "a terminal cannot be a LHS",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("a").End()
				b.LHS("a").RHS("s").End()
			},
			errs: []*SemanticError{ErrSymbolKindMismatch},
		},
		{
			caption: "fallback terminals cannot form a cycle",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Terminal("b", Literal("b"))
				b.Fallback("a", "b")
				b.Fallback("b", "a")
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrFallbackCycle},
		},
		{
			caption: "the wildcard must be a terminal",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Wildcard("s")
				b.LHS("s").RHS("a").End()
			},
			errs: []*SemanticError{ErrUndeclaredSymbol},
		},
		{
			caption: "all problems are reported together",
			build: func(b *Builder) {
				b.Terminal("a", Literal("a"))
				b.Terminal("a", Literal("a"))
				b.LHS("s").RHS("s'").End()
			},
			errs: []*SemanticError{ErrDuplicateTerminal, ErrAugmentedSymbolMisuse},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			b := NewBuilder("test")
			tt.build(b)
			gram, err := b.Build()
			if err == nil {
				t.Fatalf("an expected error didn't occur")
			}
			if gram != nil {
				t.Fatalf("Build must return nil with an error")
			}
			var gramErrs GrammarErrors
			if !errors.As(err, &gramErrs) {
				t.Fatalf("unexpected error type: %T", err)
			}
			for _, cause := range tt.errs {
				if !errors.Is(err, cause) {
					t.Errorf("an expected cause was not found; want: %v, got: %v", cause, err)
				}
			}
		})
	}
}

func TestBuilder_Build_Valid(t *testing.T) {
	gram := arithGrammar(t)

	if gram.Name() != "arith" {
		t.Errorf("unexpected name: %v", gram.Name())
	}
	if gram.StartSymbol() != "expr" {
		t.Errorf("the first LHS must be the start symbol; got: %v", gram.StartSymbol())
	}
	// The augmented start production and the four alternatives of expr.
	if gram.ProductionCount() != 5 {
		t.Errorf("unexpected production count: %v", gram.ProductionCount())
	}
	if text, ok := gram.ProductionText(0); !ok || text != "expr' → expr" {
		t.Errorf("unexpected augmented production: %v", text)
	}
	if text, ok := gram.ProductionText(1); !ok || text != "expr → expr plus expr" {
		t.Errorf("unexpected production #1: %v", text)
	}
	if _, ok := gram.ProductionText(5); ok {
		t.Errorf("production #5 must not exist")
	}

	r := gram.symbolTable.Reader()
	ws, _ := r.ToSymbol("ws")
	if _, ok := gram.skipTerminals[ws]; !ok {
		t.Errorf("ws must be a skip terminal")
	}
	if len(gram.unusedTerminals) != 0 {
		t.Errorf("skip terminals must not be reported as unused: %v", gram.unusedTerminals)
	}

	plus, _ := r.ToSymbol("plus")
	times, _ := r.ToSymbol("times")
	pa := gram.precAndAssoc
	if pa.terminalPrecedence(plus.Num()) >= pa.terminalPrecedence(times.Num()) {
		t.Errorf("a later declaration must bind tighter")
	}
	if pa.terminalAssociativity(plus.Num()) != assocTypeLeft {
		t.Errorf("unexpected associativity of plus: %v", pa.terminalAssociativity(plus.Num()))
	}
	if pa.productionPrecedence(1) != pa.terminalPrecedence(plus.Num()) {
		t.Errorf("a production must take the precedence of its right-most terminal")
	}
	// expr → l_paren expr r_paren has no terminal with a precedence.
	if pa.productionPrecedence(3) != precNil {
		t.Errorf("unexpected precedence of production #3: %v", pa.productionPrecedence(3))
	}
}

func TestBuilder_Build_PrecOverride(t *testing.T) {
	b := NewBuilder("test")
	b.Terminal("num", Pattern(`[0-9]+`))
	b.Terminal("minus", Literal("-"))
	b.Terminal("times", Literal("*"))
	b.Left("minus")
	b.Left("times")
	b.Right("uminus")
	b.Terminal("uminus")
	b.LHS("expr").RHS("expr", "minus", "expr").End()
	b.LHS("expr").RHS("expr", "times", "expr").End()
	b.LHS("expr").RHS("minus", "expr").Prec("uminus").End()
	b.LHS("expr").RHS("num").End()
	gram := mustBuild(t, b)

	r := gram.symbolTable.Reader()
	uminus, _ := r.ToSymbol("uminus")
	pa := gram.precAndAssoc
	if pa.productionPrecedence(3) != pa.terminalPrecedence(uminus.Num()) {
		t.Errorf("the override must win over the right-most terminal")
	}
	if pa.productionAssociativity(3) != assocTypeRight {
		t.Errorf("unexpected associativity: %v", pa.productionAssociativity(3))
	}
	if len(gram.unusedTerminals) != 1 || gram.unusedTerminals[0] != uminus {
		t.Errorf("uminus must be reported as unused: %v", gram.unusedTerminals)
	}
}

func TestBuilder_Build_Fallback(t *testing.T) {
	b := NewBuilder("test")
	b.Terminal("id", Pattern(`[a-z]+`))
	b.Terminal("kw_if", Literal("if"))
	b.Terminal("any", Pattern(`.`))
	b.Fallback("id", "kw_if")
	b.Wildcard("any")
	b.LHS("s").RHS("id").End()
	gram := mustBuild(t, b)

	r := gram.symbolTable.Reader()
	id, _ := r.ToSymbol("id")
	kwIf, _ := r.ToSymbol("kw_if")
	wildcard, _ := r.ToSymbol("any")
	if gram.fallback[kwIf] != id {
		t.Errorf("unexpected fallback of kw_if: %v", gram.fallback[kwIf])
	}
	if gram.wildcard != wildcard {
		t.Errorf("unexpected wildcard: %v", gram.wildcard)
	}
	if len(gram.unusedTerminals) != 0 {
		t.Errorf("fallback and wildcard terminals must not be reported as unused: %v", gram.unusedTerminals)
	}
	if gram.aliases[kwIf] != "if" {
		t.Errorf("a literal must be the alias of its terminal: %v", gram.aliases[kwIf])
	}
}
