package grammar

import (
	"testing"

	"github.com/nihei9/yuzu/grammar/symbol"
)

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.SymbolTableReader) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

func newTestProductionGenerator(t *testing.T, genSym testSymbolGenerator) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		prod, err := newProduction(genSym(lhs), rhsSym)
		if err != nil {
			t.Fatalf("failed to create a production: %v", err)
		}

		return prod
	}
}

type testLR0ItemGenerator func(lhs string, dot int, rhs ...string) *lrItem

func newTestLR0ItemGenerator(t *testing.T, genProd testProductionGenerator) testLR0ItemGenerator {
	return func(lhs string, dot int, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		item, err := newLR0Item(prod, dot)
		if err != nil {
			t.Fatalf("failed to create a LR0 item: %v", err)
		}

		return item
	}
}

func withLookAhead(item *lrItem, lookAhead ...symbol.Symbol) *lrItem {
	for _, a := range lookAhead {
		item.lookAhead.add(a)
	}
	return item
}

func mustBuild(t *testing.T, b *Builder) *Grammar {
	t.Helper()

	gram, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	return gram
}

// exprGrammar is the classic expression grammar without precedence declarations.
//
//	expr   → expr add term | term
//	term   → term mul factor | factor
//	factor → l_paren expr r_paren | id
func exprGrammar(t *testing.T) *Grammar {
	t.Helper()

	b := NewBuilder("test")
	b.Terminal("add", Literal("+"))
	b.Terminal("mul", Literal("*"))
	b.Terminal("l_paren", Literal("("))
	b.Terminal("r_paren", Literal(")"))
	b.Terminal("id", Pattern(`[A-Za-z_][0-9A-Za-z_]*`))
	b.LHS("expr").RHS("expr", "add", "term").End()
	b.LHS("expr").RHS("term").End()
	b.LHS("term").RHS("term", "mul", "factor").End()
	b.LHS("term").RHS("factor").End()
	b.LHS("factor").RHS("l_paren", "expr", "r_paren").End()
	b.LHS("factor").RHS("id").End()
	return mustBuild(t, b)
}

// arithGrammar is an ambiguous arithmetic grammar disambiguated by precedence and associativity.
func arithGrammar(t *testing.T) *Grammar {
	t.Helper()

	b := NewBuilder("arith")
	b.Terminal("num", Pattern(`[0-9]+`))
	b.Terminal("plus", Literal("+"))
	b.Terminal("times", Literal("*"))
	b.Terminal("l_paren", Literal("("))
	b.Terminal("r_paren", Literal(")"))
	b.Terminal("ws", Pattern(`[ \u{0009}]+`), Skip())
	b.Left("plus")
	b.Left("times")
	b.LHS("expr").RHS("expr", "plus", "expr").Action("add").End()
	b.LHS("expr").RHS("expr", "times", "expr").Action("mul").End()
	b.LHS("expr").RHS("l_paren", "expr", "r_paren").Action("paren").End()
	b.LHS("expr").RHS("num").Action("num").End()
	return mustBuild(t, b)
}
