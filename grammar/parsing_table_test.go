package grammar

import (
	"fmt"
	"testing"

	"github.com/nihei9/yuzu/grammar/symbol"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type testActionEntry struct {
	ty         ActionType
	nextState  stateNum
	production *production
}

type expectedState struct {
	acts  map[symbol.Symbol]testActionEntry
	goTos map[symbol.Symbol]stateNum
}

func genTestParsingTable(t *testing.T, gram *Grammar) (*ParsingTable, *lrTableBuilder) {
	t.Helper()

	automaton := genTestLALR1Automaton(t, gram)
	symTab := gram.symbolTable.Reader()
	b := &lrTableBuilder{
		automaton:    automaton.lr0Automaton,
		prods:        gram.productionSet,
		termCount:    symTab.TerminalCount(),
		nonTermCount: symTab.NonTerminalCount(),
		symTab:       symTab,
		resolver: &conflictResolver{
			precAndAssoc: gram.precAndAssoc,
		},
	}
	ptab, err := b.build()
	if err != nil {
		t.Fatalf("failed to create a LALR parsing table: %v", err)
	}
	if ptab == nil {
		t.Fatal("build returns nil without any error")
	}
	return ptab, b
}

func TestGenLALRParsingTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yuzu.grammar")
	defer teardown()

	gram := lrValueGrammar(t)
	ptab, b := genTestParsingTable(t, gram)
	if len(b.conflicts) != 0 {
		t.Fatalf("an LALR(1) grammar must not have conflicts: %v", len(b.conflicts))
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	genProd := newTestProductionGenerator(t, genSym)

	shift := func(s stateNum) testActionEntry {
		return testActionEntry{
			ty:        ActionTypeShift,
			nextState: s,
		}
	}
	reduce := func(lhs string, rhs ...string) testActionEntry {
		return testActionEntry{
			ty:         ActionTypeReduce,
			production: genProd(lhs, rhs...),
		}
	}

	expectedStates := []expectedState{
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("ref"): shift(4),
				genSym("id"):  shift(5),
			},
			goTos: map[symbol.Symbol]stateNum{
				genSym("S"): 1,
				genSym("L"): 2,
				genSym("R"): 3,
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				symbol.SymbolEOF: {
					ty:         ActionTypeAccept,
					production: genProd("S'", "S"),
				},
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("eq"):     shift(6),
				symbol.SymbolEOF: reduce("R", "L"),
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				symbol.SymbolEOF: reduce("S", "R"),
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("ref"): shift(4),
				genSym("id"):  shift(5),
			},
			goTos: map[symbol.Symbol]stateNum{
				genSym("L"): 7,
				genSym("R"): 8,
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("eq"):     reduce("L", "id"),
				symbol.SymbolEOF: reduce("L", "id"),
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("ref"): shift(4),
				genSym("id"):  shift(5),
			},
			goTos: map[symbol.Symbol]stateNum{
				genSym("L"): 7,
				genSym("R"): 9,
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("eq"):     reduce("R", "L"),
				symbol.SymbolEOF: reduce("R", "L"),
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				genSym("eq"):     reduce("L", "ref", "R"),
				symbol.SymbolEOF: reduce("L", "ref", "R"),
			},
		},
		{
			acts: map[symbol.Symbol]testActionEntry{
				symbol.SymbolEOF: reduce("S", "L", "eq", "R"),
			},
		},
	}

	if ptab.InitialState != stateNumInitial {
		t.Fatalf("the initial state is mismatched; want: %v, got: %v", stateNumInitial, ptab.InitialState)
	}
	if ptab.stateCount != len(expectedStates) {
		t.Fatalf("state count is mismatched; want: %v, got: %v", len(expectedStates), ptab.stateCount)
	}

	for i, eState := range expectedStates {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			testAction(t, &eState, stateNum(i), ptab, gram)
			testGoTo(t, &eState, stateNum(i), ptab, gram)
		})
	}
}

func TestGenLALRParsingTable_Conflicts(t *testing.T) {
	ambiguous := func(decl func(b *Builder)) func(t *testing.T) *Grammar {
		return func(t *testing.T) *Grammar {
			b := NewBuilder("test")
			b.Terminal("num", Pattern(`[0-9]+`))
			b.Terminal("plus", Literal("+"))
			if decl != nil {
				decl(b)
			}
			b.LHS("expr").RHS("expr", "plus", "expr").End()
			b.LHS("expr").RHS("num").End()
			return mustBuild(t, b)
		}
	}

	tests := []struct {
		caption    string
		gram       func(t *testing.T) *Grammar
		kind       conflictKind
		sym        string
		adopted    ActionType
		prod       productionNum
		resolvedBy conflictResolutionMethod
	}{
		{
			caption:    "a shift/reduce conflict without precedence is resolved as a shift",
			gram:       ambiguous(nil),
			kind:       conflictKindShiftReduce,
			sym:        "plus",
			adopted:    ActionTypeShift,
			resolvedBy: ResolvedByShift,
		},
		{
			caption:    "left associativity chooses a reduction",
			gram:       ambiguous(func(b *Builder) { b.Left("plus") }),
			kind:       conflictKindShiftReduce,
			sym:        "plus",
			adopted:    ActionTypeReduce,
			prod:       1,
			resolvedBy: ResolvedByAssoc,
		},
		{
			caption:    "right associativity chooses a shift",
			gram:       ambiguous(func(b *Builder) { b.Right("plus") }),
			kind:       conflictKindShiftReduce,
			sym:        "plus",
			adopted:    ActionTypeShift,
			resolvedBy: ResolvedByAssoc,
		},
		{
			caption:    "a non-associative terminal falls back to a shift",
			gram:       ambiguous(func(b *Builder) { b.NonAssoc("plus") }),
			kind:       conflictKindShiftReduce,
			sym:        "plus",
			adopted:    ActionTypeShift,
			resolvedBy: ResolvedByShift,
		},
		{
			caption: "a reduce/reduce conflict is resolved by the production order",
			gram: func(t *testing.T) *Grammar {
				b := NewBuilder("test")
				b.Terminal("x", Literal("x"))
				b.LHS("s").RHS("a").End()
				b.LHS("s").RHS("b").End()
				b.LHS("a").RHS("x").End()
				b.LHS("b").RHS("x").End()
				return mustBuild(t, b)
			},
			kind:       conflictKindReduceReduce,
			sym:        symbol.NameEOF,
			adopted:    ActionTypeReduce,
			prod:       3,
			resolvedBy: ResolvedByProdOrder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram := tt.gram(t)
			ptab, b := genTestParsingTable(t, gram)
			if len(b.conflicts) != 1 {
				t.Fatalf("unexpected conflict count; want: 1, got: %v", len(b.conflicts))
			}
			c := b.conflicts[0]
			if c.kind != tt.kind {
				t.Errorf("unexpected conflict kind; want: %v, got: %v", tt.kind, c.kind)
			}
			sym, ok := gram.symbolTable.Reader().ToSymbol(tt.sym)
			if !ok {
				t.Fatalf("symbol was not found: %v", tt.sym)
			}
			if c.sym != sym {
				t.Errorf("unexpected conflict symbol; want: %v, got: %v", sym, c.sym)
			}
			if c.resolvedBy != tt.resolvedBy {
				t.Errorf("unexpected resolution; want: %v, got: %v", tt.resolvedBy, c.resolvedBy)
			}
			if c.unresolved() != (tt.resolvedBy == ResolvedByShift || tt.resolvedBy == ResolvedByProdOrder) {
				t.Errorf("unexpected unresolved flag: %v", c.unresolved())
			}

			ty, _, prod := ptab.getAction(c.state, c.sym.Num())
			if ty != tt.adopted {
				t.Fatalf("unexpected ACTION entry; want: %v, got: %v", tt.adopted, ty)
			}
			if ty == ActionTypeReduce && prod != tt.prod {
				t.Fatalf("unexpected production; want: %v, got: %v", tt.prod, prod)
			}
			if c.adopted != ptab.readAction(c.state, c.sym.Num()) {
				t.Fatalf("the adopted action must be the ACTION entry")
			}
		})
	}
}

func TestGenLALRParsingTable_Precedence(t *testing.T) {
	gram := arithGrammar(t)
	ptab, b := genTestParsingTable(t, gram)

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	plus := genSym("plus")
	times := genSym("times")

	for _, c := range b.conflicts {
		if c.unresolved() {
			t.Fatalf("precedence and associativity must resolve every conflict: %v", c.describe(gram))
		}
	}

	// Find the state having `expr → expr plus expr ・`.
	found := false
	for _, state := range b.automaton.states {
		if _, ok := state.reducible[genProductionID(genSym("expr"), []symbol.Symbol{genSym("expr"), plus, genSym("expr")})]; !ok {
			continue
		}
		found = true

		ty, _, prod := ptab.getAction(state.num, plus.Num())
		if ty != ActionTypeReduce || prod != 1 {
			t.Errorf("plus is left-associative; got: %v %v", ty, prod)
		}
		ty, _, _ = ptab.getAction(state.num, times.Num())
		if ty != ActionTypeShift {
			t.Errorf("times binds tighter than plus; got: %v", ty)
		}
	}
	if !found {
		t.Fatal("the state reducing the addition was not found")
	}
}

func testAction(t *testing.T, expectedState *expectedState, state stateNum, ptab *ParsingTable, gram *Grammar) {
	t.Helper()

	nonEmptyEntries := map[symbol.Symbol]struct{}{}
	for eSym, eAct := range expectedState.acts {
		nonEmptyEntries[eSym] = struct{}{}

		ty, nextState, prodNum := ptab.getAction(state, eSym.Num())
		if ty != eAct.ty {
			t.Fatalf("action type is mismatched; symbol: %v, want: %v, got: %v", eSym, eAct.ty, ty)
		}
		switch eAct.ty {
		case ActionTypeShift:
			if nextState != eAct.nextState {
				t.Fatalf("next state is mismatched; symbol: %v, want: %v, got: %v", eSym, eAct.nextState, nextState)
			}
		case ActionTypeReduce, ActionTypeAccept:
			prod, ok := gram.productionSet.findByNum(prodNum)
			if !ok {
				t.Fatalf("production was not found: #%v", prodNum)
			}
			if prod.id != eAct.production.id {
				t.Fatalf("production is mismatched; symbol: %v, want: %v, got: %v", eSym, eAct.production.id, prod.id)
			}
		}
	}
	for _, sym := range gram.symbolTable.Reader().TerminalSymbols() {
		if _, checked := nonEmptyEntries[sym]; checked {
			continue
		}
		ty, nextState, prodNum := ptab.getAction(state, sym.Num())
		if ty != ActionTypeError {
			t.Errorf("unexpected ACTION entry; state: #%v, symbol: %v, action type: %v, next state: #%v, prodction: #%v", state, sym, ty, nextState, prodNum)
		}
	}
}

func testGoTo(t *testing.T, expectedState *expectedState, state stateNum, ptab *ParsingTable, gram *Grammar) {
	t.Helper()

	for eSym, eNextState := range expectedState.goTos {
		ty, nextState := ptab.getGoTo(state, eSym.Num())
		if ty != GoToTypeRegistered {
			t.Fatalf("GOTO entry was not found; state: #%v, symbol: %v", state, eSym)
		}
		if nextState != eNextState {
			t.Fatalf("next state is mismatched; symbol: %v, want: %v, got: %v", eSym, eNextState, nextState)
		}
	}
	for _, sym := range gram.symbolTable.Reader().NonTerminalSymbols() {
		if _, checked := expectedState.goTos[sym]; checked {
			continue
		}
		ty, _ := ptab.getGoTo(state, sym.Num())
		if ty != GoToTypeError {
			t.Errorf("unexpected GOTO entry; state: #%v, symbol: %v", state, sym)
		}
	}
}
