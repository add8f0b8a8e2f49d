package grammar

import (
	"testing"

	"github.com/nihei9/yuzu/grammar/symbol"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// lrValueGrammar belongs to the LALR(1) class but not to the SLR(1) class.
//
//	S → L eq R | R
//	L → ref R | id
//	R → L
func lrValueGrammar(t *testing.T) *Grammar {
	t.Helper()

	b := NewBuilder("test")
	b.Terminal("eq", Literal("="))
	b.Terminal("ref", Literal("*"))
	b.Terminal("id", Pattern(`[A-Za-z0-9_]+`))
	b.LHS("S").RHS("L", "eq", "R").End()
	b.LHS("S").RHS("R").End()
	b.LHS("L").RHS("ref", "R").End()
	b.LHS("L").RHS("id").End()
	b.LHS("R").RHS("L").End()
	return mustBuild(t, b)
}

func genTestLALR1Automaton(t *testing.T, gram *Grammar) *lalr1Automaton {
	t.Helper()

	lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}

	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatalf("failed to create a FIRST set: %v", err)
	}

	automaton, err := genLALR1Automaton(lr0, gram.productionSet, firstSet)
	if err != nil {
		t.Fatalf("failed to create a LALR1 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLALR1Automaton returns nil without any error")
	}
	return automaton
}

func TestGenLALR1Automaton(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "yuzu.grammar")
	defer teardown()

	gram := lrValueGrammar(t)
	automaton := genTestLALR1Automaton(t, gram)

	if _, ok := automaton.state(automaton.initialState); !ok {
		t.Errorf("failed to get an initial status: %v", automaton.initialState)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	genProd := newTestProductionGenerator(t, genSym)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	expectedKernels := map[int][]*lrItem{
		0: {
			withLookAhead(genLR0Item("S'", 0, "S"), symbol.SymbolEOF),
		},
		1: {
			withLookAhead(genLR0Item("S'", 1, "S"), symbol.SymbolEOF),
		},
		2: {
			withLookAhead(genLR0Item("S", 1, "L", "eq", "R"), symbol.SymbolEOF),
			withLookAhead(genLR0Item("R", 1, "L"), symbol.SymbolEOF),
		},
		3: {
			withLookAhead(genLR0Item("S", 1, "R"), symbol.SymbolEOF),
		},
		4: {
			withLookAhead(genLR0Item("L", 1, "ref", "R"), genSym("eq"), symbol.SymbolEOF),
		},
		5: {
			withLookAhead(genLR0Item("L", 1, "id"), genSym("eq"), symbol.SymbolEOF),
		},
		6: {
			withLookAhead(genLR0Item("S", 2, "L", "eq", "R"), symbol.SymbolEOF),
		},
		7: {
			withLookAhead(genLR0Item("R", 1, "L"), genSym("eq"), symbol.SymbolEOF),
		},
		8: {
			withLookAhead(genLR0Item("L", 2, "ref", "R"), genSym("eq"), symbol.SymbolEOF),
		},
		9: {
			withLookAhead(genLR0Item("S", 3, "L", "eq", "R"), symbol.SymbolEOF),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: expectedKernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("S"):   expectedKernels[1],
				genSym("L"):   expectedKernels[2],
				genSym("R"):   expectedKernels[3],
				genSym("ref"): expectedKernels[4],
				genSym("id"):  expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[1],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("S'", "S"),
			},
		},
		{
			kernelItems: expectedKernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("eq"): expectedKernels[6],
			},
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: expectedKernels[3],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("S", "R"),
			},
		},
		{
			kernelItems: expectedKernels[4],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("R"):   expectedKernels[8],
				genSym("L"):   expectedKernels[7],
				genSym("ref"): expectedKernels[4],
				genSym("id"):  expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[5],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("L", "id"),
			},
		},
		{
			kernelItems: expectedKernels[6],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("R"):   expectedKernels[9],
				genSym("L"):   expectedKernels[7],
				genSym("ref"): expectedKernels[4],
				genSym("id"):  expectedKernels[5],
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: expectedKernels[7],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: expectedKernels[8],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("L", "ref", "R"),
			},
		},
		{
			kernelItems: expectedKernels[9],
			nextStates:  map[symbol.Symbol][]*lrItem{},
			reducibleProds: []*production{
				genProd("S", "L", "eq", "R"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton.lr0Automaton)
}

func TestGenLALR1Automaton_EmptyProductionLookAhead(t *testing.T) {
	b := NewBuilder("test")
	b.Terminal("b", Literal("bar"))
	b.LHS("s").RHS("foo", "bar").End()
	b.LHS("foo").Epsilon()
	b.LHS("bar").RHS("b").End()
	b.LHS("bar").Epsilon()
	gram := mustBuild(t, b)

	automaton := genTestLALR1Automaton(t, gram)

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	genProd := newTestProductionGenerator(t, genSym)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	tests := []struct {
		state     stateNum
		item      *lrItem
		lookAhead []symbol.Symbol
	}{
		// foo → ε is reduced in the initial state before `b` or the end of input.
		{
			state:     0,
			item:      genLR0Item("foo", 0),
			lookAhead: []symbol.Symbol{genSym("b"), symbol.SymbolEOF},
		},
		{
			state:     2,
			item:      genLR0Item("bar", 0),
			lookAhead: []symbol.Symbol{symbol.SymbolEOF},
		},
	}
	for _, tt := range tests {
		state, ok := automaton.state(tt.state)
		if !ok {
			t.Fatalf("state %v was not found", tt.state)
		}
		item, ok := state.findReducibleItem(tt.item.id)
		if !ok {
			t.Fatalf("item was not found in state %v", tt.state)
		}
		if len(item.lookAhead.symbols) != len(tt.lookAhead) {
			t.Fatalf("unexpected look-ahead symbols in state %v; want: %v, got: %v", tt.state, tt.lookAhead, item.lookAhead.symbols)
		}
		for _, sym := range tt.lookAhead {
			if _, ok := item.lookAhead.symbols[sym]; !ok {
				t.Fatalf("look-ahead symbol %v was not found in state %v", sym, tt.state)
			}
		}
	}
}
