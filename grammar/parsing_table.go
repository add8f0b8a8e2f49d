package grammar

import (
	"fmt"

	"github.com/nihei9/yuzu/grammar/symbol"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
	ActionTypeError  = ActionType("error")
)

// actionEntry is 0 for an error, -s for a shift to state s, and p+1 for a reduction of production p.
// A reduction of the augmented start production means acceptance.
type actionEntry int

const actionEntryEmpty = actionEntry(0)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod + 1)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	switch {
	case e == actionEntryEmpty:
		return ActionTypeError, stateNumInitial, productionNumStart
	case e < 0:
		return ActionTypeShift, stateNum(e * -1), productionNumStart
	case productionNum(e-1) == productionNumStart:
		return ActionTypeAccept, stateNumInitial, productionNumStart
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e - 1)
}

func (e actionEntry) toSpec() *spec.Action {
	ty, s, p := e.describe()
	switch ty {
	case ActionTypeShift:
		return &spec.Action{
			Type:  spec.ActionTypeShift,
			State: s.Int(),
		}
	case ActionTypeReduce, ActionTypeAccept:
		return &spec.Action{
			Type:       spec.ActionTypeReduce,
			Production: p.Int(),
		}
	}
	return nil
}

func (e actionEntry) text(gram *Grammar) string {
	ty, s, p := e.describe()
	switch ty {
	case ActionTypeShift:
		return fmt.Sprintf("shift %v", s)
	case ActionTypeReduce, ActionTypeAccept:
		prod, _ := gram.productionSet.findByNum(p)
		return fmt.Sprintf("reduce %v: %v", p, gram.productionText(prod))
	}
	return "error"
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type ParsingTable struct {
	actionTable      []actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	// errorTrapperStates[s] is 1 when state s has an item `A → α・error β`.
	errorTrapperStates []int

	InitialState stateNum
}

func (t *ParsingTable) getAction(state stateNum, sym symbol.Num) (ActionType, stateNum, productionNum) {
	return t.readAction(state, sym).describe()
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbol.Num) (GoToType, stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Int()
	return t.goToTable[pos].describe()
}

func (t *ParsingTable) readAction(state stateNum, sym symbol.Num) actionEntry {
	return t.actionTable[state.Int()*t.terminalCount+sym.Int()]
}

func (t *ParsingTable) writeAction(state stateNum, sym symbol.Num, act actionEntry) {
	t.actionTable[state.Int()*t.terminalCount+sym.Int()] = act
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

type lrTableBuilder struct {
	automaton    *lr0Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader
	resolver     *conflictResolver

	conflicts []*conflict
}

// build collects every legal action of each (state, terminal) pair before deciding anything, so the
// result doesn't depend on the order in which shifts and reductions are found.
func (b *lrTableBuilder) build() (*ParsingTable, error) {
	ptab := &ParsingTable{
		actionTable:        make([]actionEntry, len(b.automaton.states)*b.termCount),
		goToTable:          make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
		stateCount:         len(b.automaton.states),
		terminalCount:      b.termCount,
		nonTerminalCount:   b.nonTermCount,
		errorTrapperStates: make([]int, len(b.automaton.states)),
		InitialState:       b.automaton.initialState,
	}

	terms := b.symTab.TerminalSymbols()
	for _, state := range b.automaton.states {
		if state.isErrorTrapper {
			ptab.errorTrapperStates[state.num] = 1
		}

		shifts := map[symbol.Symbol]actionEntry{}
		for sym, next := range state.next {
			if sym.IsTerminal() {
				shifts[sym] = newShiftActionEntry(next)
			} else {
				ptab.writeGoTo(state.num, sym, next)
			}
		}

		reduces := map[symbol.Symbol][]productionNum{}
		for prodID := range state.reducible {
			prod, ok := b.prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodID)
			}
			item, err := newLR0Item(prod, prod.rhsLen)
			if err != nil {
				return nil, err
			}
			reducibleItem, ok := state.findReducibleItem(item.id)
			if !ok {
				return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, prod.num)
			}
			for a := range reducibleItem.lookAhead.symbols {
				reduces[a] = append(reduces[a], prod.num)
			}
		}

		for _, sym := range terms {
			shift, ok := shifts[sym]
			if !ok {
				shift = actionEntryEmpty
			}
			act, cs := b.resolver.resolve(state.num, sym, shift, reduces[sym])
			b.conflicts = append(b.conflicts, cs...)
			if !act.isEmpty() {
				ptab.writeAction(state.num, sym.Num(), act)
			}
		}
	}

	tracer().Debugf("parsing table: %v states, %v conflicts", ptab.stateCount, len(b.conflicts))

	return ptab, nil
}
