package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/yuzu/grammar/symbol"
)

// lr0Automaton keeps states in an arena. A state number is an index of states, and the transitions refer
// to states by number.
type lr0Automaton struct {
	initialState stateNum
	states       []*lrState
	kernel2State map[kernelID]stateNum
}

func (a *lr0Automaton) state(num stateNum) (*lrState, bool) {
	if num < 0 || num.Int() >= len(a.states) {
		return nil, false
	}
	return a.states[num], true
}

// genLR0Automaton explores states in breadth-first order. A state gets its number when it is discovered,
// and the neighbours of a state are visited in ascending order of the transition symbols, so the
// numbering depends only on the grammar.
func genLR0Automaton(prods *productionSet, startSym symbol.Symbol, errSym symbol.Symbol) (*lr0Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol: %v", startSym)
	}

	automaton := &lr0Automaton{
		initialState: stateNumInitial,
		kernel2State: map[kernelID]stateNum{},
	}

	var queue []*kernel
	discover := func(k *kernel) stateNum {
		if num, ok := automaton.kernel2State[k.id]; ok {
			return num
		}
		num := stateNum(len(automaton.states))
		automaton.kernel2State[k.id] = num
		automaton.states = append(automaton.states, &lrState{
			kernel: k,
			num:    num,
		})
		queue = append(queue, k)
		return num
	}

	{
		ps, _ := prods.findByLHS(startSym)
		if len(ps) == 0 {
			return nil, fmt.Errorf("the start symbol has no production")
		}
		initialItem, err := newLR0Item(ps[0], 0)
		if err != nil {
			return nil, err
		}
		k, err := newKernel([]*lrItem{initialItem})
		if err != nil {
			return nil, err
		}
		discover(k)
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]

		state := automaton.states[automaton.kernel2State[k.id]]
		neighbours, err := fillState(state, prods, errSym)
		if err != nil {
			return nil, err
		}
		state.next = map[symbol.Symbol]stateNum{}
		for _, n := range neighbours {
			state.next[n.symbol] = discover(n.kernel)
		}
	}

	tracer().Debugf("LR(0) automaton: %v states", len(automaton.states))

	return automaton, nil
}

func fillState(state *lrState, prods *productionSet, errSym symbol.Symbol) ([]*neighbourKernel, error) {
	items, err := genLR0Closure(state.kernel, prods)
	if err != nil {
		return nil, err
	}
	neighbours, err := genNeighbourKernels(items, prods)
	if err != nil {
		return nil, err
	}

	reducible := map[productionID]struct{}{}
	var emptyProdItems []*lrItem
	isErrorTrapper := false
	for _, item := range items {
		if !errSym.IsNil() && item.dottedSymbol == errSym {
			isErrorTrapper = true
		}
		if !item.reducible {
			continue
		}
		reducible[item.prod] = struct{}{}

		prod, ok := prods.findByID(item.prod)
		if !ok {
			return nil, fmt.Errorf("reducible production not found: %v", item.prod)
		}
		if prod.isEmpty() {
			emptyProdItems = append(emptyProdItems, item)
		}
	}

	state.reducible = reducible
	state.emptyProdItems = emptyProdItems
	state.isErrorTrapper = isErrorTrapper

	return neighbours, nil
}

func genLR0Closure(k *kernel, prods *productionSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range k.items {
		items = append(items, item)
		knownItems[item.id] = struct{}{}
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				item, err := newLR0Item(prod, 0)
				if err != nil {
					return nil, err
				}
				if _, exist := knownItems[item.id]; exist {
					continue
				}
				items = append(items, item)
				knownItems[item.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, item)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items, nil
}

type neighbourKernel struct {
	symbol symbol.Symbol
	kernel *kernel
}

func genNeighbourKernels(items []*lrItem, prods *productionSet) ([]*neighbourKernel, error) {
	kItemMap := map[symbol.Symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() {
			continue
		}
		prod, ok := prods.findByID(item.prod)
		if !ok {
			return nil, fmt.Errorf("a production was not found: %v", item.prod)
		}
		kItem, err := newLR0Item(prod, item.dot+1)
		if err != nil {
			return nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := make([]symbol.Symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool {
		return nextSyms[i] < nextSyms[j]
	})

	kernels := make([]*neighbourKernel, 0, len(nextSyms))
	for _, sym := range nextSyms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}

	return kernels, nil
}
