package grammar

import (
	"fmt"

	"github.com/nihei9/yuzu/grammar/symbol"
)

// lookAheadDummy stands for `#`, the look-ahead symbol used to find which look-ahead symbols propagate.
// No real terminal is equal to it.
const lookAheadDummy = symbol.SymbolNil

type stateAndLRItem struct {
	state  stateNum
	itemID lrItemID
}

type lalr1Automaton struct {
	*lr0Automaton
}

// genLALR1Automaton attaches look-ahead symbols to the LR(0) items. For each kernel item it computes the
// LR(1) closure with the dummy look-ahead `#`. A real terminal found in the closure is a spontaneous
// look-ahead of the item it reaches, and `#` found in the closure means the kernel item propagates its
// look-ahead symbols to that item.
func genLALR1Automaton(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (*lalr1Automaton, error) {
	iniState, ok := lr0.state(lr0.initialState)
	if !ok {
		return nil, fmt.Errorf("initial state not found: %v", lr0.initialState)
	}
	// [S' → ・S, <eof>]
	iniState.items[0].lookAhead.add(symbol.SymbolEOF)

	props := map[stateAndLRItem][]stateAndLRItem{}
	for _, state := range lr0.states {
		for _, kItem := range state.items {
			kItem.lookAhead.propagation = true

			items, err := genLALR1Closure(kItem, prods, first)
			if err != nil {
				return nil, err
			}

			src := stateAndLRItem{
				state:  state.num,
				itemID: kItem.id,
			}
			for _, item := range items {
				var dest *lrItem
				var destNode stateAndLRItem
				if item.reducible {
					p, ok := prods.findByID(item.prod)
					if !ok {
						return nil, fmt.Errorf("production not found: %v", item.prod)
					}
					if !p.isEmpty() {
						continue
					}
					dest, ok = state.findReducibleItem(item.id)
					if !ok {
						return nil, fmt.Errorf("reducible item not found: %v", item.id)
					}
					destNode = stateAndLRItem{
						state:  state.num,
						itemID: item.id,
					}
				} else {
					nextNum, ok := state.next[item.dottedSymbol]
					if !ok {
						return nil, fmt.Errorf("transition not found; state: %v, symbol: %v", state.num, item.dottedSymbol)
					}
					nextState, _ := lr0.state(nextNum)
					p, ok := prods.findByID(item.prod)
					if !ok {
						return nil, fmt.Errorf("production not found: %v", item.prod)
					}
					nextItem, err := newLR0Item(p, item.dot+1)
					if err != nil {
						return nil, err
					}
					dest, ok = nextState.findItem(nextItem.id)
					if !ok {
						return nil, fmt.Errorf("item not found; state: %v, item: %v", nextNum, nextItem.id)
					}
					destNode = stateAndLRItem{
						state:  nextNum,
						itemID: nextItem.id,
					}
				}

				for a := range item.lookAhead.symbols {
					if a == lookAheadDummy {
						continue
					}
					dest.lookAhead.add(a)
				}
				if item.lookAhead.propagation {
					props[src] = append(props[src], destNode)
				}
			}
		}
	}

	if err := propagateLookAhead(lr0, props); err != nil {
		return nil, fmt.Errorf("failed to propagate look-ahead symbols: %w", err)
	}

	return &lalr1Automaton{
		lr0Automaton: lr0,
	}, nil
}

// genLALR1Closure computes the LR(1) closure of [srcItem, #]. In the result, propagation marks items
// having `#` as a look-ahead symbol, and lookAhead.symbols holds the real terminals.
func genLALR1Closure(srcItem *lrItem, prods *productionSet, first *firstSet) ([]*lrItem, error) {
	type entry struct {
		item *lrItem
		la   symbol.Symbol
	}

	closure := map[lrItemID]*lrItem{}
	order := []lrItemID{}
	addItem := func(item *lrItem, la symbol.Symbol) (*lrItem, bool) {
		it, ok := closure[item.id]
		if !ok {
			it = &lrItem{
				id:           item.id,
				prod:         item.prod,
				dot:          item.dot,
				dottedSymbol: item.dottedSymbol,
				initial:      item.initial,
				reducible:    item.reducible,
				kernel:       item.kernel,
			}
			closure[item.id] = it
			order = append(order, item.id)
		}
		if la == lookAheadDummy {
			if it.lookAhead.propagation {
				return it, false
			}
			it.lookAhead.propagation = true
			return it, true
		}
		return it, it.lookAhead.add(la)
	}

	queue := []*entry{}
	{
		it, _ := addItem(srcItem, lookAheadDummy)
		queue = append(queue, &entry{item: it, la: lookAheadDummy})
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if !e.item.dottedSymbol.IsNonTerminal() {
			continue
		}

		p, ok := prods.findByID(e.item.prod)
		if !ok {
			return nil, fmt.Errorf("production not found: %v", e.item.prod)
		}
		fst, err := first.find(p, e.item.dot+1)
		if err != nil {
			return nil, err
		}
		las := make([]symbol.Symbol, 0, len(fst.symbols)+1)
		for s := range fst.symbols {
			las = append(las, s)
		}
		if fst.empty {
			las = append(las, e.la)
		}

		ps, _ := prods.findByLHS(e.item.dottedSymbol)
		for _, prod := range ps {
			newItem, err := newLR0Item(prod, 0)
			if err != nil {
				return nil, err
			}
			for _, a := range las {
				it, added := addItem(newItem, a)
				if !added {
					continue
				}
				queue = append(queue, &entry{item: it, la: a})
			}
		}
	}

	items := make([]*lrItem, 0, len(order))
	for _, id := range order {
		items = append(items, closure[id])
	}
	return items, nil
}

// propagateLookAhead passes look-ahead symbols along the propagation links until no item gains a symbol.
// Only an item whose set grew goes back to the work queue.
func propagateLookAhead(lr0 *lr0Automaton, props map[stateAndLRItem][]stateAndLRItem) error {
	find := func(node stateAndLRItem) (*lrItem, error) {
		state, ok := lr0.state(node.state)
		if !ok {
			return nil, fmt.Errorf("state not found: %v", node.state)
		}
		item, ok := state.findReducibleItem(node.itemID)
		if !ok {
			return nil, fmt.Errorf("item not found; state: %v, item: %v", node.state, node.itemID)
		}
		return item, nil
	}

	var queue []stateAndLRItem
	queued := map[stateAndLRItem]bool{}
	for _, state := range lr0.states {
		for _, item := range state.items {
			node := stateAndLRItem{
				state:  state.num,
				itemID: item.id,
			}
			if len(item.lookAhead.symbols) == 0 {
				continue
			}
			if _, ok := props[node]; !ok {
				continue
			}
			queue = append(queue, node)
			queued[node] = true
		}
	}

	for len(queue) > 0 {
		src := queue[0]
		queue = queue[1:]
		queued[src] = false

		srcItem, err := find(src)
		if err != nil {
			return err
		}
		for _, dest := range props[src] {
			destItem, err := find(dest)
			if err != nil {
				return err
			}
			changed := false
			for a := range srcItem.lookAhead.symbols {
				if destItem.lookAhead.add(a) {
					changed = true
				}
			}
			if !changed || queued[dest] {
				continue
			}
			if _, ok := props[dest]; !ok {
				continue
			}
			queued[dest] = true
			queue = append(queue, dest)
		}
	}

	return nil
}
