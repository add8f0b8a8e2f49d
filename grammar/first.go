package grammar

import (
	"github.com/nihei9/yuzu/grammar/symbol"
)

type firstEntry struct {
	symbols map[symbol.Symbol]struct{}

	// empty is true when the symbol or the sequence is nullable.
	empty bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[symbol.Symbol]struct{}{},
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if e.empty {
		return false
	}
	e.empty = true
	return true
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	changed := false
	for sym := range target.symbols {
		if e.add(sym) {
			changed = true
		}
	}
	return changed
}

type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

func newFirstSet(prods *productionSet) *firstSet {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}
	return fst
}

// find returns FIRST of the RHS suffix of a production starting at head.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	entry := newFirstEntry()
	if prod.rhsLen <= head {
		entry.addEmpty()
		return entry, nil
	}
	for _, sym := range prod.rhs[head:] {
		if sym.IsTerminal() {
			entry.add(sym)
			return entry, nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return nil, &GrammarError{
				Cause:  ErrUndeclaredSymbol,
				Detail: sym.String(),
			}
		}
		for s := range e.symbols {
			entry.add(s)
		}
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func (fst *firstSet) findBySymbol(sym symbol.Symbol) *firstEntry {
	return fst.set[sym]
}

func (fst *firstSet) nullable(sym symbol.Symbol) bool {
	e := fst.findBySymbol(sym)
	return e != nil && e.empty
}

// genFirstSet computes nullability and FIRST of every non-terminal. A production goes back to the work
// queue only when the entry of a non-terminal on its RHS grows, so the computation stops as soon as no
// entry changes.
func genFirstSet(prods *productionSet) (*firstSet, error) {
	fst := newFirstSet(prods)

	dependents := map[symbol.Symbol][]*production{}
	for _, prod := range prods.getAllProductions() {
		seen := map[symbol.Symbol]struct{}{}
		for _, sym := range prod.rhs {
			if sym.IsTerminal() {
				continue
			}
			if fst.findBySymbol(sym) == nil {
				return nil, &GrammarError{
					Cause:  ErrUndeclaredSymbol,
					Detail: sym.String(),
				}
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			dependents[sym] = append(dependents[sym], prod)
		}
	}

	queue := make([]*production, 0, len(prods.getAllProductions()))
	queued := map[productionNum]bool{}
	for _, prod := range prods.getAllProductions() {
		queue = append(queue, prod)
		queued[prod.num] = true
	}

	for len(queue) > 0 {
		prod := queue[0]
		queue = queue[1:]
		queued[prod.num] = false

		if !genProdFirstEntry(fst, fst.findBySymbol(prod.lhs), prod) {
			continue
		}
		for _, dep := range dependents[prod.lhs] {
			if queued[dep.num] {
				continue
			}
			queued[dep.num] = true
			queue = append(queue, dep)
		}
	}

	return fst, nil
}

func genProdFirstEntry(fst *firstSet, acc *firstEntry, prod *production) bool {
	if prod.isEmpty() {
		return acc.addEmpty()
	}

	changed := false
	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return acc.add(sym) || changed
		}

		e := fst.findBySymbol(sym)
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if !e.empty {
			return changed
		}
	}
	return acc.addEmpty() || changed
}
