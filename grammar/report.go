package grammar

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/nihei9/yuzu/grammar/symbol"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

func assocText(assoc assocType) string {
	switch assoc {
	case assocTypeLeft:
		return "l"
	case assocTypeRight:
		return "r"
	case assocTypeNonAssoc:
		return "n"
	}
	return ""
}

func genReport(gram *Grammar, tab *ParsingTable, automaton *lr0Automaton, conflicts []*conflict, withStates bool) (*spec.Report, error) {
	symTab := gram.symbolTable.Reader()
	pa := gram.precAndAssoc

	patterns := map[symbol.Symbol]string{}
	for _, e := range gram.lexEntries {
		patterns[e.terminal] = e.pattern
	}

	termSyms := symTab.TerminalSymbols()
	terms := make([]*spec.Terminal, symTab.TerminalCount())
	for _, sym := range termSyms {
		name, ok := symTab.ToText(sym)
		if !ok {
			return nil, fmt.Errorf("failed to generate terminals: symbol not found: %v", sym)
		}
		terms[sym.Num()] = &spec.Terminal{
			Number:        sym.Num().Int(),
			Name:          name,
			Alias:         gram.aliases[sym],
			Pattern:       patterns[sym],
			Precedence:    pa.terminalPrecedence(sym.Num()),
			Associativity: assocText(pa.terminalAssociativity(sym.Num())),
		}
	}

	nonTermSyms := symTab.NonTerminalSymbols()
	nonTerms := make([]*spec.NonTerminal, symTab.NonTerminalCount())
	for _, sym := range nonTermSyms {
		name, ok := symTab.ToText(sym)
		if !ok {
			return nil, fmt.Errorf("failed to generate non-terminals: symbol not found: %v", sym)
		}
		nonTerms[sym.Num()] = &spec.NonTerminal{
			Number: sym.Num().Int(),
			Name:   name,
		}
	}

	ps := gram.productionSet.getAllProductions()
	prods := make([]*spec.Production, len(ps))
	for _, p := range ps {
		rhs := make([]int, len(p.rhs))
		for i, e := range p.rhs {
			if e.IsTerminal() {
				rhs[i] = e.Num().Int()
			} else {
				rhs[i] = e.Num().Int() * -1
			}
		}
		prods[p.num.Int()] = &spec.Production{
			Number:        p.num.Int(),
			LHS:           p.lhs.Num().Int(),
			RHS:           rhs,
			Action:        p.action,
			Recover:       p.recover,
			Precedence:    pa.productionPrecedence(p.num),
			Associativity: assocText(pa.productionAssociativity(p.num)),
		}
	}

	specConflicts := make([]*spec.Conflict, len(conflicts))
	byState := treemap.NewWith(utils.IntComparator)
	for i, c := range conflicts {
		sc := c.toSpec()
		specConflicts[i] = sc
		var cs []*spec.Conflict
		if v, ok := byState.Get(sc.State); ok {
			cs = v.([]*spec.Conflict)
		}
		byState.Put(sc.State, append(cs, sc))
	}

	report := &spec.Report{
		Name:         gram.name,
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		Conflicts:    specConflicts,
	}
	if !withStates {
		return report, nil
	}

	states := make([]*spec.State, len(automaton.states))
	for _, s := range automaton.states {
		kernel, err := genReportItems(gram.productionSet, s.items)
		if err != nil {
			return nil, err
		}
		emptyItems, err := genReportItems(gram.productionSet, s.emptyProdItems)
		if err != nil {
			return nil, err
		}

		var shift []*spec.Transition
		var reduce []*spec.Reduce
		var goTo []*spec.Transition
		reduceByProd := map[int]*spec.Reduce{}
		for _, t := range termSyms {
			act, next, prod := tab.getAction(s.num, t.Num())
			switch act {
			case ActionTypeShift:
				shift = append(shift, &spec.Transition{
					Symbol: t.Num().Int(),
					State:  next.Int(),
				})
			case ActionTypeReduce, ActionTypeAccept:
				if r, ok := reduceByProd[prod.Int()]; ok {
					r.LookAhead = append(r.LookAhead, t.Num().Int())
					continue
				}
				r := &spec.Reduce{
					LookAhead:  []int{t.Num().Int()},
					Production: prod.Int(),
				}
				reduceByProd[prod.Int()] = r
				reduce = append(reduce, r)
			}
		}
		for _, n := range nonTermSyms {
			ty, next := tab.getGoTo(s.num, n.Num())
			if ty == GoToTypeRegistered {
				goTo = append(goTo, &spec.Transition{
					Symbol: n.Num().Int(),
					State:  next.Int(),
				})
			}
		}
		sort.Slice(reduce, func(i, j int) bool {
			return reduce[i].Production < reduce[j].Production
		})

		var cs []*spec.Conflict
		if v, ok := byState.Get(s.num.Int()); ok {
			cs = v.([]*spec.Conflict)
		}

		states[s.num.Int()] = &spec.State{
			Number:     s.num.Int(),
			Kernel:     kernel,
			Shift:      shift,
			Reduce:     reduce,
			GoTo:       goTo,
			Conflicts:  cs,
			ErrorTrap:  s.isErrorTrapper,
			EmptyItems: emptyItems,
		}
	}
	report.States = states

	return report, nil
}

func genReportItems(prods *productionSet, items []*lrItem) ([]*spec.Item, error) {
	result := make([]*spec.Item, 0, len(items))
	for _, item := range items {
		p, ok := prods.findByID(item.prod)
		if !ok {
			return nil, fmt.Errorf("failed to generate states: production of an item not found: %v", item.prod)
		}
		var la []int
		if item.reducible {
			set := treeset.NewWith(utils.IntComparator)
			for a := range item.lookAhead.symbols {
				set.Add(a.Num().Int())
			}
			for _, v := range set.Values() {
				la = append(la, v.(int))
			}
		}
		result = append(result, &spec.Item{
			Production: p.num.Int(),
			Dot:        item.dot,
			LookAhead:  la,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Production != result[j].Production {
			return result[i].Production < result[j].Production
		}
		return result[i].Dot < result[j].Dot
	})
	return result, nil
}
