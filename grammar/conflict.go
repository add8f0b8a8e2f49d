package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nihei9/yuzu/grammar/symbol"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

type conflictResolutionMethod int

func (m conflictResolutionMethod) Int() int {
	return int(m)
}

func (m conflictResolutionMethod) String() string {
	switch m {
	case ResolvedByPrec:
		return "precedence"
	case ResolvedByAssoc:
		return "associativity"
	case ResolvedByShift:
		return "shift by default"
	case ResolvedByProdOrder:
		return "production order"
	}
	return "unknown"
}

const (
	ResolvedByPrec      conflictResolutionMethod = spec.ResolvedByPrec
	ResolvedByAssoc     conflictResolutionMethod = spec.ResolvedByAssoc
	ResolvedByShift     conflictResolutionMethod = spec.ResolvedByShift
	ResolvedByProdOrder conflictResolutionMethod = spec.ResolvedByProdOrder
)

type conflictKind int

const (
	conflictKindShiftReduce conflictKind = iota
	conflictKindReduceReduce
)

// conflict is a (state, terminal) pair that had several legal actions. candidates are ordered: a shift
// first, then reductions in ascending order of production numbers.
type conflict struct {
	kind       conflictKind
	state      stateNum
	sym        symbol.Symbol
	candidates []actionEntry
	adopted    actionEntry
	resolvedBy conflictResolutionMethod
}

// unresolved reports whether a default rule, not precedence or associativity, chose the action.
func (c *conflict) unresolved() bool {
	return c.resolvedBy == ResolvedByShift || c.resolvedBy == ResolvedByProdOrder
}

// ConflictError is returned by Compile with ConflictsAsErrors when a conflict was settled by a default
// rule.
type ConflictError struct {
	Conflicts []*spec.Conflict
	messages  []string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v conflicts were resolved by default rules", len(e.Conflicts))
	for _, msg := range e.messages {
		fmt.Fprintf(&b, "\n%v", msg)
	}
	return b.String()
}

type conflictResolver struct {
	precAndAssoc *precAndAssoc
}

// resolve decides the action of a (state, terminal) pair. When a shift competes with several reductions,
// the reduce/reduce conflict is resolved first, and the winning reduction then competes with the shift.
// It returns every conflict it settled.
func (r *conflictResolver) resolve(state stateNum, sym symbol.Symbol, shift actionEntry, reduces []productionNum) (actionEntry, []*conflict) {
	if len(reduces) == 0 {
		return shift, nil
	}

	var conflicts []*conflict

	sorted := make([]productionNum, len(reduces))
	copy(sorted, reduces)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	reduce := sorted[0]
	if len(sorted) > 1 {
		candidates := make([]actionEntry, len(sorted))
		for i, p := range sorted {
			candidates[i] = newReduceActionEntry(p)
		}
		conflicts = append(conflicts, &conflict{
			kind:       conflictKindReduceReduce,
			state:      state,
			sym:        sym,
			candidates: candidates,
			adopted:    newReduceActionEntry(reduce),
			resolvedBy: ResolvedByProdOrder,
		})
	}

	if shift.isEmpty() {
		return newReduceActionEntry(reduce), conflicts
	}

	ty, method := r.resolveSRConflict(sym.Num(), reduce)
	adopted := shift
	if ty == ActionTypeReduce {
		adopted = newReduceActionEntry(reduce)
	}
	conflicts = append(conflicts, &conflict{
		kind:       conflictKindShiftReduce,
		state:      state,
		sym:        sym,
		candidates: []actionEntry{shift, newReduceActionEntry(reduce)},
		adopted:    adopted,
		resolvedBy: method,
	})

	return adopted, conflicts
}

func (r *conflictResolver) resolveSRConflict(sym symbol.Num, prod productionNum) (ActionType, conflictResolutionMethod) {
	symPrec := r.precAndAssoc.terminalPrecedence(sym)
	prodPrec := r.precAndAssoc.productionPrecedence(prod)
	if symPrec == precNil || prodPrec == precNil {
		return ActionTypeShift, ResolvedByShift
	}
	if symPrec > prodPrec {
		return ActionTypeShift, ResolvedByPrec
	}
	if symPrec < prodPrec {
		return ActionTypeReduce, ResolvedByPrec
	}

	switch r.precAndAssoc.terminalAssociativity(sym) {
	case assocTypeLeft:
		return ActionTypeReduce, ResolvedByAssoc
	case assocTypeRight:
		return ActionTypeShift, ResolvedByAssoc
	}
	return ActionTypeShift, ResolvedByShift
}

func (c *conflict) toSpec() *spec.Conflict {
	kind := spec.ConflictKindShiftReduce
	if c.kind == conflictKindReduceReduce {
		kind = spec.ConflictKindReduceReduce
	}
	candidates := make([]*spec.Action, len(c.candidates))
	for i, e := range c.candidates {
		candidates[i] = e.toSpec()
	}
	return &spec.Conflict{
		Kind:       kind,
		State:      c.state.Int(),
		Terminal:   c.sym.Num().Int(),
		Candidates: candidates,
		Adopted:    c.adopted.toSpec(),
		ResolvedBy: c.resolvedBy.Int(),
	}
}

func (c *conflict) describe(gram *Grammar) string {
	var b strings.Builder
	kind := "shift/reduce"
	if c.kind == conflictKindReduceReduce {
		kind = "reduce/reduce"
	}
	fmt.Fprintf(&b, "%v conflict in state %v on %v:", kind, c.state, gram.symbolText(c.sym))
	for _, e := range c.candidates {
		fmt.Fprintf(&b, " [%v]", e.text(gram))
	}
	fmt.Fprintf(&b, "; adopted [%v] by %v", c.adopted.text(gram), c.resolvedBy)
	return b.String()
}
