package grammar

import (
	"fmt"

	spec "github.com/nihei9/yuzu/spec/grammar"
)

func genDiagnostics(gram *Grammar, tab *ParsingTable, conflicts []*conflict, conflictsAsErrors bool) []*spec.Diagnostic {
	var diags []*spec.Diagnostic

	conflictSeverity := spec.SeverityWarning
	if conflictsAsErrors {
		conflictSeverity = spec.SeverityError
	}
	for _, c := range conflicts {
		if !c.unresolved() {
			continue
		}
		kind := spec.DiagnosticKindShiftReduce
		if c.kind == conflictKindReduceReduce {
			kind = spec.DiagnosticKindReduceReduce
		}
		state := c.state.Int()
		term := c.sym.Num().Int()
		diags = append(diags, &spec.Diagnostic{
			Kind:     kind,
			Severity: conflictSeverity,
			Message:  c.describe(gram),
			State:    &state,
			Terminal: &term,
		})
	}

	for _, sym := range gram.unusedTerminals {
		term := sym.Num().Int()
		diags = append(diags, &spec.Diagnostic{
			Kind:     spec.DiagnosticKindUnusedTerm,
			Severity: spec.SeverityWarning,
			Message:  fmt.Sprintf("terminal %v is declared but never used", gram.symbolText(sym)),
			Terminal: &term,
		})
	}

	for _, p := range findUnreducibleProductions(gram, tab) {
		num := p.num.Int()
		diags = append(diags, &spec.Diagnostic{
			Kind:       spec.DiagnosticKindUnreducibleProd,
			Severity:   spec.SeverityWarning,
			Message:    fmt.Sprintf("production %v can never be reduced: %v", p.num, gram.productionText(p)),
			Production: &num,
		})
	}

	return diags
}

// findUnreducibleProductions returns productions no ACTION entry reduces. Such a production lost every
// conflict it took part in.
func findUnreducibleProductions(gram *Grammar, tab *ParsingTable) []*production {
	reduced := map[productionNum]struct{}{}
	for _, e := range tab.actionTable {
		ty, _, p := e.describe()
		if ty == ActionTypeReduce || ty == ActionTypeAccept {
			reduced[p] = struct{}{}
		}
	}

	var prods []*production
	for _, p := range gram.productionSet.getAllProductions() {
		if _, ok := reduced[p.num]; !ok {
			prods = append(prods, p)
		}
	}
	return prods
}
