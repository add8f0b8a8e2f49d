package parser

import (
	"fmt"

	"github.com/nihei9/yuzu/compressor"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

// Grammar is a read-only view of compiled parsing tables. One Grammar can serve any number of concurrent
// parses.
type Grammar interface {
	Name() string

	// InitialState returns the state a parser starts in.
	InitialState() int

	// StartProduction returns the augmented start production. Reducing it means acceptance.
	StartProduction() int

	// Action returns an ACTION entry: 0 for an error, -s for a shift to state s, and p+1 for a reduction
	// of production p.
	Action(state int, terminal int) int

	// GoTo returns a GOTO entry, 0 when undefined.
	GoTo(state int, lhs int) int

	// ErrorTrapperState reports whether a state can shift the error symbol.
	ErrorTrapperState(state int) bool

	LHS(prod int) int
	AlternativeSymbolCount(prod int) int
	ActionID(prod int) string

	// RecoverProduction reports whether reducing a production ends error recovery.
	RecoverProduction(prod int) bool

	TerminalCount() int
	Terminal(terminal int) string
	TerminalAlias(terminal int) string

	// TerminalID finds a terminal by name.
	TerminalID(name string) (int, bool)
	NonTerminal(nonTerminal int) string

	// Fallback returns the terminal a terminal falls back to, 0 when it has none.
	Fallback(terminal int) int

	// Wildcard returns the terminal matching any token that has no action, 0 when the grammar has none.
	Wildcard() int

	EOF() int
	Error() int
}

var _ Grammar = &grammarImpl{}

type grammarImpl struct {
	name   string
	s      *spec.SyntacticSpec
	action func(state, terminal int) int
	goTo   func(state, lhs int) int
	terms  map[string]int
}

// NewGrammar makes a Grammar of compiled tables, plain or compressed.
func NewGrammar(g *spec.CompiledGrammar) (Grammar, error) {
	if g == nil || g.Syntactic == nil {
		return nil, fmt.Errorf("compiled grammar has no syntactic specification")
	}
	s := g.Syntactic

	action, err := genLookup(s.Action, s.CompressedAction, s.StateCount, s.TerminalCount)
	if err != nil {
		return nil, fmt.Errorf("invalid ACTION table: %w", err)
	}
	goTo, err := genLookup(s.GoTo, s.CompressedGoTo, s.StateCount, s.NonTerminalCount)
	if err != nil {
		return nil, fmt.Errorf("invalid GOTO table: %w", err)
	}

	terms := make(map[string]int, len(s.Terminals))
	for i, name := range s.Terminals {
		if name == "" {
			continue
		}
		terms[name] = i
	}

	return &grammarImpl{
		name:   g.Name,
		s:      s,
		action: action,
		goTo:   goTo,
		terms:  terms,
	}, nil
}

// genLookup checks the size of a table once, so lookups of in-range cells never fail afterwards.
func genLookup(plain []int, compressed *spec.CompressedTable, rowCount, colCount int) (func(row, col int) int, error) {
	if compressed == nil {
		if plain == nil {
			return nil, fmt.Errorf("table is missing")
		}
		if len(plain) != rowCount*colCount {
			return nil, fmt.Errorf("table size mismatch; want: %v x %v, got: %v entries", rowCount, colCount, len(plain))
		}
		return func(row, col int) int {
			return plain[row*colCount+col]
		}, nil
	}

	var c compressor.Compressor = compressed.Compressor()
	if c == nil {
		return nil, fmt.Errorf("compressed table is empty")
	}
	if rows, cols := c.OriginalTableSize(); rows != rowCount || cols != colCount {
		return nil, fmt.Errorf("table size mismatch; want: %v x %v, got: %v x %v", rowCount, colCount, rows, cols)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return func(row, col int) int {
		v, err := c.Lookup(row, col)
		if err != nil {
			tracer().Errorf("table lookup failed: %v", err)
			return 0
		}
		return v
	}, nil
}

func (g *grammarImpl) Name() string {
	return g.name
}

func (g *grammarImpl) InitialState() int {
	return g.s.InitialState
}

func (g *grammarImpl) StartProduction() int {
	return g.s.StartProduction
}

func (g *grammarImpl) Action(state int, terminal int) int {
	return g.action(state, terminal)
}

func (g *grammarImpl) GoTo(state int, lhs int) int {
	return g.goTo(state, lhs)
}

func (g *grammarImpl) ErrorTrapperState(state int) bool {
	return g.s.ErrorTrapperStates[state] != 0
}

func (g *grammarImpl) LHS(prod int) int {
	return g.s.LHSSymbols[prod]
}

func (g *grammarImpl) AlternativeSymbolCount(prod int) int {
	return g.s.AlternativeSymbolCounts[prod]
}

func (g *grammarImpl) ActionID(prod int) string {
	return g.s.ActionIDs[prod]
}

func (g *grammarImpl) RecoverProduction(prod int) bool {
	return g.s.RecoverProductions[prod] != 0
}

func (g *grammarImpl) TerminalCount() int {
	return g.s.TerminalCount
}

func (g *grammarImpl) Terminal(terminal int) string {
	return g.s.Terminals[terminal]
}

func (g *grammarImpl) TerminalAlias(terminal int) string {
	return g.s.TerminalAliases[terminal]
}

func (g *grammarImpl) TerminalID(name string) (int, bool) {
	id, ok := g.terms[name]
	return id, ok
}

func (g *grammarImpl) NonTerminal(nonTerminal int) string {
	return g.s.NonTerminals[nonTerminal]
}

func (g *grammarImpl) Fallback(terminal int) int {
	return g.s.Fallback[terminal]
}

func (g *grammarImpl) Wildcard() int {
	return g.s.Wildcard
}

func (g *grammarImpl) EOF() int {
	return g.s.EOFSymbol
}

func (g *grammarImpl) Error() int {
	return g.s.ErrorSymbol
}
