package symbol

import (
	"fmt"
	"sort"
)

// Num is a number of a symbol. Terminals and non-terminals are numbered independently, so a number is
// meaningful only together with the kind of the symbol.
type Num uint16

func (n Num) Int() int {
	return int(n)
}

// Symbol is a grammar symbol packed into 16 bits.
//
//	bit 15    kind; 1 means a terminal
//	bit 14    the augmented start symbol when the symbol is a non-terminal, EOF when it is a terminal
//	bit 0-13  number
type Symbol uint16

const (
	bitTerminal    = uint16(0x8000)
	bitStartOrEOF  = uint16(0x4000)
	maskNumberPart = uint16(0x3fff)

	numStart = Num(1)
	numEOF   = Num(1)

	SymbolNil   = Symbol(0)
	SymbolStart = Symbol(bitStartOrEOF | uint16(numStart))
	SymbolEOF   = Symbol(bitTerminal | bitStartOrEOF | uint16(numEOF))

	// NameEOF contains `<` and `>` so that it never conflicts with user-defined symbols.
	NameEOF = "<eof>"

	NonTerminalNumMin = Num(2)
	TerminalNumMin    = Num(2)
	numMax            = Num(maskNumberPart)
)

func newSymbol(terminal bool, num Num) (Symbol, error) {
	if num > numMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", numMax, num)
	}
	if terminal {
		return Symbol(bitTerminal | uint16(num)), nil
	}
	return Symbol(uint16(num)), nil
}

func (s Symbol) String() string {
	switch {
	case s.IsNil():
		return "nil"
	case s.IsStart():
		return fmt.Sprintf("s%v", s.Num())
	case s.IsEOF():
		return fmt.Sprintf("e%v", s.Num())
	case s.IsTerminal():
		return fmt.Sprintf("t%v", s.Num())
	}
	return fmt.Sprintf("n%v", s.Num())
}

func (s Symbol) Num() Num {
	return Num(uint16(s) & maskNumberPart)
}

// Byte returns a big-endian representation used to compute identities of productions.
func (s Symbol) Byte() []byte {
	return []byte{byte(uint16(s) >> 8), byte(uint16(s) & 0x00ff)}
}

func (s Symbol) IsNil() bool {
	return s.Num() == 0
}

func (s Symbol) IsStart() bool {
	return !s.IsNil() && uint16(s)&bitTerminal == 0 && uint16(s)&bitStartOrEOF != 0
}

func (s Symbol) IsEOF() bool {
	return !s.IsNil() && uint16(s)&bitTerminal != 0 && uint16(s)&bitStartOrEOF != 0
}

func (s Symbol) IsTerminal() bool {
	return !s.IsNil() && uint16(s)&bitTerminal != 0
}

func (s Symbol) IsNonTerminal() bool {
	return !s.IsNil() && uint16(s)&bitTerminal == 0
}

// SymbolTable interns symbol names. A table belongs to exactly one grammar.
type SymbolTable struct {
	text2Sym     map[string]Symbol
	sym2Text     map[Symbol]string
	nonTermTexts []string
	termTexts    []string
}

type SymbolTableWriter struct {
	*SymbolTable
}

type SymbolTableReader struct {
	*SymbolTable
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		text2Sym: map[string]Symbol{
			NameEOF: SymbolEOF,
		},
		sym2Text: map[Symbol]string{
			SymbolEOF: NameEOF,
		},
		// Index 0 is reserved for the nil symbol, and index 1 is used by the start symbol or EOF.
		termTexts:    []string{"", NameEOF},
		nonTermTexts: []string{"", ""},
	}
}

func (t *SymbolTable) Writer() *SymbolTableWriter {
	return &SymbolTableWriter{
		SymbolTable: t,
	}
}

func (t *SymbolTable) Reader() *SymbolTableReader {
	return &SymbolTableReader{
		SymbolTable: t,
	}
}

func (w *SymbolTableWriter) RegisterStartSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok && sym != SymbolStart {
		return SymbolNil, fmt.Errorf("symbol %v is already registered as %v", text, sym)
	}
	w.text2Sym[text] = SymbolStart
	w.sym2Text[SymbolStart] = text
	w.nonTermTexts[numStart] = text
	return SymbolStart, nil
}

func (w *SymbolTableWriter) RegisterNonTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsNonTerminal() {
			return SymbolNil, fmt.Errorf("symbol %v is already registered as a terminal", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(false, Num(len(w.nonTermTexts)))
	if err != nil {
		return SymbolNil, err
	}
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.nonTermTexts = append(w.nonTermTexts, text)
	return sym, nil
}

func (w *SymbolTableWriter) RegisterTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsTerminal() {
			return SymbolNil, fmt.Errorf("symbol %v is already registered as a non-terminal", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(true, Num(len(w.termTexts)))
	if err != nil {
		return SymbolNil, err
	}
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.termTexts = append(w.termTexts, text)
	return sym, nil
}

func (r *SymbolTableReader) ToSymbol(text string) (Symbol, bool) {
	sym, ok := r.text2Sym[text]
	return sym, ok
}

func (r *SymbolTableReader) ToText(sym Symbol) (string, bool) {
	text, ok := r.sym2Text[sym]
	return text, ok
}

// TerminalCount returns the width of a terminal-indexed table, including the nil slot.
func (r *SymbolTableReader) TerminalCount() int {
	return len(r.termTexts)
}

// NonTerminalCount returns the width of a non-terminal-indexed table, including the nil slot.
func (r *SymbolTableReader) NonTerminalCount() int {
	return len(r.nonTermTexts)
}

// TerminalSymbols returns the terminals, EOF included, in ascending order of their numbers.
func (r *SymbolTableReader) TerminalSymbols() []Symbol {
	return r.symbols(func(sym Symbol) bool { return sym.IsTerminal() })
}

// NonTerminalSymbols returns the non-terminals, the start symbol included, in ascending order of their numbers.
func (r *SymbolTableReader) NonTerminalSymbols() []Symbol {
	return r.symbols(func(sym Symbol) bool { return sym.IsNonTerminal() })
}

func (r *SymbolTableReader) symbols(pred func(Symbol) bool) []Symbol {
	syms := []Symbol{}
	for sym := range r.sym2Text {
		if pred(sym) {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Num() < syms[j].Num()
	})
	return syms
}

// TerminalTexts returns the terminal names indexed by their numbers.
func (r *SymbolTableReader) TerminalTexts() ([]string, error) {
	if len(r.termTexts) <= TerminalNumMin.Int() {
		return nil, fmt.Errorf("symbol table has no terminals")
	}
	return r.termTexts, nil
}

// NonTerminalTexts returns the non-terminal names indexed by their numbers.
func (r *SymbolTableReader) NonTerminalTexts() ([]string, error) {
	if len(r.nonTermTexts) <= NonTerminalNumMin.Int() || r.nonTermTexts[numStart] == "" {
		return nil, fmt.Errorf("symbol table has no non-terminals or no start symbol")
	}
	return r.nonTermTexts, nil
}
