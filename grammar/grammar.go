package grammar

import (
	"fmt"
	"strings"

	"github.com/nihei9/yuzu/grammar/symbol"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'yuzu.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("yuzu.grammar")
}

const reservedSymbolNameError = "error"

type assocType string

const (
	assocTypeNil      = assocType("")
	assocTypeLeft     = assocType("left")
	assocTypeRight    = assocType("right")
	assocTypeNonAssoc = assocType("nonassoc")
)

const (
	precNil = 0
	precMin = 1
)

// precAndAssoc represents precedence and associativities of terminal symbols and productions.
// We use the priority of the production to resolve shift/reduce conflicts.
type precAndAssoc struct {
	termPrec  map[symbol.Num]int
	termAssoc map[symbol.Num]assocType

	// prodPrec and prodAssoc are taken from an explicit override, or else from the right-most terminal
	// symbol of the RHS.
	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]assocType
}

func (pa *precAndAssoc) terminalPrecedence(sym symbol.Num) int {
	prec, ok := pa.termPrec[sym]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) terminalAssociativity(sym symbol.Num) assocType {
	assoc, ok := pa.termAssoc[sym]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

func (pa *precAndAssoc) productionPrecedence(prod productionNum) int {
	prec, ok := pa.prodPrec[prod]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) productionAssociativity(prod productionNum) assocType {
	assoc, ok := pa.prodAssoc[prod]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

type lexEntry struct {
	terminal symbol.Symbol
	name     string
	pattern  string
	literal  bool
}

// Grammar is a validated context-free grammar. It is never mutated after Builder.Build returns it, so
// one Grammar can be compiled from several goroutines.
type Grammar struct {
	name                 string
	symbolTable          *symbol.SymbolTable
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
	startSymbol          symbol.Symbol
	errorSymbol          symbol.Symbol
	precAndAssoc         *precAndAssoc
	lexEntries           []*lexEntry
	skipTerminals        map[symbol.Symbol]struct{}
	aliases              map[symbol.Symbol]string
	fallback             map[symbol.Symbol]symbol.Symbol
	wildcard             symbol.Symbol
	unusedTerminals      []symbol.Symbol
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) StartSymbol() string {
	text, _ := g.symbolTable.Reader().ToText(g.startSymbol)
	return text
}

// ProductionCount returns the number of productions including the augmented start production.
func (g *Grammar) ProductionCount() int {
	return len(g.productionSet.getAllProductions())
}

// ProductionText returns a readable form of a production such as `expr → expr add term`.
func (g *Grammar) ProductionText(num int) (string, bool) {
	if num < 0 {
		return "", false
	}
	prod, ok := g.productionSet.findByNum(productionNum(num))
	if !ok {
		return "", false
	}
	return g.productionText(prod), true
}

func (g *Grammar) productionText(prod *production) string {
	return productionText(g.symbolTable, prod)
}

func productionText(symTab *symbol.SymbolTable, prod *production) string {
	r := symTab.Reader()
	var b strings.Builder
	lhs, _ := r.ToText(prod.lhs)
	fmt.Fprintf(&b, "%v →", lhs)
	if prod.isEmpty() {
		b.WriteString(" ε")
	}
	for _, sym := range prod.rhs {
		text, _ := r.ToText(sym)
		fmt.Fprintf(&b, " %v", text)
	}
	return b.String()
}

func (g *Grammar) symbolText(sym symbol.Symbol) string {
	text, ok := g.symbolTable.Reader().ToText(sym)
	if !ok {
		return sym.String()
	}
	return text
}

type terminalDecl struct {
	name    string
	pattern string
	literal bool
	skip    bool
	alias   string
}

type TerminalOption func(d *terminalDecl)

// Pattern gives a terminal a regular expression the lexer matches. Patterns use maleeni's syntax, so a
// control character inside a bracket expression is written as a code point, like `[ \u{0009}]`.
func Pattern(pattern string) TerminalOption {
	return func(d *terminalDecl) {
		d.pattern = pattern
		d.literal = false
	}
}

// Literal gives a terminal a string the lexer matches verbatim.
func Literal(text string) TerminalOption {
	return func(d *terminalDecl) {
		d.pattern = text
		d.literal = true
	}
}

// Skip makes the lexer drop tokens of a terminal.
func Skip() TerminalOption {
	return func(d *terminalDecl) {
		d.skip = true
	}
}

// Alias sets a name used in error messages instead of the terminal name.
func Alias(alias string) TerminalOption {
	return func(d *terminalDecl) {
		d.alias = alias
	}
}

type precDecl struct {
	assoc assocType
	terms []string
}

type productionDecl struct {
	lhs     string
	rhs     []string
	prec    string
	action  string
	recover bool
}

func (d *productionDecl) String() string {
	if len(d.rhs) == 0 {
		return fmt.Sprintf("%v → ε", d.lhs)
	}
	return fmt.Sprintf("%v → %v", d.lhs, strings.Join(d.rhs, " "))
}

type fallbackDecl struct {
	target string
	terms  []string
}

// Builder collects declarations and turns them into a Grammar.
//
//	b := grammar.NewBuilder("arith")
//	b.Terminal("num", grammar.Pattern(`[0-9]+`))
//	b.Terminal("add", grammar.Literal("+"))
//	b.Left("add")
//	b.LHS("expr").RHS("expr", "add", "expr").Action("add").End()
//	b.LHS("expr").RHS("num").End()
//	g, err := b.Build()
type Builder struct {
	name      string
	start     string
	terms     []*terminalDecl
	precs     []*precDecl
	prods     []*productionDecl
	fallbacks []*fallbackDecl
	wildcard  string
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
	}
}

// Terminal declares a terminal symbol.
func (b *Builder) Terminal(name string, opts ...TerminalOption) *Builder {
	d := &terminalDecl{
		name: name,
	}
	for _, opt := range opts {
		opt(d)
	}
	b.terms = append(b.terms, d)
	return b
}

// Left, Right, and NonAssoc open a new precedence level. A later level binds tighter than an earlier one.
func (b *Builder) Left(terms ...string) *Builder {
	return b.precedence(assocTypeLeft, terms)
}

func (b *Builder) Right(terms ...string) *Builder {
	return b.precedence(assocTypeRight, terms)
}

func (b *Builder) NonAssoc(terms ...string) *Builder {
	return b.precedence(assocTypeNonAssoc, terms)
}

func (b *Builder) precedence(assoc assocType, terms []string) *Builder {
	b.precs = append(b.precs, &precDecl{
		assoc: assoc,
		terms: terms,
	})
	return b
}

// Start sets the start symbol. When it is not set, the LHS of the first production is the start symbol.
func (b *Builder) Start(nonTerminal string) *Builder {
	b.start = nonTerminal
	return b
}

// Fallback lets the terminals be parsed as target when they have no action in a state.
func (b *Builder) Fallback(target string, terms ...string) *Builder {
	b.fallbacks = append(b.fallbacks, &fallbackDecl{
		target: target,
		terms:  terms,
	})
	return b
}

// Wildcard sets a terminal that matches any token having no action in a state.
func (b *Builder) Wildcard(term string) *Builder {
	b.wildcard = term
	return b
}

func (b *Builder) LHS(name string) *ProductionBuilder {
	d := &productionDecl{
		lhs: name,
	}
	b.prods = append(b.prods, d)
	return &ProductionBuilder{
		b:    b,
		decl: d,
	}
}

type ProductionBuilder struct {
	b    *Builder
	decl *productionDecl
}

// RHS appends symbols to the right-hand side.
func (pb *ProductionBuilder) RHS(syms ...string) *ProductionBuilder {
	pb.decl.rhs = append(pb.decl.rhs, syms...)
	return pb
}

// Prec overrides the precedence of the production with the one of a terminal.
func (pb *ProductionBuilder) Prec(term string) *ProductionBuilder {
	pb.decl.prec = term
	return pb
}

func (pb *ProductionBuilder) Action(id string) *ProductionBuilder {
	pb.decl.action = id
	return pb
}

// Recover marks the production so that reducing it ends error recovery.
func (pb *ProductionBuilder) Recover() *ProductionBuilder {
	pb.decl.recover = true
	return pb
}

// Epsilon ends an empty production.
func (pb *ProductionBuilder) Epsilon() *Builder {
	pb.decl.rhs = nil
	return pb.b
}

func (pb *ProductionBuilder) End() *Builder {
	return pb.b
}

type buildContext struct {
	errs     GrammarErrors
	symTab   *symbol.SymbolTable
	augStart symbol.Symbol
}

func (c *buildContext) addErr(cause *SemanticError, format string, args ...interface{}) {
	c.errs = append(c.errs, &GrammarError{
		Cause:  cause,
		Detail: fmt.Sprintf(format, args...),
	})
}

// resolve finds a symbol a user can refer to. The augmented start symbol and EOF are not such symbols.
func (c *buildContext) resolve(name string) (symbol.Symbol, bool) {
	sym, ok := c.symTab.Reader().ToSymbol(name)
	if !ok || sym == c.augStart || sym.IsEOF() {
		return symbol.SymbolNil, false
	}
	return sym, true
}

func (c *buildContext) resolveTerminal(name string) (symbol.Symbol, bool) {
	sym, ok := c.resolve(name)
	if !ok || !sym.IsTerminal() {
		return symbol.SymbolNil, false
	}
	return sym, true
}

// Build validates the declarations. All problems found are returned together as GrammarErrors.
func (b *Builder) Build() (*Grammar, error) {
	if len(b.prods) == 0 {
		return nil, GrammarErrors{
			{Cause: ErrEmptyGrammar, Detail: b.name},
		}
	}

	c := &buildContext{}

	start := b.start
	if start == "" {
		start = b.prods[0].lhs
	}
	augStart := start + "'"

	lhsNames := map[string]struct{}{}
	var lhsOrder []string
	for _, d := range b.prods {
		if _, ok := lhsNames[d.lhs]; ok {
			continue
		}
		lhsNames[d.lhs] = struct{}{}
		lhsOrder = append(lhsOrder, d.lhs)
	}

	b.checkNames(c, start, augStart, lhsNames, lhsOrder)
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	c.symTab = symbol.NewSymbolTable()
	w := c.symTab.Writer()
	augStartSym, err := w.RegisterStartSymbol(augStart)
	if err != nil {
		return nil, err
	}
	c.augStart = augStartSym
	errSym, err := w.RegisterTerminalSymbol(reservedSymbolNameError)
	if err != nil {
		return nil, err
	}
	for _, d := range b.terms {
		if _, err := w.RegisterTerminalSymbol(d.name); err != nil {
			return nil, err
		}
	}
	for _, name := range lhsOrder {
		if _, err := w.RegisterNonTerminalSymbol(name); err != nil {
			return nil, err
		}
	}
	startSym, _ := c.resolve(start)

	prods, precOverrides, err := b.genProductions(c, augStartSym, startSym)
	if err != nil {
		return nil, err
	}

	pa := b.genPrecAndAssoc(c, prods, precOverrides)

	for _, p := range findUnreachableProductions(prods, startSym) {
		c.addErr(ErrUnreachableProduction, "%v", productionText(c.symTab, p))
	}

	fallback := b.genFallback(c)

	var wildcard symbol.Symbol
	if b.wildcard != "" {
		sym, ok := c.resolveTerminal(b.wildcard)
		if !ok {
			c.addErr(ErrUndeclaredSymbol, "wildcard %v is not a terminal", b.wildcard)
		}
		wildcard = sym
	}

	if len(c.errs) > 0 {
		return nil, c.errs
	}

	var lexEntries []*lexEntry
	skip := map[symbol.Symbol]struct{}{}
	aliases := map[symbol.Symbol]string{}
	for _, d := range b.terms {
		sym, _ := c.resolveTerminal(d.name)
		if d.pattern != "" {
			lexEntries = append(lexEntries, &lexEntry{
				terminal: sym,
				name:     d.name,
				pattern:  d.pattern,
				literal:  d.literal,
			})
		}
		if d.skip {
			skip[sym] = struct{}{}
		}
		switch {
		case d.alias != "":
			aliases[sym] = d.alias
		case d.literal:
			aliases[sym] = d.pattern
		}
	}

	gram := &Grammar{
		name:                 b.name,
		symbolTable:          c.symTab,
		productionSet:        prods,
		augmentedStartSymbol: augStartSym,
		startSymbol:          startSym,
		errorSymbol:          errSym,
		precAndAssoc:         pa,
		lexEntries:           lexEntries,
		skipTerminals:        skip,
		aliases:              aliases,
		fallback:             fallback,
		wildcard:             wildcard,
	}
	gram.unusedTerminals = findUnusedTerminals(gram, b.terms)

	tracer().Debugf("grammar %v: %v productions, %v terminals", b.name, len(prods.getAllProductions()), c.symTab.Reader().TerminalCount())

	return gram, nil
}

func (b *Builder) checkNames(c *buildContext, start, augStart string, lhsNames map[string]struct{}, lhsOrder []string) {
	checkReserved := func(name string) {
		switch name {
		case augStart:
			c.addErr(ErrAugmentedSymbolMisuse, "%v is reserved for the augmented start symbol", name)
		case symbol.NameEOF:
			c.addErr(ErrReservedSymbolMisuse, "%v is reserved for the end of input", name)
		}
	}

	declared := map[string]struct{}{}
	for _, d := range b.terms {
		checkReserved(d.name)
		if _, dup := declared[d.name]; dup {
			c.addErr(ErrDuplicateTerminal, "%v", d.name)
			continue
		}
		declared[d.name] = struct{}{}
		if d.name == reservedSymbolNameError && d.pattern != "" {
			c.addErr(ErrReservedSymbolMisuse, "%v cannot have a lexical pattern", d.name)
		}
		if _, ok := lhsNames[d.name]; ok {
			c.addErr(ErrSymbolKindMismatch, "%v", d.name)
		}
	}
	for _, name := range lhsOrder {
		checkReserved(name)
		if name == reservedSymbolNameError {
			c.addErr(ErrReservedSymbolMisuse, "%v cannot appear on the LHS of a production", name)
		}
	}
	for _, d := range b.prods {
		for _, name := range d.rhs {
			switch name {
			case augStart:
				c.addErr(ErrAugmentedSymbolMisuse, "%v cannot appear on the RHS: %v", name, d)
			case symbol.NameEOF:
				c.addErr(ErrReservedSymbolMisuse, "%v cannot appear on the RHS: %v", name, d)
			}
		}
	}
	if _, ok := lhsNames[start]; !ok {
		c.addErr(ErrUndeclaredSymbol, "start symbol %v has no productions", start)
	}
}

func (b *Builder) genProductions(c *buildContext, augStartSym, startSym symbol.Symbol) (*productionSet, map[productionNum]string, error) {
	prods := newProductionSet()
	{
		p, err := newProduction(augStartSym, []symbol.Symbol{startSym})
		if err != nil {
			return nil, nil, err
		}
		prods.append(p)
	}

	precOverrides := map[productionNum]string{}
	for _, d := range b.prods {
		lhs, _ := c.resolve(d.lhs)
		rhs := make([]symbol.Symbol, 0, len(d.rhs))
		resolved := true
		for i, name := range d.rhs {
			sym, ok := c.resolve(name)
			if !ok {
				c.addErr(ErrUndeclaredSymbol, "%v at RHS position %v of %v", name, i+1, d)
				resolved = false
				continue
			}
			rhs = append(rhs, sym)
		}
		if !resolved {
			continue
		}

		p, err := newProduction(lhs, rhs)
		if err != nil {
			return nil, nil, err
		}
		p.action = d.action
		p.recover = d.recover
		if !prods.append(p) {
			c.addErr(ErrDuplicateProduction, "%v", d)
			continue
		}
		if d.prec != "" {
			precOverrides[p.num] = d.prec
		}
	}

	return prods, precOverrides, nil
}

func (b *Builder) genPrecAndAssoc(c *buildContext, prods *productionSet, overrides map[productionNum]string) *precAndAssoc {
	termPrec := map[symbol.Num]int{}
	termAssoc := map[symbol.Num]assocType{}
	for i, decl := range b.precs {
		prec := precMin + i
		for _, name := range decl.terms {
			if name == reservedSymbolNameError || name == symbol.NameEOF {
				c.addErr(ErrReservedSymbolMisuse, "%v cannot have a precedence", name)
				continue
			}
			sym, ok := c.resolveTerminal(name)
			if !ok {
				c.addErr(ErrUndeclaredSymbol, "%v in a precedence declaration is not a terminal", name)
				continue
			}
			if _, dup := termPrec[sym.Num()]; dup {
				c.addErr(ErrDuplicatePrecedence, "%v", name)
				continue
			}
			termPrec[sym.Num()] = prec
			termAssoc[sym.Num()] = decl.assoc
		}
	}

	prodPrec := map[productionNum]int{}
	prodAssoc := map[productionNum]assocType{}
	for _, p := range prods.getAllProductions() {
		if p.num == productionNumStart {
			continue
		}

		var term symbol.Symbol
		if name, ok := overrides[p.num]; ok {
			sym, ok := c.resolveTerminal(name)
			if !ok {
				c.addErr(ErrUndeclaredSymbol, "%v in a precedence override is not a terminal", name)
				continue
			}
			term = sym
		} else {
			for i := p.rhsLen - 1; i >= 0; i-- {
				if p.rhs[i].IsTerminal() {
					term = p.rhs[i]
					break
				}
			}
		}
		if term.IsNil() {
			continue
		}

		if prec, ok := termPrec[term.Num()]; ok {
			prodPrec[p.num] = prec
			prodAssoc[p.num] = termAssoc[term.Num()]
		}
	}

	return &precAndAssoc{
		termPrec:  termPrec,
		termAssoc: termAssoc,
		prodPrec:  prodPrec,
		prodAssoc: prodAssoc,
	}
}

func (b *Builder) genFallback(c *buildContext) map[symbol.Symbol]symbol.Symbol {
	fallback := map[symbol.Symbol]symbol.Symbol{}
	for _, decl := range b.fallbacks {
		target, ok := c.resolveTerminal(decl.target)
		if !ok {
			c.addErr(ErrUndeclaredSymbol, "fallback target %v is not a terminal", decl.target)
			continue
		}
		for _, name := range decl.terms {
			sym, ok := c.resolveTerminal(name)
			if !ok {
				c.addErr(ErrUndeclaredSymbol, "%v in a fallback declaration is not a terminal", name)
				continue
			}
			fallback[sym] = target
		}
	}

	for sym := range fallback {
		next := fallback[sym]
		for steps := 0; !next.IsNil() && steps <= len(fallback); steps++ {
			if next == sym {
				text, _ := c.symTab.Reader().ToText(sym)
				c.addErr(ErrFallbackCycle, "%v", text)
				break
			}
			next = fallback[next]
		}
	}

	return fallback
}

// findUnreachableProductions returns productions whose LHS cannot be derived from the start symbol.
func findUnreachableProductions(prods *productionSet, start symbol.Symbol) []*production {
	reachable := map[symbol.Symbol]struct{}{
		start: {},
	}
	queue := []symbol.Symbol{start}
	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		ps, _ := prods.findByLHS(sym)
		for _, p := range ps {
			for _, s := range p.rhs {
				if !s.IsNonTerminal() {
					continue
				}
				if _, ok := reachable[s]; ok {
					continue
				}
				reachable[s] = struct{}{}
				queue = append(queue, s)
			}
		}
	}

	var unreachable []*production
	for _, p := range prods.getAllProductions() {
		if p.num == productionNumStart {
			continue
		}
		if _, ok := reachable[p.lhs]; !ok {
			unreachable = append(unreachable, p)
		}
	}
	return unreachable
}

func findUnusedTerminals(gram *Grammar, decls []*terminalDecl) []symbol.Symbol {
	used := map[symbol.Symbol]struct{}{}
	for _, p := range gram.productionSet.getAllProductions() {
		for _, sym := range p.rhs {
			if sym.IsTerminal() {
				used[sym] = struct{}{}
			}
		}
	}
	for from, to := range gram.fallback {
		used[from] = struct{}{}
		used[to] = struct{}{}
	}
	if !gram.wildcard.IsNil() {
		used[gram.wildcard] = struct{}{}
	}

	r := gram.symbolTable.Reader()
	var unused []symbol.Symbol
	for _, d := range decls {
		sym, _ := r.ToSymbol(d.name)
		if sym == gram.errorSymbol {
			continue
		}
		if _, ok := gram.skipTerminals[sym]; ok {
			continue
		}
		if _, ok := used[sym]; !ok {
			unused = append(unused, sym)
		}
	}
	return unused
}
