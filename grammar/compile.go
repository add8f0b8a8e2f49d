package grammar

import (
	"fmt"
	"io"
	"strings"

	"github.com/cnf/structhash"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/nihei9/yuzu/compressor"
	"github.com/nihei9/yuzu/grammar/symbol"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

const (
	CompressionLevelMin = 0
	CompressionLevelMax = 2
)

type compileConfig struct {
	isReportingEnabled bool
	conflictsAsErrors  bool
	compressionLevel   int
}

type CompileOption func(config *compileConfig)

// EnableReporting makes the report contain the states of the automaton.
func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// ConflictsAsErrors makes Compile fail with *ConflictError when a default rule resolved a conflict.
func ConflictsAsErrors() CompileOption {
	return func(config *compileConfig) {
		config.conflictsAsErrors = true
	}
}

// Compress sets a compression level of the parsing tables.
//
//	0: plain tables
//	1: a default entry per row for ACTION, row displacement for GOTO
//	2: identical rows shared for both tables
func Compress(level int) CompileOption {
	return func(config *compileConfig) {
		config.compressionLevel = level
	}
}

// Compile builds the LALR(1) parsing tables of a grammar. The report always contains the conflicts and the
// diagnostics. When it returns an error, no tables are returned.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.compressionLevel < CompressionLevelMin || config.compressionLevel > CompressionLevelMax {
		return nil, nil, fmt.Errorf("compression level must be between %v and %v: %v", CompressionLevelMin, CompressionLevelMax, config.compressionLevel)
	}

	symTab := gram.symbolTable.Reader()
	terms, err := symTab.TerminalTexts()
	if err != nil {
		return nil, nil, err
	}
	nonTerms, err := symTab.NonTerminalTexts()
	if err != nil {
		return nil, nil, err
	}

	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, nil, err
	}

	lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		return nil, nil, err
	}

	lalr1, err := genLALR1Automaton(lr0, gram.productionSet, firstSet)
	if err != nil {
		return nil, nil, err
	}

	b := &lrTableBuilder{
		automaton:    lalr1.lr0Automaton,
		prods:        gram.productionSet,
		termCount:    len(terms),
		nonTermCount: len(nonTerms),
		symTab:       symTab,
		resolver: &conflictResolver{
			precAndAssoc: gram.precAndAssoc,
		},
	}
	tab, err := b.build()
	if err != nil {
		return nil, nil, err
	}

	if config.conflictsAsErrors {
		if cerr := genConflictError(gram, b.conflicts); cerr != nil {
			return nil, nil, cerr
		}
	}

	report, err := genReport(gram, tab, lalr1.lr0Automaton, b.conflicts, config.isReportingEnabled)
	if err != nil {
		return nil, nil, err
	}
	report.Diagnostics = genDiagnostics(gram, tab, b.conflicts, config.conflictsAsErrors)

	var lexical *spec.LexicalSpec
	if len(gram.lexEntries) > 0 {
		lexical, err = genLexicalSpec(gram)
		if err != nil {
			return nil, nil, err
		}
	}

	syntactic, err := genSyntacticSpec(gram, tab, terms, nonTerms)
	if err != nil {
		return nil, nil, err
	}

	fingerprint, err := genFingerprint(syntactic)
	if err != nil {
		return nil, nil, err
	}

	if err := compressTables(syntactic, config.compressionLevel); err != nil {
		return nil, nil, err
	}

	tracer().Infof("compiled grammar %v: %v states, %v conflicts, fingerprint %v", gram.name, tab.stateCount, len(b.conflicts), fingerprint)

	return &spec.CompiledGrammar{
		Name:        gram.name,
		Fingerprint: fingerprint,
		Lexical:     lexical,
		Syntactic:   syntactic,
	}, report, nil
}

func genConflictError(gram *Grammar, conflicts []*conflict) error {
	var cs []*spec.Conflict
	var msgs []string
	for _, c := range conflicts {
		if !c.unresolved() {
			continue
		}
		cs = append(cs, c.toSpec())
		msgs = append(msgs, c.describe(gram))
	}
	if len(cs) == 0 {
		return nil
	}
	return &ConflictError{
		Conflicts: cs,
		messages:  msgs,
	}
}

func genSyntacticSpec(gram *Grammar, tab *ParsingTable, terms, nonTerms []string) (*spec.SyntacticSpec, error) {
	action := make([]int, len(tab.actionTable))
	for i, e := range tab.actionTable {
		action[i] = int(e)
	}
	goTo := make([]int, len(tab.goToTable))
	for i, e := range tab.goToTable {
		goTo[i] = int(e)
	}

	prods := gram.productionSet.getAllProductions()
	lhsSyms := make([]int, len(prods))
	altSymCounts := make([]int, len(prods))
	actionIDs := make([]string, len(prods))
	recoverProds := make([]int, len(prods))
	for _, p := range prods {
		lhsSyms[p.num] = p.lhs.Num().Int()
		altSymCounts[p.num] = p.rhsLen
		actionIDs[p.num] = p.action
		if p.recover {
			recoverProds[p.num] = 1
		}
	}

	aliases := make([]string, len(terms))
	fallback := make([]int, len(terms))
	for _, sym := range gram.symbolTable.Reader().TerminalSymbols() {
		aliases[sym.Num()] = gram.aliases[sym]
		if to, ok := gram.fallback[sym]; ok {
			fallback[sym.Num()] = to.Num().Int()
		}
	}

	wildcard := 0
	if !gram.wildcard.IsNil() {
		wildcard = gram.wildcard.Num().Int()
	}

	return &spec.SyntacticSpec{
		Action:                  action,
		GoTo:                    goTo,
		StateCount:              tab.stateCount,
		InitialState:            tab.InitialState.Int(),
		StartProduction:         productionNumStart.Int(),
		LHSSymbols:              lhsSyms,
		AlternativeSymbolCounts: altSymCounts,
		ActionIDs:               actionIDs,
		RecoverProductions:      recoverProds,
		Terminals:               terms,
		TerminalAliases:         aliases,
		TerminalCount:           tab.terminalCount,
		Fallback:                fallback,
		Wildcard:                wildcard,
		NonTerminals:            nonTerms,
		NonTerminalCount:        tab.nonTerminalCount,
		EOFSymbol:               symbol.SymbolEOF.Num().Int(),
		ErrorSymbol:             gram.errorSymbol.Num().Int(),
		ErrorTrapperStates:      tab.errorTrapperStates,
	}, nil
}

type fingerprintSource struct {
	Action                  []int
	GoTo                    []int
	InitialState            int
	LHSSymbols              []int
	AlternativeSymbolCounts []int
	ActionIDs               []string
	RecoverProductions      []int
	Terminals               []string
	NonTerminals            []string
	Fallback                []int
	Wildcard                int
	ErrorTrapperStates      []int
}

// genFingerprint hashes the uncompressed tables, so the fingerprint doesn't depend on the compression level.
func genFingerprint(s *spec.SyntacticSpec) (string, error) {
	return structhash.Hash(&fingerprintSource{
		Action:                  s.Action,
		GoTo:                    s.GoTo,
		InitialState:            s.InitialState,
		LHSSymbols:              s.LHSSymbols,
		AlternativeSymbolCounts: s.AlternativeSymbolCounts,
		ActionIDs:               s.ActionIDs,
		RecoverProductions:      s.RecoverProductions,
		Terminals:               s.Terminals,
		NonTerminals:            s.NonTerminals,
		Fallback:                s.Fallback,
		Wildcard:                s.Wildcard,
		ErrorTrapperStates:      s.ErrorTrapperStates,
	}, 1)
}

func compressTables(s *spec.SyntacticSpec, level int) error {
	s.CompressionLevel = level
	if level == CompressionLevelMin {
		return nil
	}

	var actComp, goToComp compressor.Compressor
	var actTab, goToTab *spec.CompressedTable
	switch level {
	case 1:
		de := compressor.NewDefaultEntryTable()
		rd := compressor.NewRowDisplacementTable(0)
		actComp, goToComp = de, rd
		actTab = &spec.CompressedTable{DefaultEntry: de}
		goToTab = &spec.CompressedTable{RowDisplacement: rd}
	default:
		ua := compressor.NewUniqueEntriesTable()
		ug := compressor.NewUniqueEntriesTable()
		actComp, goToComp = ua, ug
		actTab = &spec.CompressedTable{UniqueEntries: ua}
		goToTab = &spec.CompressedTable{UniqueEntries: ug}
	}

	orig, err := compressor.NewOriginalTable(s.Action, s.TerminalCount)
	if err != nil {
		return err
	}
	if err := actComp.Compress(orig); err != nil {
		return err
	}
	orig, err = compressor.NewOriginalTable(s.GoTo, s.NonTerminalCount)
	if err != nil {
		return err
	}
	if err := goToComp.Compress(orig); err != nil {
		return err
	}

	s.CompressedAction = actTab
	s.CompressedGoTo = goToTab
	s.Action = nil
	s.GoTo = nil

	return nil
}

func genLexicalSpec(gram *Grammar) (*spec.LexicalSpec, error) {
	entries := make([]*mlspec.LexEntry, 0, len(gram.lexEntries))
	for _, e := range gram.lexEntries {
		pattern := e.pattern
		if e.literal {
			pattern = mlspec.EscapePattern(pattern)
		}
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(e.name),
			Pattern: mlspec.LexPattern(pattern),
		})
	}

	lexSpec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    gram.name,
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			writeCompileError(&b, cErrs[0])
			for _, cerr := range cErrs[1:] {
				fmt.Fprintf(&b, "\n")
				writeCompileError(&b, cerr)
			}
			return nil, fmt.Errorf("failed to compile the lexical specification: %v", b.String())
		}
		return nil, fmt.Errorf("failed to compile the lexical specification: %w", err)
	}

	symTab := gram.symbolTable.Reader()
	kind2Term := make([]int, len(lexSpec.KindNames))
	term2Kind := make([]int, symTab.TerminalCount())
	skip := make([]int, len(lexSpec.KindNames))
	for i, k := range lexSpec.KindNames {
		if k == mlspec.LexKindNameNil {
			kind2Term[mlspec.LexKindIDNil] = symbol.SymbolNil.Num().Int()
			continue
		}

		sym, ok := symTab.ToSymbol(k.String())
		if !ok {
			return nil, fmt.Errorf("terminal symbol '%v' was not found in a symbol table", k)
		}
		kind2Term[i] = sym.Num().Int()
		term2Kind[sym.Num()] = i
		if _, ok := gram.skipTerminals[sym]; ok {
			skip[i] = 1
		}
	}

	kindAliases := make([]string, symTab.TerminalCount())
	for _, sym := range symTab.TerminalSymbols() {
		kindAliases[sym.Num()] = gram.aliases[sym]
	}

	return &spec.LexicalSpec{
		Lexer: spec.LexerMaleeni,
		Maleeni: &spec.Maleeni{
			Spec:           lexSpec,
			KindToTerminal: kind2Term,
			TerminalToKind: term2Kind,
			Skip:           skip,
			KindAliases:    kindAliases,
		},
	}, nil
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}
