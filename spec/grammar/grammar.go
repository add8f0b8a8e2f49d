package grammar

import (
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/nihei9/yuzu/compressor"
)

// CompiledGrammar is everything a runtime needs to parse with a grammar. It is immutable once Compile
// returns it, and any number of parsers may read it concurrently.
type CompiledGrammar struct {
	Name string `json:"name"`

	// Fingerprint identifies the syntactic part. Compiling the same grammar twice yields the same value.
	Fingerprint string         `json:"fingerprint"`
	Lexical     *LexicalSpec   `json:"lexical,omitempty"`
	Syntactic   *SyntacticSpec `json:"syntactic"`
}

const LexerMaleeni = "maleeni"

type LexicalSpec struct {
	Lexer   string   `json:"lexer"`
	Maleeni *Maleeni `json:"maleeni"`
}

type Maleeni struct {
	Spec           *mlspec.CompiledLexSpec `json:"spec"`
	KindToTerminal []int                   `json:"kind_to_terminal"`
	TerminalToKind []int                   `json:"terminal_to_kind"`
	Skip           []int                   `json:"skip"`
	KindAliases    []string                `json:"kind_aliases"`
}

// SyntacticSpec holds the parsing tables and the production table.
//
// An ACTION entry is 0 for an error, -s for a shift to state s, and p+1 for a reduction of production p.
// A reduction of StartProduction means acceptance. A GOTO entry is 0 when undefined, and a state number
// otherwise. Action and GoTo are omitted when the tables are compressed.
type SyntacticSpec struct {
	Action           []int            `json:"action,omitempty"`
	GoTo             []int            `json:"goto,omitempty"`
	CompressionLevel int              `json:"compression_level"`
	CompressedAction *CompressedTable `json:"compressed_action,omitempty"`
	CompressedGoTo   *CompressedTable `json:"compressed_goto,omitempty"`
	StateCount       int              `json:"state_count"`
	InitialState     int              `json:"initial_state"`
	StartProduction  int              `json:"start_production"`

	// The production table is indexed by production number.
	LHSSymbols              []int    `json:"lhs_symbols"`
	AlternativeSymbolCounts []int    `json:"alternative_symbol_counts"`
	ActionIDs               []string `json:"action_ids"`
	RecoverProductions      []int    `json:"recover_productions"`

	// Terminals, TerminalAliases, and Fallback are indexed by terminal number.
	Terminals       []string `json:"terminals"`
	TerminalAliases []string `json:"terminal_aliases"`
	TerminalCount   int      `json:"terminal_count"`
	Fallback        []int    `json:"fallback"`
	Wildcard        int      `json:"wildcard"`

	NonTerminals     []string `json:"non_terminals"`
	NonTerminalCount int      `json:"non_terminal_count"`

	EOFSymbol          int   `json:"eof_symbol"`
	ErrorSymbol        int   `json:"error_symbol"`
	ErrorTrapperStates []int `json:"error_trapper_states"`
}

// CompressedTable holds exactly one of the compressed representations.
type CompressedTable struct {
	UniqueEntries   *compressor.UniqueEntriesTable   `json:"unique_entries,omitempty"`
	RowDisplacement *compressor.RowDisplacementTable `json:"row_displacement,omitempty"`
	DefaultEntry    *compressor.DefaultEntryTable    `json:"default_entry,omitempty"`
}

func (t *CompressedTable) Compressor() compressor.Compressor {
	switch {
	case t.UniqueEntries != nil:
		return t.UniqueEntries
	case t.RowDisplacement != nil:
		return t.RowDisplacement
	case t.DefaultEntry != nil:
		return t.DefaultEntry
	}
	return nil
}
