package grammar

type Terminal struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Alias         string `json:"alias,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	Precedence    int    `json:"prec,omitempty"`
	Associativity string `json:"assoc,omitempty"`
}

type NonTerminal struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Production.RHS holds a terminal number as a positive value and a non-terminal number as a negative
// value.
type Production struct {
	Number        int    `json:"number"`
	LHS           int    `json:"lhs"`
	RHS           []int  `json:"rhs"`
	Action        string `json:"action,omitempty"`
	Recover       bool   `json:"recover,omitempty"`
	Precedence    int    `json:"prec,omitempty"`
	Associativity string `json:"assoc,omitempty"`
}

type Item struct {
	Production int   `json:"production"`
	Dot        int   `json:"dot"`
	LookAhead  []int `json:"look_ahead,omitempty"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
)

// Action is a candidate of a conflict. State is set for a shift and Production for a reduction.
type Action struct {
	Type       ActionType `json:"type"`
	State      int        `json:"state,omitempty"`
	Production int        `json:"production,omitempty"`
}

type ConflictKind string

const (
	ConflictKindShiftReduce  = ConflictKind("shift/reduce")
	ConflictKindReduceReduce = ConflictKind("reduce/reduce")
)

// Values of Conflict.ResolvedBy.
const (
	ResolvedByPrec      = 1
	ResolvedByAssoc     = 2
	ResolvedByShift     = 3
	ResolvedByProdOrder = 4
)

type Conflict struct {
	Kind       ConflictKind `json:"kind"`
	State      int          `json:"state"`
	Terminal   int          `json:"terminal"`
	Candidates []*Action    `json:"candidates"`
	Adopted    *Action      `json:"adopted"`
	ResolvedBy int          `json:"resolved_by"`
}

// Unresolved reports whether neither precedence nor associativity settled the conflict, that is, a
// default rule chose the adopted action.
func (c *Conflict) Unresolved() bool {
	return c.ResolvedBy == ResolvedByShift || c.ResolvedBy == ResolvedByProdOrder
}

type State struct {
	Number     int           `json:"number"`
	Kernel     []*Item       `json:"kernel"`
	Shift      []*Transition `json:"shift"`
	Reduce     []*Reduce     `json:"reduce"`
	GoTo       []*Transition `json:"goto"`
	Conflicts  []*Conflict   `json:"conflicts,omitempty"`
	ErrorTrap  bool          `json:"error_trap,omitempty"`
	EmptyItems []*Item       `json:"empty_items,omitempty"`
}

type Severity string

const (
	SeverityWarning = Severity("warning")
	SeverityError   = Severity("error")
)

type DiagnosticKind string

const (
	DiagnosticKindShiftReduce     = DiagnosticKind("shift/reduce conflict")
	DiagnosticKindReduceReduce    = DiagnosticKind("reduce/reduce conflict")
	DiagnosticKindUnusedTerm      = DiagnosticKind("unused terminal")
	DiagnosticKindUnreducibleProd = DiagnosticKind("unreducible production")
)

type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	State      *int           `json:"state,omitempty"`
	Terminal   *int           `json:"terminal,omitempty"`
	Production *int           `json:"production,omitempty"`
}

// Report describes a compiled grammar for humans. States is filled only when reporting is enabled.
type Report struct {
	Name         string         `json:"name"`
	Terminals    []*Terminal    `json:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals"`
	Productions  []*Production  `json:"productions"`
	States       []*State       `json:"states,omitempty"`
	Conflicts    []*Conflict    `json:"conflicts"`
	Diagnostics  []*Diagnostic  `json:"diagnostics"`
}
