package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Reduction is passed to an ActionDispatcher when a parser reduces the RHS of a production to its LHS.
type Reduction struct {
	Production int
	LHS        string
	ActionID   string

	// Values holds the values of the RHS symbols from left to right. It is empty for an empty production.
	Values []Value

	// Recovering is true while the parser hasn't yet shifted three tokens after a syntax error.
	Recovering bool
}

// ActionDispatcher runs the semantic action bound to a production and returns the value of the LHS.
type ActionDispatcher interface {
	Reduce(ctx context.Context, r *Reduction) (Value, error)
}

// Shifter is an optional interface of an ActionDispatcher. When implemented, the value it returns is
// shifted instead of VToken.Value.
type Shifter interface {
	Shift(ctx context.Context, tok VToken) (Value, error)
}

// ErrorShifter is an optional interface of an ActionDispatcher that gives the error symbol a value.
// cause is the token that caused the syntax error.
type ErrorShifter interface {
	ShiftError(ctx context.Context, cause VToken) Value
}

// Discarder is an optional interface of an ActionDispatcher. During error recovery, a parser passes it
// the values it pops off the stack and the values of the tokens it skips.
type Discarder interface {
	Discard(ctx context.Context, v Value)
}

type ActionFunc func(ctx context.Context, r *Reduction) (Value, error)

// ActionFuncs dispatches reductions by action ID. A production without an action ID passes its value
// through when its RHS has exactly one symbol, and produces nil otherwise.
type ActionFuncs map[string]ActionFunc

var _ ActionDispatcher = ActionFuncs{}

func (fs ActionFuncs) Reduce(ctx context.Context, r *Reduction) (Value, error) {
	if r.ActionID == "" {
		if len(r.Values) == 1 {
			return r.Values[0], nil
		}
		return nil, nil
	}
	f, ok := fs[r.ActionID]
	if !ok {
		return nil, fmt.Errorf("semantic action %v is not defined", r.ActionID)
	}
	return f(ctx, r)
}

type NodeType int

const (
	NodeTypeError       = NodeType(0)
	NodeTypeTerminal    = NodeType(1)
	NodeTypeNonTerminal = NodeType(2)
)

// Node is a node of a concrete syntax tree.
type Node struct {
	Type     NodeType
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case NodeTypeError:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
		})
	case NodeTypeTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Text     string   `json:"text"`
			Row      int      `json:"row"`
			Col      int      `json:"col"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Text:     n.Text,
			Row:      n.Row,
			Col:      n.Col,
		})
	case NodeTypeNonTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Children []*Node  `json:"children"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Children: n.Children,
		})
	}
	return nil, fmt.Errorf("invalid node type: %v", n.Type)
}

// SyntaxTreeDispatcher builds a concrete syntax tree. Parsing with it returns the root *Node.
type SyntaxTreeDispatcher struct {
	gram Grammar
}

var (
	_ ActionDispatcher = &SyntaxTreeDispatcher{}
	_ Shifter          = &SyntaxTreeDispatcher{}
	_ ErrorShifter     = &SyntaxTreeDispatcher{}
)

func NewSyntaxTreeDispatcher(gram Grammar) *SyntaxTreeDispatcher {
	return &SyntaxTreeDispatcher{
		gram: gram,
	}
}

func (d *SyntaxTreeDispatcher) Shift(ctx context.Context, tok VToken) (Value, error) {
	row, col := tok.Position()
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: d.gram.Terminal(tok.TerminalID()),
		Text:     string(tok.Lexeme()),
		Row:      row,
		Col:      col,
	}, nil
}

func (d *SyntaxTreeDispatcher) ShiftError(ctx context.Context, cause VToken) Value {
	return &Node{
		Type:     NodeTypeError,
		KindName: d.gram.Terminal(d.gram.Error()),
	}
}

func (d *SyntaxTreeDispatcher) Reduce(ctx context.Context, r *Reduction) (Value, error) {
	children := make([]*Node, len(r.Values))
	for i, v := range r.Values {
		n, ok := v.(*Node)
		if !ok {
			return nil, fmt.Errorf("a value of a syntax tree must be *Node: %T", v)
		}
		children[i] = n
	}
	return &Node{
		Type:     NodeTypeNonTerminal,
		KindName: r.LHS,
		Children: children,
	}, nil
}

// PrintTree prints a syntax tree whose root is `node`.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	switch node.Type {
	case NodeTypeError:
		fmt.Fprintf(w, "%v!%v\n", ruledLine, node.KindName)
	case NodeTypeTerminal:
		fmt.Fprintf(w, "%v%v %v\n", ruledLine, node.KindName, strconv.Quote(node.Text))
	case NodeTypeNonTerminal:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)

		num := len(node.Children)
		for i, child := range node.Children {
			line := "└─ "
			prefix := "   "
			if i < num-1 {
				line = "├─ "
				prefix = "│  "
			}
			printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
		}
	}
}
