package lexer

import (
	"context"
	"fmt"

	"github.com/nihei9/yuzu/driver/parser"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Rule maps a lexmachine pattern to a terminal of a grammar. A skip rule matches input but produces no token.
type Rule struct {
	Terminal string
	Pattern  string
	Skip     bool
}

// Lexmachine is a DFA lexer built with lexmachine. A Lexmachine is read-only after construction, so any
// number of sources can share it.
type Lexmachine struct {
	lex *lexmachine.Lexer
}

// NewLexmachine compiles rules into a DFA. Terminal names are resolved against a grammar; earlier rules
// take priority over later ones on a tie.
func NewLexmachine(gram parser.Grammar, rules ...*Rule) (*Lexmachine, error) {
	lex := lexmachine.NewLexer()
	for _, r := range rules {
		if r.Skip {
			lex.Add([]byte(r.Pattern), skip)
			continue
		}
		term, ok := gram.TerminalID(r.Terminal)
		if !ok {
			return nil, fmt.Errorf("terminal %v is not defined in grammar %v", r.Terminal, gram.Name())
		}
		lex.Add([]byte(r.Pattern), makeToken(term))
	}
	if err := lex.Compile(); err != nil {
		tracer().Errorf("failed to compile a DFA: %v", err)
		return nil, err
	}
	return &Lexmachine{
		lex: lex,
	}, nil
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(term int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(term, string(m.Bytes), m), nil
	}
}

// Source returns a TokenSource reading an input.
func (l *Lexmachine) Source(input []byte) (parser.TokenSource, error) {
	s, err := l.lex.Scanner(input)
	if err != nil {
		return nil, err
	}
	return &lexmachineSource{
		scanner: s,
		input:   input,
	}, nil
}

type lexmachineSource struct {
	scanner *lexmachine.Scanner
	input   []byte
}

func (s *lexmachineSource) Next(ctx context.Context) (parser.VToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tok, err, eof := s.scanner.Next()
	if err != nil {
		ui, ok := err.(*machines.UnconsumedInput)
		if !ok {
			return nil, err
		}
		end := ui.FailTC
		if end <= ui.StartTC {
			end = ui.StartTC + 1
		}
		if end > len(s.input) {
			end = len(s.input)
		}
		s.scanner.TC = end
		tracer().Debugf("unconsumed input: %q (%v:%v)", s.input[ui.StartTC:end], ui.StartLine, ui.StartColumn)
		return &token{
			lexeme:  s.input[ui.StartTC:end],
			invalid: true,
			row:     ui.StartLine,
			col:     ui.StartColumn,
		}, nil
	}
	if eof {
		return &token{
			eof: true,
		}, nil
	}

	t := tok.(*lexmachine.Token)
	return &token{
		terminal: t.Type,
		lexeme:   t.Lexeme,
		row:      t.StartLine,
		col:      t.StartColumn,
	}, nil
}
