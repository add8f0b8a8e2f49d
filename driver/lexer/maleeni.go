package lexer

import (
	"context"
	"fmt"
	"io"

	mldriver "github.com/nihei9/maleeni/driver"
	"github.com/nihei9/yuzu/driver/parser"
	spec "github.com/nihei9/yuzu/spec/grammar"
)

type maleeniSource struct {
	lex            *mldriver.Lexer
	kindToTerminal []int
	skip           []int
}

// NewMaleeniSource returns a TokenSource running the lexer compiled into a grammar. Tokens of skip
// terminals never reach a parser.
func NewMaleeniSource(g *spec.CompiledGrammar, src io.Reader) (parser.TokenSource, error) {
	if g.Lexical == nil || g.Lexical.Maleeni == nil {
		return nil, fmt.Errorf("grammar %v has no lexical specification", g.Name)
	}
	m := g.Lexical.Maleeni

	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(m.Spec), src)
	if err != nil {
		return nil, err
	}

	return &maleeniSource{
		lex:            lex,
		kindToTerminal: m.KindToTerminal,
		skip:           m.Skip,
	}, nil
}

func (s *maleeniSource) Next(ctx context.Context) (parser.VToken, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return &token{
				eof: true,
				row: tok.Row + 1,
				col: tok.Col + 1,
			}, nil
		}
		if tok.Invalid {
			tracer().Debugf("invalid token: %q (%v:%v)", tok.Lexeme, tok.Row+1, tok.Col+1)
			return &token{
				lexeme:  tok.Lexeme,
				invalid: true,
				row:     tok.Row + 1,
				col:     tok.Col + 1,
			}, nil
		}
		if s.skip[tok.KindID] > 0 {
			continue
		}

		return &token{
			terminal: s.kindToTerminal[tok.KindID],
			lexeme:   tok.Lexeme,
			row:      tok.Row + 1,
			col:      tok.Col + 1,
		}, nil
	}
}
