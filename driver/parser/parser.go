package parser

import (
	"context"
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'yuzu.parser'.
func tracer() tracing.Trace {
	return tracing.Select("yuzu.parser")
}

// A parser leaves the error recovery mode after shifting this many tokens.
const recoveryShiftCount = 3

type ParserOption func(p *Parser) error

// EnableRecovery turns on panic-mode error recovery using the error symbol.
func EnableRecovery() ParserOption {
	return func(p *Parser) error {
		p.recovery = true
		return nil
	}
}

// MaxStackDepth limits the depth of the state stack. 0 means no limit.
func MaxStackDepth(depth int) ParserOption {
	return func(p *Parser) error {
		if depth < 0 {
			return fmt.Errorf("stack depth must be 0 or greater: %v", depth)
		}
		p.maxDepth = depth
		return nil
	}
}

// OnSyntaxError sets a function called for every syntax error, including the ones recovered from.
func OnSyntaxError(f func(err *ParseError)) ParserOption {
	return func(p *Parser) error {
		p.onSyntaxError = f
		return nil
	}
}

// OnAccept sets a function called with the result when a parser accepts the input.
func OnAccept(f func(v Value)) ParserOption {
	return func(p *Parser) error {
		p.onAccept = f
		return nil
	}
}

// Parser runs one parse. It is not safe for concurrent use, but any number of Parsers can share a Grammar.
type Parser struct {
	gram     Grammar
	src      TokenSource
	dispatch ActionDispatcher

	recovery      bool
	maxDepth      int
	onSyntaxError func(err *ParseError)
	onAccept      func(v Value)

	stateStack []int
	valueStack []Value
	onError    bool
	shiftCount int
	synErrs    ParseErrors
}

func NewParser(gram Grammar, src TokenSource, dispatch ActionDispatcher, opts ...ParserOption) (*Parser, error) {
	if dispatch == nil {
		return nil, fmt.Errorf("action dispatcher must not be nil")
	}
	p := &Parser{
		gram:     gram,
		src:      src,
		dispatch: dispatch,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run parses the tokens of a source and returns the value of the start symbol.
func Run(ctx context.Context, gram Grammar, src TokenSource, dispatch ActionDispatcher, opts ...ParserOption) (Value, error) {
	p, err := NewParser(gram, src, dispatch, opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx)
}

// Parse runs the parser until it accepts the input or fails. When the parser recovered from syntax
// errors, it returns the value together with ParseErrors. A fatal syntax error is returned as *ParseError.
func (p *Parser) Parse(ctx context.Context) (Value, error) {
	p.stateStack = p.stateStack[:0]
	p.valueStack = p.valueStack[:0]
	p.onError = false
	p.shiftCount = 0
	p.synErrs = nil

	if err := p.push(p.gram.InitialState(), nil, nil); err != nil {
		return nil, err
	}
	tok, err := p.nextToken(ctx)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("parse cancelled: %w", err)
		}

		act := p.lookupAction(tok)
		switch {
		case act < 0: // Shift
			nextState := act * -1

			if p.onError {
				p.shiftCount++
				if p.shiftCount >= recoveryShiftCount {
					p.onError = false
					p.shiftCount = 0
				}
			}

			v, err := p.shiftValue(ctx, tok)
			if err != nil {
				return nil, err
			}
			if err := p.push(nextState, v, tok); err != nil {
				return nil, err
			}
			tracer().Debugf("shift %v; state: %v", p.gram.Terminal(tok.TerminalID()), nextState)

			tok, err = p.nextToken(ctx)
			if err != nil {
				return nil, err
			}
		case act > 0: // Reduce
			prodNum := act - 1

			if prodNum == p.gram.StartProduction() {
				v := p.valueStack[len(p.valueStack)-1]
				tracer().Debugf("accept")
				if p.onAccept != nil {
					p.onAccept(v)
				}
				if len(p.synErrs) > 0 {
					return v, p.synErrs
				}
				return v, nil
			}

			if p.onError && p.gram.RecoverProduction(prodNum) {
				p.onError = false
				p.shiftCount = 0
			}

			if err := p.reduce(ctx, prodNum, tok); err != nil {
				return nil, err
			}
		default: // Error
			if p.onError {
				if tok.EOF() {
					return nil, p.exhausted(tok)
				}
				p.discard(ctx, tok.Value())
				tok, err = p.nextToken(ctx)
				if err != nil {
					return nil, err
				}
				continue
			}

			synErr := p.newParseError(UnexpectedToken, tok)
			synErr.ExpectedTerminals = p.expectedTerminals(p.top())
			if p.onSyntaxError != nil {
				p.onSyntaxError(synErr)
			}
			if !p.recovery {
				return nil, synErr
			}
			p.synErrs = append(p.synErrs, synErr)

			if !p.trapError(ctx) {
				return nil, p.exhausted(tok)
			}

			errAct := p.gram.Action(p.top(), p.gram.Error())
			if errAct >= 0 {
				return nil, fmt.Errorf("an entry must be a shift action by the error symbol; entry: %v, state: %v", errAct, p.top())
			}
			var v Value
			if es, ok := p.dispatch.(ErrorShifter); ok {
				v = es.ShiftError(ctx, tok)
			}
			if err := p.push(errAct*-1, v, tok); err != nil {
				return nil, err
			}
			tracer().Debugf("shift error; state: %v", errAct*-1)

			p.onError = true
			p.shiftCount = 0
		}
	}
}

func (p *Parser) nextToken(ctx context.Context) (VToken, error) {
	tok, err := p.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (p *Parser) tokenToTerminal(tok VToken) int {
	if tok.EOF() {
		return p.gram.EOF()
	}
	if tok.Invalid() {
		return 0
	}
	return tok.TerminalID()
}

// lookupAction tries the terminal of a token, then its fallback terminals, then the wildcard.
func (p *Parser) lookupAction(tok VToken) int {
	term := p.tokenToTerminal(tok)
	if term <= 0 || term >= p.gram.TerminalCount() {
		return 0
	}
	if act := p.gram.Action(p.top(), term); act != 0 {
		return act
	}
	if term == p.gram.EOF() || term == p.gram.Error() {
		return 0
	}
	for fb, steps := p.gram.Fallback(term), 0; fb != 0 && steps < p.gram.TerminalCount(); fb, steps = p.gram.Fallback(fb), steps+1 {
		if act := p.gram.Action(p.top(), fb); act != 0 {
			return act
		}
	}
	if w := p.gram.Wildcard(); w != 0 {
		return p.gram.Action(p.top(), w)
	}
	return 0
}

func (p *Parser) shiftValue(ctx context.Context, tok VToken) (Value, error) {
	if s, ok := p.dispatch.(Shifter); ok {
		return s.Shift(ctx, tok)
	}
	return tok.Value(), nil
}

func (p *Parser) reduce(ctx context.Context, prodNum int, tok VToken) error {
	lhs := p.gram.LHS(prodNum)
	n := p.gram.AlternativeSymbolCount(prodNum)

	values := make([]Value, n)
	copy(values, p.valueStack[len(p.valueStack)-n:])
	p.pop(n)

	v, err := p.dispatch.Reduce(ctx, &Reduction{
		Production: prodNum,
		LHS:        p.gram.NonTerminal(lhs),
		ActionID:   p.gram.ActionID(prodNum),
		Values:     values,
		Recovering: p.onError,
	})
	if err != nil {
		return fmt.Errorf("reduce %v: %w", p.gram.NonTerminal(lhs), err)
	}

	nextState := p.gram.GoTo(p.top(), lhs)
	if nextState == 0 {
		return fmt.Errorf("GOTO entry is undefined; state: %v, non-terminal: %v", p.top(), p.gram.NonTerminal(lhs))
	}
	tracer().Debugf("reduce %v; state: %v", p.gram.NonTerminal(lhs), nextState)
	return p.push(nextState, v, tok)
}

// trapError pops states until the top state can shift the error symbol. It returns false when no state
// on the stack can.
func (p *Parser) trapError(ctx context.Context) bool {
	for {
		if p.gram.ErrorTrapperState(p.top()) {
			return true
		}
		if len(p.stateStack) <= 1 {
			return false
		}
		p.discard(ctx, p.valueStack[len(p.valueStack)-1])
		p.pop(1)
	}
}

func (p *Parser) discard(ctx context.Context, v Value) {
	if d, ok := p.dispatch.(Discarder); ok {
		d.Discard(ctx, v)
	}
}

func (p *Parser) exhausted(tok VToken) *ParseError {
	perr := p.newParseError(RecoveryExhausted, tok)
	if len(p.synErrs) > 0 {
		perr.Cause = p.synErrs[len(p.synErrs)-1]
	}
	return perr
}

func (p *Parser) newParseError(kind ParseErrorKind, tok VToken) *ParseError {
	states := make([]int, len(p.stateStack))
	copy(states, p.stateStack)
	return &ParseError{
		Kind:     kind,
		Token:    tok,
		Terminal: p.terminalText(p.tokenToTerminal(tok)),
		States:   states,
	}
}

func (p *Parser) terminalText(term int) string {
	if term <= 0 || term >= p.gram.TerminalCount() {
		return "<invalid>"
	}
	if alias := p.gram.TerminalAlias(term); alias != "" {
		return alias
	}
	return p.gram.Terminal(term)
}

// expectedTerminals returns the sorted names of terminals having an action in a state. The error symbol
// is excluded because a user cannot input it.
func (p *Parser) expectedTerminals(state int) []string {
	set := treeset.NewWith(utils.StringComparator)
	for term := 1; term < p.gram.TerminalCount(); term++ {
		if term == p.gram.Error() {
			continue
		}
		if p.gram.Action(state, term) == 0 {
			continue
		}
		set.Add(p.terminalText(term))
	}

	terms := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		terms = append(terms, v.(string))
	}
	return terms
}

func (p *Parser) top() int {
	return p.stateStack[len(p.stateStack)-1]
}

func (p *Parser) push(state int, v Value, tok VToken) error {
	if p.maxDepth > 0 && len(p.stateStack) >= p.maxDepth {
		return p.newParseError(StackOverflow, tok)
	}
	p.stateStack = append(p.stateStack, state)
	p.valueStack = append(p.valueStack, v)
	return nil
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
	p.valueStack = p.valueStack[:len(p.valueStack)-n]
}
