package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/nihei9/yuzu/grammar/symbol"
)

type productionID [32]byte

func (id productionID) String() string {
	return hex.EncodeToString(id[:])
}

func genProductionID(lhs symbol.Symbol, rhs []symbol.Symbol) productionID {
	seq := lhs.Byte()
	for _, sym := range rhs {
		seq = append(seq, sym.Byte()...)
	}
	return productionID(sha256.Sum256(seq))
}

// productionNum is an index of a production in declaration order. The augmented start production is
// always number 0.
type productionNum uint16

const productionNumStart = productionNum(0)

func (n productionNum) Int() int {
	return int(n)
}

type production struct {
	id     productionID
	num    productionNum
	lhs    symbol.Symbol
	rhs    []symbol.Symbol
	rhsLen int

	// action is an opaque identifier a runtime uses to dispatch a semantic action.
	action string

	// When recover is true, reducing the production ends the error recovery mode.
	recover bool
}

func newProduction(lhs symbol.Symbol, rhs []symbol.Symbol) (*production, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	if !lhs.IsNonTerminal() {
		return nil, fmt.Errorf("LHS must be a non-terminal symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &production{
		id:     genProductionID(lhs, rhs),
		lhs:    lhs,
		rhs:    rhs,
		rhsLen: len(rhs),
	}, nil
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

type productionSet struct {
	prods     []*production
	lhs2Prods map[symbol.Symbol][]*production
	id2Prod   map[productionID]*production
}

func newProductionSet() *productionSet {
	return &productionSet{
		lhs2Prods: map[symbol.Symbol][]*production{},
		id2Prod:   map[productionID]*production{},
	}
}

// append numbers a production in the order of calls. It returns false when the same production is
// already registered.
func (ps *productionSet) append(prod *production) bool {
	if _, ok := ps.id2Prod[prod.id]; ok {
		return false
	}

	prod.num = productionNum(len(ps.prods))
	ps.prods = append(ps.prods, prod)
	ps.lhs2Prods[prod.lhs] = append(ps.lhs2Prods[prod.lhs], prod)
	ps.id2Prod[prod.id] = prod

	return true
}

func (ps *productionSet) findByID(id productionID) (*production, bool) {
	prod, ok := ps.id2Prod[id]
	return prod, ok
}

func (ps *productionSet) findByNum(num productionNum) (*production, bool) {
	if num.Int() >= len(ps.prods) {
		return nil, false
	}
	return ps.prods[num], true
}

func (ps *productionSet) findByLHS(lhs symbol.Symbol) ([]*production, bool) {
	if lhs.IsNil() {
		return nil, false
	}

	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

// getAllProductions returns the productions in declaration order.
func (ps *productionSet) getAllProductions() []*production {
	return ps.prods
}
