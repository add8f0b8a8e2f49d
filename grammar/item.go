package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/nihei9/yuzu/grammar/symbol"
)

type lrItemID [32]byte

func (id lrItemID) String() string {
	return fmt.Sprintf("%x", id.num())
}

func (id lrItemID) num() uint32 {
	return binary.LittleEndian.Uint32(id[:])
}

func (id lrItemID) less(other lrItemID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

type lookAhead struct {
	symbols map[symbol.Symbol]struct{}

	// When propagation is true, the item passes its look-ahead symbols on to the items it reaches.
	propagation bool
}

func (la *lookAhead) add(sym symbol.Symbol) bool {
	if la.symbols == nil {
		la.symbols = map[symbol.Symbol]struct{}{}
	}
	if _, ok := la.symbols[sym]; ok {
		return false
	}
	la.symbols[sym] = struct{}{}
	return true
}

type lrItem struct {
	id   lrItemID
	prod productionID

	// expr → expr add term
	//
	// dot | dotted symbol | item
	// ----+---------------+------------------------
	// 0   | expr          | expr → ・expr add term
	// 1   | add           | expr → expr・add term
	// 2   | term          | expr → expr add・term
	// 3   | nil           | expr → expr add term・
	dot          int
	dottedSymbol symbol.Symbol

	// initial is true only for S' →・S.
	initial bool

	reducible bool
	kernel    bool

	lookAhead lookAhead
}

func newLR0Item(prod *production, dot int) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}
	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	var id lrItemID
	{
		b := []byte{}
		b = append(b, prod.id[:]...)
		bDot := make([]byte, 8)
		binary.LittleEndian.PutUint64(bDot, uint64(dot))
		b = append(b, bDot...)
		id = sha256.Sum256(b)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	initial := prod.lhs.IsStart() && dot == 0

	return &lrItem{
		id:           id,
		prod:         prod.id,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		initial:      initial,
		reducible:    dot == prod.rhsLen,
		kernel:       initial || dot > 0,
	}, nil
}

type kernelID [32]byte

func (id kernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type kernel struct {
	id    kernelID
	items []*lrItem
}

// newKernel identifies a kernel by its item set, so the order of the passed items doesn't matter.
func newKernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel needs at least one item")
	}

	var sortedItems []*lrItem
	{
		m := map[lrItemID]*lrItem{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item.id)
			}
			m[item.id] = item
		}
		sortedItems = make([]*lrItem, 0, len(m))
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return sortedItems[i].id.less(sortedItems[j].id)
		})
	}

	var id kernelID
	{
		b := []byte{}
		for _, item := range sortedItems {
			b = append(b, item.id[:]...)
		}
		id = sha256.Sum256(b)
	}

	return &kernel{
		id:    id,
		items: sortedItems,
	}, nil
}

func (k *kernel) findItem(id lrItemID) (*lrItem, bool) {
	for _, item := range k.items {
		if item.id == id {
			return item, true
		}
	}
	return nil, false
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

func (n stateNum) next() stateNum {
	return stateNum(n + 1)
}

type lrState struct {
	*kernel
	num       stateNum
	next      map[symbol.Symbol]stateNum
	reducible map[productionID]struct{}

	// emptyProdItems holds the reducible items `A → ・` the closure of the kernel adds. Their look-ahead
	// symbols live here because the kernel doesn't contain them.
	//
	//	s' → ・s
	//	s  → ・a
	//	s  → ・      (not a kernel item, but reducible in this state)
	emptyProdItems []*lrItem

	// When isErrorTrapper is true, the state has an item whose dotted symbol is the error symbol, so the
	// state can shift the error symbol during recovery.
	isErrorTrapper bool
}

// findReducibleItem returns the item that reduces the production in the state, either a kernel item or an
// item of an empty production.
func (s *lrState) findReducibleItem(id lrItemID) (*lrItem, bool) {
	if item, ok := s.findItem(id); ok {
		return item, true
	}
	for _, item := range s.emptyProdItems {
		if item.id == id {
			return item, true
		}
	}
	return nil, false
}
