package compressor

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

func (t *OriginalTable) row(row int) []int {
	start := row * t.colCount
	return t.entries[start : start+t.colCount]
}

// Compressor is a read-only view of a table. A lookup through a compressed table returns exactly the entry
// of the original table.
type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, error)
	OriginalTableSize() (int, int)

	// Validate reports whether every in-range lookup can be answered. A table read from outside this
	// package should be validated before use.
	Validate() error
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
	_ Compressor = &DefaultEntryTable{}
)

// UniqueEntriesTable stores each distinct row once.
type UniqueEntriesTable struct {
	UniqueEntries    []int `json:"unique_entries"`
	RowNums          []int `json:"row_nums"`
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col], nil
}

func (tab *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *UniqueEntriesTable) Validate() error {
	if tab.OriginalRowCount <= 0 || tab.OriginalColCount <= 0 {
		return fmt.Errorf("invalid table size: %v x %v", tab.OriginalRowCount, tab.OriginalColCount)
	}
	if len(tab.RowNums) != tab.OriginalRowCount {
		return fmt.Errorf("row count mismatch; rows: %v, row numbers: %v", tab.OriginalRowCount, len(tab.RowNums))
	}
	if len(tab.UniqueEntries)%tab.OriginalColCount != 0 {
		return fmt.Errorf("unique entries don't form whole rows: %v entries, %v columns", len(tab.UniqueEntries), tab.OriginalColCount)
	}
	uniqueRows := len(tab.UniqueEntries) / tab.OriginalColCount
	for row, n := range tab.RowNums {
		if n < 0 || n >= uniqueRows {
			return fmt.Errorf("row %v refers to a missing unique row: %v", row, n)
		}
	}
	return nil
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	hash2RowNum := map[string]int{}
	nextRowNum := 0
	for row := 0; row < orig.rowCount; row++ {
		var rowHash string
		{
			buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
			b := make([]byte, binary.MaxVarintLen64)
			for _, v := range orig.row(row) {
				n := binary.PutVarint(b, int64(v))
				buf = append(buf, b[:n]...)
			}
			rowHash = string(buf)
		}
		rowNum, ok := hash2RowNum[rowHash]
		if !ok {
			rowNum = nextRowNum
			nextRowNum++
			hash2RowNum[rowHash] = rowNum
			uniqueEntries = append(uniqueEntries, orig.row(row)...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.RowNums = rowNums
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

const ForbiddenValue = -1

// RowDisplacementTable overlays sparse rows on one array. Bounds records the row owning each cell, so a
// cell owned by another row reads as EmptyValue.
type RowDisplacementTable struct {
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
	EmptyValue       int   `json:"empty_value"`
	Entries          []int `json:"entries"`
	Bounds           []int `json:"bounds"`
	RowDisplacement  []int `json:"row_displacement"`
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	d := tab.RowDisplacement[row]
	if d+col >= len(tab.Bounds) || tab.Bounds[d+col] != row {
		return tab.EmptyValue, nil
	}
	return tab.Entries[d+col], nil
}

func (tab *RowDisplacementTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *RowDisplacementTable) Validate() error {
	if tab.OriginalRowCount <= 0 || tab.OriginalColCount <= 0 {
		return fmt.Errorf("invalid table size: %v x %v", tab.OriginalRowCount, tab.OriginalColCount)
	}
	if len(tab.RowDisplacement) != tab.OriginalRowCount {
		return fmt.Errorf("row count mismatch; rows: %v, displacements: %v", tab.OriginalRowCount, len(tab.RowDisplacement))
	}
	if len(tab.Entries) != len(tab.Bounds) {
		return fmt.Errorf("entries and bounds differ in length: %v, %v", len(tab.Entries), len(tab.Bounds))
	}
	for row, d := range tab.RowDisplacement {
		if d < 0 {
			return fmt.Errorf("row %v has a negative displacement: %v", row, d)
		}
	}
	return nil
}

type rowInfo struct {
	rowNum        int
	nonEmptyCount int
	nonEmptyCol   []int
}

func (tab *RowDisplacementTable) Compress(orig *OriginalTable) error {
	rowInfo := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rowInfo[row].rowNum = row
		for col, v := range orig.row(row) {
			if v == tab.EmptyValue {
				continue
			}
			rowInfo[row].nonEmptyCount++
			rowInfo[row].nonEmptyCol = append(rowInfo[row].nonEmptyCol, col)
		}
	}
	// Placing dense rows first leaves the gaps for sparse rows.
	sort.SliceStable(rowInfo, func(i int, j int) bool {
		return rowInfo[i].nonEmptyCount > rowInfo[j].nonEmptyCount
	})

	origEntriesLen := len(orig.entries)
	entries := make([]int, origEntriesLen)
	bounds := make([]int, origEntriesLen)
	resultBottom := orig.colCount
	rowDisplacement := make([]int, orig.rowCount)
	{
		for i := 0; i < origEntriesLen; i++ {
			entries[i] = tab.EmptyValue
			bounds[i] = ForbiddenValue
		}

		nextRowDisplacement := 0
		for _, rInfo := range rowInfo {
			if rInfo.nonEmptyCount <= 0 {
				continue
			}

			for {
				isOverlapped := false
				for _, col := range rInfo.nonEmptyCol {
					if bounds[nextRowDisplacement+col] == ForbiddenValue {
						continue
					}
					nextRowDisplacement++
					isOverlapped = true
					break
				}
				if isOverlapped {
					continue
				}

				rowDisplacement[rInfo.rowNum] = nextRowDisplacement
				for _, col := range rInfo.nonEmptyCol {
					entries[nextRowDisplacement+col] = orig.entries[(rInfo.rowNum*orig.colCount)+col]
					bounds[nextRowDisplacement+col] = rInfo.rowNum
				}
				if bottom := nextRowDisplacement + orig.colCount; bottom > resultBottom {
					resultBottom = bottom
				}
				nextRowDisplacement++
				break
			}
		}
	}

	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount
	tab.Entries = entries[:resultBottom]
	tab.Bounds = bounds[:resultBottom]
	tab.RowDisplacement = rowDisplacement

	return nil
}

// defaultEntrySentinel marks a cell holding the default entry of its row. No ACTION or GOTO entry can
// take this value.
const defaultEntrySentinel = math.MinInt32

// DefaultEntryTable keeps the most frequent entry of each row as the row default and stores only the
// other entries in a row displacement table.
type DefaultEntryTable struct {
	Defaults         []int                 `json:"defaults"`
	Rest             *RowDisplacementTable `json:"rest"`
	OriginalRowCount int                   `json:"original_row_count"`
	OriginalColCount int                   `json:"original_col_count"`
}

func NewDefaultEntryTable() *DefaultEntryTable {
	return &DefaultEntryTable{}
}

func (tab *DefaultEntryTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	v, err := tab.Rest.Lookup(row, col)
	if err != nil {
		return 0, err
	}
	if v == defaultEntrySentinel {
		return tab.Defaults[row], nil
	}
	return v, nil
}

func (tab *DefaultEntryTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *DefaultEntryTable) Validate() error {
	if len(tab.Defaults) != tab.OriginalRowCount {
		return fmt.Errorf("row count mismatch; rows: %v, defaults: %v", tab.OriginalRowCount, len(tab.Defaults))
	}
	if tab.Rest == nil {
		return fmt.Errorf("rest table is missing")
	}
	if rows, cols := tab.Rest.OriginalTableSize(); rows != tab.OriginalRowCount || cols != tab.OriginalColCount {
		return fmt.Errorf("rest table size mismatch; want: %v x %v, got: %v x %v", tab.OriginalRowCount, tab.OriginalColCount, rows, cols)
	}
	return tab.Rest.Validate()
}

func (tab *DefaultEntryTable) Compress(orig *OriginalTable) error {
	defaults := make([]int, orig.rowCount)
	rest := make([]int, len(orig.entries))
	for row := 0; row < orig.rowCount; row++ {
		entries := orig.row(row)
		def := mostFrequentEntry(entries)
		defaults[row] = def
		for col, v := range entries {
			if v == defaultEntrySentinel {
				return fmt.Errorf("a table cannot contain %v", defaultEntrySentinel)
			}
			if v == def {
				rest[row*orig.colCount+col] = defaultEntrySentinel
				continue
			}
			rest[row*orig.colCount+col] = v
		}
	}

	restOrig, err := NewOriginalTable(rest, orig.colCount)
	if err != nil {
		return err
	}
	rd := NewRowDisplacementTable(defaultEntrySentinel)
	if err := rd.Compress(restOrig); err != nil {
		return err
	}

	tab.Defaults = defaults
	tab.Rest = rd
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

// mostFrequentEntry breaks a tie in favour of the smaller value.
func mostFrequentEntry(entries []int) int {
	counts := map[int]int{}
	for _, v := range entries {
		counts[v]++
	}
	def := entries[0]
	for v, c := range counts {
		if c > counts[def] || (c == counts[def] && v < def) {
			def = v
		}
	}
	return def
}
