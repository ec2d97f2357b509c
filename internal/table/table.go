// Package table implements the sortable, searchable, paginated bulletin table.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cvedash/internal/model"
)

var (
	ErrUnknownColumn    = errors.New("unknown sort column")
	ErrUnknownDirection = errors.New("unknown sort direction")
	ErrInvalidPageSize  = errors.New("page size must be positive")
)

// Column identifies a sortable column.
type Column string

const (
	ColumnCVE   Column = "cve"
	ColumnType  Column = "type"
	ColumnTitle Column = "title"
	ColumnDate  Column = "date"
	ColumnCVSS  Column = "cvss"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{ColumnCVE, ColumnType, ColumnTitle, ColumnDate, ColumnCVSS}

// ParseColumn validates a column name.
func ParseColumn(s string) (Column, error) {
	for _, c := range Columns {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, s)
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection validates a direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Asc, Desc:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

func (d Direction) toggle() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// PageSizes are the page sizes offered by the views.
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

// Table holds the table state. It never mutates the records it is given.
type Table struct {
	records  []model.VulnerabilityRecord
	filtered []model.VulnerabilityRecord

	sortColumn Column
	sortDir    Direction
	search     string
	page       int
	pageSize   int
}

// New creates a table sorted by date, newest first. A non-positive page size
// falls back to DefaultPageSize.
func New(records []model.VulnerabilityRecord, pageSize int) *Table {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	t := &Table{
		records:    records,
		sortColumn: ColumnDate,
		sortDir:    Desc,
		page:       1,
		pageSize:   pageSize,
	}
	t.recompute()
	return t
}

// SetRecords replaces the collection after a re-fetch. Sort and search persist;
// the current page is clamped.
func (t *Table) SetRecords(records []model.VulnerabilityRecord) {
	t.records = records
	t.recompute()
	t.clamp()
}

// SortBy handles a click on a column header. Clicking the current column flips
// the direction; a new column starts descending.
func (t *Table) SortBy(c Column) {
	if c == t.sortColumn {
		t.sortDir = t.sortDir.toggle()
	} else {
		t.sortColumn = c
		t.sortDir = Desc
	}
	t.applySort()
	t.clamp()
}

// SetSort sets the sort state directly.
func (t *Table) SetSort(c Column, d Direction) {
	t.sortColumn = c
	t.sortDir = d
	t.applySort()
	t.clamp()
}

// Search filters on cveId or title, case-insensitively, and returns to page 1.
func (t *Table) Search(term string) {
	t.search = term
	t.recompute()
	t.page = 1
}

// SetPageSize changes the page size and returns to page 1.
func (t *Table) SetPageSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	t.pageSize = n
	t.page = 1
	return nil
}

// CyclePageSize advances to the next entry of PageSizes.
func (t *Table) CyclePageSize() {
	next := PageSizes[0]
	for i, n := range PageSizes {
		if n == t.pageSize && i+1 < len(PageSizes) {
			next = PageSizes[i+1]
		}
	}
	t.pageSize = next
	t.page = 1
}

func (t *Table) FirstPage() { t.GoToPage(1) }
func (t *Table) PrevPage() { t.GoToPage(t.page - 1) }
func (t *Table) NextPage() { t.GoToPage(t.page + 1) }
func (t *Table) LastPage() { t.GoToPage(t.TotalPages()) }

// GoToPage moves to page n, clamped to [1, TotalPages].
func (t *Table) GoToPage(n int) {
	t.page = n
	t.clamp()
}

// TotalPages is ceil(FilteredCount / PageSize).
func (t *Table) TotalPages() int {
	return (len(t.filtered) + t.pageSize - 1) / t.pageSize
}

// Page returns the rows of the current page.
func (t *Table) Page() []model.VulnerabilityRecord {
	start := (t.page - 1) * t.pageSize
	if start >= len(t.filtered) {
		return nil
	}
	end := start + t.pageSize
	if end > len(t.filtered) {
		end = len(t.filtered)
	}
	return t.filtered[start:end]
}

func (t *Table) CurrentPage() int { return t.page }
func (t *Table) PageSize() int { return t.pageSize }
func (t *Table) SearchTerm() string { return t.search }
func (t *Table) SortColumn() Column { return t.sortColumn }
func (t *Table) SortDirection() Direction { return t.sortDir }
func (t *Table) FilteredCount() int { return len(t.filtered) }
func (t *Table) TotalCount() int { return len(t.records) }

func (t *Table) clamp() {
	if total := t.TotalPages(); t.page > total {
		t.page = total
	}
	if t.page < 1 {
		t.page = 1
	}
}

func (t *Table) recompute() {
	term := strings.ToLower(strings.TrimSpace(t.search))
	t.filtered = make([]model.VulnerabilityRecord, 0, len(t.records))
	for _, r := range t.records {
		if term == "" ||
			strings.Contains(strings.ToLower(r.CVEID), term) ||
			strings.Contains(strings.ToLower(r.Title), term) {
			t.filtered = append(t.filtered, r)
		}
	}
	t.applySort()
}

func (t *Table) applySort() {
	less := lessFunc(t.sortColumn)
	rows := t.filtered
	sort.SliceStable(rows, func(i, j int) bool {
		if t.sortDir == Asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}

// cvssKey sorts missing scores lowest.
func cvssKey(r model.VulnerabilityRecord) float64 {
	if !r.CVSS.Valid {
		return -1
	}
	return r.CVSS.Value
}

func lessFunc(c Column) func(a, b model.VulnerabilityRecord) bool {
	switch c {
	case ColumnCVE:
		return func(a, b model.VulnerabilityRecord) bool { return a.CVEID < b.CVEID }
	case ColumnType:
		return func(a, b model.VulnerabilityRecord) bool { return a.BulletinType < b.BulletinType }
	case ColumnTitle:
		return func(a, b model.VulnerabilityRecord) bool { return a.Title < b.Title }
	case ColumnCVSS:
		return func(a, b model.VulnerabilityRecord) bool { return cvssKey(a) < cvssKey(b) }
	default:
		return func(a, b model.VulnerabilityRecord) bool { return a.Published.Before(b.Published) }
	}
}
