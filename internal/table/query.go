package table

import (
	"fmt"

	"cvedash/internal/model"
)

// Query describes a table state without history, as sent by the HTTP API.
// Zero values mean the defaults of New.
type Query struct {
	Sort     Column
	Dir      Direction
	Search   string
	Page     int
	PageSize int
}

// Row is the compact projection of a record shown in the table.
type Row struct {
	CVEID           string `json:"cveId" yaml:"cveId"`
	BulletinType    string `json:"bulletinType" yaml:"bulletinType"`
	Title           string `json:"title" yaml:"title"`
	PublicationDate string `json:"publicationDate" yaml:"publicationDate"`
	CVSSScore       string `json:"cvssScore" yaml:"cvssScore"`
}

// NewRow projects a record into a table row.
func NewRow(r model.VulnerabilityRecord) Row {
	return Row{
		CVEID:           r.CVEID,
		BulletinType:    string(r.BulletinType),
		Title:           r.Title,
		PublicationDate: r.DateLabel(),
		CVSSScore:       r.CVSS.String(),
	}
}

// Result is one page of the table.
type Result struct {
	Rows          []Row     `json:"rows" yaml:"rows"`
	Sort          Column    `json:"sort" yaml:"sort"`
	Dir           Direction `json:"dir" yaml:"dir"`
	Search        string    `json:"search" yaml:"search"`
	Page          int       `json:"page" yaml:"page"`
	PageSize      int       `json:"pageSize" yaml:"pageSize"`
	TotalPages    int       `json:"totalPages" yaml:"totalPages"`
	FilteredCount int       `json:"filteredCount" yaml:"filteredCount"`
	TotalCount    int       `json:"totalCount" yaml:"totalCount"`
}

// Snapshot captures the current page and state.
func (t *Table) Snapshot() Result {
	page := t.Page()
	rows := make([]Row, len(page))
	for i, r := range page {
		rows[i] = NewRow(r)
	}
	return Result{
		Rows:          rows,
		Sort:          t.sortColumn,
		Dir:           t.sortDir,
		Search:        t.search,
		Page:          t.page,
		PageSize:      t.pageSize,
		TotalPages:    t.TotalPages(),
		FilteredCount: len(t.filtered),
		TotalCount:    len(t.records),
	}
}

// Apply builds a table from the records and replays q onto it.
func Apply(records []model.VulnerabilityRecord, q Query) (*Table, error) {
	if q.PageSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, q.PageSize)
	}
	t := New(records, q.PageSize)
	if q.Search != "" {
		t.Search(q.Search)
	}
	if q.Sort != "" || q.Dir != "" {
		col, dir := t.sortColumn, t.sortDir
		if q.Sort != "" {
			col = q.Sort
		}
		if q.Dir != "" {
			dir = q.Dir
		}
		t.SetSort(col, dir)
	}
	if q.Page > 0 {
		t.GoToPage(q.Page)
	}
	return t, nil
}
