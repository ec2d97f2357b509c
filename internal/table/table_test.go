package table

import (
	"fmt"
	"testing"

	"cvedash/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, title, date, cvss string) model.VulnerabilityRecord {
	return model.VulnerabilityRecord{
		CVEID:           id,
		Title:           title,
		BulletinType:    model.BulletinAvis,
		PublicationDate: date,
		Published:       model.ParseDate(date),
		CVSS:            model.ParseScore(cvss),
	}
}

func manyRecords(n int) []model.VulnerabilityRecord {
	records := make([]model.VulnerabilityRecord, n)
	for i := range records {
		records[i] = record(fmt.Sprintf("CVE-2024-%04d", i), fmt.Sprintf("Bulletin %d", i), fmt.Sprintf("2024-01-%02d", i%28+1), "5")
	}
	return records
}

func ids(rows []model.VulnerabilityRecord) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CVEID
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	tbl := New([]model.VulnerabilityRecord{
		record("CVE-A", "a", "2024-01-01", "1"),
		record("CVE-B", "b", "2024-03-01", "1"),
		record("CVE-C", "c", "2024-02-01", "1"),
	}, 0)

	assert.Equal(t, ColumnDate, tbl.SortColumn())
	assert.Equal(t, Desc, tbl.SortDirection())
	assert.Equal(t, DefaultPageSize, tbl.PageSize())
	assert.Equal(t, 1, tbl.CurrentPage())
	assert.Equal(t, []string{"CVE-B", "CVE-C", "CVE-A"}, ids(tbl.Page()))
}

func TestSortBy_CVSSMissingLowest(t *testing.T) {
	tbl := New([]model.VulnerabilityRecord{
		record("CVE-NA", "x", "2024-01-01", "n/a"),
		record("CVE-HI", "y", "2024-01-01", "9.5"),
		record("CVE-LO", "z", "2024-01-01", "3.2"),
	}, 10)

	tbl.SortBy(ColumnCVSS)
	assert.Equal(t, Desc, tbl.SortDirection())
	assert.Equal(t, []string{"CVE-HI", "CVE-LO", "CVE-NA"}, ids(tbl.Page()))

	tbl.SortBy(ColumnCVSS)
	assert.Equal(t, Asc, tbl.SortDirection())
	assert.Equal(t, []string{"CVE-NA", "CVE-LO", "CVE-HI"}, ids(tbl.Page()))
}

func TestSortBy_NegativeCVSSTiesWithMissing(t *testing.T) {
	tbl := New([]model.VulnerabilityRecord{
		record("CVE-NA", "x", "2024-01-01", "n/a"),
		record("CVE-NEG", "y", "2024-01-01", "-2"),
		record("CVE-LO", "z", "2024-01-01", "1.0"),
	}, 10)

	tbl.SortBy(ColumnCVSS)
	tbl.SortBy(ColumnCVSS)
	require.Equal(t, Asc, tbl.SortDirection())
	assert.Equal(t, []string{"CVE-NA", "CVE-NEG", "CVE-LO"}, ids(tbl.Page()))
}

func TestSortBy_TogglePairIsIdempotent(t *testing.T) {
	tbl := New(manyRecords(5), 10)
	tbl.SortBy(ColumnTitle)
	before := tbl.SortDirection()

	tbl.SortBy(ColumnTitle)
	tbl.SortBy(ColumnTitle)
	assert.Equal(t, before, tbl.SortDirection())
	assert.Equal(t, ColumnTitle, tbl.SortColumn())
}

func TestSortBy_NewColumnStartsDescending(t *testing.T) {
	tbl := New(manyRecords(3), 10)
	tbl.SortBy(ColumnDate) // flips to asc
	require.Equal(t, Asc, tbl.SortDirection())

	tbl.SortBy(ColumnCVE)
	assert.Equal(t, ColumnCVE, tbl.SortColumn())
	assert.Equal(t, Desc, tbl.SortDirection())
	assert.Equal(t, "CVE-2024-0002", tbl.Page()[0].CVEID)
}

func TestSortBy_KeepsPage(t *testing.T) {
	tbl := New(manyRecords(30), 10)
	tbl.GoToPage(3)
	tbl.SortBy(ColumnCVE)
	assert.Equal(t, 3, tbl.CurrentPage())
}

func TestSearch(t *testing.T) {
	records := []model.VulnerabilityRecord{
		record("CVE-2023-0001", "Buffer overflow in Foo", "2024-01-01", "7"),
		record("CVE-2024-0002", "SQL injection", "2024-01-02", "8"),
		record("CVE-2024-0003", "Path traversal in cve-2023 parser", "2024-01-03", "5"),
	}
	tbl := New(records, 10)
	tbl.GoToPage(1)

	tbl.Search("cve-2023")
	assert.Equal(t, 2, tbl.FilteredCount())
	assert.ElementsMatch(t, []string{"CVE-2023-0001", "CVE-2024-0003"}, ids(tbl.Page()))

	tbl.Search("SQL")
	assert.Equal(t, []string{"CVE-2024-0002"}, ids(tbl.Page()))

	tbl.Search("nothing matches")
	assert.Equal(t, 0, tbl.FilteredCount())
	assert.Empty(t, tbl.Page())
	assert.Equal(t, 0, tbl.TotalPages())
	assert.Equal(t, 1, tbl.CurrentPage())

	tbl.Search("")
	assert.Equal(t, 3, tbl.FilteredCount())
	assert.Equal(t, 3, tbl.TotalCount())
}

func TestSearch_ResetsPageKeepsSort(t *testing.T) {
	tbl := New(manyRecords(30), 10)
	tbl.SortBy(ColumnCVE)
	tbl.SortBy(ColumnCVE)
	tbl.LastPage()
	require.Equal(t, 3, tbl.CurrentPage())

	tbl.Search("bulletin 1")
	assert.Equal(t, 1, tbl.CurrentPage())
	assert.Equal(t, ColumnCVE, tbl.SortColumn())
	assert.Equal(t, Asc, tbl.SortDirection())
	assert.Equal(t, "CVE-2024-0001", tbl.Page()[0].CVEID)
}

func TestPagination(t *testing.T) {
	tbl := New(manyRecords(25), 10)
	assert.Equal(t, 3, tbl.TotalPages())

	tbl.PrevPage()
	assert.Equal(t, 1, tbl.CurrentPage())

	tbl.NextPage()
	tbl.NextPage()
	assert.Equal(t, 3, tbl.CurrentPage())
	assert.Len(t, tbl.Page(), 5)

	tbl.NextPage()
	assert.Equal(t, 3, tbl.CurrentPage())

	tbl.FirstPage()
	assert.Equal(t, 1, tbl.CurrentPage())

	tbl.LastPage()
	assert.Equal(t, 3, tbl.CurrentPage())

	tbl.GoToPage(-4)
	assert.Equal(t, 1, tbl.CurrentPage())
	tbl.GoToPage(99)
	assert.Equal(t, 3, tbl.CurrentPage())
}

func TestSetPageSize(t *testing.T) {
	tbl := New(manyRecords(25), 10)
	tbl.LastPage()

	require.NoError(t, tbl.SetPageSize(5))
	assert.Equal(t, 1, tbl.CurrentPage())
	assert.Equal(t, 5, tbl.TotalPages())

	assert.ErrorIs(t, tbl.SetPageSize(0), ErrInvalidPageSize)
	assert.Equal(t, 5, tbl.PageSize())
}

func TestCyclePageSize(t *testing.T) {
	tbl := New(manyRecords(3), 10)
	tbl.CyclePageSize()
	assert.Equal(t, 25, tbl.PageSize())
	tbl.CyclePageSize()
	tbl.CyclePageSize()
	assert.Equal(t, 100, tbl.PageSize())
	tbl.CyclePageSize()
	assert.Equal(t, 10, tbl.PageSize())
}

func TestSetRecords_ClampsPage(t *testing.T) {
	tbl := New(manyRecords(30), 10)
	tbl.LastPage()
	tbl.SetRecords(manyRecords(12))
	assert.Equal(t, 2, tbl.CurrentPage())
	assert.Equal(t, 12, tbl.TotalCount())
}

func TestSelect_UsesUnfilteredRecords(t *testing.T) {
	records := []model.VulnerabilityRecord{
		record("CVE-1", "one", "2024-01-01", "9.8"),
		record("CVE-2", "two", "2024-01-02", "n/a"),
	}
	records[1].Description = "Long description"
	records[1].Link = "https://example.test/avis/2"

	tbl := New(records, 10)
	tbl.Search("one")
	require.Equal(t, 1, tbl.FilteredCount())

	d, ok := tbl.Select("CVE-2")
	require.True(t, ok)
	assert.Equal(t, "Long description", d.Description)
	assert.Equal(t, "https://example.test/avis/2", d.Link)
	assert.Equal(t, "n/a", d.CVSSScore)
	assert.Equal(t, "n/a", d.Vendor)
	assert.Contains(t, d.String(), "Description: Long description")

	assert.Equal(t, 1, tbl.FilteredCount(), "selection must not change table state")

	_, ok = tbl.Select("CVE-404")
	assert.False(t, ok)
}

func TestParseColumnAndDirection(t *testing.T) {
	c, err := ParseColumn("cvss")
	require.NoError(t, err)
	assert.Equal(t, ColumnCVSS, c)
	_, err = ParseColumn("epss")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	d, err := ParseDirection("asc")
	require.NoError(t, err)
	assert.Equal(t, Asc, d)
	_, err = ParseDirection("up")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}

func TestApply(t *testing.T) {
	tbl, err := Apply(manyRecords(30), Query{Sort: ColumnCVE, Dir: Asc, Page: 2, PageSize: 10})
	require.NoError(t, err)

	res := tbl.Snapshot()
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 30, res.FilteredCount)
	require.Len(t, res.Rows, 10)
	assert.Equal(t, "CVE-2024-0010", res.Rows[0].CVEID)
	assert.Equal(t, "5", res.Rows[0].CVSSScore)

	_, err = Apply(nil, Query{PageSize: -1})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	tbl, err = Apply(nil, Query{})
	require.NoError(t, err)
	assert.Empty(t, tbl.Snapshot().Rows)
}
