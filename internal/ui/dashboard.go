package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cvedash/internal/analytics"
	"cvedash/internal/datasource"
	"cvedash/internal/model"
	"cvedash/internal/table"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Loader is the part of datasource.Loader the dashboard drives.
type Loader interface {
	Load(ctx context.Context) (datasource.Snapshot, error)
	Refresh(ctx context.Context) (datasource.Snapshot, error)
}

const tableTab = "table"

// tabs lists the views: the table first, then every chart.
var tabs = append([]string{tableTab}, analytics.ChartNames...)

// snapshotMsg carries a snapshot installed by the loader.
type snapshotMsg datasource.Snapshot

// fetchErrMsg carries a failed fetch and the stale snapshot served instead.
type fetchErrMsg struct {
	snap datasource.Snapshot
	err  error
}

// DashboardModel is the terminal dashboard.
type DashboardModel struct {
	keys   dashboardKeyMap
	help   help.Model
	loader Loader

	records    []model.VulnerabilityRecord
	generation uint64
	filters    analytics.Filters

	tab       int
	tbl       *table.Table
	grid      btable.Model
	search    textinput.Model
	searching bool
	detail    *table.Detail

	loading bool
	err     error
	width   int
	height  int
}

// NewDashboardModel creates the dashboard on the table view with default filters.
func NewDashboardModel(loader Loader, pageSize int) DashboardModel {
	ti := textinput.New()
	ti.Placeholder = "CVE id or title"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	s := btable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	grid := btable.New(
		btable.WithFocused(true),
		btable.WithHeight(12),
	)
	grid.SetStyles(s)

	m := DashboardModel{
		keys:    dashboardKeys,
		help:    help.New(),
		loader:  loader,
		filters: analytics.DefaultFilters(),
		tbl:     table.New(nil, pageSize),
		grid:    grid,
		search:  ti,
		loading: true,
	}
	m.syncGrid()
	return m
}

func (m DashboardModel) Init() tea.Cmd {
	return m.fetch(false)
}

// fetch loads through the shared loader; force bypasses its cache.
func (m DashboardModel) fetch(force bool) tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		load := loader.Load
		if force {
			load = loader.Refresh
		}
		snap, err := load(context.Background())
		if err != nil {
			return fetchErrMsg{snap: snap, err: err}
		}
		return snapshotMsg(snap)
	}
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.grid.SetHeight(max(msg.Height-10, 3))
		m.syncGrid()
		return m, nil

	case snapshotMsg:
		m.loading = false
		m.err = nil
		m.install(datasource.Snapshot(msg))
		return m, nil

	case fetchErrMsg:
		m.loading = false
		m.err = msg.err
		m.install(msg.snap)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// install applies a snapshot unless a newer one is already shown.
func (m *DashboardModel) install(snap datasource.Snapshot) {
	if snap.Empty() || snap.Generation <= m.generation {
		return
	}
	m.generation = snap.Generation
	m.records = snap.Records
	m.tbl.SetRecords(snap.Records)
	m.syncGrid()
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	if m.detail != nil {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Select):
			m.detail = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % len(tabs)
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + len(tabs) - 1) % len(tabs)
		return m, nil
	case key.Matches(msg, m.keys.Facet):
		m.filters.Facet = m.filters.Facet.Next()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.fetch(true)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if tabs[m.tab] == tableTab {
		return m.handleTableKey(msg)
	}
	m.handleChartKey(msg)
	return m, nil
}

func (m DashboardModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.tbl.Search(m.search.Value())
		m.syncGrid()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.tbl.SearchTerm())
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m DashboardModel) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if row := m.grid.SelectedRow(); row != nil {
			if d, ok := m.tbl.Select(row[0]); ok {
				m.detail = &d
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.tbl.SearchTerm())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Back):
		if m.tbl.SearchTerm() != "" {
			m.tbl.Search("")
			m.search.SetValue("")
		}
	case key.Matches(msg, m.keys.Sort):
		m.tbl.SortBy(table.Columns[msg.Runes[0]-'1'])
	case key.Matches(msg, m.keys.NextPage):
		m.tbl.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		m.tbl.PrevPage()
	case key.Matches(msg, m.keys.FirstPage):
		m.tbl.FirstPage()
	case key.Matches(msg, m.keys.LastPage):
		m.tbl.LastPage()
	case key.Matches(msg, m.keys.PageSize):
		m.tbl.CyclePageSize()
	default:
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd
	}
	m.syncGrid()
	return m, nil
}

func (m *DashboardModel) handleChartKey(msg tea.KeyMsg) {
	filtered := analytics.FilterByBulletinType(m.records, m.filters.Facet)

	switch {
	case key.Matches(msg, m.keys.RankMode):
		m.filters.RankMode = m.filters.RankMode.Toggle()
	case key.Matches(msg, m.keys.MoreCWE):
		m.stepCWELimit(filtered, 1)
	case key.Matches(msg, m.keys.LessCWE):
		m.stepCWELimit(filtered, -1)
	case key.Matches(msg, m.keys.TopK):
		m.filters.BoxPlotTopK = nextInt(analytics.BoxPlotSizes, m.filters.BoxPlotTopK)
	case key.Matches(msg, m.keys.Vendor):
		m.filters.Vendor = nextString(analytics.Vendors(filtered), m.filters.Vendor)
		m.filters.Product = ""
	case key.Matches(msg, m.keys.Product):
		products := analytics.ProductsForVendor(filtered, m.filters.Vendor)
		m.filters.Product = nextString(products, m.filters.Product)
	}
}

// stepCWELimit moves the CWE limit by delta. Zero means every type is shown.
func (m *DashboardModel) stepCWELimit(records []model.VulnerabilityRecord, delta int) {
	total := len(analytics.CWEBreakdown(records).Ranked)
	limit := m.filters.CWELimit
	if limit == 0 || limit > total {
		limit = total
	}
	limit += delta
	if limit < 1 {
		limit = 1
	}
	if limit >= total {
		limit = 0
	}
	m.filters.CWELimit = limit
}

func nextInt(options []int, current int) int {
	for i, v := range options {
		if v == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

// nextString cycles through options, then back to no selection.
func nextString(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, v := range options {
		if v == current && i+1 < len(options) {
			return options[i+1]
		}
	}
	return ""
}

// syncGrid copies the current table page into the bubbles table.
func (m *DashboardModel) syncGrid() {
	widths := []int{16, 8, 40, 12, 6}
	if m.width > 0 {
		widths[2] = max(m.width-16-8-12-6-14, 10)
	}

	cols := make([]btable.Column, len(table.Columns))
	for i, c := range table.Columns {
		title := fmt.Sprintf("%d %s", i+1, columnTitles[c])
		if c == m.tbl.SortColumn() {
			title += sortArrow(m.tbl.SortDirection())
		}
		cols[i] = btable.Column{Title: title, Width: widths[i]}
	}

	page := m.tbl.Page()
	rows := make([]btable.Row, len(page))
	for i, r := range page {
		row := table.NewRow(r)
		rows[i] = btable.Row{row.CVEID, row.BulletinType, row.Title, row.PublicationDate, row.CVSSScore}
	}

	m.grid.SetColumns(cols)
	m.grid.SetRows(rows)
	if len(rows) > 0 && m.grid.Cursor() >= len(rows) {
		m.grid.SetCursor(len(rows) - 1)
	}
}

func (m DashboardModel) View() string {
	var b strings.Builder

	status := fmt.Sprintf("%d bulletins · type %s", len(m.records), m.filters.Facet)
	if m.loading {
		status += " · loading…"
	}
	b.WriteString(headerStyle.Render("CVE Dashboard") + " " + mutedStyle.Render(status) + "\n")
	b.WriteString(m.tabsView() + "\n\n")

	if tabs[m.tab] == tableTab {
		b.WriteString(m.tableView())
	} else {
		b.WriteString(m.chartView(tabs[m.tab]))
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Fetch failed: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m DashboardModel) tabsView() string {
	parts := make([]string, len(tabs))
	for i, name := range tabs {
		if i == m.tab {
			parts[i] = activeTabStyle.Render(name)
		} else {
			parts[i] = inactiveTabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m DashboardModel) tableView() string {
	if m.detail != nil {
		return paneStyle.Render(RenderDetail(*m.detail))
	}

	var b strings.Builder
	b.WriteString(m.grid.View() + "\n")
	if m.searching {
		b.WriteString(m.search.View() + "\n")
	}

	footer := fmt.Sprintf("Page %d/%d · %d of %d · %d per page",
		m.tbl.CurrentPage(), max(m.tbl.TotalPages(), 1), m.tbl.FilteredCount(), m.tbl.TotalCount(), m.tbl.PageSize())
	if term := m.tbl.SearchTerm(); term != "" {
		footer += fmt.Sprintf(" · search %q", term)
	}
	b.WriteString(mutedStyle.Render(footer) + "\n")
	return b.String()
}

func (m DashboardModel) chartView(name string) string {
	var b strings.Builder
	if controls := m.chartControls(name); controls != "" {
		b.WriteString(mutedStyle.Render(controls) + "\n\n")
	}

	series, err := analytics.Chart(name, m.records, m.filters)
	if err == nil {
		var text string
		text, err = RenderChart(name, series, m.width)
		b.WriteString(text)
	}
	if err != nil {
		b.WriteString(errorStyle.Render(err.Error()) + "\n")
	}
	return b.String()
}

func (m DashboardModel) chartControls(name string) string {
	switch name {
	case analytics.ChartCWE:
		if m.filters.CWELimit == 0 {
			return "Showing all CWE types (+/-)"
		}
		return fmt.Sprintf("Showing top %d CWE types (+/-)", m.filters.CWELimit)
	case analytics.ChartEPSS:
		return "Alerte bulletins only"
	case analytics.ChartRanking:
		return fmt.Sprintf("Top %d by %s (m)", analytics.RankingSize, m.filters.RankMode)
	case analytics.ChartBoxPlot:
		return fmt.Sprintf("Top %d vendors (t)", m.filters.BoxPlotTopK)
	case analytics.ChartVersions:
		return fmt.Sprintf("Vendor: %s (v) · Product: %s (o)", orNone(m.filters.Vendor), orNone(m.filters.Product))
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// StartDashboard runs the dashboard until the user quits or ctx is done.
// Snapshots installed by other loader callers are pushed to the view.
func StartDashboard(ctx context.Context, loader *datasource.Loader, pageSize int) error {
	p := tea.NewProgram(NewDashboardModel(loader, pageSize), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := loader.Subscribe(func(s datasource.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
