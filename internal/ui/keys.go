package ui

import "github.com/charmbracelet/bubbles/key"

type dashboardKeyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	Facet     key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	Select    key.Binding
	Back      key.Binding
	Search    key.Binding
	Sort      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	PageSize  key.Binding
	RankMode  key.Binding
	MoreCWE   key.Binding
	LessCWE   key.Binding
	TopK      key.Binding
	Vendor    key.Binding
	Product   key.Binding
}

func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Facet, k.Refresh, k.Help, k.Quit}
}

func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Facet, k.Refresh, k.Help, k.Quit},
		{k.Select, k.Back, k.Search, k.Sort, k.PageSize},
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage},
		{k.RankMode, k.MoreCWE, k.LessCWE, k.TopK, k.Vendor, k.Product},
	}
}

var dashboardKeys = dashboardKeyMap{
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous view"),
	),
	Facet: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "bulletin type"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Sort: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5"),
		key.WithHelp("1-5", "sort column"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "n"),
		key.WithHelp("→/n", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "p"),
		key.WithHelp("←/p", "previous page"),
	),
	FirstPage: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "first page"),
	),
	LastPage: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "last page"),
	),
	PageSize: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "page size"),
	),
	RankMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "vendors/products"),
	),
	MoreCWE: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "more CWE"),
	),
	LessCWE: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "fewer CWE"),
	),
	TopK: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "box plot size"),
	),
	Vendor: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next vendor"),
	),
	Product: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "next product"),
	),
}
