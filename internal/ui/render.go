package ui

import (
	"fmt"
	"math"
	"strings"

	"cvedash/internal/analytics"
	"cvedash/internal/table"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

const (
	defaultBarWidth = 40
	maxLabelWidth   = 28
	scatterWidth    = 51
	scatterHeight   = 11
	boxPlotWidth    = 41
)

// RenderChart renders one series produced by analytics.Chart as text.
func RenderChart(name string, series interface{}, width int) (string, error) {
	switch s := series.(type) {
	case analytics.SeverityHistogram:
		return RenderSeverity(s, width), nil
	case analytics.CWEDistribution:
		return RenderCWE(s, width), nil
	case analytics.EPSSSeries:
		return RenderEPSS(s, 20, width), nil
	case analytics.CorrelationMatrix:
		return RenderMatrix(s), nil
	case []analytics.ScatterPoint:
		return RenderScatter(s), nil
	case []analytics.CumulativePoint:
		return RenderCumulative(s, width), nil
	case []analytics.FiveNumberSummary:
		return RenderBoxPlot(s), nil
	case []analytics.Count:
		if len(s) == 0 {
			if name == analytics.ChartVersions {
				return "Select a vendor and a product.\n", nil
			}
			return "No data.\n", nil
		}
		return RenderBars(s, width), nil
	default:
		return "", fmt.Errorf("no text rendering for chart %q (%T)", name, series)
	}
}

func barWidth(width int) int {
	if width <= 0 {
		return defaultBarWidth
	}
	w := width - maxLabelWidth - 10
	if w < 10 {
		return 10
	}
	return w
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderBars draws one horizontal bar per count, scaled to the largest.
func RenderBars(counts []analytics.Count, width int) string {
	if len(counts) == 0 {
		return "No data.\n"
	}
	bw := barWidth(width)
	max, labelWidth := 0, 0
	for _, c := range counts {
		if c.Count > max {
			max = c.Count
		}
		if n := len([]rune(clip(c.Name, maxLabelWidth))); n > labelWidth {
			labelWidth = n
		}
	}

	var sb strings.Builder
	for _, c := range counts {
		n := 0
		if max > 0 {
			n = c.Count * bw / max
		}
		if n == 0 && c.Count > 0 {
			n = 1
		}
		label := clip(c.Name, maxLabelWidth)
		pad := strings.Repeat(" ", labelWidth-len([]rune(label)))
		sb.WriteString(fmt.Sprintf("%s%s %s %d\n", label, pad, barStyle.Render(strings.Repeat("█", n)), c.Count))
	}
	return sb.String()
}

// RenderSeverity draws the CVSS histogram with the missing tally.
func RenderSeverity(h analytics.SeverityHistogram, width int) string {
	return RenderBars(h.Buckets, width) + mutedStyle.Render(fmt.Sprintf("Missing CVSS: %d", h.Missing)) + "\n"
}

// RenderCWE draws the CWE distribution with the missing tally.
func RenderCWE(d analytics.CWEDistribution, width int) string {
	body := "No CWE data.\n"
	if len(d.Ranked) > 0 {
		body = RenderBars(d.Ranked, width)
	}
	return body + mutedStyle.Render(fmt.Sprintf("Missing CWE: %d", d.Missing)) + "\n"
}

// RenderEPSS lists the highest EPSS scores, at most limit of them.
func RenderEPSS(s analytics.EPSSSeries, limit, width int) string {
	var sb strings.Builder
	bw := barWidth(width)
	points := s.Points
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	if len(points) == 0 {
		sb.WriteString("No EPSS data.\n")
	}
	for _, p := range points {
		n := int(math.Round(p.Score * float64(bw)))
		sb.WriteString(fmt.Sprintf("%-16s %s %.3f\n", p.CVEID, barStyle.Render(strings.Repeat("█", n)), p.Score))
	}
	if len(s.Points) > len(points) {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("… %d more", len(s.Points)-len(points))) + "\n")
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("Missing EPSS: %d", s.Missing)) + "\n")
	return sb.String()
}

// heatStyle shades a matrix cell by its share of the largest cell.
func heatStyle(n, max int) lipgloss.Style {
	if n == 0 || max == 0 {
		return lipgloss.NewStyle()
	}
	shades := []string{"#FFE5CC", "#FFB366", "#FF8000", "#CC3300"}
	i := n * (len(shades) - 1) / max
	return lipgloss.NewStyle().Background(lipgloss.Color(shades[i])).Foreground(lipgloss.Color("#000"))
}

// RenderMatrix draws the CVSS by EPSS heatmap grid.
func RenderMatrix(m analytics.CorrelationMatrix) string {
	max := 0
	for _, row := range m.Counts {
		for _, n := range row {
			if n > max {
				max = n
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-18s", "CVSS \\ EPSS"))
	for _, b := range m.EPSSBands {
		sb.WriteString(fmt.Sprintf("%14s", b.Label))
	}
	sb.WriteString("\n")
	for i, b := range m.CVSSBands {
		sb.WriteString(fmt.Sprintf("%-18s", b.Label))
		for j := range m.EPSSBands {
			n := 0
			if i < len(m.Counts) && j < len(m.Counts[i]) {
				n = m.Counts[i][j]
			}
			sb.WriteString(heatStyle(n, max).Render(fmt.Sprintf("%14d", n)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderScatter plots CVSS (x, 0 to 10) against EPSS (y, 0 to 1). A cell
// holding several points shows their number.
func RenderScatter(points []analytics.ScatterPoint) string {
	grid := make([][]int, scatterHeight)
	for i := range grid {
		grid[i] = make([]int, scatterWidth)
	}
	for _, p := range points {
		x := int(math.Round(clamp01(p.CVSS/10) * float64(scatterWidth-1)))
		y := scatterHeight - 1 - int(math.Round(clamp01(p.EPSS)*float64(scatterHeight-1)))
		grid[y][x]++
	}

	var sb strings.Builder
	for i, row := range grid {
		label := "    "
		switch i {
		case 0:
			label = "1.0 "
		case scatterHeight / 2:
			label = "0.5 "
		case scatterHeight - 1:
			label = "0.0 "
		}
		sb.WriteString(label + "│")
		for _, n := range row {
			switch {
			case n == 0:
				sb.WriteByte(' ')
			case n == 1:
				sb.WriteString("•")
			case n < 10:
				sb.WriteString(fmt.Sprint(n))
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("    └" + strings.Repeat("─", scatterWidth) + "\n")
	sb.WriteString(fmt.Sprintf("     0%s5%s10  (CVSS)\n",
		strings.Repeat(" ", scatterWidth/2-1), strings.Repeat(" ", scatterWidth/2-2)))
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d points", len(points))) + "\n")
	return sb.String()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// RenderCumulative lists the running total at the end of each day.
func RenderCumulative(points []analytics.CumulativePoint, width int) string {
	if len(points) == 0 {
		return "No data.\n"
	}
	var steps []analytics.Count
	for _, p := range points {
		if n := len(steps); n > 0 && steps[n-1].Name == p.Date {
			steps[n-1].Count = p.Count
			continue
		}
		steps = append(steps, analytics.Count{Name: p.Date, Count: p.Count})
	}
	return RenderBars(steps, width)
}

// RenderBoxPlot draws one whisker line per vendor on a 0 to 10 scale.
func RenderBoxPlot(summaries []analytics.FiveNumberSummary) string {
	if len(summaries) == 0 {
		return "No data.\n"
	}
	pos := func(v float64) int {
		return int(math.Round(clamp01(v/10) * float64(boxPlotWidth-1)))
	}

	var sb strings.Builder
	for _, s := range summaries {
		line := []rune(strings.Repeat(" ", boxPlotWidth))
		for i := pos(s.Min); i <= pos(s.Max); i++ {
			line[i] = '─'
		}
		for i := pos(s.Q1); i <= pos(s.Q3); i++ {
			line[i] = '='
		}
		line[pos(s.Min)] = '├'
		line[pos(s.Max)] = '┤'
		line[pos(s.Q1)] = '['
		line[pos(s.Q3)] = ']'
		line[pos(s.Median)] = '|'
		sb.WriteString(fmt.Sprintf("%-*s %s  min=%g q1=%g med=%g q3=%g max=%g n=%d\n",
			maxLabelWidth, clip(s.Vendor, maxLabelWidth), string(line), s.Min, s.Q1, s.Median, s.Q3, s.Max, s.N))
	}
	sb.WriteString(fmt.Sprintf("%-*s 0%s10\n", maxLabelWidth, "", strings.Repeat(" ", boxPlotWidth-3)))
	return sb.String()
}

// RenderTablePage renders one page of the bulletin table.
func RenderTablePage(res table.Result) string {
	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = []string{r.CVEID, r.BulletinType, clip(r.Title, 60), r.PublicationDate, r.CVSSScore}
	}

	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		h := columnTitles[c]
		if c == res.Sort {
			h += sortArrow(res.Dir)
		}
		headers[i] = h
	}

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...)

	footer := fmt.Sprintf("Page %d/%d · %d of %d bulletins · %d per page",
		res.Page, max(res.TotalPages, 1), res.FilteredCount, res.TotalCount, res.PageSize)
	if res.Search != "" {
		footer += fmt.Sprintf(" · search %q", res.Search)
	}
	return t.Render() + "\n" + mutedStyle.Render(footer) + "\n"
}

// RenderDetail renders the detail projection of one record.
func RenderDetail(d table.Detail) string {
	var sb strings.Builder
	sb.WriteString(detailTitleStyle.Render(d.CVEID) + "\n")
	for _, f := range d.Fields()[1:] {
		sb.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render(fmt.Sprintf("%-12s", f[0]+":")), f[1]))
	}
	return sb.String()
}

var columnTitles = map[table.Column]string{
	table.ColumnCVE:   "CVE",
	table.ColumnType:  "Type",
	table.ColumnTitle: "Title",
	table.ColumnDate:  "Published",
	table.ColumnCVSS:  "CVSS",
}

func sortArrow(d table.Direction) string {
	if d == table.Asc {
		return " ▲"
	}
	return " ▼"
}
