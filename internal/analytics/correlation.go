package analytics

import (
	"sort"

	"cvedash/internal/model"
)

// Band is an inclusive score range.
type Band struct {
	Label string  `json:"label" yaml:"label"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

func (b Band) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// The partitions use literal inclusive bounds. Values between two bands
// (3.9 < cvss < 4, 0.249 < epss < 0.25, ...) fall in no band.
var (
	CVSSBands = []Band{
		{Label: "9-10", Min: 9, Max: 10},
		{Label: "7-8.9", Min: 7, Max: 8.9},
		{Label: "4-6.9", Min: 4, Max: 6.9},
		{Label: "0-3.9", Min: 0, Max: 3.9},
	}
	EPSSBands = []Band{
		{Label: "0.75-1", Min: 0.75, Max: 1},
		{Label: "0.50-0.749", Min: 0.50, Max: 0.749},
		{Label: "0.25-0.499", Min: 0.25, Max: 0.499},
		{Label: "0-0.249", Min: 0, Max: 0.249},
	}
)

func bandIndex(bands []Band, v float64) int {
	for i, b := range bands {
		if b.contains(v) {
			return i
		}
	}
	return -1
}

// CorrelationMatrix counts records per (CVSS band, EPSS band) cell.
// Rows follow CVSSBands, columns follow EPSSBands.
type CorrelationMatrix struct {
	CVSSBands []Band  `json:"cvssBands" yaml:"cvssBands"`
	EPSSBands []Band  `json:"epssBands" yaml:"epssBands"`
	Counts    [][]int `json:"counts" yaml:"counts"`
}

// Correlate builds the CVSS/EPSS matrix. Records lacking either score, or whose
// score matches no band, are dropped.
func Correlate(records []model.VulnerabilityRecord) CorrelationMatrix {
	counts := make([][]int, len(CVSSBands))
	for i := range counts {
		counts[i] = make([]int, len(EPSSBands))
	}

	for _, r := range records {
		if !r.CVSS.Valid || !r.EPSS.Valid {
			continue
		}
		row := bandIndex(CVSSBands, r.CVSS.Value)
		col := bandIndex(EPSSBands, r.EPSS.Value)
		if row < 0 || col < 0 {
			continue
		}
		counts[row][col]++
	}
	return CorrelationMatrix{CVSSBands: CVSSBands, EPSSBands: EPSSBands, Counts: counts}
}

// ScatterPoint pairs both scores of a record.
type ScatterPoint struct {
	CVSS  float64 `json:"cvss" yaml:"cvss"`
	EPSS  float64 `json:"epss" yaml:"epss"`
	CVEID string  `json:"cveId" yaml:"cveId"`
}

// Scatter emits one point per record carrying both scores.
func Scatter(records []model.VulnerabilityRecord) []ScatterPoint {
	var points []ScatterPoint
	for _, r := range records {
		if r.CVSS.Valid && r.EPSS.Valid {
			points = append(points, ScatterPoint{CVSS: r.CVSS.Value, EPSS: r.EPSS.Value, CVEID: r.CVEID})
		}
	}
	return points
}

// CumulativePoint is one step of the running count.
type CumulativePoint struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// Cumulative ranks records by publication date and assigns each its 1-based rank.
// Records published the same day each advance the count. Unparsable dates sort first.
func Cumulative(records []model.VulnerabilityRecord) []CumulativePoint {
	sorted := make([]model.VulnerabilityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.Before(sorted[j].Published)
	})

	points := make([]CumulativePoint, len(sorted))
	for i, r := range sorted {
		points[i] = CumulativePoint{Date: r.DateLabel(), Count: i + 1}
	}
	return points
}
