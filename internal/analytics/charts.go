package analytics

import (
	"errors"
	"fmt"

	"cvedash/internal/model"
)

// ErrUnknownChart is returned by Chart for an unsupported name.
var ErrUnknownChart = errors.New("unknown chart")

// Chart names, one per series of Dashboard.
const (
	ChartSeverity   = "severity"
	ChartCWE        = "cwe"
	ChartEPSS       = "epss"
	ChartRanking    = "ranking"
	ChartMatrix     = "matrix"
	ChartScatter    = "scatter"
	ChartCumulative = "cumulative"
	ChartBoxPlot    = "boxplot"
	ChartVersions   = "versions"
)

// ChartNames lists every chart in gallery order.
var ChartNames = []string{
	ChartSeverity, ChartCWE, ChartEPSS, ChartRanking, ChartMatrix,
	ChartScatter, ChartCumulative, ChartBoxPlot, ChartVersions,
}

// Chart computes a single series. Only the transform the chart needs is run.
func Chart(name string, records []model.VulnerabilityRecord, filters Filters) (interface{}, error) {
	filtered := FilterByBulletinType(records, filters.Facet)

	switch name {
	case ChartSeverity:
		return CVSSHistogram(filtered), nil
	case ChartCWE:
		d := CWEBreakdown(filtered)
		d.Ranked = nonNil(d.Top(filters.CWELimit))
		return d, nil
	case ChartEPSS:
		return EPSSRanking(records), nil
	case ChartRanking:
		return nonNil(TopRanking(filtered, filters.RankMode)), nil
	case ChartMatrix:
		return Correlate(filtered), nil
	case ChartScatter:
		return nonNil(Scatter(filtered)), nil
	case ChartCumulative:
		return nonNil(Cumulative(filtered)), nil
	case ChartBoxPlot:
		return nonNil(VendorBoxPlot(filtered, filters.BoxPlotTopK)), nil
	case ChartVersions:
		return nonNil(VersionFrequency(filtered, filters.Vendor, filters.Product)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// nonNil keeps empty series encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
