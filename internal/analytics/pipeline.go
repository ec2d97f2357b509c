package analytics

import "cvedash/internal/model"

// Filters holds every view parameter of the dashboard.
type Filters struct {
	Facet       Facet
	CWELimit    int
	RankMode    RankMode
	BoxPlotTopK int
	Vendor      string
	Product     string
}

// DefaultFilters matches the initial state of the dashboard.
func DefaultFilters() Filters {
	return Filters{
		Facet:       FacetAll,
		CWELimit:    0,
		RankMode:    RankByVendor,
		BoxPlotTopK: 10,
	}
}

// Dashboard is every derived series for one (records, filters) pair.
type Dashboard struct {
	Facet      Facet               `json:"facet" yaml:"facet"`
	Total      int                 `json:"total" yaml:"total"`
	Severity   SeverityHistogram   `json:"severity" yaml:"severity"`
	CWE        CWEDistribution     `json:"cwe" yaml:"cwe"`
	EPSS       EPSSSeries          `json:"epss" yaml:"epss"`
	Ranking    []Count             `json:"ranking" yaml:"ranking"`
	Matrix     CorrelationMatrix   `json:"matrix" yaml:"matrix"`
	Scatter    []ScatterPoint      `json:"scatter" yaml:"scatter"`
	Cumulative []CumulativePoint   `json:"cumulative" yaml:"cumulative"`
	BoxPlot    []FiveNumberSummary `json:"boxplot" yaml:"boxplot"`
	Vendors    []string            `json:"vendors" yaml:"vendors"`
	Products   []string            `json:"products" yaml:"products"`
	Versions   []Count             `json:"versions" yaml:"versions"`
}

// Compute runs the full aggregation pipeline. Empty series are empty slices, never nil. The CWE ranking in the result is
// already truncated to filters.CWELimit; the missing tally is not.
func Compute(records []model.VulnerabilityRecord, filters Filters) Dashboard {
	filtered := FilterByBulletinType(records, filters.Facet)

	cwe := CWEBreakdown(filtered)
	cwe.Ranked = nonNil(cwe.Top(filters.CWELimit))

	facet := filters.Facet
	if facet == "" {
		facet = FacetAll
	}

	return Dashboard{
		Facet:      facet,
		Total:      len(filtered),
		Severity:   CVSSHistogram(filtered),
		CWE:        cwe,
		EPSS:       EPSSRanking(records),
		Ranking:    nonNil(TopRanking(filtered, filters.RankMode)),
		Matrix:     Correlate(filtered),
		Scatter:    nonNil(Scatter(filtered)),
		Cumulative: nonNil(Cumulative(filtered)),
		BoxPlot:    nonNil(VendorBoxPlot(filtered, filters.BoxPlotTopK)),
		Vendors:    nonNil(Vendors(filtered)),
		Products:   nonNil(ProductsForVendor(filtered, filters.Vendor)),
		Versions:   nonNil(VersionFrequency(filtered, filters.Vendor, filters.Product)),
	}
}
