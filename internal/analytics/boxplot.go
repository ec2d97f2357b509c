package analytics

import (
	"sort"

	"cvedash/internal/model"

	"github.com/samber/lo"
)

// BoxPlotSizes are the top-K choices offered for the vendor box plot.
var BoxPlotSizes = []int{5, 10, 15}

// FiveNumberSummary describes the CVSS spread of one vendor.
type FiveNumberSummary struct {
	Vendor string  `json:"vendor" yaml:"vendor"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
	N      int     `json:"n" yaml:"n"`
}

// Summarize computes a nearest-rank five-number summary. The sample is sorted in place.
func Summarize(scores []float64) (FiveNumberSummary, bool) {
	n := len(scores)
	if n == 0 {
		return FiveNumberSummary{}, false
	}
	sort.Float64s(scores)
	return FiveNumberSummary{
		Min:    scores[0],
		Q1:     scores[n/4],
		Median: scores[n/2],
		Q3:     scores[n*3/4],
		Max:    scores[n-1],
		N:      n,
	}, true
}

// VendorBoxPlot summarizes CVSS scores per vendor, keeping the topK vendors with the
// most scored records. topK <= 0 keeps every vendor.
func VendorBoxPlot(records []model.VulnerabilityRecord, topK int) []FiveNumberSummary {
	scored := lo.Filter(records, func(r model.VulnerabilityRecord, _ int) bool {
		return r.Vendor != "" && r.CVSS.Valid
	})
	groups := lo.GroupBy(scored, func(r model.VulnerabilityRecord) string {
		return r.Vendor
	})

	summaries := make([]FiveNumberSummary, 0, len(groups))
	for vendor, group := range groups {
		scores := lo.Map(group, func(r model.VulnerabilityRecord, _ int) float64 {
			return r.CVSS.Value
		})
		s, ok := Summarize(scores)
		if !ok {
			continue
		}
		s.Vendor = vendor
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].N != summaries[j].N {
			return summaries[i].N > summaries[j].N
		}
		return summaries[i].Vendor < summaries[j].Vendor
	})
	if topK > 0 && len(summaries) > topK {
		summaries = summaries[:topK]
	}
	return summaries
}
