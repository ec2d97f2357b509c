package analytics

import (
	"fmt"
	"sort"

	"cvedash/internal/model"

	"github.com/samber/lo"
)

// CWEDistribution is the ranked CWE breakdown with its missing tally.
type CWEDistribution struct {
	Ranked  []Count `json:"ranked" yaml:"ranked"`
	Missing int     `json:"missing" yaml:"missing"`
}

// Top returns the first n entries of the ranking; n == 0 means all of them.
func (d CWEDistribution) Top(n int) []Count {
	return truncate(d.Ranked, n)
}

// CWEBreakdown groups records by CWE type.
func CWEBreakdown(records []model.VulnerabilityRecord) CWEDistribution {
	known := lo.Filter(records, func(r model.VulnerabilityRecord, _ int) bool {
		return r.CWEType != ""
	})
	tally := lo.CountValuesBy(known, func(r model.VulnerabilityRecord) string {
		return r.CWEType
	})
	return CWEDistribution{
		Ranked:  rankCounts(tally),
		Missing: len(records) - len(known),
	}
}

// EPSSPoint is one CVE with its exploit prediction score.
type EPSSPoint struct {
	CVEID string  `json:"cveId" yaml:"cveId"`
	Score float64 `json:"score" yaml:"score"`
}

// EPSSSeries is the ranked EPSS view.
type EPSSSeries struct {
	Points  []EPSSPoint `json:"points" yaml:"points"`
	Missing int         `json:"missing" yaml:"missing"`
}

// EPSSRanking ranks alert records by EPSS score, highest first. Only
// bulletins of type Alerte take part, whatever facet the caller uses elsewhere.
func EPSSRanking(records []model.VulnerabilityRecord) EPSSSeries {
	alerts := FilterByBulletinType(records, FacetAlerte)

	series := EPSSSeries{Points: []EPSSPoint{}}
	for _, r := range alerts {
		if !r.EPSS.Valid {
			series.Missing++
			continue
		}
		series.Points = append(series.Points, EPSSPoint{CVEID: r.CVEID, Score: r.EPSS.Value})
	}
	sort.SliceStable(series.Points, func(i, j int) bool {
		return series.Points[i].Score > series.Points[j].Score
	})
	return series
}

// RankMode selects the field used by TopRanking.
type RankMode string

const (
	RankByVendor  RankMode = "vendor"
	RankByProduct RankMode = "product"
)

// RankingSize is the number of entries TopRanking returns at most.
const RankingSize = 10

// ParseRankMode validates a ranking mode. The empty string means RankByVendor.
func ParseRankMode(s string) (RankMode, error) {
	switch RankMode(s) {
	case "", RankByVendor:
		return RankByVendor, nil
	case RankByProduct:
		return RankByProduct, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Toggle switches between vendor and product.
func (m RankMode) Toggle() RankMode {
	if m == RankByProduct {
		return RankByVendor
	}
	return RankByProduct
}

// TopRanking returns the ten most frequent vendors or products.
func TopRanking(records []model.VulnerabilityRecord, mode RankMode) []Count {
	pick := func(r model.VulnerabilityRecord) string { return r.Vendor }
	if mode == RankByProduct {
		pick = func(r model.VulnerabilityRecord) string { return r.Product }
	}

	tally := map[string]int{}
	for _, r := range records {
		if name := pick(r); name != "" {
			tally[name]++
		}
	}
	return truncate(rankCounts(tally), RankingSize)
}
