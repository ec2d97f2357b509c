// Package analytics turns the flat record collection into chart-ready series.
// Every function is pure: inputs are never modified.
package analytics

import (
	"errors"
	"fmt"
	"sort"

	"cvedash/internal/model"

	"github.com/samber/lo"
)

var (
	ErrUnknownFacet = errors.New("unknown bulletin type")
	ErrUnknownMode  = errors.New("unknown ranking mode")
)

// Facet selects records by bulletin type.
type Facet string

const (
	FacetAll    Facet = "all"
	FacetAlerte Facet = Facet(model.BulletinAlerte)
	FacetAvis   Facet = Facet(model.BulletinAvis)
)

// Facets lists the selectable facet values in display order.
var Facets = []Facet{FacetAll, FacetAlerte, FacetAvis}

// ParseFacet validates a facet value. The empty string means FacetAll.
func ParseFacet(s string) (Facet, error) {
	if s == "" {
		return FacetAll, nil
	}
	for _, f := range Facets {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFacet, s)
}

// Next cycles to the following facet.
func (f Facet) Next() Facet {
	for i, candidate := range Facets {
		if candidate == f {
			return Facets[(i+1)%len(Facets)]
		}
	}
	return FacetAll
}

// FilterByBulletinType returns the records matching the facet.
// FacetAll returns the collection unchanged.
func FilterByBulletinType(records []model.VulnerabilityRecord, facet Facet) []model.VulnerabilityRecord {
	if facet == FacetAll || facet == "" {
		return records
	}
	return lo.Filter(records, func(r model.VulnerabilityRecord, _ int) bool {
		return r.BulletinType == model.BulletinType(facet)
	})
}

// Count is a named tally.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// rankCounts orders tallies by count descending, then by name.
func rankCounts(tally map[string]int) []Count {
	counts := lo.MapToSlice(tally, func(name string, n int) Count {
		return Count{Name: name, Count: n}
	})
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}

// truncate keeps the first n entries; n <= 0 keeps everything.
func truncate(counts []Count, n int) []Count {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}
