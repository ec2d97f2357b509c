package analytics

import (
	"sort"

	"cvedash/internal/model"

	"github.com/samber/lo"
)

// VersionListSize is the number of versions VersionFrequency returns at most.
const VersionListSize = 10

// Vendors lists the distinct known vendors, sorted.
func Vendors(records []model.VulnerabilityRecord) []string {
	vendors := lo.Uniq(lo.FilterMap(records, func(r model.VulnerabilityRecord, _ int) (string, bool) {
		return r.Vendor, r.Vendor != ""
	}))
	sort.Strings(vendors)
	return vendors
}

// ProductsForVendor lists the distinct known products of one vendor, sorted.
func ProductsForVendor(records []model.VulnerabilityRecord, vendor string) []string {
	if vendor == "" {
		return nil
	}
	products := lo.Uniq(lo.FilterMap(records, func(r model.VulnerabilityRecord, _ int) (string, bool) {
		return r.Product, r.Vendor == vendor && r.Product != ""
	}))
	sort.Strings(products)
	return products
}

// TallyVersions counts each version token across records.
func TallyVersions(records []model.VulnerabilityRecord) map[string]int {
	tally := map[string]int{}
	for _, r := range records {
		for _, v := range r.AffectedVersions {
			tally[v]++
		}
	}
	return tally
}

// VersionFrequency ranks the affected versions of a vendor/product pair.
// An empty vendor or product yields no result.
func VersionFrequency(records []model.VulnerabilityRecord, vendor, product string) []Count {
	if vendor == "" || product == "" {
		return nil
	}
	matching := lo.Filter(records, func(r model.VulnerabilityRecord, _ int) bool {
		return r.Vendor == vendor && r.Product == product
	})
	return truncate(rankCounts(TallyVersions(matching)), VersionListSize)
}
