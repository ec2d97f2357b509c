package analytics

import "cvedash/internal/model"

// Severity bucket labels, highest first.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// SeverityHistogram is the CVSS distribution over four severity buckets.
type SeverityHistogram struct {
	Buckets []Count `json:"buckets" yaml:"buckets"`
	Missing int     `json:"missing" yaml:"missing"`
}

// Total is the number of records the histogram was computed over.
func (h SeverityHistogram) Total() int {
	total := h.Missing
	for _, b := range h.Buckets {
		total += b.Count
	}
	return total
}

// SeverityOf buckets a CVSS score. Boundaries belong to the higher bucket.
// Negative scores have no bucket.
func SeverityOf(score float64) (string, bool) {
	switch {
	case score >= 9:
		return SeverityCritical, true
	case score >= 7:
		return SeverityHigh, true
	case score >= 4:
		return SeverityMedium, true
	case score >= 0:
		return SeverityLow, true
	default:
		return "", false
	}
}

// CVSSHistogram counts records per severity bucket. Records without a usable score
// are tallied as missing.
func CVSSHistogram(records []model.VulnerabilityRecord) SeverityHistogram {
	counts := map[string]int{}
	missing := 0
	for _, r := range records {
		if !r.CVSS.Valid {
			missing++
			continue
		}
		label, ok := SeverityOf(r.CVSS.Value)
		if !ok {
			missing++
			continue
		}
		counts[label]++
	}

	labels := []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	buckets := make([]Count, len(labels))
	for i, label := range labels {
		buckets[i] = Count{Name: label, Count: counts[label]}
	}
	return SeverityHistogram{Buckets: buckets, Missing: missing}
}
