package model

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NotAvailable is the sentinel the backend uses for absent values.
const NotAvailable = "n/a"

// BulletinType is the advisory kind of a record.
type BulletinType string

const (
	BulletinAlerte BulletinType = "Alerte"
	BulletinAvis   BulletinType = "Avis"
)

// Score is an optional numeric score (CVSS or EPSS).
type Score struct {
	Value float64
	Valid bool
}

// ValidScore returns a present score.
func ValidScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// ParseScore converts a loosely typed JSON value into a Score.
// Strings are parsed strictly; "n/a", empty strings, negatives, NaN and infinities are absent.
func ParseScore(v interface{}) Score {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, NotAvailable) {
			return Score{}
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Score{}
		}
		f = parsed
	default:
		return Score{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Score{}
	}
	return ValidScore(f)
}

// String renders the wire form of the score.
func (s Score) String() string {
	if !s.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// VulnerabilityRecord is one row of the bulletin collection.
// Absent optional strings are empty; absent scores have Valid=false.
type VulnerabilityRecord struct {
	CVEID               string
	BulletinType        BulletinType
	Title               string
	Description         string
	Link                string
	PublicationDate     string
	Published           time.Time
	CVSS                Score
	BaseSeverity        string
	CWEType             string
	EPSS                Score
	Vendor              string
	Product             string
	AffectedVersions    []string
	RawAffectedVersions string
}

// HasPublished reports whether the publication date could be parsed.
func (r VulnerabilityRecord) HasPublished() bool {
	return !r.Published.IsZero()
}

// DateLabel is the day the record was published, or the raw value when unparsable.
func (r VulnerabilityRecord) DateLabel() string {
	if r.HasPublished() {
		return r.Published.Format("2006-01-02")
	}
	return r.PublicationDate
}

// ParseDate parses a loosely formatted publication date. The zero time is returned
// when the value cannot be parsed.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotAvailable) {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SplitVersions splits a comma-separated version list, discarding empty and "n/a" tokens.
func SplitVersions(raw string) []string {
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		tok := strings.TrimSpace(part)
		if tok == "" || strings.EqualFold(tok, NotAvailable) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// optionalString maps the "n/a" sentinel and blanks to the empty string.
func optionalString(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, NotAvailable) {
		return ""
	}
	return s
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
