package analytics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidParam is returned for a malformed numeric parameter.
var ErrInvalidParam = errors.New("invalid parameter")

// Params holds the raw string form of Filters, as received from a query string
// or command-line flags. Empty values take the defaults.
type Params struct {
	Type    string
	Limit   string
	Mode    string
	Top     string
	Vendor  string
	Product string
}

// Filters validates the parameters.
func (p Params) Filters() (Filters, error) {
	f := DefaultFilters()

	facet, err := ParseFacet(strings.TrimSpace(p.Type))
	if err != nil {
		return Filters{}, err
	}
	f.Facet = facet

	mode, err := ParseRankMode(strings.TrimSpace(p.Mode))
	if err != nil {
		return Filters{}, err
	}
	f.RankMode = mode

	if f.CWELimit, err = parseCount("limit", p.Limit, f.CWELimit); err != nil {
		return Filters{}, err
	}
	if f.BoxPlotTopK, err = parseCount("top", p.Top, f.BoxPlotTopK); err != nil {
		return Filters{}, err
	}
	if !lo.Contains(BoxPlotSizes, f.BoxPlotTopK) {
		return Filters{}, fmt.Errorf("%w: top=%q (one of 5, 10 or 15)", ErrInvalidParam, p.Top)
	}

	f.Vendor = strings.TrimSpace(p.Vendor)
	f.Product = strings.TrimSpace(p.Product)
	return f, nil
}

// parseCount accepts a non-negative integer; zero means no limit.
func parseCount(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}
	return n, nil
}
