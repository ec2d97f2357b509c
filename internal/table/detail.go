package table

import (
	"fmt"
	"strings"

	"cvedash/internal/model"
)

// Detail is the full projection of one record, shown when a row is selected.
type Detail struct {
	CVEID            string `json:"cveId" yaml:"cveId"`
	BulletinType     string `json:"bulletinType" yaml:"bulletinType"`
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description" yaml:"description"`
	Link             string `json:"link" yaml:"link"`
	PublicationDate  string `json:"publicationDate" yaml:"publicationDate"`
	CVSSScore        string `json:"cvssScore" yaml:"cvssScore"`
	BaseSeverity     string `json:"baseSeverity" yaml:"baseSeverity"`
	CWEType          string `json:"cweType" yaml:"cweType"`
	EPSSScore        string `json:"epssScore" yaml:"epssScore"`
	Vendor           string `json:"vendor" yaml:"vendor"`
	Product          string `json:"product" yaml:"product"`
	AffectedVersions string `json:"affectedVersions" yaml:"affectedVersions"`
}

func display(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}

// NewDetail projects a record for display.
func NewDetail(r model.VulnerabilityRecord) Detail {
	versions := strings.Join(r.AffectedVersions, ", ")
	return Detail{
		CVEID:            r.CVEID,
		BulletinType:     display(string(r.BulletinType)),
		Title:            display(r.Title),
		Description:      display(r.Description),
		Link:             display(r.Link),
		PublicationDate:  display(r.DateLabel()),
		CVSSScore:        r.CVSS.String(),
		BaseSeverity:     display(r.BaseSeverity),
		CWEType:          display(r.CWEType),
		EPSSScore:        r.EPSS.String(),
		Vendor:           display(r.Vendor),
		Product:          display(r.Product),
		AffectedVersions: display(versions),
	}
}

// Fields returns label/value pairs in display order.
func (d Detail) Fields() [][2]string {
	return [][2]string{
		{"CVE", d.CVEID},
		{"Type", d.BulletinType},
		{"Title", d.Title},
		{"Published", d.PublicationDate},
		{"CVSS", d.CVSSScore},
		{"Severity", d.BaseSeverity},
		{"CWE", d.CWEType},
		{"EPSS", d.EPSSScore},
		{"Vendor", d.Vendor},
		{"Product", d.Product},
		{"Versions", d.AffectedVersions},
		{"Link", d.Link},
		{"Description", d.Description},
	}
}

// String renders the detail as aligned lines.
func (d Detail) String() string {
	var sb strings.Builder
	for _, f := range d.Fields() {
		sb.WriteString(fmt.Sprintf("%-12s %s\n", f[0]+":", f[1]))
	}
	return sb.String()
}

// Select looks a record up by CVE id in the unfiltered collection. Table state
// is left untouched.
func (t *Table) Select(cveID string) (Detail, bool) {
	return Lookup(t.records, cveID)
}

// Lookup finds the first record with the given CVE id.
func Lookup(records []model.VulnerabilityRecord, cveID string) (Detail, bool) {
	for _, r := range records {
		if r.CVEID == cveID {
			return NewDetail(r), true
		}
	}
	return Detail{}, false
}
