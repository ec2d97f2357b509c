package model

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/bcicen/jstream"
)

// ErrNotArray is returned when the collection document is not a JSON array.
var ErrNotArray = errors.New("record collection is not a JSON array")

// Wire keys. Each field also accepts the column labels of the original CSV export.
var fieldAliases = map[string][]string{
	"cveId":            {"cveId", "cve_id", "Identifiant CVE"},
	"bulletinType":     {"bulletinType", "type", "Type de bulletin"},
	"title":            {"title", "Titre du bulletin (ANSSI)"},
	"description":      {"description", "Description"},
	"link":             {"link", "Lien du bulletin (ANSSI)"},
	"publicationDate":  {"publicationDate", "date", "Date de publication"},
	"cvssScore":        {"cvssScore", "cvss_score", "Score CVSS"},
	"baseSeverity":     {"baseSeverity", "Base Severity"},
	"cweType":          {"cweType", "cwe_desc", "Type CWE"},
	"epssScore":        {"epssScore", "epss_score", "Score EPSS"},
	"vendor":           {"vendor", "Éditeur"},
	"product":          {"product", "Produit"},
	"affectedVersions": {"affectedVersions", "versions", "Versions affectées"},
}

// ExportColumns is the column order of the original consolidated export.
var ExportColumns = []string{
	"Titre du bulletin (ANSSI)",
	"Type de bulletin",
	"Date de publication",
	"Identifiant CVE",
	"Score CVSS",
	"Base Severity",
	"Type CWE",
	"Score EPSS",
	"Lien du bulletin (ANSSI)",
	"Description",
	"Éditeur",
	"Produit",
	"Versions affectées",
}

type wireRecord struct {
	CVEID            string `json:"cveId"`
	BulletinType     string `json:"bulletinType"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Link             string `json:"link"`
	PublicationDate  string `json:"publicationDate"`
	CVSSScore        string `json:"cvssScore"`
	BaseSeverity     string `json:"baseSeverity"`
	CWEType          string `json:"cweType"`
	EPSSScore        string `json:"epssScore"`
	Vendor           string `json:"vendor"`
	Product          string `json:"product"`
	AffectedVersions string `json:"affectedVersions"`
}

func lookup(m map[string]interface{}, field string) (interface{}, bool) {
	for _, key := range fieldAliases[field] {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func field(m map[string]interface{}, name string) string {
	v, _ := lookup(m, name)
	return strings.TrimSpace(stringValue(v))
}

// FromMap builds a record from a loosely typed JSON object.
func FromMap(m map[string]interface{}) VulnerabilityRecord {
	cvss, _ := lookup(m, "cvssScore")
	epss, _ := lookup(m, "epssScore")
	date := field(m, "publicationDate")
	versions := field(m, "affectedVersions")

	return VulnerabilityRecord{
		CVEID:               field(m, "cveId"),
		BulletinType:        BulletinType(field(m, "bulletinType")),
		Title:               field(m, "title"),
		Description:         optionalString(field(m, "description")),
		Link:                field(m, "link"),
		PublicationDate:     date,
		Published:           ParseDate(date),
		CVSS:                ParseScore(cvss),
		BaseSeverity:        optionalString(field(m, "baseSeverity")),
		CWEType:             optionalString(field(m, "cweType")),
		EPSS:                ParseScore(epss),
		Vendor:              optionalString(field(m, "vendor")),
		Product:             optionalString(field(m, "product")),
		AffectedVersions:    SplitVersions(versions),
		RawAffectedVersions: versions,
	}
}

func (r VulnerabilityRecord) toWire() wireRecord {
	return wireRecord{
		CVEID:            r.CVEID,
		BulletinType:     string(r.BulletinType),
		Title:            r.Title,
		Description:      orNotAvailable(r.Description),
		Link:             r.Link,
		PublicationDate:  r.PublicationDate,
		CVSSScore:        r.CVSS.String(),
		BaseSeverity:     orNotAvailable(r.BaseSeverity),
		CWEType:          orNotAvailable(r.CWEType),
		EPSSScore:        r.EPSS.String(),
		Vendor:           orNotAvailable(r.Vendor),
		Product:          orNotAvailable(r.Product),
		AffectedVersions: orNotAvailable(r.RawAffectedVersions),
	}
}

// MarshalJSON emits the loose wire form, with "n/a" for absent values.
func (r VulnerabilityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalJSON accepts the loose wire form.
func (r *VulnerabilityRecord) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = FromMap(m)
	return nil
}

// ExportRow returns the record in ExportColumns order.
func (r VulnerabilityRecord) ExportRow() []string {
	w := r.toWire()
	return []string{
		w.Title,
		w.BulletinType,
		w.PublicationDate,
		w.CVEID,
		w.CVSSScore,
		w.BaseSeverity,
		w.CWEType,
		w.EPSSScore,
		w.Link,
		w.Description,
		w.Vendor,
		w.Product,
		w.AffectedVersions,
	}
}

// FromRow builds a record from parallel header and value slices, such as a
// line of the CSV export. Missing trailing values are treated as absent.
func FromRow(header, row []string) VulnerabilityRecord {
	m := make(map[string]interface{}, len(header))
	for i, label := range header {
		if i < len(row) {
			m[strings.TrimPrefix(label, "\ufeff")] = row[i]
		}
	}
	return FromMap(m)
}

// DecodeResult is the outcome of decoding a collection.
type DecodeResult struct {
	Records []VulnerabilityRecord
	Skipped int
}

// DecodeRecords streams a top-level JSON array of records.
// Elements that are not objects are skipped and counted.
func DecodeRecords(r io.Reader) (DecodeResult, error) {
	br := bufio.NewReader(r)
	if err := expectArray(br); err != nil {
		return DecodeResult{}, err
	}

	var res DecodeResult
	decoder := jstream.NewDecoder(br, 1)
	for mv := range decoder.Stream() {
		obj, ok := mv.Value.(map[string]interface{})
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, FromMap(obj))
	}
	if err := decoder.Err(); err != nil {
		return res, fmt.Errorf("failed to decode records: %w", err)
	}
	return res, nil
}

// expectArray peeks past leading whitespace and checks for '['.
func expectArray(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return ErrNotArray
			}
			return err
		}
		if unicode.IsSpace(rune(b[0])) || b[0] == 0xEF || b[0] == 0xBB || b[0] == 0xBF {
			if _, err := br.ReadByte(); err != nil {
				return err
			}
			continue
		}
		if b[0] != '[' {
			return ErrNotArray
		}
		return nil
	}
}
