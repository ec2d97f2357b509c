package model

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		valid bool
		value float64
	}{
		{"numeric string", "9.5", true, 9.5},
		{"padded string", " 7.0 ", true, 7},
		{"float", 0.42, true, 0.42},
		{"int", 4, true, 4},
		{"sentinel", "n/a", false, 0},
		{"sentinel upper", "N/A", false, 0},
		{"empty", "", false, 0},
		{"malformed", "9.5abc", false, 0},
		{"nan string", "NaN", false, 0},
		{"inf", math.Inf(1), false, 0},
		{"negative string", "-2", false, 0},
		{"negative float", -0.5, false, 0},
		{"zero", "0", true, 0},
		{"nil", nil, false, 0},
		{"bool", true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseScore(tt.in)
			assert.Equal(t, tt.valid, s.Valid)
			if tt.valid {
				assert.InDelta(t, tt.value, s.Value, 1e-9)
			}
		})
	}
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "n/a", Score{}.String())
	assert.Equal(t, "9.8", ValidScore(9.8).String())
	assert.Equal(t, "0", ValidScore(0).String())
}

func TestSplitVersions(t *testing.T) {
	assert.Equal(t, []string{"1.0", "1.0", "2.0"}, SplitVersions("1.0, n/a, 1.0,,2.0"))
	assert.Empty(t, SplitVersions(""))
	assert.Empty(t, SplitVersions("n/a"))
	assert.Empty(t, SplitVersions(" , ,"))
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2024-01-02")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)

	assert.True(t, ParseDate("n/a").IsZero())
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("not a date").IsZero())
}

func TestFromMap(t *testing.T) {
	r := FromMap(map[string]interface{}{
		"cveId":            "CVE-2024-0001",
		"bulletinType":     "Alerte",
		"title":            "Vuln in Foo",
		"description":      "n/a",
		"publicationDate":  "2024-03-01",
		"cvssScore":        "9.8",
		"baseSeverity":     "Critique",
		"cweType":          "n/a",
		"epssScore":        0.97,
		"vendor":           "Acme",
		"product":          "n/a",
		"affectedVersions": "1.0, n/a, 2.0",
	})

	assert.Equal(t, "CVE-2024-0001", r.CVEID)
	assert.Equal(t, BulletinAlerte, r.BulletinType)
	assert.Empty(t, r.Description)
	assert.True(t, r.HasPublished())
	assert.Equal(t, "2024-03-01", r.DateLabel())
	assert.Equal(t, ValidScore(9.8), r.CVSS)
	assert.Equal(t, ValidScore(0.97), r.EPSS)
	assert.Empty(t, r.CWEType)
	assert.Equal(t, "Acme", r.Vendor)
	assert.Empty(t, r.Product)
	assert.Equal(t, []string{"1.0", "2.0"}, r.AffectedVersions)
	assert.Equal(t, "1.0, n/a, 2.0", r.RawAffectedVersions)
}

func TestFromMap_ExportLabels(t *testing.T) {
	r := FromMap(map[string]interface{}{
		"Identifiant CVE":    "CVE-2023-1111",
		"Type de bulletin":   "Avis",
		"Score CVSS":         "n/a",
		"Score EPSS":         "0.12",
		"Éditeur":            "Globex",
		"Versions affectées": "3.1",
	})

	assert.Equal(t, "CVE-2023-1111", r.CVEID)
	assert.Equal(t, BulletinAvis, r.BulletinType)
	assert.False(t, r.CVSS.Valid)
	assert.Equal(t, ValidScore(0.12), r.EPSS)
	assert.Equal(t, "Globex", r.Vendor)
	assert.Equal(t, []string{"3.1"}, r.AffectedVersions)
}

func TestRecordJSONRoundTripKeepsSentinels(t *testing.T) {
	in := VulnerabilityRecord{CVEID: "CVE-1", BulletinType: BulletinAvis, CVSS: ValidScore(5)}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cvssScore":"5"`)
	assert.Contains(t, string(data), `"epssScore":"n/a"`)
	assert.Contains(t, string(data), `"vendor":"n/a"`)

	var out VulnerabilityRecord
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.CVEID, out.CVEID)
	assert.Equal(t, in.CVSS, out.CVSS)
	assert.False(t, out.EPSS.Valid)
	assert.Empty(t, out.Vendor)
}

func TestExportRow(t *testing.T) {
	r := VulnerabilityRecord{CVEID: "CVE-9", Title: "T", CVSS: ValidScore(7.5)}
	row := r.ExportRow()
	require.Len(t, row, len(ExportColumns))
	assert.Equal(t, "T", row[0])
	assert.Equal(t, "CVE-9", row[3])
	assert.Equal(t, "7.5", row[4])
	assert.Equal(t, "n/a", row[7])
}

func TestDecodeRecords(t *testing.T) {
	doc := `
	[
		{"cveId": "CVE-A", "cvssScore": "9.0"},
		42,
		{"cveId": "CVE-B", "cvssScore": "n/a"}
	]`

	res, err := DecodeRecords(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "CVE-A", res.Records[0].CVEID)
	assert.True(t, res.Records[0].CVSS.Valid)
	assert.False(t, res.Records[1].CVSS.Valid)
}

func TestDecodeRecords_Empty(t *testing.T) {
	res, err := DecodeRecords(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestDecodeRecords_NotArray(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`{"cveId": "CVE-A"}`))
	assert.ErrorIs(t, err, ErrNotArray)

	_, err = DecodeRecords(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotArray)
}

func TestFromRow_RoundTripsExportRow(t *testing.T) {
	in := VulnerabilityRecord{
		CVEID:               "CVE-2024-1",
		BulletinType:        BulletinAlerte,
		Title:               "Foo",
		PublicationDate:     "2024-02-01",
		CVSS:                ValidScore(8.1),
		Vendor:              "Acme",
		RawAffectedVersions: "1.0, 2.0",
	}

	out := FromRow(ExportColumns, in.ExportRow())
	assert.Equal(t, in.CVEID, out.CVEID)
	assert.Equal(t, in.BulletinType, out.BulletinType)
	assert.Equal(t, in.CVSS, out.CVSS)
	assert.False(t, out.EPSS.Valid)
	assert.Equal(t, "Acme", out.Vendor)
	assert.Empty(t, out.Product)
	assert.Equal(t, []string{"1.0", "2.0"}, out.AffectedVersions)
	assert.False(t, out.Published.IsZero())

	short := FromRow(ExportColumns, []string{"Only title"})
	assert.Equal(t, "Only title", short.Title)
	assert.Empty(t, short.CVEID)
}
