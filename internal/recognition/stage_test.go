package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnrichment(t *testing.T) {
	tests := []struct {
		text     string
		status   Status
		fullName string
		category string
	}{
		{"HP LaserJet Pro M404dn;Printer", StatusOK, "HP LaserJet Pro M404dn", "Printer"},
		{"  Dell Latitude 5420 ; Laptop \n", StatusOK, "Dell Latitude 5420", "Laptop"},
		{"Cisco Catalyst 2960;Switch;extra", StatusOK, "Cisco Catalyst 2960", "Switch"},
		{"Logitech MX Master 3;Ratón inalámbrico", StatusOK, "Logitech MX Master 3", "Ratón inalámbrico"},
		{"No semicolon here", StatusDegraded, "", ""},
		{"", StatusDegraded, "", ""},
	}

	for _, tt := range tests {
		got := ParseEnrichment(tt.text)
		assert.Equal(t, tt.status, got.Status, "text %q", tt.text)
		assert.Equal(t, tt.fullName, got.FullName, "text %q", tt.text)
		assert.Equal(t, tt.category, got.Category, "text %q", tt.text)
	}
}

func TestParseExtractionTrimsFields(t *testing.T) {
	got := ParseExtraction("\n{\"brand\":\" Lenovo \",\"model\":\"T14\",\"serialNumber\":\" PF-1 \"}\n")

	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, "Lenovo", got.Brand)
	assert.Equal(t, "T14", got.Model)
	assert.Equal(t, "PF-1", got.SerialNumber)
}

func TestMerge(t *testing.T) {
	ex := Extraction{Status: StatusOK, Brand: "HP", Model: "M404dn", SerialNumber: "XYZ"}

	tests := []struct {
		name string
		en   Enrichment
		want Candidate
	}{
		{
			"enriched",
			Enrichment{Status: StatusOK, FullName: "HP LaserJet Pro M404dn", Category: "Printer"},
			Candidate{Name: "HP LaserJet Pro M404dn", Description: "M404dn", SerialNumber: "XYZ", DeviceType: "Printer"},
		},
		{
			"empty full name",
			Enrichment{Status: StatusOK, FullName: "", Category: "Printer"},
			Candidate{Name: "HP M404dn", Description: "M404dn", SerialNumber: "XYZ", DeviceType: "Printer"},
		},
		{
			"reply without name",
			ParseEnrichment(";Printer"),
			Candidate{Name: "HP M404dn", Description: "M404dn", SerialNumber: "XYZ", DeviceType: "Printer"},
		},
		{
			"degraded",
			Enrichment{Status: StatusDegraded},
			Candidate{Name: "HP M404dn", Description: "M404dn", SerialNumber: "XYZ"},
		},
		{
			"skipped",
			Enrichment{Status: StatusSkipped},
			Candidate{Name: "HP", Description: "M404dn", SerialNumber: "XYZ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(ex, tt.en))
		})
	}
}

func TestFallbackNameOmitsEmptyParts(t *testing.T) {
	assert.Equal(t, "HP M404", fallbackName("HP", "M404"))
	assert.Equal(t, "M404", fallbackName("", "M404"))
	assert.Equal(t, "HP", fallbackName("HP", ""))
	assert.Equal(t, "", fallbackName("", ""))
}
