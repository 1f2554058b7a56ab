package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status tags the outcome of a pipeline stage.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Candidate holds the device attributes proposed by a scan. Any field may
// be empty. It becomes an item only when a user confirms it.
type Candidate struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SerialNumber string `json:"serialNumber"`
	DeviceType   string `json:"deviceType"`
}

// Extraction is the result of reading the label.
type Extraction struct {
	Status       Status
	Brand        string
	Model        string
	SerialNumber string
	Err          error
}

// Enrichment is the result of the product lookup.
type Enrichment struct {
	Status   Status
	FullName string
	Category string
	Err      error
}

var extractionFields = []string{"brand", "model", "serialNumber"}

// ParseExtraction decodes the structured label reply. Invalid JSON or a
// missing or non-string field yields StatusFailed.
func ParseExtraction(text string) Extraction {
	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return Extraction{Status: StatusFailed, Err: fmt.Errorf("decoding extraction reply: %w", err)}
	}

	values := make(map[string]string, len(extractionFields))
	for _, field := range extractionFields {
		v, ok := raw[field]
		if !ok {
			return Extraction{Status: StatusFailed, Err: fmt.Errorf("extraction reply is missing %q", field)}
		}
		s, ok := v.(string)
		if !ok {
			return Extraction{Status: StatusFailed, Err: fmt.Errorf("extraction field %q is %T, not a string", field, v)}
		}
		values[field] = strings.TrimSpace(s)
	}

	return Extraction{
		Status:       StatusOK,
		Brand:        values["brand"],
		Model:        values["model"],
		SerialNumber: values["serialNumber"],
	}
}

// ParseEnrichment splits a "full name;category" reply. Anything after a
// second semicolon is ignored. Fewer than two parts yields StatusDegraded.
func ParseEnrichment(text string) Enrichment {
	parts := strings.SplitN(strings.TrimSpace(text), ";", 3)
	if len(parts) < 2 {
		return Enrichment{Status: StatusDegraded, Err: fmt.Errorf("enrichment reply %q has no category", text)}
	}
	return Enrichment{
		Status:   StatusOK,
		FullName: strings.TrimSpace(parts[0]),
		Category: strings.TrimSpace(parts[1]),
	}
}

// Merge combines the two stage results into a candidate. ex must have
// StatusOK; a failed extraction has nothing to merge.
//
// An enrichment reply with an empty name before the semicolon (";Impresora")
// still supplies the category, but the name falls back to "brand model"
// rather than staying empty.
func Merge(ex Extraction, en Enrichment) Candidate {
	c := Candidate{
		Description:  ex.Model,
		SerialNumber: ex.SerialNumber,
	}

	switch en.Status {
	case StatusSkipped:
		c.Name = ex.Brand
	case StatusOK:
		c.Name = en.FullName
		c.DeviceType = en.Category
		if c.Name == "" {
			c.Name = fallbackName(ex.Brand, ex.Model)
		}
	default:
		c.Name = fallbackName(ex.Brand, ex.Model)
	}
	return c
}

func fallbackName(brand, model string) string {
	var parts []string
	for _, p := range []string{brand, model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
