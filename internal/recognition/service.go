package recognition

import "context"

// Image is an encoded still image submitted for analysis.
type Image struct {
	Data []byte
	MIME string
}

// Schema constrains structured output. It follows the OpenAPI subset
// accepted by the recognition service.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Service is the external recognition capability. Implementations must be
// safe for concurrent use.
type Service interface {
	// Analyze runs instruction against img. When schema is non-nil the reply
	// is JSON conforming to it.
	Analyze(ctx context.Context, img Image, instruction string, schema *Schema) (string, error)

	// AnalyzeWithSearch answers prompt with web search grounding.
	AnalyzeWithSearch(ctx context.Context, prompt string) (string, error)
}
