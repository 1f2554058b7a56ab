package gemini

import "github.com/erazemk/inventario/internal/recognition"

// generateRequest is the request body of generateContent.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	Tools            []tool            `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

// inlineData carries base64 image bytes; encoding/json encodes []byte as base64.
type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string              `json:"responseMimeType,omitempty"`
	ResponseSchema   *recognition.Schema `json:"responseSchema,omitempty"`
}

// generateResponse is the response body of generateContent.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}
