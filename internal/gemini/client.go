package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/erazemk/inventario/internal/recognition"
)

// ErrEmptyResponse is returned when the API answers without any text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client calls the Gemini generateContent API. It implements
// recognition.Service and is safe for concurrent use.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ recognition.Service = (*Client)(nil)

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		apiKey:     cfg.APIKey,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), max(1, cfg.RatePerMinute/10)),
	}, nil
}

// SetAPIURL overrides the API endpoint.
func (c *Client) SetAPIURL(apiURL string) {
	c.apiURL = strings.TrimRight(apiURL, "/")
}

// Model returns the model being used.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends the image followed by the instruction. A non-nil schema
// requests JSON output constrained to it.
func (c *Client) Analyze(ctx context.Context, img recognition.Image, instruction string, schema *recognition.Schema) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MIMEType: img.MIME, Data: img.Data}},
				{Text: instruction},
			},
		}},
	}
	if schema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		}
	}
	return c.generate(ctx, req)
}

// AnalyzeWithSearch sends prompt with the Google Search tool enabled.
func (c *Client) AnalyzeWithSearch(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	}
	return c.generate(ctx, req)
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini: waiting for rate limiter: %w", err)
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}

	// Search-grounded replies may be split over several text parts.
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, resp.Candidates[0].FinishReason)
	}
	return text, nil
}

func (c *Client) callAPI(ctx context.Context, req generateRequest) (*generateResponse, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.apiURL, c.model, url.QueryEscape(c.apiKey))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The URL carries the API key; report the transport error without it.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("gemini: calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini: API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gemini: decoding response: %w", err)
	}
	return &result, nil
}
