package gemini

import (
	"errors"
	"net/http"
	"time"
)

const (
	// DefaultModel is the default Gemini model.
	DefaultModel = "gemini-2.5-flash"

	// DefaultAPIURL is the default Gemini API endpoint.
	DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRatePerMinute bounds outgoing requests.
	DefaultRatePerMinute = 30
)

// Config configures the Gemini client.
type Config struct {
	APIKey        string
	Model         string
	APIURL        string
	Timeout       time.Duration
	RatePerMinute int
	HTTPClient    *http.Client
}

// Validate fills defaults and checks required fields.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini: API key is required")
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = DefaultRatePerMinute
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return nil
}
