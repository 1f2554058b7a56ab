package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/erazemk/inventario/internal/gemini"
)

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// Config is the environment configuration. Flags cover the rest.
type Config struct {
	Gemini              GeminiConfig
	EnrichmentCacheSize int `envconfig:"INVENTARIO_ENRICHMENT_CACHE_SIZE" default:"256"`
}

// GeminiConfig configures the recognition service.
type GeminiConfig struct {
	APIKey        string        `envconfig:"INVENTARIO_GEMINI_API_KEY"`
	Model         string        `envconfig:"INVENTARIO_GEMINI_MODEL" default:"gemini-2.5-flash"`
	APIURL        string        `envconfig:"INVENTARIO_GEMINI_API_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Timeout       time.Duration `envconfig:"INVENTARIO_GEMINI_TIMEOUT" default:"30s"`
	RatePerMinute int           `envconfig:"INVENTARIO_GEMINI_RATE_PER_MINUTE" default:"30"`
}

// Load reads env files (DefaultEnvFile when none are given) into the
// process environment, then parses it. Missing env files are skipped;
// variables already set win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.EnrichmentCacheSize < 1 {
		return nil, fmt.Errorf("parsing config: INVENTARIO_ENRICHMENT_CACHE_SIZE must be positive, got %d", cfg.EnrichmentCacheSize)
	}
	return &cfg, nil
}

// RecognitionEnabled reports whether an API key is configured.
func (c *Config) RecognitionEnabled() bool {
	return c.Gemini.APIKey != ""
}

// Client returns the Gemini client configuration.
func (g GeminiConfig) Client() gemini.Config {
	return gemini.Config{
		APIKey:        g.APIKey,
		Model:         g.Model,
		APIURL:        g.APIURL,
		Timeout:       g.Timeout,
		RatePerMinute: g.RatePerMinute,
	}
}
