package recognition

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedService remembers successful product lookups so rescanning the same
// model does not repeat the search. Label analysis is never cached.
type CachedService struct {
	Service
	lookups *lru.Cache[string, string]
}

// NewCachedService wraps svc with an enrichment cache of the given size.
func NewCachedService(svc Service, size int) (*CachedService, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating enrichment cache: %w", err)
	}
	return &CachedService{Service: svc, lookups: cache}, nil
}

// AnalyzeWithSearch answers from the cache when possible. Only replies that
// parse as "full name;category" are stored, so degraded lookups are retried.
func (c *CachedService) AnalyzeWithSearch(ctx context.Context, prompt string) (string, error) {
	if text, ok := c.lookups.Get(prompt); ok {
		return text, nil
	}

	text, err := c.Service.AnalyzeWithSearch(ctx, prompt)
	if err != nil {
		return "", err
	}
	if ParseEnrichment(text).Status == StatusOK {
		c.lookups.Add(prompt, text)
	}
	return text, nil
}

// Len reports the number of cached lookups.
func (c *CachedService) Len() int {
	return c.lookups.Len()
}
