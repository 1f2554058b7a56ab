package recognition

import (
	"context"
	"sync"
)

// fakeService replays canned replies and records what it was asked.
type fakeService struct {
	mu sync.Mutex

	extraction    string
	extractionErr error
	enrichment    string
	enrichmentErr error

	analyzeCalls int
	searchCalls  int
	prompts      []string
	lastSchema   *Schema
	lastImage    Image
}

func (f *fakeService) Analyze(ctx context.Context, img Image, instruction string, schema *Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	f.lastImage = img
	f.lastSchema = schema
	if f.extractionErr != nil {
		return "", f.extractionErr
	}
	return f.extraction, nil
}

func (f *fakeService) AnalyzeWithSearch(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.prompts = append(f.prompts, prompt)
	if f.enrichmentErr != nil {
		return "", f.enrichmentErr
	}
	return f.enrichment, nil
}

var testImage = Image{Data: []byte{0xff, 0xd8, 0xff}, MIME: "image/jpeg"}
