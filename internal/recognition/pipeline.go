package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/inventario/internal/metrics"
)

// Stage names used in logs, metrics and AnalysisError.
const (
	StageExtraction = "extraction"
	StageEnrichment = "enrichment"
)

// Pipeline turns a label photo into a Candidate with two sequential
// service calls. It holds no per-call state and is safe to retry.
type Pipeline struct {
	service Service
	metrics *metrics.Recognition
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records stage outcomes on m.
func WithMetrics(m *metrics.Recognition) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline over svc.
func NewPipeline(svc Service, opts ...Option) *Pipeline {
	p := &Pipeline{service: svc}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recognize reads the label in img and enriches it. Only a failed
// extraction, or ctx ending, is fatal; the error is then an *AnalysisError.
func (p *Pipeline) Recognize(ctx context.Context, img Image) (Candidate, error) {
	ex := p.Extract(ctx, img)
	if ex.Status == StatusFailed {
		slog.Error("label extraction failed", "error", ex.Err)
		return Candidate{}, &AnalysisError{Stage: StageExtraction, Err: ex.Err}
	}

	en := p.Enrich(ctx, ex)
	if err := ctx.Err(); err != nil {
		return Candidate{}, &AnalysisError{Stage: StageEnrichment, Err: err}
	}
	if en.Status == StatusDegraded {
		slog.Warn("enrichment degraded, using label fields", "brand", ex.Brand, "model", ex.Model, "error", en.Err)
	}

	c := Merge(ex, en)
	slog.Info("label recognized", "name", c.Name, "serial", c.SerialNumber, "device_type", c.DeviceType, "enrichment", en.Status)
	return c, nil
}

// Extract runs the first stage.
func (p *Pipeline) Extract(ctx context.Context, img Image) Extraction {
	start := time.Now()
	text, err := p.service.Analyze(ctx, img, ExtractionInstruction, ExtractionSchema)
	var ex Extraction
	if err != nil {
		ex = Extraction{Status: StatusFailed, Err: fmt.Errorf("calling recognition service: %w", err)}
	} else {
		ex = ParseExtraction(text)
	}
	p.metrics.ObserveStage(StageExtraction, string(ex.Status), time.Since(start))
	return ex
}

// Enrich runs the second stage for a successful extraction. Without a
// model there is nothing to look up and the stage is skipped.
func (p *Pipeline) Enrich(ctx context.Context, ex Extraction) Enrichment {
	if ex.Model == "" {
		p.metrics.ObserveStage(StageEnrichment, string(StatusSkipped), 0)
		return Enrichment{Status: StatusSkipped}
	}

	start := time.Now()
	text, err := p.service.AnalyzeWithSearch(ctx, BuildEnrichmentPrompt(ex.Brand, ex.Model))
	var en Enrichment
	if err != nil {
		en = Enrichment{Status: StatusDegraded, Err: fmt.Errorf("calling recognition service: %w", err)}
	} else {
		en = ParseEnrichment(text)
	}
	p.metrics.ObserveStage(StageEnrichment, string(en.Status), time.Since(start))
	return en
}
