package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Ledger records inventory ledger activity. A nil *Ledger is a no-op.
type Ledger struct {
	operations *prometheus.CounterVec
	items      prometheus.Gauge
	units      prometheus.Gauge
}

// NewLedger registers the ledger metrics on the provided registerer.
func NewLedger(reg prometheus.Registerer) *Ledger {
	if reg == nil {
		return nil
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventario_ledger_operations_total",
		Help: "Ledger operations by operation and result.",
	}, []string{"operation", "result"})
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventario_ledger_items",
		Help: "Number of items currently in the inventory.",
	})
	units := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventario_ledger_units",
		Help: "Total quantity on hand across all items.",
	})
	reg.MustRegister(operations, items, units)
	return &Ledger{operations: operations, items: items, units: units}
}

// Observe counts one ledger operation with its result.
func (l *Ledger) Observe(operation, result string) {
	if l == nil {
		return
	}
	l.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// SetStock records the current item count and total units on hand.
func (l *Ledger) SetStock(items, units int) {
	if l == nil {
		return
	}
	l.items.Set(float64(items))
	l.units.Set(float64(units))
}

// Recognition records recognition pipeline activity. A nil *Recognition is a no-op.
type Recognition struct {
	stages   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecognition registers the recognition metrics on the provided registerer.
func NewRecognition(reg prometheus.Registerer) *Recognition {
	if reg == nil {
		return nil
	}
	stages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventario_recognition_stage_total",
		Help: "Recognition pipeline stage outcomes.",
	}, []string{"stage", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventario_recognition_stage_duration_seconds",
		Help:    "Duration of recognition service calls in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"stage"})
	reg.MustRegister(stages, duration)
	return &Recognition{stages: stages, duration: duration}
}

// ObserveStage records the outcome and duration of one pipeline stage.
func (r *Recognition) ObserveStage(stage, status string, d time.Duration) {
	if r == nil {
		return
	}
	stage = normalizeLabel(stage)
	r.stages.WithLabelValues(stage, normalizeLabel(status)).Inc()
	if d > 0 {
		r.duration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
