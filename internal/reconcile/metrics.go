package reconcile

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record operations counted by Metrics.
const (
	opCreate  = "create"
	opUpdate  = "update"
	opDelete  = "delete"
	opResolve = "resolve"
)

// Metrics holds the reconcile collectors.
type Metrics struct {
	records   *prometheus.CounterVec
	runs      *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphmirror",
			Subsystem: "reconcile",
			Name:      "records_total",
			Help:      "Local records written by reconcile, by operation.",
		}, []string{"entity", "op"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphmirror",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconcile calls, by outcome.",
		}, []string{"entity", "status"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphmirror",
			Subsystem: "reconcile",
			Name:      "conflicts_total",
			Help:      "Uniqueness conflicts hit while creating records.",
		}, []string{"entity"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "graphmirror",
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Wall time of one reconcile call.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"entity"}),
	}
}

var defaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
})

// DefaultMetrics returns collectors registered with the default registry.
func DefaultMetrics() *Metrics {
	return defaultMetrics()
}

func (m *Metrics) observe(entity string, res Result, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(entity, opCreate).Add(float64(len(res.Added)))
	m.records.WithLabelValues(entity, opUpdate).Add(float64(len(res.Updated)))
	m.records.WithLabelValues(entity, opDelete).Add(float64(len(res.Deleted)))
	m.records.WithLabelValues(entity, opResolve).Add(float64(len(res.Resolved)))
	m.runs.WithLabelValues(entity, status).Inc()
	m.duration.WithLabelValues(entity).Observe(elapsed.Seconds())
}

func (m *Metrics) conflict(entity string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(entity).Inc()
}

// WriteMetricsFile writes every metric in g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteMetricsFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
