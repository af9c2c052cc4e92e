package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine's prometheus instruments.
type Metrics struct {
	Registry *prometheus.Registry

	postingsTotal       *prometheus.CounterVec
	journalLinesTotal   prometheus.Counter
	allocationsTotal    *prometheus.CounterVec
	reconciliationRuns  prometheus.Counter
	snapshotsTotal      prometheus.Counter
	postingDuration     prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		postingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontera_postings_total",
			Help: "Posting attempts by transaction kind and outcome.",
		}, []string{"kind", "status"}),
		journalLinesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kontera_journal_lines_total",
			Help: "Journal lines persisted.",
		}),
		allocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kontera_landed_cost_allocations_total",
			Help: "Landed-cost allocation attempts by outcome.",
		}, []string{"status"}),
		reconciliationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kontera_reconciliation_runs_total",
			Help: "Reconciliation report runs.",
		}),
		snapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kontera_performance_snapshots_total",
			Help: "Supplier performance snapshots persisted.",
		}),
		postingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kontera_posting_duration_seconds",
			Help:    "Wall time of Post calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.postingsTotal,
		m.journalLinesTotal,
		m.allocationsTotal,
		m.reconciliationRuns,
		m.snapshotsTotal,
		m.postingDuration,
	)
	return m
}

func (m *Metrics) RecordPosting(kind, status string, lines int, took time.Duration) {
	if m == nil {
		return
	}
	m.postingsTotal.WithLabelValues(kind, status).Inc()
	m.journalLinesTotal.Add(float64(lines))
	m.postingDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordAllocation(status string) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordReconciliation() {
	if m == nil {
		return
	}
	m.reconciliationRuns.Inc()
}

func (m *Metrics) RecordSnapshot() {
	if m == nil {
		return
	}
	m.snapshotsTotal.Inc()
}
