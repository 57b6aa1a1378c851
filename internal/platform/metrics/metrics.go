package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Outcome labels for placements.
const (
	OutcomePlaced        = "placed"
	OutcomeAlreadyPlaced = "already_placed"
	OutcomeRejected      = "rejected"
	OutcomeFailed        = "failed"
)

// Metrics holds the placement service's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Placements         *prometheus.CounterVec
	PlacementConflicts prometheus.Counter
	PlacementDuration  prometheus.Histogram
	BonusEntries       *prometheus.CounterVec
	BonusAmount        *prometheus.CounterVec
	TreeCacheRequests  *prometheus.CounterVec
	OutboxPublished    prometheus.Counter
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Placements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equilibrium_placements_total",
			Help: "Placement requests by outcome",
		}, []string{"outcome"}),
		PlacementConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "equilibrium_placement_conflicts_total",
			Help: "Placement attempts retried after losing a slot race",
		}),
		PlacementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "equilibrium_placement_duration_seconds",
			Help:    "Time to place a member including retries",
			Buckets: prometheus.DefBuckets,
		}),
		BonusEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equilibrium_bonus_entries_total",
			Help: "Bonus entries written by kind",
		}, []string{"kind"}),
		BonusAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equilibrium_bonus_amount_total",
			Help: "Bonus amount credited by kind",
		}, []string{"kind"}),
		TreeCacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equilibrium_tree_cache_requests_total",
			Help: "Tree cache lookups by result",
		}, []string{"result"}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "equilibrium_outbox_published_total",
			Help: "Outbox events relayed to the broker",
		}),
	}
}

func (m *Metrics) IncrementPlacement(outcome string) {
	m.Placements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementConflict() {
	m.PlacementConflicts.Inc()
}

func (m *Metrics) ObservePlacementDuration(start time.Time) {
	m.PlacementDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordBonus(kind string, amount decimal.Decimal) {
	m.BonusEntries.WithLabelValues(kind).Inc()
	m.BonusAmount.WithLabelValues(kind).Add(amount.InexactFloat64())
}

func (m *Metrics) IncrementCacheRequest(result string) {
	m.TreeCacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) AddOutboxPublished(n int) {
	m.OutboxPublished.Add(float64(n))
}
