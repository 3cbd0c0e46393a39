// Package metrics provides Prometheus metrics for the reconciliation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the reconciliation pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingest Metrics - Input data quality
	eventsIngested  prometheus.Counter
	eventsInvalid   prometheus.Counter
	eventsDuplicate prometheus.Counter

	// Match Metrics - What the ranker decided
	matchesAbsolute prometheus.Counter
	matchesFuzzy    prometheus.Counter
	matchesNone     prometheus.Counter

	// Review Cycle Metrics - Human decisions and overrides
	decisionsAccepted prometheus.Counter
	decisionsRejected prometheus.Counter
	overridesApplied  prometheus.Counter

	// Join Quality Metrics
	eventsMerged     prometheus.Counter
	rosterCollisions prometheus.Counter

	// Scale Gauges
	rosterSize          prometheus.Gauge
	identitiesTotal     prometheus.Gauge
	lowConfidenceEvents prometheus.Gauge

	// Performance Metrics
	rankDuration prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rollcall",
		subsystem:        "reconcile",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Ingest Metrics - Input data quality indicators
	m.eventsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_ingested_total",
		Help:      "Total number of event rows accepted from the activity log",
	})

	m.eventsInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_invalid_total",
		Help:      "Total number of event rows dropped for blank names or non-numeric hours",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of exact duplicate event rows dropped at ingest",
	})

	// Match Metrics - Ranking outcomes
	m.matchesAbsolute = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_absolute_total",
		Help:      "Total number of queries resolved by an absolute match",
	})

	m.matchesFuzzy = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_fuzzy_total",
		Help:      "Total number of queries resolved by composite scoring only",
	})

	m.matchesNone = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_none_total",
		Help:      "Total number of queries with no candidate at all",
	})

	// Review Cycle Metrics - Human-in-the-loop activity
	m.decisionsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decisions_accepted_total",
		Help:      "Total number of ACCEPT decisions applied to events",
	})

	m.decisionsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decisions_rejected_total",
		Help:      "Total number of REJECT decisions applied to events",
	})

	m.overridesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overrides_applied_total",
		Help:      "Total number of manual override rules applied to events",
	})

	// Join Quality Metrics
	m.eventsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_merged_total",
		Help:      "Total number of joined rows dropped as same-email same-event duplicates",
	})

	m.rosterCollisions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_collisions_total",
		Help:      "Total number of roster emails that appeared on more than one row",
	})

	// Scale Gauges - Business scale indicators
	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_size",
		Help:      "Number of rows loaded from the identity roster",
	})

	m.identitiesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identities_total",
		Help:      "Number of canonical identities after roster collapse",
	})

	m.lowConfidenceEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "low_confidence_events",
		Help:      "Number of events flagged for low-confidence auto-assignment",
	})

	// Performance Metrics
	m.rankDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_duration_seconds",
		Help:      "Histogram of candidate ranking batch duration in seconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordEventIngested increments the ingested events counter.
func RecordEventIngested() {
	globalManager.eventsIngested.Inc()
}

// RecordEventInvalid increments the invalid events counter.
func RecordEventInvalid() {
	globalManager.eventsInvalid.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordAbsoluteMatch increments the absolute match counter.
func RecordAbsoluteMatch() {
	globalManager.matchesAbsolute.Inc()
}

// RecordFuzzyMatch increments the fuzzy match counter.
func RecordFuzzyMatch() {
	globalManager.matchesFuzzy.Inc()
}

// RecordNoMatch increments the no-candidate counter.
func RecordNoMatch() {
	globalManager.matchesNone.Inc()
}

// RecordDecisionAccepted increments the accepted decisions counter.
func RecordDecisionAccepted() {
	globalManager.decisionsAccepted.Inc()
}

// RecordDecisionRejected increments the rejected decisions counter.
func RecordDecisionRejected() {
	globalManager.decisionsRejected.Inc()
}

// RecordOverrideApplied increments the applied overrides counter.
func RecordOverrideApplied() {
	globalManager.overridesApplied.Inc()
}

// RecordEventMerged increments the merged duplicate rows counter.
func RecordEventMerged() {
	globalManager.eventsMerged.Inc()
}

// RecordRosterCollision increments the roster collision counter.
func RecordRosterCollision() {
	globalManager.rosterCollisions.Inc()
}

// UpdateRosterSize sets the loaded roster row count gauge.
func UpdateRosterSize(count int) {
	globalManager.rosterSize.Set(float64(count))
}

// UpdateIdentitiesTotal sets the final identity count gauge.
func UpdateIdentitiesTotal(count int) {
	globalManager.identitiesTotal.Set(float64(count))
}

// UpdateLowConfidenceEvents sets the low-confidence events gauge.
func UpdateLowConfidenceEvents(count int) {
	globalManager.lowConfidenceEvents.Set(float64(count))
}

// ObserveRankDuration records the duration of a ranking batch in seconds.
func ObserveRankDuration(seconds float64) {
	globalManager.rankDuration.Observe(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
