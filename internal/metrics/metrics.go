// Package metrics provides Prometheus metrics for NetWarden.
// It tracks event consumption, rule matching, delivery outcomes and digest
// activity so noisy rules and failing channels are easy to spot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "netwarden"
)

// Pipeline metrics track event consumption and rule evaluation.
var (
	// EventsConsumedTotal counts events consumed from the bus.
	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Total number of events consumed from the event bus",
		},
		[]string{"source", "severity"},
	)

	// RuleMatchesTotal counts rule matches that passed all gates.
	RuleMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Total number of rule matches processed",
		},
		[]string{"rule_id"},
	)

	// CooldownSuppressionsTotal counts matches suppressed by cooldown.
	CooldownSuppressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_suppressions_total",
			Help:      "Total number of rule matches suppressed by cooldown",
		},
		[]string{"rule_id"},
	)

	// EventProcessingLatency measures time to process a single event.
	EventProcessingLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_processing_latency_seconds",
			Help:      "Time to process a single event in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// RuleCacheRefreshFailuresTotal counts failed rule cache refreshes.
	RuleCacheRefreshFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_cache_refresh_failures_total",
			Help:      "Total number of failed rule cache refreshes (stale cache served)",
		},
	)
)

// Incident metrics track correlation activity.
var (
	// IncidentsCreatedTotal counts new incidents opened.
	IncidentsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_created_total",
			Help:      "Total number of incidents created",
		},
	)

	// IncidentsExtendedTotal counts alerts absorbed into existing incidents.
	IncidentsExtendedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_extended_total",
			Help:      "Total number of alerts absorbed into existing incidents",
		},
	)
)

// Delivery metrics track the notification fan-out.
var (
	// DeliveriesTotal counts per-channel delivery attempts.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of per-channel delivery attempts",
		},
		[]string{"channel_type", "status"}, // status: success, failure
	)

	// DeliveryLatency measures time to deliver one alert to one channel.
	DeliveryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_latency_seconds",
			Help:      "Time to deliver one alert to one channel in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Digest metrics track the summarizer.
var (
	// DigestsSentTotal counts digest deliveries.
	DigestsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_sent_total",
			Help:      "Total number of digests sent",
		},
		[]string{"channel_type", "status"}, // status: success, failure, empty
	)

	// DigestBatchSize tracks uncollapsed batch sizes per digest.
	DigestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "digest_batch_size",
			Help:      "Number of history entries per digest before collapsing",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// DigestCollapsedSize tracks batch sizes after collapsing.
	DigestCollapsedSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "digest_collapsed_size",
			Help:      "Number of digest entries after collapsing",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Ingest metrics track the producer side of the bus.
var (
	// EventsPublishedTotal counts events published to the bus.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of events published to the event bus",
		},
		[]string{"source"},
	)

	// QueuePublishLatency measures time to publish a message to the bus.
	QueuePublishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_publish_latency_seconds",
			Help:      "Time to publish a message to the event bus in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)
)
