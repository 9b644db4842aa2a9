// Package metrics exposes Prometheus collectors for history loading and queries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reload metrics
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldhistory_reloads_total",
			Help: "Total number of history reloads by result",
		},
		[]string{"result"},
	)

	ReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moldhistory_reload_duration_seconds",
			Help:    "Duration of a full fetch, parse and derivation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moldhistory_events_loaded",
			Help: "Number of derived events in the current collection by source",
		},
		[]string{"source"},
	)

	// Classification metrics
	UnclassifiedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldhistory_unclassified_rows_total",
			Help: "Log rows that fell through to the OTHER action",
		},
		[]string{"source"},
	)

	ItemConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moldhistory_item_conflicts_total",
			Help: "Log rows carrying both a mold id and a cutter id",
		},
	)

	// Source fetch metrics
	FetchBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldhistory_fetch_bytes_total",
			Help: "Bytes read while fetching source tables",
		},
		[]string{"table"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldhistory_fetch_errors_total",
			Help: "Failed source table fetches",
		},
		[]string{"table"},
	)

	// Query metrics
	PageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moldhistory_page_requests_total",
			Help: "Page results served by entry point",
		},
		[]string{"op"},
	)
)
