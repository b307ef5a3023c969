// Package metrics defines the Prometheus collectors for the realtime
// backend. Collectors are registered once at package init via promauto
// and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectedSessions tracks currently registered hub sessions by transport.
	ConnectedSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_connected_sessions",
			Help: "Currently connected realtime sessions by transport",
		},
		[]string{"transport"},
	)

	// EventsTotal tracks dispatched domain events by kind and outcome.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_domain_events_total",
			Help: "Dispatched domain events by kind and status",
		},
		[]string{"kind", "status"},
	)

	// BroadcastsTotal tracks server events fanned out to rooms.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Server events broadcast to rooms by event type",
		},
		[]string{"event_type"},
	)

	// DroppedEventsTotal tracks server events dropped because a session's
	// send buffer was full.
	DroppedEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dropped_events_total",
			Help: "Server events dropped due to full session buffers",
		},
	)

	// SnapshotTicksTotal tracks aggregation ticks by outcome.
	SnapshotTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_snapshot_ticks_total",
			Help: "Dashboard snapshot aggregation ticks by status",
		},
		[]string{"status"},
	)

	// SnapshotDuration tracks how long one aggregation tick takes.
	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "realtime_snapshot_duration_seconds",
			Help:    "Dashboard snapshot aggregation duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)
