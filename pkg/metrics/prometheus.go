package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientflow_recomputes_total",
			Help: "Total number of approval status recomputes by resulting status",
		},
		[]string{"status"},
	)

	TransitionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clientflow_approval_transitions_total",
			Help: "Total number of pending-to-approved transitions",
		},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clientflow_notifications_created_total",
			Help: "Total number of in-app notification records created",
		},
	)

	FanoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientflow_fanout_failures_total",
			Help: "Total number of failed fanout emissions by channel",
		},
		[]string{"channel"},
	)

	TrackerSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clientflow_tracker_syncs_total",
			Help: "Total number of tracker sync attempts by outcome",
		},
		[]string{"outcome"},
	)

	SweepProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clientflow_sweep_processed_total",
			Help: "Total number of approvals auto-approved by the sweep",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clientflow_sweep_errors_total",
			Help: "Total number of approvals the sweep failed to process",
		},
	)
)
