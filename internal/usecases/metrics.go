package usecases

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("project_outreach/usecases")

var (
	BroadcastDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_broadcast_dispatches_total",
			Help: "Broadcast dispatches by channel and outcome code",
		},
		[]string{"channel", "outcome"},
	)

	BroadcastMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_broadcast_messages_total",
			Help: "Individual sends by channel and result",
		},
		[]string{"channel", "result"},
	)

	BroadcastDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outreach_broadcast_duration_seconds",
			Help:    "Wall-clock time of the send phase of a dispatch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"channel"},
	)

	BroadcastsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outreach_broadcasts_active",
			Help: "Dispatches currently in their send phase",
		},
	)

	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_quota_decisions_total",
			Help: "Quota authorizations by decision",
		},
		[]string{"decision"},
	)
)
