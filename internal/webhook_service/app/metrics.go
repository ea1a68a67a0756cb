package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhooksReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waba_panel",
			Name:      "webhooks_received_total",
			Help:      "Total webhook notifications received by outcome.",
		},
		[]string{"outcome"}, // "accepted", "invalid_signature", "malformed"
	)

	webhookEntriesAppendedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "waba_panel",
			Name:      "webhook_entries_appended_total",
			Help:      "Total top-level notification entries appended to the event log.",
		},
	)

	eventLogSizeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "waba_panel",
			Name:      "event_log_size",
			Help:      "Number of webhook events currently retained.",
		},
	)

	replayDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "waba_panel",
			Name:      "replay_duration_seconds",
			Help:      "Duration of event log replays into derived views.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"view"}, // "conversations", "stats"
	)
)
