package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postforge_turns_total",
		Help: "User turns processed, by outcome.",
	}, []string{"outcome"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postforge_turn_duration_seconds",
		Help:    "Wall time spent processing a user turn.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
