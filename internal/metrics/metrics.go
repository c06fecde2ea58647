// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MoodWrites counts successful mood writes by op: created, updated, deleted.
	MoodWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindspace",
			Name:      "mood_writes_total",
			Help:      "Mood entry writes that reached the store.",
		},
		[]string{"op"},
	)

	AggregateCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindspace",
			Name:      "aggregate_cache_total",
			Help:      "Aggregate cache lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)
)
