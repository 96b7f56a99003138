// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package metrics provides Prometheus instrumentation for the ranking
// engine, the engagement pipeline and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking metrics
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcore_rank_duration_seconds",
			Help:    "Duration of full ranking passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	RankedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_ranked_items_total",
			Help: "Total number of items scored across ranking passes",
		},
		[]string{"variant"},
	)

	// Engagement pipeline metrics
	EngagementEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_engagement_events_total",
			Help: "Total engagement events accepted by type",
		},
		[]string{"type"},
	)

	EngagementFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_engagement_flushes_total",
			Help: "Total engagement batch flushes",
		},
	)

	EngagementFlushedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_engagement_flushed_events_total",
			Help: "Total engagement events folded into profiles",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcore_active_sessions",
			Help: "Current number of live feed sessions",
		},
	)

	// HTTP metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcore_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcore_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordRank records a completed ranking pass.
func RecordRank(variant string, items int, elapsed time.Duration) {
	RankDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
	RankedItems.WithLabelValues(variant).Add(float64(items))
}

// RecordEngagementEvent records one accepted engagement event.
func RecordEngagementEvent(engagementType string) {
	EngagementEvents.WithLabelValues(engagementType).Inc()
}

// RecordEngagementFlush records a flushed batch.
func RecordEngagementFlush(events int) {
	EngagementFlushes.Inc()
	EngagementFlushedEvents.Add(float64(events))
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, path, status string, elapsed time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
