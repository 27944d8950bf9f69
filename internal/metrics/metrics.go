// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package metrics provides Prometheus collectors for observability.
//
// Metrics are exposed at the /metrics endpoint of `shiplog serve`.
//
// Reconciliation:
//   - shiplog_observations_total{source}: raw observations collected
//   - shiplog_events_emitted_total{vessel,kind}: canonical events accepted
//   - shiplog_duplicates_suppressed_total{reason}: duplicates dropped
//     (reason: batch, seen)
//   - shiplog_indefinite_dropped_total: observations dropped by the
//     definite-time policy
//   - shiplog_time_parse_fallbacks_total: non-empty time fragments that
//     resolved indefinite
//   - shiplog_zone_fallbacks_total: zone lookups that fell through to
//     the default zone
//
// Sources:
//   - shiplog_source_errors_total{source}: collaborator failures
//   - shiplog_breaker_state{name}: circuit state (0 closed, 1 half-open,
//     2 open)
//
// Runs and feeds:
//   - shiplog_run_duration_seconds: batch run duration
//   - shiplog_feed_items{feed}: items in each rendered feed
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ObservationsCollected counts raw observations per source kind.
	ObservationsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiplog_observations_total",
		Help: "Raw observations collected, by source kind",
	}, []string{"source"})

	// EventsEmitted counts canonical events accepted by the reconciler.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiplog_events_emitted_total",
		Help: "Canonical events accepted, by vessel and kind",
	}, []string{"vessel", "kind"})

	// DuplicatesSuppressed counts dropped duplicates by reason.
	DuplicatesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiplog_duplicates_suppressed_total",
		Help: "Duplicate observations suppressed (batch collapse or seen registry)",
	}, []string{"reason"})

	// IndefiniteDropped counts observations dropped by the
	// definite-time policy.
	IndefiniteDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiplog_indefinite_dropped_total",
		Help: "Observations dropped because their event kind requires a definite time",
	})

	// TimeParseFallbacks counts non-empty time fragments that could
	// not be resolved.
	TimeParseFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiplog_time_parse_fallbacks_total",
		Help: "Time fragments that resolved to an indefinite time",
	})

	// ZoneFallbacks counts zone lookups that degraded to the default.
	ZoneFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiplog_zone_fallbacks_total",
		Help: "Zone lookups that fell back to the default zone",
	})

	// SourceErrors counts upstream collaborator failures per source.
	SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shiplog_source_errors_total",
		Help: "Source collaborator failures, by source kind",
	}, []string{"source"})

	// BreakerState tracks circuit breaker state per breaker name.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiplog_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// RunDuration observes batch run durations.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shiplog_run_duration_seconds",
		Help:    "Duration of one reconciliation run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	// FeedItems tracks the number of items in each rendered feed.
	FeedItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiplog_feed_items",
		Help: "Items in each rendered feed",
	}, []string{"feed"})
)
