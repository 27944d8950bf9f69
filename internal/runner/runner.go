// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package runner orchestrates one reconciliation run: collect raw
// observations per vessel, reconcile them into canonical events, merge
// the history logs, render the feeds, and flush state.
//
// Failure semantics differ by stage. A failing source contributes zero
// observations and the run continues; a failing history read, feed
// write, or state flush aborts the run so durable state and published
// feeds never diverge.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shiplog/shiplog/internal/config"
	"github.com/shiplog/shiplog/internal/feed"
	"github.com/shiplog/shiplog/internal/geofence"
	"github.com/shiplog/shiplog/internal/history"
	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/metrics"
	"github.com/shiplog/shiplog/internal/models"
	"github.com/shiplog/shiplog/internal/reconcile"
	"github.com/shiplog/shiplog/internal/sources"
	"github.com/shiplog/shiplog/internal/state"
)

// Runner wires the pipeline stages for repeated runs.
type Runner struct {
	store      *state.Store
	reconciler *reconcile.Reconciler
	renderer   *feed.Renderer
	sources    []sources.Source
	detector   *geofence.Detector
	vessels    []models.Vessel
	feeds      config.FeedsConfig
}

// New creates a runner. The detector may be nil when no fences are
// configured.
func New(store *state.Store, rec *reconcile.Reconciler, renderer *feed.Renderer, srcs []sources.Source, detector *geofence.Detector, vessels []models.Vessel, feeds config.FeedsConfig) *Runner {
	return &Runner{
		store:      store,
		reconciler: rec,
		renderer:   renderer,
		sources:    srcs,
		detector:   detector,
		vessels:    vessels,
		feeds:      feeds,
	}
}

// Run executes one full reconciliation run at the given reference
// time. On success every mutation of the run is durable; on error none
// is.
func (r *Runner) Run(ctx context.Context, now time.Time) error {
	start := time.Now()
	runLog := logging.With().Str("run_id", uuid.NewString()).Logger()
	runLog.Info().Int("vessels", len(r.vessels)).Msg("Starting reconciliation run")

	var globalBatch []models.CanonicalEvent
	for _, vessel := range r.vessels {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run canceled: %w", err)
		}

		obs := r.collect(ctx, vessel, runLog)
		events, stats := r.reconciler.Reconcile(vessel, obs, r.store, now)
		runLog.Info().
			Str("vessel", vessel.Slug).
			Int("collected", stats.Collected).
			Int("emitted", stats.Emitted).
			Int("batch_duplicates", stats.BatchDuplicates).
			Int("already_seen", stats.AlreadySeen).
			Int("indefinite_dropped", stats.IndefiniteDropped).
			Msg("Vessel reconciled")

		if err := r.updateVessel(vessel, events, now); err != nil {
			return err
		}
		globalBatch = append(globalBatch, events...)
	}

	if err := r.updateGlobal(globalBatch, now); err != nil {
		return err
	}

	if r.detector != nil {
		r.store.SetFenceStates(r.detector.States())
	}

	if err := r.store.Flush(); err != nil {
		return fmt.Errorf("persist run state: %w", err)
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	runLog.Info().Dur("duration", time.Since(start)).Int("events", len(globalBatch)).Msg("Run complete")
	return nil
}

// collect gathers raw observations for one vessel across all sources.
// A failing source is logged and skipped.
func (r *Runner) collect(ctx context.Context, vessel models.Vessel, runLog zerolog.Logger) []models.RawObservation {
	var obs []models.RawObservation
	for _, src := range r.sources {
		got, err := src.Observations(ctx, vessel)
		if err != nil {
			metrics.SourceErrors.WithLabelValues(string(src.Kind())).Inc()
			runLog.Warn().Err(err).
				Str("vessel", vessel.Slug).
				Str("source", string(src.Kind())).
				Msg("Source failed, continuing without it")
			continue
		}
		metrics.ObservationsCollected.WithLabelValues(string(src.Kind())).Add(float64(len(got)))
		obs = append(obs, got...)
	}
	return obs
}

// updateVessel merges the vessel's history and rewrites its feed.
func (r *Runner) updateVessel(vessel models.Vessel, events []models.CanonicalEvent, now time.Time) error {
	existing, err := r.store.History(vessel.Slug)
	if err != nil {
		return fmt.Errorf("load history for %s: %w", vessel.Slug, err)
	}
	merged := history.Merge(existing, events, r.feeds.PerVesselCap)
	r.store.SetHistory(vessel.Slug, merged)

	link := vessel.PageURL
	if link == "" {
		link = r.feeds.Link
	}
	title := fmt.Sprintf("%s: %s", r.feeds.Title, vessel.Name)
	return r.writeFeed(vessel.Slug, title, link, merged, now)
}

// updateGlobal merges the aggregate log and rewrites the combined
// feed.
func (r *Runner) updateGlobal(batch []models.CanonicalEvent, now time.Time) error {
	existing, err := r.store.History(models.GlobalFeedSlug)
	if err != nil {
		return fmt.Errorf("load global history: %w", err)
	}
	merged := history.Merge(existing, batch, r.feeds.GlobalCap)
	r.store.SetHistory(models.GlobalFeedSlug, merged)
	return r.writeFeed(models.GlobalFeedSlug, r.feeds.Title, r.feeds.Link, merged, now)
}

func (r *Runner) writeFeed(slug, title, link string, events []models.CanonicalEvent, now time.Time) error {
	data, err := r.renderer.Render(slug, title, link, events, now)
	if err != nil {
		return err
	}
	path := filepath.Join(r.feeds.Dir, slug+".xml")
	if err := feed.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("write feed %s: %w", slug, err)
	}
	return nil
}

// Service runs the pipeline periodically. It implements
// suture.Service for serve mode.
type Service struct {
	runner   *Runner
	interval time.Duration
}

// NewService wraps a runner for periodic execution.
func NewService(runner *Runner, interval time.Duration) *Service {
	return &Service{runner: runner, interval: interval}
}

// Serve runs immediately, then on every interval tick until the
// context is canceled. A failed run is logged and retried on the next
// tick; state stays consistent because a failed run persists nothing.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.runner.Run(ctx, time.Now().UTC()); err != nil {
		logging.Error().Err(err).Msg("Reconciliation run failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.runner.Run(ctx, time.Now().UTC()); err != nil {
				logging.Error().Err(err).Msg("Reconciliation run failed")
			}
		}
	}
}
