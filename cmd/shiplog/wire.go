// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package main

import (
	"fmt"

	"github.com/shiplog/shiplog/internal/config"
	"github.com/shiplog/shiplog/internal/feed"
	"github.com/shiplog/shiplog/internal/geofence"
	"github.com/shiplog/shiplog/internal/models"
	"github.com/shiplog/shiplog/internal/ports"
	"github.com/shiplog/shiplog/internal/reconcile"
	"github.com/shiplog/shiplog/internal/runner"
	"github.com/shiplog/shiplog/internal/sources"
	"github.com/shiplog/shiplog/internal/state"
)

// buildRunner assembles the pipeline from configuration and the
// opened state store.
func buildRunner(cfg *config.Config, store *state.Store) (*runner.Runner, error) {
	norm := ports.NewNormalizer(cfg.Ports.Aliases)
	zones := ports.NewZoneResolver(cfg.ZoneTable())
	rec := reconcile.New(cfg.Policy(), norm)
	renderer := feed.NewRenderer(zones)

	srcs := []sources.Source{
		sources.NewPageSource(
			models.SourcePrimaryPage,
			sources.NewRowsParser(models.SourcePrimaryPage),
			func(v models.Vessel) string { return v.RowsURL },
			cfg.FetchSettings(),
		),
	}

	if cfg.Sources.Snapshots.Enabled {
		kind := models.SourceKind(cfg.Sources.Snapshots.Source)
		srcs = append(srcs, sources.NewSnapshotSource(kind, cfg.Sources.Snapshots.Dir))
	}

	var detector *geofence.Detector
	if len(cfg.Fences) > 0 && cfg.Sources.Positions.Enabled {
		states, err := store.FenceStates()
		if err != nil {
			return nil, fmt.Errorf("resume fence states: %w", err)
		}
		detector = geofence.NewDetector(cfg.FenceList(), states)
		srcs = append(srcs, sources.NewGeofenceSource(detector, sources.NewPositionFile(cfg.Sources.Positions.Dir)))
	}

	return runner.New(store, rec, renderer, srcs, detector, cfg.VesselList(), cfg.Feeds), nil
}
