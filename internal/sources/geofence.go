// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/shiplog/shiplog/internal/geofence"
	"github.com/shiplog/shiplog/internal/models"
)

// ErrNoPosition is returned by a PositionProvider when no fresh
// coordinate is available for a vessel this run.
var ErrNoPosition = errors.New("no position sample available")

// PositionProvider is the external live-position collaborator, at its
// interface: one coordinate sample per vessel per run.
type PositionProvider interface {
	Position(ctx context.Context, vessel models.Vessel) (models.Position, error)
}

// PositionFile reads position drops from <dir>/<slug>.json.
type PositionFile struct {
	dir string
}

// NewPositionFile creates a file-based position provider.
func NewPositionFile(dir string) *PositionFile {
	return &PositionFile{dir: dir}
}

// Position implements PositionProvider.
func (p *PositionFile) Position(_ context.Context, vessel models.Vessel) (models.Position, error) {
	path := filepath.Join(p.dir, vessel.Slug+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Position{}, ErrNoPosition
	}
	if err != nil {
		return models.Position{}, fmt.Errorf("read position %s: %w", path, err)
	}

	var pos models.Position
	if err := json.Unmarshal(data, &pos); err != nil {
		return models.Position{}, fmt.Errorf("decode position %s: %w", path, err)
	}
	return pos, nil
}

// GeofenceSource adapts the transition detector to the Source
// interface: it pulls one position sample per vessel and emits the
// boundary crossings, if any.
type GeofenceSource struct {
	detector  *geofence.Detector
	positions PositionProvider
}

// NewGeofenceSource creates a geofence source over the given detector
// and position provider.
func NewGeofenceSource(detector *geofence.Detector, positions PositionProvider) *GeofenceSource {
	return &GeofenceSource{detector: detector, positions: positions}
}

// Kind implements Source.
func (g *GeofenceSource) Kind() models.SourceKind {
	return models.SourceGeofence
}

// Observations implements Source. A vessel without a fresh coordinate
// this run keeps its fence states untouched and yields nothing.
func (g *GeofenceSource) Observations(ctx context.Context, vessel models.Vessel) ([]models.RawObservation, error) {
	pos, err := g.positions.Position(ctx, vessel)
	if errors.Is(err, ErrNoPosition) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g.detector.Observe(vessel, pos), nil
}
