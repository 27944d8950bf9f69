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

	"github.com/shiplog/shiplog/internal/models"
)

// SnapshotSource reads pre-extracted observation rows from
// <dir>/<slug>.json - the hand-off files an external browser
// automation step drops between runs. A missing file means no fresh
// extraction for that vessel, which is not an error.
type SnapshotSource struct {
	kind models.SourceKind
	dir  string
}

// NewSnapshotSource creates a snapshot source attributing rows to the
// given source kind.
func NewSnapshotSource(kind models.SourceKind, dir string) *SnapshotSource {
	return &SnapshotSource{kind: kind, dir: dir}
}

// Kind implements Source.
func (s *SnapshotSource) Kind() models.SourceKind {
	return s.kind
}

// Observations implements Source.
func (s *SnapshotSource) Observations(_ context.Context, vessel models.Vessel) ([]models.RawObservation, error) {
	path := filepath.Join(s.dir, vessel.Slug+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return DecodeRows(data, vessel, s.kind)
}
