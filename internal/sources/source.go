// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package sources provides the raw-observation producers the
// reconciler consumes from.
//
// The actual extraction of rows from tracking-site markup is an
// external collaborator: page sources take an injected Parser, and the
// snapshot source reads the extraction step's hand-off files. A
// failing source contributes zero observations for the vessel this
// run - never an error that aborts other sources or vessels; the
// runner enforces that.
package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/models"
)

// Source produces the raw observations of one upstream path for one
// vessel in one run.
type Source interface {
	// Kind identifies the upstream path for tie-break preference.
	Kind() models.SourceKind

	// Observations returns the raw observations for the vessel. A nil
	// slice with nil error means "nothing new happened".
	Observations(ctx context.Context, vessel models.Vessel) ([]models.RawObservation, error)
}

// Parser extracts observation rows from a fetched page body. Concrete
// DOM heuristics live outside this module; RowsParser handles the
// JSON hand-off format.
type Parser interface {
	Parse(body []byte, vessel models.Vessel) ([]models.RawObservation, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(body []byte, vessel models.Vessel) ([]models.RawObservation, error)

// Parse implements Parser.
func (f ParserFunc) Parse(body []byte, vessel models.Vessel) ([]models.RawObservation, error) {
	return f(body, vessel)
}

// row is the hand-off schema shared by the snapshot files and the
// rows-endpoint body. Field names match what the extraction step
// emits.
type row struct {
	Event   string `json:"event"`
	Port    string `json:"port"`
	WhenRaw string `json:"when_raw"`
	Link    string `json:"link"`
	Detail  string `json:"detail"`
}

// DecodeRows decodes a JSON array of extracted rows into raw
// observations attributed to the given vessel and source. Rows with an
// unrecognized event label are skipped with a warning.
func DecodeRows(data []byte, vessel models.Vessel, source models.SourceKind) ([]models.RawObservation, error) {
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	obs := make([]models.RawObservation, 0, len(rows))
	for _, r := range rows {
		kind, ok := eventKind(r.Event)
		if !ok {
			logging.Warn().Str("vessel", vessel.Slug).Str("event", r.Event).Msg("Skipping row with unknown event label")
			continue
		}
		obs = append(obs, models.RawObservation{
			VesselSlug: vessel.Slug,
			Kind:       kind,
			PortName:   r.Port,
			PortLink:   r.Link,
			RawTime:    r.WhenRaw,
			Detail:     r.Detail,
			Source:     source,
		})
	}
	return obs, nil
}

// eventKind maps the labels the extraction step emits ("Arrival",
// "Arrived", "Departure", "Departed") onto event kinds.
func eventKind(label string) (models.EventKind, bool) {
	switch {
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "arriv"):
		return models.EventArrived, true
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "depart"):
		return models.EventDeparted, true
	default:
		return "", false
	}
}

// RowsParser parses a page body that is itself the JSON rows hand-off
// format (an extraction step publishing its output over HTTP).
type RowsParser struct {
	source models.SourceKind
}

// NewRowsParser creates a parser attributing rows to the given source.
func NewRowsParser(source models.SourceKind) RowsParser {
	return RowsParser{source: source}
}

// Parse implements Parser.
func (p RowsParser) Parse(body []byte, vessel models.Vessel) ([]models.RawObservation, error) {
	return DecodeRows(body, vessel, p.source)
}
