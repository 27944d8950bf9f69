// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shiplog/shiplog/internal/models"
)

var magic = models.Vessel{Slug: "magic", Name: "Disney Magic"}

const rowsJSON = `[
	{"event": "Arrival", "port": "Port Canaveral", "when_raw": "Aug 25, 14:30", "link": "/ports/USPCV005", "detail": "Arrived at berth 8"},
	{"event": "Departure", "port": "Port Canaveral", "when_raw": "Aug 25, 17:00"},
	{"event": "Moored", "port": "Port Canaveral", "when_raw": "Aug 25, 18:00"}
]`

func TestDecodeRows(t *testing.T) {
	obs, err := DecodeRows([]byte(rowsJSON), magic, models.SourcePrimaryPage)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	// The unknown "Moored" label is skipped.
	if len(obs) != 2 {
		t.Fatalf("decoded %d observations, want 2", len(obs))
	}

	first := obs[0]
	if first.VesselSlug != "magic" {
		t.Errorf("vessel = %q", first.VesselSlug)
	}
	if first.Kind != models.EventArrived {
		t.Errorf("kind = %s, want Arrived", first.Kind)
	}
	if first.PortName != "Port Canaveral" || first.PortLink != "/ports/USPCV005" {
		t.Errorf("port fields = %q %q", first.PortName, first.PortLink)
	}
	if first.RawTime != "Aug 25, 14:30" || first.Detail != "Arrived at berth 8" {
		t.Errorf("row fields = %q %q", first.RawTime, first.Detail)
	}
	if first.Source != models.SourcePrimaryPage {
		t.Errorf("source = %s", first.Source)
	}

	if obs[1].Kind != models.EventDeparted {
		t.Errorf("second kind = %s, want Departed", obs[1].Kind)
	}
}

func TestDecodeRowsLabelVariants(t *testing.T) {
	data := `[
		{"event": "Arrived", "port": "Nassau"},
		{"event": "arrival", "port": "Nassau"},
		{"event": "DEPARTED", "port": "Nassau"}
	]`
	obs, err := DecodeRows([]byte(data), magic, models.SourceFallbackPage)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("decoded %d, want 3", len(obs))
	}
	if obs[0].Kind != models.EventArrived || obs[1].Kind != models.EventArrived || obs[2].Kind != models.EventDeparted {
		t.Errorf("kinds = %s %s %s", obs[0].Kind, obs[1].Kind, obs[2].Kind)
	}
}

func TestDecodeRowsMalformed(t *testing.T) {
	if _, err := DecodeRows([]byte(`{"not": "an array"}`), magic, models.SourcePrimaryPage); err == nil {
		t.Error("malformed payload did not error")
	}
}

func TestSnapshotSource(t *testing.T) {
	dir := t.TempDir()
	src := NewSnapshotSource(models.SourceFallbackPage, dir)

	if src.Kind() != models.SourceFallbackPage {
		t.Errorf("kind = %s", src.Kind())
	}

	// No drop file: no news, no error.
	obs, err := src.Observations(context.Background(), magic)
	if err != nil || obs != nil {
		t.Fatalf("missing file = (%v, %v), want (nil, nil)", obs, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "magic.json"), []byte(rowsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	obs, err = src.Observations(context.Background(), magic)
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 2 {
		t.Errorf("decoded %d observations, want 2", len(obs))
	}
	if obs[0].Source != models.SourceFallbackPage {
		t.Errorf("source = %s, want fallback_page", obs[0].Source)
	}
}

func TestPageSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Error("request missing User-Agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rowsJSON))
	}))
	defer srv.Close()

	vessel := magic
	vessel.RowsURL = srv.URL

	src := NewPageSource(
		models.SourcePrimaryPage,
		NewRowsParser(models.SourcePrimaryPage),
		func(v models.Vessel) string { return v.RowsURL },
		DefaultFetchConfig(),
	)

	obs, err := src.Observations(context.Background(), vessel)
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 2 {
		t.Errorf("decoded %d observations, want 2", len(obs))
	}
}

func TestPageSourceSkipsVesselWithoutURL(t *testing.T) {
	src := NewPageSource(
		models.SourcePrimaryPage,
		NewRowsParser(models.SourcePrimaryPage),
		func(v models.Vessel) string { return v.RowsURL },
		DefaultFetchConfig(),
	)

	obs, err := src.Observations(context.Background(), magic)
	if err != nil || obs != nil {
		t.Errorf("vessel without URL = (%v, %v), want (nil, nil)", obs, err)
	}
}

func TestPageSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	vessel := magic
	vessel.RowsURL = srv.URL

	src := NewPageSource(
		models.SourcePrimaryPage,
		NewRowsParser(models.SourcePrimaryPage),
		func(v models.Vessel) string { return v.RowsURL },
		DefaultFetchConfig(),
	)

	if _, err := src.Observations(context.Background(), vessel); err == nil {
		t.Error("non-200 response did not error")
	}
}
