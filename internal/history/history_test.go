// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package history

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shiplog/shiplog/internal/models"
)

func event(id string, at time.Time) models.CanonicalEvent {
	return models.CanonicalEvent{
		ID:         id,
		VesselSlug: "magic",
		Kind:       models.EventArrived,
		Port:       "port canaveral",
		EventUTC:   at,
		Title:      "Disney Magic — Arrived — Port Canaveral",
	}
}

func eventSeries(n int, start time.Time) []models.CanonicalEvent {
	out := make([]models.CanonicalEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, event(fmt.Sprintf("ev-%04d", i), start.Add(time.Duration(i)*time.Hour)))
	}
	return out
}

func TestMergeNewestFirst(t *testing.T) {
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	merged := Merge(nil, eventSeries(5, start), 0)

	if len(merged) != 5 {
		t.Fatalf("len = %d, want 5", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].EventUTC.After(merged[i-1].EventUTC) {
			t.Fatalf("events not newest-first at index %d", i)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	batch := eventSeries(10, start)

	once := Merge(nil, batch, 250)
	twice := Merge(once, batch, 250)
	thrice := Merge(twice, batch, 250)

	if !reflect.DeepEqual(once, twice) || !reflect.DeepEqual(twice, thrice) {
		t.Error("replaying the same batch changed the log")
	}
}

func TestMergeOrderInvariant(t *testing.T) {
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	batch := eventSeries(8, start)

	reversed := make([]models.CanonicalEvent, len(batch))
	for i, ev := range batch {
		reversed[len(batch)-1-i] = ev
	}

	a := Merge(nil, batch, 250)
	b := Merge(nil, reversed, 250)
	if !reflect.DeepEqual(a, b) {
		t.Error("incoming order changed the merged log")
	}
}

func TestMergeCapEvictsOldest(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	merged := Merge(nil, eventSeries(300, start), 250)

	if len(merged) != 250 {
		t.Fatalf("len = %d, want 250", len(merged))
	}
	// The newest event survives, the oldest 50 are evicted.
	if merged[0].ID != "ev-0299" {
		t.Errorf("newest id = %s, want ev-0299", merged[0].ID)
	}
	if merged[len(merged)-1].ID != "ev-0050" {
		t.Errorf("oldest surviving id = %s, want ev-0050", merged[len(merged)-1].ID)
	}
}

func TestMergeZeroCapUncapped(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	merged := Merge(nil, eventSeries(300, start), 0)
	if len(merged) != 300 {
		t.Errorf("len = %d, want 300 (uncapped)", len(merged))
	}
}

func TestMergeIncomingOverwritesByID(t *testing.T) {
	at := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	old := event("ev-1", at)
	old.Description = "sparse"

	richer := event("ev-1", at)
	richer.Description = "Port Canaveral Arrived at berth 8"

	merged := Merge([]models.CanonicalEvent{old}, []models.CanonicalEvent{richer}, 0)
	if len(merged) != 1 {
		t.Fatalf("len = %d, want 1", len(merged))
	}
	if merged[0].Description != richer.Description {
		t.Errorf("description = %q, want incoming to win", merged[0].Description)
	}
}

func TestMergeTieBreaksByID(t *testing.T) {
	at := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	a := event("aaa", at)
	b := event("bbb", at)

	x := Merge(nil, []models.CanonicalEvent{b, a}, 0)
	y := Merge(nil, []models.CanonicalEvent{a, b}, 0)
	if !reflect.DeepEqual(x, y) {
		t.Fatal("equal-time ordering not deterministic")
	}
	if x[0].ID != "aaa" {
		t.Errorf("tie order = %s first, want aaa", x[0].ID)
	}
}
