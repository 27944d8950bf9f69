// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package timeparse resolves the free-text time fragments found in
// port-call rows into absolute UTC instants.
//
// The accepted format set is deliberately closed: tracking pages emit
// a handful of shapes ("Aug 25, 14:30", "Aug 25, 02:30 PM", optional
// seconds, "2006-01-02 15:04[:05]", bare times). Anything else resolves
// to an indefinite time rather than an error - a pending label is a
// normal condition, not a failure.
package timeparse

import (
	"strings"
	"time"

	"github.com/shiplog/shiplog/internal/models"
)

// Row layouts carrying a month and day but no year. The year is
// filled from the reference clock.
var yearlessLayouts = []string{
	"Jan 2, 15:04:05",
	"Jan 2, 15:04",
	"Jan 2, 3:04:05 PM",
	"Jan 2, 3:04 PM",
	"Jan 2 15:04",
	"2 Jan, 15:04",
}

// Full layouts carrying an explicit year.
var datedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Bare time-of-day fragments; the date is taken from the reference
// clock.
var timeOnlyLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
}

// futureSlack is how far past the reference clock a year-filled result
// may land before it is treated as last year's date. Port-call rows
// report the recent past; a late-December row read in January would
// otherwise be dated almost a year into the future.
const futureSlack = 48 * time.Hour

// ResolveUTC parses a raw time fragment against the reference clock
// and returns the resolved instant. A missing or unparseable value
// yields Definite=false with the reference time as an ordering
// placeholder. It never fails.
func ResolveUTC(raw string, ref time.Time) models.ResolvedTime {
	ref = ref.UTC()
	pending := models.ResolvedTime{UTC: ref, Definite: false}

	s := canonicalFragment(raw)
	if s == "" {
		return pending
	}

	for _, layout := range datedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return models.ResolvedTime{UTC: t, Definite: true}
		}
	}

	for _, layout := range yearlessLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		t = time.Date(ref.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		if t.After(ref.Add(futureSlack)) {
			t = t.AddDate(-1, 0, 0)
		}
		return models.ResolvedTime{UTC: t, Definite: true}
	}

	for _, layout := range timeOnlyLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		t = time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		// A bare time later than the reference clock happened yesterday.
		if t.After(ref) {
			t = t.AddDate(0, 0, -1)
		}
		return models.ResolvedTime{UTC: t, Definite: true}
	}

	return pending
}

// canonicalFragment trims the fragment and normalizes the casing of
// AM/PM markers and a trailing UTC label so time.Parse accepts rows
// regardless of page casing.
func canonicalFragment(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, " utc") {
		s = strings.TrimSpace(s[:len(s)-4])
		lower = strings.ToLower(s)
	}

	for _, marker := range []string{" am", " pm"} {
		if strings.HasSuffix(lower, marker) {
			s = s[:len(s)-3] + strings.ToUpper(marker)
			break
		}
	}
	return s
}
