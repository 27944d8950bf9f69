// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package history implements the merge-append store for canonical
// event logs.
//
// Merge is a pure function and the only mutation path for a log, which
// makes every log write idempotent: replaying a batch, in any order
// and any number of passes, converges on the same capped content.
package history

import (
	"sort"

	"github.com/shiplog/shiplog/internal/models"
)

// Merge unions an existing log with new events keyed by id, sorts by
// event time descending, and truncates to cap (0 means uncapped).
//
// A new event with the same id as an existing one overwrites it; this
// lets a later pass replace an entry with a richer description without
// changing its identity. Ties on event time order by id so the result
// is deterministic.
func Merge(existing, incoming []models.CanonicalEvent, cap int) []models.CanonicalEvent {
	byID := make(map[string]models.CanonicalEvent, len(existing)+len(incoming))
	for _, ev := range existing {
		byID[ev.ID] = ev
	}
	for _, ev := range incoming {
		byID[ev.ID] = ev
	}

	merged := make([]models.CanonicalEvent, 0, len(byID))
	for _, ev := range byID {
		merged = append(merged, ev)
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].EventUTC.Equal(merged[j].EventUTC) {
			return merged[i].EventUTC.After(merged[j].EventUTC)
		}
		return merged[i].ID < merged[j].ID
	})

	if cap > 0 && len(merged) > cap {
		merged = merged[:cap]
	}
	return merged
}
