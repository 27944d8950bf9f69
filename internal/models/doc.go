// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package models defines the domain types shared across the
// reconciliation pipeline: vessels, raw observations as reported by
// upstream sources, resolved times, canonical events, geofences, and
// position samples.
//
// RawObservation is ephemeral - it exists only within one
// reconciliation pass. CanonicalEvent is the durable, deduplicated,
// source-independent representation of one real-world vessel event;
// its ID is a deterministic content hash so the same real event
// reported by different sources collapses to one entry.
package models
