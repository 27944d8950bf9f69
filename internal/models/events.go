// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package models

import "time"

// EventKind identifies what happened at a port.
type EventKind string

const (
	// EventArrived marks a vessel arriving at a port or entering a fence.
	EventArrived EventKind = "Arrived"

	// EventDeparted marks a vessel leaving a port or exiting a fence.
	EventDeparted EventKind = "Departed"
)

// Valid reports whether the kind is one of the known event kinds.
func (k EventKind) Valid() bool {
	return k == EventArrived || k == EventDeparted
}

// SourceKind identifies which upstream path reported an observation.
type SourceKind string

const (
	// SourcePrimaryPage is the primary tracking-page source.
	SourcePrimaryPage SourceKind = "primary_page"

	// SourceFallbackPage is the fallback tracking-page source.
	SourceFallbackPage SourceKind = "fallback_page"

	// SourceGeofence is the GPS-derived geofence transition detector.
	SourceGeofence SourceKind = "geofence"
)

// Valid reports whether the kind is one of the known source kinds.
func (s SourceKind) Valid() bool {
	return s == SourcePrimaryPage || s == SourceFallbackPage || s == SourceGeofence
}

// GlobalFeedSlug is the reserved slug under which the aggregate
// all-vessels history log and feed are stored. Config validation
// rejects a vessel configured with this slug.
const GlobalFeedSlug = "all"

// UnknownPort is the sentinel display name substituted when a raw
// observation carries no port name, so the event is not silently lost
// for cosmetic reasons.
const UnknownPort = "Unknown Port"

// Vessel is one externally configured ship. Immutable for a run.
type Vessel struct {
	// Slug is the stable, human-assigned identity key.
	Slug string `json:"slug"`

	// Name is the display name used in feed titles.
	Name string `json:"name"`

	// PageURL is the public tracking page, used as the feed link base.
	PageURL string `json:"page_url"`

	// RowsURL optionally points at a pre-extracted observation-rows
	// endpoint (the hand-off format of the external extraction step).
	RowsURL string `json:"rows_url,omitempty"`
}

// RawObservation is one partial, possibly-duplicate signal about a
// vessel event, produced by a page source or the geofence detector.
type RawObservation struct {
	VesselSlug string     `json:"vessel_slug"`
	Kind       EventKind  `json:"kind"`
	PortName   string     `json:"port"`
	PortLink   string     `json:"port_link,omitempty"`
	RawTime    string     `json:"when_raw,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	Source     SourceKind `json:"source"`
}

// ResolvedTime is the outcome of parsing a free-text time fragment.
// Definite=false denotes "pending": the label was seen but no time
// could be resolved. UTC then holds only a best-effort placeholder
// for ordering and must not be presented as the event time.
type ResolvedTime struct {
	UTC      time.Time
	Definite bool
}

// CanonicalEvent is the deduplicated, append-only representation of
// one real-world vessel event.
type CanonicalEvent struct {
	// ID is the deterministic content hash identity; see the identity
	// package. Pending placeholders live in a distinct id namespace.
	ID string `json:"id"`

	VesselSlug string    `json:"vessel_slug"`
	Kind       EventKind `json:"kind"`

	// Port is the canonical (normalized) port identity used for
	// comparison and zone lookup. Display text lives in Title.
	Port string `json:"port"`

	// EventUTC is the event instant. For pending events it is the run
	// time, a placeholder for ordering only.
	EventUTC time.Time `json:"event_utc"`

	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Source      SourceKind `json:"source"`

	// Pending marks an event announced before its time was known.
	Pending bool `json:"pending,omitempty"`
}

// Position is one GPS-derived coordinate sample for a vessel.
type Position struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ObservedAt time.Time `json:"observed_at"`
}

// Fence is a fixed circular geographic region used to detect arrival
// and departure by proximity rather than by page data.
type Fence struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`

	// Vessels restricts the fence to the listed slugs. Empty means the
	// fence applies to every vessel.
	Vessels []string `json:"vessels,omitempty"`
}

// AppliesTo reports whether the fence is tracked for the given vessel.
func (f Fence) AppliesTo(slug string) bool {
	if len(f.Vessels) == 0 {
		return true
	}
	for _, s := range f.Vessels {
		if s == slug {
			return true
		}
	}
	return false
}
