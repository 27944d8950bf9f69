// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package geofence turns continuous position samples into discrete
// Arrived/Departed observations.
//
// Each (vessel, fence) pair is an independent boundary state machine
// with states unknown, outside, and inside. The first sample for a
// pair only seeds the boolean - it never emits, so process start or
// fence-set changes cannot produce spurious events. Every later sample
// that crosses the boundary emits exactly one observation.
package geofence

import (
	"fmt"
	"time"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/models"
)

// coordinateEpsilon is the threshold under which a coordinate pair is
// treated as the unknown-location sentinel (0, 0). 1e-7 degrees is
// about 1.1cm at the equator, well below GPS accuracy, while avoiding
// direct float equality.
const coordinateEpsilon = 1e-7

// observationTimeLayout is the format geofence observations stamp
// their RawTime with; the time resolver accepts it as a definite time.
const observationTimeLayout = "2006-01-02 15:04:05"

// State is the persisted boundary state for one (vessel, fence) pair.
// Absence of a State is the "unknown" state.
type State struct {
	Inside    bool      `json:"inside"`
	SeededAt  time.Time `json:"seeded_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateKey builds the map key for a (vessel, fence) pair.
func StateKey(slug, fence string) string {
	return slug + "|" + fence
}

// Detector evaluates position samples against the fence table. The
// state map is passed in explicitly and mutated in place; the caller
// owns loading it at start and persisting it at end.
type Detector struct {
	fences []models.Fence
	states map[string]State
}

// NewDetector creates a detector over the configured fences, resuming
// from previously persisted states. A nil map starts every pair in the
// unknown state.
func NewDetector(fences []models.Fence, states map[string]State) *Detector {
	if states == nil {
		states = make(map[string]State)
	}
	return &Detector{fences: fences, states: states}
}

// States returns the state map for persistence.
func (d *Detector) States() map[string]State {
	return d.states
}

// Observe evaluates one position sample for a vessel against every
// fence that applies to it and returns the boundary-crossing
// observations, if any. A sample with unknown coordinates is ignored.
func (d *Detector) Observe(vessel models.Vessel, pos models.Position) []models.RawObservation {
	if isUnknownPosition(pos.Lat, pos.Lon) {
		logging.Debug().Str("vessel", vessel.Slug).Msg("Skipping unknown-location sample")
		return nil
	}

	at := pos.ObservedAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	var out []models.RawObservation
	for _, fence := range d.fences {
		if !fence.AppliesTo(vessel.Slug) {
			continue
		}

		distKm := Haversine(pos.Lat, pos.Lon, fence.Lat, fence.Lon)
		inside := distKm <= fence.RadiusKm
		key := StateKey(vessel.Slug, fence.Name)

		st, seeded := d.states[key]
		if !seeded {
			d.states[key] = State{Inside: inside, SeededAt: at, UpdatedAt: at}
			logging.Debug().
				Str("vessel", vessel.Slug).
				Str("fence", fence.Name).
				Bool("inside", inside).
				Msg("Seeded fence state")
			continue
		}

		if st.Inside != inside {
			kind := models.EventDeparted
			if inside {
				kind = models.EventArrived
			}
			out = append(out, models.RawObservation{
				VesselSlug: vessel.Slug,
				Kind:       kind,
				PortName:   fence.Name,
				RawTime:    at.Format(observationTimeLayout),
				Detail:     fmt.Sprintf("%s %s (geofence, %.1f km from center)", fence.Name, kind, distKm),
				Source:     models.SourceGeofence,
			})
		}

		st.Inside = inside
		st.UpdatedAt = at
		d.states[key] = st
	}
	return out
}
