// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package reconcile converts the heterogeneous raw observations
// collected for one vessel in one run into a deduplicated batch of
// canonical events.
//
// The pipeline per observation: resolve the time fragment, normalize
// the port identity, compute the canonical (or pending-namespace) id,
// collapse duplicates across sources by id, and gate against the seen
// registry so an event is never announced twice - even after it has
// aged out of the capped history log.
package reconcile

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shiplog/shiplog/internal/identity"
	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/metrics"
	"github.com/shiplog/shiplog/internal/models"
	"github.com/shiplog/shiplog/internal/ports"
	"github.com/shiplog/shiplog/internal/timeparse"
)

// Registry is the seen-state gate. Only the reconciler adds ids.
type Registry interface {
	// Has reports whether the id was ever accepted before.
	Has(id string) bool

	// Add records an id as accepted.
	Add(id string)
}

// Policy holds the per-deployment reconciliation choices that the
// source behavior left ambiguous.
type Policy struct {
	// SourcePreference is the ordered tie-break list used when several
	// sources report the same canonical id. Earlier wins. Sources not
	// listed rank last.
	SourcePreference []models.SourceKind

	// AllowIndefinite decides, per event kind, whether an observation
	// without a resolvable time is surfaced as a pending placeholder
	// or suppressed entirely.
	AllowIndefinite map[models.EventKind]bool
}

// DefaultPolicy prefers page sources over geofence crossings and
// surfaces pending arrivals while suppressing undated departures.
func DefaultPolicy() Policy {
	return Policy{
		SourcePreference: []models.SourceKind{
			models.SourcePrimaryPage,
			models.SourceFallbackPage,
			models.SourceGeofence,
		},
		AllowIndefinite: map[models.EventKind]bool{
			models.EventArrived:  true,
			models.EventDeparted: false,
		},
	}
}

// Stats summarizes one reconciliation pass for logging and metrics.
type Stats struct {
	Collected         int
	Emitted           int
	BatchDuplicates   int
	AlreadySeen       int
	IndefiniteDropped int
	InvalidDropped    int
}

// Reconciler is the per-run orchestrator for one vessel's
// observations. It is stateless between calls; all cross-run state
// lives in the Registry.
type Reconciler struct {
	policy Policy
	norm   *ports.Normalizer
	rank   map[models.SourceKind]int
}

// New creates a reconciler with the given policy and port normalizer.
func New(policy Policy, norm *ports.Normalizer) *Reconciler {
	rank := make(map[models.SourceKind]int, len(policy.SourcePreference))
	for i, s := range policy.SourcePreference {
		rank[s] = i
	}
	return &Reconciler{policy: policy, norm: norm, rank: rank}
}

// candidate pairs an event with the tie-break data of the observation
// that produced it.
type candidate struct {
	event    models.CanonicalEvent
	rank     int
	definite bool
}

// Reconcile runs the full pipeline for one vessel. Collection order of
// the observations does not affect which events come out, only which
// source wins ties. Accepted ids are registered in the seen registry.
func (r *Reconciler) Reconcile(vessel models.Vessel, obs []models.RawObservation, seen Registry, now time.Time) ([]models.CanonicalEvent, Stats) {
	stats := Stats{Collected: len(obs)}
	best := make(map[string]candidate)

	for _, o := range obs {
		if !o.Kind.Valid() {
			stats.InvalidDropped++
			logging.Warn().Str("vessel", vessel.Slug).Str("kind", string(o.Kind)).Msg("Dropping observation with unknown event kind")
			continue
		}

		resolved := timeparse.ResolveUTC(o.RawTime, now)
		if !resolved.Definite && strings.TrimSpace(o.RawTime) != "" {
			metrics.TimeParseFallbacks.Inc()
			logging.Warn().Str("vessel", vessel.Slug).Str("when_raw", o.RawTime).Msg("Unparseable time fragment, treating as pending")
		}
		if !resolved.Definite && !r.policy.AllowIndefinite[o.Kind] {
			stats.IndefiniteDropped++
			metrics.IndefiniteDropped.Inc()
			continue
		}

		cand := candidate{
			event:    r.buildEvent(vessel, o, resolved),
			rank:     r.sourceRank(o.Source),
			definite: resolved.Definite,
		}

		if incumbent, ok := best[cand.event.ID]; ok {
			stats.BatchDuplicates++
			metrics.DuplicatesSuppressed.WithLabelValues("batch").Inc()
			if !cand.beats(incumbent) {
				continue
			}
		}
		best[cand.event.ID] = cand
	}

	events := make([]models.CanonicalEvent, 0, len(best))
	for id, cand := range best {
		if seen.Has(id) {
			stats.AlreadySeen++
			metrics.DuplicatesSuppressed.WithLabelValues("seen").Inc()
			continue
		}
		seen.Add(id)
		events = append(events, cand.event)
		metrics.EventsEmitted.WithLabelValues(vessel.Slug, string(cand.event.Kind)).Inc()
	}
	stats.Emitted = len(events)

	sort.Slice(events, func(i, j int) bool {
		if !events[i].EventUTC.Equal(events[j].EventUTC) {
			return events[i].EventUTC.Before(events[j].EventUTC)
		}
		return events[i].ID < events[j].ID
	})
	return events, stats
}

// beats reports whether the candidate should replace the incumbent for
// the same id: better (earlier) source rank first, then a definite
// time over an indefinite one.
func (c candidate) beats(incumbent candidate) bool {
	if c.rank != incumbent.rank {
		return c.rank < incumbent.rank
	}
	return c.definite && !incumbent.definite
}

func (r *Reconciler) sourceRank(s models.SourceKind) int {
	if rank, ok := r.rank[s]; ok {
		return rank
	}
	return len(r.policy.SourcePreference)
}

// buildEvent assembles the canonical event for one observation.
func (r *Reconciler) buildEvent(vessel models.Vessel, o models.RawObservation, resolved models.ResolvedTime) models.CanonicalEvent {
	displayPort := strings.TrimSpace(o.PortName)
	if displayPort == "" {
		displayPort = models.UnknownPort
	}
	portCanonical := r.norm.Normalize(o.PortName)

	var id string
	if resolved.Definite {
		id = identity.Canonical(vessel.Slug, o.Kind, portCanonical, resolved.UTC)
	} else {
		id = identity.Pending(vessel.Slug, o.Kind, portCanonical)
	}

	desc := strings.TrimSpace(o.Detail)
	if desc == "" {
		desc = fmt.Sprintf("%s %s", displayPort, o.Kind)
	}
	if !resolved.Definite {
		desc += " (time to be announced)"
	}

	return models.CanonicalEvent{
		ID:          id,
		VesselSlug:  vessel.Slug,
		Kind:        o.Kind,
		Port:        portCanonical,
		EventUTC:    resolved.UTC,
		Title:       fmt.Sprintf("%s — %s — %s", vessel.Name, o.Kind, displayPort),
		Description: desc,
		Link:        resolveLink(vessel.PageURL, o.PortLink),
		Source:      o.Source,
		Pending:     !resolved.Definite,
	}
}

// resolveLink joins a possibly relative port link against the vessel
// page, falling back to the page itself.
func resolveLink(base, ref string) string {
	if ref == "" {
		return base
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return base
	}
	return baseURL.ResolveReference(refURL).String()
}
