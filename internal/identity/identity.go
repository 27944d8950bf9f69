// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package identity derives the deterministic identity of "the same
// real event" from its describing fields.
//
// Two raw observations that describe the same real-world event must
// hash to the same id regardless of which source produced them. The
// event time is truncated to the minute before hashing: independent
// sources report the same event with sub-minute jitter, and a vessel
// never arrives at or departs the same port twice within one minute.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shiplog/shiplog/internal/models"
)

// PendingPrefix namespaces placeholder ids so an event announced
// without a resolvable time can never collide with, or suppress, the
// canonical id it gets once a definite time is known.
const PendingPrefix = "pending:"

// Canonical returns the deterministic id for a definite-time event.
func Canonical(slug string, kind models.EventKind, portCanonical string, eventUTC time.Time) string {
	minute := eventUTC.UTC().Truncate(time.Minute).Format(time.RFC3339)
	return digest(slug, strings.ToLower(string(kind)), portCanonical, minute)
}

// Pending returns the placeholder id for an event whose time is not
// yet known. It hashes vessel, kind, and port only, so the same
// pending label seen again (this run or a later one) dedups to one
// announcement until a definite time appears.
func Pending(slug string, kind models.EventKind, portCanonical string) string {
	return PendingPrefix + digest(slug, strings.ToLower(string(kind)), portCanonical)
}

// IsPending reports whether an id belongs to the placeholder
// namespace.
func IsPending(id string) bool {
	return strings.HasPrefix(id, PendingPrefix)
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
