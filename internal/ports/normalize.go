// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package ports canonicalizes port identities and resolves the local
// display zone for a port.
//
// Normalization sits on the critical path of canonical-id computation,
// so it is pure and total: it never fails, and the same physical port
// reported with slightly different text from two sources normalizes to
// the same identity key.
package ports

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultAliases maps known alternate wordings to one canonical
// identity. Keys and values are in normalized (folded) form.
var defaultAliases = map[string]string{
	"pt canaveral":                 "port canaveral",
	"cape canaveral":               "port canaveral",
	"port everglades fl":           "port everglades",
	"castaway cay bahamas":         "castaway cay",
	"lighthouse point":             "lookout cay",
	"lookout cay lighthouse point": "lookout cay",
}

// foldDiacritics strips combining marks so "Cozumél" and "Cozumel"
// compare equal.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer canonicalizes raw port names. The zero value is not
// usable; construct with NewNormalizer.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer from the built-in alias table
// merged with the configured extras (extras win on conflict). Alias
// keys and values are themselves normalized, so config entries may be
// written in display form.
func NewNormalizer(extra map[string]string) *Normalizer {
	aliases := make(map[string]string, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		aliases[fold(k)] = fold(v)
	}
	for k, v := range extra {
		aliases[fold(k)] = fold(v)
	}
	return &Normalizer{aliases: aliases}
}

// Normalize returns the canonical identity key for a raw port name.
// Empty input normalizes to the folded unknown-port sentinel.
func (n *Normalizer) Normalize(raw string) string {
	key := fold(raw)
	if key == "" {
		key = fold("Unknown Port")
	}
	if alias, ok := n.aliases[key]; ok {
		return alias
	}
	return key
}

// fold lower-cases, strips diacritics, and collapses punctuation runs
// to single spaces.
func fold(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// sortedKeys returns map keys in deterministic order, used by the zone
// resolver's substring scan.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
