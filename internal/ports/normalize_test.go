// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package ports

import "testing"

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Port Canaveral", "port canaveral"},
		{"case and padding", "  PORT CANAVERAL  ", "port canaveral"},
		{"punctuation collapses", "Pt. Canaveral", "port canaveral"},
		{"alias", "Cape Canaveral", "port canaveral"},
		{"diacritics fold", "Cozumél", "cozumel"},
		{"inner punctuation", "Nassau / New Providence", "nassau new providence"},
		{"empty is unknown", "", "unknown port"},
		{"whitespace only is unknown", "   ", "unknown port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeConfiguredAliases(t *testing.T) {
	n := NewNormalizer(map[string]string{
		"Disney Island": "Castaway Cay",
		// Config may override a built-in alias.
		"Cape Canaveral": "cape canaveral proper",
	})

	if got := n.Normalize("disney island"); got != "castaway cay" {
		t.Errorf("configured alias: got %q, want %q", got, "castaway cay")
	}
	if got := n.Normalize("Cape Canaveral"); got != "cape canaveral proper" {
		t.Errorf("override alias: got %q, want %q", got, "cape canaveral proper")
	}
}

func TestNormalizeStableAcrossSources(t *testing.T) {
	// The same physical port reported with different texture must map
	// to one identity key, since the key feeds the event id hash.
	n := NewNormalizer(nil)

	variants := []string{"Port Canaveral", "PORT CANAVERAL", "port  canaveral", "Port-Canaveral"}
	want := n.Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := n.Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}
