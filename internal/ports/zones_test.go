// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package ports

import "testing"

func TestZoneForCountryFromLink(t *testing.T) {
	r := NewZoneResolver(ZoneTable{
		Countries: map[string]string{"US": "America/New_York", "BS": "America/Nassau"},
		Default:   "UTC",
	})

	tests := []struct {
		name string
		port string
		link string
		want string
	}{
		{"locode link", "port canaveral", "https://www.vesselfinder.com/ports/USPCV005", "America/New_York"},
		{"lowercase country key accepted", "nassau", "https://www.vesselfinder.com/ports/BSNAS001", "America/Nassau"},
		{"unknown country falls through", "somewhere", "https://example.com/ports/ZZXXX001", "UTC"},
		{"non locode segment falls through", "somewhere", "https://example.com/vessels/ship-1", "UTC"},
		{"empty link falls through", "somewhere", "", "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ZoneFor(tt.port, tt.link).String(); got != tt.want {
				t.Errorf("ZoneFor(%q, %q) = %q, want %q", tt.port, tt.link, got, tt.want)
			}
		})
	}
}

func TestZoneForPortTable(t *testing.T) {
	r := NewZoneResolver(ZoneTable{
		Ports:   map[string]string{"Cozumel": "America/Cancun"},
		Default: "America/New_York",
	})

	// Port keys are normalized, so display-form table entries match
	// canonical port identities, including substring matches.
	if got := r.ZoneFor("cozumel", "").String(); got != "America/Cancun" {
		t.Errorf("port table lookup = %q, want America/Cancun", got)
	}
	if got := r.ZoneFor("puerta maya cozumel", "").String(); got != "America/Cancun" {
		t.Errorf("substring lookup = %q, want America/Cancun", got)
	}
	if got := r.ZoneFor("castaway cay", "").String(); got != "America/New_York" {
		t.Errorf("default zone = %q, want America/New_York", got)
	}
}

func TestZoneForCountryBeatsPortTable(t *testing.T) {
	r := NewZoneResolver(ZoneTable{
		Countries: map[string]string{"MX": "America/Cancun"},
		Ports:     map[string]string{"cozumel": "America/New_York"},
		Default:   "UTC",
	})

	got := r.ZoneFor("cozumel", "https://www.vesselfinder.com/ports/MXCZM001").String()
	if got != "America/Cancun" {
		t.Errorf("priority = %q, want country match America/Cancun", got)
	}
}

func TestZoneResolverDegradesToUTC(t *testing.T) {
	r := NewZoneResolver(ZoneTable{
		Countries: map[string]string{"US": "Not/AZone"},
		Default:   "Also/Broken",
	})

	// Both the matched country zone and the default are unloadable;
	// resolution still succeeds.
	got := r.ZoneFor("port canaveral", "https://example.com/ports/USPCV005")
	if got.String() != "UTC" {
		t.Errorf("degraded zone = %q, want UTC", got.String())
	}
}
