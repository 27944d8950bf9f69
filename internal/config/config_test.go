// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shiplog/shiplog/internal/models"
)

const minimalYAML = `
vessels:
  - slug: magic
    name: Disney Magic
    page_url: https://www.vesselfinder.com/vessels/disney-magic
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Feeds.PerVesselCap != 250 || cfg.Feeds.GlobalCap != 500 {
		t.Errorf("feed caps = %d/%d, want 250/500", cfg.Feeds.PerVesselCap, cfg.Feeds.GlobalCap)
	}
	if cfg.State.Path != "data/state" {
		t.Errorf("state path = %q", cfg.State.Path)
	}
	if cfg.Run.Interval != 10*time.Minute {
		t.Errorf("run interval = %v", cfg.Run.Interval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}

	policy := cfg.Policy()
	wantPrefs := []models.SourceKind{models.SourcePrimaryPage, models.SourceFallbackPage, models.SourceGeofence}
	if len(policy.SourcePreference) != len(wantPrefs) {
		t.Fatalf("source preference = %v", policy.SourcePreference)
	}
	for i, kind := range wantPrefs {
		if policy.SourcePreference[i] != kind {
			t.Errorf("source preference[%d] = %s, want %s", i, policy.SourcePreference[i], kind)
		}
	}
	if !policy.AllowIndefinite[models.EventArrived] || policy.AllowIndefinite[models.EventDeparted] {
		t.Errorf("allow indefinite = %v", policy.AllowIndefinite)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
vessels:
  - slug: magic
    name: Disney Magic
  - slug: wonder
    name: Disney Wonder
fences:
  - name: Port Canaveral
    lat: 28.41
    lon: -80.603
    radius_km: 3
    vessels: [magic]
reconcile:
  source_preference: [geofence, primary_page, fallback_page]
  allow_indefinite:
    departed: true
feeds:
  per_vessel_cap: 100
zones:
  default: America/New_York
  countries:
    US: America/New_York
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Vessels) != 2 || len(cfg.Fences) != 1 {
		t.Fatalf("vessels/fences = %d/%d", len(cfg.Vessels), len(cfg.Fences))
	}
	if cfg.Feeds.PerVesselCap != 100 {
		t.Errorf("per vessel cap = %d, want 100", cfg.Feeds.PerVesselCap)
	}
	if cfg.Feeds.GlobalCap != 500 {
		t.Errorf("global cap = %d, want default 500", cfg.Feeds.GlobalCap)
	}

	policy := cfg.Policy()
	if policy.SourcePreference[0] != models.SourceGeofence {
		t.Errorf("source preference[0] = %s, want geofence", policy.SourcePreference[0])
	}
	if !policy.AllowIndefinite[models.EventDeparted] {
		t.Error("allow_indefinite.departed override lost")
	}
	if !policy.AllowIndefinite[models.EventArrived] {
		t.Error("allow_indefinite.arrived default lost")
	}

	fences := cfg.FenceList()
	if fences[0].Name != "Port Canaveral" || !fences[0].AppliesTo("magic") || fences[0].AppliesTo("wonder") {
		t.Errorf("fence conversion = %+v", fences[0])
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHIPLOG_LOG_LEVEL", "debug")
	t.Setenv("SHIPLOG_FEEDS_PER_VESSEL_CAP", "50")
	t.Setenv("SHIPLOG_SOURCE_PREFERENCE", "geofence, primary_page")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Feeds.PerVesselCap != 50 {
		t.Errorf("per vessel cap = %d, want 50", cfg.Feeds.PerVesselCap)
	}
	prefs := cfg.Policy().SourcePreference
	if len(prefs) != 2 || prefs[0] != models.SourceGeofence {
		t.Errorf("source preference = %v", prefs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no vessels",
			yaml:    "feeds:\n  title: Alerts\n",
			wantErr: "validation",
		},
		{
			name: "duplicate slug",
			yaml: `
vessels:
  - {slug: magic, name: A}
  - {slug: magic, name: B}
`,
			wantErr: "duplicate vessel slug",
		},
		{
			name: "reserved slug",
			yaml: `
vessels:
  - {slug: all, name: Aggregate}
`,
			wantErr: "reserved",
		},
		{
			name: "bad slug shape",
			yaml: `
vessels:
  - {slug: "Disney Magic", name: Disney Magic}
`,
			wantErr: "must match",
		},
		{
			name: "fence without radius",
			yaml: minimalYAML + `
fences:
  - {name: Somewhere, lat: 10, lon: 10, radius_km: 0}
`,
			wantErr: "validation",
		},
		{
			name: "fence references unknown vessel",
			yaml: minimalYAML + `
fences:
  - {name: Somewhere, lat: 10, lon: 10, radius_km: 2, vessels: [wonder]}
`,
			wantErr: "unknown vessel",
		},
		{
			name: "unknown source kind",
			yaml: minimalYAML + `
reconcile:
  source_preference: [carrier_pigeon]
`,
			wantErr: "unknown source kind",
		},
		{
			name: "unknown event kind",
			yaml: minimalYAML + `
reconcile:
  allow_indefinite:
    moored: true
`,
			wantErr: "unknown event kind",
		},
		{
			name: "unloadable zone",
			yaml: minimalYAML + `
zones:
  default: Not/AZone
`,
			wantErr: "not a loadable zone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestVesselListConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	vessels := cfg.VesselList()
	if len(vessels) != 1 {
		t.Fatalf("len = %d", len(vessels))
	}
	want := models.Vessel{
		Slug:    "magic",
		Name:    "Disney Magic",
		PageURL: "https://www.vesselfinder.com/vessels/disney-magic",
	}
	if vessels[0] != want {
		t.Errorf("vessel = %+v, want %+v", vessels[0], want)
	}
}
