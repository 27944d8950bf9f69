// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package config holds the application configuration and its loading
// pipeline.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in values for everything optional
//  2. Config file: optional YAML file (config.yaml)
//  3. Environment variables: override any setting
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"strings"
	"time"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/models"
	"github.com/shiplog/shiplog/internal/ports"
	"github.com/shiplog/shiplog/internal/reconcile"
	"github.com/shiplog/shiplog/internal/sources"
)

// Config is the full application configuration.
type Config struct {
	Vessels   []VesselConfig  `koanf:"vessels" validate:"min=1,dive"`
	Fences    []FenceConfig   `koanf:"fences" validate:"dive"`
	Ports     PortsConfig     `koanf:"ports"`
	Zones     ZonesConfig     `koanf:"zones"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Feeds     FeedsConfig     `koanf:"feeds"`
	State     StateConfig     `koanf:"state"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Sources   SourcesConfig   `koanf:"sources"`
	Run       RunConfig       `koanf:"run"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// VesselConfig is one tracked ship.
type VesselConfig struct {
	Slug    string `koanf:"slug" validate:"required"`
	Name    string `koanf:"name" validate:"required"`
	PageURL string `koanf:"page_url" validate:"omitempty,url"`

	// RowsURL optionally points at the extraction step's rows endpoint
	// for this vessel. Empty disables the primary page source for it.
	RowsURL string `koanf:"rows_url" validate:"omitempty,url"`
}

// FenceConfig is one circular geofence.
type FenceConfig struct {
	Name     string   `koanf:"name" validate:"required"`
	Lat      float64  `koanf:"lat" validate:"latitude"`
	Lon      float64  `koanf:"lon" validate:"longitude"`
	RadiusKm float64  `koanf:"radius_km" validate:"gt=0"`
	Vessels  []string `koanf:"vessels"`
}

// PortsConfig tunes port-name normalization.
type PortsConfig struct {
	// Aliases maps port-name variants to their canonical form, merged
	// over the built-in alias table.
	Aliases map[string]string `koanf:"aliases"`
}

// ZonesConfig is the local-time zone lookup table for feed display.
type ZonesConfig struct {
	Default   string            `koanf:"default"`
	Countries map[string]string `koanf:"countries"`
	Ports     map[string]string `koanf:"ports"`
}

// ReconcileConfig holds the deployment's reconciliation policy.
type ReconcileConfig struct {
	// SourcePreference is the ordered tie-break list. Earlier wins.
	SourcePreference []string `koanf:"source_preference"`

	// AllowIndefinite decides per event kind (keys "arrived" and
	// "departed") whether undated observations surface as pending
	// placeholders.
	AllowIndefinite map[string]bool `koanf:"allow_indefinite"`
}

// FeedsConfig controls RSS output.
type FeedsConfig struct {
	Dir          string `koanf:"dir" validate:"required"`
	Title        string `koanf:"title" validate:"required"`
	Link         string `koanf:"link" validate:"omitempty,url"`
	PerVesselCap int    `koanf:"per_vessel_cap" validate:"min=1"`
	GlobalCap    int    `koanf:"global_cap" validate:"min=1"`
}

// StateConfig locates the embedded state database.
type StateConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// FetchConfig tunes the HTTP page sources.
type FetchConfig struct {
	Timeout             time.Duration `koanf:"timeout"`
	UserAgent           string        `koanf:"user_agent"`
	RequestsPerMinute   int           `koanf:"requests_per_minute" validate:"min=0"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// SourcesConfig toggles the optional observation sources.
type SourcesConfig struct {
	Snapshots SnapshotsConfig `koanf:"snapshots"`
	Positions PositionsConfig `koanf:"positions"`
}

// SnapshotsConfig enables the file-drop snapshot source.
type SnapshotsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`

	// Source attributes snapshot rows to a source kind for tie-break
	// ranking. Defaults to the fallback page.
	Source string `koanf:"source"`
}

// PositionsConfig enables the geofence source's position file drops.
type PositionsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// RunConfig controls the periodic pipeline in serve mode.
type RunConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// ServerConfig is the HTTP server used by serve mode.
type ServerConfig struct {
	Host           string        `koanf:"host" validate:"required"`
	Port           int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestLimit   int           `koanf:"request_limit" validate:"min=1"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

// LoggingConfig mirrors the logging package settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the
// config file and environment layers.
func defaultConfig() *Config {
	fetch := sources.DefaultFetchConfig()
	return &Config{
		Zones: ZonesConfig{
			Default: "UTC",
		},
		Reconcile: ReconcileConfig{
			SourcePreference: []string{
				string(models.SourcePrimaryPage),
				string(models.SourceFallbackPage),
				string(models.SourceGeofence),
			},
			AllowIndefinite: map[string]bool{
				"arrived":  true,
				"departed": false,
			},
		},
		Feeds: FeedsConfig{
			Dir:          "data/feeds",
			Title:        "Ship Alerts",
			Link:         "https://www.vesselfinder.com",
			PerVesselCap: 250,
			GlobalCap:    500,
		},
		State: StateConfig{
			Path: "data/state",
		},
		Fetch: FetchConfig{
			Timeout:             fetch.Timeout,
			UserAgent:           fetch.UserAgent,
			RequestsPerMinute:   fetch.RequestsPerMinute,
			BreakerMinRequests:  fetch.BreakerMinRequests,
			BreakerFailureRatio: fetch.BreakerFailureRatio,
			BreakerTimeout:      fetch.BreakerTimeout,
		},
		Sources: SourcesConfig{
			Snapshots: SnapshotsConfig{
				Enabled: false,
				Dir:     "data/snapshots",
				Source:  string(models.SourceFallbackPage),
			},
			Positions: PositionsConfig{
				Enabled: false,
				Dir:     "data/positions",
			},
		},
		Run: RunConfig{
			Interval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Timeout:        30 * time.Second,
			RequestLimit:   100,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// VesselList converts the configured vessels to the domain type.
func (c *Config) VesselList() []models.Vessel {
	out := make([]models.Vessel, 0, len(c.Vessels))
	for _, v := range c.Vessels {
		out = append(out, models.Vessel{
			Slug:    v.Slug,
			Name:    v.Name,
			PageURL: v.PageURL,
			RowsURL: v.RowsURL,
		})
	}
	return out
}

// FenceList converts the configured fences to the domain type.
func (c *Config) FenceList() []models.Fence {
	out := make([]models.Fence, 0, len(c.Fences))
	for _, f := range c.Fences {
		out = append(out, models.Fence{
			Name:     f.Name,
			Lat:      f.Lat,
			Lon:      f.Lon,
			RadiusKm: f.RadiusKm,
			Vessels:  f.Vessels,
		})
	}
	return out
}

// ZoneTable converts the zone settings for the resolver.
func (c *Config) ZoneTable() ports.ZoneTable {
	return ports.ZoneTable{
		Countries: c.Zones.Countries,
		Ports:     c.Zones.Ports,
		Default:   c.Zones.Default,
	}
}

// Policy converts the reconcile settings, assuming Validate passed.
func (c *Config) Policy() reconcile.Policy {
	policy := reconcile.DefaultPolicy()
	if len(c.Reconcile.SourcePreference) > 0 {
		prefs := make([]models.SourceKind, 0, len(c.Reconcile.SourcePreference))
		for _, s := range c.Reconcile.SourcePreference {
			prefs = append(prefs, models.SourceKind(strings.ToLower(s)))
		}
		policy.SourcePreference = prefs
	}
	for key, allow := range c.Reconcile.AllowIndefinite {
		switch strings.ToLower(key) {
		case "arrived":
			policy.AllowIndefinite[models.EventArrived] = allow
		case "departed":
			policy.AllowIndefinite[models.EventDeparted] = allow
		}
	}
	return policy
}

// FetchSettings converts the fetch settings for the page sources.
func (c *Config) FetchSettings() sources.FetchConfig {
	return sources.FetchConfig{
		Timeout:             c.Fetch.Timeout,
		UserAgent:           c.Fetch.UserAgent,
		RequestsPerMinute:   c.Fetch.RequestsPerMinute,
		BreakerMinRequests:  c.Fetch.BreakerMinRequests,
		BreakerFailureRatio: c.Fetch.BreakerFailureRatio,
		BreakerTimeout:      c.Fetch.BreakerTimeout,
	}
}

// LogSettings converts the logging settings.
func (c *Config) LogSettings() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Caller: c.Logging.Caller,
	}
}
