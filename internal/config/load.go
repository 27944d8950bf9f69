// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shiplog/config.yaml",
	"/etc/shiplog/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SHIPLOG_CONFIG"

// Load builds the configuration from layered sources: defaults, then
// an optional YAML file, then environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing default path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists the config paths parsed as comma-separated
// slices when set from the environment.
var sliceConfigPaths = []string{
	"reconcile.source_preference",
	"server.allowed_origins",
}

// processSliceFields converts comma-separated env values into slices
// for the known slice fields. YAML-sourced values are already slices
// and pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf config
// paths. Unmapped variables are skipped so unrelated environment noise
// never reaches the config.
//
// Examples:
//   - SHIPLOG_LOG_LEVEL -> logging.level
//   - SHIPLOG_STATE_PATH -> state.path
//   - SHIPLOG_HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Logging mappings
		"shiplog_log_level":  "logging.level",
		"shiplog_log_format": "logging.format",
		"shiplog_log_caller": "logging.caller",

		// State mappings
		"shiplog_state_path": "state.path",

		// Feed mappings
		"shiplog_feeds_dir":            "feeds.dir",
		"shiplog_feeds_title":          "feeds.title",
		"shiplog_feeds_link":           "feeds.link",
		"shiplog_feeds_per_vessel_cap": "feeds.per_vessel_cap",
		"shiplog_feeds_global_cap":     "feeds.global_cap",

		// Reconcile mappings
		"shiplog_source_preference": "reconcile.source_preference",

		// Zone mappings
		"shiplog_default_zone": "zones.default",

		// Fetch mappings
		"shiplog_fetch_timeout":               "fetch.timeout",
		"shiplog_fetch_user_agent":            "fetch.user_agent",
		"shiplog_fetch_requests_per_minute":   "fetch.requests_per_minute",
		"shiplog_fetch_breaker_min_requests":  "fetch.breaker_min_requests",
		"shiplog_fetch_breaker_failure_ratio": "fetch.breaker_failure_ratio",
		"shiplog_fetch_breaker_timeout":       "fetch.breaker_timeout",

		// Source mappings
		"shiplog_snapshots_enabled": "sources.snapshots.enabled",
		"shiplog_snapshots_dir":     "sources.snapshots.dir",
		"shiplog_snapshots_source":  "sources.snapshots.source",
		"shiplog_positions_enabled": "sources.positions.enabled",
		"shiplog_positions_dir":     "sources.positions.dir",

		// Run mappings
		"shiplog_run_interval": "run.interval",

		// Server mappings
		"shiplog_http_host":       "server.host",
		"shiplog_http_port":       "server.port",
		"shiplog_http_timeout":    "server.timeout",
		"shiplog_request_limit":   "server.request_limit",
		"shiplog_allowed_origins": "server.allowed_origins",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
