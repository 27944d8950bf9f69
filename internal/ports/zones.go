// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package ports

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/metrics"
)

// ZoneTable is the configured zone lookup data.
type ZoneTable struct {
	// Countries maps an ISO country code (as embedded in port links,
	// UN/LOCODE style) to an IANA zone name.
	Countries map[string]string

	// Ports maps a port-name substring (display form accepted) to an
	// IANA zone name. Checked after the country-code path.
	Ports map[string]string

	// Default is the zone used when nothing matches. Empty means UTC.
	Default string
}

// locodePattern matches a UN/LOCODE-style port code ("USPCV005"): two
// country letters followed by a three-letter location code.
var locodePattern = regexp.MustCompile(`^([A-Z]{2})[A-Z2-9]{3}`)

// ZoneResolver maps a canonical port (plus its source link) to a local
// display zone. Resolution never fails; it degrades to the default
// zone with a warning.
type ZoneResolver struct {
	countries map[string]string
	ports     map[string]string
	portKeys  []string
	def       *time.Location

	mu    sync.Mutex
	cache map[string]*time.Location
}

// NewZoneResolver builds a resolver from the configured table. Port
// keys are normalized so table entries may be written in display form.
// An unloadable default zone degrades to UTC with a warning.
func NewZoneResolver(table ZoneTable) *ZoneResolver {
	def := time.UTC
	if table.Default != "" && table.Default != "UTC" {
		loc, err := time.LoadLocation(table.Default)
		if err != nil {
			logging.Warn().Err(err).Str("zone", table.Default).Msg("Default zone not loadable, using UTC")
		} else {
			def = loc
		}
	}

	portZones := make(map[string]string, len(table.Ports))
	for k, v := range table.Ports {
		portZones[fold(k)] = v
	}

	countries := make(map[string]string, len(table.Countries))
	for k, v := range table.Countries {
		countries[strings.ToUpper(k)] = v
	}

	return &ZoneResolver{
		countries: countries,
		ports:     portZones,
		portKeys:  sortedKeys(portZones),
		def:       def,
		cache:     make(map[string]*time.Location),
	}
}

// ZoneFor resolves the local display zone for a port, in priority
// order: country code embedded in the port link, substring match
// against the curated port table, default zone.
func (r *ZoneResolver) ZoneFor(portCanonical, portLink string) *time.Location {
	if cc := countryFromLink(portLink); cc != "" {
		if name, ok := r.countries[cc]; ok {
			if loc := r.load(name); loc != nil {
				return loc
			}
		}
	}

	for _, key := range r.portKeys {
		if strings.Contains(portCanonical, key) {
			if loc := r.load(r.ports[key]); loc != nil {
				return loc
			}
		}
	}

	return r.def
}

// load resolves an IANA zone name, caching the result. A bad table
// entry logs a warning once per name and resolves to nil so the caller
// falls through to the next priority.
func (r *ZoneResolver) load(name string) *time.Location {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.cache[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logging.Warn().Err(err).Str("zone", name).Msg("Configured zone not loadable")
		metrics.ZoneFallbacks.Inc()
		loc = nil
	}
	r.cache[name] = loc
	return loc
}

// countryFromLink extracts a two-letter country code from a port link
// whose last path segment is a UN/LOCODE-style port code, e.g.
// "/ports/USPCV005" -> "US".
func countryFromLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	m := locodePattern.FindStringSubmatch(last)
	if m == nil {
		return ""
	}
	return m[1]
}
