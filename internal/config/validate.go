// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shiplog/shiplog/internal/models"
)

// slugPattern constrains vessel slugs to filesystem- and URL-safe
// names, since slugs become feed file names and storage keys.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// validate is the shared struct validator. Validator instances cache
// struct metadata, so one instance serves the whole package.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints via validator tags and the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if err := c.validateVessels(); err != nil {
		return err
	}
	if err := c.validateFences(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	return c.validateZones()
}

func (c *Config) validateVessels() error {
	seen := make(map[string]struct{}, len(c.Vessels))
	for _, v := range c.Vessels {
		if !slugPattern.MatchString(v.Slug) {
			return fmt.Errorf("vessel slug %q must match %s", v.Slug, slugPattern)
		}
		if v.Slug == models.GlobalFeedSlug {
			return fmt.Errorf("vessel slug %q is reserved for the aggregate feed", models.GlobalFeedSlug)
		}
		if _, dup := seen[v.Slug]; dup {
			return fmt.Errorf("duplicate vessel slug %q", v.Slug)
		}
		seen[v.Slug] = struct{}{}
	}
	return nil
}

func (c *Config) validateFences() error {
	slugs := make(map[string]struct{}, len(c.Vessels))
	for _, v := range c.Vessels {
		slugs[v.Slug] = struct{}{}
	}

	names := make(map[string]struct{}, len(c.Fences))
	for _, f := range c.Fences {
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("duplicate fence name %q", f.Name)
		}
		names[f.Name] = struct{}{}

		for _, slug := range f.Vessels {
			if _, ok := slugs[slug]; !ok {
				return fmt.Errorf("fence %q references unknown vessel slug %q", f.Name, slug)
			}
		}
	}
	return nil
}

func (c *Config) validateReconcile() error {
	seen := make(map[string]struct{}, len(c.Reconcile.SourcePreference))
	for _, s := range c.Reconcile.SourcePreference {
		kind := models.SourceKind(strings.ToLower(s))
		if !kind.Valid() {
			return fmt.Errorf("unknown source kind %q in reconcile.source_preference", s)
		}
		if _, dup := seen[string(kind)]; dup {
			return fmt.Errorf("duplicate source kind %q in reconcile.source_preference", s)
		}
		seen[string(kind)] = struct{}{}
	}

	for key := range c.Reconcile.AllowIndefinite {
		switch strings.ToLower(key) {
		case "arrived", "departed":
		default:
			return fmt.Errorf("unknown event kind %q in reconcile.allow_indefinite (want arrived or departed)", key)
		}
	}

	if src := c.Sources.Snapshots.Source; src != "" {
		if !models.SourceKind(strings.ToLower(src)).Valid() {
			return fmt.Errorf("unknown source kind %q in sources.snapshots.source", src)
		}
	}
	return nil
}

func (c *Config) validateZones() error {
	if c.Zones.Default != "" {
		if _, err := time.LoadLocation(c.Zones.Default); err != nil {
			return fmt.Errorf("zones.default %q is not a loadable zone: %w", c.Zones.Default, err)
		}
	}
	for cc, name := range c.Zones.Countries {
		if len(cc) != 2 {
			return fmt.Errorf("zones.countries key %q must be a two-letter country code", cc)
		}
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("zones.countries[%s] %q is not a loadable zone: %w", cc, name, err)
		}
	}
	for port, name := range c.Zones.Ports {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("zones.ports[%s] %q is not a loadable zone: %w", port, name, err)
		}
	}
	return nil
}
