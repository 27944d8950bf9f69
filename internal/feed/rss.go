// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package feed renders merged history logs as RSS 2.0 documents and
// writes them atomically so readers never observe a torn file.
package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shiplog/shiplog/internal/metrics"
	"github.com/shiplog/shiplog/internal/models"
	"github.com/shiplog/shiplog/internal/ports"
)

// rssTimeLayout is the RFC 2822 style date used by RSS readers.
const rssTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// localTimeLayout is appended to item descriptions with the port-local
// rendering of the event time.
const localTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate"`
	Generator     string `xml:"generator"`
	Items         []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        guid   `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// guid carries the canonical event id. It is an opaque identity, not a
// URL, hence isPermaLink="false".
type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Renderer turns history logs into RSS documents.
type Renderer struct {
	zones *ports.ZoneResolver
}

// NewRenderer creates a renderer using the given zone resolver for
// port-local time display.
func NewRenderer(zones *ports.ZoneResolver) *Renderer {
	return &Renderer{zones: zones}
}

// Render produces the RSS document for one feed. Events are expected
// newest-first, as the history merge emits them. The feed slug labels
// the item-count metric.
func (r *Renderer) Render(slug, title, link string, events []models.CanonicalEvent, now time.Time) ([]byte, error) {
	items := make([]item, 0, len(events))
	for _, ev := range events {
		items = append(items, item{
			Title:       ev.Title,
			Link:        ev.Link,
			GUID:        guid{IsPermaLink: "false", Value: ev.ID},
			PubDate:     ev.EventUTC.UTC().Format(rssTimeLayout),
			Description: r.describe(ev),
		})
	}

	doc := rss{
		Version: "2.0",
		Channel: channel{
			Title:         title,
			Link:          link,
			Description:   fmt.Sprintf("Port call events for %s", title),
			LastBuildDate: now.UTC().Format(rssTimeLayout),
			Generator:     "shiplog",
			Items:         items,
		},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed %q: %w", slug, err)
	}
	metrics.FeedItems.WithLabelValues(slug).Set(float64(len(items)))
	return append([]byte(xml.Header), data...), nil
}

// describe augments the event description with the port-local time.
// Pending events carry a placeholder instant, so no local rendering is
// shown for them; their description already says the time is to be
// announced.
func (r *Renderer) describe(ev models.CanonicalEvent) string {
	if ev.Pending {
		return ev.Description
	}
	loc := r.zones.ZoneFor(ev.Port, ev.Link)
	return fmt.Sprintf("%s. Local time: %s", ev.Description, ev.EventUTC.In(loc).Format(localTimeLayout))
}

// WriteAtomic writes a rendered feed via a temp file plus rename, so a
// reader polling the path sees either the old document or the new one.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.xml")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp feed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename feed into place: %w", err)
	}
	return nil
}
