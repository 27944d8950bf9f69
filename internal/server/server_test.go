// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shiplog/shiplog/internal/config"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := New(config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		Timeout:        5 * time.Second,
		RequestLimit:   1000,
		AllowedOrigins: []string{"*"},
	}, dir)
	return svc, dir
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	svc, _ := testService(t)
	srv := httptest.NewServer(svc.Routes())
	defer srv.Close()

	resp := get(t, srv, "/healthz")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc, _ := testService(t)
	srv := httptest.NewServer(svc.Routes())
	defer srv.Close()

	resp := get(t, srv, "/metrics")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing standard collectors")
	}
}

func TestFeedEndpoint(t *testing.T) {
	svc, dir := testService(t)
	srv := httptest.NewServer(svc.Routes())
	defer srv.Close()

	// Not rendered yet.
	resp := get(t, srv, "/feeds/magic.xml")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing feed status = %d, want 404", resp.StatusCode)
	}

	doc := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel></channel></rss>`
	if err := os.WriteFile(filepath.Join(dir, "magic.xml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	resp = get(t, srv, "/feeds/magic.xml")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != doc {
		t.Error("served feed does not match file content")
	}
}

func TestFeedEndpointRejectsBadNames(t *testing.T) {
	svc, dir := testService(t)
	srv := httptest.NewServer(svc.Routes())
	defer srv.Close()

	// A file outside the slug shape must not be reachable.
	if err := os.WriteFile(filepath.Join(dir, "Secret_Notes.xml"), []byte("private"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/feeds/Secret_Notes.xml", "/feeds/UPPER.xml", "/feeds/-leading.xml"} {
		resp := get(t, srv, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, resp.StatusCode)
		}
	}
}
