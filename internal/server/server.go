// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Package server exposes the rendered feeds, health, and metrics over
// HTTP using the Chi router. It runs as a suture-supervised service in
// serve mode.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiplog/shiplog/internal/config"
	"github.com/shiplog/shiplog/internal/logging"
)

// feedNamePattern constrains the feed path parameter to slug-shaped
// names, keeping traversal attempts out of the feeds directory.
var feedNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// shutdownTimeout bounds graceful shutdown when the supervisor stops
// the service.
const shutdownTimeout = 10 * time.Second

// Service is the HTTP server. It implements suture.Service.
type Service struct {
	cfg      config.ServerConfig
	feedsDir string
}

// New creates the HTTP service serving feeds from feedsDir.
func New(cfg config.ServerConfig, feedsDir string) *Service {
	return &Service{cfg: cfg, feedsDir: feedsDir}
}

// Routes builds the router. Exposed for tests.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))
	r.Use(httprate.LimitByIP(s.cfg.RequestLimit, time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/feeds/{feed}.xml", s.handleFeed)
	return r
}

// Serve implements suture.Service: it runs the HTTP server until the
// context is canceled, then shuts down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleFeed serves one rendered RSS document from the feeds
// directory. A feed that has not been rendered yet is a 404.
func (s *Service) handleFeed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "feed")
	if !feedNamePattern.MatchString(name) {
		http.Error(w, "invalid feed name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.feedsDir, name+".xml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "feed not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("feed", name).Msg("Reading feed file failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// requestLogger logs each request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
