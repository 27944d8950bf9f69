// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/metrics"
	"github.com/shiplog/shiplog/internal/models"
)

// maxPageBytes caps how much of a page body is read. Tracking pages
// are well under this; anything larger is not a page we parse.
const maxPageBytes = 4 << 20

// FetchConfig tunes the HTTP page fetcher.
type FetchConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// RequestsPerMinute rate-limits fetches across all vessels sharing
	// this source. Zero disables the limiter.
	RequestsPerMinute int

	// BreakerMinRequests is the minimum sample before the circuit can
	// trip.
	BreakerMinRequests uint32

	// BreakerFailureRatio trips the circuit at or above this failure
	// rate.
	BreakerFailureRatio float64

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultFetchConfig returns the fetch settings used when config
// leaves them unset.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:             40 * time.Second,
		UserAgent:           "Mozilla/5.0 (compatible; Shiplog/1.0)",
		RequestsPerMinute:   30,
		BreakerMinRequests:  10,
		BreakerFailureRatio: 0.6,
		BreakerTimeout:      2 * time.Minute,
	}
}

// URLFunc selects which URL to fetch for a vessel. An empty return
// disables the source for that vessel.
type URLFunc func(vessel models.Vessel) string

// PageSource fetches a vessel page over HTTP and hands the body to an
// injected parser. Fetches share a rate limiter and a circuit breaker
// so a struggling upstream is backed off instead of hammered.
type PageSource struct {
	kind    models.SourceKind
	parser  Parser
	urlFor  URLFunc
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	ua      string
}

// NewPageSource creates a page source of the given kind.
func NewPageSource(kind models.SourceKind, parser Parser, urlFor URLFunc, cfg FetchConfig) *PageSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchConfig().Timeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	name := "page-" + string(kind)
	metrics.BreakerState.WithLabelValues(name).Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("Circuit breaker state transition")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &PageSource{
		kind:    kind,
		parser:  parser,
		urlFor:  urlFor,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		breaker: breaker,
		ua:      cfg.UserAgent,
	}
}

// Kind implements Source.
func (p *PageSource) Kind() models.SourceKind {
	return p.kind
}

// Observations implements Source. A vessel without a URL for this
// source yields nothing.
func (p *PageSource) Observations(ctx context.Context, vessel models.Vessel) ([]models.RawObservation, error) {
	pageURL := p.urlFor(vessel)
	if pageURL == "" {
		return nil, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := p.breaker.Execute(func() ([]byte, error) {
		return p.fetch(ctx, pageURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("fetch %s: circuit open: %w", pageURL, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	return p.parser.Parse(body, vessel)
}

func (p *PageSource) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Closing page body failed")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
