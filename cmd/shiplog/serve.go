// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/runner"
	"github.com/shiplog/shiplog/internal/server"
	"github.com/shiplog/shiplog/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline periodically and serve feeds over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logging.Warn().Err(cerr).Msg("Closing state store failed")
			}
		}()

		r, err := buildRunner(cfg, store)
		if err != nil {
			return err
		}

		// Supervision events (service failures, restarts, backoff) go
		// through the slog bridge into the zerolog output.
		handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
		sup := suture.New("shiplog", suture.Spec{
			EventHook: handler.MustHook(),
		})
		sup.Add(runner.NewService(r, cfg.Run.Interval))
		sup.Add(server.New(cfg.Server, cfg.Feeds.Dir))

		logging.Info().Dur("interval", cfg.Run.Interval).Msg("Starting supervised services")
		if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
