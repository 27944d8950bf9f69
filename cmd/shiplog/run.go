// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiplog/shiplog/internal/logging"
	"github.com/shiplog/shiplog/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one reconciliation run and exit",
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
		return r.Run(ctx, time.Now().UTC())
	},
}
