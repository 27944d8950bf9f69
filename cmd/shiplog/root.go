// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package main

import (
	"github.com/spf13/cobra"

	"github.com/shiplog/shiplog/internal/config"
	"github.com/shiplog/shiplog/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "shiplog",
	Short:         "Vessel port-call reconciliation and feed generation",
	Long:          "Shiplog collects vessel arrival and departure observations from multiple sources, reconciles them into canonical events, and publishes them as RSS feeds.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(cfg.LogSettings())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
