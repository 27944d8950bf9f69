// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

// Command shiplog reconciles vessel port-call events from multiple
// sources into deduplicated RSS feeds.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
