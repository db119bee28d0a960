// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pysymbols/internal/ui"
)

func runReset(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	full := fs.Bool("full", false, "also drop file cache and metadata, not just symbols")
	compact := fs.Bool("compact", false, "vacuum the database file after clearing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projectRoot, err := resolveProjectRoot(configPath)
	if err != nil {
		return err
	}
	cfg, store, err := loadProject(projectRoot)
	if err != nil {
		return err
	}
	defer store.Close()
	newLogger(g, cfg)

	if *full {
		if err := store.ClearAll(); err != nil {
			return err
		}
	} else {
		if err := store.ClearSymbols(); err != nil {
			return err
		}
	}

	if *compact {
		if err := store.Compact(); err != nil {
			return err
		}
	}

	if !g.Quiet && !g.JSON {
		ui.Info("index cleared")
	}
	if g.JSON {
		return printJSON(struct {
			Cleared bool `json:"cleared"`
		}{true})
	}
	return nil
}
