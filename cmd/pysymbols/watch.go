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
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/kraklabs/pysymbols/internal/ui"
	"github.com/kraklabs/pysymbols/pkg/pyindex"
)

func runWatch(args []string, g GlobalFlags, configPath string) error {
	projectRoot, err := resolveProjectRoot(configPath)
	if err != nil {
		return err
	}
	cfg, store, err := loadProject(projectRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := newLogger(g, cfg)
	indexer := pyindex.New(projectRoot, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !g.Quiet {
		ui.Header("Watching for changes (Ctrl-C to stop)")
	}

	onEvent := func(path string, err error) {
		if g.Quiet {
			return
		}
		if err != nil {
			ui.Infof("error handling %s: %v", path, err)
			return
		}
		ui.Info(ui.DimText("reindexed " + path))
	}

	if err := indexer.Watch(ctx, onEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
