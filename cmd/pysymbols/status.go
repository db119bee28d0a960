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
	"github.com/kraklabs/pysymbols/internal/ui"
)

func runStatus(args []string, g GlobalFlags, configPath string) error {
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

	indexed, err := store.IsIndexed()
	if err != nil {
		return err
	}
	fileCount, err := store.GetIndexedFileCount()
	if err != nil {
		return err
	}
	classCount, funcCount, err := store.GetSymbolCount()
	if err != nil {
		return err
	}
	lastRunID, err := store.GetMetadata("last_run_id")
	if err != nil {
		return err
	}

	if g.JSON {
		return printJSON(struct {
			ProjectRoot string `json:"project_root"`
			Indexed     bool   `json:"indexed"`
			Files       int    `json:"files"`
			Classes     int    `json:"classes"`
			Functions   int    `json:"functions"`
			LastRunID   string `json:"last_run_id,omitempty"`
		}{projectRoot, indexed, fileCount, classCount, funcCount, lastRunID})
	}

	ui.Header("Index status")
	ui.Info(ui.Label("project", projectRoot))
	status := "not indexed"
	if indexed {
		status = "indexed"
	}
	ui.Info(ui.Label("status", status))
	ui.Info(ui.Label("files", ui.CountText(fileCount, "file")))
	ui.Info(ui.Label("classes", ui.CountText(classCount, "class")))
	ui.Info(ui.Label("functions", ui.CountText(funcCount, "function")))
	if lastRunID != "" {
		ui.Info(ui.Label("last_run", lastRunID))
	}
	return nil
}
