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
	"os"

	"github.com/kraklabs/pysymbols/internal/config"
	"github.com/kraklabs/pysymbols/internal/ui"
)

func runInit(args []string, g GlobalFlags, configPath string) error {
	projectRoot := configPath
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectRoot = cwd
	}

	cfg := config.Default(projectRoot)
	if err := config.Save(&cfg); err != nil {
		return err
	}

	if !g.Quiet {
		ui.Header("Project initialized")
		ui.Infof("%s", ui.Label("root", projectRoot))
		ui.Infof("%s", ui.Label("config", config.ConfigPath(projectRoot)))
	}
	return nil
}
