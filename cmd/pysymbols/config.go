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
	"github.com/kraklabs/pysymbols/internal/config"
	"github.com/kraklabs/pysymbols/internal/ui"
)

func runConfigShow(args []string, g GlobalFlags, configPath string) error {
	projectRoot, err := resolveProjectRoot(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return err
	}

	if g.JSON {
		return printJSON(cfg)
	}

	ui.Header("Effective configuration")
	ui.Info(ui.Label("project_root", cfg.ProjectRoot))
	ui.Info(ui.Label("cache_dir", cfg.CacheDirFor()))
	ui.Info(ui.Label("semantic_fallback", boolString(cfg.SemanticFallback)))
	if cfg.OpenAIModel != "" {
		ui.Info(ui.Label("openai_model", cfg.OpenAIModel))
	}
	if cfg.MetricsAddr != "" {
		ui.Info(ui.Label("metrics_addr", cfg.MetricsAddr))
	}
	if cfg.LogDir != "" {
		ui.Info(ui.Label("log_dir", cfg.LogDir))
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
