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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pysymbols/internal/ui"
	"github.com/kraklabs/pysymbols/pkg/pyindex"
	"github.com/kraklabs/pysymbols/pkg/symstore"
)

type symbolSummary struct {
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	HostClass string `json:"host_class,omitempty"`
}

func runListSymbols(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("list-symbols", flag.ExitOnError)
	filePath := fs.String("file", "", "restrict the listing to a single file path")
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
	logger := newLogger(g, cfg)
	indexer := pyindex.New(projectRoot, store, logger)
	ctx := context.Background()

	var symbols []symstore.Symbol
	if *filePath != "" {
		symbols, err = indexer.GetFileSymbols(ctx, *filePath)
	} else {
		symbols, err = indexer.GetAllSymbols(ctx, "")
	}
	if err != nil {
		return err
	}

	var classes, functions []symbolSummary
	for _, s := range symbols {
		summary := symbolSummary{Name: s.Name, FilePath: s.FilePath, StartLine: s.StartLine, HostClass: s.HostClass}
		if s.NodeType == "class" {
			classes = append(classes, summary)
		} else {
			functions = append(functions, summary)
		}
	}

	if g.JSON {
		return printJSON(struct {
			Classes   []symbolSummary `json:"classes"`
			Functions []symbolSummary `json:"functions"`
		}{classes, functions})
	}

	ui.Header("Classes")
	for _, c := range classes {
		ui.Infof("  %s  %s", c.Name, ui.DimText(c.FilePath))
	}
	ui.Header("Functions")
	for _, f := range functions {
		label := f.Name
		if f.HostClass != "" {
			label = f.HostClass + "." + f.Name
		}
		ui.Infof("  %s  %s", label, ui.DimText(f.FilePath))
	}
	return nil
}
