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

	"github.com/kraklabs/pysymbols/internal/errors"
	"github.com/kraklabs/pysymbols/internal/ui"
)

func runQueryClass(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("query-class", flag.ExitOnError)
	name := fs.String("name", "", "class name to look up (required)")
	fileHint := fs.String("file", "", "prefer files whose path contains this substring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.NewInputError("Invalid query", "--name is required", "Example: pysymbols query-class --name Widget", nil)
	}

	resolver, cleanup, err := openResolver(g, configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := resolver.AnalyzeClass(context.Background(), *name, *fileHint)
	if err != nil {
		return err
	}
	if analysis == nil {
		return notFound(g, "class", *name)
	}
	if g.JSON {
		return printJSON(struct {
			ClassContent string   `json:"class_content"`
			FilePath     string   `json:"file_path"`
			Depends      []string `json:"depends"`
			DependsPath  []string `json:"depends_path"`
		}{analysis.ClassContent, analysis.FilePath, analysis.Depends, analysis.DependsPath})
	}
	printAnalysis(analysis.ClassContent, analysis.FilePath, analysis.Depends, analysis.DependsPath)
	return nil
}

func runQueryFunction(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("query-function", flag.ExitOnError)
	name := fs.String("name", "", "function name to look up (required)")
	fileHint := fs.String("file", "", "restrict the lookup to files whose path contains this substring")
	hostClass := fs.String("host-class", "", "restrict to a method of this class")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.NewInputError("Invalid query", "--name is required", "Example: pysymbols query-function --name parse", nil)
	}

	resolver, cleanup, err := openResolver(g, configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := resolver.AnalyzeFunction(context.Background(), *name, *fileHint, *hostClass)
	if err != nil {
		return err
	}
	if analysis == nil {
		return notFound(g, "function", *name)
	}
	if g.JSON {
		return printJSON(struct {
			FunctionContent string   `json:"function_content"`
			HostClass       string   `json:"host_class,omitempty"`
			FilePath        string   `json:"file_path"`
			Depends         []string `json:"depends"`
			DependsPath     []string `json:"depends_path"`
		}{analysis.FunctionContent, analysis.HostClass, analysis.FilePath, analysis.Depends, analysis.DependsPath})
	}
	printAnalysis(analysis.FunctionContent, analysis.FilePath, analysis.Depends, analysis.DependsPath)
	return nil
}

func notFound(g GlobalFlags, kind, name string) error {
	if g.JSON {
		return printJSON(struct {
			Found bool `json:"found"`
		}{false})
	}
	ui.Infof("%s %q not found", kind, name)
	return nil
}

func printAnalysis(content, filePath string, depends, dependsPath []string) {
	ui.Header(filePath)
	ui.Info(content)
	if len(dependsPath) > 0 {
		ui.SubHeader("depends on")
		for _, p := range dependsPath {
			ui.Info("  " + ui.DimText(p))
		}
	}
}
