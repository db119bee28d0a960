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
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/pysymbols/internal/config"
	"github.com/kraklabs/pysymbols/internal/errors"
	"github.com/kraklabs/pysymbols/internal/obslog"
	"github.com/kraklabs/pysymbols/pkg/pyindex"
	"github.com/kraklabs/pysymbols/pkg/resolve"
	"github.com/kraklabs/pysymbols/pkg/semantic"
	"github.com/kraklabs/pysymbols/pkg/symstore"
)

// resolveProjectRoot returns an explicit --config path if given, otherwise
// discovers the nearest ancestor directory holding a .pysymbols directory,
// falling back to the current working directory.
func resolveProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", errors.NewInputError("Invalid --config path", err.Error(), "", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError("Cannot determine current directory", err.Error(), "", err)
	}

	found, err := config.Discover(cwd)
	if err != nil {
		return "", err
	}
	if found != "" {
		return found, nil
	}
	return cwd, nil
}

func newLogger(g GlobalFlags, cfg *config.Config) *slog.Logger {
	logger := obslog.New(obslog.Options{
		Verbose: g.Verbose > 0,
		Quiet:   g.Quiet,
		LogDir:  cfg.LogDir,
	})
	slog.SetDefault(logger)
	return logger
}

// loadProject loads the project config and opens its symbol store. Callers
// must Close the returned store when done.
func loadProject(projectRoot string) (*config.Config, *symstore.Store, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, nil, err
	}

	cacheDir := cfg.CacheDirFor()
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, nil, errors.NewPermissionError(
			"Cannot create cache directory", "Failed to create "+cacheDir,
			"Check directory permissions", err,
		)
	}
	filename, err := symstore.CacheFilename(projectRoot)
	if err != nil {
		return nil, nil, errors.NewInternalError("Cannot derive cache filename", err.Error(), "", err)
	}

	store, err := symstore.Open(filepath.Join(cacheDir, filename))
	if err != nil {
		return nil, nil, errors.NewDatabaseError(
			"Cannot open symbol database", err.Error(),
			"Check that the cache directory is writable", err,
		)
	}
	return cfg, store, nil
}

// newResolver wires a Resolver against the project's store, with indexer
// driving the build_index(false) freshness check every query requires
// before reading from that store.
func newResolver(projectRoot string, store *symstore.Store, indexer *pyindex.Indexer, cfg *config.Config, logger *slog.Logger) *resolve.Resolver {
	var analyzer semantic.Analyzer = semantic.NullAnalyzer{}
	if cfg.SemanticFallback && cfg.OpenAIAPIKey != "" {
		analyzer = semantic.NewLLMAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, 10*time.Second)
	}
	return resolve.New(projectRoot, store, indexer, analyzer, logger)
}

// openResolver loads the project, opens its store, and wires a Resolver for
// query-class/query-function backed by an Indexer so every query guarantees
// freshness first. The returned cleanup closes the store.
func openResolver(g GlobalFlags, configPath string) (*resolve.Resolver, func(), error) {
	projectRoot, err := resolveProjectRoot(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, store, err := loadProject(projectRoot)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(g, cfg)
	indexer := pyindex.New(projectRoot, store, logger)
	resolver := newResolver(projectRoot, store, indexer, cfg, logger)
	return resolver, func() { store.Close() }, nil
}
