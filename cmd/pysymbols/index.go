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
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pysymbols/internal/errors"
	"github.com/kraklabs/pysymbols/internal/ui"
	"github.com/kraklabs/pysymbols/pkg/pyindex"
)

var (
	indexDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "pysymbols_index_duration_seconds",
		Help: "Wall-clock time spent building the symbol index.",
	})
	indexedSymbolsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pysymbols_indexed_symbols_total",
		Help: "Number of symbols in the index as of the last build.",
	})
)

func init() {
	prometheus.MustRegister(indexDurationSeconds, indexedSymbolsTotal)
}

func runIndex(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	force := fs.Bool("force", false, "reindex all files, ignoring cached freshness")
	metricsAddr := fs.String("metrics-addr", "", "expose Prometheus metrics on this address while indexing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return buildIndex(g, configPath, *force, *metricsAddr)
}

// runRebuildIndex is the CLI-level equivalent of RebuildIndex: an
// unconditional full rescan regardless of cached freshness.
func runRebuildIndex(args []string, g GlobalFlags, configPath string) error {
	fs := flag.NewFlagSet("rebuild-index", flag.ExitOnError)
	metricsAddr := fs.String("metrics-addr", "", "expose Prometheus metrics on this address while indexing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return buildIndex(g, configPath, true, *metricsAddr)
}

func buildIndex(g GlobalFlags, configPath string, force bool, metricsAddr string) error {
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

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			_ = server.ListenAndServe()
		}()
		defer server.Close()
	}

	var bar progressReporter
	if !g.Quiet {
		bar = newProgressBar()
	}

	start := time.Now()
	stats, err := indexer.BuildIndex(ctx, force)
	indexDurationSeconds.Observe(time.Since(start).Seconds())
	indexedSymbolsTotal.Set(float64(stats.Symbols))
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return errors.NewInternalError("Index build failed", err.Error(), "", err)
	}

	if g.JSON {
		return printJSON(struct {
			RunID        string `json:"run_id"`
			FilesScanned int    `json:"files_scanned"`
			FilesIndexed int    `json:"files_indexed"`
			FilesSkipped int    `json:"files_skipped"`
			FilesFailed  int    `json:"files_failed"`
			Symbols      int    `json:"symbols"`
		}{stats.RunID, stats.FilesScanned, stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.Symbols})
	}

	if !g.Quiet {
		ui.Header("Index build complete")
		ui.Info(ui.Label("run", stats.RunID))
		ui.Info(ui.Label("scanned", ui.CountText(stats.FilesScanned, "file")))
		ui.Info(ui.Label("indexed", ui.CountText(stats.FilesIndexed, "file")))
		ui.Info(ui.Label("skipped", ui.CountText(stats.FilesSkipped, "file")))
		if stats.FilesFailed > 0 {
			ui.Info(ui.Label("failed", ui.CountText(stats.FilesFailed, "file")))
		}
		ui.Info(ui.Label("symbols", ui.CountText(stats.Symbols, "symbol")))
	}
	return nil
}
