// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pyindex builds and maintains the symbol index for a Python
// project: discovering source files, parsing the ones that changed, and
// keeping the on-disk store in sync with the working tree.
package pyindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kraklabs/pysymbols/pkg/pyparse"
	"github.com/kraklabs/pysymbols/pkg/symstore"
)

// batchFlushSize bounds how many symbol rows accumulate in memory before a
// batch insert is issued, so a single huge file doesn't balloon memory use.
const batchFlushSize = 100

// Stats summarizes one BuildIndex run.
type Stats struct {
	RunID string
	// Skipped is true when the whole build was a no-op because the project
	// was already indexed and force was false; the counts below then
	// reflect the store's existing contents rather than a fresh scan.
	Skipped      bool
	FilesScanned int
	FilesIndexed int
	FilesSkipped int
	FilesFailed  int
	Symbols      int
}

// Indexer owns one project's parse-and-store pipeline.
type Indexer struct {
	projectRoot string
	store       *symstore.Store
	parser      *pyparse.Parser
	logger      *slog.Logger
	group       singleflight.Group
}

// New builds an Indexer over an already-open Store.
func New(projectRoot string, store *symstore.Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		projectRoot: projectRoot,
		store:       store,
		parser:      pyparse.NewParser(logger),
		logger:      logger,
	}
}

// BuildIndex (re)indexes the project. If the project is already indexed and
// force is false, this is a no-op that returns the store's existing counts
// without touching the filesystem, matching the original's
// "if self._indexed and not force: return" short-circuit. Concurrent calls
// for the same project root that do perform a scan are coalesced onto a
// single run via singleflight; every caller receives that run's result.
func (ix *Indexer) BuildIndex(ctx context.Context, force bool) (Stats, error) {
	if !force {
		indexed, err := ix.store.IsIndexed()
		if err != nil {
			return Stats{}, err
		}
		if indexed {
			return ix.cachedStats()
		}
	}

	key := ix.projectRoot
	v, err, _ := ix.group.Do(key, func() (any, error) {
		return ix.buildIndexOnce(ctx, force)
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// cachedStats reports the store's current contents without scanning the
// filesystem, for the BuildIndex no-op path.
func (ix *Indexer) cachedStats() (Stats, error) {
	fileCount, err := ix.store.GetIndexedFileCount()
	if err != nil {
		return Stats{}, fmt.Errorf("pyindex: cached file count: %w", err)
	}
	classCount, funcCount, err := ix.store.GetSymbolCount()
	if err != nil {
		return Stats{}, fmt.Errorf("pyindex: cached symbol count: %w", err)
	}
	runID, err := ix.store.GetMetadata("last_run_id")
	if err != nil {
		return Stats{}, fmt.Errorf("pyindex: cached run id: %w", err)
	}
	return Stats{
		RunID:        runID,
		Skipped:      true,
		FilesIndexed: fileCount,
		Symbols:      classCount + funcCount,
	}, nil
}

func (ix *Indexer) buildIndexOnce(ctx context.Context, force bool) (Stats, error) {
	runID := uuid.New().String()
	logger := ix.logger.With("run_id", runID)

	files, err := discoverPythonFiles(ix.projectRoot)
	if err != nil {
		return Stats{}, fmt.Errorf("pyindex: discover files: %w", err)
	}

	stats := Stats{RunID: runID, FilesScanned: len(files)}
	var batch []symstore.Symbol

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ix.store.AddSymbolsBatch(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for _, file := range files {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		info, statErr := os.Stat(file)
		if statErr != nil {
			stats.FilesFailed++
			logger.Warn("stat failed", "file", file, "error", statErr)
			continue
		}
		mtime := float64(info.ModTime().UnixNano()) / 1e9

		if !force {
			fresh, freshErr := ix.store.IsFileCacheValid(file, mtime)
			if freshErr == nil && fresh {
				stats.FilesSkipped++
				continue
			}
		}

		source, readErr := os.ReadFile(file)
		if readErr != nil {
			stats.FilesFailed++
			logger.Warn("read failed", "file", file, "error", readErr)
			continue
		}

		result, parseErr := pyparse.ExtractFile(ix.parser, source, file)
		if parseErr != nil {
			stats.FilesFailed++
			logger.Warn("parse failed", "file", file, "error", parseErr)
			continue
		}
		if result.ErrorCount > 0 {
			logger.Debug("file parsed with syntax errors", "file", file, "error_nodes", result.ErrorCount)
		}

		if err := ix.store.RemoveSymbolsByFile(file); err != nil {
			return stats, fmt.Errorf("pyindex: clear stale symbols for %s: %w", file, err)
		}

		for _, sym := range append(result.Classes, result.Functions...) {
			batch = append(batch, toStoreSymbol(sym))
			stats.Symbols++
			if len(batch) >= batchFlushSize {
				if err := flush(); err != nil {
					return stats, fmt.Errorf("pyindex: flush batch: %w", err)
				}
			}
		}

		if err := ix.store.SetFileCache(file, mtime, string(source)); err != nil {
			return stats, fmt.Errorf("pyindex: update file cache for %s: %w", file, err)
		}
		stats.FilesIndexed++
	}

	if err := flush(); err != nil {
		return stats, fmt.Errorf("pyindex: final flush: %w", err)
	}

	if err := ix.store.SetIndexed(true); err != nil {
		return stats, fmt.Errorf("pyindex: mark indexed: %w", err)
	}

	logger.Info("index build complete",
		"scanned", stats.FilesScanned, "indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped, "failed", stats.FilesFailed, "symbols", stats.Symbols)

	if err := ix.store.SetMetadata("last_run_id", runID); err != nil {
		return stats, fmt.Errorf("pyindex: record run id: %w", err)
	}

	return stats, nil
}

// Invalidate re-indexes a single file, or removes it from the index if it no
// longer exists. Used by the watch subcommand to react to filesystem events
// without a full rebuild.
func (ix *Indexer) Invalidate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("pyindex: resolve path: %w", err)
	}

	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		if err := ix.store.RemoveSymbolsByFile(abs); err != nil {
			return err
		}
		return ix.store.RemoveFileCache(abs)
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("pyindex: read %s: %w", abs, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("pyindex: stat %s: %w", abs, err)
	}
	mtime := float64(info.ModTime().UnixNano()) / 1e9

	result, err := pyparse.ExtractFile(ix.parser, source, abs)
	if err != nil {
		return fmt.Errorf("pyindex: parse %s: %w", abs, err)
	}

	if err := ix.store.RemoveSymbolsByFile(abs); err != nil {
		return err
	}
	var batch []symstore.Symbol
	for _, sym := range append(result.Classes, result.Functions...) {
		batch = append(batch, toStoreSymbol(sym))
	}
	if err := ix.store.AddSymbolsBatch(batch); err != nil {
		return err
	}
	return ix.store.SetFileCache(abs, mtime, string(source))
}

// GetFileSymbols returns every symbol indexed for a single file, first
// calling BuildIndex(ctx, false). If the file exists and its mtime no longer
// matches the file cache, the file is re-parsed and re-ingested before its
// rows are read.
func (ix *Indexer) GetFileSymbols(ctx context.Context, filePath string) ([]symstore.Symbol, error) {
	if _, err := ix.BuildIndex(ctx, false); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("pyindex: resolve path: %w", err)
	}
	if info, statErr := os.Stat(abs); statErr == nil {
		mtime := float64(info.ModTime().UnixNano()) / 1e9
		fresh, err := ix.store.IsFileCacheValid(abs, mtime)
		if err != nil {
			return nil, err
		}
		if !fresh {
			if err := ix.Invalidate(abs); err != nil {
				return nil, err
			}
		}
	}
	return ix.store.FindSymbolsByFile(abs)
}

// GetAllSymbols returns every indexed symbol, optionally narrowed by kind
// ("class", "function", or "method"), first calling BuildIndex(ctx, false),
// which indexes the project if it has not been indexed yet; once it is,
// files changed since are not rescanned here.
func (ix *Indexer) GetAllSymbols(ctx context.Context, kind string) ([]symstore.Symbol, error) {
	if _, err := ix.BuildIndex(ctx, false); err != nil {
		return nil, err
	}
	return ix.store.GetAllSymbols(kind)
}

// FindSymbol returns the first indexed symbol with the given name, optionally
// narrowed by kind ("class", "function", or "method") and by a file-path
// substring hint, first calling BuildIndex(ctx, false), which indexes the
// project if it has not been indexed yet; once it is, files changed since are
// not rescanned here.
func (ix *Indexer) FindSymbol(ctx context.Context, name, kind, fileHint string) (*symstore.Symbol, error) {
	if _, err := ix.BuildIndex(ctx, false); err != nil {
		return nil, err
	}
	matches, err := ix.store.FindSymbolsByName(name, kind, fileHint)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &matches[0], nil
}

// FindAllSymbols returns every indexed symbol with the given name, first
// calling BuildIndex(ctx, false), which indexes the project if it has not
// been indexed yet; once it is, files changed since are not rescanned here.
func (ix *Indexer) FindAllSymbols(ctx context.Context, name string) ([]symstore.Symbol, error) {
	if _, err := ix.BuildIndex(ctx, false); err != nil {
		return nil, err
	}
	return ix.store.FindSymbolsByName(name, "", "")
}

func toStoreSymbol(ps pyparse.ParsedSymbol) symstore.Symbol {
	return symstore.Symbol{
		Name:        ps.Name,
		NodeType:    string(ps.Kind),
		StartLine:   ps.Span.StartLine,
		EndLine:     ps.Span.EndLine,
		StartCol:    ps.Span.StartCol,
		EndCol:      ps.Span.EndCol,
		Content:     ps.Content,
		FilePath:    ps.FilePath,
		HostClass:   ps.HostClass,
		Callees:     ps.Callees,
		Imports:     ps.Imports,
		BaseClasses: ps.BaseClasses,
		CallsSuper:  ps.CallsSuper,
	}
}
