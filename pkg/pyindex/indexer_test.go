// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pyindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pysymbols/pkg/symstore"
)

func newTestIndexer(t *testing.T, projectRoot string) *Indexer {
	t.Helper()
	store, err := symstore.Open(filepath.Join(t.TempDir(), "idx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(projectRoot, store, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildIndex_FindsSymbolsAndSkipsPruned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "class Widget:\n    def render(self):\n        pass\n")
	writeFile(t, root, "__pycache__/cached.py", "class Ghost:\n    pass\n")
	writeFile(t, root, ".venv/lib/site.py", "class Vendored:\n    pass\n")

	ix := newTestIndexer(t, root)
	stats, err := ix.BuildIndex(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 2, stats.Symbols) // Widget class + render method

	sym, err := ix.FindSymbol(context.Background(), "Widget", "class", "")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "class", sym.NodeType)

	ghost, err := ix.FindSymbol(context.Background(), "Ghost", "", "")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestBuildIndex_SkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "def f():\n    pass\n")

	ix := newTestIndexer(t, root)
	first, err := ix.BuildIndex(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesIndexed)
	assert.False(t, first.Skipped)

	// Already indexed and not forced: BuildIndex is a no-op, reporting
	// cached counts without rescanning the filesystem.
	second, err := ix.BuildIndex(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, 1, second.FilesIndexed)
	assert.Equal(t, 0, second.FilesSkipped)

	// A forced call rescans and ignores cached freshness entirely, so the
	// unchanged file is re-read and re-indexed rather than skipped.
	third, err := ix.BuildIndex(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, third.Skipped)
	assert.Equal(t, 1, third.FilesIndexed)
	assert.Equal(t, 0, third.FilesSkipped)
}

func TestInvalidate_RemovesDeletedFile(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "app.py", "class Gone:\n    pass\n")

	ix := newTestIndexer(t, root)
	_, err := ix.BuildIndex(context.Background(), false)
	require.NoError(t, err)

	sym, err := ix.FindSymbol(context.Background(), "Gone", "", "")
	require.NoError(t, err)
	require.NotNil(t, sym)

	require.NoError(t, os.Remove(path))
	require.NoError(t, ix.Invalidate(path))

	sym, err = ix.FindSymbol(context.Background(), "Gone", "", "")
	require.NoError(t, err)
	assert.Nil(t, sym)
}
