// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package symstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCacheFilename_StableAndNamed(t *testing.T) {
	name, err := CacheFilename("/tmp/someproject")
	require.NoError(t, err)
	assert.Contains(t, name, "someproject_")
	assert.True(t, len(name) > len("someproject_.db"))

	again, err := CacheFilename("/tmp/someproject")
	require.NoError(t, err)
	assert.Equal(t, name, again)
}

func TestStore_FileCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)

	valid, err := s.IsFileCacheValid("a.py", 100.0)
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, s.SetFileCache("a.py", 100.0, "print(1)"))

	valid, err = s.IsFileCacheValid("a.py", 100.0)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = s.IsFileCacheValid("a.py", 200.0)
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, s.RemoveFileCache("a.py"))
	entry, err := s.GetFileCache("a.py")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_SymbolIndexRoundTrip(t *testing.T) {
	s := openTestStore(t)

	symbols := []Symbol{
		{
			Name: "Widget", NodeType: "class", StartLine: 1, EndLine: 10,
			FilePath: "widget.py", BaseClasses: []string{"Base"},
		},
		{
			Name: "render", NodeType: "method", StartLine: 2, EndLine: 4,
			FilePath: "widget.py", HostClass: "Widget",
			Callees: []string{"paint"}, CallsSuper: true,
		},
		{
			Name: "helper", NodeType: "function", StartLine: 20, EndLine: 22,
			FilePath: "util.py",
			Imports: map[string]string{"os": "os"},
		},
	}
	require.NoError(t, s.AddSymbolsBatch(symbols))

	byName, err := s.FindSymbolsByName("render", "", "")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Widget", byName[0].HostClass)
	assert.True(t, byName[0].CallsSuper)
	assert.Equal(t, []string{"paint"}, byName[0].Callees)

	byFile, err := s.FindSymbolsByFile("widget.py")
	require.NoError(t, err)
	assert.Len(t, byFile, 2)

	funcs, err := s.GetAllSymbols("function")
	require.NoError(t, err)
	assert.Len(t, funcs, 2) // "function" also matches "method"

	classes, err := s.GetAllSymbols("class")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, []string{"Base"}, classes[0].BaseClasses)

	classCount, funcCount, err := s.GetSymbolCount()
	require.NoError(t, err)
	assert.Equal(t, 1, classCount)
	assert.Equal(t, 2, funcCount)

	require.NoError(t, s.RemoveSymbolsByFile("util.py"))
	remaining, err := s.GetAllSymbols("")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestStore_IndexedFlagAndClear(t *testing.T) {
	s := openTestStore(t)

	indexed, err := s.IsIndexed()
	require.NoError(t, err)
	assert.False(t, indexed)

	require.NoError(t, s.SetIndexed(true))
	indexed, err = s.IsIndexed()
	require.NoError(t, err)
	assert.True(t, indexed)

	require.NoError(t, s.AddSymbol(Symbol{Name: "X", NodeType: "function", FilePath: "a.py"}))
	count, err := s.GetIndexedFileCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.ClearSymbols())
	indexed, err = s.IsIndexed()
	require.NoError(t, err)
	assert.False(t, indexed)

	remaining, err := s.GetAllSymbols("")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
