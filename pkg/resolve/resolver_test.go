// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pysymbols/pkg/symstore"
)

// fakeIndex is a minimal in-memory SymbolIndex for resolver tests.
type fakeIndex struct {
	byFile map[string][]symstore.Symbol
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{byFile: make(map[string][]symstore.Symbol)}
}

func (f *fakeIndex) add(sym symstore.Symbol) {
	f.byFile[sym.FilePath] = append(f.byFile[sym.FilePath], sym)
}

func (f *fakeIndex) FindSymbolsByName(name, nodeType, fileHint string) ([]symstore.Symbol, error) {
	var out []symstore.Symbol
	for _, symbols := range f.byFile {
		for _, s := range symbols {
			if s.Name != name {
				continue
			}
			switch nodeType {
			case "":
			case "function":
				if s.NodeType != "function" && s.NodeType != "method" {
					continue
				}
			default:
				if s.NodeType != nodeType {
					continue
				}
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeIndex) FindSymbolsByFile(filePath string) ([]symstore.Symbol, error) {
	return f.byFile[filePath], nil
}

func TestResolveImportPath_AbsoluteAndRelative(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "mod"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "mod", "helper.py"), []byte("x = 1"), 0o644))

	path, ok := resolveImportPath(root, "pkg.mod.helper", filepath.Join(root, "app.py"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "pkg", "mod", "helper.py"), path)

	currentFile := filepath.Join(root, "pkg", "caller.py")
	path, ok = resolveImportPath(root, ".mod.helper", currentFile)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "pkg", "mod", "helper.py"), path)
}

func TestResolveDependencies_ImportDirected(t *testing.T) {
	root := t.TempDir()
	helperFile := filepath.Join(root, "helper.py")
	require.NoError(t, os.WriteFile(helperFile, []byte("def helper():\n    pass\n"), 0o644))

	idx := newFakeIndex()
	idx.add(symstore.Symbol{Name: "helper", NodeType: "function", FilePath: helperFile, Content: "def helper():\n    pass"})

	r := New(root, idx, nil, nil, nil)

	callerFile := filepath.Join(root, "caller.py")
	caller := symstore.Symbol{
		Name: "run", NodeType: "function", FilePath: callerFile,
		Content: "def run():\n    helper()",
		Callees: []string{"helper", "print", "super"},
		Imports: map[string]string{"helper": "helper"},
	}

	deps := r.ResolveDependencies(context.Background(), caller)
	require.Len(t, deps, 1)
	assert.Equal(t, "helper", deps[0].Name)
	assert.Equal(t, "helper", deps[0].QualifiedName)
}

func TestResolveDependencies_GlobalFallback(t *testing.T) {
	root := t.TempDir()
	otherFile := filepath.Join(root, "other.py")

	idx := newFakeIndex()
	idx.add(symstore.Symbol{Name: "Widget", NodeType: "class", FilePath: otherFile, Content: "class Widget:\n    pass"})

	r := New(root, idx, nil, nil, nil)

	caller := symstore.Symbol{
		Name: "build", NodeType: "function", FilePath: filepath.Join(root, "caller.py"),
		Content: "def build():\n    return Widget()",
		Callees: []string{"Widget"},
	}

	deps := r.ResolveDependencies(context.Background(), caller)
	require.Len(t, deps, 1)
	assert.Equal(t, "Widget", deps[0].Name)
	assert.True(t, deps[0].IsClass)
}

func TestAnalyzeClass_MethodPromotion(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "app.py")

	idx := newFakeIndex()
	idx.add(symstore.Symbol{
		Name: "Service", NodeType: "class", FilePath: file,
		Content: "class Service:\n    def run(self):\n        helper()",
		Callees: []string{"helper_method"},
	})
	idx.add(symstore.Symbol{
		Name: "Helper", NodeType: "class", FilePath: file,
		Content: "class Helper:\n    def helper_method(self):\n        pass",
	})
	idx.add(symstore.Symbol{
		Name: "helper_method", NodeType: "method", FilePath: file, HostClass: "Helper",
		Content: "def helper_method(self):\n    pass",
	})

	r := New(root, idx, nil, nil, nil)

	analysis, err := r.AnalyzeClass(context.Background(), "Service", "")
	require.NoError(t, err)
	require.NotNil(t, analysis)
	require.Len(t, analysis.Depends, 1)
	assert.Contains(t, analysis.Depends[0], "class Helper")
	assert.Equal(t, []string{file}, analysis.DependsPath)
}

func TestAnalyzeClass_NotFound(t *testing.T) {
	idx := newFakeIndex()
	r := New(t.TempDir(), idx, nil, nil, nil)

	analysis, err := r.AnalyzeClass(context.Background(), "Missing", "")
	require.NoError(t, err)
	assert.Nil(t, analysis)
}
