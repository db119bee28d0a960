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
	"os"
	"path/filepath"
	"strings"
)

// resolveImportPath turns a dotted import path, as recorded in a symbol's
// Imports map, into the source file it names, given the file the import
// appears in. Leading dots count the relative-import level; everything else
// is resolved against projectRoot by trying successively shorter dotted
// prefixes, preferring a plain module file over a package's __init__.py.
//
// A relative import that misses still falls through to the absolute search
// below it using the same dotted string: this mirrors the upstream resolver,
// where a relative lookup that fails is not treated as a hard miss.
func resolveImportPath(projectRoot, importPath, currentFile string) (string, bool) {
	if strings.HasPrefix(importPath, ".") {
		if path, ok := resolveRelativeImport(importPath, currentFile); ok {
			return path, true
		}
	}
	return resolveAbsoluteImport(projectRoot, importPath)
}

func resolveRelativeImport(importPath, currentFile string) (string, bool) {
	currentDir := filepath.Dir(currentFile)

	level := 0
	for _, c := range importPath {
		if c == '.' {
			level++
		} else {
			break
		}
	}

	baseDir := currentDir
	for i := 0; i < level-1; i++ {
		baseDir = filepath.Dir(baseDir)
	}

	remaining := importPath[level:]
	var potentialPath string
	if remaining != "" {
		parts := strings.Split(remaining, ".")
		potentialPath = filepath.Join(append([]string{baseDir}, parts...)...)
	} else {
		potentialPath = baseDir
	}

	if pyFile := potentialPath + ".py"; fileExists(pyFile) {
		return pyFile, true
	}
	if initFile := filepath.Join(potentialPath, "__init__.py"); fileExists(initFile) {
		return initFile, true
	}
	return "", false
}

func resolveAbsoluteImport(projectRoot, importPath string) (string, bool) {
	parts := strings.Split(importPath, ".")

	for i := len(parts); i > 0; i-- {
		potentialPath := filepath.Join(append([]string{projectRoot}, parts[:i]...)...)

		if pyFile := potentialPath + ".py"; fileExists(pyFile) {
			return pyFile, true
		}
		if initFile := filepath.Join(potentialPath, "__init__.py"); fileExists(initFile) {
			return initFile, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
