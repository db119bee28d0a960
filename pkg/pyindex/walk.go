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
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// prunedDirs are always skipped during discovery regardless of .gitignore
// contents: they are never useful to index and can be enormous.
var prunedDirs = map[string]bool{
	"__pycache__": true,
	".git":        true,
	".venv":       true,
	"venv":        true,
	"node_modules": true,
	".tox":        true,
	"build":       true,
	"dist":        true,
	".eggs":       true,
}

// discoverPythonFiles walks projectRoot and returns every ".py" file not
// excluded by the hard-floor prune list or by a .gitignore found at the
// project root.
func discoverPythonFiles(projectRoot string) ([]string, error) {
	ignore := loadGitignore(projectRoot)

	var files []string
	err := filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != projectRoot && prunedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" {
			return nil
		}
		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr == nil && ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// walkDirs visits every non-pruned directory under root, including root
// itself, for the watcher to subscribe to.
func walkDirs(root string, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && prunedDirs[d.Name()] {
			return filepath.SkipDir
		}
		visit(path)
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func loadGitignore(projectRoot string) *gitignore.GitIgnore {
	path := filepath.Join(projectRoot, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	ign, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ign
}
