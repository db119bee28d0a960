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
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch indexes the project once, then keeps it in sync by reacting to
// filesystem events until ctx is canceled. Only ".py" files trigger
// Invalidate. A newly created directory is added to the watch list; its own
// subdirectories are not walked, and directory removal needs no handling of
// its own.
func (ix *Indexer) Watch(ctx context.Context, onEvent func(path string, err error)) error {
	if _, err := ix.BuildIndex(ctx, false); err != nil {
		return fmt.Errorf("pyindex: initial build: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("pyindex: create watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchableDirs(ix.projectRoot)
	if err != nil {
		return fmt.Errorf("pyindex: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			ix.logger.Warn("watch add failed", "dir", dir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ix.handleWatchEvent(watcher, event, onEvent)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onEvent != nil {
				onEvent("", err)
			}
		}
	}
}

func (ix *Indexer) handleWatchEvent(watcher *fsnotify.Watcher, event fsnotify.Event, onEvent func(path string, err error)) {
	if event.Op&fsnotify.Create != 0 {
		if isDir(event.Name) {
			_ = watcher.Add(event.Name)
			return
		}
	}
	if filepath.Ext(event.Name) != ".py" {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	err := ix.Invalidate(event.Name)
	if onEvent != nil {
		onEvent(event.Name, err)
	}
}

func watchableDirs(root string) ([]string, error) {
	var dirs []string
	err := walkDirs(root, func(path string) {
		dirs = append(dirs, path)
	})
	return dirs, err
}
