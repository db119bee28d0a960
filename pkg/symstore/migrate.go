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
	"fmt"
	"strings"
)

// migrate creates the schema if absent and applies additive column migrations
// for databases created by older versions of this package. SQLite has no
// "ADD COLUMN IF NOT EXISTS", so the ALTER TABLE is attempted unconditionally
// and a "duplicate column name" failure is treated as already-applied.
func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS file_cache (
			file_path TEXT PRIMARY KEY,
			mtime REAL NOT NULL,
			content_hash TEXT NOT NULL,
			source_code TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS symbol_index (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			node_type TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			start_col INTEGER NOT NULL,
			end_col INTEGER NOT NULL,
			content TEXT NOT NULL,
			file_path TEXT NOT NULL,
			host_class TEXT,
			callees TEXT,
			imports TEXT,
			base_classes TEXT,
			calls_super INTEGER DEFAULT 0,
			UNIQUE(name, file_path, start_line, node_type)
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_name ON symbol_index(name)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_file ON symbol_index(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_type ON symbol_index(node_type)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("symstore: apply schema: %w", err)
		}
	}

	additive := []string{
		`ALTER TABLE symbol_index ADD COLUMN base_classes TEXT`,
		`ALTER TABLE symbol_index ADD COLUMN calls_super INTEGER DEFAULT 0`,
	}
	for _, stmt := range additive {
		if _, err := s.db.Exec(stmt); err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("symstore: migrate: %w", err)
		}
	}

	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}
