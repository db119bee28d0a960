// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package symstore persists parsed symbols and per-file cache state in an
// embedded SQLite database, one database file per indexed project.
package symstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Symbol is the persisted form of a pyparse.ParsedSymbol: the store package
// doesn't depend on pyparse so callers convert at the boundary.
type Symbol struct {
	Name        string
	NodeType    string // "class", "function", or "method"
	StartLine   int
	EndLine     int
	StartCol    int
	EndCol      int
	Content     string
	FilePath    string
	HostClass   string
	Callees     []string
	Imports     map[string]string
	BaseClasses []string
	CallsSuper  bool
}

// FileCacheEntry records the last indexed state of a source file.
type FileCacheEntry struct {
	MTime       float64
	ContentHash string
	SourceCode  string
}

// Store wraps a single project's SQLite-backed symbol index.
type Store struct {
	db *sql.DB
}

// CacheFilename derives the on-disk database filename for a project root:
// "{project-dir-name}_{sha256(abs-path)[:12]}.db". Truncated SHA-256 takes
// the place of the upstream tool's MD5 digest; both are used only to avoid
// filename collisions between projects sharing a basename, not as a security
// boundary, so the stronger hash is a drop-in substitute.
func CacheFilename(projectRoot string) (string, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("symstore: resolve project root: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	digest := hex.EncodeToString(sum[:])[:12]
	return fmt.Sprintf("%s_%s.db", filepath.Base(abs), digest), nil
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// ensures its schema is current.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("symstore: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // single-writer: avoid SQLITE_BUSY under concurrent callers

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ----------------------------------------------------------------------------
// File cache operations
// ----------------------------------------------------------------------------

func (s *Store) GetFileCache(filePath string) (*FileCacheEntry, error) {
	row := s.db.QueryRow(
		`SELECT mtime, content_hash, source_code FROM file_cache WHERE file_path = ?`,
		filePath,
	)
	var e FileCacheEntry
	if err := row.Scan(&e.MTime, &e.ContentHash, &e.SourceCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("symstore: get file cache: %w", err)
	}
	return &e, nil
}

func (s *Store) SetFileCache(filePath string, mtime float64, sourceCode string) error {
	hash := sha256.Sum256([]byte(sourceCode))
	contentHash := hex.EncodeToString(hash[:])
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO file_cache (file_path, mtime, content_hash, source_code)
		 VALUES (?, ?, ?, ?)`,
		filePath, mtime, contentHash, sourceCode,
	)
	if err != nil {
		return fmt.Errorf("symstore: set file cache: %w", err)
	}
	return nil
}

func (s *Store) IsFileCacheValid(filePath string, currentMTime float64) (bool, error) {
	entry, err := s.GetFileCache(filePath)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	return entry.MTime == currentMTime, nil
}

func (s *Store) RemoveFileCache(filePath string) error {
	_, err := s.db.Exec(`DELETE FROM file_cache WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("symstore: remove file cache: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Symbol index operations
// ----------------------------------------------------------------------------

const symbolColumns = `name, node_type, start_line, end_line, start_col, end_col,
	content, file_path, host_class, callees, imports, base_classes, calls_super`

func (s *Store) AddSymbolsBatch(symbols []Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("symstore: begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO symbol_index (` + symbolColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("symstore: prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		if err := execSymbolInsert(stmt, sym); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("symstore: commit batch: %w", err)
	}
	return nil
}

func (s *Store) AddSymbol(sym Symbol) error {
	stmt, err := s.db.Prepare(`INSERT OR REPLACE INTO symbol_index (` + symbolColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("symstore: prepare insert: %w", err)
	}
	defer stmt.Close()
	return execSymbolInsert(stmt, sym)
}

func execSymbolInsert(stmt *sql.Stmt, sym Symbol) error {
	callees, err := json.Marshal(orEmptySlice(sym.Callees))
	if err != nil {
		return fmt.Errorf("symstore: marshal callees: %w", err)
	}
	imports, err := json.Marshal(orEmptyMap(sym.Imports))
	if err != nil {
		return fmt.Errorf("symstore: marshal imports: %w", err)
	}
	baseClasses, err := json.Marshal(orEmptySlice(sym.BaseClasses))
	if err != nil {
		return fmt.Errorf("symstore: marshal base classes: %w", err)
	}

	var hostClass any
	if sym.HostClass != "" {
		hostClass = sym.HostClass
	}

	_, err = stmt.Exec(
		sym.Name, sym.NodeType, sym.StartLine, sym.EndLine, sym.StartCol, sym.EndCol,
		sym.Content, sym.FilePath, hostClass, string(callees), string(imports),
		string(baseClasses), boolToInt(sym.CallsSuper),
	)
	if err != nil {
		return fmt.Errorf("symstore: insert symbol %s: %w", sym.Name, err)
	}
	return nil
}

// FindSymbolsByName looks up symbols by exact name. nodeType may be "class",
// "function" (which also matches "method"), "method", or "" for any kind.
// When fileHint is non-empty, results whose file path contains it sort first.
func (s *Store) FindSymbolsByName(name, nodeType, fileHint string) ([]Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbol_index WHERE name = ?`
	args := []any{name}

	switch nodeType {
	case "":
		// no type filter
	case "function":
		query += ` AND node_type IN ('function', 'method')`
	default:
		query += ` AND node_type = ?`
		args = append(args, nodeType)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("symstore: find symbols by name: %w", err)
	}
	defer rows.Close()

	results, err := scanSymbols(rows)
	if err != nil {
		return nil, err
	}

	if fileHint != "" && len(results) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			return hintRank(results[i].FilePath, fileHint) < hintRank(results[j].FilePath, fileHint)
		})
	}
	return results, nil
}

func hintRank(filePath, hint string) int {
	if strings.Contains(filePath, hint) {
		return 0
	}
	return 1
}

func (s *Store) FindSymbolsByFile(filePath string) ([]Symbol, error) {
	rows, err := s.db.Query(`SELECT `+symbolColumns+` FROM symbol_index WHERE file_path = ?`, filePath)
	if err != nil {
		return nil, fmt.Errorf("symstore: find symbols by file: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func (s *Store) GetAllSymbols(nodeType string) ([]Symbol, error) {
	var rows *sql.Rows
	var err error
	switch nodeType {
	case "":
		rows, err = s.db.Query(`SELECT ` + symbolColumns + ` FROM symbol_index`)
	case "function":
		rows, err = s.db.Query(`SELECT ` + symbolColumns + ` FROM symbol_index WHERE node_type IN ('function', 'method')`)
	default:
		rows, err = s.db.Query(`SELECT `+symbolColumns+` FROM symbol_index WHERE node_type = ?`, nodeType)
	}
	if err != nil {
		return nil, fmt.Errorf("symstore: get all symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func (s *Store) RemoveSymbolsByFile(filePath string) error {
	_, err := s.db.Exec(`DELETE FROM symbol_index WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("symstore: remove symbols by file: %w", err)
	}
	return nil
}

func scanSymbols(rows *sql.Rows) ([]Symbol, error) {
	var out []Symbol
	for rows.Next() {
		var sym Symbol
		var hostClass sql.NullString
		// Nullable: rows written before an additive migration hold NULL here.
		var calleesJSON, importsJSON, baseClassesJSON sql.NullString
		var callsSuper int

		err := rows.Scan(
			&sym.Name, &sym.NodeType, &sym.StartLine, &sym.EndLine, &sym.StartCol, &sym.EndCol,
			&sym.Content, &sym.FilePath, &hostClass, &calleesJSON, &importsJSON,
			&baseClassesJSON, &callsSuper,
		)
		if err != nil {
			return nil, fmt.Errorf("symstore: scan symbol row: %w", err)
		}

		sym.HostClass = hostClass.String
		sym.CallsSuper = callsSuper != 0

		if calleesJSON.String != "" {
			if err := json.Unmarshal([]byte(calleesJSON.String), &sym.Callees); err != nil {
				return nil, fmt.Errorf("symstore: unmarshal callees: %w", err)
			}
		}
		if importsJSON.String != "" {
			if err := json.Unmarshal([]byte(importsJSON.String), &sym.Imports); err != nil {
				return nil, fmt.Errorf("symstore: unmarshal imports: %w", err)
			}
		}
		if baseClassesJSON.String != "" {
			if err := json.Unmarshal([]byte(baseClassesJSON.String), &sym.BaseClasses); err != nil {
				return nil, fmt.Errorf("symstore: unmarshal base classes: %w", err)
			}
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// ----------------------------------------------------------------------------
// Metadata and maintenance
// ----------------------------------------------------------------------------

func (s *Store) IsIndexed() (bool, error) {
	row := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'indexed'`)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("symstore: is indexed: %w", err)
	}
	return value == "true", nil
}

func (s *Store) SetIndexed(value bool) error {
	v := "false"
	if value {
		v = "true"
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES ('indexed', ?)`, v)
	if err != nil {
		return fmt.Errorf("symstore: set indexed: %w", err)
	}
	return nil
}

// SetMetadata stores an arbitrary key/value pair in the metadata table,
// used for bookkeeping beyond the "indexed" flag (e.g. the last run ID).
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("symstore: set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("symstore: get metadata %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) GetIndexedFileCount() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(DISTINCT file_path) FROM symbol_index`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("symstore: get indexed file count: %w", err)
	}
	return count, nil
}

// GetSymbolCount returns (classCount, functionCount); functionCount includes methods.
func (s *Store) GetSymbolCount() (int, int, error) {
	var classCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM symbol_index WHERE node_type = 'class'`).Scan(&classCount); err != nil {
		return 0, 0, fmt.Errorf("symstore: get class count: %w", err)
	}
	var funcCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM symbol_index WHERE node_type IN ('function', 'method')`).Scan(&funcCount); err != nil {
		return 0, 0, fmt.Errorf("symstore: get function count: %w", err)
	}
	return classCount, funcCount, nil
}

func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("symstore: clear all: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range []string{`DELETE FROM file_cache`, `DELETE FROM symbol_index`, `DELETE FROM metadata`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("symstore: clear all: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) ClearSymbols() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("symstore: clear symbols: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM symbol_index`); err != nil {
		return fmt.Errorf("symstore: clear symbols: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE key = 'indexed'`); err != nil {
		return fmt.Errorf("symstore: clear symbols: %w", err)
	}
	return tx.Commit()
}

// Compact rebuilds the database file to reclaim space after large deletes.
func (s *Store) Compact() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("symstore: vacuum: %w", err)
	}
	return nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
