// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolve expands a symbol's callees into the definitions they refer
// to: first via its own import map, then via a project-wide name search, and
// finally via an optional semantic fallback, in that order.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kraklabs/pysymbols/pkg/pyindex"
	"github.com/kraklabs/pysymbols/pkg/semantic"
	"github.com/kraklabs/pysymbols/pkg/symstore"
)

// SymbolIndex is the read surface the resolver needs from the project's
// symbol store. *symstore.Store satisfies this directly.
type SymbolIndex interface {
	FindSymbolsByName(name, nodeType, fileHint string) ([]symstore.Symbol, error)
	FindSymbolsByFile(filePath string) ([]symstore.Symbol, error)
}

// Dependency is one resolved reference from a symbol's callees.
type Dependency struct {
	Name          string
	QualifiedName string
	FilePath      string
	Content       string
	IsClass       bool
	HostClass     string
}

// ClassAnalysis is the result of expanding a class definition's dependencies.
type ClassAnalysis struct {
	ClassContent string
	FilePath     string
	Depends      []string
	DependsPath  []string
}

// FunctionAnalysis is the result of expanding a function or method
// definition's dependencies.
type FunctionAnalysis struct {
	FunctionContent string
	HostClass       string
	FilePath        string
	Depends         []string
	DependsPath     []string
}

// Resolver expands callees against one project's symbol index.
type Resolver struct {
	projectRoot string
	index       SymbolIndex
	indexer     *pyindex.Indexer
	semantic    semantic.Analyzer
	logger      *slog.Logger
}

// New builds a Resolver. A nil semantic.Analyzer falls back to
// semantic.NullAnalyzer{}; a nil logger falls back to slog.Default(). indexer
// may be nil (as in unit tests driving a fake SymbolIndex directly); when
// set, every query first calls its BuildIndex(ctx, false) to guarantee
// freshness, mirroring the original's find_symbol -> self.build_index() call.
func New(projectRoot string, index SymbolIndex, indexer *pyindex.Indexer, analyzer semantic.Analyzer, logger *slog.Logger) *Resolver {
	if analyzer == nil {
		analyzer = semantic.NullAnalyzer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{projectRoot: projectRoot, index: index, indexer: indexer, semantic: analyzer, logger: logger}
}

// ensureFresh runs build_index(force=false) before a query reads from the
// index, so a project that has never been indexed is indexed first. Once the
// project is marked indexed this is a no-op: files changed since then are not
// rescanned until a forced rebuild or an Invalidate.
func (r *Resolver) ensureFresh(ctx context.Context) error {
	if r.indexer == nil {
		return nil
	}
	_, err := r.indexer.BuildIndex(ctx, false)
	return err
}

// ResolveDependencies expands sym's callees into Dependency records, skipping
// duplicates and builtin names, in callee order.
func (r *Resolver) ResolveDependencies(ctx context.Context, sym symstore.Symbol) []Dependency {
	r.logger.Debug("resolving symbol dependencies", "symbol", sym.Name, "callees", sym.Callees)

	var dependencies []Dependency
	seen := make(map[string]bool)

	for _, calleeName := range sym.Callees {
		if seen[calleeName] {
			continue
		}
		seen[calleeName] = true

		if isSkippedCallee(calleeName) {
			continue
		}

		dep := r.resolveSingleDependency(ctx, calleeName, sym)
		if dep != nil && dep.FilePath != "" {
			dependencies = append(dependencies, *dep)
		}
	}

	return dependencies
}

func (r *Resolver) resolveSingleDependency(ctx context.Context, calleeName string, contextSymbol symstore.Symbol) *Dependency {
	// 1. Import-directed resolution.
	if importPath, ok := contextSymbol.Imports[calleeName]; ok {
		if filePath, ok := resolveImportPath(r.projectRoot, importPath, contextSymbol.FilePath); ok {
			symbolName := calleeName
			if idx := strings.LastIndex(calleeName, "."); idx >= 0 {
				symbolName = calleeName[idx+1:]
			}
			if found := r.findSymbolInFile(symbolName, filePath); found != nil {
				return &Dependency{
					Name:          calleeName,
					QualifiedName: importPath,
					FilePath:      filePath,
					Content:       found.Content,
					IsClass:       found.NodeType == "class",
					HostClass:     found.HostClass,
				}
			}
		}
	}

	// 2. Project-wide name search.
	matches, err := r.index.FindSymbolsByName(calleeName, "", "")
	if err != nil {
		r.logger.Warn("symbol index lookup failed", "callee", calleeName, "error", err)
	} else if len(matches) > 0 {
		found := matches[0]
		return &Dependency{
			Name:      calleeName,
			FilePath:  found.FilePath,
			Content:   found.Content,
			IsClass:   found.NodeType == "class",
			HostClass: found.HostClass,
		}
	}

	// 3. Semantic fallback.
	candidates, err := r.semantic.Resolve(ctx, calleeName, contextSymbol.Content, contextSymbol.FilePath)
	if err != nil {
		r.logger.Debug("semantic fallback failed", "callee", calleeName, "error", err)
		return nil
	}
	for _, c := range candidates {
		if c.FilePath == "" {
			continue
		}
		candidatePath := c.FilePath
		if !filepath.IsAbs(candidatePath) {
			candidatePath = filepath.Join(r.projectRoot, candidatePath)
		}
		rel, relErr := filepath.Rel(r.projectRoot, candidatePath)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || !fileExists(candidatePath) {
			continue
		}
		if found := r.findSymbolInFile(c.Name, candidatePath); found != nil {
			return &Dependency{
				Name:      c.Name,
				FilePath:  candidatePath,
				Content:   found.Content,
				IsClass:   found.NodeType == "class",
				HostClass: found.HostClass,
			}
		}
	}

	return nil
}

func (r *Resolver) findSymbolInFile(name, filePath string) *symstore.Symbol {
	symbols, err := r.index.FindSymbolsByFile(filePath)
	if err != nil {
		r.logger.Warn("file symbol lookup failed", "file", filePath, "error", err)
		return nil
	}

	// Classes take priority over functions, matching a name collision between
	// a class and a module-level function in the same file.
	for _, sym := range symbols {
		if sym.Name == name && sym.NodeType == "class" {
			return &sym
		}
	}
	for _, sym := range symbols {
		if sym.Name == name && sym.NodeType != "class" {
			return &sym
		}
	}
	return nil
}

// expandDependencies resolves dep.Content into what the caller-facing result
// should actually embed: the full host class body when the dependency is a
// method, otherwise the dependency's own content. Paths are deduplicated but
// content entries are not, matching the asymmetry in the upstream analyzer.
func (r *Resolver) expandDependencies(dependencies []Dependency) (depends []string, dependsPath []string) {
	seenPaths := make(map[string]bool)

	for _, dep := range dependencies {
		if dep.Content == "" {
			continue
		}

		content := dep.Content
		if dep.HostClass != "" && dep.FilePath != "" {
			if hostSym := r.findSymbolInFile(dep.HostClass, dep.FilePath); hostSym != nil {
				content = hostSym.Content
			}
		}
		depends = append(depends, content)

		if dep.FilePath != "" && !seenPaths[dep.FilePath] {
			seenPaths[dep.FilePath] = true
			dependsPath = append(dependsPath, dep.FilePath)
		}
	}

	return depends, dependsPath
}

// AnalyzeClass finds the named class and expands its dependencies. When
// several classes share the name, those whose file path contains fileHint
// are preferred; the hint does not exclude the others.
func (r *Resolver) AnalyzeClass(ctx context.Context, className, fileHint string) (*ClassAnalysis, error) {
	if err := r.ensureFresh(ctx); err != nil {
		return nil, fmt.Errorf("resolve: build index: %w", err)
	}

	matches, err := r.index.FindSymbolsByName(className, "class", fileHint)
	if err != nil {
		return nil, fmt.Errorf("resolve: analyze class %s: %w", className, err)
	}
	if len(matches) == 0 {
		r.logger.Warn("class not found", "class", className)
		return nil, nil
	}
	symbol := matches[0]

	dependencies := r.ResolveDependencies(ctx, symbol)
	depends, dependsPath := r.expandDependencies(dependencies)

	return &ClassAnalysis{
		ClassContent: symbol.Content,
		FilePath:     symbol.FilePath,
		Depends:      depends,
		DependsPath:  dependsPath,
	}, nil
}

// AnalyzeFunction finds the named function or method (optionally narrowed by
// a host class and/or a file-path substring hint) and expands its
// dependencies. When multiple candidates match, the first one found wins.
func (r *Resolver) AnalyzeFunction(ctx context.Context, functionName, fileHint, hostClass string) (*FunctionAnalysis, error) {
	if err := r.ensureFresh(ctx); err != nil {
		return nil, fmt.Errorf("resolve: build index: %w", err)
	}

	candidates, err := r.index.FindSymbolsByName(functionName, "function", "")
	if err != nil {
		return nil, fmt.Errorf("resolve: analyze function %s: %w", functionName, err)
	}

	var filtered []symstore.Symbol
	for _, c := range candidates {
		if hostClass != "" && c.HostClass != hostClass {
			continue
		}
		if fileHint != "" && !pathContains(c.FilePath, fileHint) {
			continue
		}
		filtered = append(filtered, c)
	}

	if len(filtered) == 0 {
		r.logger.Warn("function not found", "function", functionName)
		return nil, nil
	}
	symbol := filtered[0]

	dependencies := r.ResolveDependencies(ctx, symbol)
	depends, dependsPath := r.expandDependencies(dependencies)

	return &FunctionAnalysis{
		FunctionContent: symbol.Content,
		HostClass:       symbol.HostClass,
		FilePath:        symbol.FilePath,
		Depends:         depends,
		DependsPath:     dependsPath,
	}, nil
}

func pathContains(filePath, hint string) bool {
	return len(hint) == 0 || strings.Contains(filePath, hint)
}
