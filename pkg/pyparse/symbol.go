// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pyparse wraps tree-sitter's Python grammar and extracts ParsedSymbol
// records from a source file: classes, functions, and methods together with
// their callees, imports, base classes, and calls_super flag.
package pyparse

// Kind is the tagged-variant discriminator for a ParsedSymbol.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
)

// Span locates a symbol within its file. Lines are 1-based, columns are
// 0-based, matching tree-sitter's own point convention.
type Span struct {
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// ParsedSymbol is the unit of indexing: one class, function, or method
// definition and everything the dependency resolver needs to expand it.
type ParsedSymbol struct {
	Name        string
	Kind        Kind
	Span        Span
	Content     string
	FilePath    string
	HostClass   string // only set when Kind == KindMethod
	Callees     []string
	Imports     map[string]string // local binding -> fully qualified dotted path
	BaseClasses []string          // only set when Kind == KindClass
	CallsSuper  bool
}

// FileParseResult is everything extracted from a single source file.
type FileParseResult struct {
	Classes     []ParsedSymbol
	Functions   []ParsedSymbol // includes methods
	ErrorCount  int            // number of ERROR-kind subtrees encountered
}
