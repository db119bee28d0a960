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

package pyparse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser wraps a pool of tree-sitter Python parsers. Parsers are not
// thread-safe, so each call borrows one from the pool for the duration of a
// single file.
type Parser struct {
	logger *slog.Logger
	pool   sync.Pool
	once   sync.Once
}

// NewParser creates a Parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

func (p *Parser) init() {
	p.once.Do(func() {
		p.pool.New = func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(python.GetLanguage())
			return sp
		}
	})
}

// ParseFile parses source bytes and returns the resulting tree. The caller
// must call tree.Close() when done. Parsing is infallible for valid UTF-8: a
// tree is always produced, possibly containing ERROR nodes.
func (p *Parser) ParseFile(source []byte) (*sitter.Tree, error) {
	p.init()
	spObj := p.pool.Get()
	sp, ok := spObj.(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("pyparse: invalid parser type from pool")
	}
	defer p.pool.Put(sp)

	tree, err := sp.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("pyparse: tree-sitter parse: %w", err)
	}
	return tree, nil
}

// countErrors counts ERROR nodes in the AST. Error subtrees are treated as
// opaque by the extractor: it skips node kinds it doesn't recognise instead
// of failing the whole file, so this count is diagnostic only.
func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}
