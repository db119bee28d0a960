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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ExtractFile parses source and extracts every class, function, and method
// definition it contains, along with the file-wide import map.
func ExtractFile(parser *Parser, source []byte, filePath string) (*FileParseResult, error) {
	tree, err := parser.ParseFile(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	errCount := countErrors(root)

	imports := extractImports(root, source)

	result := &FileParseResult{ErrorCount: errCount}

	var classes []ParsedSymbol
	walkClasses(root, source, filePath, imports, &classes)
	result.Classes = classes

	var functions []ParsedSymbol
	walkFunctions(root, source, filePath, "", imports, &functions)
	result.Functions = functions

	return result, nil
}

func text(source []byte, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func spanOf(node *sitter.Node) Span {
	return Span{
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
}

// =============================================================================
// 4.3.1 Import extraction
// =============================================================================

func extractImports(root *sitter.Node, source []byte) map[string]string {
	imports := make(map[string]string)
	walkImports(root, source, imports)
	return imports
}

func walkImports(node *sitter.Node, source []byte, imports map[string]string) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				name := text(source, child)
				imports[name] = name
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode != nil && aliasNode != nil {
					imports[text(source, aliasNode)] = text(source, nameNode)
				}
			}
		}
		return
	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		if moduleNode == nil {
			return
		}
		module := text(source, moduleNode)
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				if child == moduleNode {
					continue
				}
				n := text(source, child)
				last := lastSegment(n)
				imports[last] = module + "." + n
			case "identifier":
				n := text(source, child)
				imports[n] = module + "." + n
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode != nil && aliasNode != nil {
					imports[text(source, aliasNode)] = module + "." + text(source, nameNode)
				}
			}
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkImports(node.Child(i), source, imports)
	}
}

func lastSegment(dotted string) string {
	if idx := strings.LastIndex(dotted, "."); idx >= 0 {
		return dotted[idx+1:]
	}
	return dotted
}

// =============================================================================
// 4.3.4 Classes vs. functions traversal
// =============================================================================

func walkClasses(node *sitter.Node, source []byte, filePath string, imports map[string]string, out *[]ParsedSymbol) {
	if node == nil {
		return
	}
	if node.Type() == "class_definition" {
		sym := extractClass(node, source, filePath, imports)
		if sym != nil {
			*out = append(*out, *sym)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkClasses(node.Child(i), source, filePath, imports, out)
	}
}

func extractClass(node *sitter.Node, source []byte, filePath string, imports map[string]string) *ParsedSymbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &ParsedSymbol{
		Name:        text(source, nameNode),
		Kind:        KindClass,
		Span:        spanOf(node),
		Content:     text(source, node),
		FilePath:    filePath,
		Callees:     extractCallees(node, source),
		Imports:     imports,
		BaseClasses: extractBaseClasses(node, source),
	}
}

// walkFunctions carries the nearest-enclosing-class name through recursion;
// nested-function host tracking follows the nearest enclosing class, not the
// nearest enclosing function.
func walkFunctions(node *sitter.Node, source []byte, filePath, currentClass string, imports map[string]string, out *[]ParsedSymbol) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_definition":
		nameNode := node.ChildByFieldName("name")
		className := ""
		if nameNode != nil {
			className = text(source, nameNode)
		}
		body := node.ChildByFieldName("body")
		walkFunctions(body, source, filePath, className, imports, out)
		return
	case "function_definition":
		sym := extractFunction(node, source, filePath, currentClass, imports)
		if sym != nil {
			*out = append(*out, *sym)
		}
		body := node.ChildByFieldName("body")
		walkFunctions(body, source, filePath, currentClass, imports, out)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkFunctions(node.Child(i), source, filePath, currentClass, imports, out)
	}
}

func extractFunction(node *sitter.Node, source []byte, filePath, currentClass string, imports map[string]string) *ParsedSymbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	kind := KindFunction
	hostClass := ""
	if currentClass != "" {
		kind = KindMethod
		hostClass = currentClass
	}

	callees, callsSuper := extractCalleesWithSuper(node, source)

	return &ParsedSymbol{
		Name:       text(source, nameNode),
		Kind:       kind,
		Span:       spanOf(node),
		Content:    text(source, node),
		FilePath:   filePath,
		HostClass:  hostClass,
		Callees:    callees,
		Imports:    imports,
		CallsSuper: callsSuper,
	}
}

// =============================================================================
// 4.3.3 Base-class extraction
// =============================================================================

func extractBaseClasses(classNode *sitter.Node, source []byte) []string {
	superclasses := classNode.ChildByFieldName("superclasses")
	if superclasses == nil {
		return nil
	}
	var bases []string
	for i := 0; i < int(superclasses.ChildCount()); i++ {
		arg := superclasses.Child(i)
		switch arg.Type() {
		case "identifier":
			bases = append(bases, text(source, arg))
		case "attribute":
			bases = append(bases, text(source, arg))
		case "call":
			fn := arg.ChildByFieldName("function")
			if fn != nil {
				bases = append(bases, text(source, fn))
			}
		case "subscript":
			// e.g. Generic[T]: the value child names the marker.
			val := arg.ChildByFieldName("value")
			if val != nil {
				bases = append(bases, text(source, val))
			}
		case "keyword_argument":
			// metaclass=Foo and similar: not a base class.
		}
	}
	return bases
}

// =============================================================================
// 4.3.2 Callee extraction
// =============================================================================

func extractCallees(node *sitter.Node, source []byte) []string {
	callees, _ := extractCalleesWithSuper(node, source)
	return callees
}

// positions in which a bare attribute reference is recorded per spec.md
// §4.3.2 rule 3.
var expressionContextParents = map[string]bool{
	"argument_list":        true,
	"assignment":           true,
	"return_statement":     true,
	"yield":                true,
	"expression_statement": true,
	"comparison_operator":  true,
	"boolean_operator":     true,
	"binary_operator":      true,
	"conditional_expression": true,
	"list":                 true,
	"tuple":                true,
	"set":                  true,
	"dictionary":           true,
	"pair":                 true,
	"subscript":            true,
}

// positions in which a bare capitalised identifier is recorded per
// spec.md §4.3.2 rule 4 (narrower than rule 3's context set).
var bareIdentifierContextParents = map[string]bool{
	"argument_list":        true,
	"assignment":           true,
	"expression_statement": true,
}

func extractCalleesWithSuper(node *sitter.Node, source []byte) ([]string, bool) {
	seen := make(map[string]bool)
	var ordered []string
	callsSuper := false

	add := func(name string) {
		if name == "" || name == "super" {
			return
		}
		if !seen[name] {
			seen[name] = true
			ordered = append(ordered, name)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		switch n.Type() {
		case "call":
			fn := n.ChildByFieldName("function")
			if fn != nil {
				switch fn.Type() {
				case "identifier":
					name := text(source, fn)
					if name == "super" {
						callsSuper = true
					} else {
						add(name)
					}
				case "attribute":
					if chain, ok := attributeCallChain(fn, source); ok {
						if chain == "super" {
							callsSuper = true
						} else {
							add(chain)
						}
					}
				}
			}
		case "attribute":
			// Bare attribute access (rule 3): only when not the function of an
			// enclosing call (handled above) and not nested inside another
			// attribute (the outermost attribute handles the whole chain).
			parent := n.Parent()
			if parent != nil {
				if parent.Type() == "call" && parent.ChildByFieldName("function") == n {
					break // handled by the "call" case
				}
				if parent.Type() == "attribute" {
					break // outer attribute node will record the full chain
				}
				if expressionContextParents[parent.Type()] {
					if chain, ok := attributeFullChain(n, source); ok {
						if chain == "super" {
							callsSuper = true
						} else {
							add(chain)
						}
					}
				}
			}
		case "identifier":
			parent := n.Parent()
			if parent != nil && bareIdentifierContextParents[parent.Type()] {
				name := text(source, n)
				if name != "" && isUpperFirst(name) {
					add(name)
				}
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}

	walk(node)
	return ordered, callsSuper
}

// attributeCallChain resolves the func-child of a call (an attribute node
// e.g. "e.x.y.z") to the dotted prefix excluding the final segment: "e.x.y".
func attributeCallChain(attr *sitter.Node, source []byte) (string, bool) {
	object := attr.ChildByFieldName("object")
	if object == nil {
		return "", false
	}
	if !validAttributeRoot(object, source) {
		return "", false
	}
	return text(source, object), true
}

// attributeFullChain resolves a bare attribute node "a.b.c" to its full text,
// including the final segment, subject to the same root-validity rules.
func attributeFullChain(attr *sitter.Node, source []byte) (string, bool) {
	if !validAttributeRoot(attr, source) {
		return "", false
	}
	return text(source, attr), true
}

// validAttributeRoot walks down the left spine of an attribute chain and
// checks that the root is a plain identifier other than self/cls.
func validAttributeRoot(node *sitter.Node, source []byte) bool {
	cur := node
	for cur != nil && cur.Type() == "attribute" {
		obj := cur.ChildByFieldName("object")
		if obj == nil {
			return false
		}
		cur = obj
	}
	if cur == nil {
		return false
	}
	if cur.Type() != "identifier" {
		return false // call, subscript, tuple, etc. are not namable roots
	}
	root := text(source, cur)
	return root != "self" && root != "cls"
}

func isUpperFirst(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
