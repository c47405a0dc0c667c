/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package jsparse

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Import is one import specifier found in a module.
type Import struct {
	// Specifier is the literal value, or the raw source text of a computed
	// dynamic import argument.
	Specifier string
	// Literal is false for computed dynamic import arguments.
	Literal bool
	Dynamic bool
	Line    int
}

// ExtractImports parses JavaScript or TypeScript and returns its static
// imports, re-exports and dynamic imports in source order.
func ExtractImports(content []byte) ([]Import, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}
	query, err := qm.Query("imports")
	if err != nil {
		return nil, err
	}

	var imports []Import
	err = parse(content, func(root *ts.Node) error {
		cursor := ts.NewQueryCursor()
		defer cursor.Close()

		matches := cursor.Matches(query, root, content)
		captureNames := query.CaptureNames()

		for {
			match := matches.Next()
			if match == nil {
				break
			}
			for _, capture := range match.Captures {
				node := capture.Node
				line := int(node.StartPosition().Row) + 1
				switch captureNames[capture.Index] {
				case "import.source", "reexport.source":
					spec, _ := stringValue(&node, content)
					imports = append(imports, Import{Specifier: spec, Literal: true, Line: line})
				case "dynamicImport.arg":
					spec, ok := stringValue(&node, content)
					if !ok {
						spec = node.Utf8Text(content)
					}
					imports = append(imports, Import{Specifier: spec, Literal: ok, Dynamic: true, Line: line})
				}
			}
		}
		return nil
	})
	return imports, err
}

// stringValue returns the value of a string literal or a template literal
// without substitutions.
func stringValue(n *ts.Node, content []byte) (string, bool) {
	switch n.Kind() {
	case "string":
	case "template_string":
		for i := range n.NamedChildCount() {
			if child := n.NamedChild(i); child != nil && child.Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := n.Utf8Text(content)
	if len(text) < 2 {
		return "", false
	}
	return unescape(text[1 : len(text)-1]), true
}

var escapes = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`, "\\`", "`")

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}
