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
	ts "github.com/tree-sitter/go-tree-sitter"
)

// Span is a byte range in the parsed source.
type Span struct {
	Start, End int
}

// Call is a call site of a named function.
type Call struct {
	Span
	// Args holds the argument expressions, comments excluded.
	Args []Span
}

// FindCalls returns every call whose callee is the plain identifier name,
// in source order. Sources that do not parse cleanly yield a *SyntaxError.
func FindCalls(content []byte, name string) ([]Call, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}
	query, err := qm.Query("calls")
	if err != nil {
		return nil, err
	}

	var calls []Call
	err = parse(content, func(root *ts.Node) error {
		if bad := firstError(root); bad != nil {
			pos := bad.StartPosition()
			return &SyntaxError{Row: pos.Row, Column: pos.Column}
		}

		cursor := ts.NewQueryCursor()
		defer cursor.Close()

		matches := cursor.Matches(query, root, content)
		captureNames := query.CaptureNames()

		for {
			match := matches.Next()
			if match == nil {
				break
			}

			var call Call
			var callee string
			var args *ts.Node
			for _, capture := range match.Captures {
				node := capture.Node
				switch captureNames[capture.Index] {
				case "call":
					call.Span = span(&node)
				case "call.callee":
					callee = node.Utf8Text(content)
				case "call.args":
					args = &node
				}
			}
			if callee != name || args == nil {
				continue
			}
			for i := range args.NamedChildCount() {
				arg := args.NamedChild(i)
				if arg == nil || arg.Kind() == "comment" {
					continue
				}
				call.Args = append(call.Args, span(arg))
			}
			calls = append(calls, call)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func span(n *ts.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
