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
package trace

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"bennypowers.dev/lazycss/internal/jsparse"
)

// ScriptTag is a script element found in an HTML page.
type ScriptTag struct {
	Type    string
	Src     string
	Content string
	Inline  bool
	// Imports are the specifiers imported by inline content.
	Imports []jsparse.Import
}

// ExtractScripts parses HTML content and extracts all script tags.
func ExtractScripts(content []byte) ([]ScriptTag, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var scripts []ScriptTag
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "script" {
			continue
		}
		script := ScriptTag{}
		for _, attr := range n.Attr {
			switch attr.Key {
			case "type":
				script.Type = attr.Val
			case "src":
				script.Src = attr.Val
			}
		}
		if script.Src == "" {
			var text strings.Builder
			for c := range n.ChildNodes() {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			if raw := strings.TrimSpace(text.String()); raw != "" {
				script.Content = raw
				script.Inline = true
			}
		}

		// Parse imports from inline content (best-effort; syntax errors are ignored)
		// Handle both type="module" (static + dynamic) and regular scripts (dynamic only)
		if script.Inline {
			imports, _ := jsparse.ExtractImports([]byte(script.Content))
			for _, imp := range imports {
				if script.Type == "module" || imp.Dynamic {
					script.Imports = append(script.Imports, imp)
				}
			}
		}

		scripts = append(scripts, script)
	}
	return scripts, nil
}
