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
package cssproc

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultScopedName is the naming template used when none is configured.
const DefaultScopedName = "[name]__[local]___[hash:base64:5]"

// Template generates scoped class names from a pattern.
// Supported variables:
//   - [name] - file name without extension and ".module" (e.g. "button")
//   - [local] - the authored class or keyframes name
//   - [hash] - hash of the file path and local name; [hash:8], [hash:hex:8]
//     and [hash:base64:5] select encoding and length
//   - [path] - directory of the file relative to the project root
//   - [ext] - file extension without the dot
type Template struct {
	pattern   string
	variables []templateVar
}

type templateVar struct {
	raw      string
	name     string
	encoding string
	length   int
}

var templateVarPattern = regexp.MustCompile(`\[(\w+)(?::(\w+))?(?::(\d+))?\]`)

var invalidIdentChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ParseTemplate parses a scoped-name template.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, fmt.Errorf("scoped name template cannot be empty")
	}

	validVars := map[string]bool{
		"name":  true,
		"local": true,
		"hash":  true,
		"path":  true,
		"ext":   true,
	}

	var variables []templateVar
	for _, match := range templateVarPattern.FindAllStringSubmatch(pattern, -1) {
		v := templateVar{raw: match[0], name: match[1]}
		if !validVars[v.name] {
			return nil, fmt.Errorf("unknown template variable: [%s]", v.name)
		}

		// [hash:8] carries the length in the encoding slot
		enc, length := match[2], match[3]
		if length == "" {
			if n, err := strconv.Atoi(enc); err == nil {
				enc, length = "", strconv.Itoa(n)
			}
		}
		if v.name != "hash" && (enc != "" || length != "") {
			return nil, fmt.Errorf("template variable [%s] takes no options", v.name)
		}

		if v.name == "hash" {
			v.encoding = "base64"
			v.length = 5
			switch enc {
			case "", "base64":
			case "hex":
				v.encoding = "hex"
			default:
				return nil, fmt.Errorf("unknown hash encoding %q", enc)
			}
			if length != "" {
				n, err := strconv.Atoi(length)
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("invalid hash length %q", length)
				}
				v.length = n
			}
		}
		variables = append(variables, v)
	}

	if !strings.Contains(pattern, "[local]") && !hasHash(variables) {
		return nil, fmt.Errorf("scoped name template %q must contain [local] or [hash]", pattern)
	}

	return &Template{pattern: pattern, variables: variables}, nil
}

func hasHash(vars []templateVar) bool {
	for _, v := range vars {
		if v.name == "hash" {
			return true
		}
	}
	return false
}

// Pattern returns the original template pattern.
func (t *Template) Pattern() string {
	return t.pattern
}

// Expand returns the scoped name for local declared in file.
func (t *Template) Expand(file, root, local string) string {
	rel := file
	if root != "" {
		if r, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	base := filepath.Base(file)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	name := strings.TrimSuffix(strings.TrimSuffix(base, filepath.Ext(base)), ".module")

	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		dir = ""
	}

	sum := sha1.Sum([]byte(rel + "+" + local))

	result := t.pattern
	for _, v := range t.variables {
		var value string
		switch v.name {
		case "name":
			value = name
		case "local":
			value = local
		case "path":
			value = dir
		case "ext":
			value = ext
		case "hash":
			var encoded string
			if v.encoding == "hex" {
				encoded = hex.EncodeToString(sum[:])
			} else {
				encoded = base64.RawURLEncoding.EncodeToString(sum[:])
			}
			value = encoded[:min(v.length, len(encoded))]
		}
		result = strings.Replace(result, v.raw, value, 1)
	}

	return sanitizeIdent(result)
}

// sanitizeIdent makes s a valid CSS class name.
func sanitizeIdent(s string) string {
	s = invalidIdentChars.ReplaceAllString(s, "_")
	if s == "" {
		return "_"
	}
	first := s[0]
	if first >= '0' && first <= '9' {
		return "_" + s
	}
	if first == '-' && len(s) > 1 && (s[1] >= '0' && s[1] <= '9' || s[1] == '-') {
		return "_" + s
	}
	return s
}
