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
// Package codegen renders the JavaScript modules that replace lazy
// stylesheets, plus the shared runtime they import.
package codegen

import (
	"bytes"
	"crypto/sha1"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"bennypowers.dev/lazycss/moduleid"
)

//go:embed runtime.js
var runtimeSource string

// Runtime returns the source of the shared runtime module served under
// moduleid.RuntimeID.
func Runtime() string {
	return runtimeSource
}

// InjectionID returns the value of the data-lazy-css-id attribute for a
// stylesheet. Development builds use the normalized id; production builds use
// the file's base name with a short content hash.
func InjectionID(id, css string, dev bool) string {
	normalized := moduleid.Normalize(id)
	if dev {
		return normalized
	}
	base := path.Base(normalized)
	if css == "" {
		return base
	}
	sum := sha1.Sum([]byte(css))
	return base + "-" + base64.RawURLEncoding.EncodeToString(sum[:])[:5]
}

// Module renders the client module for a lazy stylesheet.
//
// Plain CSS is injected as soon as the module evaluates. Scoped CSS exports a
// proxy over its tokens that injects on first access.
func Module(css string, tokens map[string]string, id string, dev bool) (string, error) {
	injectionID, err := literal(InjectionID(id, css, dev))
	if err != nil {
		return "", err
	}
	cssLit, err := literal(css)
	if err != nil {
		return "", err
	}
	runtimeLit, err := literal(moduleid.RuntimeID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "import { ensureLazyCssInjected, createCssModuleProxy } from %s;\n", runtimeLit)

	if !moduleid.IsCSSModule(id) {
		fmt.Fprintf(&b, "ensureLazyCssInjected(%s, %s);\n", injectionID, cssLit)
		b.WriteString("export default {};\n")
		return b.String(), nil
	}

	tokensLit, err := tokensLiteral(tokens)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "const __tokens = %s;\n", tokensLit)
	fmt.Fprintf(&b, "export default createCssModuleProxy(__tokens, %s, %s);\n", injectionID, cssLit)
	return b.String(), nil
}

// ServerModule renders the module served during a server-render pass. It
// exports scoped tokens so markup matches the client, and injects nothing.
func ServerModule(tokens map[string]string, id string) (string, error) {
	if !moduleid.IsCSSModule(id) {
		return "export default {};\n", nil
	}
	tokensLit, err := tokensLiteral(tokens)
	if err != nil {
		return "", err
	}
	return "export default " + tokensLit + ";\n", nil
}

func tokensLiteral(tokens map[string]string) (string, error) {
	if tokens == nil {
		tokens = map[string]string{}
	}
	return literal(tokens)
}

// literal encodes v as a JSON expression without HTML escaping.
func literal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding module literal: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
