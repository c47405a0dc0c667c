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
	"fmt"
	"strings"
	"unicode"
)

// LocalsConvention selects how authored names become exported token keys.
type LocalsConvention string

const (
	// AsIs exports names unchanged.
	AsIs LocalsConvention = "asIs"
	// CamelCase exports both the authored and the camelCased name.
	CamelCase LocalsConvention = "camelCase"
	// CamelCaseOnly exports only the camelCased name.
	CamelCaseOnly LocalsConvention = "camelCaseOnly"
	// Dashes exports both the authored name and one with dashes camelCased.
	Dashes LocalsConvention = "dashes"
	// DashesOnly exports only the name with dashes camelCased.
	DashesOnly LocalsConvention = "dashesOnly"
)

// ParseLocalsConvention validates a convention name. Empty selects CamelCaseOnly.
func ParseLocalsConvention(s string) (LocalsConvention, error) {
	switch c := LocalsConvention(s); c {
	case "":
		return CamelCaseOnly, nil
	case AsIs, CamelCase, CamelCaseOnly, Dashes, DashesOnly:
		return c, nil
	default:
		return "", fmt.Errorf("unknown locals convention %q", s)
	}
}

// keys returns the token keys exported for local.
func (c LocalsConvention) keys(local string) []string {
	switch c {
	case AsIs:
		return []string{local}
	case CamelCase:
		return uniq(local, camelCase(local))
	case Dashes:
		return uniq(local, dashesCamelCase(local))
	case DashesOnly:
		return []string{dashesCamelCase(local)}
	default:
		return []string{camelCase(local)}
	}
}

func uniq(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

// camelCase splits on dashes, underscores and spaces: "btn-primary_lg" -> "btnPrimaryLg".
func camelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	var b strings.Builder
	for i, w := range words {
		if isUpper(w) {
			w = strings.ToLower(w)
		}
		if i == 0 {
			b.WriteString(lowerFirst(w))
		} else {
			b.WriteString(upperFirst(w))
		}
	}
	return b.String()
}

// dashesCamelCase only folds dashes: "btn-primary_lg" -> "btnPrimary_lg".
func dashesCamelCase(s string) string {
	var b strings.Builder
	upper := false
	for i, r := range s {
		if r == '-' && i > 0 {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
