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

// Package moduleid normalizes bundler module ids and maps lazy CSS files
// to the virtual module ids that divert them away from native CSS handling.
package moduleid

import (
	"regexp"
	"strings"
)

// Marker is the leading character bundlers use to flag virtual module ids.
const Marker = "\x00"

// Prefix starts every virtual id owned by lazycss.
const Prefix = Marker + "lazy-css-inliner:"

// RuntimeID names the shared runtime module imported by every diverted CSS module.
// It lives outside the per-file family: FromVirtual never yields a CSS path for it.
const RuntimeID = Prefix + "runtime"

// virtualSuffix keeps extension-keyed CSS handlers away from diverted modules.
const virtualSuffix = ".js"

var (
	cssPattern       = regexp.MustCompile(`\.(css|scss|sass|less|styl)(?:$|\?)`)
	cssModulePattern = regexp.MustCompile(`\.module\.(css|scss|sass|less|styl)(?:$|\?)`)
)

// Normalize strips leading virtual markers and any query string from id.
func Normalize(id string) string {
	id = strings.TrimLeft(id, Marker)
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	return id
}

// ToVirtual returns the virtual id for a CSS module id.
func ToVirtual(id string) string {
	return Prefix + Normalize(id) + virtualSuffix
}

// FromVirtual maps a virtual id back to the original CSS module id.
// Ids without the lazycss prefix are returned unchanged.
func FromVirtual(id string) string {
	if !strings.HasPrefix(id, Prefix) {
		return id
	}
	return strings.TrimSuffix(strings.TrimPrefix(id, Prefix), virtualSuffix)
}

// IsVirtual reports whether id belongs to lazycss, including RuntimeID.
func IsVirtual(id string) bool {
	return strings.HasPrefix(id, Prefix)
}

// IsCSS reports whether id names a stylesheet (plain or pre-processed).
func IsCSS(id string) bool {
	return cssPattern.MatchString(id)
}

// IsCSSModule reports whether id names a scoped ("module") stylesheet,
// e.g. button.module.css.
func IsCSSModule(id string) bool {
	return cssModulePattern.MatchString(id)
}
