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

// Package pathfilter decides which module ids lazycss is allowed to touch.
package pathfilter

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcluded is used when no excluded paths are configured.
var DefaultExcluded = []string{"node_modules"}

// Filter is an include/exclude boundary over module ids.
//
// An id is allowed when it starts with one of the included prefixes (or the
// include list is empty) and none of the excluded substrings occur in it.
// Entries containing glob metacharacters are matched as doublestar patterns
// against the whole id instead.
type Filter struct {
	included []string
	excluded []string
}

// New creates a Filter. A nil excluded list selects DefaultExcluded; an
// empty non-nil list disables exclusion.
func New(included, excluded []string) *Filter {
	if excluded == nil {
		excluded = DefaultExcluded
	}
	return &Filter{
		included: append([]string(nil), included...),
		excluded: append([]string(nil), excluded...),
	}
}

// Included returns the include list.
func (f *Filter) Included() []string {
	return append([]string(nil), f.included...)
}

// Excluded returns the exclude list.
func (f *Filter) Excluded() []string {
	return append([]string(nil), f.excluded...)
}

// Allowed reports whether id is in scope.
func (f *Filter) Allowed(id string) bool {
	if id == "" {
		return false
	}
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}

	if len(f.included) > 0 {
		in := false
		for _, p := range f.included {
			if matchInclude(p, id) {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}

	for _, p := range f.excluded {
		if matchExclude(p, id) {
			return false
		}
	}
	return true
}

// AnyAllowed reports whether at least one of ids is in scope.
func (f *Filter) AnyAllowed(ids []string) bool {
	for _, id := range ids {
		if f.Allowed(id) {
			return true
		}
	}
	return false
}

func matchInclude(pattern, id string) bool {
	if isGlob(pattern) {
		ok, err := doublestar.Match(pattern, id)
		return err == nil && ok
	}
	return strings.HasPrefix(id, pattern)
}

func matchExclude(pattern, id string) bool {
	if isGlob(pattern) {
		ok, err := doublestar.Match(pattern, id)
		return err == nil && ok
	}
	return strings.Contains(id, pattern)
}

// isGlob reports whether p uses glob syntax. '?' is deliberately not
// treated as a metacharacter since ids may still carry queries upstream.
func isGlob(p string) bool {
	return strings.ContainsAny(p, "*[{")
}
