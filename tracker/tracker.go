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

// Package tracker records which modules belong to dynamically loaded
// ("lazy") subtrees of an application's module graph.
package tracker

import (
	"slices"
	"sync"

	"bennypowers.dev/lazycss/moduleid"
)

// Tracker owns the dynamic-root set and the lazy closure around it.
//
// Both sets only grow between calls to Reset, and every root is also a
// member, so evidence may arrive from several build passes in any order.
// Bundlers such as esbuild call plugins from several goroutines, so both
// sets sit behind one lock.
type Tracker struct {
	mu sync.RWMutex

	// roots are direct targets of a dynamic import().
	roots map[string]bool

	// members are roots plus everything they reach through static imports.
	members map[string]bool
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		roots:   make(map[string]bool),
		members: make(map[string]bool),
	}
}

// MarkRoot records id as a dynamic-import root and returns the normalized id.
func (t *Tracker) MarkRoot(id string) string {
	id = moduleid.Normalize(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots[id] = true
	t.members[id] = true
	return id
}

// MarkMember records id as part of a lazy subtree and returns the normalized id.
func (t *Tracker) MarkMember(id string) string {
	id = moduleid.Normalize(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.members[id] = true
	return id
}

// IsLazy reports whether id is a root or a member of any lazy subtree.
func (t *Tracker) IsLazy(id string) bool {
	id = moduleid.Normalize(id)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.members[id] || t.roots[id]
}

// IsRoot reports whether id is the direct target of a dynamic import.
func (t *Tracker) IsRoot(id string) bool {
	id = moduleid.Normalize(id)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.roots[id]
}

// Reset clears both sets. Only development rebuilds call this.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.roots)
	clear(t.members)
}

// Roots returns the dynamic roots, sorted.
func (t *Tracker) Roots() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.roots)
}

// Members returns the whole lazy closure, sorted.
func (t *Tracker) Members() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.members)
}

// Len returns the number of roots and members.
func (t *Tracker) Len() (roots, members int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.roots), len(t.members)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
