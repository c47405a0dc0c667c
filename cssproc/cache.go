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
	"maps"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of processed stylesheets kept in memory.
const DefaultCacheSize = 512

// Cache keeps processed stylesheets across rebuilds of a long-lived process.
// Entries are keyed by id, mode and source hash, so edits invalidate naturally.
type Cache struct {
	entries *lru.Cache[string, Result]
}

// NewCache creates a Cache holding up to size results.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func cacheKey(id string, dev bool, sourceHash string) string {
	return id + "\x00" + strconv.FormatBool(dev) + "\x00" + sourceHash
}

// Get returns a copy of a cached result.
func (c *Cache) Get(key string) (*Result, bool) {
	r, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return &Result{CSS: r.CSS, Tokens: maps.Clone(r.Tokens)}, true
}

// Add stores a copy of r.
func (c *Cache) Add(key string, r *Result) {
	c.entries.Add(key, Result{CSS: r.CSS, Tokens: maps.Clone(r.Tokens)})
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.entries.Purge()
}
