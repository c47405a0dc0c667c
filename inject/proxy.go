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
package inject

import (
	"maps"
	"slices"
	"sync"
)

// Descriptor describes one exported token, like a JavaScript property
// descriptor.
type Descriptor struct {
	Value        string
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// TokenProxy exposes the tokens of a scoped stylesheet. The first read of any
// kind injects the stylesheet; later reads never inject again.
type TokenProxy struct {
	tokens   map[string]string
	id       string
	css      string
	doc      Document
	registry *Registry

	once sync.Once
	err  error
}

// NewTokenProxy returns a proxy over tokens that injects css under id into doc
// on first access.
func NewTokenProxy(doc Document, tokens map[string]string, id, css string) *TokenProxy {
	return &TokenProxy{
		tokens:   maps.Clone(tokens),
		id:       id,
		css:      css,
		doc:      doc,
		registry: Styles(),
	}
}

// WithRegistry makes the proxy inject through r instead of the process-wide
// registry.
func (p *TokenProxy) WithRegistry(r *Registry) *TokenProxy {
	p.registry = r
	return p
}

func (p *TokenProxy) init() {
	p.once.Do(func() {
		if p.doc == nil {
			return
		}
		p.err = p.registry.Ensure(p.doc, p.id, p.css)
	})
}

// Get returns the scoped name for key.
func (p *TokenProxy) Get(key string) (string, bool) {
	p.init()
	v, ok := p.tokens[key]
	return v, ok
}

// Has reports whether key is exported.
func (p *TokenProxy) Has(key string) bool {
	p.init()
	_, ok := p.tokens[key]
	return ok
}

// Keys returns the exported keys in sorted order.
func (p *TokenProxy) Keys() []string {
	p.init()
	return slices.Sorted(maps.Keys(p.tokens))
}

// Descriptor returns the property descriptor for key.
func (p *TokenProxy) Descriptor(key string) (*Descriptor, bool) {
	p.init()
	v, ok := p.tokens[key]
	if !ok {
		return nil, false
	}
	return &Descriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}, true
}

// Err returns the error from the injection, if any.
func (p *TokenProxy) Err() error {
	return p.err
}
