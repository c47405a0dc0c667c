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
// Package inject is the Go model of the lazy CSS runtime. It injects
// stylesheets into documents at most once per id, exposes scoped tokens
// through a proxy that injects on first use, and pre-inlines stylesheets
// into rendered HTML files.
package inject

import (
	"fmt"
	"sync"
)

// AttrID is the attribute that identifies an injected style element.
const AttrID = "data-lazy-css-id"

// Element is a style element in a document.
type Element interface {
	SetAttribute(name, value string)
	TextContent() string
	SetTextContent(text string)
}

// Document is the subset of a DOM document the injector needs.
type Document interface {
	// QueryStyle returns the style element whose data-lazy-css-id equals id,
	// or nil.
	QueryStyle(id string) Element
	// CreateStyle returns a new, detached style element.
	CreateStyle() Element
	// AppendToHead attaches el to the document head.
	AppendToHead(el Element) error
}

// Registry maps injection ids to the style elements holding their CSS.
type Registry struct {
	mu     sync.Mutex
	styles map[string]Element
}

// NewRegistry creates an empty registry. Use one registry per document when
// rendering several documents in one process.
func NewRegistry() *Registry {
	return &Registry{styles: make(map[string]Element)}
}

var (
	stylesOnce sync.Once
	styles     *Registry
)

// Styles returns the process-wide registry used by EnsureInjected.
func Styles() *Registry {
	stylesOnce.Do(func() {
		styles = NewRegistry()
	})
	return styles
}

// Ensure makes doc contain exactly one style element for id whose text is css.
// An element already present in the document is reused.
func (r *Registry) Ensure(doc Document, id, css string) error {
	if doc == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	el := r.styles[id]
	if el == nil {
		el = doc.QueryStyle(id)
	}
	if el == nil {
		el = doc.CreateStyle()
		el.SetAttribute("type", "text/css")
		el.SetAttribute(AttrID, id)
		if err := doc.AppendToHead(el); err != nil {
			return fmt.Errorf("injecting %s: %w", id, err)
		}
	}
	r.styles[id] = el

	if el.TextContent() != css {
		el.SetTextContent(css)
	}
	return nil
}

// Lookup returns the element registered for id.
func (r *Registry) Lookup(id string) (Element, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.styles[id]
	return el, ok
}

// Len reports the number of registered ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.styles)
}

// Reset forgets every registered element. The elements stay in their documents.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.styles)
}

// EnsureInjected injects css under id into doc using the process-wide
// registry. A nil document (server rendering) is a no-op.
func EnsureInjected(doc Document, id, css string) error {
	if doc == nil {
		return nil
	}
	return Styles().Ensure(doc, id, css)
}
