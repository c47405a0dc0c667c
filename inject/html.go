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
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDocument is a Document over a parsed HTML tree, used to write style
// tags into server-rendered markup.
type HTMLDocument struct {
	root    *html.Node
	changed bool
}

// ParseHTML parses a complete HTML document.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &HTMLDocument{root: root}, nil
}

// Changed reports whether any style element was added or rewritten.
func (d *HTMLDocument) Changed() bool {
	return d.changed
}

// Render writes the document.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// QueryStyle implements Document.
func (d *HTMLDocument) QueryStyle(id string) Element {
	for n := range d.root.Descendants() {
		if n.Type != html.ElementNode || n.DataAtom != atom.Style {
			continue
		}
		if v, ok := attrLookup(n, AttrID); ok && v == id {
			return &htmlElement{node: n, doc: d}
		}
	}
	return nil
}

// CreateStyle implements Document.
func (d *HTMLDocument) CreateStyle() Element {
	return &htmlElement{
		node: &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style"},
		doc:  d,
	}
}

// AppendToHead implements Document.
func (d *HTMLDocument) AppendToHead(el Element) error {
	e, ok := el.(*htmlElement)
	if !ok {
		return fmt.Errorf("element %T does not belong to an HTML document", el)
	}
	head := d.head()
	if head == nil {
		return fmt.Errorf("document has no <head>")
	}
	head.AppendChild(e.node)
	d.changed = true
	return nil
}

func (d *HTMLDocument) head() *html.Node {
	for n := range d.root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == atom.Head {
			return n
		}
	}
	return nil
}

type htmlElement struct {
	node *html.Node
	doc  *HTMLDocument
}

func (e *htmlElement) SetAttribute(name, value string) {
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

func (e *htmlElement) TextContent() string {
	var b strings.Builder
	for c := range e.node.ChildNodes() {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func (e *htmlElement) SetTextContent(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	e.doc.changed = true
}

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
