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
	"bytes"
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/lazycss/internal/mapfs"
)

type fakeElement struct {
	attrs  map[string]string
	text   string
	writes int
}

func (e *fakeElement) SetAttribute(name, value string) { e.attrs[name] = value }
func (e *fakeElement) TextContent() string             { return e.text }
func (e *fakeElement) SetTextContent(text string) {
	e.text = text
	e.writes++
}

type fakeDocument struct {
	head    []*fakeElement
	queries int
	failing bool
}

func (d *fakeDocument) QueryStyle(id string) Element {
	d.queries++
	for _, el := range d.head {
		if el.attrs[AttrID] == id {
			return el
		}
	}
	return nil
}

func (d *fakeDocument) CreateStyle() Element {
	return &fakeElement{attrs: make(map[string]string)}
}

func (d *fakeDocument) AppendToHead(el Element) error {
	if d.failing {
		return errors.New("head is read-only")
	}
	d.head = append(d.head, el.(*fakeElement))
	return nil
}

func TestRegistryEnsureOnce(t *testing.T) {
	doc := &fakeDocument{}
	r := NewRegistry()

	for range 3 {
		if err := r.Ensure(doc, "a.css-xyz12", "a{}"); err != nil {
			t.Fatal(err)
		}
	}
	if len(doc.head) != 1 {
		t.Fatalf("expected one style element, got %d", len(doc.head))
	}
	el := doc.head[0]
	if el.attrs["type"] != "text/css" || el.attrs[AttrID] != "a.css-xyz12" {
		t.Errorf("unexpected attributes %v", el.attrs)
	}
	if el.writes != 1 {
		t.Errorf("text written %d times, want 1", el.writes)
	}

	if err := r.Ensure(doc, "a.css-xyz12", "a{color:red}"); err != nil {
		t.Fatal(err)
	}
	if len(doc.head) != 1 || el.text != "a{color:red}" {
		t.Errorf("changed css should update the existing element")
	}
}

func TestRegistryAdoptsExistingElement(t *testing.T) {
	existing := &fakeElement{attrs: map[string]string{AttrID: "b"}, text: "b{}"}
	doc := &fakeDocument{head: []*fakeElement{existing}}
	r := NewRegistry()

	if err := r.Ensure(doc, "b", "b{}"); err != nil {
		t.Fatal(err)
	}
	if len(doc.head) != 1 || existing.writes != 0 {
		t.Errorf("existing tag should be reused untouched")
	}
	if el, ok := r.Lookup("b"); !ok || el != Element(existing) {
		t.Errorf("existing tag should be registered")
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Reset should clear the registry")
	}
}

func TestRegistryAppendError(t *testing.T) {
	doc := &fakeDocument{failing: true}
	if err := NewRegistry().Ensure(doc, "c", "c{}"); err == nil {
		t.Error("expected append error")
	}
}

func TestEnsureInjectedWithoutDocument(t *testing.T) {
	before := Styles().Len()
	if err := EnsureInjected(nil, "server-only", "a{}"); err != nil {
		t.Fatal(err)
	}
	if Styles().Len() != before {
		t.Errorf("nil document must not register anything")
	}
}

func TestTokenProxyInjectsOnceOnRead(t *testing.T) {
	doc := &fakeDocument{}
	proxy := NewTokenProxy(doc, map[string]string{"btn": "b_x"}, "button", ".b_x{}").WithRegistry(NewRegistry())

	if len(doc.head) != 0 {
		t.Fatal("construction must not inject")
	}
	for range 5 {
		if v, ok := proxy.Get("btn"); !ok || v != "b_x" {
			t.Fatalf("Get = %q, %v", v, ok)
		}
	}
	if _, ok := proxy.Get("missing"); ok {
		t.Error("missing key reported present")
	}
	if len(doc.head) != 1 || doc.queries != 1 {
		t.Errorf("expected exactly one injection, head=%d queries=%d", len(doc.head), doc.queries)
	}
	if proxy.Err() != nil {
		t.Errorf("unexpected error %v", proxy.Err())
	}
}

func TestTokenProxyInjectsOnKeyEnumeration(t *testing.T) {
	doc := &fakeDocument{}
	proxy := NewTokenProxy(doc, map[string]string{"b": "2", "a": "1"}, "keys", "x{}").WithRegistry(NewRegistry())

	if got := strings.Join(proxy.Keys(), ","); got != "a,b" {
		t.Errorf("Keys() = %s", got)
	}
	if len(doc.head) != 1 {
		t.Fatalf("enumeration should inject")
	}
	if !proxy.Has("a") || proxy.Has("c") {
		t.Errorf("Has gave wrong answers")
	}
	d, ok := proxy.Descriptor("b")
	if !ok || d.Value != "2" || !d.Enumerable {
		t.Errorf("Descriptor = %+v, %v", d, ok)
	}
	if len(doc.head) != 1 || doc.queries != 1 {
		t.Errorf("later reads must not inject again")
	}
}

func TestTokenProxyWithoutDocument(t *testing.T) {
	proxy := NewTokenProxy(nil, map[string]string{"a": "1"}, "ssr", "a{}")
	if v, _ := proxy.Get("a"); v != "1" {
		t.Errorf("tokens should be readable during server rendering")
	}
}

const page = `<!doctype html>
<html>
<head>
  <title>Test</title>
  <style type="text/css" data-lazy-css-id="old">.old{}</style>
</head>
<body><main>hi</main></body>
</html>`

func TestHTMLDocument(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegistry()
	if err := r.Ensure(doc, "old", ".old{}"); err != nil {
		t.Fatal(err)
	}
	if doc.Changed() {
		t.Error("matching tag should leave the document unchanged")
	}

	if err := r.Ensure(doc, "button.module.css-abcde", ".b>a{color:red}"); err != nil {
		t.Fatal(err)
	}
	if err := r.Ensure(doc, "old", ".old{color:blue}"); err != nil {
		t.Fatal(err)
	}
	if !doc.Changed() {
		t.Error("expected document to be changed")
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		t.Fatal(err)
	}
	html := out.String()
	if !strings.Contains(html, `<style type="text/css" data-lazy-css-id="button.module.css-abcde">.b>a{color:red}</style></head>`) {
		t.Errorf("new style tag missing:\n%s", html)
	}
	if !strings.Contains(html, `data-lazy-css-id="old">.old{color:blue}</style>`) {
		t.Errorf("existing style tag not updated:\n%s", html)
	}
	if strings.Count(html, "data-lazy-css-id") != 2 {
		t.Errorf("expected exactly two style tags:\n%s", html)
	}
}

func TestInlineBatch(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/site/a.html", page, 0644)
	mfs.AddFile("/site/b.html", `<html><head><style data-lazy-css-id="x">x{}</style></head><body></body></html>`, 0644)

	sheets := []Stylesheet{{ID: "x", CSS: "x{}"}}
	files := []string{"/site/a.html", "/site/b.html", "/site/missing.html"}

	results := make(map[string]Result)
	for r := range InlineBatch(mfs, files, sheets, BatchOptions{Parallel: 2}) {
		results[r.File] = r
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if !results["/site/a.html"].Modified {
		t.Error("a.html should be modified")
	}
	if results["/site/b.html"].Modified {
		t.Error("b.html already had the tag")
	}
	if results["/site/missing.html"].Error == "" {
		t.Error("missing file should report an error")
	}

	written, err := mfs.ReadFile("/site/a.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), `data-lazy-css-id="x">x{}</style>`) {
		t.Errorf("a.html not rewritten:\n%s", written)
	}
}

func TestInlineBatchDryRun(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/site/a.html", page, 0644)

	for r := range InlineBatch(mfs, []string{"/site/a.html"}, []Stylesheet{{ID: "y", CSS: "y{}"}}, BatchOptions{DryRun: true}) {
		if !r.Modified {
			t.Error("dry run should still report the change")
		}
	}
	content, _ := mfs.ReadFile("/site/a.html")
	if string(content) != page || mfs.Writes() != 0 {
		t.Error("dry run must not write")
	}
}
