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
// Package patch applies non-overlapping edits to a source text by byte range
// and produces the edited text with a version 3 source map.
package patch

import (
	"slices"
	"strings"
)

type edit struct {
	start, end int
	text       string
}

// Patch is an edit overlay over an immutable source. Offsets always refer
// to the original source.
type Patch struct {
	src   string
	edits []edit
}

// New returns an overlay over src.
func New(src string) *Patch {
	return &Patch{src: src}
}

// Remove deletes src[start:end]. It reports false, leaving the patch
// unchanged, when the range is empty, out of bounds, or overlaps an
// earlier edit.
func (p *Patch) Remove(start, end int) bool {
	return p.add(edit{start: start, end: end})
}

// Overwrite replaces src[start:end] with text under the same rules as Remove.
func (p *Patch) Overwrite(start, end int, text string) bool {
	return p.add(edit{start: start, end: end, text: text})
}

func (p *Patch) add(e edit) bool {
	if e.start < 0 || e.end > len(p.src) || e.start >= e.end {
		return false
	}
	i, _ := slices.BinarySearchFunc(p.edits, e.start, func(x edit, start int) int {
		return x.start - start
	})
	if i > 0 && p.edits[i-1].end > e.start {
		return false
	}
	if i < len(p.edits) && p.edits[i].start < e.end {
		return false
	}
	p.edits = slices.Insert(p.edits, i, e)
	return true
}

// HasChanged reports whether any edit was accepted.
func (p *Patch) HasChanged() bool {
	return len(p.edits) > 0
}

// Original returns the unedited source.
func (p *Patch) Original() string {
	return p.src
}

// String returns the edited text.
func (p *Patch) String() string {
	var b strings.Builder
	b.Grow(len(p.src))
	for _, pc := range p.pieces() {
		b.WriteString(pc.text)
	}
	return b.String()
}

type piece struct {
	text      string
	origStart int
	unchanged bool
}

func (p *Patch) pieces() []piece {
	pieces := make([]piece, 0, 2*len(p.edits)+1)
	pos := 0
	for _, e := range p.edits {
		if pos < e.start {
			pieces = append(pieces, piece{text: p.src[pos:e.start], origStart: pos, unchanged: true})
		}
		if e.text != "" {
			pieces = append(pieces, piece{text: e.text, origStart: e.start})
		}
		pos = e.end
	}
	if pos < len(p.src) {
		pieces = append(pieces, piece{text: p.src[pos:], origStart: pos, unchanged: true})
	}
	return pieces
}
