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
package patch

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"
)

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON encodes the map.
func (m *SourceMap) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SourceMap maps the edited text back to the original. Unchanged text is
// mapped at the start of every piece and every line; replacement text maps
// to the start of the range it replaced. Columns count UTF-16 code units.
func (p *Patch) SourceMap(file, source string, includeContent bool) *SourceMap {
	m := &SourceMap{
		Version: 3,
		File:    file,
		Sources: []string{source},
		Names:   []string{},
	}
	if includeContent {
		m.SourcesContent = []string{p.src}
	}

	lines := lineStarts(p.src)
	w := &mappingWriter{}
	for _, pc := range p.pieces() {
		line, col := p.position(lines, pc.origStart)
		w.segment(line, col)
		for i, r := range pc.text {
			if r != '\n' {
				w.genCol += utf16Len(r)
				continue
			}
			w.newline()
			next := pc.origStart + i + 1
			if pc.unchanged && i+1 < len(pc.text) {
				line, col := p.position(lines, next)
				w.segment(line, col)
			}
		}
	}
	m.Mappings = w.String()
	return m
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position converts a byte offset to a zero-based line and UTF-16 column.
func (p *Patch) position(lines []int, offset int) (int, int) {
	line := sort.Search(len(lines), func(i int) bool { return lines[i] > offset }) - 1
	col := 0
	for _, r := range p.src[lines[line]:offset] {
		col += utf16Len(r)
	}
	return line, col
}

func utf16Len(r rune) int {
	if r == utf8.RuneError || r < 0x10000 {
		return 1
	}
	return 2
}

type mappingWriter struct {
	b           strings.Builder
	genCol      int
	prevGenCol  int
	prevLine    int
	prevCol     int
	lineHasSegs bool
}

func (w *mappingWriter) newline() {
	w.b.WriteByte(';')
	w.genCol = 0
	w.prevGenCol = 0
	w.lineHasSegs = false
}

func (w *mappingWriter) segment(line, col int) {
	if w.lineHasSegs {
		w.b.WriteByte(',')
	}
	writeVLQ(&w.b, w.genCol-w.prevGenCol)
	writeVLQ(&w.b, 0)
	writeVLQ(&w.b, line-w.prevLine)
	writeVLQ(&w.b, col-w.prevCol)
	w.prevGenCol = w.genCol
	w.prevLine = line
	w.prevCol = col
	w.lineHasSegs = true
}

func (w *mappingWriter) String() string {
	return w.b.String()
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends v in the base64 VLQ encoding used by source maps.
func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}
