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
	"strings"
	"testing"
)

func TestPatchEdits(t *testing.T) {
	p := New("call(a, b, c);")
	if p.HasChanged() {
		t.Fatal("new patch should be unchanged")
	}
	if !p.Remove(6, 12) {
		t.Fatal("Remove rejected")
	}
	if got := p.String(); got != "call(a);" {
		t.Errorf("String() = %q", got)
	}
	if !p.HasChanged() {
		t.Error("HasChanged should be true")
	}
	if p.Original() != "call(a, b, c);" {
		t.Error("original must not change")
	}
}

func TestPatchRejectsOverlap(t *testing.T) {
	p := New("0123456789")
	if !p.Overwrite(2, 5, "X") {
		t.Fatal("first edit rejected")
	}
	tests := []struct{ start, end int }{
		{4, 6}, {1, 3}, {2, 5}, {0, 10}, {3, 4},
	}
	for _, tt := range tests {
		if p.Remove(tt.start, tt.end) {
			t.Errorf("overlapping edit [%d,%d) accepted", tt.start, tt.end)
		}
	}
	if !p.Overwrite(5, 6, "Y") || !p.Remove(0, 2) {
		t.Fatal("adjacent edits should be accepted")
	}
	if got := p.String(); got != "XY6789" {
		t.Errorf("String() = %q", got)
	}
}

func TestPatchRejectsInvalidRanges(t *testing.T) {
	p := New("abc")
	for _, r := range [][2]int{{-1, 1}, {1, 1}, {2, 1}, {0, 4}} {
		if p.Remove(r[0], r[1]) {
			t.Errorf("range %v accepted", r)
		}
	}
	if p.HasChanged() {
		t.Error("rejected edits must not count as changes")
	}
}

func TestSourceMap(t *testing.T) {
	p := New("a(x, y);\nb();\n")
	p.Remove(3, 6)

	m := p.SourceMap("out.js", "in.js", true)
	if m.Version != 3 || m.Sources[0] != "in.js" || m.SourcesContent[0] != p.Original() {
		t.Errorf("unexpected header %+v", m)
	}
	// line 0: col 0 -> 0:0, col 3 -> 0:6; line 1: col 0 -> 1:0
	if m.Mappings != "AAAA,GAAM;AACN;" {
		t.Errorf("Mappings = %q", m.Mappings)
	}

	data, err := m.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version":3`) {
		t.Errorf("JSON = %s", data)
	}
}

func TestWriteVLQ(t *testing.T) {
	tests := map[int]string{0: "A", 1: "C", -1: "D", 15: "e", 16: "gB", -16: "hB", 123: "2H"}
	for v, want := range tests {
		var b strings.Builder
		writeVLQ(&b, v)
		if b.String() != want {
			t.Errorf("writeVLQ(%d) = %q, want %q", v, b.String(), want)
		}
	}
}
