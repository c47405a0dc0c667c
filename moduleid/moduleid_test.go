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
package moduleid

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"plain", "/app/src/a.css", "/app/src/a.css"},
		{"marker", "\x00/app/src/a.css", "/app/src/a.css"},
		{"repeated markers", "\x00\x00/app/src/a.css", "/app/src/a.css"},
		{"query", "/app/src/a.css?used&t=123", "/app/src/a.css"},
		{"marker and query", "\x00/app/src/a.js?v=1", "/app/src/a.js"},
		{"empty", "", ""},
		{"only query", "?inline", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.id)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.id, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestVirtualRoundTrip(t *testing.T) {
	ids := []string{
		"/app/src/button.module.css",
		"\x00/app/src/button.module.css?used",
		"/app/src/theme.scss",
	}
	for _, id := range ids {
		virtual := ToVirtual(id)
		if !IsVirtual(virtual) {
			t.Errorf("ToVirtual(%q) = %q is not virtual", id, virtual)
		}
		if IsCSS(virtual) {
			t.Errorf("virtual id %q must not look like a stylesheet", virtual)
		}
		if got := FromVirtual(virtual); got != Normalize(id) {
			t.Errorf("FromVirtual(ToVirtual(%q)) = %q, want %q", id, got, Normalize(id))
		}
	}
}

func TestToVirtual(t *testing.T) {
	got := ToVirtual("/app/src/a.css")
	want := "\x00lazy-css-inliner:/app/src/a.css.js"
	if got != want {
		t.Errorf("ToVirtual = %q, want %q", got, want)
	}
}

func TestFromVirtualPassesThroughForeignIDs(t *testing.T) {
	for _, id := range []string{"/app/src/a.js", "\x00other:/a.css.js", ""} {
		if got := FromVirtual(id); got != id {
			t.Errorf("FromVirtual(%q) = %q, want unchanged", id, got)
		}
	}
}

func TestRuntimeIDIsDistinct(t *testing.T) {
	if !IsVirtual(RuntimeID) {
		t.Fatalf("RuntimeID should carry the lazycss prefix")
	}
	if IsCSS(FromVirtual(RuntimeID)) {
		t.Errorf("RuntimeID must not map back to a stylesheet")
	}
}

func TestIsCSS(t *testing.T) {
	tests := []struct {
		id        string
		css       bool
		cssModule bool
	}{
		{"/a/b.css", true, false},
		{"/a/b.module.css", true, true},
		{"/a/b.module.scss?inline", true, true},
		{"/a/b.less", true, false},
		{"/a/b.styl", true, false},
		{"/a/b.js", false, false},
		{"/a/b.css.js", false, false},
		{"/a/module.css", true, false},
	}
	for _, tt := range tests {
		if got := IsCSS(tt.id); got != tt.css {
			t.Errorf("IsCSS(%q) = %v, want %v", tt.id, got, tt.css)
		}
		if got := IsCSSModule(tt.id); got != tt.cssModule {
			t.Errorf("IsCSSModule(%q) = %v, want %v", tt.id, got, tt.cssModule)
		}
	}
}
