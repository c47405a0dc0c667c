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
	"strings"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{DefaultScopedName, false},
		{"[local]", false},
		{"_[hash:8]", false},
		{"[name]-[hash:hex:6]", false},
		{"", true},
		{"[name]", true},
		{"[local]-[version]", true},
		{"[local]-[hash:rot13:5]", true},
		{"[local]-[name:3]", true},
	}
	for _, tt := range tests {
		_, err := ParseTemplate(tt.pattern)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTemplate(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
		}
	}
}

func TestTemplateExpand(t *testing.T) {
	tmpl, err := ParseTemplate("[path]_[name]_[ext]_[local]")
	if err != nil {
		t.Fatal(err)
	}
	got := tmpl.Expand("/app/src/ui/button.module.css", "/app", "btn")
	if got != "src_ui_button_css_btn" {
		t.Errorf("Expand = %q", got)
	}
}

func TestTemplateHashLengths(t *testing.T) {
	tmpl, err := ParseTemplate("h[hash:hex:12]")
	if err != nil {
		t.Fatal(err)
	}
	got := tmpl.Expand("/app/a.module.css", "/app", "x")
	if len(got) != 13 || strings.Trim(got[1:], "0123456789abcdef") != "" {
		t.Errorf("Expand = %q, want 12 hex chars", got)
	}

	a := tmpl.Expand("/app/a.module.css", "/app", "x")
	b := tmpl.Expand("/app/a.module.css", "/app", "y")
	if a == b {
		t.Errorf("different locals should hash differently")
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := map[string]string{
		"abc":    "abc",
		"1abc":   "_1abc",
		"-1abc":  "_-1abc",
		"a/b.c":  "a_b_c",
		"":       "_",
		"-ok":    "-ok",
		"--var":  "_--var",
	}
	for in, want := range tests {
		if got := sanitizeIdent(in); got != want {
			t.Errorf("sanitizeIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"btn":           "btn",
		"btn-primary":   "btnPrimary",
		"btn_primary":   "btnPrimary",
		"BTN-PRIMARY":   "btnPrimary",
		"btnPrimary":    "btnPrimary",
		"a--b":          "aB",
	}
	for in, want := range tests {
		if got := camelCase(in); got != want {
			t.Errorf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
	if got := dashesCamelCase("btn-primary_lg"); got != "btnPrimary_lg" {
		t.Errorf("dashesCamelCase = %q", got)
	}
}
