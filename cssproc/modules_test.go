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
	"context"
	"strings"
	"testing"
)

func scopeCSS(t *testing.T, cfg ModulesConfig, source string) (string, map[string]string) {
	t.Helper()
	var tokens map[string]string
	p, err := NewModulesPlugin(cfg, "/app", func(m map[string]string) { tokens = m })
	if err != nil {
		t.Fatalf("NewModulesPlugin failed: %v", err)
	}
	out, err := p.Process(context.Background(), "/app/src/button.module.css", source)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return out, tokens
}

func TestModulesKeyframes(t *testing.T) {
	out, tokens := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x"}, `.spin { animation: rotate 1s linear infinite; }
@keyframes rotate { from { transform: rotate(0deg); } to { transform: rotate(360deg); } }
`)
	for _, want := range []string{"animation: rotate_x 1s", "@keyframes rotate_x", "transform: rotate(0deg)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	if tokens["rotate"] != "rotate_x" || tokens["spin"] != "spin_x" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestModulesBareGlobal(t *testing.T) {
	out, tokens := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x"}, `:global .theme .a, .b { color: red; }`)
	if !strings.Contains(out, ".theme .a, .b_x") {
		t.Errorf("bare :global should last until the comma, got %q", out)
	}
	if _, ok := tokens["a"]; ok {
		t.Errorf("global names must not be exported: %v", tokens)
	}
}

func TestModulesLocalWrapper(t *testing.T) {
	out, _ := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x"}, `:local(.a) .b { color: red; }`)
	if !strings.Contains(out, ".a_x .b_x") {
		t.Errorf("got %q", out)
	}
}

func TestModulesIgnoresValues(t *testing.T) {
	out, _ := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x"}, `.a { width: .5em; background: url(./img/a.png); content: ".b"; }`)
	for _, want := range []string{"width: .5em", "url(./img/a.png)", `".b"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q untouched in %q", want, out)
		}
	}
}

func TestModulesNestedMedia(t *testing.T) {
	out, tokens := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x"}, `@media (min-width: 600px) { .wide { display: flex; } }`)
	if !strings.Contains(out, "(min-width: 600px)") || !strings.Contains(out, ".wide_x") {
		t.Errorf("got %q", out)
	}
	if tokens["wide"] != "wide_x" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestModulesLocalsConvention(t *testing.T) {
	source := `.btn-primary { color: red; }`
	tests := []struct {
		convention LocalsConvention
		keys       []string
	}{
		{AsIs, []string{"btn-primary"}},
		{CamelCase, []string{"btn-primary", "btnPrimary"}},
		{CamelCaseOnly, []string{"btnPrimary"}},
		{Dashes, []string{"btn-primary", "btnPrimary"}},
		{DashesOnly, []string{"btnPrimary"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.convention), func(t *testing.T) {
			_, tokens := scopeCSS(t, ModulesConfig{GenerateScopedName: "[local]_x", LocalsConvention: tt.convention}, source)
			if len(tokens) != len(tt.keys) {
				t.Fatalf("tokens = %v, want keys %v", tokens, tt.keys)
			}
			for _, k := range tt.keys {
				if tokens[k] != "btn-primary_x" {
					t.Errorf("tokens[%q] = %q", k, tokens[k])
				}
			}
		})
	}
}

func TestModulesDefaultTemplateIsStable(t *testing.T) {
	out1, tokens1 := scopeCSS(t, ModulesConfig{}, `.btn { color: red; }`)
	out2, tokens2 := scopeCSS(t, ModulesConfig{}, `.btn { color: red; }`)
	if out1 != out2 || tokens1["btn"] != tokens2["btn"] {
		t.Errorf("scoping is not deterministic")
	}
	if !strings.HasPrefix(tokens1["btn"], "button__btn___") {
		t.Errorf("default template produced %q", tokens1["btn"])
	}
	if len(tokens1["btn"]) != len("button__btn___")+5 {
		t.Errorf("expected a 5 character hash in %q", tokens1["btn"])
	}
}

func TestNewModulesPluginRejectsBadConfig(t *testing.T) {
	if _, err := NewModulesPlugin(ModulesConfig{GenerateScopedName: "[nope]"}, "", nil); err == nil {
		t.Errorf("expected error for unknown variable")
	}
	if _, err := NewModulesPlugin(ModulesConfig{LocalsConvention: "snake"}, "", nil); err == nil {
		t.Errorf("expected error for unknown convention")
	}
}
