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
package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/preload"
)

const projectYAML = `included-paths:
  - src
  - "**/widgets/**"
dev: false
css-modules:
  scoped-name: "[name]_[local]"
  locals-convention: dashes
css-plugins:
  - cssnano
build:
  entry-points:
    - src/main.js
  minify: true
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lazycss.yaml", projectYAML)

	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != filepath.Join(dir, "lazycss.yaml") {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Root != dir {
		t.Errorf("Root = %q, want %q", cfg.Root, dir)
	}
	want := []string{filepath.Join(dir, "src"), "**/widgets/**"}
	if !slices.Equal(cfg.IncludedPaths, want) {
		t.Errorf("IncludedPaths = %v, want %v", cfg.IncludedPaths, want)
	}
	if !slices.Equal(cfg.ExcludedPaths, []string{"node_modules"}) {
		t.Errorf("ExcludedPaths = %v", cfg.ExcludedPaths)
	}
	if cfg.Dev == nil || *cfg.Dev {
		t.Errorf("Dev = %v, want false", cfg.Dev)
	}
	if cfg.PreloadMode != string(preload.ModeCSS) || cfg.PreloadHelper != preload.DefaultHelper {
		t.Errorf("preload defaults not applied: %q %q", cfg.PreloadMode, cfg.PreloadHelper)
	}
	if cfg.CacheSize != cssproc.DefaultCacheSize {
		t.Errorf("CacheSize = %d", cfg.CacheSize)
	}

	modules := cfg.Modules()
	if modules.GenerateScopedName != "[name]_[local]" || modules.LocalsConvention != cssproc.Dashes {
		t.Errorf("Modules = %+v", modules)
	}

	host, err := cfg.HostConfig(true)
	if err != nil {
		t.Fatalf("HostConfig: %v", err)
	}
	if !host.SSR || host.Root != dir || len(host.CSSPlugins) != 1 {
		t.Errorf("HostConfig = %+v", host)
	}
	if host.CSSPlugins[0].Name() != cssproc.MinifyPluginName {
		t.Errorf("plugin = %q", host.CSSPlugins[0].Name())
	}

	bc, err := cfg.BundlerConfig()
	if err != nil {
		t.Fatalf("BundlerConfig: %v", err)
	}
	if !bc.Minify || !slices.Equal(bc.EntryPoints, []string{"src/main.js"}) {
		t.Errorf("BundlerConfig = %+v", bc)
	}

	opts := cfg.PluginOptions(nil, nil)
	if opts.Dev == nil || opts.PreloadMode != preload.ModeCSS {
		t.Errorf("PluginOptions = %+v", opts)
	}
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lazycss.yaml", projectYAML)
	t.Setenv("LAZYCSS_PRELOAD_MODE", "all")
	t.Setenv("LAZYCSS_DEV", "true")
	t.Setenv("LAZYCSS_CSS_MODULES_SCOPED_NAME", "[local]_[hash:6]")

	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PreloadMode != "all" {
		t.Errorf("PreloadMode = %q", cfg.PreloadMode)
	}
	if cfg.Dev == nil || !*cfg.Dev {
		t.Errorf("Dev = %v, want true", cfg.Dev)
	}
	if cfg.CSSModules.ScopedName != "[local]_[hash:6]" {
		t.Errorf("ScopedName = %q", cfg.CSSModules.ScopedName)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "LAZYCSS_PRELOAD_HELPER=__preload\n")
	t.Cleanup(func() { _ = os.Unsetenv("LAZYCSS_PRELOAD_HELPER") })

	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PreloadHelper != "__preload" {
		t.Errorf("PreloadHelper = %q", cfg.PreloadHelper)
	}
}

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "" {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Dev != nil {
		t.Errorf("Dev should be unset, got %v", *cfg.Dev)
	}
	if len(cfg.IncludedPaths) != 0 {
		t.Errorf("IncludedPaths = %v", cfg.IncludedPaths)
	}
	if cfg.CSSModules.ScopedName != cssproc.DefaultScopedName {
		t.Errorf("ScopedName = %q", cfg.CSSModules.ScopedName)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lazycss.yaml", "included-paths: [\n")
	if _, err := Load(viper.New(), dir); err == nil {
		t.Error("expected a parse error")
	}

	dir = t.TempDir()
	writeFile(t, dir, "lazycss.yaml", "css-plugins: [postcss-nope]\n")
	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.HostConfig(false); err == nil {
		t.Error("expected an unknown plugin error")
	}
}
