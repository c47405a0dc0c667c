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
// Package config loads lazycss settings from lazycss.yaml, LAZYCSS_*
// environment variables (a .env file is read first) and command flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/bundler"
	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/pathfilter"
	"bennypowers.dev/lazycss/plugin"
	"bennypowers.dev/lazycss/preload"
)

// FileName is the config file looked up in the project root, without extension.
const FileName = "lazycss"

// EnvPrefix prefixes environment overrides, e.g. LAZYCSS_PRELOAD_MODE.
const EnvPrefix = "LAZYCSS"

// CSSModules is the scoped naming section.
type CSSModules struct {
	ScopedName       string `mapstructure:"scoped-name"`
	LocalsConvention string `mapstructure:"locals-convention"`
}

// Build is the esbuild section.
type Build struct {
	EntryPoints    []string `mapstructure:"entry-points"`
	SSREntryPoints []string `mapstructure:"ssr-entry-points"`
	Outdir         string   `mapstructure:"outdir"`
	SSROutdir      string   `mapstructure:"ssr-outdir"`
	Minify         bool     `mapstructure:"minify"`
	External       []string `mapstructure:"external"`
}

// Config is the merged configuration.
type Config struct {
	Root          string     `mapstructure:"root"`
	IncludedPaths []string   `mapstructure:"included-paths"`
	ExcludedPaths []string   `mapstructure:"excluded-paths"`
	PreloadMode   string     `mapstructure:"preload-mode"`
	PreloadHelper string     `mapstructure:"preload-helper"`
	CSSModules    CSSModules `mapstructure:"css-modules"`
	CSSPlugins    []string   `mapstructure:"css-plugins"`
	CacheSize     int        `mapstructure:"cache-size"`
	Build         Build      `mapstructure:"build"`

	// Dev is nil when neither the file, the environment nor a flag set it.
	Dev *bool `mapstructure:"-"`
	// File is the config file used, if any.
	File string `mapstructure:"-"`
}

// SetDefaults registers every key so environment overrides apply to keys
// absent from the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("included-paths", []string{})
	v.SetDefault("excluded-paths", pathfilter.DefaultExcluded)
	v.SetDefault("preload-mode", string(preload.ModeCSS))
	v.SetDefault("preload-helper", preload.DefaultHelper)
	v.SetDefault("css-modules.scoped-name", cssproc.DefaultScopedName)
	v.SetDefault("css-modules.locals-convention", "")
	v.SetDefault("css-plugins", []string{})
	v.SetDefault("cache-size", cssproc.DefaultCacheSize)
	v.SetDefault("build.entry-points", []string{})
	v.SetDefault("build.ssr-entry-points", []string{})
	v.SetDefault("build.outdir", "")
	v.SetDefault("build.ssr-outdir", "")
	v.SetDefault("build.minify", false)
	v.SetDefault("build.external", []string{})
}

// Load reads configuration into v and decodes it. dir is searched for
// lazycss.{yaml,yml,json,toml} and .env unless v already has a config file set.
func Load(v *viper.Viper, dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid project directory: %w", err)
	}

	// a missing .env is fine; variables already in the environment win
	_ = godotenv.Load(filepath.Join(absDir, ".env"))

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if v.ConfigFileUsed() == "" {
		v.SetConfigName(FileName)
		v.AddConfigPath(absDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if v.IsSet("dev") {
		cfg.Dev = plugin.Bool(v.GetBool("dev"))
	}

	base := absDir
	if cfg.File != "" {
		base = filepath.Dir(cfg.File)
	}
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(base, cfg.Root)
	}
	for i, p := range cfg.IncludedPaths {
		// globs and absolute prefixes are kept as written
		if !filepath.IsAbs(p) && !strings.ContainsAny(p, "*?[{") {
			cfg.IncludedPaths[i] = filepath.Join(cfg.Root, p)
		}
	}
	return &cfg, nil
}

// Modules returns the scoped naming configuration.
func (c *Config) Modules() *cssproc.ModulesConfig {
	return &cssproc.ModulesConfig{
		GenerateScopedName: c.CSSModules.ScopedName,
		LocalsConvention:   cssproc.LocalsConvention(c.CSSModules.LocalsConvention),
	}
}

// PluginOptions returns the plugin options described by c.
func (c *Config) PluginOptions(logger output.Logger, fsys fs.FileSystem) plugin.Options {
	return plugin.Options{
		IncludedPaths: c.IncludedPaths,
		ExcludedPaths: c.ExcludedPaths,
		Dev:           c.Dev,
		PreloadMode:   preload.Mode(c.PreloadMode),
		PreloadHelper: c.PreloadHelper,
		CacheSize:     c.CacheSize,
		Logger:        logger,
		FS:            fsys,
	}
}

// HostConfig returns the host configuration for a pass.
func (c *Config) HostConfig(ssr bool) (plugin.HostConfig, error) {
	modules := c.Modules()
	plugins, err := cssproc.LookupAll(c.CSSPlugins, modules, c.Root)
	if err != nil {
		return plugin.HostConfig{}, fmt.Errorf("invalid css-plugins: %w", err)
	}
	return plugin.HostConfig{
		SSR:        ssr,
		Root:       c.Root,
		CSSModules: modules,
		CSSPlugins: plugins,
	}, nil
}

// BundlerConfig returns the esbuild settings described by c.
func (c *Config) BundlerConfig() (bundler.Config, error) {
	host, err := c.HostConfig(false)
	if err != nil {
		return bundler.Config{}, err
	}
	return bundler.Config{
		Root:           c.Root,
		EntryPoints:    c.Build.EntryPoints,
		SSREntryPoints: c.Build.SSREntryPoints,
		Outdir:         c.Build.Outdir,
		SSROutdir:      c.Build.SSROutdir,
		Minify:         c.Build.Minify,
		External:       c.Build.External,
		CSSModules:     host.CSSModules,
		CSSPlugins:     host.CSSPlugins,
	}, nil
}
