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
package plugin

import (
	"fmt"

	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/preload"
)

// Options configures a Plugin. They are read once and never mutated.
type Options struct {
	// IncludedPaths are the id prefixes (or globs) lazycss may touch.
	// Required and non-empty.
	IncludedPaths []string
	// ExcludedPaths are id substrings (or globs) that are never touched.
	// Nil selects pathfilter.DefaultExcluded.
	ExcludedPaths []string
	// Dev selects development behavior. Required.
	Dev *bool
	// PreloadMode selects the preload-call rewrite. Empty selects preload.ModeCSS.
	PreloadMode preload.Mode
	// PreloadHelper is the bundler's preload helper. Empty selects preload.DefaultHelper.
	PreloadHelper string
	// CacheSize bounds the processed CSS cache. Zero selects cssproc.DefaultCacheSize.
	CacheSize int
	Logger    output.Logger
	FS        fs.FileSystem
}

// Bool returns a pointer to v, for Options.Dev.
func Bool(v bool) *bool {
	return &v
}

// HostConfig is what the host reports once its own configuration is resolved.
type HostConfig struct {
	// SSR is set for the server-render pass.
	SSR bool
	// Root is the project root, used by the scoped-name template.
	Root string
	// CSSModules is the host's scoped-CSS naming configuration. Required.
	CSSModules *cssproc.ModulesConfig
	// CSSPlugins are user CSS plugins, run before the built-in ones.
	CSSPlugins []cssproc.Plugin
}

// ConfigError is a fatal configuration problem found at ConfigResolved.
type ConfigError struct {
	Field string
	Hint  string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s configResolved] %s is required", logPrefix, e.Field)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (o Options) validate() error {
	if len(o.IncludedPaths) == 0 {
		return &ConfigError{
			Field: "included-paths",
			Hint:  `provide the source directories to track, e.g. included-paths: ["/abs/project/src"]`,
		}
	}
	if o.Dev == nil {
		return &ConfigError{
			Field: "dev",
			Hint:  "set dev: true for development servers and dev: false for production builds",
		}
	}
	if o.PreloadMode != "" {
		if _, err := preload.ParseMode(string(o.PreloadMode)); err != nil {
			return &ConfigError{Field: "a valid preload-mode", Hint: err.Error()}
		}
	}
	return nil
}

func (c HostConfig) validate() error {
	if c.CSSModules == nil {
		return &ConfigError{
			Field: "css-modules",
			Hint:  "configure the scoped CSS naming, e.g. css-modules.scoped-name: " + cssproc.DefaultScopedName,
		}
	}
	if _, err := cssproc.ParseTemplate(scopedName(c.CSSModules)); err != nil {
		return &ConfigError{Field: "a valid css-modules.scoped-name", Hint: err.Error()}
	}
	if _, err := cssproc.ParseLocalsConvention(string(c.CSSModules.LocalsConvention)); err != nil {
		return &ConfigError{Field: "a valid css-modules.locals-convention", Hint: err.Error()}
	}
	return nil
}

func scopedName(cfg *cssproc.ModulesConfig) string {
	if cfg.GenerateScopedName == "" {
		return cssproc.DefaultScopedName
	}
	return cfg.GenerateScopedName
}
