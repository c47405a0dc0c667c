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

// Package cssproc turns a stylesheet into the final CSS text for a lazily
// injected module, together with the scoped class-name tokens of CSS modules.
package cssproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"

	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/moduleid"
)

// Well-known plugin names. A user plugin carrying one of these names
// replaces the built-in plugin for that step.
const (
	ModulesPluginName = "postcss-modules"
	MinifyPluginName  = "cssnano"
)

// Plugin is one step of the CSS transform chain.
type Plugin interface {
	// Name identifies the plugin for deduplication. Plugins with an empty
	// name are compared by identity.
	Name() string
	// Process transforms css read from file.
	Process(ctx context.Context, file, css string) (string, error)
}

// ModulesConfig is the project's scoped-name configuration.
type ModulesConfig struct {
	// GenerateScopedName is a naming template, see ParseTemplate.
	// Empty selects DefaultScopedName.
	GenerateScopedName string
	// LocalsConvention controls the token keys exported to JavaScript.
	// Empty selects camelCaseOnly.
	LocalsConvention LocalsConvention
}

// Params describes one stylesheet to process.
type Params struct {
	// ID is the original (non-virtual) module id of the stylesheet.
	ID string
	// Modules enables scoping for *.module.* files. Nil disables it.
	Modules *ModulesConfig
	// Dev skips minification.
	Dev bool
	// Plugins are user plugins, applied first and in order.
	Plugins []Plugin
	// Root anchors the [path] and [hash] template variables.
	Root string
	// Cache memoizes results across rebuilds. Optional.
	Cache *Cache
}

// Result is the processed stylesheet.
type Result struct {
	CSS    string
	Tokens map[string]string
}

// Error reports a read or transform failure for a stylesheet.
type Error struct {
	ID  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("processing %s: %v", e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Process reads the stylesheet at p.ID and runs the effective plugin chain over it.
func Process(ctx context.Context, fsys fs.FileSystem, p Params) (*Result, error) {
	id := moduleid.Normalize(p.ID)

	source, err := fsys.ReadFile(id)
	if err != nil {
		return nil, &Error{ID: id, Err: err}
	}

	var key string
	if p.Cache != nil {
		sum := sha256.Sum256(source)
		key = cacheKey(id, p.Dev, hex.EncodeToString(sum[:]))
		if cached, ok := p.Cache.Get(key); ok {
			return cached, nil
		}
	}

	tokens := make(map[string]string)
	plugins, err := EffectivePlugins(p, func(t map[string]string) {
		maps.Copy(tokens, t)
	})
	if err != nil {
		return nil, &Error{ID: id, Err: err}
	}

	ctx = withTokenSink(ctx, func(t map[string]string) {
		maps.Copy(tokens, t)
	})

	css := string(source)
	for _, plugin := range plugins {
		css, err = plugin.Process(ctx, id, css)
		if err != nil {
			return nil, &Error{ID: id, Err: fmt.Errorf("%s: %w", pluginID(plugin), err)}
		}
	}

	result := &Result{CSS: css, Tokens: tokens}
	if p.Cache != nil {
		p.Cache.Add(key, result)
	}
	return result, nil
}

// EffectivePlugins returns the deduplicated chain Process would run: the
// user plugins, then the scoping plugin for CSS modules, then the minifier
// outside development mode. onTokens receives the scoped tokens.
func EffectivePlugins(p Params, onTokens func(map[string]string)) ([]Plugin, error) {
	plugins := make([]Plugin, 0, len(p.Plugins)+2)
	names := make(map[string]bool)
	for _, plugin := range p.Plugins {
		if plugin == nil {
			continue
		}
		plugins = append(plugins, plugin)
		names[plugin.Name()] = true
	}

	if moduleid.IsCSSModule(p.ID) && p.Modules != nil && !names[ModulesPluginName] {
		modules, err := NewModulesPlugin(*p.Modules, p.Root, onTokens)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, modules)
	}

	if !p.Dev && !names[MinifyPluginName] {
		plugins = append(plugins, NewMinifier())
	}

	return dedupe(plugins), nil
}

// dedupe drops repeated plugins, keeping the first occurrence.
func dedupe(plugins []Plugin) []Plugin {
	seen := make(map[string]bool, len(plugins))
	out := plugins[:0:0]
	for _, p := range plugins {
		id := pluginID(p)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

func pluginID(p Plugin) string {
	if name := p.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("%T@%p", p, p)
}

type tokenSinkKey struct{}

// withTokenSink lets any scoping plugin in the chain, including one the
// user configured, report its tokens back to Process.
func withTokenSink(ctx context.Context, sink func(map[string]string)) context.Context {
	return context.WithValue(ctx, tokenSinkKey{}, sink)
}

func tokenSink(ctx context.Context) func(map[string]string) {
	sink, _ := ctx.Value(tokenSinkKey{}).(func(map[string]string))
	return sink
}
