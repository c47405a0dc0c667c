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
// Package plugin implements the lazy CSS hooks. A host bundler calls them
// while it resolves, loads and emits modules; the plugin never starts work
// on its own.
//
// CSS imported anywhere below a dynamic import is diverted to a virtual
// JavaScript module that injects the stylesheet at runtime, so it never
// reaches the page's eager CSS bundle.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bennypowers.dev/lazycss/codegen"
	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/internal/patch"
	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/pathfilter"
	"bennypowers.dev/lazycss/preload"
	"bennypowers.dev/lazycss/tracker"
)

// Name identifies the plugin to hosts.
const Name = "lazy-css-modules-inliner"

const logPrefix = "[" + Name + ":"

// ResolvedModule is the host's answer to a resolution request.
type ResolvedModule struct {
	ID       string
	External bool
}

// ModuleInfo is the host's knowledge about a module's edges.
type ModuleInfo struct {
	ID                     string
	Importers              []string
	DynamicImporters       []string
	DynamicallyImportedIDs []string
}

// Host is the bundler side of the hook contract.
type Host interface {
	// Resolve resolves source from importer with every resolver except this
	// plugin. It returns nil when the source cannot be resolved.
	Resolve(ctx context.Context, source, importer string) (*ResolvedModule, error)
	// ModuleInfo returns what the host knows about id so far.
	ModuleInfo(id string) (*ModuleInfo, bool)
	// Warn reports a non-fatal problem.
	Warn(msg string)
}

// LoadResult is a module body served by Load.
type LoadResult struct {
	Code string
}

// Chunk describes an emitted output chunk.
type Chunk struct {
	Name string
	// Modules are the ids of the source modules bundled into the chunk.
	Modules []string
}

// RenderedChunk is a rewritten chunk.
type RenderedChunk struct {
	Code string
	Map  *patch.SourceMap
}

// LoadError is a fatal CSS processing failure for one stylesheet.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s load] Failed to load CSS for: %s: %v", logPrefix, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Plugin holds the lazy subtree state of one build session. A single Plugin
// must serve both the server-render and the client pass so roots found in
// one pass apply to the other.
type Plugin struct {
	opts    Options
	filter  *pathfilter.Filter
	tracker *tracker.Tracker
	cache   *cssproc.Cache
	logger  output.Logger
	fs      fs.FileSystem

	mu      sync.RWMutex
	config  HostConfig
	dev     bool
	mode    preload.Mode
	helper  string
}

// New creates a plugin. Options are validated by ConfigResolved.
func New(opts Options) *Plugin {
	p := &Plugin{
		opts:    opts,
		filter:  pathfilter.New(opts.IncludedPaths, opts.ExcludedPaths),
		tracker: tracker.New(),
		logger:  opts.Logger,
		fs:      opts.FS,
		mode:    preload.ModeCSS,
		helper:  opts.PreloadHelper,
	}
	if p.logger == nil {
		p.logger = output.NewStderrLogger(false)
	}
	if p.fs == nil {
		p.fs = fs.NewOSFileSystem()
	}
	if p.helper == "" {
		p.helper = preload.DefaultHelper
	}
	if cache, err := cssproc.NewCache(opts.CacheSize); err == nil {
		p.cache = cache
	}
	return p
}

// Tracker exposes the lazy subtree state.
func (p *Plugin) Tracker() *tracker.Tracker {
	return p.tracker
}

// Filter exposes the path boundary.
func (p *Plugin) Filter() *pathfilter.Filter {
	return p.filter
}

// SSR reports whether the current pass renders for the server.
func (p *Plugin) SSR() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.SSR
}

// Dev reports whether the plugin runs in development mode.
func (p *Plugin) Dev() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dev
}

// ConfigResolved validates the options against the host configuration and
// records the pass. It is called once per pass.
func (p *Plugin) ConfigResolved(cfg HostConfig) error {
	if err := p.opts.validate(); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	mode, _ := preload.ParseMode(string(p.opts.PreloadMode))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
	p.dev = *p.opts.Dev
	p.mode = mode
	return nil
}

// BuildStart starts a build. Development rebuilds forget the previous graph
// so a long-lived server does not grow without bound.
func (p *Plugin) BuildStart() {
	if p.Dev() {
		p.tracker.Reset()
	}
}

// ResolveDynamicImport marks the target of a literal dynamic import as a
// lazy root. It only acts during the server-render pass and never claims
// the resolution.
func (p *Plugin) ResolveDynamicImport(ctx context.Context, host Host, specifier string, literal bool, importer string) error {
	if !p.SSR() || !literal {
		return nil
	}

	resolved, err := host.Resolve(ctx, specifier, importer)
	if err != nil {
		return fmt.Errorf("resolving dynamic import %q from %s: %w", specifier, importer, err)
	}
	if resolved == nil || resolved.External || !p.filter.Allowed(resolved.ID) {
		return nil
	}

	id := p.tracker.MarkRoot(resolved.ID)
	p.logger.Debug("dynamic root %s (import from %s)", id, moduleid.Normalize(importer))
	return nil
}

// ResolveID propagates laziness from an importer to its static children.
// It returns the id to use for source, or "" to defer to the host. CSS
// children of lazy importers resolve to their virtual id.
func (p *Plugin) ResolveID(ctx context.Context, host Host, source, importer string) (string, error) {
	if source == moduleid.RuntimeID || moduleid.IsVirtual(source) {
		return source, nil
	}
	if importer == "" {
		return "", nil
	}

	importerID := moduleid.Normalize(importer)
	if !p.filter.Allowed(importerID) {
		return "", nil
	}
	lazy := p.tracker.IsLazy(importerID)
	// an eager importer may share a stylesheet that is already lazy
	if !lazy && !moduleid.IsCSS(source) {
		return "", nil
	}

	resolved, err := host.Resolve(ctx, source, importer)
	if err != nil {
		return "", fmt.Errorf("resolving %q from %s: %w", source, importerID, err)
	}
	if resolved == nil || resolved.External || !p.filter.Allowed(resolved.ID) {
		return "", nil
	}

	if !lazy {
		if child := moduleid.Normalize(resolved.ID); moduleid.IsCSS(child) && p.tracker.IsLazy(child) {
			return moduleid.ToVirtual(child), nil
		}
		return "", nil
	}

	child := p.tracker.MarkMember(resolved.ID)
	if moduleid.IsCSS(child) {
		return moduleid.ToVirtual(child), nil
	}
	return child, nil
}

// Transform inspects the host's module info for id. A module imported
// through import() by anything is a root, as is every in-scope module id
// itself imports dynamically.
func (p *Plugin) Transform(host Host, id string) {
	if !p.filter.Allowed(id) {
		return
	}
	info, ok := host.ModuleInfo(id)
	if !ok || info == nil {
		return
	}

	if len(info.DynamicImporters) > 0 {
		p.tracker.MarkRoot(id)
	}
	for _, child := range info.DynamicallyImportedIDs {
		if p.filter.Allowed(child) {
			p.tracker.MarkRoot(child)
		}
	}
}

// Load serves the runtime and virtual stylesheet modules. It returns nil
// for ids it does not own.
func (p *Plugin) Load(ctx context.Context, id string) (*LoadResult, error) {
	if id == moduleid.RuntimeID {
		return &LoadResult{Code: codegen.Runtime()}, nil
	}
	if !moduleid.IsVirtual(id) {
		return nil, nil
	}

	p.mu.RLock()
	cfg := p.config
	dev := p.dev
	p.mu.RUnlock()

	original := moduleid.FromVirtual(id)
	if !p.filter.Allowed(original) {
		if cfg.SSR {
			return &LoadResult{Code: "export default {};\n"}, nil
		}
		return nil, nil
	}

	params := cssproc.Params{
		ID:      original,
		Modules: cfg.CSSModules,
		Dev:     dev,
		Plugins: cfg.CSSPlugins,
		Root:    cfg.Root,
		Cache:   p.cache,
	}

	if cfg.SSR {
		// server markup needs the same class names as the client, not the CSS
		var tokens map[string]string
		if moduleid.IsCSSModule(original) {
			params.Dev = true
			result, err := cssproc.Process(ctx, p.fs, params)
			if err != nil {
				return nil, &LoadError{ID: original, Err: unwrapCSSError(err)}
			}
			tokens = result.Tokens
		}
		code, err := codegen.ServerModule(tokens, original)
		if err != nil {
			return nil, &LoadError{ID: original, Err: err}
		}
		return &LoadResult{Code: code}, nil
	}

	result, err := cssproc.Process(ctx, p.fs, params)
	if err != nil {
		return nil, &LoadError{ID: original, Err: unwrapCSSError(err)}
	}
	code, err := codegen.Module(result.CSS, result.Tokens, original, dev)
	if err != nil {
		return nil, &LoadError{ID: original, Err: err}
	}
	return &LoadResult{Code: code}, nil
}

// unwrapCSSError drops the id prefix of a *cssproc.Error, since LoadError
// already names the file.
func unwrapCSSError(err error) error {
	var cssErr *cssproc.Error
	if errors.As(err, &cssErr) {
		return cssErr.Err
	}
	return err
}

// RenderChunk rewrites preload helper calls in a client chunk that bundles
// at least one in-scope module. It returns nil when the chunk is unchanged.
// Unparseable chunks are reported through host.Warn and left untouched.
func (p *Plugin) RenderChunk(host Host, code string, chunk Chunk) (*RenderedChunk, error) {
	p.mu.RLock()
	ssr := p.config.SSR
	mode := p.mode
	p.mu.RUnlock()

	if ssr || !preload.HasHelperCall(code, p.helper) || !p.filter.AnyAllowed(chunk.Modules) {
		return nil, nil
	}

	result, err := preload.Rewrite(code, chunk.Name, p.helper, mode)
	if err != nil {
		var parseErr *preload.ParseError
		if errors.As(err, &parseErr) {
			host.Warn(fmt.Sprintf("%s renderChunk] failed to parse ast for %s: %v", logPrefix, chunk.Name, parseErr.Err))
			return nil, nil
		}
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	p.logger.Debug("rewrote %d preload calls in %s", result.Rewrites, chunk.Name)
	return &RenderedChunk{Code: result.Code, Map: result.Map}, nil
}
