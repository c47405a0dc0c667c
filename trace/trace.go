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
// Package trace walks a source tree from its entry points and drives the
// lazycss hooks the way a Rollup-style bundler would, without emitting
// anything. It reports which stylesheets stay in the eager CSS bundle and
// which are diverted to runtime injection.
package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/jsparse"
	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/plugin"
)

// Options configures a trace.
type Options struct {
	// Config is the host configuration reported to the plugin.
	Config plugin.HostConfig
	// NewPlugin creates a plugin per traced file in batch mode.
	NewPlugin func() *plugin.Plugin
	// Parallel bounds batch workers. Zero selects the number of CPUs.
	Parallel int
}

// LazyStylesheet is a stylesheet diverted to runtime injection.
type LazyStylesheet struct {
	ID      string `json:"id"`
	Virtual string `json:"virtual"`
	Module  bool   `json:"module,omitempty"`
	// Size is the length of the generated JavaScript module.
	Size int `json:"size"`

	code string
}

// Code returns the module served for the stylesheet.
func (s LazyStylesheet) Code() string {
	return s.code
}

// Report summarizes one trace.
type Report struct {
	Entrypoints    []string         `json:"entrypoints"`
	Roots          []string         `json:"roots"`
	Members        []string         `json:"members"`
	EagerCSS       []string         `json:"eagerCss"`
	LazyCSS        []LazyStylesheet `json:"lazyCss"`
	BareSpecifiers []string         `json:"bareSpecifiers,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
	Errors         []string         `json:"errors,omitempty"`

	// Graph is the traced module graph.
	Graph *ModuleGraph `json:"-"`
}

// BatchResult is the outcome of one file in TraceBatch.
type BatchResult struct {
	File   string  `json:"file"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Tracer drives one plugin over the modules reachable from a set of entries.
type Tracer struct {
	fs       fs.FileSystem
	rootDir  string
	plugin   *plugin.Plugin
	resolver *resolver
}

// NewTracer creates a new Tracer for the given root directory.
func NewTracer(fsys fs.FileSystem, rootDir string, p *plugin.Plugin) *Tracer {
	return &Tracer{
		fs:       fsys,
		rootDir:  rootDir,
		plugin:   p,
		resolver: &resolver{fs: fsys, rootDir: rootDir},
	}
}

// host is the tracer's side of the hook contract.
type host struct {
	resolver *resolver
	graph    *ModuleGraph

	mu       sync.Mutex
	warnings []string
}

func (h *host) Resolve(_ context.Context, source, importer string) (*plugin.ResolvedModule, error) {
	id, external, ok := h.resolver.resolve(source, importer)
	if !ok {
		return nil, nil
	}
	return &plugin.ResolvedModule{ID: id, External: external}, nil
}

func (h *host) ModuleInfo(id string) (*plugin.ModuleInfo, bool) {
	return h.graph.Info(id)
}

func (h *host) Warn(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings = append(h.warnings, msg)
}

// entry is a module to visit, with the dynamic import that reached it if any.
type entry struct {
	specifier string
	dynamic   bool
}

// TraceModules traces the given entry modules.
func (t *Tracer) TraceModules(ctx context.Context, cfg plugin.HostConfig, entries ...string) (*Report, error) {
	es := make([]entry, len(entries))
	for i, e := range entries {
		if !filepath.IsAbs(e) {
			e = filepath.Join(t.rootDir, e)
		}
		es[i] = entry{specifier: e}
	}
	return t.trace(ctx, cfg, "", es)
}

// TraceHTML traces the module scripts of an HTML page. Inline module
// imports are traced as entries; inline import() calls are traced as
// dynamic imports issued by the page.
func (t *Tracer) TraceHTML(ctx context.Context, cfg plugin.HostConfig, htmlPath string) (*Report, error) {
	content, err := t.fs.ReadFile(htmlPath)
	if err != nil {
		return nil, err
	}
	scripts, err := ExtractScripts(content)
	if err != nil {
		return nil, err
	}

	htmlDir := filepath.Dir(htmlPath)
	var entries []entry
	for _, script := range scripts {
		if script.Src != "" {
			if script.Type == "module" {
				entries = append(entries, entry{specifier: t.resolver.resolvePath(htmlDir, script.Src)})
			}
			continue
		}
		for _, imp := range script.Imports {
			if !imp.Literal || isBareSpecifier(imp.Specifier) {
				continue
			}
			entries = append(entries, entry{
				specifier: t.resolver.resolvePath(htmlDir, imp.Specifier),
				dynamic:   imp.Dynamic,
			})
		}
	}
	return t.trace(ctx, cfg, htmlPath, entries)
}

func (t *Tracer) trace(ctx context.Context, cfg plugin.HostConfig, page string, entries []entry) (*Report, error) {
	if err := t.plugin.ConfigResolved(cfg); err != nil {
		return nil, err
	}
	t.plugin.BuildStart()

	graph := newModuleGraph()
	h := &host{resolver: t.resolver, graph: graph}
	report := &Report{Graph: graph}

	var queue []string
	for _, e := range entries {
		id, external, ok := t.resolver.resolve(e.specifier, page)
		if !ok || external {
			graph.Errors = append(graph.Errors, fmt.Errorf("could not resolve entry %q", e.specifier))
			continue
		}
		if e.dynamic && t.plugin.Filter().Allowed(id) {
			// a page-level import() makes its target a root
			t.plugin.Tracker().MarkRoot(id)
		}
		graph.Entrypoints = append(graph.Entrypoints, id)
		queue = append(queue, id)
	}

	visited := make(map[string]bool)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		children, err := t.visit(ctx, h, report, id)
		if err != nil {
			return nil, err
		}
		queue = append(queue, children...)
	}

	report.Entrypoints = graph.Entrypoints
	report.Roots = t.plugin.Tracker().Roots()
	report.Members = t.plugin.Tracker().Members()
	report.BareSpecifiers = graph.BareSpecifiers()
	report.Warnings = h.warnings
	for _, err := range graph.Errors {
		report.Errors = append(report.Errors, err.Error())
	}
	slices.Sort(report.EagerCSS)
	slices.SortFunc(report.LazyCSS, func(a, b LazyStylesheet) int { return strings.Compare(a.ID, b.ID) })
	return report, nil
}

// visit loads one module and runs the hooks for its imports. It returns the
// ids of the modules the imports resolved to.
func (t *Tracer) visit(ctx context.Context, h *host, report *Report, id string) ([]string, error) {
	graph := h.graph

	if moduleid.IsVirtual(id) {
		res, err := t.plugin.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if res == nil || id == moduleid.RuntimeID {
			return nil, nil
		}
		original := moduleid.FromVirtual(id)
		report.LazyCSS = append(report.LazyCSS, LazyStylesheet{
			ID:      original,
			Virtual: strings.TrimPrefix(id, moduleid.Marker),
			Module:  moduleid.IsCSSModule(original),
			Size:    len(res.Code),
			code:    res.Code,
		})
		return []string{moduleid.RuntimeID}, nil
	}

	if moduleid.IsCSS(id) {
		report.EagerCSS = append(report.EagerCSS, id)
		return nil, nil
	}

	content, err := t.fs.ReadFile(id)
	if err != nil {
		graph.Errors = append(graph.Errors, fmt.Errorf("reading %s: %w", id, err))
		return nil, nil
	}
	imports, err := jsparse.ExtractImports(content)
	if err != nil {
		graph.Errors = append(graph.Errors, fmt.Errorf("parsing %s: %w", id, err))
		return nil, nil
	}

	graph.mu.Lock()
	mod := graph.node(id)
	mod.Imports = imports
	graph.mu.Unlock()

	// the host knows a module's own edges before it transforms it
	for _, imp := range imports {
		if !imp.Literal {
			continue
		}
		if rid, external, ok := t.resolver.resolve(imp.Specifier, id); ok && !external {
			graph.addEdge(id, rid, imp.Dynamic)
		}
	}
	t.plugin.Transform(h, id)

	var children []string
	for _, imp := range imports {
		if imp.Dynamic {
			if err := t.plugin.ResolveDynamicImport(ctx, h, imp.Specifier, imp.Literal, id); err != nil {
				return nil, err
			}
		}
		if !imp.Literal {
			continue
		}

		child, err := t.plugin.ResolveID(ctx, h, imp.Specifier, id)
		if err != nil {
			return nil, err
		}
		if child == "" {
			rid, external, ok := t.resolver.resolve(imp.Specifier, id)
			switch {
			case !ok:
				graph.Errors = append(graph.Errors,
					fmt.Errorf("%s:%d: could not resolve %q", id, imp.Line, imp.Specifier))
				continue
			case external:
				graph.mu.Lock()
				graph.bareSpecifiers[imp.Specifier] = true
				graph.mu.Unlock()
				continue
			}
			child = rid
		}

		graph.mu.Lock()
		mod.Resolved[imp.Specifier] = child
		graph.mu.Unlock()
		children = append(children, child)
	}
	return children, nil
}

// Format renders the report as "json" or "text".
func (r *Report) Format(format string) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "text":
		var b strings.Builder
		section := func(title string, items []string) {
			if len(items) == 0 {
				return
			}
			fmt.Fprintf(&b, "%s:\n", title)
			for _, item := range items {
				fmt.Fprintf(&b, "  %s\n", item)
			}
		}
		section("Entrypoints", r.Entrypoints)
		section("Lazy roots", r.Roots)
		section("Eager CSS", r.EagerCSS)
		lazy := make([]string, len(r.LazyCSS))
		for i, s := range r.LazyCSS {
			lazy[i] = s.ID
			if s.Module {
				lazy[i] += " (module)"
			}
		}
		section("Lazy CSS", lazy)
		section("Errors", r.Errors)
		return strings.TrimSuffix(b.String(), "\n"), nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of json, text", format)
	}
}

// TraceBatch traces multiple entry files (HTML pages or modules) in parallel,
// each with its own plugin from opts.NewPlugin.
// Returns a channel of BatchResults that will be closed when all files are processed.
func TraceBatch(ctx context.Context, osfs fs.FileSystem, files []string, absRoot string, opts Options) <-chan BatchResult {
	results := make(chan BatchResult, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for file := range jobs {
					results <- traceFileForBatch(ctx, osfs, file, absRoot, opts)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

func traceFileForBatch(ctx context.Context, osfs fs.FileSystem, file, absRoot string, opts Options) BatchResult {
	result := BatchResult{File: file}
	if opts.NewPlugin == nil {
		result.Error = "no plugin factory configured"
		return result
	}

	tracer := NewTracer(osfs, absRoot, opts.NewPlugin())
	var (
		report *Report
		err    error
	)
	if strings.HasSuffix(file, ".html") {
		report, err = tracer.TraceHTML(ctx, opts.Config, file)
	} else {
		report, err = tracer.TraceModules(ctx, opts.Config, file)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Report = report
	return result
}
