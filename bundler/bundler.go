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
// Package bundler runs esbuild with the lazycss hooks installed: an optional
// server-render pass followed by the client pass, or a watching client pass
// for development.
package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/internal/patch"
	"bennypowers.dev/lazycss/plugin"
)

// Config describes a build.
type Config struct {
	// Root is the project root; relative paths are resolved against it.
	Root string
	// EntryPoints are the client entry modules.
	EntryPoints []string
	// SSREntryPoints are server-render entry modules. Empty skips the pass.
	SSREntryPoints []string
	// Outdir receives client output. Defaults to Root/dist.
	Outdir string
	// SSROutdir receives server output. Defaults to Root/dist/server.
	SSROutdir string
	// Minify minifies JavaScript output.
	Minify bool
	// External lists import paths left to the runtime.
	External   []string
	CSSModules *cssproc.ModulesConfig
	CSSPlugins []cssproc.Plugin
}

// Output is one written file.
type Output struct {
	Path string `json:"path"`
	// Modules are the ids bundled into a JavaScript chunk.
	Modules []string `json:"modules,omitempty"`
	// Rewritten is set when preload calls in the chunk were patched.
	Rewritten bool             `json:"rewritten,omitempty"`
	Map       *patch.SourceMap `json:"-"`
	contents  []byte
}

// Contents returns the written bytes.
func (o *Output) Contents() []byte {
	return o.contents
}

// Result is the outcome of one pass.
type Result struct {
	Pass     string   `json:"pass"`
	Outputs  []Output `json:"outputs"`
	Warnings []string `json:"warnings,omitempty"`
}

// CSS returns the stylesheet outputs of the pass.
func (r *Result) CSS() []Output {
	var css []Output
	for _, o := range r.Outputs {
		if strings.HasSuffix(o.Path, ".css") {
			css = append(css, o)
		}
	}
	return css
}

// Bundler owns a plugin for the lifetime of a build session.
type Bundler struct {
	plugin *plugin.Plugin
	fs     fs.FileSystem
	logger output.Logger
}

// New creates a Bundler that writes output through fsys.
func New(p *plugin.Plugin, fsys fs.FileSystem, logger output.Logger) *Bundler {
	if fsys == nil {
		fsys = fs.NewOSFileSystem()
	}
	if logger == nil {
		logger = output.NewStderrLogger(false)
	}
	return &Bundler{plugin: p, fs: fsys, logger: logger}
}

func (c Config) withDefaults() (Config, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return c, fmt.Errorf("invalid root: %w", err)
	}
	c.Root = root
	if c.Outdir == "" {
		c.Outdir = filepath.Join(root, "dist")
	}
	if c.SSROutdir == "" {
		c.SSROutdir = filepath.Join(root, "dist", "server")
	}
	c.Outdir = absUnder(root, c.Outdir)
	c.SSROutdir = absUnder(root, c.SSROutdir)
	if len(c.EntryPoints) == 0 {
		return c, fmt.Errorf("no entry points")
	}
	return c, nil
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (b *Bundler) options(cfg Config, ps *pass, ssr bool) api.BuildOptions {
	opts := api.BuildOptions{
		AbsWorkingDir:     cfg.Root,
		EntryPoints:       cfg.EntryPoints,
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		Splitting:         true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ESNext,
		Outdir:            cfg.Outdir,
		ChunkNames:        "chunks/[name]-[hash]",
		External:          cfg.External,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  cfg.Minify,
		MinifySyntax:      cfg.Minify,
		MinifyIdentifiers: cfg.Minify,
		Plugins:           []api.Plugin{b.esbuildPlugin(ps)},
	}
	if ssr {
		opts.EntryPoints = cfg.SSREntryPoints
		opts.Platform = api.PlatformNode
		opts.Outdir = cfg.SSROutdir
	}
	return opts
}

func (b *Bundler) newPass(cfg Config, ssr bool) (*pass, *Result) {
	result := &Result{Pass: "client"}
	if ssr {
		result.Pass = "ssr"
	}
	var mu sync.Mutex
	ps := &pass{
		name: result.Pass,
		config: plugin.HostConfig{
			SSR:        ssr,
			Root:       cfg.Root,
			CSSModules: cfg.CSSModules,
			CSSPlugins: cfg.CSSPlugins,
		},
		warn: func(msg string) {
			b.logger.Warning("%s", msg)
			mu.Lock()
			result.Warnings = append(result.Warnings, msg)
			mu.Unlock()
		},
	}
	return ps, result
}

// Build runs the server-render pass, when configured, then the client pass,
// and writes their output.
func (b *Bundler) Build(ctx context.Context, cfg Config) ([]*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	var results []*Result
	ssr := []bool{false}
	if len(cfg.SSREntryPoints) > 0 {
		ssr = []bool{true, false}
	}
	for _, isSSR := range ssr {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		ps, result := b.newPass(cfg, isSSR)
		ps.finish = func(br *api.BuildResult) error {
			outputs, err := b.finish(ps, cfg.Root, br)
			result.Outputs = outputs
			return err
		}
		br := api.Build(b.options(cfg, ps, isSSR))
		if len(br.Errors) > 0 {
			return results, buildError(ps.name, br.Errors)
		}
		results = append(results, result)
	}
	return results, nil
}

// Watch runs the client pass and rebuilds on change until ctx is done.
// onRebuild is called after every successful build.
func (b *Bundler) Watch(ctx context.Context, cfg Config, onRebuild func(*Result)) error {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	ps, _ := b.newPass(cfg, false)
	ps.finish = func(br *api.BuildResult) error {
		outputs, err := b.finish(ps, cfg.Root, br)
		if err != nil {
			return err
		}
		result := &Result{Pass: ps.name, Outputs: outputs}
		if onRebuild != nil {
			onRebuild(result)
		}
		return nil
	}

	esCtx, ctxErr := api.Context(b.options(cfg, ps, false))
	if ctxErr != nil {
		return fmt.Errorf("esbuild context creation failed: %w", buildError(ps.name, ctxErr.Errors))
	}
	defer esCtx.Dispose()

	if err := esCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("esbuild watch failed: %w", err)
	}
	b.logger.Debug("watching %s", strings.Join(cfg.EntryPoints, ", "))

	<-ctx.Done()
	return nil
}

type metafile struct {
	Outputs map[string]struct {
		Inputs map[string]json.RawMessage `json:"inputs"`
	} `json:"outputs"`
}

// finish rewrites preload calls in each chunk and writes every output file.
func (b *Bundler) finish(ps *pass, root string, br *api.BuildResult) ([]Output, error) {
	var meta metafile
	if br.Metafile != "" {
		if err := json.Unmarshal([]byte(br.Metafile), &meta); err != nil {
			return nil, fmt.Errorf("failed to parse metafile: %w", err)
		}
	}
	modules := make(map[string][]string, len(meta.Outputs))
	for path, out := range meta.Outputs {
		ids := make([]string, 0, len(out.Inputs))
		for input := range out.Inputs {
			ids = append(ids, namespacedInput(root, input))
		}
		slices.Sort(ids)
		modules[absUnder(root, path)] = ids
	}

	h := &host{logger: b.logger, warn: ps.warn}
	outputs := make([]Output, 0, len(br.OutputFiles))
	for _, file := range br.OutputFiles {
		out := Output{Path: file.Path, Modules: modules[file.Path], contents: file.Contents}

		if strings.HasSuffix(file.Path, ".js") {
			name, _ := filepath.Rel(root, file.Path)
			rendered, err := b.plugin.RenderChunk(h, string(file.Contents), plugin.Chunk{
				Name:    filepath.ToSlash(name),
				Modules: out.Modules,
			})
			if err != nil {
				return nil, err
			}
			if rendered != nil {
				out.contents = []byte(rendered.Code)
				out.Map = rendered.Map
				out.Rewritten = true
			}
		}

		if err := b.fs.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := b.fs.WriteFile(out.Path, out.contents, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
		outputs = append(outputs, out)
	}
	slices.SortFunc(outputs, func(a, b Output) int { return strings.Compare(a.Path, b.Path) })
	return outputs, nil
}

func buildError(pass string, msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, msg := range msgs {
		text := msg.Text
		if msg.PluginName != "" {
			text = "[plugin " + msg.PluginName + "] " + text
		}
		if msg.Location != nil {
			text = fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, text)
		}
		errs = append(errs, errors.New(text))
	}
	return fmt.Errorf("%s build failed with %d errors: %w", pass, len(msgs), errors.Join(errs...))
}
