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
package bundler

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/plugin"
)

// Namespace holds the runtime and virtual stylesheet modules in esbuild.
const Namespace = "lazy-css"

// skipSelf marks resolutions issued by lazycss so its own OnResolve
// callback ignores them.
type skipSelf struct{}

type kindKey struct{}

func withKind(ctx context.Context, kind api.ResolveKind) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

func kindFrom(ctx context.Context) api.ResolveKind {
	if kind, ok := ctx.Value(kindKey{}).(api.ResolveKind); ok && kind != api.ResolveNone {
		return kind
	}
	return api.ResolveJSImportStatement
}

// host adapts an esbuild PluginBuild to plugin.Host.
type host struct {
	build  api.PluginBuild
	graph  *moduleGraph
	logger output.Logger
	warn   func(string)
}

func (h *host) Resolve(ctx context.Context, source, importer string) (*plugin.ResolvedModule, error) {
	opts := api.ResolveOptions{
		Kind:       kindFrom(ctx),
		PluginData: skipSelf{},
	}
	if importer != "" && !moduleid.IsVirtual(importer) {
		opts.Importer = moduleid.Normalize(importer)
		opts.ResolveDir = filepath.Dir(opts.Importer)
		opts.Namespace = "file"
	}

	result := h.build.Resolve(source, opts)
	if len(result.Errors) > 0 {
		h.logger.Debug("unresolved %q from %s: %s", source, importer, result.Errors[0].Text)
		return nil, nil
	}
	if result.Path == "" {
		return nil, nil
	}
	id := result.Path
	if result.Namespace != "" && result.Namespace != "file" {
		id = result.Namespace + ":" + result.Path
	}
	if result.Suffix != "" {
		id += result.Suffix
	}
	return &plugin.ResolvedModule{ID: id, External: result.External}, nil
}

func (h *host) ModuleInfo(id string) (*plugin.ModuleInfo, bool) {
	return h.graph.info(id)
}

func (h *host) Warn(msg string) {
	h.warn(msg)
}

// importerID maps an esbuild importer back to a plugin module id.
func importerID(args api.OnResolveArgs) string {
	if args.Namespace == Namespace {
		return moduleid.Marker + args.Importer
	}
	return args.Importer
}

// virtualPath turns a virtual id into an esbuild path in Namespace. The
// leading marker byte is dropped since esbuild paths are printed in output.
func virtualPath(id string) string {
	return strings.TrimPrefix(id, moduleid.Marker)
}
