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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/plugin"
)

// pass carries the per-pass settings of one esbuild build.
type pass struct {
	name   string
	config plugin.HostConfig
	// finish post-processes the output files of every (re)build.
	finish func(*api.BuildResult) error
	warn   func(string)
}

// esbuildPlugin binds the lazycss hooks to esbuild's plugin API.
func (b *Bundler) esbuildPlugin(ps *pass) api.Plugin {
	return api.Plugin{
		Name: plugin.Name,
		Setup: func(build api.PluginBuild) {
			graph := newModuleGraph()
			h := &host{build: build, graph: graph, logger: b.logger, warn: ps.warn}

			build.OnStart(func() (api.OnStartResult, error) {
				if err := b.plugin.ConfigResolved(ps.config); err != nil {
					return api.OnStartResult{}, err
				}
				graph.reset()
				b.plugin.BuildStart()
				return api.OnStartResult{}, nil
			})

			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if _, ok := args.PluginData.(skipSelf); ok {
						return api.OnResolveResult{}, nil
					}
					return b.onResolve(h, args)
				},
			)

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					b.plugin.Transform(h, args.Path)
					return api.OnLoadResult{}, nil
				},
			)

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: Namespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					return b.onLoad(args)
				},
			)

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 || ps.finish == nil {
					return api.OnEndResult{}, nil
				}
				return api.OnEndResult{}, ps.finish(result)
			})
		},
	}
}

func (b *Bundler) onResolve(h *host, args api.OnResolveArgs) (api.OnResolveResult, error) {
	ctx := withKind(context.Background(), args.Kind)
	importer := importerID(args)

	if args.Namespace == "file" && b.plugin.Filter().Allowed(importer) {
		resolved, err := h.Resolve(ctx, args.Path, importer)
		if err != nil {
			return api.OnResolveResult{}, err
		}
		if resolved != nil && !resolved.External {
			if args.Kind == api.ResolveJSDynamicImport {
				h.graph.addDynamic(importer, resolved.ID)
			} else {
				h.graph.addStatic(importer, resolved.ID)
			}
		}
	}

	if args.Kind == api.ResolveJSDynamicImport {
		// esbuild only resolves dynamic imports with a literal specifier
		if err := b.plugin.ResolveDynamicImport(ctx, h, args.Path, true, importer); err != nil {
			return api.OnResolveResult{}, err
		}
	}

	id, err := b.plugin.ResolveID(ctx, h, args.Path, importer)
	if err != nil {
		return api.OnResolveResult{}, err
	}
	switch {
	case id == "":
		return api.OnResolveResult{}, nil
	case moduleid.IsVirtual(id):
		return api.OnResolveResult{Path: virtualPath(id), Namespace: Namespace}, nil
	default:
		return api.OnResolveResult{Path: id}, nil
	}
}

func (b *Bundler) onLoad(args api.OnLoadArgs) (api.OnLoadResult, error) {
	id := moduleid.Marker + args.Path
	res, err := b.plugin.Load(context.Background(), id)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	if res == nil {
		return api.OnLoadResult{}, fmt.Errorf("%s is outside the configured paths", moduleid.FromVirtual(id))
	}

	result := api.OnLoadResult{Contents: &res.Code, Loader: api.LoaderJS}
	if id != moduleid.RuntimeID {
		original := moduleid.FromVirtual(id)
		result.ResolveDir = filepath.Dir(original)
		result.WatchFiles = []string{original}
	}
	return result, nil
}

// namespacedInput maps a metafile input path to a module id.
func namespacedInput(root, input string) string {
	if rest, ok := strings.CutPrefix(input, Namespace+":"); ok {
		return moduleid.Marker + rest
	}
	if filepath.IsAbs(input) {
		return input
	}
	return filepath.Join(root, input)
}
