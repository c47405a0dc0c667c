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
package trace

import (
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/jsparse"
	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/plugin"
)

// resolveExtensions are tried, in order, for specifiers without a file on disk.
var resolveExtensions = []string{".js", ".mjs", ".ts", ".tsx", ".jsx"}

// ModuleGraph represents the module dependency graph seen by the tracer.
type ModuleGraph struct {
	// Entrypoints are the starting modules (from HTML scripts or explicit entry)
	Entrypoints []string

	// Modules maps module ids to their parsed information
	Modules map[string]*Module

	// Errors collects non-fatal errors encountered during tracing
	Errors []error

	mu sync.RWMutex
	// bareSpecifiers collects bare import specifiers, which are never followed
	bareSpecifiers map[string]bool
}

// Module represents a module in the graph.
type Module struct {
	// ID is the module id as the host knows it. Diverted stylesheets carry
	// their virtual id.
	ID      string
	Imports []jsparse.Import
	// Resolved maps each followed import to the id it resolved to.
	Resolved map[string]string

	Importers              []string
	DynamicImporters       []string
	DynamicallyImportedIDs []string
}

func newModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		Modules:        make(map[string]*Module),
		bareSpecifiers: make(map[string]bool),
	}
}

func (g *ModuleGraph) node(id string) *Module {
	mod, ok := g.Modules[id]
	if !ok {
		mod = &Module{ID: id, Resolved: make(map[string]string)}
		g.Modules[id] = mod
	}
	return mod
}

func (g *ModuleGraph) addEdge(importer, id string, dynamic bool) {
	importer, id = moduleid.Normalize(importer), moduleid.Normalize(id)
	g.mu.Lock()
	defer g.mu.Unlock()
	child := g.node(id)
	if dynamic {
		if !slices.Contains(child.DynamicImporters, importer) {
			child.DynamicImporters = append(child.DynamicImporters, importer)
		}
		parent := g.node(importer)
		if !slices.Contains(parent.DynamicallyImportedIDs, id) {
			parent.DynamicallyImportedIDs = append(parent.DynamicallyImportedIDs, id)
		}
		return
	}
	if !slices.Contains(child.Importers, importer) {
		child.Importers = append(child.Importers, importer)
	}
}

// Info returns a snapshot of the edges known for id.
func (g *ModuleGraph) Info(id string) (*plugin.ModuleInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mod, ok := g.Modules[moduleid.Normalize(id)]
	if !ok {
		return nil, false
	}
	return &plugin.ModuleInfo{
		ID:                     mod.ID,
		Importers:              slices.Clone(mod.Importers),
		DynamicImporters:       slices.Clone(mod.DynamicImporters),
		DynamicallyImportedIDs: slices.Clone(mod.DynamicallyImportedIDs),
	}, true
}

// BareSpecifiers returns a sorted slice of all bare specifiers found.
func (g *ModuleGraph) BareSpecifiers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	specifiers := make([]string, 0, len(g.bareSpecifiers))
	for spec := range g.bareSpecifiers {
		specifiers = append(specifiers, spec)
	}
	sort.Strings(specifiers)
	return specifiers
}

// PackageNames extracts sorted package names from bare specifiers.
// e.g., "lit/decorators.js" -> "lit"
func (g *ModuleGraph) PackageNames() []string {
	packages := make(map[string]bool)
	for _, spec := range g.BareSpecifiers() {
		packages[getPackageName(spec)] = true
	}
	result := make([]string, 0, len(packages))
	for pkg := range packages {
		result = append(result, pkg)
	}
	sort.Strings(result)
	return result
}

// resolver finds files for relative and web-absolute specifiers. Bare
// specifiers resolve to external ids.
type resolver struct {
	fs      fs.FileSystem
	rootDir string
}

func (r *resolver) resolve(specifier, importer string) (id string, external bool, ok bool) {
	if specifier == "" || strings.Contains(specifier, "://") {
		return specifier, true, true
	}
	if isBareSpecifier(specifier) {
		return specifier, true, true
	}
	base := r.rootDir
	if importer != "" {
		base = filepath.Dir(moduleid.Normalize(importer))
	}
	p := r.resolvePath(base, specifier)
	if r.isFile(p) {
		return p, false, true
	}
	for _, ext := range resolveExtensions {
		if r.isFile(p + ext) {
			return p + ext, false, true
		}
	}
	for _, ext := range resolveExtensions {
		if index := filepath.Join(p, "index"+ext); r.isFile(index) {
			return index, false, true
		}
	}
	return "", false, false
}

func (r *resolver) isFile(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// resolvePath resolves a specifier relative to a base directory.
// For web-style paths:
// - "./foo" and "../foo" are resolved relative to baseDir
// - "/foo" is resolved relative to rootDir unless it already lies under it
func (r *resolver) resolvePath(baseDir, specifier string) string {
	if strings.HasPrefix(specifier, "/") {
		if strings.HasPrefix(specifier, r.rootDir+"/") {
			return filepath.Clean(specifier)
		}
		return filepath.Join(r.rootDir, specifier)
	}
	return filepath.Join(baseDir, specifier)
}

// isBareSpecifier returns true if the specifier is a bare module specifier
// (resolved by a package manager rather than the filesystem).
func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return false
	}
	if strings.HasPrefix(specifier, "/") {
		return false
	}
	if strings.Contains(specifier, "://") {
		return false
	}
	return true
}

// getPackageName extracts the package name from a bare specifier.
func getPackageName(specifier string) string {
	// Handle scoped packages: @scope/package/path -> @scope/package
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return path.Join(parts[0], parts[1])
		}
		return specifier
	}
	parts := strings.SplitN(specifier, "/", 2)
	return parts[0]
}
