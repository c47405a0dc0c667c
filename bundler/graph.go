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
	"slices"
	"sync"

	"bennypowers.dev/lazycss/moduleid"
	"bennypowers.dev/lazycss/plugin"
)

// moduleGraph records the import edges esbuild reports through OnResolve,
// standing in for the module info a Rollup-style host keeps.
type moduleGraph struct {
	mu      sync.RWMutex
	modules map[string]*plugin.ModuleInfo
}

func newModuleGraph() *moduleGraph {
	return &moduleGraph{modules: make(map[string]*plugin.ModuleInfo)}
}

func (g *moduleGraph) node(id string) *plugin.ModuleInfo {
	info, ok := g.modules[id]
	if !ok {
		info = &plugin.ModuleInfo{ID: id}
		g.modules[id] = info
	}
	return info
}

func (g *moduleGraph) addStatic(importer, id string) {
	importer, id = moduleid.Normalize(importer), moduleid.Normalize(id)
	g.mu.Lock()
	defer g.mu.Unlock()
	child := g.node(id)
	if !slices.Contains(child.Importers, importer) {
		child.Importers = append(child.Importers, importer)
	}
}

func (g *moduleGraph) addDynamic(importer, id string) {
	importer, id = moduleid.Normalize(importer), moduleid.Normalize(id)
	g.mu.Lock()
	defer g.mu.Unlock()
	child := g.node(id)
	if !slices.Contains(child.DynamicImporters, importer) {
		child.DynamicImporters = append(child.DynamicImporters, importer)
	}
	parent := g.node(importer)
	if !slices.Contains(parent.DynamicallyImportedIDs, id) {
		parent.DynamicallyImportedIDs = append(parent.DynamicallyImportedIDs, id)
	}
}

// info returns a snapshot of what is known about id.
func (g *moduleGraph) info(id string) (*plugin.ModuleInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.modules[moduleid.Normalize(id)]
	if !ok {
		return nil, false
	}
	return &plugin.ModuleInfo{
		ID:                     info.ID,
		Importers:              slices.Clone(info.Importers),
		DynamicImporters:       slices.Clone(info.DynamicImporters),
		DynamicallyImportedIDs: slices.Clone(info.DynamicallyImportedIDs),
	}, true
}

func (g *moduleGraph) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.modules)
}
