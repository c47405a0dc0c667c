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
package cssproc

import (
	"fmt"
	"slices"
)

// Lookup returns a plugin by its configured name. Configuration files list
// CSS plugins by name; the scoping plugin takes the project's modules config.
func Lookup(name string, modules *ModulesConfig, root string) (Plugin, error) {
	switch name {
	case MinifyPluginName:
		return NewMinifier(), nil
	case ModulesPluginName:
		cfg := ModulesConfig{}
		if modules != nil {
			cfg = *modules
		}
		return NewModulesPlugin(cfg, root, nil)
	default:
		return nil, fmt.Errorf("unknown CSS plugin %q (available: %v)", name, PluginNames())
	}
}

// LookupAll resolves a list of plugin names, in order.
func LookupAll(names []string, modules *ModulesConfig, root string) ([]Plugin, error) {
	plugins := make([]Plugin, 0, len(names))
	for _, name := range names {
		p, err := Lookup(name, modules, root)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// PluginNames lists the names Lookup accepts.
func PluginNames() []string {
	names := []string{MinifyPluginName, ModulesPluginName}
	slices.Sort(names)
	return names
}
