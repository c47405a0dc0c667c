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
// Package version reports the lazycss build and the versions of the bundler
// and parser modules compiled into it.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v0.3.0")
	GitCommit = "unknown" // Git commit hash
	GitTag    = "unknown" // Git tag
	BuildTime = "unknown" // Build timestamp
	GitDirty  = ""        // "dirty" if working directory has uncommitted changes
)

// trackedModules are the dependencies whose versions change lazycss output.
var trackedModules = map[string]string{
	"github.com/evanw/esbuild":                      "esbuild",
	"github.com/tdewolff/parse/v2":                  "css-parser",
	"github.com/tree-sitter/tree-sitter-typescript": "tree-sitter-typescript",
}

// BuildInfo is the machine-readable version report.
type BuildInfo struct {
	Version   string            `json:"version"`
	GitCommit string            `json:"gitCommit"`
	GitTag    string            `json:"gitTag"`
	BuildTime string            `json:"buildTime"`
	GitDirty  string            `json:"gitDirty,omitempty"`
	Modules   map[string]string `json:"modules,omitempty"`
}

// GetVersion returns the version string for the application.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	if GitTag != "unknown" && GitCommit != "unknown" {
		version := GitTag
		if GitCommit != "" {
			commitSuffix := GitCommit
			if len(GitCommit) > 7 {
				commitSuffix = GitCommit[:7]
			}
			if !strings.HasSuffix(GitTag, commitSuffix) {
				version = fmt.Sprintf("%s-%s", GitTag, commitSuffix)
			}
		}
		if GitDirty == "dirty" {
			version += "-dirty"
		}
		return version
	}

	return "dev"
}

// Modules returns the versions of the tracked dependencies, keyed by short name.
func Modules() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return modulesFrom(info.Deps)
}

func modulesFrom(deps []*debug.Module) map[string]string {
	mods := make(map[string]string)
	for _, dep := range deps {
		name, tracked := trackedModules[dep.Path]
		if !tracked {
			continue
		}
		v := dep.Version
		if dep.Replace != nil {
			v = dep.Replace.Version
		}
		mods[name] = v
	}
	return mods
}

// GetBuildInfo returns detailed build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   GetVersion(),
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
		GitDirty:  GitDirty,
		Modules:   Modules(),
	}
}
