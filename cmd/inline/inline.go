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
// Package inline provides the inline command for lazycss.
package inline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/codegen"
	"bennypowers.dev/lazycss/config"
	"bennypowers.dev/lazycss/cssproc"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/inject"
	"bennypowers.dev/lazycss/moduleid"
)

// Cmd is the inline command.
var Cmd = &cobra.Command{
	Use:   "inline [stylesheet...]",
	Short: "Inline lazy stylesheets into server-rendered HTML",
	Long: `Process stylesheets the way lazy CSS modules do and write them into HTML files
as <style data-lazy-css-id> tags, in-place.

The browser runtime adopts a tag carrying the same injection id instead of
injecting a duplicate, so pages rendered on the server show lazily loaded
components styled before their chunk arrives.`,
	Example: `  # Inline two stylesheets into every built page
  lazycss inline src/pages/settings.css src/ui/button.module.css --glob "dist/**/*.html"

  # Parallel processing with custom worker count
  lazycss inline src/pages/*.css --glob "dist/**/*.html" -j 8

  # Dry run to see what would change
  lazycss inline src/pages/settings.css --glob "dist/**/*.html" --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files (required)")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	start := time.Now()

	cfg, err := config.Load(viper.GetViper(), viper.GetString("package"))
	if err != nil {
		return err
	}
	dev := cfg.Dev != nil && *cfg.Dev

	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern == "" {
		return fmt.Errorf("--glob is required")
	}
	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no files matched the glob pattern")
		return nil
	}

	// Deduplicate by absolute path
	seen := make(map[string]struct{})
	var files []string
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", match, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
	}

	host, err := cfg.HostConfig(false)
	if err != nil {
		return err
	}
	sheets, err := processSheets(cmd.Context(), osfs, args, cfg.Root, host.CSSModules, host.CSSPlugins, dev)
	if err != nil {
		return err
	}

	parallel, _ := cmd.Flags().GetInt("jobs")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")

	results := inject.InlineBatch(osfs, files, sheets, inject.BatchOptions{
		Parallel: parallel,
		DryRun:   dryRun,
	})

	var stats inject.Stats
	stats.Total = len(files)

	encoder := json.NewEncoder(os.Stdout)
	for result := range results {
		switch {
		case result.Error != "":
			stats.Errors++
			if format == "json" {
				_ = encoder.Encode(result)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %s: %s\n", result.File, result.Error)
			}
		case result.Modified:
			stats.Modified++
			if format == "json" {
				_ = encoder.Encode(result)
			} else if dryRun {
				fmt.Printf("would update %s\n", result.File)
			}
		default:
			stats.Skipped++
		}
	}
	stats.Duration = time.Since(start).Milliseconds()

	if format == "text" {
		if dryRun {
			fmt.Printf("\nDry run: %d files would be modified, %d unchanged, %d errors\n",
				stats.Modified, stats.Skipped, stats.Errors)
		} else {
			fmt.Printf("Inlined %d stylesheets: %d files modified, %d unchanged, %d errors\n",
				len(sheets), stats.Modified, stats.Skipped, stats.Errors)
		}
	} else {
		statsJSON, _ := json.Marshal(stats)
		fmt.Println(string(statsJSON))
	}

	if stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}
	return nil
}

// processSheets runs each stylesheet through the CSS pipeline and derives
// the injection id the browser runtime uses for it.
func processSheets(ctx context.Context, osfs fs.FileSystem, paths []string, root string, modules *cssproc.ModulesConfig, plugins []cssproc.Plugin, dev bool) ([]inject.Stylesheet, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sheets := make([]inject.Stylesheet, 0, len(paths))
	for _, p := range paths {
		id, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid stylesheet path %q: %w", p, err)
		}
		if !moduleid.IsCSS(id) {
			return nil, fmt.Errorf("%s is not a stylesheet", p)
		}
		res, err := cssproc.Process(ctx, osfs, cssproc.Params{
			ID:      id,
			Modules: modules,
			Dev:     dev,
			Plugins: plugins,
			Root:    root,
		})
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, inject.Stylesheet{
			ID:  codegen.InjectionID(id, res.CSS, dev),
			CSS: res.CSS,
		})
	}
	return sheets, nil
}
