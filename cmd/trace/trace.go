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
// Package trace provides the trace command for lazycss.
package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/config"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/plugin"
	"bennypowers.dev/lazycss/trace"
)

// Cmd is the trace cobra command that walks modules from their entry points
// and reports which stylesheets load eagerly and which are diverted.
var Cmd = &cobra.Command{
	Use:   "trace [file...]",
	Short: "Report eager and lazy stylesheets reachable from entry points",
	Long: `Trace HTML pages or JavaScript modules and report which stylesheets stay in
the eager CSS bundle and which are diverted to runtime injection.

For a single file, prints a report. For multiple files (via arguments or --glob),
outputs NDJSON with one report per line.`,
	Example: `  # Trace an entry module
  lazycss trace src/main.js

  # Trace an HTML page
  lazycss trace index.html --format json

  # Trace the server-render view of an entry
  lazycss trace src/server.js --ssr

  # Trace many pages in parallel
  lazycss trace --glob "pages/**/*.html" -j 8`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	Cmd.Flags().String("glob", "", "Glob pattern to match entry files (e.g., \"pages/**/*.html\")")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("ssr", false, "Trace as the server-render pass")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	logger := output.NewStderrLogger(viper.GetBool("verbose"))

	cfg, err := config.Load(viper.GetViper(), viper.GetString("package"))
	if err != nil {
		return err
	}
	if cfg.Dev == nil {
		cfg.Dev = plugin.Bool(false)
	}

	// Collect files from args and glob pattern, deduplicating by absolute path
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) error {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", p, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
		return nil
	}
	for _, arg := range args {
		if err := add(arg); err != nil {
			return err
		}
	}
	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern != "" {
		matches, err := doublestar.FilepathGlob(globPattern)
		if err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return err
			}
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to trace: provide file arguments or use --glob")
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format %q: must be one of json, text", format)
	}

	ssr, _ := cmd.Flags().GetBool("ssr")
	host, err := cfg.HostConfig(ssr)
	if err != nil {
		return err
	}
	parallel, _ := cmd.Flags().GetInt("jobs")
	opts := trace.Options{
		Config: host,
		NewPlugin: func() *plugin.Plugin {
			return plugin.New(cfg.PluginOptions(logger, osfs))
		},
		Parallel: parallel,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(files) == 1 {
		return runSingle(ctx, osfs, files[0], cfg.Root, format, opts, logger)
	}
	return runBatch(ctx, osfs, files, cfg.Root, opts, logger)
}

func runSingle(ctx context.Context, osfs fs.FileSystem, file, root, format string, opts trace.Options, logger output.Logger) error {
	tracer := trace.NewTracer(osfs, root, opts.NewPlugin())
	var (
		report *trace.Report
		err    error
	)
	if strings.HasSuffix(file, ".html") {
		report, err = tracer.TraceHTML(ctx, opts.Config, file)
	} else {
		report, err = tracer.TraceModules(ctx, opts.Config, file)
	}
	if err != nil {
		return fmt.Errorf("failed to trace: %w", err)
	}

	for _, w := range report.Warnings {
		logger.Warning("%s", w)
	}

	out, err := report.Format(format)
	if err != nil {
		return err
	}
	return output.Report(osfs, out)
}

func runBatch(ctx context.Context, osfs fs.FileSystem, files []string, root string, opts trace.Options, logger output.Logger) error {
	results := trace.TraceBatch(ctx, osfs, files, root, opts)

	encoder := json.NewEncoder(os.Stdout)
	var allWarnings []string
	var errorCount int
	var totalCount int

	for result := range results {
		totalCount++
		if result.Error != "" {
			errorCount++
		}
		if result.Report != nil {
			// warnings go to stderr
			allWarnings = append(allWarnings, result.Report.Warnings...)
			result.Report.Warnings = nil
		}
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result for %s: %v\n", result.File, err)
		}
	}

	for _, w := range allWarnings {
		logger.Warning("%s", w)
	}

	if errorCount == totalCount {
		return fmt.Errorf("all %d files failed to trace", errorCount)
	}
	return nil
}
