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
// Package build provides the build command for lazycss.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/bundler"
	"bennypowers.dev/lazycss/config"
	"bennypowers.dev/lazycss/fs"
	"bennypowers.dev/lazycss/internal/output"
	"bennypowers.dev/lazycss/plugin"
)

// Cmd is the build cobra command that bundles entry points with esbuild,
// diverting lazily loaded CSS into runtime-injected modules.
var Cmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Bundle entry points with lazy CSS diverted to runtime injection",
	Long: `Bundle entry points with esbuild.

Stylesheets imported anywhere below a dynamic import() are compiled into
JavaScript modules that inject a <style> tag when the lazy chunk loads, so
they never reach the eager CSS bundle. Preload calls in emitted chunks are
rewritten so stylesheets are not preloaded.

Entry points given as arguments replace build.entry-points from lazycss.yaml.`,
	Example: `  # Production build of the configured entry points
  lazycss build

  # Build with a server-render pass first
  lazycss build src/main.js --ssr-entry src/server.js

  # Rebuild on change (development mode)
  lazycss build src/main.js --watch

  # Machine-readable summary
  lazycss build --format json -o build.json`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("ssr-entry", nil, "Server-render entry points")
	Cmd.Flags().String("outdir", "", "Client output directory (default: dist)")
	Cmd.Flags().String("ssr-outdir", "", "Server output directory (default: dist/server)")
	Cmd.Flags().Bool("minify", false, "Minify JavaScript output")
	Cmd.Flags().StringSlice("external", nil, "Import paths to leave unbundled")
	Cmd.Flags().BoolP("watch", "w", false, "Rebuild on change until interrupted")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")

	_ = viper.BindPFlag("build.ssr-entry-points", Cmd.Flags().Lookup("ssr-entry"))
	_ = viper.BindPFlag("build.outdir", Cmd.Flags().Lookup("outdir"))
	_ = viper.BindPFlag("build.ssr-outdir", Cmd.Flags().Lookup("ssr-outdir"))
	_ = viper.BindPFlag("build.minify", Cmd.Flags().Lookup("minify"))
	_ = viper.BindPFlag("build.external", Cmd.Flags().Lookup("external"))
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()
	logger := output.NewStderrLogger(viper.GetBool("verbose"))

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be one of text, json", format)
	}
	watch, _ := cmd.Flags().GetBool("watch")

	cfg, err := config.Load(viper.GetViper(), viper.GetString("package"))
	if err != nil {
		return err
	}
	if cfg.Dev == nil {
		cfg.Dev = plugin.Bool(watch)
	}
	if len(args) > 0 {
		cfg.Build.EntryPoints = args
	}

	bc, err := cfg.BundlerConfig()
	if err != nil {
		return err
	}
	b := bundler.New(plugin.New(cfg.PluginOptions(logger, osfs)), osfs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if watch {
		return b.Watch(ctx, bc, func(result *bundler.Result) {
			report, err := formatResults([]*bundler.Result{result}, cfg.Root, format)
			if err != nil {
				logger.Warning("%v", err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
		})
	}

	results, err := b.Build(ctx, bc)
	if err != nil {
		return err
	}
	report, err := formatResults(results, cfg.Root, format)
	if err != nil {
		return err
	}
	return output.Report(osfs, report)
}

func formatResults(results []*bundler.Result, root, format string) (string, error) {
	if format == "json" {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("error marshaling build results: %w", err)
		}
		return string(out), nil
	}

	var b strings.Builder
	for _, result := range results {
		rewritten := 0
		for _, o := range result.Outputs {
			if o.Rewritten {
				rewritten++
			}
		}
		fmt.Fprintf(&b, "%s: %d files (%d chunks rewritten, %d stylesheets)\n",
			result.Pass, len(result.Outputs), rewritten, len(result.CSS()))
		for _, o := range result.Outputs {
			rel, err := filepath.Rel(root, o.Path)
			if err != nil {
				rel = o.Path
			}
			fmt.Fprintf(&b, "  %s\n", rel)
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
