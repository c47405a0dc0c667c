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
// Command lazycss bundles JavaScript with lazily loaded CSS diverted to
// runtime injection, and reports on the lazy stylesheets of a project.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/cmd/build"
	"bennypowers.dev/lazycss/cmd/inline"
	"bennypowers.dev/lazycss/cmd/trace"
	"bennypowers.dev/lazycss/cmd/version"
)

var (
	cpuprofile     string
	cpuprofileFile *os.File
	configFile     string
	rootCmd        = &cobra.Command{
		Use:   "lazycss",
		Short: "Keep lazily loaded CSS out of the eager stylesheet bundle",
		Long: `lazycss diverts stylesheets imported below a dynamic import() into JavaScript
modules that inject them when their chunk loads.

Settings are read from lazycss.yaml in the project directory, LAZYCSS_*
environment variables (a .env file is loaded first) and flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)
			}
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	// Root flags (persistent across all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("package", "p", ".", "Project directory")
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: <package>/lazycss.yaml)")
	flags.BoolP("verbose", "v", false, "Print debug output")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	// Plugin settings, overriding lazycss.yaml
	flags.Bool("dev", false, "Development mode: readable injection ids, no minification")
	flags.StringSlice("include", nil, "Paths (prefixes or globs) lazycss may touch")
	flags.StringSlice("exclude", nil, "Paths (substrings or globs) lazycss never touches")
	flags.String("preload-mode", "", "Preload rewrite: css (drop stylesheets) or all (drop every dependency)")
	flags.String("scoped-name", "", "Scoped class name template for *.module.css")

	_ = viper.BindPFlag("package", flags.Lookup("package"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("dev", flags.Lookup("dev"))
	_ = viper.BindPFlag("included-paths", flags.Lookup("include"))
	_ = viper.BindPFlag("excluded-paths", flags.Lookup("exclude"))
	_ = viper.BindPFlag("preload-mode", flags.Lookup("preload-mode"))
	_ = viper.BindPFlag("css-modules.scoped-name", flags.Lookup("scoped-name"))

	// Add commands
	rootCmd.AddCommand(build.Cmd)
	rootCmd.AddCommand(trace.Cmd)
	rootCmd.AddCommand(inline.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
