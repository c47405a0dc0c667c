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
// Package output provides shared output utilities for lazycss CLI commands.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/viper"

	"bennypowers.dev/lazycss/fs"
)

// Logger is an interface for logging messages during a build.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// StreamLogger writes warnings, and debug lines when verbose, to a stream.
type StreamLogger struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewStderrLogger returns a logger writing to standard error.
func NewStderrLogger(verbose bool) *StreamLogger {
	return NewStreamLogger(os.Stderr, verbose)
}

// NewStreamLogger returns a logger writing to w.
func NewStreamLogger(w io.Writer, verbose bool) *StreamLogger {
	return &StreamLogger{w: w, verbose: verbose}
}

func (l *StreamLogger) Warning(format string, args ...any) {
	l.printf("Warning: "+format, args...)
}

func (l *StreamLogger) Debug(format string, args ...any) {
	if l.verbose {
		l.printf("Debug: "+format, args...)
	}
}

func (l *StreamLogger) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format+"\n", args...)
}

type nopLogger struct{}

func (nopLogger) Warning(string, ...any) {}
func (nopLogger) Debug(string, ...any)   {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// Report writes a command report to stdout, or to the file named by viper's
// "output" key when set.
func Report(osfs fs.FileSystem, report string) error {
	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, []byte(report+"\n"), 0644)
	}
	fmt.Println(report)
	return nil
}
