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
package inject

import (
	"bytes"
	"runtime"
	"sync"

	"bennypowers.dev/lazycss/fs"
)

// Stylesheet is processed CSS ready to be inlined under an injection id.
type Stylesheet struct {
	ID  string `json:"id"`
	CSS string `json:"-"`
}

// BatchOptions configures InlineBatch.
type BatchOptions struct {
	// Parallel is the number of workers. Zero selects the number of CPUs.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of inlining into a single file.
type Result struct {
	File     string `json:"file"`
	Modified bool   `json:"modified"`
	Error    string `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inline run.
type Stats struct {
	Total    int   `json:"total"`
	Modified int   `json:"modified"`
	Skipped  int   `json:"skipped"`
	Errors   int   `json:"errors"`
	Duration int64 `json:"duration_ms"`
}

// InlineBatch writes style tags for sheets into multiple HTML files in
// parallel. Existing tags with the same injection id are updated in place, so
// the browser runtime adopts them instead of injecting duplicates.
func InlineBatch(fsys fs.FileSystem, files []string, sheets []Stylesheet, opts BatchOptions) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for file := range jobs {
					results <- inlineFile(fsys, file, sheets, opts.DryRun)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

func inlineFile(fsys fs.FileSystem, file string, sheets []Stylesheet, dryRun bool) Result {
	result := Result{File: file}

	content, err := fsys.ReadFile(file)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	doc, err := ParseHTML(bytes.NewReader(content))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	registry := NewRegistry()
	for _, sheet := range sheets {
		if err := registry.Ensure(doc, sheet.ID, sheet.CSS); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	if !doc.Changed() {
		return result
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Modified = true
	if !dryRun {
		if err := fsys.WriteFile(file, out.Bytes(), 0644); err != nil {
			result.Error = err.Error()
		}
	}
	return result
}
