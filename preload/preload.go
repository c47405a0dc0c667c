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
// Package preload rewrites the bundler's dynamic-preload helper calls in
// emitted chunks so lazily injected CSS is not also preloaded as a file.
package preload

import (
	"fmt"
	"strings"

	"bennypowers.dev/lazycss/internal/jsparse"
	"bennypowers.dev/lazycss/internal/patch"
)

// DefaultHelper is the preload helper name emitted by Vite-style bundlers.
const DefaultHelper = "__vitePreload"

// CSSFilter is the predicate applied to dependency arrays in ModeCSS.
const CSSFilter = `(dep) => !(typeof dep === "string" && dep.endsWith(".css"))`

// Mode selects how dependency arguments are rewritten.
type Mode string

const (
	// ModeAll drops every argument after the first, disabling preloading.
	ModeAll Mode = "all"
	// ModeCSS filters CSS entries out of the dependency array at runtime.
	ModeCSS Mode = "css"
)

// ParseMode validates a mode name. Empty selects ModeCSS.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeCSS, nil
	case ModeAll, ModeCSS:
		return m, nil
	default:
		return "", fmt.Errorf("unknown preload mode %q (want %q or %q)", s, ModeAll, ModeCSS)
	}
}

// ParseError reports a chunk that could not be parsed. It is never fatal.
type ParseError struct {
	Chunk string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse chunk %s, preload deps left untouched: %v", e.Chunk, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is a rewritten chunk.
type Result struct {
	Code     string
	Map      *patch.SourceMap
	Rewrites int
}

// HasHelperCall reports whether code contains a call to helper.
func HasHelperCall(code, helper string) bool {
	return strings.Contains(code, helper+"(")
}

// wrap returns the ModeCSS replacement for a dependency argument.
func wrap(src string) string {
	return "(__deps=>Array.isArray(__deps)?__deps.filter(" + CSSFilter + "):__deps)(" + src + ")"
}

// Rewrite patches every call to helper with at least two arguments. It
// returns nil when nothing was changed.
func Rewrite(code, chunk, helper string, mode Mode) (*Result, error) {
	if helper == "" {
		helper = DefaultHelper
	}

	calls, err := jsparse.FindCalls([]byte(code), helper)
	if err != nil {
		return nil, &ParseError{Chunk: chunk, Err: err}
	}

	p := patch.New(code)
	rewrites := 0
	for _, call := range calls {
		if len(call.Args) < 2 {
			continue
		}
		var ok bool
		switch mode {
		case ModeAll:
			ok = p.Remove(call.Args[0].End, call.End-1)
		default:
			deps := call.Args[1]
			ok = p.Overwrite(deps.Start, deps.End, wrap(code[deps.Start:deps.End]))
		}
		if ok {
			rewrites++
		}
	}

	if !p.HasChanged() {
		return nil, nil
	}
	return &Result{
		Code:     p.String(),
		Map:      p.SourceMap(chunk, chunk, false),
		Rewrites: rewrites,
	}, nil
}
