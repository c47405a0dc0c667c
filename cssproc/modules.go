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
	"context"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ModulesPlugin rewrites class selectors and keyframes names of a CSS module
// to scoped names and reports the authored-to-scoped mapping.
//
// Names inside :global(...) or after a bare :global are left alone;
// :local(...) wrappers are unwrapped and scoped.
type ModulesPlugin struct {
	template   *Template
	convention LocalsConvention
	root       string
	onTokens   func(map[string]string)
}

// NewModulesPlugin creates the scoping plugin. onTokens may be nil, in which
// case tokens are reported to the pipeline that runs the plugin.
func NewModulesPlugin(cfg ModulesConfig, root string, onTokens func(map[string]string)) (*ModulesPlugin, error) {
	pattern := cfg.GenerateScopedName
	if pattern == "" {
		pattern = DefaultScopedName
	}
	tmpl, err := ParseTemplate(pattern)
	if err != nil {
		return nil, err
	}
	convention, err := ParseLocalsConvention(string(cfg.LocalsConvention))
	if err != nil {
		return nil, err
	}
	return &ModulesPlugin{
		template:   tmpl,
		convention: convention,
		root:       root,
		onTokens:   onTokens,
	}, nil
}

func (p *ModulesPlugin) Name() string {
	return ModulesPluginName
}

type cssToken struct {
	typ  css.TokenType
	text string
}

func (p *ModulesPlugin) Process(ctx context.Context, file, source string) (string, error) {
	toks, err := tokenize(source)
	if err != nil {
		return "", err
	}

	s := &scoper{
		plugin:    p,
		file:      file,
		toks:      toks,
		keyframes: collectKeyframes(toks),
		scoped:    make(map[string]string),
		tokens:    make(map[string]string),
	}
	out := s.run()

	if p.onTokens != nil {
		p.onTokens(s.tokens)
	} else if sink := tokenSink(ctx); sink != nil {
		sink(s.tokens)
	}
	return out, nil
}

func tokenize(source string) ([]cssToken, error) {
	lexer := css.NewLexer(parse.NewInputString(source))
	var toks []cssToken
	for {
		typ, data := lexer.Next()
		if typ == css.ErrorToken {
			if err := lexer.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return toks, nil
		}
		toks = append(toks, cssToken{typ: typ, text: string(data)})
	}
}

// collectKeyframes finds locally declared @keyframes names so later
// animation references can be rewritten even when they precede the rule.
func collectKeyframes(toks []cssToken) map[string]bool {
	names := make(map[string]bool)
	for i, t := range toks {
		if t.typ != css.AtKeywordToken || !isKeyframesAt(t.text) {
			continue
		}
		if j := nextSignificant(toks, i+1); j >= 0 && toks[j].typ == css.IdentToken {
			names[toks[j].text] = true
		}
	}
	return names
}

func isKeyframesAt(s string) bool {
	s = strings.ToLower(s)
	return s == "@keyframes" || strings.HasSuffix(s, "-keyframes")
}

func isAnimationProperty(s string) bool {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(s, "-webkit-"), "-moz-"))
	return s == "animation" || s == "animation-name"
}

func nextSignificant(toks []cssToken, from int) int {
	for i := from; i < len(toks); i++ {
		switch toks[i].typ {
		case css.WhitespaceToken, css.CommentToken:
			continue
		}
		return i
	}
	return -1
}

type scoper struct {
	plugin    *ModulesPlugin
	file      string
	toks      []cssToken
	keyframes map[string]bool
	scoped    map[string]string
	tokens    map[string]string
}

// scope returns the scoped name for local and records its token keys.
func (s *scoper) scope(local string) string {
	if name, ok := s.scoped[local]; ok {
		return name
	}
	name := s.plugin.template.Expand(s.file, s.plugin.root, local)
	s.scoped[local] = name
	for _, key := range s.plugin.convention.keys(local) {
		s.tokens[key] = name
	}
	return name
}

func (s *scoper) run() string {
	var b strings.Builder
	b.Grow(len(s.toks) * 4)

	var (
		blockDepth int
		parenDepth int
		property   string
		// globalParen is the paren depth a :global(...) group closes at, or -1
		globalParen = -1
		// unwrapParen is the paren depth a :local(...) group closes at, or -1
		unwrapParen = -1
		// bareGlobal is set by ":global" until the end of the selector
		bareGlobal bool
	)
	isGlobal := func() bool { return globalParen >= 0 || bareGlobal }

	for i := 0; i < len(s.toks); i++ {
		t := s.toks[i]

		switch t.typ {
		case css.ColonToken:
			if i+1 < len(s.toks) {
				next := s.toks[i+1]
				switch {
				case next.typ == css.FunctionToken && strings.EqualFold(next.text, "global("):
					parenDepth++
					if globalParen < 0 {
						globalParen = parenDepth
					}
					i++
					continue
				case next.typ == css.FunctionToken && strings.EqualFold(next.text, "local("):
					parenDepth++
					if unwrapParen < 0 {
						unwrapParen = parenDepth
					}
					i++
					continue
				case next.typ == css.IdentToken && (strings.EqualFold(next.text, "global") || strings.EqualFold(next.text, "local")):
					bareGlobal = strings.EqualFold(next.text, "global")
					i++
					// swallow one following space so ":global .a" becomes ".a"
					if i+1 < len(s.toks) && s.toks[i+1].typ == css.WhitespaceToken {
						i++
					}
					continue
				}
			}

		case css.FunctionToken, css.LeftParenthesisToken:
			parenDepth++

		case css.RightParenthesisToken:
			if parenDepth == globalParen {
				globalParen = -1
				parenDepth--
				continue
			}
			if parenDepth == unwrapParen {
				unwrapParen = -1
				parenDepth--
				continue
			}
			if parenDepth > 0 {
				parenDepth--
			}

		case css.CommaToken:
			if parenDepth == 0 {
				bareGlobal = false
			}

		case css.LeftBraceToken:
			blockDepth++
			bareGlobal = false
			property = ""

		case css.RightBraceToken:
			if blockDepth > 0 {
				blockDepth--
			}
			property = ""

		case css.SemicolonToken:
			property = ""

		case css.DelimToken:
			if t.text == "." && i+1 < len(s.toks) && s.toks[i+1].typ == css.IdentToken {
				b.WriteString(".")
				local := s.toks[i+1].text
				if isGlobal() {
					b.WriteString(local)
				} else {
					b.WriteString(s.scope(local))
				}
				i++
				continue
			}

		case css.AtKeywordToken:
			if isKeyframesAt(t.text) {
				b.WriteString(t.text)
				j := nextSignificant(s.toks, i+1)
				if j >= 0 && s.toks[j].typ == css.IdentToken {
					for k := i + 1; k < j; k++ {
						b.WriteString(s.toks[k].text)
					}
					b.WriteString(s.scope(s.toks[j].text))
					i = j
				}
				continue
			}

		case css.IdentToken:
			if blockDepth > 0 && property == "" && parenDepth == 0 {
				if j := nextSignificant(s.toks, i+1); j >= 0 && s.toks[j].typ == css.ColonToken {
					property = t.text
				}
			} else if isAnimationProperty(property) && s.keyframes[t.text] {
				b.WriteString(s.scope(t.text))
				continue
			}
		}

		b.WriteString(t.text)
	}

	return b.String()
}
