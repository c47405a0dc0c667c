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
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Minifier minifies CSS with esbuild's CSS printer.
type Minifier struct{}

// NewMinifier creates the default minifier.
func NewMinifier() *Minifier {
	return &Minifier{}
}

func (m *Minifier) Name() string {
	return MinifyPluginName
}

func (m *Minifier) Process(ctx context.Context, file, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       file,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		errs := make([]error, 0, len(result.Errors))
		for _, msg := range result.Errors {
			errs = append(errs, messageError(msg))
		}
		return "", errors.Join(errs...)
	}
	return string(result.Code), nil
}

func messageError(msg api.Message) error {
	if msg.Location != nil {
		return fmt.Errorf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
	}
	return errors.New(msg.Text)
}
