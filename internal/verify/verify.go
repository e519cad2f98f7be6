// Package verify checks generated TypeScript modules for syntactic
// validity. Modules are transpiled and compiled, never executed.
package verify

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
)

// Transpile converts TypeScript source to CommonJS JavaScript using
// esbuild. Transform errors (syntax errors in the generated module)
// surface as a single error value.
func Transpile(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader: api.LoaderTS,
		Format: api.FormatCommonJS,
		Target: api.ES2017,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("transpile failed: %s", strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

// Module verifies that the generated module transpiles and that the
// resulting JavaScript parses.
func Module(src string) error {
	js, err := Transpile(src)
	if err != nil {
		return err
	}
	if _, err := goja.Compile("module.js", js, false); err != nil {
		return fmt.Errorf("compile transpiled module: %w", err)
	}
	return nil
}
