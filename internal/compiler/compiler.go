// Package compiler converts TSX component source into a CommonJS script
// that the sandbox can evaluate.
//
// The transform strips TypeScript declarations, lowers JSX to classic
// React.createElement calls and rewrites ES module syntax so the default
// export ends up on module.exports.default. It is a pure function of the
// source text and options; nothing is cached between calls.
package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/tsxrunner/internal/errors"
)

// DefaultFilename is the name diagnostics are reported against.
const DefaultFilename = "userComponent.tsx"

// emptyOutputMessage is reported when the transform succeeds but yields no code.
const emptyOutputMessage = "Transpilation failed. Please check your code and try again."

// Script is compiled, ready to evaluate CommonJS code.
type Script struct {
	Code     string
	Filename string
	Warnings []string
}

// Options configures the transform.
type Options struct {
	// Filename is used in diagnostics. Defaults to DefaultFilename.
	Filename string
	// MaxSourceBytes rejects larger sources before transpiling. Zero disables the check.
	MaxSourceBytes int
	// Target is the ECMAScript level the output is lowered to.
	Target api.Target
}

// Compiler wraps the esbuild transform API.
type Compiler struct {
	opts Options
}

// New creates a compiler with the given options.
func New(opts Options) *Compiler {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.Target == 0 {
		opts.Target = api.ES2017
	}

	return &Compiler{opts: opts}
}

// Compile transpiles source. Every failure is a compile error carrying
// the transpiler diagnostics as one readable message.
func (c *Compiler) Compile(ctx context.Context, source string) (Script, error) {
	if err := ctx.Err(); err != nil {
		return Script{}, errors.NewCompileError("compilation cancelled").WithCause(err)
	}
	if c.opts.MaxSourceBytes > 0 && len(source) > c.opts.MaxSourceBytes {
		return Script{}, errors.NewCompileError(fmt.Sprintf(
			"Source is %d bytes, which exceeds the %d byte limit.",
			len(source), c.opts.MaxSourceBytes,
		))
	}

	result := api.Transform(source, c.transformOptions())

	if len(result.Errors) > 0 {
		first := result.Errors[0]
		err := errors.NewCompileError(formatMessages(result.Errors))
		if first.Location != nil {
			err = err.WithLocation(first.Location.Line, first.Location.Column+1)
		}
		return Script{}, err
	}

	code := string(result.Code)
	if strings.TrimSpace(code) == "" {
		return Script{}, errors.NewCompileError(emptyOutputMessage)
	}

	return Script{
		Code:     code,
		Filename: c.opts.Filename,
		Warnings: formatEach(result.Warnings),
	}, nil
}

func (c *Compiler) transformOptions() api.TransformOptions {
	return api.TransformOptions{
		Loader:      api.LoaderTSX,
		Format:      api.FormatCommonJS,
		Target:      c.opts.Target,
		Sourcefile:  c.opts.Filename,
		JSX:         api.JSXTransform,
		JSXFactory:  "React.createElement",
		JSXFragment: "React.Fragment",
		// Keep imports that are never referenced so an unknown module still
		// fails at require time instead of being silently elided.
		TsconfigRaw: `{"compilerOptions":{"verbatimModuleSyntax":true}}`,
		LogLevel:    api.LogLevelSilent,
	}
}

func formatMessages(msgs []api.Message) string {
	return strings.Join(formatEach(msgs), "\n")
}

func formatEach(msgs []api.Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, formatMessage(msg))
	}
	return out
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	loc := msg.Location

	return fmt.Sprintf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column+1, msg.Text)
}
