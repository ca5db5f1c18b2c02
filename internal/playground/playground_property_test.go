//go:build property

package playground

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/tsxrunner/internal/errors"
)

// TestSessionProperties checks the output pane invariants over generated sources.
func TestSessionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	runner := NewRunner(Options{})

	properties.Property("after a run exactly one of markup or error is shown", prop.ForAll(
		func(source string) bool {
			s := NewSession(runner, source, nil)
			snap := s.Run(context.Background())
			switch snap.Status {
			case StatusRendered:
				return snap.Error == nil
			case StatusFailed:
				return snap.Error != nil && snap.HTML == ""
			default:
				return false
			}
		},
		gen.AnyString(),
	))

	properties.Property("unknown modules are import errors naming the module", prop.ForAll(
		func(name string) bool {
			if name == "react" {
				return true
			}
			src := fmt.Sprintf("import { x } from %q;\nexport default () => x;", name)
			_, err := runner.Run(context.Background(), src)
			return errors.IsImportError(err) &&
				err.Error() == fmt.Sprintf("Module %q is not available. Only React and @fluentui/react-components are allowed.", name)
		},
		gen.Identifier(),
	))

	properties.Property("rendering the same text twice yields the same markup", prop.ForAll(
		func(text string) bool {
			src := fmt.Sprintf("import React from 'react';\nexport default () => <p>{%q}</p>;", text)
			a, errA := runner.Run(context.Background(), src)
			b, errB := runner.Run(context.Background(), src)
			return errA == nil && errB == nil && a.HTML == b.HTML
		},
		gen.AlphaString(),
	))

	properties.Property("non callable defaults are export errors", prop.ForAll(
		func(n int) bool {
			_, err := runner.Run(context.Background(), fmt.Sprintf("export default %d;", n))
			return errors.IsExportError(err)
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
