//go:build property

package watcher

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties checks batch coalescing independent of timing.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a flush emits one event per distinct path", prop.ForAll(
		func(picks []int) bool {
			d := &Debouncer{output: make(chan []ChangeEvent, 1)}

			distinct := make(map[string]EventType)
			for i, p := range picks {
				path := fmt.Sprintf("file%d.tsx", p)
				typ := EventType(i % 4)
				d.pending = append(d.pending, ChangeEvent{Path: path, Type: typ})
				distinct[path] = typ
			}

			d.flush()

			if len(picks) == 0 {
				return len(d.output) == 0
			}

			batch := <-d.output
			if len(batch) != len(distinct) {
				return false
			}
			for _, e := range batch {
				if distinct[e.Path] != e.Type {
					return false
				}
			}
			return len(d.pending) == 0
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("batches keep first-seen path order", prop.ForAll(
		func(n int) bool {
			d := &Debouncer{output: make(chan []ChangeEvent, 1)}
			for i := 0; i < n; i++ {
				d.pending = append(d.pending, ChangeEvent{Path: fmt.Sprintf("f%03d.tsx", i)})
			}
			for i := n - 1; i >= 0; i-- {
				d.pending = append(d.pending, ChangeEvent{Path: fmt.Sprintf("f%03d.tsx", i)})
			}

			d.flush()
			batch := <-d.output
			for i, e := range batch {
				if e.Path != fmt.Sprintf("f%03d.tsx", i) {
					return false
				}
			}
			return len(batch) == n
		},
		gen.IntRange(1, 50),
	))

	properties.Property("validated paths never contain parent segments", prop.ForAll(
		func(depth int, name string) bool {
			path := ""
			for i := 0; i < depth; i++ {
				path += "../"
			}
			path += name + ".tsx"

			_, err := ValidatePath(path)
			return (depth > 0) == (err != nil)
		},
		gen.IntRange(0, 4),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
