package sandbox

import (
	"github.com/dop251/goja"
)

// Factory builds one module handle inside a VM.
type Factory func(vm *goja.Runtime) (*goja.Object, error)

// Table is the closed set of module names a script may require.
type Table struct {
	names     []string
	factories map[string]Factory
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{factories: make(map[string]Factory)}
}

// Register adds a module. Registering a name twice replaces the factory.
func (t *Table) Register(name string, factory Factory) *Table {
	if _, exists := t.factories[name]; !exists {
		t.names = append(t.names, name)
	}
	t.factories[name] = factory

	return t
}

// Names returns the resolvable names in registration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether name resolves.
func (t *Table) Has(name string) bool {
	_, ok := t.factories[name]
	return ok
}

func (t *Table) lookup(name string) (Factory, bool) {
	f, ok := t.factories[name]
	return f, ok
}
