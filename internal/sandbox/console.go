package sandbox

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// maxConsoleEntries caps captured output so a logging loop cannot grow
// memory without bound.
const maxConsoleEntries = 200

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Console collects output written by the script.
type Console struct {
	mu      sync.Mutex
	entries []LogEntry
	dropped int
}

func (c *Console) add(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxConsoleEntries {
		c.dropped++
		return
	}
	c.entries = append(c.entries, LogEntry{Level: level, Message: msg, Time: time.Now()})
}

// Entries returns a copy of the captured output.
func (c *Console) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]LogEntry(nil), c.entries...)
}

// Dropped returns how many entries were discarded past the cap.
func (c *Console) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dropped
}

func (c *Console) install(vm *goja.Runtime) error {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, c.makeFunc(level)); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	return vm.Set("alert", c.makeFunc("alert"))
}

func (c *Console) makeFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, formatValue(arg))
		}
		c.add(level, strings.Join(parts, " "))

		return goja.Undefined()
	}
}

func formatValue(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return "[Function]"
	}
	if obj.ClassName() == "Error" {
		return obj.String()
	}
	if data, err := json.Marshal(obj.Export()); err == nil {
		return string(data)
	}

	return obj.String()
}
