package sandbox

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/logging"
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Wall clock budget for load and render
	CallStackSize int           // Maximum JS call stack depth
	Filename      string        // Name reported in stack traces
}

// DefaultConfig returns the configuration used by the playground.
func DefaultConfig() Config {
	return Config{
		Timeout:       2 * time.Second,
		CallStackSize: 1024,
		Filename:      "userComponent.js",
	}
}

// Loader evaluates compiled scripts against a module table.
type Loader struct {
	table  *Table
	config Config
	logger logging.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(table *Table, config Config, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	if config.CallStackSize <= 0 {
		config.CallStackSize = DefaultConfig().CallStackSize
	}
	if config.Filename == "" {
		config.Filename = DefaultConfig().Filename
	}

	return &Loader{
		table:  table,
		config: config,
		logger: logger.WithComponent("sandbox"),
	}
}

// Export is the result of evaluating a script.
type Export struct {
	// Default is module.exports.default after the script ran. It is
	// undefined when nothing was exported.
	Default goja.Value

	vm      *goja.Runtime
	console *Console
	stop    func()
}

// Runtime returns the VM the export belongs to.
func (e *Export) Runtime() *goja.Runtime {
	return e.vm
}

// Console returns output captured so far.
func (e *Export) Console() []LogEntry {
	return e.console.Entries()
}

// Close stops the interrupt watcher. The export must not be used afterwards.
func (e *Export) Close() {
	if e.stop != nil {
		e.stop()
	}
}

// Load evaluates code in a fresh VM and extracts its default export.
//
// The returned Export stays bound to ctx and the configured timeout until
// Close is called, so rendering it is covered by the same budget.
func (l *Loader) Load(ctx context.Context, code string) (*Export, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(l.config.CallStackSize)

	console := &Console{}
	if err := l.setupGlobals(vm, console); err != nil {
		return nil, errors.NewRuntimeError("failed to prepare sandbox", err)
	}

	exp := &Export{
		Default: goja.Undefined(),
		vm:      vm,
		console: console,
		stop:    l.watch(ctx, vm),
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		exp.Close()
		return nil, errors.NewRuntimeError("failed to prepare module", err)
	}

	wrapper, err := vm.RunScript(l.config.Filename, "(function (require, module, exports) {\n"+code+"\n})")
	if err != nil {
		exp.Close()
		return nil, Classify(err)
	}
	body, ok := goja.AssertFunction(wrapper)
	if !ok {
		exp.Close()
		return nil, errors.NewRuntimeError("compiled script is not a function body", nil)
	}

	if _, err := body(goja.Undefined(), vm.ToValue(l.requireFunc(vm)), module, exports); err != nil {
		exp.Close()
		pe := Classify(err)
		l.logger.Debug(ctx, "Script evaluation failed", "kind", pe.Kind, "message", pe.Message)
		return nil, pe
	}

	exp.Default = defaultExport(module)

	return exp, nil
}

// setupGlobals configures global objects. goja ships without require,
// process or module; only console, alert and inert timers are added.
func (l *Loader) setupGlobals(vm *goja.Runtime, console *Console) error {
	if err := console.install(vm); err != nil {
		return err
	}

	inert := func(goja.FunctionCall) goja.Value { return vm.ToValue(0) }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, inert); err != nil {
			return err
		}
	}

	return nil
}

// requireFunc resolves names against the table. Each module is built at
// most once per VM so identity checks inside user code hold.
func (l *Loader) requireFunc(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	cache := make(map[string]*goja.Object)

	return func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if mod, ok := cache[name]; ok {
			return mod
		}

		factory, ok := l.table.lookup(name)
		if !ok {
			panic(vm.NewGoError(errors.NewImportError(name, l.table.Names())))
		}

		mod, err := factory(vm)
		if err != nil {
			panic(vm.NewGoError(errors.NewRuntimeError(
				fmt.Sprintf("Module %q failed to initialise: %v", name, err), err,
			)))
		}
		cache[name] = mod

		return mod
	}
}

// watch interrupts vm when ctx ends or the timeout elapses.
func (l *Loader) watch(ctx context.Context, vm *goja.Runtime) func() {
	done := make(chan struct{})

	var timeout <-chan time.Time
	var timer *time.Timer
	if l.config.Timeout > 0 {
		timer = time.NewTimer(l.config.Timeout)
		timeout = timer.C
	}

	go func() {
		select {
		case <-timeout:
			vm.Interrupt(fmt.Sprintf("Execution timed out after %s.", l.config.Timeout))
		case <-ctx.Done():
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				vm.Interrupt("Execution timed out.")
			} else {
				vm.Interrupt("Execution cancelled.")
			}
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if timer != nil {
				timer.Stop()
			}
		})
	}
}

func defaultExport(module *goja.Object) goja.Value {
	exports, ok := module.Get("exports").(*goja.Object)
	if !ok {
		return goja.Undefined()
	}
	def := exports.Get("default")
	if def == nil {
		return goja.Undefined()
	}

	return def
}

// Classify converts an error raised by the VM into a playground error.
// Errors thrown by the module table keep their kind, interrupts and
// exceptions become runtime errors with the thrown message preserved.
func Classify(err error) *errors.PlaygroundError {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if stderrors.As(err, &interrupted) {
		return errors.NewRuntimeError(fmt.Sprint(interrupted.Value()), err)
	}

	var overflow *goja.StackOverflowError
	if stderrors.As(err, &overflow) {
		return errors.NewRuntimeError("Maximum call stack size exceeded", err)
	}

	var exc *goja.Exception
	if stderrors.As(err, &exc) {
		if pe := wrappedError(exc); pe != nil {
			return pe
		}
		return errors.NewRuntimeError(exceptionMessage(exc), err)
	}

	var syntax *goja.CompilerSyntaxError
	if stderrors.As(err, &syntax) {
		return errors.NewRuntimeError(syntax.Error(), err)
	}

	return errors.As(err)
}

// wrappedError recovers a *PlaygroundError thrown from Go through NewGoError.
func wrappedError(exc *goja.Exception) *errors.PlaygroundError {
	var pe *errors.PlaygroundError
	if stderrors.As(exc, &pe) {
		return pe
	}

	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return nil
	}
	value := obj.Get("value")
	if value == nil {
		return nil
	}
	if goErr, ok := value.Export().(error); ok && stderrors.As(goErr, &pe) {
		return pe
	}

	return nil
}

func exceptionMessage(exc *goja.Exception) string {
	val := exc.Value()
	if obj, ok := val.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	if val == nil {
		return exc.Error()
	}

	return val.String()
}
