// Package react implements the "react" module handle exposed to sandboxed
// components.
//
// Only the surface needed for a single static render exists: element
// creation, fragments, class components, context, memo/forwardRef wrappers
// and hooks that return their initial values. Nothing is ever re-rendered, so
// state setters and effects are inert.
package react

import (
	stderrors "errors"
	"fmt"

	"github.com/dop251/goja"
)

// ModuleName is the import specifier user code requires.
const ModuleName = "react"

// Version is reported as React.version.
const Version = "18.3.1-tsxrunner"

// TypeKey is the property that tags elements and special component types.
const TypeKey = "$$typeof"

// Type tags stored under TypeKey.
const (
	ElementType    = "react.element"
	FragmentType   = "react.fragment"
	ProviderType   = "react.provider"
	ConsumerType   = "react.consumer"
	ContextType    = "react.context"
	MemoType       = "react.memo"
	ForwardRefType = "react.forward_ref"
)

var classesProgram = goja.MustCompile("react-classes.js", `(function () {
	function Component(props, context) {
		this.props = props;
		this.context = context;
		this.refs = {};
	}
	Component.prototype.isReactComponent = {};
	Component.prototype.setState = function (partial) {
		var next = typeof partial === "function" ? partial(this.state, this.props) : partial;
		this.state = Object.assign({}, this.state, next);
	};
	Component.prototype.forceUpdate = function () {};

	function PureComponent(props, context) {
		Component.call(this, props, context);
	}
	PureComponent.prototype = Object.create(Component.prototype);
	PureComponent.prototype.constructor = PureComponent;
	PureComponent.prototype.isPureReactComponent = true;

	return { Component: Component, PureComponent: PureComponent };
})()`, true)

type module struct {
	vm  *goja.Runtime
	ids int
}

// New builds the module object for vm. It matches sandbox.Factory.
func New(vm *goja.Runtime) (*goja.Object, error) {
	m := &module{vm: vm}
	exports := vm.NewObject()

	classes, err := vm.RunProgram(classesProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to define component classes: %w", err)
	}
	classObj := classes.ToObject(vm)

	fragment := m.tagged(FragmentType)

	members := []struct {
		name  string
		value interface{}
	}{
		{"version", Version},
		{"createElement", m.createElement},
		{"cloneElement", m.cloneElement},
		{"isValidElement", m.isValidElement},
		{"createContext", m.createContext},
		{"createRef", m.createRef},
		{"memo", m.memo},
		{"forwardRef", m.forwardRef},
		{"Fragment", fragment},
		{"StrictMode", m.tagged(FragmentType)},
		{"Suspense", m.tagged(FragmentType)},
		{"Component", classObj.Get("Component")},
		{"PureComponent", classObj.Get("PureComponent")},
		{"Children", m.children()},
		{"useState", m.useState},
		{"useReducer", m.useReducer},
		{"useMemo", m.useMemo},
		{"useCallback", m.useCallback},
		{"useRef", m.useRef},
		{"useContext", m.useContext},
		{"useId", m.useID},
		{"useTransition", m.useTransition},
		{"useDeferredValue", m.identity},
		{"useEffect", m.noop},
		{"useLayoutEffect", m.noop},
		{"useInsertionEffect", m.noop},
		{"useDebugValue", m.noop},
	}
	for _, member := range members {
		if err := exports.Set(member.name, member.value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", member.name, err)
		}
	}

	return exports, nil
}

func (m *module) tagged(tag string) *goja.Object {
	obj := m.vm.NewObject()
	_ = obj.Set(TypeKey, tag)
	return obj
}

// NewElement builds an element the same way createElement does.
func NewElement(vm *goja.Runtime, typ goja.Value, config goja.Value, children []goja.Value) *goja.Object {
	props := vm.NewObject()
	key := goja.Null()
	ref := goja.Null()

	if cfg, ok := config.(*goja.Object); ok {
		for _, name := range cfg.Keys() {
			value := cfg.Get(name)
			switch name {
			case "key":
				if !isNullish(value) {
					key = vm.ToValue(value.String())
				}
			case "ref":
				ref = value
			case "__self", "__source":
			default:
				_ = props.Set(name, value)
			}
		}
	}

	switch len(children) {
	case 0:
	case 1:
		_ = props.Set("children", children[0])
	default:
		items := make([]interface{}, len(children))
		for i, child := range children {
			items[i] = child
		}
		_ = props.Set("children", vm.NewArray(items...))
	}

	applyDefaultProps(typ, props)

	element := vm.NewObject()
	_ = element.Set(TypeKey, ElementType)
	_ = element.Set("type", typ)
	_ = element.Set("key", key)
	_ = element.Set("ref", ref)
	_ = element.Set("props", props)

	return element
}

func applyDefaultProps(typ goja.Value, props *goja.Object) {
	obj, ok := typ.(*goja.Object)
	if !ok {
		return
	}
	defaults, ok := obj.Get("defaultProps").(*goja.Object)
	if !ok {
		return
	}
	for _, name := range defaults.Keys() {
		if current := props.Get(name); current == nil || goja.IsUndefined(current) {
			_ = props.Set(name, defaults.Get(name))
		}
	}
}

// IsElement reports whether v is an element object.
func IsElement(v goja.Value) bool {
	return TagOf(v) == ElementType
}

// TagOf returns the TypeKey tag of v, or "" when v is untagged.
func TagOf(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok {
		return ""
	}
	tag := obj.Get(TypeKey)
	if tag == nil || goja.IsUndefined(tag) {
		return ""
	}

	return tag.String()
}

func (m *module) createElement(call goja.FunctionCall) goja.Value {
	typ := call.Argument(0)
	if isNullish(typ) {
		panic(m.vm.NewTypeError("React.createElement: type is invalid -- expected a string or a component but got: %s", typ))
	}

	var children []goja.Value
	if len(call.Arguments) > 2 {
		children = call.Arguments[2:]
	}

	return NewElement(m.vm, typ, call.Argument(1), children)
}

func (m *module) cloneElement(call goja.FunctionCall) goja.Value {
	original, ok := call.Argument(0).(*goja.Object)
	if !ok || !IsElement(original) {
		panic(m.vm.NewTypeError("React.cloneElement(...): The argument must be a React element"))
	}

	merged := m.vm.NewObject()
	if props, ok := original.Get("props").(*goja.Object); ok {
		for _, name := range props.Keys() {
			_ = merged.Set(name, props.Get(name))
		}
	}
	if key := original.Get("key"); !isNullish(key) {
		_ = merged.Set("key", key)
	}
	if cfg, ok := call.Argument(1).(*goja.Object); ok {
		for _, name := range cfg.Keys() {
			_ = merged.Set(name, cfg.Get(name))
		}
	}

	var children []goja.Value
	if len(call.Arguments) > 2 {
		children = call.Arguments[2:]
	} else if existing := merged.Get("children"); existing != nil {
		_ = merged.Delete("children")
		children = []goja.Value{existing}
	}

	return NewElement(m.vm, original.Get("type"), merged, children)
}

func (m *module) isValidElement(call goja.FunctionCall) goja.Value {
	return m.vm.ToValue(IsElement(call.Argument(0)))
}

func (m *module) createContext(call goja.FunctionCall) goja.Value {
	ctx := m.tagged(ContextType)
	_ = ctx.Set("_currentValue", call.Argument(0))

	provider := m.tagged(ProviderType)
	_ = provider.Set("_context", ctx)
	consumer := m.tagged(ConsumerType)
	_ = consumer.Set("_context", ctx)

	_ = ctx.Set("Provider", provider)
	_ = ctx.Set("Consumer", consumer)

	return ctx
}

func (m *module) memo(call goja.FunctionCall) goja.Value {
	obj := m.tagged(MemoType)
	_ = obj.Set("type", call.Argument(0))
	return obj
}

func (m *module) forwardRef(call goja.FunctionCall) goja.Value {
	if _, ok := goja.AssertFunction(call.Argument(0)); !ok {
		panic(m.vm.NewTypeError("forwardRef requires a render function"))
	}
	obj := m.tagged(ForwardRefType)
	_ = obj.Set("render", call.Argument(0))
	return obj
}

func (m *module) createRef(goja.FunctionCall) goja.Value {
	ref := m.vm.NewObject()
	_ = ref.Set("current", goja.Null())
	return ref
}

func (m *module) useState(call goja.FunctionCall) goja.Value {
	return m.pair(m.initial(call.Argument(0)), m.vm.ToValue(m.noop))
}

func (m *module) useReducer(call goja.FunctionCall) goja.Value {
	state := call.Argument(1)
	if init, ok := goja.AssertFunction(call.Argument(2)); ok {
		state = m.call(init, state)
	}
	return m.pair(state, m.vm.ToValue(m.noop))
}

func (m *module) useMemo(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(m.vm.NewTypeError("useMemo requires a function"))
	}
	return m.call(fn)
}

func (m *module) useCallback(call goja.FunctionCall) goja.Value {
	return call.Argument(0)
}

func (m *module) useRef(call goja.FunctionCall) goja.Value {
	ref := m.vm.NewObject()
	_ = ref.Set("current", call.Argument(0))
	return ref
}

func (m *module) useContext(call goja.FunctionCall) goja.Value {
	ctx, ok := call.Argument(0).(*goja.Object)
	if !ok || TagOf(ctx) != ContextType {
		panic(m.vm.NewTypeError("useContext requires a context object"))
	}
	return ctx.Get("_currentValue")
}

func (m *module) useID(goja.FunctionCall) goja.Value {
	id := fmt.Sprintf(":r%d:", m.ids)
	m.ids++
	return m.vm.ToValue(id)
}

func (m *module) useTransition(goja.FunctionCall) goja.Value {
	start := func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			m.call(fn)
		}
		return goja.Undefined()
	}
	return m.pair(m.vm.ToValue(false), m.vm.ToValue(start))
}

func (m *module) identity(call goja.FunctionCall) goja.Value {
	return call.Argument(0)
}

func (m *module) noop(goja.FunctionCall) goja.Value {
	return goja.Undefined()
}

// initial resolves lazy initial state.
func (m *module) initial(v goja.Value) goja.Value {
	if fn, ok := goja.AssertFunction(v); ok {
		return m.call(fn)
	}
	return v
}

func (m *module) pair(a, b goja.Value) goja.Value {
	return m.vm.NewArray(a, b)
}

// call invokes fn and rethrows any exception into the calling script.
func (m *module) call(fn goja.Callable, args ...goja.Value) goja.Value {
	out, err := fn(goja.Undefined(), args...)
	if err != nil {
		Rethrow(m.vm, err)
	}
	return out
}

// Rethrow re-raises err inside the VM from native code. It never returns.
func Rethrow(vm *goja.Runtime, err error) {
	var exc *goja.Exception
	if stderrors.As(err, &exc) {
		panic(exc)
	}
	panic(vm.NewGoError(err))
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
