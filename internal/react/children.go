package react

import (
	"strconv"

	"github.com/dop251/goja"
)

func (m *module) children() *goja.Object {
	obj := m.vm.NewObject()

	_ = obj.Set("toArray", func(call goja.FunctionCall) goja.Value {
		return m.array(Flatten(call.Argument(0)))
	})
	_ = obj.Set("count", func(call goja.FunctionCall) goja.Value {
		return m.vm.ToValue(len(Flatten(call.Argument(0))))
	})
	_ = obj.Set("only", func(call goja.FunctionCall) goja.Value {
		child := call.Argument(0)
		if !IsElement(child) {
			panic(m.vm.NewTypeError("React.Children.only expected to receive a single React element child."))
		}
		return child
	})
	_ = obj.Set("forEach", func(call goja.FunctionCall) goja.Value {
		m.each(call, false)
		return goja.Undefined()
	})
	_ = obj.Set("map", func(call goja.FunctionCall) goja.Value {
		if isNullish(call.Argument(0)) {
			return call.Argument(0)
		}
		return m.array(m.each(call, true))
	})

	return obj
}

func (m *module) each(call goja.FunctionCall, collect bool) []goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(m.vm.NewTypeError("React.Children callback must be a function"))
	}

	var out []goja.Value
	for i, child := range Flatten(call.Argument(0)) {
		result, err := fn(call.Argument(2), child, m.vm.ToValue(i))
		if err != nil {
			Rethrow(m.vm, err)
		}
		if collect && !isNullish(result) {
			out = append(out, result)
		}
	}

	return out
}

func (m *module) array(values []goja.Value) goja.Value {
	items := make([]interface{}, len(values))
	for i, v := range values {
		items[i] = v
	}
	return m.vm.NewArray(items...)
}

// Flatten returns the renderable children of v with nested arrays expanded.
// Nullish and boolean children are dropped.
func Flatten(v goja.Value) []goja.Value {
	var out []goja.Value
	flattenInto(v, &out)
	return out
}

func flattenInto(v goja.Value, out *[]goja.Value) {
	if isNullish(v) {
		return
	}
	if _, ok := v.Export().(bool); ok {
		return
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Array" {
		length := obj.Get("length").ToInteger()
		for i := int64(0); i < length; i++ {
			flattenInto(obj.Get(strconv.FormatInt(i, 10)), out)
		}
		return
	}
	*out = append(*out, v)
}
