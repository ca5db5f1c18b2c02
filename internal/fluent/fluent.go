// Package fluent implements the "@fluentui/react-components" module handle.
//
// Components are native functions that expand to host elements carrying the
// library's `fui-*` class names, so a static render produces markup that the
// page stylesheet can target. Theme objects, design tokens and the
// makeStyles/mergeClasses helpers are provided for source compatibility.
package fluent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/conneroisu/tsxrunner/internal/react"
)

// ModuleName is the import specifier user code requires.
const ModuleName = "@fluentui/react-components"

// renderFunc builds the element tree for one library component.
type renderFunc func(m *module, props *goja.Object) goja.Value

type module struct {
	vm    *goja.Runtime
	light *goja.Object
	dark  *goja.Object
}

// components is the exported component set, keyed by export name.
var components = map[string]renderFunc{
	"Button":         button,
	"Text":           typography("", "span"),
	"Title1":         typography("fui-Title1", "span"),
	"Title2":         typography("fui-Title2", "span"),
	"Title3":         typography("fui-Title3", "span"),
	"Subtitle1":      typography("fui-Subtitle1", "span"),
	"Subtitle2":      typography("fui-Subtitle2", "span"),
	"Body1":          typography("fui-Body1", "span"),
	"Caption1":       typography("fui-Caption1", "span"),
	"Label":          label,
	"Input":          input,
	"Textarea":       textarea,
	"Link":           link,
	"Card":           simple("div", "fui-Card", "role", "group"),
	"CardHeader":     cardHeader,
	"CardPreview":    simple("div", "fui-CardPreview"),
	"CardFooter":     simple("div", "fui-CardFooter"),
	"Badge":          badge,
	"Divider":        divider,
	"Spinner":        spinner,
	"Checkbox":       checkbox,
	"Switch":         switchControl,
	"Avatar":         avatar,
	"FluentProvider": provider,
}

// Names returns the exported component names, sorted.
func Names() []string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// New builds the module object for vm. It matches sandbox.Factory.
func New(vm *goja.Runtime) (*goja.Object, error) {
	m := &module{vm: vm}
	exports := vm.NewObject()

	for name, component := range components {
		if err := exports.Set(name, m.wrap(name, component)); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	var err error
	if m.light, err = m.theme(lightTheme); err != nil {
		return nil, err
	}
	if m.dark, err = m.theme(darkTheme); err != nil {
		return nil, err
	}

	helpers := []struct {
		name  string
		value interface{}
	}{
		{"webLightTheme", m.light},
		{"webDarkTheme", m.dark},
		{"tokens", m.tokens()},
		{"makeStyles", m.makeStyles},
		{"mergeClasses", m.mergeClasses},
	}
	for _, h := range helpers {
		if err := exports.Set(h.name, h.value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", h.name, err)
		}
	}

	return exports, nil
}

// wrap turns a renderFunc into a callable function component. displayName
// is set so error messages can name it.
func (m *module) wrap(name string, render renderFunc) goja.Value {
	fn := m.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		props, ok := call.Argument(0).(*goja.Object)
		if !ok {
			props = m.vm.NewObject()
		}
		return render(m, props)
	})
	_ = fn.ToObject(m.vm).Set("displayName", name)

	return fn
}

// element builds a host element.
func (m *module) element(tag string, attrs *goja.Object, children ...goja.Value) goja.Value {
	kids := make([]goja.Value, 0, len(children))
	for _, child := range children {
		if child != nil && !goja.IsUndefined(child) {
			kids = append(kids, child)
		}
	}
	if attrs == nil {
		attrs = m.vm.NewObject()
	}

	return react.NewElement(m.vm, m.vm.ToValue(tag), attrs, kids)
}

// attrs copies props except the named keys, children and className. The
// class list is written last, followed by the user className unless
// "className" itself is omitted.
func (m *module) attrs(props *goja.Object, classes []string, omit ...string) *goja.Object {
	skip := map[string]bool{"children": true, "as": true}
	for _, name := range omit {
		skip[name] = true
	}
	keepUserClass := !skip["className"]
	skip["className"] = true

	out := m.vm.NewObject()
	for _, key := range props.Keys() {
		if !skip[key] {
			_ = out.Set(key, props.Get(key))
		}
	}
	if user := str(props, "className", ""); keepUserClass && user != "" {
		classes = append(classes, user)
	}
	_ = out.Set("className", strings.Join(classes, " "))

	return out
}

// set writes key=value pairs onto obj.
func set(obj *goja.Object, pairs ...interface{}) *goja.Object {
	for i := 0; i+1 < len(pairs); i += 2 {
		_ = obj.Set(pairs[i].(string), pairs[i+1])
	}
	return obj
}

func (m *module) object(pairs ...interface{}) *goja.Object {
	return set(m.vm.NewObject(), pairs...)
}

func str(props *goja.Object, name, def string) string {
	v := props.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return v.String()
}

func truthy(props *goja.Object, name string) bool {
	v := props.Get(name)
	return v != nil && v.ToBoolean()
}

func modifier(base, value string) string {
	return base + "--" + value
}
