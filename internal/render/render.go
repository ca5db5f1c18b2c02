// Package render turns a sandboxed component into sanitized HTML.
//
// The component is instantiated once with the fixture props, the element tree
// it returns is walked into golang.org/x/net/html nodes, and the serialized
// fragment is passed through a bluemonday policy before it leaves the
// package.
package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/react"
	"github.com/conneroisu/tsxrunner/internal/sandbox"
)

const (
	// DefaultMaxDepth bounds nested component calls.
	DefaultMaxDepth = 256
	// DefaultMaxNodes bounds the size of the produced tree.
	DefaultMaxNodes = 20000

	// maxNesting bounds walk recursion, which also catches cyclic children.
	maxNesting = 4096
)

// Options configures a Renderer.
type Options struct {
	MaxDepth int
	MaxNodes int
	Policy   *bluemonday.Policy
	Logger   logging.Logger
}

// Renderer renders default exports to HTML.
type Renderer struct {
	maxDepth int
	maxNodes int
	policy   *bluemonday.Policy
	logger   logging.Logger
}

// New creates a renderer. Zero options fall back to the defaults.
func New(opts Options) *Renderer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Policy == nil {
		opts.Policy = Policy()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	return &Renderer{
		maxDepth: opts.MaxDepth,
		maxNodes: opts.MaxNodes,
		policy:   opts.Policy,
		logger:   opts.Logger.WithComponent("render"),
	}
}

// Render instantiates the export's default with fixture as its only props
// and returns the sanitized markup.
func (r *Renderer) Render(ctx context.Context, exp *sandbox.Export, fixture map[string]interface{}) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = "", recovered(p)
		}
	}()

	if exp == nil || !IsComponent(exp.Default) {
		return "", errors.NewExportError()
	}
	vm := exp.Runtime()

	props := vm.NewObject()
	for _, key := range sortedKeys(fixture) {
		if err := props.Set(key, fixture[key]); err != nil {
			return "", errors.NewRuntimeError("failed to build props", err)
		}
	}

	w := &walker{
		ctx:      ctx,
		vm:       vm,
		maxDepth: r.maxDepth,
		maxNodes: r.maxNodes,
	}

	root := &html.Node{Type: html.DocumentNode}
	element := react.NewElement(vm, exp.Default, props, nil)
	if err = w.walk(root, element, 0); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if err = html.Render(&buf, n); err != nil {
			return "", errors.NewRuntimeError("failed to serialize output", err)
		}
	}

	out = r.policy.Sanitize(buf.String())
	if len(out) != buf.Len() {
		r.logger.Debug(ctx, "Sanitizer rewrote output", "before", buf.Len(), "after", len(out))
	}

	return out, nil
}

// IsComponent reports whether v can be used as a component: a function,
// including class constructors.
func IsComponent(v goja.Value) bool {
	_, ok := goja.AssertFunction(v)
	return ok
}

type walker struct {
	ctx      context.Context
	vm       *goja.Runtime
	maxDepth int
	maxNodes int
	nodes    int
	nesting  int
}

// walk appends the nodes produced by v to parent. depth counts component
// calls on the current path.
func (w *walker) walk(parent *html.Node, v goja.Value, depth int) error {
	if err := w.ctx.Err(); err != nil {
		return errors.NewRuntimeError("Execution cancelled.", err)
	}
	if isNullish(v) {
		return nil
	}

	w.nesting++
	defer func() { w.nesting-- }()
	if w.nesting > maxNesting {
		return errors.NewRuntimeError("Rendered tree is nested too deeply.", nil)
	}

	if _, isSymbol := v.(*goja.Symbol); isSymbol {
		return errors.NewRuntimeError("Symbols are not valid as a React child.", nil)
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		if _, isBool := v.Export().(bool); isBool {
			return nil
		}
		return w.appendText(parent, v.String())
	}

	if obj.ClassName() == "Array" {
		length := obj.Get("length").ToInteger()
		for i := int64(0); i < length; i++ {
			if err := w.walk(parent, obj.Get(strconv.FormatInt(i, 10)), depth); err != nil {
				return err
			}
		}
		return nil
	}

	if react.IsElement(obj) {
		return w.element(parent, obj, depth)
	}

	return invalidChild(obj)
}

func (w *walker) element(parent *html.Node, el *goja.Object, depth int) error {
	typ := el.Get("type")
	props, ok := el.Get("props").(*goja.Object)
	if !ok {
		props = w.vm.NewObject()
	}

	if s, ok := typ.Export().(string); ok {
		return w.host(parent, s, props, depth)
	}

	return w.composite(parent, typ, props, el.Get("ref"), depth)
}

func (w *walker) composite(parent *html.Node, typ goja.Value, props *goja.Object, ref goja.Value, depth int) error {
	if depth >= w.maxDepth {
		return errors.NewRuntimeError(
			fmt.Sprintf("Maximum render depth of %d nested components exceeded.", w.maxDepth), nil,
		)
	}

	obj, ok := typ.(*goja.Object)
	if !ok {
		return invalidType(typ)
	}

	switch react.TagOf(obj) {
	case react.FragmentType:
		return w.walk(parent, props.Get("children"), depth+1)

	case react.ProviderType:
		ctxObj := obj.Get("_context").ToObject(w.vm)
		previous := ctxObj.Get("_currentValue")
		_ = ctxObj.Set("_currentValue", props.Get("value"))
		defer func() { _ = ctxObj.Set("_currentValue", previous) }()
		return w.walk(parent, props.Get("children"), depth+1)

	case react.ConsumerType:
		render, ok := goja.AssertFunction(props.Get("children"))
		if !ok {
			return errors.NewRuntimeError("A context consumer was rendered with multiple children, or a child that isn't a function.", nil)
		}
		value := obj.Get("_context").ToObject(w.vm).Get("_currentValue")
		out, err := render(goja.Undefined(), value)
		if err != nil {
			return sandbox.Classify(err)
		}
		return w.walk(parent, out, depth+1)

	case react.MemoType:
		return w.composite(parent, obj.Get("type"), props, ref, depth+1)

	case react.ForwardRefType:
		render, ok := goja.AssertFunction(obj.Get("render"))
		if !ok {
			return invalidType(typ)
		}
		if ref == nil {
			ref = goja.Null()
		}
		out, err := render(goja.Undefined(), props, ref)
		if err != nil {
			return sandbox.Classify(err)
		}
		return w.walk(parent, out, depth+1)
	}

	fn, ok := goja.AssertFunction(obj)
	if !ok {
		return invalidType(typ)
	}

	var out goja.Value
	var err error
	if isClass(obj) {
		out, err = w.instantiate(obj, props)
	} else {
		out, err = fn(goja.Undefined(), props)
	}
	if err != nil {
		return sandbox.Classify(err)
	}

	return w.walk(parent, out, depth+1)
}

// instantiate constructs a class component and calls its render method.
func (w *walker) instantiate(class *goja.Object, props *goja.Object) (goja.Value, error) {
	instance, err := w.vm.New(class, props)
	if err != nil {
		return nil, err
	}

	if contextType, ok := class.Get("contextType").(*goja.Object); ok && react.TagOf(contextType) == react.ContextType {
		_ = instance.Set("context", contextType.Get("_currentValue"))
	}
	_ = instance.Set("props", props)

	if derive, ok := goja.AssertFunction(class.Get("getDerivedStateFromProps")); ok {
		state := instance.Get("state")
		partial, err := derive(class, props, state)
		if err != nil {
			return nil, err
		}
		if p, ok := partial.(*goja.Object); ok {
			merged := w.vm.NewObject()
			if s, ok := state.(*goja.Object); ok {
				for _, k := range s.Keys() {
					_ = merged.Set(k, s.Get(k))
				}
			}
			for _, k := range p.Keys() {
				_ = merged.Set(k, p.Get(k))
			}
			_ = instance.Set("state", merged)
		}
	}

	render, ok := goja.AssertFunction(instance.Get("render"))
	if !ok {
		return nil, errors.NewRuntimeError("Class component is missing a render method.", nil)
	}

	return render(instance)
}

func (w *walker) host(parent *html.Node, tag string, props *goja.Object, depth int) error {
	if !validTag(tag) {
		return errors.NewRuntimeError(fmt.Sprintf("Invalid tag: <%s>.", tag), nil)
	}

	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     hostAttributes(props),
	}
	if err := w.appendNode(parent, node); err != nil {
		return err
	}

	if inner, ok := innerHTML(props); ok {
		nodes, err := html.ParseFragment(strings.NewReader(inner), node)
		if err != nil {
			return errors.NewRuntimeError("failed to parse dangerouslySetInnerHTML", err)
		}
		for _, n := range nodes {
			if err := w.appendNode(node, n); err != nil {
				return err
			}
		}
		return nil
	}

	if voidElements[tag] {
		return nil
	}

	return w.walk(node, props.Get("children"), depth)
}

func (w *walker) appendText(parent *html.Node, text string) error {
	return w.appendNode(parent, &html.Node{Type: html.TextNode, Data: text})
}

func (w *walker) appendNode(parent, n *html.Node) error {
	w.nodes++
	if w.nodes > w.maxNodes {
		return errors.NewRuntimeError(
			fmt.Sprintf("Rendered output exceeds %d nodes.", w.maxNodes), nil,
		)
	}
	parent.AppendChild(n)

	return nil
}

// recovered converts a panic raised by goja while the walker touched a JS
// value (a throwing getter or toString) into a playground error.
func recovered(p interface{}) error {
	switch x := p.(type) {
	case *goja.Exception:
		return sandbox.Classify(x)
	case *goja.InterruptedError:
		return sandbox.Classify(x)
	case *goja.StackOverflowError:
		return sandbox.Classify(x)
	case *errors.PlaygroundError:
		return x
	case error:
		return errors.NewRuntimeError(x.Error(), x)
	default:
		return errors.NewRuntimeError(fmt.Sprint(p), nil)
	}
}

func isClass(fn *goja.Object) bool {
	proto, ok := fn.Get("prototype").(*goja.Object)
	if !ok {
		return false
	}
	marker := proto.Get("isReactComponent")
	return marker != nil && marker.ToBoolean()
}

func invalidChild(obj *goja.Object) error {
	if _, ok := goja.AssertFunction(obj); ok {
		return errors.NewRuntimeError(
			"Functions are not valid as a React child. This may happen if you return a Component instead of <Component /> from render.", nil,
		)
	}

	keys := obj.Keys()
	return errors.NewRuntimeError(fmt.Sprintf(
		"Objects are not valid as a React child (found: object with keys {%s}). If you meant to render a collection of children, use an array instead.",
		strings.Join(keys, ", "),
	), nil)
}

func invalidType(typ goja.Value) error {
	got := "undefined"
	if typ != nil {
		got = typ.String()
		if obj, ok := typ.(*goja.Object); ok {
			got = obj.ClassName()
		}
	}

	return errors.NewRuntimeError(fmt.Sprintf(
		"Element type is invalid: expected a string (for built-in components) or a class/function (for composite components) but got: %s.",
		got,
	), nil)
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
