package render

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// voidElements never receive children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// reservedProps are consumed by the renderer rather than emitted.
var reservedProps = map[string]bool{
	"children":                       true,
	"key":                            true,
	"ref":                            true,
	"dangerouslySetInnerHTML":        true,
	"suppressHydrationWarning":       true,
	"suppressContentEditableWarning": true,
}

// attributeNames maps DOM property names onto HTML attribute names.
var attributeNames = map[string]string{
	"className":       "class",
	"htmlFor":         "for",
	"defaultValue":    "value",
	"defaultChecked":  "checked",
	"tabIndex":        "tabindex",
	"readOnly":        "readonly",
	"maxLength":       "maxlength",
	"minLength":       "minlength",
	"autoComplete":    "autocomplete",
	"autoFocus":       "autofocus",
	"colSpan":         "colspan",
	"rowSpan":         "rowspan",
	"spellCheck":      "spellcheck",
	"contentEditable": "contenteditable",
	"crossOrigin":     "crossorigin",
	"srcSet":          "srcset",
	"httpEquiv":       "http-equiv",
	"acceptCharset":   "accept-charset",
}

// unitlessStyles take bare numbers.
var unitlessStyles = map[string]bool{
	"animationIterationCount": true, "aspectRatio": true, "borderImageOutset": true,
	"borderImageSlice": true, "borderImageWidth": true, "columnCount": true,
	"columns": true, "flex": true, "flexGrow": true, "flexShrink": true,
	"fontWeight": true, "gridArea": true, "gridColumn": true, "gridRow": true,
	"lineClamp": true, "lineHeight": true, "opacity": true, "order": true,
	"orphans": true, "tabSize": true, "widows": true, "zIndex": true, "zoom": true,
	"fillOpacity": true, "strokeOpacity": true, "strokeWidth": true,
}

// hostAttributes converts element props into HTML attributes.
func hostAttributes(props *goja.Object) []html.Attribute {
	var attrs []html.Attribute

	for _, key := range props.Keys() {
		if reservedProps[key] {
			continue
		}
		value := props.Get(key)
		if isNullish(value) || isEventHandler(key) {
			continue
		}
		if _, isFunc := goja.AssertFunction(value); isFunc {
			continue
		}

		name := attributeName(key)
		if name == "style" {
			if css := styleText(value); css != "" {
				attrs = append(attrs, html.Attribute{Key: "style", Val: css})
			}
			continue
		}

		val, ok := attributeValue(name, value)
		if !ok {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: name, Val: val})
	}

	return attrs
}

func attributeName(key string) string {
	if name, ok := attributeNames[key]; ok {
		return name
	}
	if strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "data-") {
		return key
	}
	return strings.ToLower(key)
}

// attributeValue renders a prop value. Booleans become bare attributes
// except on aria-* and data-*, where they are spelled out.
func attributeValue(name string, v goja.Value) (string, bool) {
	if b, ok := v.Export().(bool); ok {
		if strings.HasPrefix(name, "aria-") || strings.HasPrefix(name, "data-") {
			return strconv.FormatBool(b), true
		}
		return "", b
	}
	return v.String(), true
}

func isEventHandler(key string) bool {
	if len(key) < 3 || !strings.HasPrefix(key, "on") {
		return false
	}
	return unicode.IsUpper(rune(key[2]))
}

// styleText renders a style object as CSS declarations.
func styleText(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}

	keys := obj.Keys()
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := obj.Get(key)
		if isNullish(value) {
			continue
		}
		if _, ok := value.Export().(bool); ok {
			continue
		}
		text := styleValue(key, value)
		if text == "" {
			continue
		}
		parts = append(parts, cssProperty(key)+": "+text)
	}

	return strings.Join(parts, "; ")
}

func styleValue(key string, v goja.Value) string {
	switch n := v.Export().(type) {
	case int64:
		if n == 0 || unitlessStyles[key] || strings.HasPrefix(key, "--") {
			return strconv.FormatInt(n, 10)
		}
		return strconv.FormatInt(n, 10) + "px"
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return ""
		}
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if n == 0 || unitlessStyles[key] || strings.HasPrefix(key, "--") {
			return s
		}
		return s + "px"
	}

	return strings.TrimSpace(v.String())
}

// cssProperty converts camelCase to kebab-case. Vendor prefixes keep their
// leading dash and custom properties are left alone.
func cssProperty(key string) string {
	if strings.HasPrefix(key, "--") {
		return key
	}

	var b strings.Builder
	if strings.HasPrefix(key, "ms") && len(key) > 2 && unicode.IsUpper(rune(key[2])) {
		b.WriteByte('-')
	}
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// innerHTML returns dangerouslySetInnerHTML.__html when set.
func innerHTML(props *goja.Object) (string, bool) {
	raw, ok := props.Get("dangerouslySetInnerHTML").(*goja.Object)
	if !ok {
		return "", false
	}
	inner := raw.Get("__html")
	if isNullish(inner) {
		return "", false
	}
	return inner.String(), true
}
