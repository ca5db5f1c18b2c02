package fluent

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/dop251/goja"
)

// themeTokens is a subset of the design tokens a theme defines.
type themeTokens map[string]string

var lightTheme = themeTokens{
	"colorBrandBackground":          "#0f6cbd",
	"colorBrandBackgroundHover":     "#115ea3",
	"colorBrandForeground1":         "#0f6cbd",
	"colorNeutralBackground1":       "#ffffff",
	"colorNeutralBackground2":       "#fafafa",
	"colorNeutralForeground1":       "#242424",
	"colorNeutralForeground2":       "#424242",
	"colorNeutralForegroundOnBrand": "#ffffff",
	"colorNeutralStroke1":           "#d1d1d1",
	"colorPaletteRedForeground1":    "#bc2f32",
	"fontFamilyBase":                "'Segoe UI', 'Segoe UI Web (West European)', -apple-system, BlinkMacSystemFont, Roboto, 'Helvetica Neue', sans-serif",
	"fontFamilyMonospace":           "Consolas, 'Courier New', Courier, monospace",
	"fontSizeBase300":               "14px",
	"lineHeightBase300":             "20px",
	"borderRadiusMedium":            "4px",
	"spacingHorizontalM":            "12px",
	"spacingVerticalM":              "12px",
}

var darkTheme = themeTokens{
	"colorBrandBackground":          "#115ea3",
	"colorBrandBackgroundHover":     "#0f6cbd",
	"colorBrandForeground1":         "#479ef5",
	"colorNeutralBackground1":       "#292929",
	"colorNeutralBackground2":       "#1f1f1f",
	"colorNeutralForeground1":       "#ffffff",
	"colorNeutralForeground2":       "#d6d6d6",
	"colorNeutralForegroundOnBrand": "#ffffff",
	"colorNeutralStroke1":           "#666666",
	"colorPaletteRedForeground1":    "#e37d80",
	"fontFamilyBase":                lightTheme["fontFamilyBase"],
	"fontFamilyMonospace":           lightTheme["fontFamilyMonospace"],
	"fontSizeBase300":               "14px",
	"lineHeightBase300":             "20px",
	"borderRadiusMedium":            "4px",
	"spacingHorizontalM":            "12px",
	"spacingVerticalM":              "12px",
}

func (m *module) theme(tokens themeTokens) (*goja.Object, error) {
	obj := m.vm.NewObject()
	for _, name := range sortedKeys(tokens) {
		if err := obj.Set(name, tokens[name]); err != nil {
			return nil, fmt.Errorf("failed to build theme: %w", err)
		}
	}
	return obj, nil
}

// tokens maps every token name to its CSS custom property reference.
func (m *module) tokens() *goja.Object {
	obj := m.vm.NewObject()
	for _, name := range sortedKeys(lightTheme) {
		_ = obj.Set(name, "var(--"+name+")")
	}
	return obj
}

// themeStyle turns a theme into inline colour and font declarations, merged
// under any user style object.
func (m *module) themeStyle(theme *goja.Object, user goja.Value) *goja.Object {
	style := m.object(
		"color", str(theme, "colorNeutralForeground1", ""),
		"backgroundColor", str(theme, "colorNeutralBackground1", ""),
		"fontFamily", str(theme, "fontFamilyBase", ""),
	)
	for _, key := range style.Keys() {
		if style.Get(key).String() == "" {
			_ = style.Delete(key)
		}
	}
	if u, ok := user.(*goja.Object); ok {
		for _, key := range u.Keys() {
			_ = style.Set(key, u.Get(key))
		}
	}

	return style
}

// makeStyles returns a hook producing one stable class name per slot. Styles
// are not injected; the class names exist so mergeClasses and className
// plumbing behave as in the browser.
func (m *module) makeStyles(call goja.FunctionCall) goja.Value {
	slots := call.Argument(0)
	obj, ok := slots.(*goja.Object)
	if !ok {
		panic(m.vm.NewTypeError("makeStyles expects an object of style slots"))
	}

	classes := m.vm.NewObject()
	for _, slot := range obj.Keys() {
		_ = classes.Set(slot, ClassName(slot, obj.Get(slot).Export()))
	}

	return m.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return classes
	})
}

// mergeClasses joins truthy class name arguments, dropping duplicates.
func (m *module) mergeClasses(call goja.FunctionCall) goja.Value {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range call.Arguments {
		if !arg.ToBoolean() {
			continue
		}
		for _, class := range strings.Fields(arg.String()) {
			if !seen[class] {
				seen[class] = true
				out = append(out, class)
			}
		}
	}

	return m.vm.ToValue(strings.Join(out, " "))
}

// ClassName derives the class for a makeStyles slot from its name and rules.
func ClassName(slot string, rules interface{}) string {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%v", slot, rules)
	return fmt.Sprintf("fui-%s-%08x", slot, h.Sum32())
}

func sortedKeys(tokens themeTokens) []string {
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
