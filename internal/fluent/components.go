package fluent

import (
	"strings"
	"unicode"

	"github.com/dop251/goja"
)

func button(m *module, props *goja.Object) goja.Value {
	classes := []string{
		"fui-Button",
		modifier("fui-Button", str(props, "appearance", "secondary")),
		modifier("fui-Button", str(props, "size", "medium")),
		modifier("fui-Button", str(props, "shape", "rounded")),
	}
	if truthy(props, "disabled") || truthy(props, "disabledFocusable") {
		classes = append(classes, modifier("fui-Button", "disabled"))
	}

	attrs := m.attrs(props, classes, "appearance", "size", "shape", "icon", "iconPosition", "disabledFocusable")
	if str(props, "type", "") == "" {
		_ = attrs.Set("type", "button")
	}

	var icon goja.Value
	if v := props.Get("icon"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		icon = m.element("span", m.object("className", "fui-Button__icon"), v)
	}
	if str(props, "iconPosition", "before") == "after" {
		return m.element("button", attrs, props.Get("children"), icon)
	}

	return m.element("button", attrs, icon, props.Get("children"))
}

// typography renders Text and its preset variants. Text accepts size, weight,
// align and italic; presets add their own class ahead of fui-Text.
func typography(preset, tag string) renderFunc {
	return func(m *module, props *goja.Object) goja.Value {
		var classes []string
		if preset != "" {
			classes = append(classes, preset)
		}
		classes = append(classes, "fui-Text")
		if size := str(props, "size", ""); size != "" {
			classes = append(classes, modifier("fui-Text", "size"+size))
		}
		if weight := str(props, "weight", ""); weight != "" {
			classes = append(classes, modifier("fui-Text", weight))
		}
		if align := str(props, "align", ""); align != "" {
			classes = append(classes, modifier("fui-Text", align))
		}
		if truthy(props, "italic") {
			classes = append(classes, modifier("fui-Text", "italic"))
		}
		if truthy(props, "block") {
			classes = append(classes, modifier("fui-Text", "block"))
		}

		attrs := m.attrs(props, classes, "size", "weight", "align", "italic", "block", "font", "wrap", "truncate", "underline", "strikethrough")

		return m.element(str(props, "as", tag), attrs, props.Get("children"))
	}
}

// simple renders a wrapper element with fixed attributes.
func simple(tag, class string, fixed ...interface{}) renderFunc {
	return func(m *module, props *goja.Object) goja.Value {
		attrs := m.attrs(props, []string{class}, "appearance", "size", "orientation")
		set(attrs, fixed...)

		return m.element(str(props, "as", tag), attrs, props.Get("children"))
	}
}

func label(m *module, props *goja.Object) goja.Value {
	classes := []string{"fui-Label"}
	if truthy(props, "disabled") {
		classes = append(classes, modifier("fui-Label", "disabled"))
	}
	attrs := m.attrs(props, classes, "required", "size", "weight", "disabled")

	var required goja.Value
	if truthy(props, "required") {
		required = m.element("span",
			m.object("className", "fui-Label__required", "aria-hidden", "true"),
			m.vm.ToValue(" *"),
		)
	}

	return m.element("label", attrs, props.Get("children"), required)
}

// input renders the span wrapper with the native input inside. Everything
// except className and the wrapper props goes to the input.
func input(m *module, props *goja.Object) goja.Value {
	wrapper := []string{
		"fui-Input",
		modifier("fui-Input", str(props, "appearance", "outline")),
		modifier("fui-Input", str(props, "size", "medium")),
	}
	inner := m.attrs(props, []string{"fui-Input__input"}, "appearance", "size", "contentBefore", "contentAfter", "className", "style")
	if str(props, "type", "") == "" {
		_ = inner.Set("type", "text")
	}
	if v := props.Get("defaultValue"); v != nil && !goja.IsUndefined(v) && props.Get("value") == nil {
		_ = inner.Set("value", v)
	}
	_ = inner.Delete("defaultValue")

	outer := m.object("className", strings.TrimSpace(strings.Join(append(wrapper, str(props, "className", "")), " ")))
	if style := props.Get("style"); style != nil {
		_ = outer.Set("style", style)
	}

	return m.element("span", outer,
		m.slot("span", "fui-Input__contentBefore", props.Get("contentBefore")),
		m.element("input", inner),
		m.slot("span", "fui-Input__contentAfter", props.Get("contentAfter")),
	)
}

func textarea(m *module, props *goja.Object) goja.Value {
	wrapper := []string{
		"fui-Textarea",
		modifier("fui-Textarea", str(props, "appearance", "outline")),
		modifier("fui-Textarea", str(props, "size", "medium")),
	}
	inner := m.attrs(props, []string{"fui-Textarea__textarea"}, "appearance", "size", "resize", "className", "style", "value", "defaultValue")

	text := props.Get("value")
	if text == nil || goja.IsUndefined(text) {
		text = props.Get("defaultValue")
	}

	outer := m.object("className", strings.TrimSpace(strings.Join(append(wrapper, str(props, "className", "")), " ")))
	if style := props.Get("style"); style != nil {
		_ = outer.Set("style", style)
	}

	return m.element("span", outer, m.element("textarea", inner, text))
}

func link(m *module, props *goja.Object) goja.Value {
	classes := []string{"fui-Link"}
	if appearance := str(props, "appearance", ""); appearance != "" {
		classes = append(classes, modifier("fui-Link", appearance))
	}
	if truthy(props, "inline") {
		classes = append(classes, modifier("fui-Link", "inline"))
	}
	attrs := m.attrs(props, classes, "appearance", "inline", "disabledFocusable")

	if str(props, "href", "") == "" {
		_ = attrs.Set("type", "button")
		return m.element("button", attrs, props.Get("children"))
	}

	return m.element("a", attrs, props.Get("children"))
}

func cardHeader(m *module, props *goja.Object) goja.Value {
	attrs := m.attrs(props, []string{"fui-CardHeader"}, "image", "header", "description", "action")

	return m.element("div", attrs,
		m.slot("div", "fui-CardHeader__image", props.Get("image")),
		m.slot("div", "fui-CardHeader__header", props.Get("header")),
		m.slot("div", "fui-CardHeader__description", props.Get("description")),
		m.slot("div", "fui-CardHeader__action", props.Get("action")),
		props.Get("children"),
	)
}

func badge(m *module, props *goja.Object) goja.Value {
	classes := []string{
		"fui-Badge",
		modifier("fui-Badge", str(props, "appearance", "filled")),
		modifier("fui-Badge", str(props, "color", "brand")),
		modifier("fui-Badge", str(props, "size", "medium")),
		modifier("fui-Badge", str(props, "shape", "circular")),
	}
	attrs := m.attrs(props, classes, "appearance", "color", "size", "shape", "icon", "iconPosition")

	return m.element("div", attrs, m.slot("span", "fui-Badge__icon", props.Get("icon")), props.Get("children"))
}

func divider(m *module, props *goja.Object) goja.Value {
	classes := []string{"fui-Divider"}
	if truthy(props, "vertical") {
		classes = append(classes, modifier("fui-Divider", "vertical"))
	}
	attrs := m.attrs(props, classes, "vertical", "inset", "alignContent", "appearance")
	set(attrs, "role", "separator")
	if truthy(props, "vertical") {
		_ = attrs.Set("aria-orientation", "vertical")
	}

	return m.element("div", attrs, m.slot("div", "fui-Divider__wrapper", props.Get("children")))
}

func spinner(m *module, props *goja.Object) goja.Value {
	classes := []string{"fui-Spinner", modifier("fui-Spinner", str(props, "size", "medium"))}
	attrs := m.attrs(props, classes, "size", "label", "labelPosition", "appearance", "delay")
	set(attrs, "role", "progressbar")

	return m.element("div", attrs,
		m.element("span", m.object("className", "fui-Spinner__spinner")),
		m.slot("label", "fui-Spinner__label", props.Get("label")),
	)
}

// toggle renders Checkbox and Switch, which differ only in class prefix and
// role.
func (m *module) toggle(props *goja.Object, base, tag, role string) goja.Value {
	inner := m.attrs(props, []string{base + "__input"}, "label", "labelPosition", "shape", "size", "className", "style", "defaultChecked")
	_ = inner.Set("type", "checkbox")
	if role != "" {
		_ = inner.Set("role", role)
	}
	if truthy(props, "defaultChecked") && props.Get("checked") == nil {
		_ = inner.Set("checked", true)
	}
	id := str(props, "id", "")

	outer := m.object("className", strings.TrimSpace(base+" "+str(props, "className", "")))
	if style := props.Get("style"); style != nil {
		_ = outer.Set("style", style)
	}

	var lbl goja.Value
	if v := props.Get("label"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		attrs := m.object("className", base+"__label")
		if id != "" {
			_ = attrs.Set("htmlFor", id)
		}
		lbl = m.element("label", attrs, v)
	}

	indicator := m.element("div", m.object("className", base+"__indicator", "aria-hidden", "true"))

	return m.element(tag, outer, m.element("input", inner), indicator, lbl)
}

func checkbox(m *module, props *goja.Object) goja.Value {
	return m.toggle(props, "fui-Checkbox", "span", "")
}

func switchControl(m *module, props *goja.Object) goja.Value {
	return m.toggle(props, "fui-Switch", "div", "switch")
}

func avatar(m *module, props *goja.Object) goja.Value {
	classes := []string{"fui-Avatar", modifier("fui-Avatar", str(props, "shape", "circular"))}
	attrs := m.attrs(props, classes, "name", "initials", "image", "size", "shape", "color", "badge", "active", "icon")
	name := str(props, "name", "")
	set(attrs, "role", "img")
	if name != "" {
		_ = attrs.Set("aria-label", name)
	}

	return m.element("span", attrs,
		m.element("span", m.object("className", "fui-Avatar__initials", "aria-hidden", "true"),
			m.vm.ToValue(str(props, "initials", Initials(name))),
		),
	)
}

func provider(m *module, props *goja.Object) goja.Value {
	attrs := m.attrs(props, []string{"fui-FluentProvider"}, "theme", "applyStylesToPortals", "targetDocument", "overrides_unstable")
	if str(props, "dir", "") == "" {
		_ = attrs.Set("dir", "ltr")
	}

	if theme, ok := props.Get("theme").(*goja.Object); ok {
		mode := "custom"
		switch {
		case theme.SameAs(m.light):
			mode = "light"
		case theme.SameAs(m.dark):
			mode = "dark"
		}
		_ = attrs.Set("data-theme", mode)
		_ = attrs.Set("style", m.themeStyle(theme, props.Get("style")))
	}

	return m.element("div", attrs, props.Get("children"))
}

// slot wraps v in a classed element, or returns undefined when v is empty.
func (m *module) slot(tag, class string, v goja.Value) goja.Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return goja.Undefined()
	}
	return m.element(tag, m.object("className", class), v)
}

// Initials derives avatar initials from a display name: the first letter of
// the first and last words, upper cased.
func Initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []rune
	switch len(words) {
	case 0:
		return ""
	case 1:
		out = append(out, []rune(words[0])[0])
	default:
		out = append(out, []rune(words[0])[0], []rune(words[len(words)-1])[0])
	}

	return strings.ToUpper(string(out))
}
