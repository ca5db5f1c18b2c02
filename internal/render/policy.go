package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// styleProperties are the inline CSS properties that survive sanitizing.
var styleProperties = []string{
	"color", "background-color", "background", "opacity",
	"font-family", "font-size", "font-weight", "font-style", "line-height",
	"text-align", "text-decoration", "text-transform", "letter-spacing", "white-space",
	"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
	"border", "border-top", "border-right", "border-bottom", "border-left",
	"border-color", "border-style", "border-width", "border-radius",
	"width", "height", "min-width", "min-height", "max-width", "max-height",
	"display", "flex", "flex-direction", "flex-wrap", "flex-grow", "flex-shrink", "flex-basis",
	"align-items", "align-self", "justify-content", "gap", "row-gap", "column-gap",
	"grid-template-columns", "grid-template-rows",
	"overflow", "overflow-x", "overflow-y", "box-sizing", "cursor",
	"vertical-align", "list-style-type", "visibility",
}

var ariaAttributes = []string{
	"aria-label", "aria-labelledby", "aria-describedby", "aria-hidden",
	"aria-checked", "aria-disabled", "aria-expanded", "aria-pressed",
	"aria-selected", "aria-orientation", "aria-live", "aria-level",
	"aria-valuenow", "aria-valuemin", "aria-valuemax", "aria-required",
}

var rolePattern = regexp.MustCompile(`^[a-z]+$`)

// Policy returns the sanitizer applied to rendered output. It extends the
// user generated content policy with form controls, class names, ARIA
// attributes and a whitelist of inline styles.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("button", "label", "textarea", "fieldset", "legend",
		"section", "article", "header", "footer", "nav", "main", "aside",
		"figure", "figcaption", "mark", "small", "time")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^(button|submit|reset|text|checkbox|radio|email|number|password|search|tel|url|range|date)$`)).
		OnElements("button", "input")
	p.AllowAttrs("value", "placeholder", "name", "disabled", "checked", "readonly", "required", "maxlength", "minlength").
		OnElements("input", "textarea", "button")
	p.AllowAttrs("rows", "cols").OnElements("textarea")
	p.AllowElements("input")
	p.AllowAttrs("for").OnElements("label")

	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs("role").Matching(rolePattern).Globally()
	p.AllowAttrs("tabindex").Matching(bluemonday.Integer).Globally()
	p.AllowAttrs(ariaAttributes...).Globally()
	p.AllowDataAttributes()

	p.AllowStyles(styleProperties...).Globally()

	return p
}
