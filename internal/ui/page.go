// Package ui renders the playground page: the editor, the Run Code action,
// the output pane and captured console output.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/tsxrunner/internal/playground"
)

// Element ids shared with the page script.
const (
	SourceID  = "source"
	OutputID  = "output"
	ConsoleID = "console"
	StatusID  = "status"
)

// Page renders the full playground document for snap.
func Page(snap *playground.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &strings.Builder{}

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
		b.WriteString(`<title>TSX Playground</title>`)
		fmt.Fprintf(b, `<style nonce="%s">%s</style>`, templ.EscapeString(templ.GetNonce(ctx)), pageCSS)
		b.WriteString(`</head><body><header><h1>TSX Playground</h1>`)
		b.WriteString(`<p>Imports are limited to <code>react</code> and <code>@fluentui/react-components</code>.</p></header>`)

		b.WriteString(`<main><section class="editor">`)
		b.WriteString(`<form id="run-form" method="post" action="/run">`)
		fmt.Fprintf(b, `<textarea id="%s" name="source" spellcheck="false" autocomplete="off">%s</textarea>`,
			SourceID, templ.EscapeString(snap.Source))
		b.WriteString(`<div class="actions"><button type="submit" id="run">Run Code</button>`)
		b.WriteString(`<button type="submit" id="reset" formaction="/reset">Reset</button></div>`)
		b.WriteString(`</form></section>`)

		b.WriteString(`<section class="result">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := Output(snap).Render(ctx, w); err != nil {
			return err
		}

		b.Reset()
		b.WriteString(`</section></main>`)
		fmt.Fprintf(b, `<script nonce="%s">%s</script>`, templ.EscapeString(templ.GetNonce(ctx)), pageScript)
		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Output renders the output pane, the status line and the console list.
// Rendered markup has already been sanitized and is written as is.
func Output(snap *playground.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &strings.Builder{}

		fmt.Fprintf(b, `<div id="%s" class="status">%s</div>`, StatusID, templ.EscapeString(statusLine(snap)))
		fmt.Fprintf(b, `<div id="%s" class="output %s" data-status="%s">`, OutputID, snap.Status, snap.Status)
		switch snap.Status {
		case playground.StatusRendered:
			b.WriteString(snap.HTML)
		case playground.StatusFailed:
			fmt.Fprintf(b, `<pre class="error" data-kind="%s">%s</pre>`,
				templ.EscapeString(string(snap.Error.Kind)), templ.EscapeString(snap.Shown()))
		default:
			b.WriteString(`<p class="placeholder">Press Run Code to render the component.</p>`)
		}
		b.WriteString(`</div>`)

		fmt.Fprintf(b, `<ul id="%s" class="console">`, ConsoleID)
		for _, entry := range snap.Console {
			fmt.Fprintf(b, `<li class="console-%s">%s</li>`,
				templ.EscapeString(entry.Level), templ.EscapeString(entry.Message))
		}
		b.WriteString(`</ul>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func statusLine(snap *playground.Snapshot) string {
	switch snap.Status {
	case playground.StatusRendered:
		return fmt.Sprintf("Rendered in %s (run %d)", snap.Duration.Round(time.Microsecond), snap.Runs)
	case playground.StatusFailed:
		return fmt.Sprintf("%s (run %d)", snap.Error.Kind.Label(), snap.Runs)
	default:
		return "Ready"
	}
}
