package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tsxrunner/internal/errors"
	"github.com/conneroisu/tsxrunner/internal/playground"
	"github.com/conneroisu/tsxrunner/internal/sandbox"
)

func render(t *testing.T, ctx context.Context, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestPageIdle(t *testing.T) {
	snap := &playground.Snapshot{Source: "export default () => <b>&</b>;", Status: playground.StatusIdle}
	ctx := templ.WithNonce(context.Background(), "abc123")

	doc := render(t, ctx, Page(snap))

	assert.Equal(t, snap.Source, doc.Find("#"+SourceID).Text())
	assert.Equal(t, "Run Code", doc.Find("button#run").Text())
	action, _ := doc.Find("form#run-form").Attr("action")
	assert.Equal(t, "/run", action)
	assert.Equal(t, 1, doc.Find("#"+OutputID+" .placeholder").Length())
	assert.Equal(t, "Ready", doc.Find("#"+StatusID).Text())

	nonce, ok := doc.Find("script").Attr("nonce")
	require.True(t, ok)
	assert.Equal(t, "abc123", nonce)
}

func TestOutputRendered(t *testing.T) {
	snap := &playground.Snapshot{
		Status:   playground.StatusRendered,
		HTML:     `<button class="fui-Button">Test Button</button>`,
		Runs:     2,
		Duration: 3 * time.Millisecond,
		Console: []sandbox.LogEntry{
			{Level: "log", Message: "<hello>"},
			{Level: "warn", Message: "careful"},
		},
	}

	doc := render(t, context.Background(), Output(snap))

	assert.Equal(t, "Test Button", doc.Find("#"+OutputID+" button").Text())
	status, _ := doc.Find("#" + OutputID).Attr("data-status")
	assert.Equal(t, "rendered", status)
	assert.Contains(t, doc.Find("#"+StatusID).Text(), "run 2")

	items := doc.Find("#" + ConsoleID + " li")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "<hello>", items.First().Text())
	assert.True(t, items.Last().HasClass("console-warn"))
}

func TestOutputFailed(t *testing.T) {
	snap := &playground.Snapshot{
		Status: playground.StatusFailed,
		Error:  errors.NewRuntimeError("<img src=x onerror=alert(1)>", nil),
		Runs:   1,
	}

	doc := render(t, context.Background(), Output(snap))

	pre := doc.Find("#" + OutputID + " pre.error")
	require.Equal(t, 1, pre.Length())
	assert.Equal(t, "Error: <img src=x onerror=alert(1)>", pre.Text())
	assert.Equal(t, 0, doc.Find("img").Length())
	kind, _ := pre.Attr("data-kind")
	assert.Equal(t, string(errors.KindRuntime), kind)
	assert.Equal(t, "Runtime Error (run 1)", doc.Find("#"+StatusID).Text())
}
