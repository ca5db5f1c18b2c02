package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tsxrunner/internal/metrics"
)

type allowList []string

func (a allowList) IsAllowedOrigin(origin string) bool {
	for _, o := range a {
		if o == origin {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T, handler MessageHandler) (*Manager, *httptest.Server) {
	t.Helper()

	wm := NewManager(Options{
		OriginValidator: allowList{"http://allowed.test"},
		Handler:         handler,
		Metrics:         metrics.New(),
	})
	srv := httptest.NewServer(http.HandlerFunc(wm.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = wm.Shutdown(ctx)
	})

	return wm, srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{HTTPHeader: header})
}

func TestBroadcastReachesClients(t *testing.T) {
	wm, srv := newTestServer(t, nil)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, _, err := dial(t, srv, "")
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")
		conns[i] = conn
	}

	require.Eventually(t, func() bool { return wm.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, wm.Broadcast(UpdateMessage{Type: TypeSnapshot, Payload: map[string]string{"status": "rendered"}}))

	for i, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		var msg map[string]interface{}
		err := wsjson.Read(ctx, conn, &msg)
		cancel()
		require.NoError(t, err, "client %d", i)
		assert.Equal(t, TypeSnapshot, msg["type"])
		assert.Equal(t, "rendered", msg["payload"].(map[string]interface{})["status"])
		assert.NotEmpty(t, msg["timestamp"])
	}
}

func TestOriginValidation(t *testing.T) {
	_, srv := newTestServer(t, nil)

	_, resp, err := dial(t, srv, "http://evil.test")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, "http://allowed.test")
	require.NoError(t, err)
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestClientMessagesAreHandled(t *testing.T) {
	handler := func(cc ClientContext, msg ClientMessage) (*UpdateMessage, error) {
		if msg.Type != TypeRun {
			return nil, fmt.Errorf("unsupported message type %q", msg.Type)
		}
		assert.NotEmpty(t, cc.ClientID)
		return &UpdateMessage{Type: TypeSnapshot, Payload: strings.ToUpper(msg.Source)}, nil
	}
	_, srv := newTestServer(t, handler)

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: TypeRun, Source: "abc"}))
	var reply UpdateMessage
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	assert.Equal(t, TypeSnapshot, reply.Type)
	assert.Equal(t, "ABC", reply.Payload)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "bogus"}))
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "unsupported")
}

func TestClientDisconnectUnregisters(t *testing.T) {
	wm, srv := newTestServer(t, nil)

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return wm.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "bye")
	require.Eventually(t, func() bool { return wm.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdown(t *testing.T) {
	wm, srv := newTestServer(t, nil)

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return wm.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wm.Shutdown(ctx))
	require.NoError(t, wm.Shutdown(ctx))

	assert.Equal(t, 0, wm.ClientCount())
	assert.ErrorIs(t, wm.Broadcast(UpdateMessage{Type: TypeSnapshot}), ErrShutdown)

	rec := httptest.NewRecorder()
	wm.HandleWebSocket(rec, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGreetingSentOnConnect(t *testing.T) {
	wm := NewManager(Options{
		OriginValidator: allowList{},
		Greeting: func() *UpdateMessage {
			return &UpdateMessage{Type: TypeSnapshot, Payload: map[string]int{"runs": 7}}
		},
	})
	srv := httptest.NewServer(http.HandlerFunc(wm.HandleWebSocket))
	defer srv.Close()
	defer func() { _ = wm.Shutdown(context.Background()) }()

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, TypeSnapshot, msg.Type)
	assert.Equal(t, 7, msg.Payload["runs"])
}
