package websocket

import (
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

// Message types exchanged with the browser.
const (
	// TypeSnapshot carries the current playground state to viewers.
	TypeSnapshot = "snapshot"
	// TypeRun asks the server to run the attached source.
	TypeRun = "run"
	// TypeSource replaces the buffer without running it.
	TypeSource = "source"
	// TypeError reports a rejected client message.
	TypeError = "error"
)

// Client represents a WebSocket client connection
type Client struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
}

// UpdateMessage is sent to the browser.
type UpdateMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is received from the browser.
type ClientMessage struct {
	Type   string          `json:"type"`
	Source string          `json:"source,omitempty"`
	Extra  json.RawMessage `json:"extra,omitempty"`
}

// OriginValidator decides which browser origins may connect.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// MessageHandler processes a client message and returns the reply, if any.
type MessageHandler func(ctx ClientContext, msg ClientMessage) (*UpdateMessage, error)

// ClientContext identifies the sender of a message.
type ClientContext struct {
	ClientID   string
	RemoteAddr string
}
