// Package websocket pushes playground updates to connected browsers and
// accepts run requests from them.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Time allowed between client messages or pongs.
	idleTimeout = 2 * time.Minute

	// Maximum message size allowed from peer. Run requests carry source.
	maxMessageSize = 512 * 1024

	sendBuffer = 16
)

// ErrShutdown is returned by Broadcast after Shutdown.
var ErrShutdown = errors.New("websocket manager is shut down")

// Manager handles all WebSocket connection management and broadcasting.
//
// A central hub goroutine owns registration and fan-out. Each client has a
// read loop and a write loop; a client whose send buffer is full is
// disconnected rather than slowing the others.
type Manager struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originValidator OriginValidator
	handler         MessageHandler
	greeting        func() *UpdateMessage
	logger          logging.Logger
	metrics         *metrics.Metrics

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	hubDone      chan struct{}
}

// Options configures a Manager.
type Options struct {
	// OriginValidator is required.
	OriginValidator OriginValidator
	// Handler processes client messages. Nil ignores them.
	Handler MessageHandler
	// Greeting, when set, builds the first message each new client gets.
	Greeting func() *UpdateMessage
	Logger   logging.Logger
	Metrics  *metrics.Metrics
}

// NewManager creates a manager and starts its hub.
func NewManager(opts Options) *Manager {
	if opts.OriginValidator == nil {
		panic("websocket.NewManager: OriginValidator cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	wm := &Manager{
		clients:         make(map[*websocket.Conn]*Client),
		broadcast:       make(chan []byte, 64),
		register:        make(chan *Client, 32),
		unregister:      make(chan *websocket.Conn, 32),
		originValidator: opts.OriginValidator,
		handler:         opts.Handler,
		greeting:        opts.Greeting,
		logger:          opts.Logger.WithComponent("websocket"),
		metrics:         opts.Metrics,
		ctx:             ctx,
		cancel:          cancel,
		hubDone:         make(chan struct{}),
	}

	go wm.runHub()

	return wm
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects or the manager shuts down.
func (wm *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if wm.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !sameHost(origin, r.Host) && !wm.originValidator.IsAllowedOrigin(origin) {
		wm.logger.Warn(r.Context(), nil, "WebSocket connection rejected: origin not allowed", "origin", origin)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins are checked above against the configured list.
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	})
	if err != nil {
		wm.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		lastActivity: time.Now(),
	}

	if wm.greeting != nil {
		if msg := wm.greeting(); msg != nil {
			if data, err := encode(msg); err == nil {
				client.send <- data
			}
		}
	}

	select {
	case wm.register <- client:
	case <-wm.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	}

	go wm.writeToClient(client)
	wm.readFromClient(client, r.RemoteAddr)
}

// Broadcast sends msg as JSON to every connected client.
func (wm *Manager) Broadcast(msg UpdateMessage) error {
	if wm.ctx.Err() != nil {
		return ErrShutdown
	}
	data, err := encode(&msg)
	if err != nil {
		return err
	}

	select {
	case wm.broadcast <- data:
		return nil
	case <-wm.ctx.Done():
		return ErrShutdown
	}
}

// ClientCount returns the number of connected clients.
func (wm *Manager) ClientCount() int {
	wm.clientsMutex.RLock()
	defer wm.clientsMutex.RUnlock()
	return len(wm.clients)
}

// Shutdown disconnects every client and stops the hub.
func (wm *Manager) Shutdown(ctx context.Context) error {
	wm.shutdownOnce.Do(func() {
		wm.cancel()
	})

	select {
	case <-wm.hubDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wm *Manager) runHub() {
	defer close(wm.hubDone)

	for {
		select {
		case client := <-wm.register:
			wm.registerClient(client)

		case conn := <-wm.unregister:
			wm.unregisterClient(conn, websocket.StatusNormalClosure, "")

		case message := <-wm.broadcast:
			wm.broadcastToClients(message)

		case <-wm.ctx.Done():
			wm.clientsMutex.RLock()
			conns := make([]*websocket.Conn, 0, len(wm.clients))
			for conn := range wm.clients {
				conns = append(conns, conn)
			}
			wm.clientsMutex.RUnlock()
			for _, conn := range conns {
				wm.unregisterClient(conn, websocket.StatusGoingAway, "Server shutting down")
			}
			return
		}
	}
}

func (wm *Manager) registerClient(client *Client) {
	wm.clientsMutex.Lock()
	wm.clients[client.conn] = client
	total := len(wm.clients)
	wm.clientsMutex.Unlock()

	if wm.metrics != nil {
		wm.metrics.WSConnections.Inc()
	}
	wm.logger.Debug(wm.ctx, "WebSocket client connected", "client", client.id, "total", total)
}

func (wm *Manager) unregisterClient(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	wm.clientsMutex.Lock()
	client, exists := wm.clients[conn]
	if exists {
		delete(wm.clients, conn)
		close(client.send)
	}
	total := len(wm.clients)
	wm.clientsMutex.Unlock()

	if !exists {
		return
	}
	if wm.metrics != nil {
		wm.metrics.WSConnections.Dec()
	}
	_ = conn.Close(code, reason)
	wm.logger.Debug(context.Background(), "WebSocket client disconnected", "client", client.id, "total", total)
}

func (wm *Manager) broadcastToClients(message []byte) {
	wm.clientsMutex.RLock()
	var slow []*websocket.Conn
	for conn, client := range wm.clients {
		select {
		case client.send <- message:
			if wm.metrics != nil {
				wm.metrics.WSMessages.WithLabelValues("out").Inc()
			}
		default:
			slow = append(slow, conn)
		}
	}
	wm.clientsMutex.RUnlock()

	for _, conn := range slow {
		wm.unregisterClient(conn, websocket.StatusPolicyViolation, "Client too slow")
	}
}

// reply queues a message for one client. A full buffer drops it.
func (wm *Manager) reply(client *Client, msg *UpdateMessage) {
	data, err := encode(msg)
	if err != nil {
		wm.logger.Warn(wm.ctx, err, "Failed to encode reply")
		return
	}

	wm.clientsMutex.RLock()
	defer wm.clientsMutex.RUnlock()
	if _, ok := wm.clients[client.conn]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (wm *Manager) readFromClient(client *Client, remote string) {
	defer func() {
		select {
		case wm.unregister <- client.conn:
		case <-wm.ctx.Done():
		}
	}()

	for {
		ctx, cancel := context.WithTimeout(wm.ctx, idleTimeout)
		var msg ClientMessage
		err := wsjson.Read(ctx, client.conn, &msg)
		cancel()

		if err != nil {
			// wsjson closes the connection on malformed JSON.
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && wm.ctx.Err() == nil {
				wm.logger.Debug(wm.ctx, "WebSocket read ended", "client", client.id, "error", err.Error())
			}
			return
		}

		client.lastActivity = time.Now()
		if wm.metrics != nil {
			wm.metrics.WSMessages.WithLabelValues("in").Inc()
		}
		wm.processClientMessage(client, remote, msg)
	}
}

func (wm *Manager) processClientMessage(client *Client, remote string, msg ClientMessage) {
	if wm.handler == nil {
		return
	}

	out, err := wm.handler(ClientContext{ClientID: client.id, RemoteAddr: remote}, msg)
	if err != nil {
		wm.reply(client, &UpdateMessage{Type: TypeError, Error: err.Error()})
		return
	}
	if out != nil {
		wm.reply(client, out)
	}
}

func (wm *Manager) writeToClient(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(wm.ctx, writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(wm.ctx, writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-wm.ctx.Done():
			return
		}
	}
}

func encode(msg *UpdateMessage) ([]byte, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return json.Marshal(msg)
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Host != "" && u.Host == host
}
