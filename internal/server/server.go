// Package server serves the playground over HTTP: the editor page, a small
// JSON API, the WebSocket feed and operational endpoints. Every request
// acts on one shared playground session.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/tsxrunner/internal/config"
	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/metrics"
	"github.com/conneroisu/tsxrunner/internal/middleware"
	"github.com/conneroisu/tsxrunner/internal/playground"
	"github.com/conneroisu/tsxrunner/internal/validation"
	"github.com/conneroisu/tsxrunner/internal/websocket"
)

// PlaygroundServer wires the session to HTTP and WebSocket clients.
type PlaygroundServer struct {
	config  *config.Config
	session *playground.Session
	metrics *metrics.Metrics
	logger  logging.Logger
	hub     *websocket.Manager
	handler http.Handler

	// ctx bounds runs started by WebSocket clients.
	ctx    context.Context
	cancel context.CancelFunc

	stopRelay func()
	relayDone chan struct{}

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// New creates a server around session. A nil metrics gets a fresh
// registry and a nil logger discards output.
func New(cfg *config.Config, session *playground.Session, m *metrics.Metrics, logger logging.Logger) *PlaygroundServer {
	if logger == nil {
		logger = logging.Nop()
	}
	if m == nil {
		m = metrics.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PlaygroundServer{
		config:    cfg,
		session:   session,
		metrics:   m,
		logger:    logger.WithComponent("server"),
		ctx:       ctx,
		cancel:    cancel,
		relayDone: make(chan struct{}),
	}

	origins := middleware.NewOriginValidator(&cfg.Server)
	s.hub = websocket.NewManager(websocket.Options{
		OriginValidator: origins,
		Handler:         s.handleClientMessage,
		Greeting: func() *websocket.UpdateMessage {
			return snapshotMessage(s.session.Snapshot())
		},
		Logger:  logger,
		Metrics: m,
	})

	chain := middleware.NewChain(middleware.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Origins: origins,
	})
	s.handler = chain.Apply(s.routes())

	updates, stop := session.Subscribe()
	s.stopRelay = stop
	go s.relay(updates)

	return s
}

// Handler returns the complete HTTP handler including middleware.
func (s *PlaygroundServer) Handler() http.Handler {
	return s.handler
}

func (s *PlaygroundServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /run", s.handleRunForm)
	mux.HandleFunc("POST /reset", s.handleResetForm)

	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("PUT /api/source", s.handleSource)
	mux.HandleFunc("GET /api/sample", s.handleSample)
	mux.HandleFunc("POST /api/sample", s.handleReset)

	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// relay forwards every session transition to connected browsers.
func (s *PlaygroundServer) relay(updates <-chan *playground.Snapshot) {
	defer close(s.relayDone)

	for snap := range updates {
		if err := s.hub.Broadcast(*snapshotMessage(snap)); err != nil {
			if errors.Is(err, websocket.ErrShutdown) {
				continue
			}
			s.logger.Warn(s.ctx, err, "Failed to broadcast snapshot")
		}
	}
}

func snapshotMessage(snap *playground.Snapshot) *websocket.UpdateMessage {
	return &websocket.UpdateMessage{Type: websocket.TypeSnapshot, Payload: snap}
}

// handleClientMessage runs or updates the shared session on behalf of a
// browser. The resulting snapshot reaches every client through the relay.
func (s *PlaygroundServer) handleClientMessage(client websocket.ClientContext, msg websocket.ClientMessage) (*websocket.UpdateMessage, error) {
	switch msg.Type {
	case websocket.TypeRun:
		s.logger.Debug(s.ctx, "Run requested over WebSocket", "client", client.ClientID, "bytes", len(msg.Source))
		s.session.Submit(s.ctx, msg.Source)
		return nil, nil
	case websocket.TypeSource:
		if err := s.checkSourceSize(msg.Source); err != nil {
			return nil, err
		}
		s.session.SetSource(msg.Source)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// checkSourceSize rejects oversized buffer edits. Runs report the same
// limit as a compile error.
func (s *PlaygroundServer) checkSourceSize(source string) error {
	if limit := s.config.Playground.MaxSourceBytes; limit > 0 && len(source) > limit {
		return fmt.Errorf("source is %d bytes and exceeds the %d byte limit", len(source), limit)
	}
	return nil
}

// Start listens on the configured address and serves until ctx is
// cancelled or Shutdown is called.
func (s *PlaygroundServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Shutdown is called.
func (s *PlaygroundServer) Serve(ctx context.Context, ln net.Listener) error {
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	addr := "http://" + ln.Addr().String()
	s.logger.Info(ctx, "Playground listening", "url", addr)

	if s.config.Server.Open {
		go s.openBrowser(addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PlaygroundServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		// Stop in-flight WebSocket runs first
		s.cancel()

		if err := s.hub.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("websocket shutdown: %w", err)
		}

		s.stopRelay()
		<-s.relayDone

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil && shutdownErr == nil {
				shutdownErr = err
			}
		}
	})

	return shutdownErr
}

func (s *PlaygroundServer) openBrowser(target string) {
	time.Sleep(100 * time.Millisecond) // Give server time to start

	if err := validation.ValidateURL(target); err != nil {
		s.logger.Warn(s.ctx, err, "Browser open skipped: invalid URL", "url", target)
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", target).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	case "darwin":
		err = exec.Command("open", target).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		s.logger.Warn(s.ctx, err, "Failed to open browser")
	}
}
