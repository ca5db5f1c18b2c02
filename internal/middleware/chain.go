// Package middleware provides the HTTP middleware stack of the playground
// server: request ids, request logging and metrics, CORS and security
// headers.
package middleware

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/tsxrunner/internal/config"
	"github.com/conneroisu/tsxrunner/internal/logging"
	"github.com/conneroisu/tsxrunner/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	routeKey
)

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// Chain manages the HTTP middleware stack.
//
// Middlewares wrap in onion order: the first added is the outermost, so a
// request passes them in the order they were added.
//
// Standard stack (outer to inner):
//  1. Request id
//  2. Logging and metrics
//  3. CORS
//  4. Security headers and origin checks
type Chain struct {
	config      *config.Config
	logger      logging.Logger
	metrics     *metrics.Metrics
	origins     *OriginValidator
	middlewares []Middleware
}

// Dependencies contains everything needed to build the standard stack.
type Dependencies struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Origins *OriginValidator
}

// NewChain creates a chain with the standard stack.
func NewChain(deps Dependencies) *Chain {
	if deps.Config == nil {
		panic("middleware.NewChain: config cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Origins == nil {
		deps.Origins = NewOriginValidator(&deps.Config.Server)
	}

	chain := &Chain{
		config:      deps.Config,
		logger:      deps.Logger.WithComponent("http"),
		metrics:     deps.Metrics,
		origins:     deps.Origins,
		middlewares: make([]Middleware, 0, 4),
	}

	chain.Add(RequestID)
	chain.Add(chain.logging)
	chain.Add(chain.cors)
	chain.Add(SecurityMiddleware(SecurityConfigFromAppConfig(deps.Config), deps.Origins, chain.logger))

	return chain
}

// Add appends a middleware inside the ones already added.
func (c *Chain) Add(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// Count returns the number of middlewares in the chain.
func (c *Chain) Count() int {
	return len(c.middlewares)
}

// Apply wraps handler with every middleware.
func (c *Chain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("middleware.Chain.Apply: handler cannot be nil")
	}

	wrapped := capturePattern(handler)
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		wrapped = c.middlewares[i](wrapped)
		if wrapped == nil {
			panic(fmt.Sprintf("middleware.Chain.Apply: middleware %d returned nil handler", i))
		}
	}

	return wrapped
}

// capturePattern copies the pattern ServeMux matched into the holder
// installed by the logging middleware, which only sees its own request copy.
func capturePattern(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(routeKey).(*string); ok && r.Pattern != "" {
			*holder = r.Pattern
		}
	})
}

// RequestID tags the request with an id, reusing a well-formed incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (c *Chain) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		route := "unmatched"

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), routeKey, &route)))

		duration := time.Since(start)
		if c.metrics != nil {
			c.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), duration)
		}

		c.logger.Info(r.Context(), "HTTP request",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"ip", getClientIP(r),
		)
	})
}

func (c *Chain) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && c.origins.IsAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		} else if c.config.Server.Environment == "development" && len(c.config.Server.AllowedOrigins) == 0 {
			// Only allow wildcard in development
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status. It forwards Hijack so
// WebSocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
