package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conneroisu/tsxrunner/internal/playground"
	"github.com/conneroisu/tsxrunner/internal/ui"
	"github.com/conneroisu/tsxrunner/internal/version"
)

// SourceRequest is the body of POST /api/run and PUT /api/source.
type SourceRequest struct {
	// Source replaces the buffer. POST /api/run without it runs the
	// current buffer.
	Source *string `json:"source"`
}

// SampleResponse is returned by GET /api/sample.
type SampleResponse struct {
	Source string `json:"source"`
}

// ErrorResponse reports a rejected request. Run failures are not request
// errors; they are reported inside the snapshot.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *PlaygroundServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.Page(s.session.Snapshot()).Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "Failed to render page")
	}
}

// handleRunForm is the no-script path of the Run Code button.
func (s *PlaygroundServer) handleRunForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.formLimit())
	if err := r.ParseForm(); err != nil {
		s.writeBodyError(w, err)
		return
	}

	if _, ok := r.PostForm["source"]; ok {
		s.session.Submit(r.Context(), r.PostForm.Get("source"))
	} else {
		s.session.Run(r.Context())
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *PlaygroundServer) handleResetForm(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *PlaygroundServer) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSource(w, r)
	if !ok {
		return
	}

	var snap *playground.Snapshot
	if req.Source != nil {
		snap = s.session.Submit(r.Context(), *req.Source)
	} else {
		snap = s.session.Run(r.Context())
	}

	s.writeJSONResponse(w, http.StatusOK, snap)
}

func (s *PlaygroundServer) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.session.Snapshot())
}

func (s *PlaygroundServer) handleSource(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSource(w, r)
	if !ok {
		return
	}
	if req.Source == nil {
		s.writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: "source is required"})
		return
	}
	if err := s.checkSourceSize(*req.Source); err != nil {
		s.writeJSONResponse(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, s.session.SetSource(*req.Source))
}

func (s *PlaygroundServer) handleSample(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, SampleResponse{Source: s.session.Initial()})
}

func (s *PlaygroundServer) handleReset(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.session.Reset())
}

// handleHealth returns the server health status for health checks
func (s *PlaygroundServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	health := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"build_info": version.GetBuildInfo(),
		"checks": map[string]interface{}{
			"session":   map[string]interface{}{"status": "healthy", "runs": snap.Runs, "state": snap.Status},
			"websocket": map[string]interface{}{"status": "healthy", "clients": s.hub.ClientCount()},
		},
	}

	s.writeJSONResponse(w, http.StatusOK, health)
}

func (s *PlaygroundServer) decodeSource(w http.ResponseWriter, r *http.Request) (SourceRequest, bool) {
	var req SourceRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.jsonLimit())

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeBodyError(w, err)
		return req, false
	}
	return req, true
}

func (s *PlaygroundServer) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeJSONResponse(w, http.StatusRequestEntityTooLarge,
			ErrorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
		return
	}
	s.writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
}

// jsonLimit leaves room for JSON escaping on top of the source limit.
func (s *PlaygroundServer) jsonLimit() int64 {
	return int64(s.config.Playground.MaxSourceBytes)*2 + 1024
}

// formLimit leaves room for percent-encoding on top of the source limit.
func (s *PlaygroundServer) formLimit() int64 {
	return int64(s.config.Playground.MaxSourceBytes)*3 + 1024
}

func (s *PlaygroundServer) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn(s.ctx, err, "Failed to encode JSON response")
	}
}
