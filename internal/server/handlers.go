package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/docio"
	"github.com/scrypster/coref/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SievesResponse is the response format for GET /api/sieves.
type SievesResponse struct {
	Sieves []string `json:"sieves"`
}

// HealthResponse is the response format for GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Gazetteer string `json:"gazetteer,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg, code string) {
	respondJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// maxBodyBytes bounds one document on both HTTP and WebSocket.
func maxBodyBytes(cfg config.ServerConfig) int64 {
	if cfg.MaxBodyMB <= 0 {
		return 8 << 20
	}
	return int64(cfg.MaxBodyMB) << 20
}

// handleResolve handles POST /api/resolve. The body is a JSON document, or
// YAML when the Content-Type says so. ?trace=1 adds the stage trace.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes(s.opts.Config))

	format := docio.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = docio.FormatYAML
	}
	doc, err := docio.Decode(body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "document too large", "TOO_LARGE")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), "INVALID_DOCUMENT")
		return
	}

	trace := r.URL.Query().Get("trace")
	out, status, code, err := s.resolve(r.Context(), doc, trace == "1" || trace == "true")
	if err != nil {
		respondError(w, status, err.Error(), code)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// resolve runs the resolver and broadcasts the outcome.
func (s *Server) resolve(ctx context.Context, doc *types.Document, trace bool) (*docio.Resolved, int, string, error) {
	out := &docio.Resolved{Document: doc}
	var err error
	if trace {
		var debug interface{}
		out.Result, debug, err = s.resolver.DebugResolve(ctx, doc)
		out.Debug = debug
	} else {
		out.Result, err = s.resolver.Resolve(ctx, doc)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, http.StatusServiceUnavailable, "CANCELLED", err
		}
		s.logger.Warn("resolve failed", "document", doc.ID, "error", err)
		return nil, http.StatusUnprocessableEntity, "MALFORMED_ANNOTATIONS", err
	}

	s.hub.Broadcast(Event{
		Type:       EventResolved,
		DocumentID: out.Result.DocumentID,
		Chains:     len(out.Result.Chains),
		Mentions:   out.Result.MentionCount,
	})
	return out, http.StatusOK, "", nil
}

// handleMessage answers one WebSocket message.
func (s *Server) handleMessage(ctx context.Context, data []byte) interface{} {
	doc, err := docio.DecodeBytes(data, docio.FormatJSON)
	if err != nil {
		return ErrorResponse{Error: err.Error(), Code: "INVALID_DOCUMENT"}
	}
	out, _, code, err := s.resolve(ctx, doc, false)
	if err != nil {
		return ErrorResponse{Error: err.Error(), Code: code}
	}
	return out
}

// handleSieves handles GET /api/sieves.
func (s *Server) handleSieves(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}
	respondJSON(w, http.StatusOK, SievesResponse{Sieves: s.resolver.Sieves()})
}

// handleHealth handles GET /healthz. No auth required.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}
	resp := HealthResponse{Status: "healthy"}
	if s.opts.Gazetteer != nil {
		resp.Gazetteer = s.opts.Gazetteer.State()
	}
	respondJSON(w, http.StatusOK, resp)
}
