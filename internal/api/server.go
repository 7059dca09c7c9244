// Package api exposes the recording pipeline over a small HTTP ingest
// surface: start a session, append chunks, end it.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/harumilabs/kikiwake/internal/session"
	"github.com/harumilabs/kikiwake/internal/speaker"
)

// maxChunkBytes bounds one chunk request body; the per-session total is
// enforced separately by the session buffer limit.
const maxChunkBytes = 32 << 20

type Server struct {
	manager *session.Manager
}

func NewServer(manager *session.Manager) *Server {
	return &Server{manager: manager}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/sessions", s.handleStart)
	mux.HandleFunc("POST /v1/sessions/{id}/chunks", s.handleChunk)
	mux.HandleFunc("POST /v1/sessions/{id}/end", s.handleEnd)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startRequest struct {
	ProjectID    string                `json:"project_id"`
	Name         string                `json:"name"`
	Participants []speaker.Participant `json:"participants"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	id, err := s.manager.Start(r.Context(), req.ProjectID, req.Name, req.Participants)
	if err != nil {
		slog.Error("failed to start session", "error", err, "project_id", req.ProjectID)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, startResponse{SessionID: id})
}

type chunkResponse struct {
	SessionID  string `json:"session_id"`
	ChunkCount int    `json:"chunk_count"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sampleRate := 0
	if v := r.URL.Query().Get("sample_rate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "sample_rate must be a positive integer")
			return
		}
		sampleRate = n
	}
	pcm, err := io.ReadAll(io.LimitReader(r.Body, maxChunkBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read chunk body")
		return
	}
	if len(pcm) == 0 {
		writeError(w, http.StatusBadRequest, "chunk body is empty")
		return
	}
	if len(pcm) > maxChunkBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "chunk exceeds size limit")
		return
	}
	count, err := s.manager.AppendChunk(r.Context(), id, pcm, sampleRate)
	if err != nil {
		s.writeManagerError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, chunkResponse{SessionID: id, ChunkCount: count})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.manager.End(r.Context(), id)
	if err != nil {
		s.writeManagerError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeManagerError(w http.ResponseWriter, err error, sessionID string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrBufferLimit):
		writeError(w, http.StatusRequestEntityTooLarge, "session audio buffer limit exceeded")
	default:
		slog.Error("session operation failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
