// Package httpadapter exposes the assistant over a small JSON API:
// document upload and status, batch ingestion, chat, and session
// management.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
	"github.com/lai-labs/sales-assistant/internal/core/usecase"
	"github.com/lai-labs/sales-assistant/internal/observability/metrics"
)

type Options struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueTimeout   time.Duration
	DocumentsDir   string
}

type Router struct {
	ingest   ports.DocumentIngestor
	chat     ports.Assistant
	repo     ports.DocumentRepository
	sessions ports.SessionStore
	pipeline *usecase.DirectoryPipeline
	metrics  *metrics.HTTPServerMetrics
	opts     Options
}

func NewRouter(
	ingest ports.DocumentIngestor,
	chat ports.Assistant,
	repo ports.DocumentRepository,
	sessions ports.SessionStore,
	pipeline *usecase.DirectoryPipeline,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.QueueTimeout <= 0 {
		opts.QueueTimeout = 5 * time.Second
	}
	return &Router{
		ingest:   ingest,
		chat:     chat,
		repo:     repo,
		sessions: sessions,
		pipeline: pipeline,
		metrics:  m,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/batch", rt.batchIngest)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/chat", rt.handleChat)
	mux.HandleFunc("/v1/sessions/", rt.handleSession)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.opts.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.QueueTimeout)
	}
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// batchIngest walks the configured documents directory synchronously and
// reports per-file outcomes.
func (rt *Router) batchIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.pipeline == nil || rt.opts.DocumentsDir == "" {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "batch ingestion is not configured"})
		return
	}

	report, err := rt.pipeline.ProcessDirectory(r.Context(), rt.opts.DocumentsDir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	answer, err := rt.chat.HandleMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordChatExchange(rt.opts.Service, len(answer.Sources), time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"answer":     answer.Text,
		"sources":    answer.Sources,
	})
}

func (rt *Router) handleSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		info := rt.sessions.Info(id)
		if !info.Exists {
			writeError(w, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id)))
			return
		}
		turns := rt.sessions.Context(id)
		if turns == nil {
			turns = []domain.SessionTurn{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"info":  info,
			"turns": turns,
		})
	case http.MethodDelete:
		rt.sessions.Clear(id)
		if rt.metrics != nil {
			rt.metrics.RecordSessionClear(rt.opts.Service)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
