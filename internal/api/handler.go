// Package api exposes the lecture archive over HTTP. Clients promote a
// local session snapshot into a stored lecture here and manage its lifecycle
// afterwards.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voxlate/voxlate/internal/ai"
	"github.com/voxlate/voxlate/internal/observe"
	"github.com/voxlate/voxlate/internal/store"
)

// Handler serves the lecture endpoints.
type Handler struct {
	store      store.Store
	summarizer ai.Summarizer
}

// NewHandler creates a Handler. The summarizer may be nil; promotion then
// skips enrichment regardless of what the request asks for.
func NewHandler(st store.Store, summarizer ai.Summarizer) *Handler {
	return &Handler{store: st, summarizer: summarizer}
}

// Routes returns an http.Handler serving the lecture endpoints:
//
//	POST   /api/lectures               promote a session snapshot to a lecture
//	GET    /api/lectures               list lectures, ?status= filters
//	GET    /api/lectures/{id}          fetch one lecture
//	PATCH  /api/lectures/{id}/status   change a lecture's status
//	DELETE /api/lectures/{id}          remove a lecture
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/lectures", h.handleCreate)
	mux.HandleFunc("GET /api/lectures", h.handleList)
	mux.HandleFunc("GET /api/lectures/{id}", h.handleGet)
	mux.HandleFunc("PATCH /api/lectures/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/lectures/{id}", h.handleDelete)
	return mux
}

// createRequest is the JSON body for promoting a session to a lecture.
type createRequest struct {
	Title               string   `json:"title"`
	Transcript          []string `json:"transcript"`
	Translation         []string `json:"translation"`
	TranslationLanguage string   `json:"translationLanguage"`

	// Enrich asks for AI-generated study material. Ignored when no
	// summarizer is configured.
	Enrich bool `json:"enrich"`
}

// handleCreate handles POST /api/lectures.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	lecture := &store.Lecture{
		Title:               req.Title,
		Transcript:          req.Transcript,
		Translation:         req.Translation,
		TranslationLanguage: req.TranslationLanguage,
	}
	if err := lecture.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Enrich && h.summarizer != nil {
		ctx, span := observe.StartSpan(r.Context(), "api.enrich")
		// Enrichment failure is not worth losing the lecture over.
		enr, err := h.summarizer.Enrich(ctx, req.Transcript)
		span.End()
		if err != nil {
			slog.Warn("api: enrichment failed, saving lecture without it", "err", err)
		} else {
			lecture.Summary = enr.Summary
			lecture.Keywords = enr.Keywords
			lecture.Questions = enr.Questions
		}
	}

	if err := h.store.Create(r.Context(), lecture); err != nil {
		slog.Error("api: create lecture failed", "err", err)
		http.Error(w, "failed to save lecture", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, lecture)
}

// handleList handles GET /api/lectures.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := store.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	lectures, err := h.store.List(r.Context(), status)
	if err != nil {
		slog.Error("api: list lectures failed", "err", err)
		http.Error(w, "failed to list lectures", http.StatusInternalServerError)
		return
	}
	if lectures == nil {
		lectures = []store.Lecture{}
	}
	writeJSON(w, http.StatusOK, lectures)
}

// handleGet handles GET /api/lectures/{id}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	lecture, err := h.store.Get(r.Context(), id)
	if err != nil {
		slog.Error("api: get lecture failed", "id", id, "err", err)
		http.Error(w, "failed to load lecture", http.StatusInternalServerError)
		return
	}
	if lecture == nil {
		http.Error(w, "lecture not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lecture)
}

// statusRequest is the JSON body for the status endpoint.
type statusRequest struct {
	Status store.Status `json:"status"`
}

// handleUpdateStatus handles PATCH /api/lectures/{id}/status.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.IsValid() {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "lecture not found", http.StatusNotFound)
			return
		}
		slog.Error("api: update status failed", "id", id, "err", err)
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDelete handles DELETE /api/lectures/{id}.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		slog.Error("api: delete lecture failed", "id", id, "err", err)
		http.Error(w, "failed to delete lecture", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		slog.Debug("api: write response failed", "err", err)
	}
}
