package ingest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/logger"
	errs "surplusbridge/ingestworker/pkg/errors"
	"surplusbridge/ingestworker/services/store"
)

const roleOperator = "operator"

// Handler exposes the gateway over HTTP
type Handler struct {
	svc         *Service
	agentSecret string
	sessions    store.SessionVerifier
}

// NewHandler creates the HTTP handler set
func NewHandler(svc *Service, agentSecret string, sessions store.SessionVerifier) *Handler {
	return &Handler{
		svc:         svc,
		agentSecret: agentSecret,
		sessions:    sessions,
	}
}

// Router builds the gateway's route tree
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger, middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/agents/{platform}/scrape", h.TriggerScrape)
		r.Post("/agents/ingest", h.ManualIngest)
		r.Get("/agents/health", h.AgentHealth)

		r.Get("/candidates", h.ListCandidates)
		r.Post("/candidates/{id}/approve", h.ApproveCandidate)
		r.Post("/candidates/{id}/reject", h.RejectCandidate)
	})
	return r
}

// authError carries the HTTP status an authorization failure maps to
type authError struct {
	status  int
	message string
}

// authorize accepts the shared operational secret (automated triggers)
// or an authenticated operator session. With operatorOnly set, the
// shared secret is not accepted — that path is human-triggered and
// audited. Rejection happens before any network or storage access.
func (h *Handler) authorize(r *http.Request, operatorOnly bool) *authError {
	if !operatorOnly && h.agentSecret != "" && extractSecret(r) == h.agentSecret {
		return nil
	}

	token := bearerToken(r)
	if token == "" {
		return &authError{status: http.StatusUnauthorized, message: "missing credentials"}
	}
	if h.sessions == nil {
		return &authError{status: http.StatusUnauthorized, message: "sessions unavailable"}
	}
	role, err := h.sessions.RoleForToken(r.Context(), token)
	if err != nil {
		return &authError{status: http.StatusUnauthorized, message: "invalid session"}
	}
	if role != roleOperator {
		return &authError{status: http.StatusForbidden, message: "operator role required"}
	}
	return nil
}

// extractSecret pulls the shared secret from header, bearer token, or
// query parameter
func extractSecret(r *http.Request) string {
	if secret := r.Header.Get("X-Agent-Secret"); secret != "" {
		return secret
	}
	if token := bearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("secret")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// TriggerScrape runs one full scrape for the platform in the path
func (h *Handler) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	if authErr := h.authorize(r, false); authErr != nil {
		writeError(w, authErr.status, authErr.message)
		return
	}

	platform := parser.Platform(chi.URLParam(r, "platform"))
	if !parser.KnownPlatform(platform) || platform == parser.PlatformManual {
		writeError(w, http.StatusBadRequest, "unknown source platform")
		return
	}

	result, err := h.svc.RunScrape(r.Context(), platform)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	// A degraded run still answers 200; Success tells the story.
	writeJSON(w, http.StatusOK, result)
}

type manualIngestRequest struct {
	SourcePlatform parser.Platform `json:"source_platform"`
	SourceURL      string          `json:"source_url"`
}

// ManualIngest fetches and parses exactly one operator-supplied URL
func (h *Handler) ManualIngest(w http.ResponseWriter, r *http.Request) {
	if authErr := h.authorize(r, true); authErr != nil {
		writeError(w, authErr.status, authErr.message)
		return
	}

	var req manualIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !parser.KnownPlatform(req.SourcePlatform) {
		writeError(w, http.StatusBadRequest, "unknown source platform")
		return
	}
	if parsed, err := url.Parse(req.SourceURL); err != nil || !parsed.IsAbs() ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "source_url must be an absolute http(s) URL")
		return
	}

	result, err := h.svc.IngestURL(r.Context(), req.SourcePlatform, req.SourceURL)
	if err != nil {
		var dup *DuplicateURLError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"success":         false,
				"error":           dup.Error(),
				"existing_id":     dup.ExistingID,
				"existing_status": dup.ExistingStatus,
			})
			return
		}
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AgentHealth returns the rolling window of recent runs
func (h *Handler) AgentHealth(w http.ResponseWriter, r *http.Request) {
	if authErr := h.authorize(r, false); authErr != nil {
		writeError(w, authErr.status, authErr.message)
		return
	}

	limit := queryInt(r, "limit", 20)
	summary, err := h.svc.HealthSummary(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListCandidates returns candidates awaiting or past review
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	if authErr := h.authorize(r, true); authErr != nil {
		writeError(w, authErr.status, authErr.message)
		return
	}

	status := store.CandidateStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = store.StatusQueued
	}
	switch status {
	case store.StatusQueued, store.StatusApproved, store.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	candidates, err := h.svc.ListCandidates(r.Context(), status, queryInt(r, "limit", 50))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

type reviewRequest struct {
	ReviewedBy string `json:"reviewed_by"`
	Notes      string `json:"notes"`
}

// ApproveCandidate approves a queued candidate and creates its property
func (h *Handler) ApproveCandidate(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, store.StatusApproved)
}

// RejectCandidate rejects a queued candidate
func (h *Handler) RejectCandidate(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, store.StatusRejected)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, target store.CandidateStatus) {
	if authErr := h.authorize(r, true); authErr != nil {
		writeError(w, authErr.status, authErr.message)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	var req reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.ReviewedBy == "" {
		req.ReviewedBy = roleOperator
	}

	var candidate *store.Candidate
	var propertyID uuid.UUID
	if target == store.StatusApproved {
		candidate, propertyID, err = h.svc.Approve(r.Context(), id, req.ReviewedBy, req.Notes)
	} else {
		candidate, err = h.svc.Reject(r.Context(), id, req.ReviewedBy, req.Notes)
	}
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "candidate not found")
		case errors.Is(err, store.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "candidate already reviewed")
		default:
			h.writeServiceError(w, err)
		}
		return
	}

	response := map[string]interface{}{
		"success":   true,
		"candidate": candidate,
	}
	if propertyID != uuid.Nil {
		response["property_id"] = propertyID
	}
	writeJSON(w, http.StatusOK, response)
}

// writeServiceError maps service-level errors to HTTP statuses: 500 is
// reserved for unrecoverable infrastructure absence.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeConfiguration:
		writeError(w, http.StatusBadRequest, err.Error())
	case errs.ErrorTypeStorage:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// requestLogger logs one line per request with timing and status
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if logger.Default != nil {
			logger.Default.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}
	})
}
