package results

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/auth"
	"github.com/assessiq/backend/internal/models"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ── Assessments ─────────────────────────────────────────

func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Assessments())
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}
	req, ok := decodeSubmit(w, r)
	if !ok {
		return
	}

	result, err := h.service.Submit(r.Context(), userID, mux.Vars(r)["type"], req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSubmit(w, r)
	if !ok {
		return
	}

	result, err := h.service.Preview(mux.Vars(r)["type"], req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ── Results ─────────────────────────────────────────────

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	stored, err := h.service.Get(r.Context(), mux.Vars(r)["id"], userID, auth.RoleFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	query := r.URL.Query()
	limit := intQueryParam(query, "limit", defaultPageSize)
	offset := intQueryParam(query, "offset", 0)

	list, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ── Analytics ───────────────────────────────────────────

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.Analytics(r.Context(), mux.Vars(r)["type"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// ── Helpers ─────────────────────────────────────────────

func decodeSubmit(w http.ResponseWriter, r *http.Request) (models.SubmitRequest, bool) {
	var req models.SubmitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return req, false
	}
	return req, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assessments.ErrUnknownAssessment):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Unknown assessment type"})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Result not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "You do not have access to this result"})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
