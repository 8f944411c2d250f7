// Package handler exposes the visitor service over HTTP. It adapts requests
// and responses only; all business logic lives in the service.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"visitors/internal/platform/middleware"
	"visitors/internal/visitor"
	dErrors "visitors/pkg/domain-errors"
)

// Handler handles the /visitors endpoints.
type Handler struct {
	service *visitor.Service
	logger  *slog.Logger
}

func New(service *visitor.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the visitor routes. Static reporting paths are declared
// before the {id} parameter so chi resolves them first.
func (h *Handler) Register(r chi.Router) {
	r.Route("/visitors", func(r chi.Router) {
		r.Get("/", h.handleGetAll)
		r.Post("/", h.handleAdd)
		r.Get("/sorted", h.handleSorted)
		r.Get("/approved", h.handleApproved)
		r.Get("/grouped-by-purpose", h.handleGroupedByPurpose)
		r.Get("/total-duration", h.handleTotalDuration)
		r.Get("/unique-contacts", h.handleUniqueContacts)
		r.Get("/analyze", h.handleAnalyze)
		r.Get("/{id}", h.handleGetByID)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	projections, err := h.service.GetAllVisitors(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, projections)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	projection, err := h.service.GetVisitorByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, projection)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var v visitor.Visitor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	projection, err := h.service.AddVisitor(r.Context(), &v)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, projection)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var v visitor.Visitor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	projection, err := h.service.UpdateVisitor(r.Context(), id, &v)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, projection)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteVisitor(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSorted(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.service.SortedByCheckIn(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, visitors)
}

func (h *Handler) handleApproved(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.service.ApprovedVisitors(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, visitors)
}

func (h *Handler) handleGroupedByPurpose(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.GroupedByPurpose(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) handleTotalDuration(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalDuration(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, total)
}

func (h *Handler) handleUniqueContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.UniqueContactNumbers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contacts)
}

// handleAnalyze chains the two awaitable stages: fetch all visitors, then sum
// their durations, responding with a plain-text report.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fetched := <-h.service.FetchAllVisitors(ctx)
	if fetched.Err != nil {
		h.logger.Error("analyze fetch failed", "request_id", middleware.GetRequestID(ctx), "error", fetched.Err)
		h.writeText(w, http.StatusInternalServerError, "Error calculating total visit duration")
		return
	}

	summed := <-h.service.CalculateTotalDuration(ctx, fetched.Visitors)
	if summed.Err != nil {
		h.logger.Error("analyze sum failed", "request_id", middleware.GetRequestID(ctx), "error", summed.Err)
		h.writeText(w, http.StatusInternalServerError, "Error calculating total visit duration")
		return
	}

	h.writeText(w, http.StatusOK, fmt.Sprintf("Total visit duration: %d minutes", summed.Total))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid visitor id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// errorResponse is the envelope for handled failures.
type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// writeError translates domain errors into status codes and the JSON error
// envelope. Causes of retrieval/persistence failures stay in the logs; the
// body carries the caller-safe message only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: true, Message: dErrors.MessageOf(err)})
}
