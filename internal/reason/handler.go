package reason

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
)

// Store is the repository surface the handler needs.
type Store interface {
	List(ctx context.Context, userID uuid.UUID) ([]ListItem, error)
	GetDetail(ctx context.Context, userID, id uuid.UUID) (*Detail, error)
	Create(ctx context.Context, userID uuid.UUID, description string) (*Reason, error)
	Update(ctx context.Context, userID, id uuid.UUID, description string) (*Reason, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Handler contains HTTP handlers for reason endpoints
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// UpsertRequest is the create/update request body
type UpsertRequest struct {
	Description string `json:"description"`
}

// InUseResponse is returned when a delete is blocked by referencing entries
type InUseResponse struct {
	Error      string `json:"error"`
	UsageCount int    `json:"usage_count"`
}

// List returns the caller's reasons with usage counts
// @Summary      List reasons
// @Tags         reasons
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ListItem
// @Router       /api/reasons [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	items, err := h.store.List(r.Context(), userID)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list reasons", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list reasons", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, items, http.StatusOK)
}

// Get returns a reason with usage count and recent entries
// @Summary      Get reason detail
// @Tags         reasons
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reason ID"
// @Success      200 {object} Detail
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/reasons/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	detail, err := h.store.GetDetail(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "reason not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logging.GetLoggerFromContext(r.Context()).Error("failed to get reason", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get reason", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, detail, http.StatusOK)
}

// Create adds a new reason
// @Summary      Create reason
// @Tags         reasons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpsertRequest true "Description"
// @Success      201 {object} Reason
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Router       /api/reasons [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	description, ok := decodeDescription(w, r)
	if !ok {
		return
	}

	created, err := h.store.Create(r.Context(), userID, description)
	if err != nil {
		logger.Error("failed to create reason", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create reason", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("reason created", "reason_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Update replaces a reason's description (PUT and PATCH behave the same
// for a single-field resource)
// @Summary      Update reason
// @Tags         reasons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reason ID"
// @Param        request body UpsertRequest true "Description"
// @Success      200 {object} Reason
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/reasons/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	description, ok := decodeDescription(w, r)
	if !ok {
		return
	}

	updated, err := h.store.Update(r.Context(), userID, id, description)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "reason not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update reason", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update reason", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("reason updated", "reason_id", id)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes an unused reason
// @Summary      Delete reason
// @Description  Fails with usage_count when focus entries still reference the reason.
// @Tags         reasons
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reason ID"
// @Success      204 "No content"
// @Failure      400 {object} InUseResponse "Reason is in use"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/reasons/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), userID, id)
	if err != nil {
		var inUse *InUseError
		if errors.As(err, &inUse) {
			httputil.RespondJSON(w, InUseResponse{
				Error: fmt.Sprintf(
					"Cannot delete reason '%s' because it is used in %d focus entries. Please remove it from all entries first.",
					inUse.Description, inUse.UsageCount,
				),
				UsageCount: inUse.UsageCount,
			}, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "reason not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete reason", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete reason", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("reason deleted", "reason_id", id)
	httputil.RespondNoContent(w)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "reason not found", httputil.CodeNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func decodeDescription(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return "", false
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"description": {"Description cannot be empty."},
		})
		return "", false
	}
	if len(description) > MaxDescriptionLength {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"description": {"Description cannot exceed 500 characters."},
		})
		return "", false
	}

	return description, true
}
