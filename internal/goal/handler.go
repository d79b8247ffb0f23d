package goal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
)

// Store is the repository surface the handler needs.
type Store interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Goal, error)
	Activate(ctx context.Context, userID uuid.UUID, hours *int) (*Goal, error)
	Deactivate(ctx context.Context, userID uuid.UUID) (*Goal, error)
}

// Handler contains HTTP handlers for goal endpoints
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ActivateRequest represents the goal activation request body
type ActivateRequest struct {
	Hours *int `json:"hours"`
}

// Get returns the caller's goal
// @Summary      Get goal
// @Tags         goals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Goal
// @Failure      404 {object} httputil.ErrorResponse "No goal set"
// @Router       /api/goals [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	g, err := h.store.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "no goal set", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logging.GetLoggerFromContext(r.Context()).Error("failed to get goal", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get goal", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, g, http.StatusOK)
}

// Activate turns the goal on, creating it with default hours on first use
// @Summary      Activate goal
// @Description  Creates the goal if absent (default 2 hours) and sets is_activated. Hours may be overridden.
// @Tags         goals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ActivateRequest false "Optional target hours"
// @Success      200 {object} Goal
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Router       /api/goals/activate [post]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req ActivateRequest
	// An empty body means "activate with current or default hours".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Hours != nil && *req.Hours < 1 {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"hours": {"hours must be at least 1"},
		})
		return
	}

	g, err := h.store.Activate(r.Context(), userID, req.Hours)
	if err != nil {
		logger.Error("failed to activate goal", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to activate goal", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("goal activated", "user_id", userID, "hours", g.Hours)
	httputil.RespondJSON(w, g, http.StatusOK)
}

// Deactivate turns the goal off, preserving its hours
// @Summary      Deactivate goal
// @Tags         goals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Goal
// @Failure      404 {object} httputil.ErrorResponse "No goal set"
// @Router       /api/goals/deactivate [post]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	g, err := h.store.Deactivate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "no goal set", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to deactivate goal", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to deactivate goal", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("goal deactivated", "user_id", userID)
	httputil.RespondJSON(w, g, http.StatusOK)
}
