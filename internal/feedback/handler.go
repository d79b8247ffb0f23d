package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/ratelimit"
)

// Store is the repository surface the handler needs.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, rating *int, text *string) (*Feedback, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Feedback, error)
}

// Handler contains HTTP handlers for feedback endpoints
type Handler struct {
	store       Store
	rateLimiter *ratelimit.Limiter
}

func NewHandler(store Store, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{store: store, rateLimiter: rateLimiter}
}

// CreateRequest is the feedback submission body
type CreateRequest struct {
	Rating *int    `json:"rating"`
	Text   *string `json:"text"`
}

// Create appends a feedback record
// @Summary      Submit feedback
// @Description  Requires a rating in [1,5], non-empty text, or both.
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Rating and/or text"
// @Success      201 {object} Feedback
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/feedback [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	ip := clientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "feedback")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Text != nil {
		trimmed := strings.TrimSpace(*req.Text)
		if trimmed == "" {
			req.Text = nil
		} else {
			req.Text = &trimmed
		}
	}

	if req.Rating == nil && req.Text == nil {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"rating": {"Provide a rating, feedback text, or both."},
		})
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"rating": {"Rating must be between 1 and 5."},
		})
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "feedback"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	created, err := h.store.Create(r.Context(), userID, req.Rating, req.Text)
	if err != nil {
		logger.Error("failed to create feedback", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create feedback", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("feedback created", "feedback_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List returns the caller's feedback, newest first
// @Summary      List feedback
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Feedback
// @Router       /api/feedback [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	records, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list feedback", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list feedback", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, records, http.StatusOK)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
