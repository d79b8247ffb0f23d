package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/ratelimit"
	"github.com/abdolrhman-mo/focusmetricapi/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// GoogleLoginRequest represents the Google login request body
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// GoogleLogin handles Google OAuth authentication
// @Summary      Authenticate with Google
// @Description  Verify a Google ID token, create the user on first sight, and issue a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body GoogleLoginRequest true "Google ID token"
// @Success      200 {object} LoginResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid Google token"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/google [post]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "google_login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for google login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid google login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"token": {"Token is required."},
		})
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "google_login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	result, err := h.service.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidGoogleToken) {
			logger.Warn("google login failed: invalid token")
			httputil.RespondErrorWithCode(w, "Invalid Google token", httputil.CodeInvalidGoogleToken, http.StatusBadRequest)
			return
		}
		logger.Error("google login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Authentication failed. Please try again.", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user authenticated", "email", result.User.Email, "is_new_user", result.IsNewUser)
	httputil.RespondJSON(w, result, http.StatusOK)
}

// Profile returns the caller's profile
// @Summary      Get profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Profile
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/auth/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := GetUserIDFromContext(r.Context())

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}

// UpdateProfile handles PUT (full) and PATCH (partial) profile updates
// @Summary      Update profile
// @Description  PUT requires both name fields, PATCH accepts a subset. Blank values are rejected.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Name fields"
// @Success      200 {object} Profile
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/auth/profile/update [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := GetUserIDFromContext(r.Context())
	partial := r.Method == http.MethodPatch

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	fieldErrors := httputil.FieldErrorResponse{}

	if req.FirstName != nil {
		trimmed := strings.TrimSpace(*req.FirstName)
		if trimmed == "" {
			fieldErrors["first_name"] = []string{"First name cannot be empty."}
		}
		req.FirstName = &trimmed
	} else if !partial {
		fieldErrors["first_name"] = []string{"This field is required."}
	}

	if req.LastName != nil {
		trimmed := strings.TrimSpace(*req.LastName)
		if trimmed == "" {
			fieldErrors["last_name"] = []string{"Last name cannot be empty."}
		}
		req.LastName = &trimmed
	} else if !partial {
		fieldErrors["last_name"] = []string{"This field is required."}
	}

	if len(fieldErrors) > 0 {
		httputil.RespondFieldErrors(w, fieldErrors)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated", "user_id", userID)
	httputil.RespondJSON(w, profile, http.StatusOK)
}

// DeleteAccount removes the caller's account and all owned data
// @Summary      Delete account
// @Description  Deletes the user and cascades reasons, entries, goal, and feedback. Revokes all sessions.
// @Tags         auth
// @Security     BearerAuth
// @Success      204 "No content"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/auth/profile/delete [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := GetUserIDFromContext(r.Context())

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete account", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account deleted", "user_id", userID)
	httputil.RespondNoContent(w)
}

// Logout revokes the presented bearer token
// @Summary      Logout
// @Description  Revokes the presented token. Idempotent: unknown tokens still return 200.
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, _ := TokenFromRequest(r)
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			logger.Warn("failed to revoke session", "error", err.Error())
		}
	}

	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
