package stats

import (
	"net/http"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
)

// Handler serves the read-only stats view.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns aggregate statistics over the caller's entries
// @Summary      Get user statistics
// @Description  Totals, streaks, daily average, and the most-used reason.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Stats
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/auth/stats [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	result, err := h.service.Compute(r.Context(), userID)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to compute stats", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to compute stats", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, result, http.StatusOK)
}
