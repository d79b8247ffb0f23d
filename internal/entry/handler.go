package entry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/httputil"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
)

// Handler contains HTTP handlers for focus entry endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// EntryRequest is the create/update request body
type EntryRequest struct {
	Date       string   `json:"date"`
	Hours      *float64 `json:"hours"`
	ReasonID   *string  `json:"reason_id"`
	ReasonText *string  `json:"reason_text"`
}

// BulkUpdateRequest is the bulk-update request body
type BulkUpdateRequest struct {
	Dates      []string `json:"dates"`
	Hours      *float64 `json:"hours"`
	ReasonID   *string  `json:"reason_id"`
	ReasonText *string  `json:"reason_text"`
}

// BulkDeleteRequest is the bulk-delete request body
type BulkDeleteRequest struct {
	IDs   []string `json:"ids"`
	Dates []string `json:"dates"`
}

// ListResponse is a paginated entry listing
type ListResponse struct {
	Count   int     `json:"count"`
	Results []Entry `json:"results"`
}

// List returns the caller's entries, filtered and paginated
// @Summary      List entries
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "Inclusive lower date bound (YYYY-MM-DD)"
// @Param        end_date   query string false "Inclusive upper date bound (YYYY-MM-DD)"
// @Param        reason_id  query string false "Filter by reason"
// @Param        min_hours  query number false "Minimum hours"
// @Param        max_hours  query number false "Maximum hours"
// @Param        ordering   query string false "date, -date, hours, -hours (default -date)"
// @Param        page       query int    false "Page number (default 1)"
// @Param        page_size  query int    false "Page size (default 31, max 100)"
// @Success      200 {object} ListResponse
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Router       /api/entries [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	params := ListParams{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		ReasonID:  r.URL.Query().Get("reason_id"),
		Ordering:  r.URL.Query().Get("ordering"),
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("min_hours"), 64); err == nil {
		params.MinHours = &v
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("max_hours"), 64); err == nil {
		params.MaxHours = &v
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	entries, count, err := h.service.List(r.Context(), userID, params)
	if err != nil {
		respondServiceError(w, r, err, "failed to list entries")
		return
	}

	httputil.RespondJSON(w, ListResponse{Count: count, Results: entries}, http.StatusOK)
}

// Get returns a single owned entry
// @Summary      Get entry
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entry ID"
// @Success      200 {object} Entry
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/entries/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, r, err, "failed to get entry")
		return
	}

	httputil.RespondJSON(w, e, http.StatusOK)
}

// Create records a focus entry for a date
// @Summary      Create entry
// @Description  Accepts either reason_id (must be owned) or reason_text (get-or-create); both is an error.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body EntryRequest true "Entry"
// @Success      201 {object} Entry
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Entry already exists for this date"
// @Router       /api/entries [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	e, err := h.service.Create(r.Context(), userID, CreateParams{
		Date:       req.Date,
		Hours:      req.Hours,
		ReasonID:   req.ReasonID,
		ReasonText: req.ReasonText,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to create entry")
		return
	}

	logger.Info("entry created", "entry_id", e.ID, "date", e.Date)
	httputil.RespondJSON(w, e, http.StatusCreated)
}

// Update modifies hours/reason of an owned entry (date is immutable)
// @Summary      Update entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entry ID"
// @Param        request body EntryRequest true "Fields to change"
// @Success      200 {object} Entry
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/entries/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	e, err := h.service.Update(r.Context(), userID, id, UpdateParams{
		Hours:      req.Hours,
		ReasonID:   req.ReasonID,
		ReasonText: req.ReasonText,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to update entry")
		return
	}

	logger.Info("entry updated", "entry_id", id)
	httputil.RespondJSON(w, e, http.StatusOK)
}

// Delete removes an owned entry
// @Summary      Delete entry
// @Tags         entries
// @Security     BearerAuth
// @Param        id path string true "Entry ID"
// @Success      204 "No content"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /api/entries/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	id, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, r, err, "failed to delete entry")
		return
	}

	logger.Info("entry deleted", "entry_id", id)
	httputil.RespondNoContent(w)
}

// BulkUpdate upserts one entry per date with shared hours/reason
// @Summary      Bulk update entries
// @Description  Upserts one entry per date (max 31) atomically: all writes succeed or none do.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BulkUpdateRequest true "Dates and shared fields"
// @Success      200 {object} BulkUpsertResult
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Router       /api/entries/bulk-update [post]
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.BulkUpsert(r.Context(), userID, BulkUpsertParams{
		Dates:      req.Dates,
		Hours:      req.Hours,
		ReasonID:   req.ReasonID,
		ReasonText: req.ReasonText,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to bulk update entries")
		return
	}

	logger.Info("entries bulk updated",
		"updated", result.UpdatedCount,
		"created", result.CreatedCount,
	)
	httputil.RespondJSON(w, result, http.StatusOK)
}

// BulkDelete removes the union of entries matched by ids and dates
// @Summary      Bulk delete entries
// @Description  Deletes matching owned entries atomically; non-matching keys land in not_found.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BulkDeleteRequest true "Ids (max 50) and/or dates (max 31)"
// @Success      200 {object} BulkDeleteResult
// @Failure      400 {object} httputil.FieldErrorResponse "Validation error"
// @Router       /api/entries/bulk-delete [post]
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.BulkDelete(r.Context(), userID, BulkDeleteParams{
		IDs:   req.IDs,
		Dates: req.Dates,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to bulk delete entries")
		return
	}

	logger.Info("entries bulk deleted",
		"deleted", result.DeletedCount,
		"not_found", len(result.NotFound),
	)
	httputil.RespondJSON(w, result, http.StatusOK)
}

func parseEntryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "entry not found", httputil.CodeNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service and store errors onto the HTTP error
// model shared by all entry endpoints.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			vErr.Field: {vErr.Message},
		})
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "entry not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrReasonNotFound):
		httputil.RespondFieldErrors(w, httputil.FieldErrorResponse{
			"reason_id": {"reason not found"},
		})
	case errors.Is(err, ErrDuplicateDate):
		httputil.RespondErrorWithCode(w, "an entry already exists for this date", httputil.CodeConflict, http.StatusConflict)
	default:
		logging.GetLoggerFromContext(r.Context()).Error(internalMsg, "error", err.Error())
		httputil.RespondErrorWithCode(w, internalMsg, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
