package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Entry, error)
	Create(ctx context.Context, userID uuid.UUID, date time.Time, hours *float64, reason ReasonRef) (*Entry, error)
	Update(ctx context.Context, userID, id uuid.UUID, hours *float64, reason ReasonRef) (*Entry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	BulkUpsert(ctx context.Context, userID uuid.UUID, dates []time.Time, hours *float64, reason ReasonRef) (*BulkUpsertResult, error)
	BulkDelete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, dates []time.Time) (*BulkDeleteResult, error)
}

// Service validates entry operations before they reach the store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateParams carries raw create input from the transport layer.
type CreateParams struct {
	Date       string
	Hours      *float64
	ReasonID   *string
	ReasonText *string
}

// UpdateParams carries raw update input. Nil fields are left unchanged.
type UpdateParams struct {
	Hours      *float64
	ReasonID   *string
	ReasonText *string
}

// BulkUpsertParams carries raw bulk-update input.
type BulkUpsertParams struct {
	Dates      []string
	Hours      *float64
	ReasonID   *string
	ReasonText *string
}

// BulkDeleteParams carries raw bulk-delete input.
type BulkDeleteParams struct {
	IDs   []string
	Dates []string
}

// ListParams carries raw listing filters.
type ListParams struct {
	StartDate string
	EndDate   string
	ReasonID  string
	MinHours  *float64
	MaxHours  *float64
	Ordering  string
	Page      int
	PageSize  int
}

const (
	defaultPageSize = 31
	maxPageSize     = 100
)

func (s *Service) List(ctx context.Context, userID uuid.UUID, p ListParams) ([]Entry, int, error) {
	f := Filter{Ordering: "-date"}

	if p.StartDate != "" {
		d, err := parseDate("start_date", p.StartDate)
		if err != nil {
			return nil, 0, err
		}
		f.StartDate = &d
	}
	if p.EndDate != "" {
		d, err := parseDate("end_date", p.EndDate)
		if err != nil {
			return nil, 0, err
		}
		f.EndDate = &d
	}
	if p.ReasonID != "" {
		id, err := uuid.Parse(p.ReasonID)
		if err != nil {
			return nil, 0, &ValidationError{Field: "reason_id", Message: "must be a valid UUID"}
		}
		f.ReasonID = &id
	}
	if p.MinHours != nil {
		if *p.MinHours < 0 {
			return nil, 0, &ValidationError{Field: "min_hours", Message: "cannot be negative"}
		}
		f.MinHours = p.MinHours
	}
	if p.MaxHours != nil {
		if *p.MaxHours < 0 {
			return nil, 0, &ValidationError{Field: "max_hours", Message: "cannot be negative"}
		}
		f.MaxHours = p.MaxHours
	}
	if p.Ordering != "" {
		if _, ok := orderings[p.Ordering]; !ok {
			return nil, 0, &ValidationError{Field: "ordering", Message: "must be one of: date, -date, hours, -hours"}
		}
		f.Ordering = p.Ordering
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	f.Limit = pageSize
	f.Offset = (page - 1) * pageSize

	return s.store.List(ctx, userID, f)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Entry, error) {
	return s.store.GetByID(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, p CreateParams) (*Entry, error) {
	if p.Date == "" {
		return nil, &ValidationError{Field: "date", Message: "This field is required."}
	}
	date, err := parseDate("date", p.Date)
	if err != nil {
		return nil, err
	}
	if err := validateHours(p.Hours); err != nil {
		return nil, err
	}
	ref, err := buildReasonRef(p.ReasonID, p.ReasonText)
	if err != nil {
		return nil, err
	}

	return s.store.Create(ctx, userID, date, p.Hours, ref)
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, p UpdateParams) (*Entry, error) {
	if err := validateHours(p.Hours); err != nil {
		return nil, err
	}
	ref, err := buildReasonRef(p.ReasonID, p.ReasonText)
	if err != nil {
		return nil, err
	}
	if p.Hours == nil && ref.IsZero() {
		return nil, &ValidationError{Field: "hours", Message: "provide hours, reason_id, or reason_text"}
	}

	return s.store.Update(ctx, userID, id, p.Hours, ref)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}

func (s *Service) BulkUpsert(ctx context.Context, userID uuid.UUID, p BulkUpsertParams) (*BulkUpsertResult, error) {
	if len(p.Dates) == 0 {
		return nil, &ValidationError{Field: "dates", Message: "This field is required."}
	}
	if len(p.Dates) > MaxBulkDates {
		return nil, &ValidationError{Field: "dates", Message: fmt.Sprintf("at most %d dates per request", MaxBulkDates)}
	}

	dates, err := parseDates("dates", p.Dates)
	if err != nil {
		return nil, err
	}

	if err := validateHours(p.Hours); err != nil {
		return nil, err
	}
	ref, err := buildReasonRef(p.ReasonID, p.ReasonText)
	if err != nil {
		return nil, err
	}
	if p.Hours == nil && ref.IsZero() {
		return nil, &ValidationError{Field: "hours", Message: "provide hours, reason_id, or reason_text"}
	}

	return s.store.BulkUpsert(ctx, userID, dates, p.Hours, ref)
}

func (s *Service) BulkDelete(ctx context.Context, userID uuid.UUID, p BulkDeleteParams) (*BulkDeleteResult, error) {
	if len(p.IDs) == 0 && len(p.Dates) == 0 {
		return nil, &ValidationError{Field: "ids", Message: "provide ids and/or dates"}
	}
	if len(p.IDs) > MaxBulkIDs {
		return nil, &ValidationError{Field: "ids", Message: fmt.Sprintf("at most %d ids per request", MaxBulkIDs)}
	}
	if len(p.Dates) > MaxBulkDates {
		return nil, &ValidationError{Field: "dates", Message: fmt.Sprintf("at most %d dates per request", MaxBulkDates)}
	}

	ids := make([]uuid.UUID, 0, len(p.IDs))
	seenIDs := make(map[uuid.UUID]struct{}, len(p.IDs))
	for _, raw := range p.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &ValidationError{Field: "ids", Message: fmt.Sprintf("%q is not a valid UUID", raw)}
		}
		if _, ok := seenIDs[id]; ok {
			continue
		}
		seenIDs[id] = struct{}{}
		ids = append(ids, id)
	}

	dates, err := parseDates("dates", p.Dates)
	if err != nil {
		return nil, err
	}

	return s.store.BulkDelete(ctx, userID, ids, dates)
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%q is not a valid date, expected YYYY-MM-DD", value),
		}
	}
	return d, nil
}

// parseDates parses and deduplicates, preserving first-seen order.
func parseDates(field string, values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		d, err := parseDate(field, raw)
		if err != nil {
			return nil, err
		}
		key := d.Format(DateFormat)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, d)
	}
	return dates, nil
}

func validateHours(hours *float64) error {
	if hours != nil && *hours < 0 {
		return &ValidationError{Field: "hours", Message: "hours cannot be negative"}
	}
	return nil
}

// buildReasonRef enforces the reason_id XOR reason_text rule.
func buildReasonRef(reasonID, reasonText *string) (ReasonRef, error) {
	if reasonID != nil && reasonText != nil {
		return ReasonRef{}, &ValidationError{
			Field:   "reason_id",
			Message: "provide either reason_id or reason_text, not both",
		}
	}

	if reasonID != nil {
		id, err := uuid.Parse(*reasonID)
		if err != nil {
			return ReasonRef{}, &ValidationError{Field: "reason_id", Message: "must be a valid UUID"}
		}
		return ReasonRef{ID: &id}, nil
	}

	if reasonText != nil {
		text := strings.TrimSpace(*reasonText)
		if text == "" {
			return ReasonRef{}, &ValidationError{Field: "reason_text", Message: "cannot be blank"}
		}
		if len(text) > 500 {
			return ReasonRef{}, &ValidationError{Field: "reason_text", Message: "cannot exceed 500 characters"}
		}
		return ReasonRef{Text: &text}, nil
	}

	return ReasonRef{}, nil
}
