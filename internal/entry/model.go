package entry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire format for entry dates.
const DateFormat = "2006-01-02"

// Limits on bulk operations.
const (
	MaxBulkDates = 31
	MaxBulkIDs   = 50
)

// Entry is a per-day focus record. Hours and reason are both optional;
// the (user, date) pair is unique.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"-"`
	Date       string     `json:"date"` // YYYY-MM-DD
	Hours      *float64   `json:"hours"`
	ReasonID   *uuid.UUID `json:"reason_id"`
	ReasonText *string    `json:"reason_text"`
}

// ReasonRef points at a reason either by id (must already exist and be
// owned by the caller) or by text (get-or-create).
type ReasonRef struct {
	ID   *uuid.UUID
	Text *string
}

// IsZero reports whether no reason was referenced at all.
func (ref ReasonRef) IsZero() bool {
	return ref.ID == nil && ref.Text == nil
}

// Filter narrows and orders an entry listing.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	ReasonID  *uuid.UUID
	MinHours  *float64
	MaxHours  *float64
	Ordering  string // date, -date, hours, -hours
	Limit     int
	Offset    int
}

// BulkUpsertResult reports what a bulk update did.
type BulkUpsertResult struct {
	UpdatedCount int     `json:"updated_count"`
	CreatedCount int     `json:"created_count"`
	Entries      []Entry `json:"entries"`
}

// BulkDeleteResult reports which keys matched and which did not.
type BulkDeleteResult struct {
	DeletedCount int         `json:"deleted_count"`
	DeletedIDs   []uuid.UUID `json:"deleted_ids"`
	NotFound     []string    `json:"not_found"`
}

// ValidationError is a field-level input error surfaced as a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
