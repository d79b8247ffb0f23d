package reason

import (
	"time"

	"github.com/google/uuid"
)

// MaxDescriptionLength bounds reason descriptions.
const MaxDescriptionLength = 500

type Reason struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListItem is a reason with its usage count, as returned by the list endpoint.
type ListItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UsageCount  int       `json:"usage_count"`
}

// RecentEntry is the date/hours pair shown on the reason detail view.
type RecentEntry struct {
	Date  string   `json:"date"`
	Hours *float64 `json:"hours"`
}

// Detail extends a reason with usage information.
type Detail struct {
	ID            uuid.UUID     `json:"id"`
	Description   string        `json:"description"`
	CreatedAt     time.Time     `json:"created_at"`
	UsageCount    int           `json:"usage_count"`
	RecentEntries []RecentEntry `json:"recent_entries"`
}
