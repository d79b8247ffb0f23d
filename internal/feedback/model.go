package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is an append-only rating/text record.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Rating    *int      `json:"rating"`
	Text      *string   `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
