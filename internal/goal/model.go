package goal

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHours is the target applied when a goal is activated without
// an explicit hours value.
const DefaultHours = 2

// Goal is the per-user daily target. The JSON shape matches what the
// profile endpoint embeds: the row identity stays internal.
type Goal struct {
	ID          uuid.UUID `json:"-"`
	UserID      uuid.UUID `json:"-"`
	IsActivated bool      `json:"is_activated"`
	Hours       int       `json:"hours"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
