package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is an OAuth-provisioned account. There is no password column:
// identity is established by the Google ID token.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email     string    `bun:"email,notnull,unique"`
	FirstName string    `bun:"first_name,notnull,default:''"`
	LastName  string    `bun:"last_name,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Reason is a user-defined label for why hours were (or were not) focused.
type Reason struct {
	bun.BaseModel `bun:"table:reasons,alias:r"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// FocusEntry records hours focused on a given day. At most one entry
// exists per (user_id, date).
type FocusEntry struct {
	bun.BaseModel `bun:"table:focus_entries,alias:fe"`

	ID       uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID   uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:focus_entries_user_date_key"`
	Date     time.Time  `bun:"date,notnull,type:date,unique:focus_entries_user_date_key"`
	Hours    *float64   `bun:"hours"`
	ReasonID *uuid.UUID `bun:"reason_id,type:uuid"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Reason *Reason `bun:"rel:belongs-to,join:reason_id=id"`
}

// Goal is the per-user daily target. One row per user.
type Goal struct {
	bun.BaseModel `bun:"table:goals,alias:g"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid,unique"`
	IsActivated bool      `bun:"is_activated,notnull,default:false"`
	Hours       int       `bun:"hours,notnull,default:2"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// Feedback is append-only: a star rating, free text, or both.
type Feedback struct {
	bun.BaseModel `bun:"table:feedback,alias:f"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Rating    *int      `bun:"rating"`
	Text      *string   `bun:"text"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}
