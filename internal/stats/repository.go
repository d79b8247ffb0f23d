package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
)

// Repository runs the aggregate queries behind the stats view.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Totals returns the entry count and summed hours for a user.
func (r *Repository) Totals(ctx context.Context, userID uuid.UUID) (int, float64, error) {
	var row struct {
		Count      int     `bun:"count"`
		TotalHours float64 `bun:"total_hours"`
	}

	err := r.db.NewSelect().
		Model((*database.FocusEntry)(nil)).
		ColumnExpr("count(*) AS count").
		ColumnExpr("coalesce(sum(hours), 0) AS total_hours").
		Where("user_id = ?", userID).
		Scan(ctx, &row)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get entry totals: %w", err)
	}

	return row.Count, row.TotalHours, nil
}

// QualifyingDates returns the distinct dates with hours > 0, newest
// first. Streaks are computed over these.
func (r *Repository) QualifyingDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time

	err := r.db.NewSelect().
		Model((*database.FocusEntry)(nil)).
		ColumnExpr("DISTINCT fe.date").
		Where("fe.user_id = ?", userID).
		Where("fe.hours > 0").
		OrderExpr("fe.date DESC").
		Scan(ctx, &dates)
	if err != nil {
		return nil, fmt.Errorf("failed to get qualifying dates: %w", err)
	}

	return dates, nil
}

// MostUsedReason returns the description of the reason referenced by the
// most entries, or nil when no entry has a reason.
func (r *Repository) MostUsedReason(ctx context.Context, userID uuid.UUID) (*string, error) {
	var row struct {
		Description string `bun:"description"`
	}

	err := r.db.NewSelect().
		Model((*database.FocusEntry)(nil)).
		ColumnExpr("r.description AS description").
		Join("JOIN reasons AS r ON r.id = fe.reason_id").
		Where("fe.user_id = ?", userID).
		GroupExpr("r.description").
		OrderExpr("count(*) DESC").
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most used reason: %w", err)
	}

	return &row.Description, nil
}
