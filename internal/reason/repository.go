package reason

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

var ErrNotFound = errors.New("reason not found")

// InUseError is returned when a delete is blocked because focus entries
// still reference the reason.
type InUseError struct {
	Description string
	UsageCount  int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("reason %q is used in %d focus entries", e.Description, e.UsageCount)
}

// Repository handles reason persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns the user's reasons, newest first, with usage counts.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]ListItem, error) {
	var rows []struct {
		ID          uuid.UUID `bun:"id"`
		Description string    `bun:"description"`
		CreatedAt   time.Time `bun:"created_at"`
		UsageCount  int       `bun:"usage_count"`
	}

	err := r.db.NewSelect().
		Model((*database.Reason)(nil)).
		ColumnExpr("r.id, r.description, r.created_at").
		ColumnExpr("count(fe.id) AS usage_count").
		Join("LEFT JOIN focus_entries AS fe ON fe.reason_id = r.id").
		Where("r.user_id = ?", userID).
		GroupExpr("r.id").
		OrderExpr("r.created_at DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list reasons: %w", err)
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListItem(row))
	}
	return items, nil
}

// GetDetail returns a reason with its usage count and the five most
// recent entries referencing it.
func (r *Repository) GetDetail(ctx context.Context, userID, id uuid.UUID) (*Detail, error) {
	dbReason := new(database.Reason)
	err := r.db.NewSelect().
		Model(dbReason).
		Where("r.id = ?", id).
		Where("r.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reason: %w", err)
	}

	usageCount, err := r.usageCount(ctx, id)
	if err != nil {
		return nil, err
	}

	var dbEntries []database.FocusEntry
	err = r.db.NewSelect().
		Model(&dbEntries).
		Column("fe.date", "fe.hours").
		Where("fe.reason_id = ?", id).
		OrderExpr("fe.date DESC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent entries: %w", err)
	}

	recent := make([]RecentEntry, 0, len(dbEntries))
	for _, e := range dbEntries {
		recent = append(recent, RecentEntry{
			Date:  e.Date.Format("2006-01-02"),
			Hours: e.Hours,
		})
	}

	return &Detail{
		ID:            dbReason.ID,
		Description:   dbReason.Description,
		CreatedAt:     dbReason.CreatedAt,
		UsageCount:    usageCount,
		RecentEntries: recent,
	}, nil
}

// Create inserts a new reason for the user.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, description string) (*Reason, error) {
	dbReason := &database.Reason{
		UserID:      userID,
		Description: description,
	}

	_, err := r.db.NewInsert().
		Model(dbReason).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reason: %w", err)
	}

	return mapDBReasonToModel(dbReason), nil
}

// Update replaces the description of an owned reason.
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, description string) (*Reason, error) {
	dbReason := new(database.Reason)
	err := r.db.NewUpdate().
		Model(dbReason).
		Set("description = ?", description).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update reason: %w", err)
	}

	return mapDBReasonToModel(dbReason), nil
}

// Delete removes an owned reason unless focus entries still reference
// it. The usage check and the delete run in one transaction so a
// concurrent attach cannot slip between them.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dbReason := new(database.Reason)
		err := tx.NewSelect().
			Model(dbReason).
			Where("r.id = ?", id).
			Where("r.user_id = ?", userID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get reason: %w", err)
		}

		usageCount, err := tx.NewSelect().
			Model((*database.FocusEntry)(nil)).
			Where("reason_id = ?", id).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count reason usage: %w", err)
		}
		if usageCount > 0 {
			return &InUseError{
				Description: dbReason.Description,
				UsageCount:  usageCount,
			}
		}

		_, err = tx.NewDelete().
			Model((*database.Reason)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete reason: %w", err)
		}

		return nil
	})
}

func (r *Repository) usageCount(ctx context.Context, reasonID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.FocusEntry)(nil)).
		Where("reason_id = ?", reasonID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count reason usage: %w", err)
	}
	return count, nil
}

func mapDBReasonToModel(dbr *database.Reason) *Reason {
	return &Reason{
		ID:          dbr.ID,
		UserID:      dbr.UserID,
		Description: dbr.Description,
		CreatedAt:   dbr.CreatedAt,
	}
}
