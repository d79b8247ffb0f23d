package goal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
)

var ErrNotFound = errors.New("goal not found")

// Repository handles goal persistence. Goals are single-row-per-user
// with upsert semantics on activation.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetByUserID retrieves a user's goal.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Goal, error) {
	dbGoal := new(database.Goal)
	err := r.db.NewSelect().
		Model(dbGoal).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return mapDBGoalToModel(dbGoal), nil
}

// Activate creates the goal row if absent and sets the activation flag.
// When hours is nil an existing row keeps its hours and a new row gets
// the default.
func (r *Repository) Activate(ctx context.Context, userID uuid.UUID, hours *int) (*Goal, error) {
	insertHours := DefaultHours
	if hours != nil {
		insertHours = *hours
	}

	dbGoal := &database.Goal{
		UserID:      userID,
		IsActivated: true,
		Hours:       insertHours,
	}

	q := r.db.NewInsert().
		Model(dbGoal).
		On("CONFLICT (user_id) DO UPDATE").
		Set("is_activated = TRUE").
		Set("updated_at = NOW()")
	if hours != nil {
		q = q.Set("hours = EXCLUDED.hours")
	}

	_, err := q.Returning("*").Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to activate goal: %w", err)
	}

	return mapDBGoalToModel(dbGoal), nil
}

// Deactivate clears the activation flag, preserving hours.
func (r *Repository) Deactivate(ctx context.Context, userID uuid.UUID) (*Goal, error) {
	dbGoal := new(database.Goal)
	err := r.db.NewUpdate().
		Model(dbGoal).
		Set("is_activated = FALSE").
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to deactivate goal: %w", err)
	}

	return mapDBGoalToModel(dbGoal), nil
}

func mapDBGoalToModel(dbg *database.Goal) *Goal {
	return &Goal{
		ID:          dbg.ID,
		UserID:      dbg.UserID,
		IsActivated: dbg.IsActivated,
		Hours:       dbg.Hours,
		CreatedAt:   dbg.CreatedAt,
		UpdatedAt:   dbg.UpdatedAt,
	}
}
