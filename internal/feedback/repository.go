package feedback

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
)

// Repository handles feedback persistence. Records are append-only:
// there is no update or delete.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a feedback record.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, rating *int, text *string) (*Feedback, error) {
	dbFeedback := &database.Feedback{
		UserID: userID,
		Rating: rating,
		Text:   text,
	}

	_, err := r.db.NewInsert().
		Model(dbFeedback).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return mapDBFeedbackToModel(dbFeedback), nil
}

// ListByUser returns the user's feedback, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Feedback, error) {
	var dbRecords []database.Feedback

	err := r.db.NewSelect().
		Model(&dbRecords).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	records := make([]Feedback, 0, len(dbRecords))
	for i := range dbRecords {
		records = append(records, *mapDBFeedbackToModel(&dbRecords[i]))
	}
	return records, nil
}

func mapDBFeedbackToModel(dbf *database.Feedback) *Feedback {
	return &Feedback{
		ID:        dbf.ID,
		UserID:    dbf.UserID,
		Rating:    dbf.Rating,
		Text:      dbf.Text,
		CreatedAt: dbf.CreatedAt,
	}
}
