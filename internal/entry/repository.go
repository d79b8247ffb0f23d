package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/abdolrhman-mo/focusmetricapi/internal/database"
)

var (
	ErrNotFound       = errors.New("entry not found")
	ErrDuplicateDate  = errors.New("an entry already exists for this date")
	ErrReasonNotFound = errors.New("reason not found")
)

// Repository handles focus entry persistence. Every write that touches
// more than one row (or resolves a reason on the way) runs in a single
// transaction.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

var orderings = map[string]string{
	"date":   "fe.date ASC",
	"-date":  "fe.date DESC",
	"hours":  "fe.hours ASC NULLS LAST",
	"-hours": "fe.hours DESC NULLS LAST",
}

// List returns a filtered page of the user's entries plus the total
// count of matches.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Entry, int, error) {
	var dbEntries []database.FocusEntry

	q := r.db.NewSelect().
		Model(&dbEntries).
		Relation("Reason").
		Where("fe.user_id = ?", userID)

	if f.StartDate != nil {
		q = q.Where("fe.date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("fe.date <= ?", *f.EndDate)
	}
	if f.ReasonID != nil {
		q = q.Where("fe.reason_id = ?", *f.ReasonID)
	}
	if f.MinHours != nil {
		q = q.Where("fe.hours >= ?", *f.MinHours)
	}
	if f.MaxHours != nil {
		q = q.Where("fe.hours <= ?", *f.MaxHours)
	}

	orderExpr, ok := orderings[f.Ordering]
	if !ok {
		orderExpr = orderings["-date"]
	}

	count, err := q.
		OrderExpr(orderExpr).
		Limit(f.Limit).
		Offset(f.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]Entry, 0, len(dbEntries))
	for i := range dbEntries {
		entries = append(entries, mapDBEntryToModel(&dbEntries[i]))
	}
	return entries, count, nil
}

// GetByID retrieves an owned entry.
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Entry, error) {
	dbEntry := new(database.FocusEntry)
	err := r.db.NewSelect().
		Model(dbEntry).
		Relation("Reason").
		Where("fe.id = ?", id).
		Where("fe.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	e := mapDBEntryToModel(dbEntry)
	return &e, nil
}

// Create inserts a new entry, resolving the reason reference in the same
// transaction so a failed insert never leaves a stray reason behind.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, date time.Time, hours *float64, reason ReasonRef) (*Entry, error) {
	var created Entry

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reasonID, reasonText, err := resolveReason(ctx, tx, userID, reason)
		if err != nil {
			return err
		}

		dbEntry := &database.FocusEntry{
			UserID:   userID,
			Date:     date,
			Hours:    hours,
			ReasonID: reasonID,
		}

		_, err = tx.NewInsert().
			Model(dbEntry).
			Returning("*").
			Exec(ctx)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				return ErrDuplicateDate
			}
			return fmt.Errorf("failed to create entry: %w", err)
		}

		created = mapDBEntryToModel(dbEntry)
		created.ReasonText = reasonText
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Update modifies hours and/or reason of an owned entry. The date is
// immutable; nil hours leaves hours untouched.
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, hours *float64, reason ReasonRef) (*Entry, error) {
	var updated Entry

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reasonID, reasonText, err := resolveReason(ctx, tx, userID, reason)
		if err != nil {
			return err
		}

		dbEntry := new(database.FocusEntry)
		q := tx.NewUpdate().
			Model(dbEntry).
			Where("id = ?", id).
			Where("user_id = ?", userID)

		if hours != nil {
			q = q.Set("hours = ?", *hours)
		}
		if !reason.IsZero() {
			q = q.Set("reason_id = ?", reasonID)
		}

		err = q.Returning("*").Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to update entry: %w", err)
		}

		updated = mapDBEntryToModel(dbEntry)
		if reasonText != nil {
			updated.ReasonText = reasonText
		} else if updated.ReasonID != nil {
			updated.ReasonText, err = reasonDescription(ctx, tx, *updated.ReasonID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes an owned entry.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.FocusEntry)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// BulkUpsert writes one entry per date with the shared hours/reason,
// atomically. Existing entries for a date are updated, missing ones
// created; any failure rolls the whole batch back.
func (r *Repository) BulkUpsert(ctx context.Context, userID uuid.UUID, dates []time.Time, hours *float64, reason ReasonRef) (*BulkUpsertResult, error) {
	result := &BulkUpsertResult{Entries: []Entry{}}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reasonID, _, err := resolveReason(ctx, tx, userID, reason)
		if err != nil {
			return err
		}

		for _, date := range dates {
			q := tx.NewUpdate().
				Model((*database.FocusEntry)(nil)).
				Where("user_id = ?", userID).
				Where("date = ?", date)
			if hours != nil {
				q = q.Set("hours = ?", *hours)
			}
			if !reason.IsZero() {
				q = q.Set("reason_id = ?", reasonID)
			}

			res, err := q.Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to update entry for %s: %w", date.Format(DateFormat), err)
			}

			rowsAffected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}

			if rowsAffected > 0 {
				result.UpdatedCount++
				continue
			}

			dbEntry := &database.FocusEntry{
				UserID:   userID,
				Date:     date,
				Hours:    hours,
				ReasonID: reasonID,
			}
			if _, err := tx.NewInsert().Model(dbEntry).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create entry for %s: %w", date.Format(DateFormat), err)
			}
			result.CreatedCount++
		}

		var dbEntries []database.FocusEntry
		err = tx.NewSelect().
			Model(&dbEntries).
			Relation("Reason").
			Where("fe.user_id = ?", userID).
			Where("fe.date IN (?)", bun.In(dates)).
			OrderExpr("fe.date ASC").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to load upserted entries: %w", err)
		}

		for i := range dbEntries {
			result.Entries = append(result.Entries, mapDBEntryToModel(&dbEntries[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// BulkDelete removes the union of owned entries matched by id or by
// date. Non-matching keys are reported, not fatal; actual write failures
// roll everything back.
func (r *Repository) BulkDelete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, dates []time.Time) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{DeletedIDs: []uuid.UUID{}, NotFound: []string{}}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		matched := make(map[uuid.UUID]struct{})

		if len(ids) > 0 {
			var found []database.FocusEntry
			err := tx.NewSelect().
				Model(&found).
				Column("fe.id").
				Where("fe.user_id = ?", userID).
				Where("fe.id IN (?)", bun.In(ids)).
				Scan(ctx)
			if err != nil {
				return fmt.Errorf("failed to match entry ids: %w", err)
			}

			foundIDs := make(map[uuid.UUID]struct{}, len(found))
			for _, e := range found {
				foundIDs[e.ID] = struct{}{}
				matched[e.ID] = struct{}{}
			}
			for _, id := range ids {
				if _, ok := foundIDs[id]; !ok {
					result.NotFound = append(result.NotFound, id.String())
				}
			}
		}

		if len(dates) > 0 {
			var found []database.FocusEntry
			err := tx.NewSelect().
				Model(&found).
				Column("fe.id", "fe.date").
				Where("fe.user_id = ?", userID).
				Where("fe.date IN (?)", bun.In(dates)).
				Scan(ctx)
			if err != nil {
				return fmt.Errorf("failed to match entry dates: %w", err)
			}

			foundDates := make(map[string]struct{}, len(found))
			for _, e := range found {
				foundDates[e.Date.Format(DateFormat)] = struct{}{}
				matched[e.ID] = struct{}{}
			}
			for _, date := range dates {
				if _, ok := foundDates[date.Format(DateFormat)]; !ok {
					result.NotFound = append(result.NotFound, date.Format(DateFormat))
				}
			}
		}

		if len(matched) == 0 {
			return nil
		}

		deleteIDs := make([]uuid.UUID, 0, len(matched))
		for id := range matched {
			deleteIDs = append(deleteIDs, id)
		}

		res, err := tx.NewDelete().
			Model((*database.FocusEntry)(nil)).
			Where("user_id = ?", userID).
			Where("id IN (?)", bun.In(deleteIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to bulk delete entries: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		result.DeletedCount = int(rowsAffected)
		result.DeletedIDs = deleteIDs
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveReason turns a ReasonRef into a reason id within the current
// transaction. A text reference is deduplicated against the user's
// existing reasons by exact description.
func resolveReason(ctx context.Context, tx bun.Tx, userID uuid.UUID, ref ReasonRef) (*uuid.UUID, *string, error) {
	switch {
	case ref.ID != nil:
		dbReason := new(database.Reason)
		err := tx.NewSelect().
			Model(dbReason).
			Where("r.id = ?", *ref.ID).
			Where("r.user_id = ?", userID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, ErrReasonNotFound
			}
			return nil, nil, fmt.Errorf("failed to get reason: %w", err)
		}
		return &dbReason.ID, &dbReason.Description, nil

	case ref.Text != nil:
		dbReason := new(database.Reason)
		err := tx.NewSelect().
			Model(dbReason).
			Where("r.user_id = ?", userID).
			Where("r.description = ?", *ref.Text).
			Limit(1).
			Scan(ctx)
		if err == nil {
			return &dbReason.ID, &dbReason.Description, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("failed to look up reason by text: %w", err)
		}

		dbReason = &database.Reason{
			UserID:      userID,
			Description: *ref.Text,
		}
		if _, err := tx.NewInsert().Model(dbReason).Returning("*").Exec(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to create reason from text: %w", err)
		}
		return &dbReason.ID, &dbReason.Description, nil

	default:
		return nil, nil, nil
	}
}

func reasonDescription(ctx context.Context, tx bun.Tx, reasonID uuid.UUID) (*string, error) {
	dbReason := new(database.Reason)
	err := tx.NewSelect().
		Model(dbReason).
		Column("r.description").
		Where("r.id = ?", reasonID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reason description: %w", err)
	}
	return &dbReason.Description, nil
}

func mapDBEntryToModel(dbe *database.FocusEntry) Entry {
	e := Entry{
		ID:       dbe.ID,
		UserID:   dbe.UserID,
		Date:     dbe.Date.Format(DateFormat),
		Hours:    dbe.Hours,
		ReasonID: dbe.ReasonID,
	}
	if dbe.Reason != nil {
		e.ReasonText = &dbe.Reason.Description
	}
	return e
}
