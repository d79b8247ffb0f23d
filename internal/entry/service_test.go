package entry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	lastFilter Filter
	lastDates  []time.Time
	lastIDs    []uuid.UUID
	lastHours  *float64
	lastReason ReasonRef

	listResult       []Entry
	listCount        int
	bulkDeleteResult *BulkDeleteResult
}

func (f *fakeStore) List(ctx context.Context, userID uuid.UUID, filter Filter) ([]Entry, int, error) {
	f.lastFilter = filter
	return f.listResult, f.listCount, nil
}

func (f *fakeStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*Entry, error) {
	return &Entry{ID: id, UserID: userID}, nil
}

func (f *fakeStore) Create(ctx context.Context, userID uuid.UUID, date time.Time, hours *float64, reason ReasonRef) (*Entry, error) {
	f.lastHours = hours
	f.lastReason = reason
	return &Entry{ID: uuid.New(), UserID: userID, Date: date.Format(DateFormat), Hours: hours}, nil
}

func (f *fakeStore) Update(ctx context.Context, userID, id uuid.UUID, hours *float64, reason ReasonRef) (*Entry, error) {
	f.lastHours = hours
	f.lastReason = reason
	return &Entry{ID: id, UserID: userID, Hours: hours}, nil
}

func (f *fakeStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func (f *fakeStore) BulkUpsert(ctx context.Context, userID uuid.UUID, dates []time.Time, hours *float64, reason ReasonRef) (*BulkUpsertResult, error) {
	f.lastDates = dates
	f.lastHours = hours
	f.lastReason = reason
	return &BulkUpsertResult{CreatedCount: len(dates), Entries: []Entry{}}, nil
}

func (f *fakeStore) BulkDelete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, dates []time.Time) (*BulkDeleteResult, error) {
	f.lastIDs = ids
	f.lastDates = dates
	if f.bulkDeleteResult != nil {
		return f.bulkDeleteResult, nil
	}
	return &BulkDeleteResult{DeletedIDs: []uuid.UUID{}, NotFound: []string{}}, nil
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)
}

func TestCreateValidation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name      string
		params    CreateParams
		wantField string
	}{
		{
			name:      "missing date",
			params:    CreateParams{Hours: floatPtr(2)},
			wantField: "date",
		},
		{
			name:      "malformed date",
			params:    CreateParams{Date: "23-08-2026"},
			wantField: "date",
		},
		{
			name:      "negative hours",
			params:    CreateParams{Date: "2026-08-23", Hours: floatPtr(-1)},
			wantField: "hours",
		},
		{
			name: "reason id and text together",
			params: CreateParams{
				Date:       "2026-08-23",
				ReasonID:   strPtr(uuid.NewString()),
				ReasonText: strPtr("meetings"),
			},
			wantField: "reason_id",
		},
		{
			name:      "reason id not a uuid",
			params:    CreateParams{Date: "2026-08-23", ReasonID: strPtr("nope")},
			wantField: "reason_id",
		},
		{
			name:      "blank reason text",
			params:    CreateParams{Date: "2026-08-23", ReasonText: strPtr("   ")},
			wantField: "reason_text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, userID, tt.params)
			requireFieldError(t, err, tt.wantField)
		})
	}
}

func TestCreateAcceptsZeroHoursAndNoReason(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	created, err := svc.Create(context.Background(), uuid.New(), CreateParams{
		Date:  "2026-08-23",
		Hours: floatPtr(0),
	})

	require.NoError(t, err)
	assert.Equal(t, "2026-08-23", created.Date)
	assert.True(t, store.lastReason.IsZero())
}

func TestCreateTrimsReasonText(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), uuid.New(), CreateParams{
		Date:       "2026-08-23",
		ReasonText: strPtr("  meetings  "),
	})

	require.NoError(t, err)
	require.NotNil(t, store.lastReason.Text)
	assert.Equal(t, "meetings", *store.lastReason.Text)
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	svc := NewService(&fakeStore{})

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateParams{})
	requireFieldError(t, err, "hours")
}

func TestListPagination(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", params: ListParams{}, wantLimit: 31, wantOffset: 0},
		{name: "second page", params: ListParams{Page: 2, PageSize: 10}, wantLimit: 10, wantOffset: 10},
		{name: "page size capped", params: ListParams{PageSize: 500}, wantLimit: 100, wantOffset: 0},
		{name: "negative page clamped", params: ListParams{Page: -3}, wantLimit: 31, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{listResult: []Entry{}}
			svc := NewService(store)

			_, _, err := svc.List(context.Background(), uuid.New(), tt.params)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, store.lastFilter.Limit)
			assert.Equal(t, tt.wantOffset, store.lastFilter.Offset)
		})
	}
}

func TestListValidation(t *testing.T) {
	svc := NewService(&fakeStore{})
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name      string
		params    ListParams
		wantField string
	}{
		{name: "bad start date", params: ListParams{StartDate: "soon"}, wantField: "start_date"},
		{name: "bad reason id", params: ListParams{ReasonID: "xyz"}, wantField: "reason_id"},
		{name: "negative min hours", params: ListParams{MinHours: floatPtr(-1)}, wantField: "min_hours"},
		{name: "unknown ordering", params: ListParams{Ordering: "created_at"}, wantField: "ordering"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.List(ctx, userID, tt.params)
			requireFieldError(t, err, tt.wantField)
		})
	}
}

func TestListDefaultsToNewestFirst(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	_, _, err := svc.List(context.Background(), uuid.New(), ListParams{})

	require.NoError(t, err)
	assert.Equal(t, "-date", store.lastFilter.Ordering)
}

func TestBulkUpsertLimitsAndDedup(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty dates rejected", func(t *testing.T) {
		_, err := svc.BulkUpsert(ctx, userID, BulkUpsertParams{Hours: floatPtr(1)})
		requireFieldError(t, err, "dates")
	})

	t.Run("too many dates rejected", func(t *testing.T) {
		dates := make([]string, MaxBulkDates+1)
		for i := range dates {
			dates[i] = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(DateFormat)
		}
		_, err := svc.BulkUpsert(ctx, userID, BulkUpsertParams{Dates: dates, Hours: floatPtr(1)})
		requireFieldError(t, err, "dates")
	})

	t.Run("requires hours or reason", func(t *testing.T) {
		_, err := svc.BulkUpsert(ctx, userID, BulkUpsertParams{Dates: []string{"2026-08-23"}})
		requireFieldError(t, err, "hours")
	})

	t.Run("duplicate dates collapse", func(t *testing.T) {
		_, err := svc.BulkUpsert(ctx, userID, BulkUpsertParams{
			Dates: []string{"2026-08-23", "2026-08-22", "2026-08-23"},
			Hours: floatPtr(2),
		})
		require.NoError(t, err)
		require.Len(t, store.lastDates, 2)
		assert.Equal(t, "2026-08-23", store.lastDates[0].Format(DateFormat))
		assert.Equal(t, "2026-08-22", store.lastDates[1].Format(DateFormat))
	})
}

func TestBulkDeleteValidation(t *testing.T) {
	svc := NewService(&fakeStore{})
	ctx := context.Background()
	userID := uuid.New()

	t.Run("requires ids or dates", func(t *testing.T) {
		_, err := svc.BulkDelete(ctx, userID, BulkDeleteParams{})
		requireFieldError(t, err, "ids")
	})

	t.Run("bad uuid rejected", func(t *testing.T) {
		_, err := svc.BulkDelete(ctx, userID, BulkDeleteParams{IDs: []string{"not-a-uuid"}})
		requireFieldError(t, err, "ids")
	})

	t.Run("too many ids rejected", func(t *testing.T) {
		ids := make([]string, MaxBulkIDs+1)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
		_, err := svc.BulkDelete(ctx, userID, BulkDeleteParams{IDs: ids})
		requireFieldError(t, err, "ids")
	})
}

func TestBulkDeleteDeduplicatesIDs(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	id := uuid.New()
	_, err := svc.BulkDelete(context.Background(), uuid.New(), BulkDeleteParams{
		IDs: []string{id.String(), id.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, store.lastIDs)
}

func TestBulkDeleteReportsNotFound(t *testing.T) {
	missing := uuid.New()
	store := &fakeStore{
		bulkDeleteResult: &BulkDeleteResult{
			DeletedCount: 1,
			DeletedIDs:   []uuid.UUID{uuid.New()},
			NotFound:     []string{missing.String()},
		},
	}
	svc := NewService(store)

	result, err := svc.BulkDelete(context.Background(), uuid.New(), BulkDeleteParams{
		IDs: []string{uuid.NewString(), missing.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, []string{missing.String()}, result.NotFound)
}
