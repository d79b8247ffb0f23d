package reason

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
)

type fakeStore struct {
	reasons   map[uuid.UUID]*Reason
	deleteErr error

	created *Reason
}

func newFakeStore() *fakeStore {
	return &fakeStore{reasons: map[uuid.UUID]*Reason{}}
}

func (f *fakeStore) List(ctx context.Context, userID uuid.UUID) ([]ListItem, error) {
	items := make([]ListItem, 0, len(f.reasons))
	for _, r := range f.reasons {
		items = append(items, ListItem{ID: r.ID, Description: r.Description, CreatedAt: r.CreatedAt})
	}
	return items, nil
}

func (f *fakeStore) GetDetail(ctx context.Context, userID, id uuid.UUID) (*Detail, error) {
	r, ok := f.reasons[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Detail{ID: r.ID, Description: r.Description, CreatedAt: r.CreatedAt, RecentEntries: []RecentEntry{}}, nil
}

func (f *fakeStore) Create(ctx context.Context, userID uuid.UUID, description string) (*Reason, error) {
	r := &Reason{ID: uuid.New(), UserID: userID, Description: description}
	f.reasons[r.ID] = r
	f.created = r
	return r, nil
}

func (f *fakeStore) Update(ctx context.Context, userID, id uuid.UUID, description string) (*Reason, error) {
	r, ok := f.reasons[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Description = description
	return r, nil
}

func (f *fakeStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.reasons[id]; !ok {
		return ErrNotFound
	}
	delete(f.reasons, id)
	return nil
}

func requestWithID(method, target, body, id string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	ctx := context.WithValue(r.Context(), auth.UserIDContextKey, uuid.New())
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func TestCreateTrimsDescription(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store)
	w := httptest.NewRecorder()

	h.Create(w, requestWithID(http.MethodPost, "/api/reasons", `{"description": "  meetings  "}`, ""))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "meetings", store.created.Description)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "empty", body: `{"description": ""}`, wantMsg: "Description cannot be empty."},
		{name: "whitespace only", body: `{"description": "   "}`, wantMsg: "Description cannot be empty."},
		{name: "too long", body: `{"description": "` + strings.Repeat("x", 501) + `"}`, wantMsg: "Description cannot exceed 500 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(newFakeStore())
			w := httptest.NewRecorder()

			h.Create(w, requestWithID(http.MethodPost, "/api/reasons", tt.body, ""))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestGetUnknownIDIs404(t *testing.T) {
	h := NewHandler(newFakeStore())
	w := httptest.NewRecorder()

	h.Get(w, requestWithID(http.MethodGet, "/api/reasons/x", "", uuid.NewString()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMalformedIDIs404(t *testing.T) {
	// A non-UUID path segment is treated the same as an unknown reason.
	h := NewHandler(newFakeStore())
	w := httptest.NewRecorder()

	h.Get(w, requestWithID(http.MethodGet, "/api/reasons/x", "", "not-a-uuid"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUnused(t *testing.T) {
	store := newFakeStore()
	r, err := store.Create(context.Background(), uuid.New(), "meetings")
	require.NoError(t, err)

	h := NewHandler(store)
	w := httptest.NewRecorder()

	h.Delete(w, requestWithID(http.MethodDelete, "/api/reasons/x", "", r.ID.String()))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.reasons)
}

func TestDeleteInUse(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = &InUseError{Description: "meetings", UsageCount: 3}

	h := NewHandler(store)
	w := httptest.NewRecorder()

	h.Delete(w, requestWithID(http.MethodDelete, "/api/reasons/x", "", uuid.NewString()))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp InUseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.UsageCount)
	assert.Equal(t, "Cannot delete reason 'meetings' because it is used in 3 focus entries. Please remove it from all entries first.", resp.Error)
}
