package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdolrhman-mo/focusmetricapi/internal/auth"
	"github.com/abdolrhman-mo/focusmetricapi/internal/ratelimit"
)

type fakeStore struct {
	created []Feedback
}

func (f *fakeStore) Create(ctx context.Context, userID uuid.UUID, rating *int, text *string) (*Feedback, error) {
	fb := Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		Rating:    rating,
		Text:      text,
		CreatedAt: time.Now(),
	}
	f.created = append(f.created, fb)
	return &fb, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Feedback, error) {
	return f.created, nil
}

// newTestHandler wires an unreachable Redis so rate-limit checks fail
// open, which the handler treats as "not limited".
func newTestHandler(store Store) *Handler {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewHandler(store, ratelimit.NewLimiter(client))
}

func authedRequest(method, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, "/api/feedback", nil)
	} else {
		r = httptest.NewRequest(method, "/api/feedback", strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), auth.UserIDContextKey, uuid.New())
	return r.WithContext(ctx)
}

func TestCreateWithRatingOnly(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)
	w := httptest.NewRecorder()

	h.Create(w, authedRequest(http.MethodPost, `{"rating": 4}`))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].Rating)
	assert.Equal(t, 4, *store.created[0].Rating)
	assert.Nil(t, store.created[0].Text)
}

func TestCreateTrimsText(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)
	w := httptest.NewRecorder()

	h.Create(w, authedRequest(http.MethodPost, `{"text": "  love the streaks  "}`))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].Text)
	assert.Equal(t, "love the streaks", *store.created[0].Text)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: `{}`},
		{name: "whitespace-only text", body: `{"text": "   "}`},
		{name: "rating too low", body: `{"rating": 0}`},
		{name: "rating too high", body: `{"rating": 6}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			h := newTestHandler(store)
			w := httptest.NewRecorder()

			h.Create(w, authedRequest(http.MethodPost, tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.created)
		})
	}
}

func TestListReturnsOwnFeedback(t *testing.T) {
	store := &fakeStore{}
	rating := 5
	_, err := store.Create(context.Background(), uuid.New(), &rating, nil)
	require.NoError(t, err)

	h := newTestHandler(store)
	w := httptest.NewRecorder()

	h.List(w, authedRequest(http.MethodGet, ""))

	require.Equal(t, http.StatusOK, w.Code)

	var got []Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 5, *got[0].Rating)
}
