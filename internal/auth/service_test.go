package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdolrhman-mo/focusmetricapi/internal/goal"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/user"
)

type fakeUserRepo struct {
	byEmail map[string]*user.User
	byID    map[uuid.UUID]*user.User

	createErr   error
	createCalls int
	deleted     []uuid.UUID

	// emailMissesOnce makes the first GetByEmail report not-found even
	// when the row exists, simulating a row that lands mid-login.
	emailMissesOnce bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*user.User{},
		byID:    map[uuid.UUID]*user.User{},
	}
}

func (f *fakeUserRepo) add(u *user.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, email, firstName, lastName string) (*user.User, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := &user.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now(),
	}
	f.add(u)
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.emailMissesOnce {
		f.emailMissesOnce = false
		return nil, user.ErrNotFound
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.FirstName = firstName
	u.LastName = lastName
	return u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.byEmail, u.Email)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessionRepo struct {
	sessions   map[string]*Session
	revokedAll []uuid.UUID
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*Session{}}
}

func (f *fakeSessionRepo) Store(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error {
	f.sessions[token] = &Session{UserID: userID, Email: email, CreatedAt: time.Now()}
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, token string) (*Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) Revoke(ctx context.Context, token string) error {
	if _, ok := f.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	f.revokedAll = append(f.revokedAll, userID)
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

type fakeGoalSource struct {
	goals map[uuid.UUID]*goal.Goal
}

func (f *fakeGoalSource) GetByUserID(ctx context.Context, userID uuid.UUID) (*goal.Goal, error) {
	if f.goals == nil {
		return nil, goal.ErrNotFound
	}
	g, ok := f.goals[userID]
	if !ok {
		return nil, goal.ErrNotFound
	}
	return g, nil
}

type fakeVerifier struct {
	claims *GoogleClaims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, rawToken string) (*GoogleClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func newTestService(users *fakeUserRepo, sessions *fakeSessionRepo, goals *fakeGoalSource, verifier TokenVerifier) *Service {
	return NewService(users, sessions, goals, verifier, logging.NewLogger(true), time.Hour)
}

func TestGoogleLoginCreatesNewUser(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	verifier := &fakeVerifier{claims: &GoogleClaims{
		Subject:   "google-sub",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}}
	svc := newTestService(users, sessions, &fakeGoalSource{}, verifier)

	result, err := svc.GoogleLogin(context.Background(), "id-token")

	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, "Ada Lovelace", result.User.Name)
	assert.Nil(t, result.User.Goal)

	session, err := sessions.Get(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, session.UserID)
}

func TestGoogleLoginExistingUserSyncsNames(t *testing.T) {
	users := newFakeUserRepo()
	existing := &user.User{
		ID:        uuid.New(),
		Email:     "ada@example.com",
		FirstName: "A.",
		LastName:  "L.",
		CreatedAt: time.Now(),
	}
	users.add(existing)

	verifier := &fakeVerifier{claims: &GoogleClaims{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}}
	svc := newTestService(users, newFakeSessionRepo(), &fakeGoalSource{}, verifier)

	result, err := svc.GoogleLogin(context.Background(), "id-token")

	require.NoError(t, err)
	assert.False(t, result.IsNewUser)
	assert.Equal(t, existing.ID, result.User.ID)
	assert.Equal(t, "Ada", result.User.FirstName)
	assert.Equal(t, "Lovelace", result.User.LastName)
	assert.Equal(t, 0, users.createCalls)
}

func TestGoogleLoginDuplicateEmailRace(t *testing.T) {
	// Create loses the unique-index race; login falls back to the
	// winner's row instead of failing.
	users := newFakeUserRepo()
	users.createErr = user.ErrDuplicateEmail
	users.emailMissesOnce = true

	winner := &user.User{
		ID:        uuid.New(),
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		CreatedAt: time.Now(),
	}
	users.add(winner)

	verifier := &fakeVerifier{claims: &GoogleClaims{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}}
	svc := newTestService(users, newFakeSessionRepo(), &fakeGoalSource{}, verifier)

	result, err := svc.GoogleLogin(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, winner.ID, result.User.ID)
	assert.False(t, result.IsNewUser)
	assert.NotEmpty(t, result.Token)
}

func TestGoogleLoginInvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: ErrInvalidGoogleToken}
	svc := newTestService(newFakeUserRepo(), newFakeSessionRepo(), &fakeGoalSource{}, verifier)

	_, err := svc.GoogleLogin(context.Background(), "garbage")

	require.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestProfileEmbedsGoal(t *testing.T) {
	users := newFakeUserRepo()
	u := &user.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	users.add(u)

	goals := &fakeGoalSource{goals: map[uuid.UUID]*goal.Goal{
		u.ID: {UserID: u.ID, IsActivated: true, Hours: 4},
	}}
	svc := newTestService(users, newFakeSessionRepo(), goals, &fakeVerifier{})

	profile, err := svc.Profile(context.Background(), u.ID)

	require.NoError(t, err)
	require.NotNil(t, profile.Goal)
	assert.True(t, profile.Goal.IsActivated)
	assert.Equal(t, 4, profile.Goal.Hours)
}

func TestUpdateProfilePartial(t *testing.T) {
	users := newFakeUserRepo()
	u := &user.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	users.add(u)
	svc := newTestService(users, newFakeSessionRepo(), &fakeGoalSource{}, &fakeVerifier{})

	first := "Augusta"
	profile, err := svc.UpdateProfile(context.Background(), u.ID, &first, nil)

	require.NoError(t, err)
	assert.Equal(t, "Augusta", profile.FirstName)
	assert.Equal(t, "Lovelace", profile.LastName)
}

func TestLogoutIsIdempotent(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestService(newFakeUserRepo(), sessions, &fakeGoalSource{}, &fakeVerifier{})

	require.NoError(t, svc.Logout(context.Background(), "unknown-token"))

	sessions.sessions["known"] = &Session{UserID: uuid.New()}
	require.NoError(t, svc.Logout(context.Background(), "known"))
	require.NoError(t, svc.Logout(context.Background(), "known"))
	assert.Empty(t, sessions.sessions)
}

func TestDeleteAccountRevokesSessions(t *testing.T) {
	users := newFakeUserRepo()
	u := &user.User{ID: uuid.New(), Email: "ada@example.com"}
	users.add(u)

	sessions := newFakeSessionRepo()
	sessions.sessions["t1"] = &Session{UserID: u.ID}
	sessions.sessions["t2"] = &Session{UserID: u.ID}

	svc := newTestService(users, sessions, &fakeGoalSource{}, &fakeVerifier{})

	require.NoError(t, svc.DeleteAccount(context.Background(), u.ID))
	assert.Equal(t, []uuid.UUID{u.ID}, users.deleted)
	assert.Equal(t, []uuid.UUID{u.ID}, sessions.revokedAll)
	assert.Empty(t, sessions.sessions)
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeSessionRepo(), &fakeGoalSource{}, &fakeVerifier{})

	err := svc.DeleteAccount(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, errors.Is(err, user.ErrNotFound))
}
