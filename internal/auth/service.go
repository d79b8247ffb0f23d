package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdolrhman-mo/focusmetricapi/internal/goal"
	"github.com/abdolrhman-mo/focusmetricapi/internal/logging"
	"github.com/abdolrhman-mo/focusmetricapi/internal/user"
)

// UserRepository defines the user persistence surface the service needs.
type UserRepository interface {
	Create(ctx context.Context, email, firstName, lastName string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) (*user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GoalSource reads the caller's goal for embedding in the profile.
type GoalSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*goal.Goal, error)
}

// Profile is the user representation returned by profile endpoints.
type Profile struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Name       string     `json:"name"`
	DateJoined time.Time  `json:"date_joined"`
	Goal       *goal.Goal `json:"goal"`
}

// LoginResult is what a successful Google login yields.
type LoginResult struct {
	Token     string   `json:"token"`
	User      *Profile `json:"user"`
	IsNewUser bool     `json:"is_new_user"`
}

// Service handles authentication business logic
type Service struct {
	users           UserRepository
	sessions        SessionRepository
	goals           GoalSource
	verifier        TokenVerifier
	logger          *logging.Logger
	sessionDuration time.Duration
}

func NewService(
	users UserRepository,
	sessions SessionRepository,
	goals GoalSource,
	verifier TokenVerifier,
	logger *logging.Logger,
	sessionDuration time.Duration,
) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		goals:           goals,
		verifier:        verifier,
		logger:          logger,
		sessionDuration: sessionDuration,
	}
}

// GoogleLogin verifies a Google ID token, provisions the user on first
// sight, and issues an opaque session token.
func (s *Service) GoogleLogin(ctx context.Context, rawToken string) (*LoginResult, error) {
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, claims.Email)
	isNewUser := false

	switch {
	case err == nil:
		// Keep names in sync with what Google reports.
		if existing.FirstName != claims.FirstName || existing.LastName != claims.LastName {
			existing, err = s.users.UpdateNames(ctx, existing.ID, claims.FirstName, claims.LastName)
			if err != nil {
				return nil, fmt.Errorf("failed to sync user names: %w", err)
			}
		}
	case errors.Is(err, user.ErrNotFound):
		existing, err = s.users.Create(ctx, claims.Email, claims.FirstName, claims.LastName)
		if err != nil {
			// Concurrent first logins race on the email unique index; the
			// loser picks up the winner's row.
			if errors.Is(err, user.ErrDuplicateEmail) {
				existing, err = s.users.GetByEmail(ctx, claims.Email)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
		} else {
			isNewUser = true
			s.logger.Info("created new user", "email", claims.Email)
		}
	default:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	if err := s.sessions.Store(ctx, existing.ID, existing.Email, token, s.sessionDuration); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	profile, err := s.buildProfile(ctx, existing)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		User:      profile,
		IsNewUser: isNewUser,
	}, nil
}

// Profile returns the caller's profile with the goal embedded.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, u)
}

// UpdateProfile sets the name fields. Nil means "keep current", which is
// how PATCH semantics reach the service.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	newFirst := u.FirstName
	newLast := u.LastName
	if firstName != nil {
		newFirst = *firstName
	}
	if lastName != nil {
		newLast = *lastName
	}

	updated, err := s.users.UpdateNames(ctx, userID, newFirst, newLast)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, updated)
}

// Logout revokes the presented session token. Revoking an unknown token
// is a success: logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.sessions.Revoke(ctx, token)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// DeleteAccount removes the user (all owned data cascades) and revokes
// every session they hold.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.sessions.RevokeAllUserSessions(ctx, userID); err != nil {
		// The account is gone; orphaned sessions will fail lookup anyway.
		s.logger.Warn("failed to revoke sessions after account deletion", "user_id", userID, "error", err)
	}

	return nil
}

func (s *Service) buildProfile(ctx context.Context, u *user.User) (*Profile, error) {
	profile := &Profile{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Name:       u.FullName(),
		DateJoined: u.CreatedAt,
	}

	g, err := s.goals.GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		profile.Goal = g
	case errors.Is(err, goal.ErrNotFound):
		// Goal stays null until the user sets one.
	default:
		return nil, fmt.Errorf("failed to get goal for profile: %w", err)
	}

	return profile, nil
}
