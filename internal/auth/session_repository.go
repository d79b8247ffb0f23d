package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state behind an opaque bearer token.
type Session struct {
	UserID    uuid.UUID
	Email     string
	CreatedAt time.Time
}

// SessionRepository defines the interface for session token storage
type SessionRepository interface {
	Store(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// RedisSessionRepository stores sessions in Redis, keyed by the SHA-256
// of the token. TTL handles expiry; no cleanup job is needed.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(tokenHash string) string {
	return fmt.Sprintf("session:%s", tokenHash)
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID.String())
}

// Store persists a session hash with TTL and tracks it in the user's
// session set so all of a user's tokens can be revoked at once.
func (r *RedisSessionRepository) Store(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	tokenHash := hashToken(token)
	key := sessionKey(tokenHash)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":    userID.String(),
		"email":      email,
		"created_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), tokenHash)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Get resolves a presented token to its session.
func (r *RedisSessionRepository) Get(ctx context.Context, token string) (*Session, error) {
	key := sessionKey(hashToken(token))

	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, ErrSessionNotFound
	}

	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	return &Session{
		UserID:    userID,
		Email:     data["email"],
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// Revoke deletes a session. Missing sessions return ErrSessionNotFound
// so callers can decide whether that matters (logout treats it as success).
func (r *RedisSessionRepository) Revoke(ctx context.Context, token string) error {
	tokenHash := hashToken(token)
	key := sessionKey(tokenHash)

	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get session for revocation: %w", err)
	}
	if len(data) == 0 {
		return ErrSessionNotFound
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	if userID, parseErr := uuid.Parse(data["user_id"]); parseErr == nil {
		pipe.SRem(ctx, userSessionsKey(userID), tokenHash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllUserSessions deletes every session of a user, used when the
// account itself is deleted.
func (r *RedisSessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	setKey := userSessionsKey(userID)

	tokenHashes, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := r.client.Pipeline()
	for _, tokenHash := range tokenHashes {
		pipe.Del(ctx, sessionKey(tokenHash))
	}
	pipe.Del(ctx, setKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	return nil
}
