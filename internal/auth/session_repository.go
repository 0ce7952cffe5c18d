package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown, expired, or revoked refresh tokens
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository keeps refresh tokens in Redis. Each token lives under
// its hash with a TTL matching its expiry; a per-user set tracks tokens so
// a password reset can revoke them all.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(tokenHash string) string {
	return fmt.Sprintf("session:%s", tokenHash)
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID.String())
}

// Store saves a refresh token with a TTL derived from its expiry
func (r *SessionRepository) Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session expiration time is in the past")
	}

	tokenHash := hashToken(token)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, sessionKey(tokenHash), userID.String(), ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), tokenHash)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Lookup resolves a refresh token to its user. Expired tokens have already
// been dropped by Redis and read as not found.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, sessionKey(hashToken(token))).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up session: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	return userID, nil
}

// Revoke deletes a single refresh token
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	userIDStr, err := r.client.Get(ctx, sessionKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	if userID, parseErr := uuid.Parse(userIDStr); parseErr == nil {
		pipe.SRem(ctx, userSessionsKey(userID), tokenHash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser deletes every refresh token of a user
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	tokenHashes, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	if len(tokenHashes) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, tokenHash := range tokenHashes {
		pipe.Del(ctx, sessionKey(tokenHash))
	}
	pipe.Del(ctx, userSessionsKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	return nil
}
