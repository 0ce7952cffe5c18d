package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stocktrack/internal/user"
)

// UserStore is the slice of the user repository the auth service needs
type UserStore interface {
	Create(ctx context.Context, acc user.NewAccount) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ResetCodeStore persists emailed reset codes
type ResetCodeStore interface {
	Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*ResetCode, error)
	FindByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*ResetCode, error)
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// TicketStore holds the short-lived one-time tickets a successful code
// verification issues to authorize exactly one password change
type TicketStore interface {
	Store(ctx context.Context, ticket string, userID uuid.UUID, ttl time.Duration) error
	Redeem(ctx context.Context, ticket string) (uuid.UUID, error)
}

// SessionStore holds refresh tokens
type SessionStore interface {
	Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// EmailSender dispatches reset codes to users
type EmailSender interface {
	SendResetCode(ctx context.Context, toEmail, username, code string) error
}

// RateLimiter is the slice of the rate limiter the auth handlers use
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}
