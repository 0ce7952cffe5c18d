package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrResetTicketNotFound is returned when a ticket is unknown, expired,
// or already redeemed
var ErrResetTicketNotFound = errors.New("reset ticket not found")

// TicketRepository stores one-time reset tickets in Redis. The TTL bounds
// how long a verified code authorizes a password change; redemption
// removes the key, so a ticket works exactly once.
type TicketRepository struct {
	client *redis.Client
}

func NewTicketRepository(client *redis.Client) *TicketRepository {
	return &TicketRepository{client: client}
}

func ticketKey(ticket string) string {
	return fmt.Sprintf("reset_ticket:%s", hashToken(ticket))
}

// Store saves the ticket -> user binding with the given TTL
func (r *TicketRepository) Store(ctx context.Context, ticket string, userID uuid.UUID, ttl time.Duration) error {
	err := r.client.Set(ctx, ticketKey(ticket), userID.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store reset ticket: %w", err)
	}
	return nil
}

// Redeem returns the bound user and deletes the ticket in one round trip
func (r *TicketRepository) Redeem(ctx context.Context, ticket string) (uuid.UUID, error) {
	userIDStr, err := r.client.GetDel(ctx, ticketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTicketNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to redeem reset ticket: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	return userID, nil
}
