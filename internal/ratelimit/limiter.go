package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipLimit    = 10
	ipWindow   = 15 * time.Minute
	emailCool  = 2 * time.Minute
	keyVersion = "v1"
)

// Limiter enforces per-IP request limits and per-email cooldowns using
// Redis counters with TTLs
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:ip:%s:%s", keyVersion, purpose, ip)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:%s:email:%s", keyVersion, email)
}

// CheckIPRateLimit reports whether the IP is over its request budget
// for the given purpose (10 requests per 15 minutes)
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	val, err := l.client.Get(ctx, ipKey(ip, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("failed to parse rate limit counter: %w", err)
	}

	return count >= ipLimit, nil
}

// RecordIPRequest increments the IP counter, starting the window on first use
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ipWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

// CheckEmailCooldown reports whether the email asked for a reset too recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the per-email cooldown window
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	err := l.client.Set(ctx, emailKey(email), "1", emailCool).Err()
	if err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
