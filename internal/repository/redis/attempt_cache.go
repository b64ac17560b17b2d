package redis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/util"
)

const (
	loginAttemptPrefix = "login_attempts:"
	loginLockPrefix    = "login_lock:"
)

// AttemptCache tracks failed PIN attempts with atomic counters so concurrent
// logins cannot lose increments, and holds the lockout flag with its TTL.
type AttemptCache struct {
	client *client.RedisClient
}

func NewAttemptCache(client *client.RedisClient) *AttemptCache {
	return &AttemptCache{client: client}
}

// IncrementAttempts bumps the failure counter atomically and returns the new
// count. The counter window resets when the lockout duration elapses.
func (c *AttemptCache) IncrementAttempts(ctx context.Context, nationalID string, window time.Duration) (int, error) {
	key := loginAttemptPrefix + nationalID

	count, err := c.client.IncrWithExpire(ctx, key, window)
	if err != nil {
		util.Error("Failed to increment login attempts",
			zap.Error(err))
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}

	return int(count), nil
}

func (c *AttemptCache) ResetAttempts(ctx context.Context, nationalID string) error {
	if err := c.client.Del(ctx, loginAttemptPrefix+nationalID, loginLockPrefix+nationalID); err != nil {
		util.Error("Failed to reset login attempts", zap.Error(err))
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// SetLock marks the account locked for the given duration
func (c *AttemptCache) SetLock(ctx context.Context, nationalID string, duration time.Duration) error {
	key := loginLockPrefix + nationalID

	if err := c.client.Set(ctx, key, time.Now().UTC().Add(duration).Format(time.RFC3339), duration); err != nil {
		util.Error("Failed to set login lock", zap.Error(err))
		return fmt.Errorf("failed to set login lock: %w", err)
	}

	util.Info("Account locked after repeated failures",
		zap.Duration("duration", duration))
	return nil
}

// GetLockRemaining returns how long the lock still holds, zero when unlocked
func (c *AttemptCache) GetLockRemaining(ctx context.Context, nationalID string) (time.Duration, error) {
	key := loginLockPrefix + nationalID

	ttl, err := c.client.TTL(ctx, key)
	if err != nil {
		util.Error("Failed to check login lock", zap.Error(err))
		return 0, fmt.Errorf("failed to check login lock: %w", err)
	}

	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}
