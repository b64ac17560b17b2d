package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

type resetRepository struct {
	client *ScyllaClient
	ttl    time.Duration
}

func NewResetRepository(client *ScyllaClient, ttl time.Duration) ResetRepository {
	return &resetRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *resetRepository) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	now := time.Now().UTC()
	reset.CreatedAt = now
	reset.ExpiresAt = now.Add(r.ttl)

	ttlSeconds := int(r.ttl.Seconds()) + 60

	query := r.client.Prepared.CreateReset.Bind(
		reset.AuthID, reset.CreatedAt, reset.ID,
		reset.TempHash, reset.TempSalt, reset.HashAlgorithm,
		reset.IsUsed, reset.ExpiresAt, ttlSeconds,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create password reset",
			zap.String("auth_id", reset.AuthID),
			zap.Error(err))
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	return nil
}

func (r *resetRepository) GetActiveReset(ctx context.Context, authID string) (*models.PasswordReset, error) {
	reset := &models.PasswordReset{}

	query := r.client.Prepared.GetActiveReset.Bind(authID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&reset.AuthID, &reset.CreatedAt, &reset.ID,
		&reset.TempHash, &reset.TempSalt, &reset.HashAlgorithm,
		&reset.IsUsed, &reset.ExpiresAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get password reset",
			zap.String("auth_id", authID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	return reset, nil
}

func (r *resetRepository) MarkUsed(ctx context.Context, reset *models.PasswordReset) error {
	query := r.client.Prepared.MarkResetUsed.Bind(
		reset.AuthID, reset.CreatedAt, reset.ID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to mark password reset used",
			zap.String("auth_id", reset.AuthID),
			zap.Error(err))
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}

	reset.IsUsed = true
	return nil
}
