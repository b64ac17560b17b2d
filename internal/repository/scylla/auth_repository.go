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

type authRepository struct {
	client *ScyllaClient
}

func NewAuthRepository(client *ScyllaClient) AuthRepository {
	return &authRepository{client: client}
}

func (r *authRepository) CreateAuth(ctx context.Context, auth *models.BeneficiaryAuth) error {
	now := time.Now().UTC()
	auth.CreatedAt = now
	auth.UpdatedAt = &now

	query := r.client.Prepared.CreateAuth.Bind(
		auth.NationalID, auth.ID, auth.BeneficiaryID, auth.PasswordHash,
		auth.PasswordSalt, auth.HashAlgorithm, auth.IsFirstLogin,
		auth.LastLoginAt, auth.LoginAttempts, auth.LockedUntil,
		auth.CreatedAt, auth.UpdatedAt,
	).WithContext(ctx)

	applied, err := query.MapScanCAS(map[string]interface{}{})
	if err != nil {
		util.Error("Failed to create auth record",
			zap.String("beneficiary_id", auth.BeneficiaryID),
			zap.Error(err))
		return fmt.Errorf("failed to create auth record: %w", err)
	}
	if !applied {
		return ErrAuthExists
	}

	util.Info("Auth record created",
		zap.String("beneficiary_id", auth.BeneficiaryID))
	return nil
}

func (r *authRepository) GetAuthByNationalID(ctx context.Context, nationalID string) (*models.BeneficiaryAuth, error) {
	auth := &models.BeneficiaryAuth{}

	query := r.client.Prepared.GetAuthByNational.Bind(nationalID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&auth.NationalID, &auth.ID, &auth.BeneficiaryID, &auth.PasswordHash,
		&auth.PasswordSalt, &auth.HashAlgorithm, &auth.IsFirstLogin,
		&auth.LastLoginAt, &auth.LoginAttempts, &auth.LockedUntil,
		&auth.CreatedAt, &auth.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get auth record", zap.Error(err))
		return nil, fmt.Errorf("failed to get auth record: %w", err)
	}

	return auth, nil
}

func (r *authRepository) RecordLoginSuccess(ctx context.Context, nationalID string, at time.Time) error {
	query := r.client.Prepared.UpdateLoginSuccess.Bind(at, time.Now().UTC(), nationalID).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to record login success", zap.Error(err))
		return fmt.Errorf("failed to record login success: %w", err)
	}

	return nil
}

func (r *authRepository) RecordLoginFailure(ctx context.Context, nationalID string, attempts int, lockedUntil *time.Time) error {
	query := r.client.Prepared.UpdateLoginFailure.Bind(
		attempts, lockedUntil, time.Now().UTC(), nationalID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to record login failure", zap.Error(err))
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	return nil
}

func (r *authRepository) UpdatePassword(ctx context.Context, nationalID, hash, salt, algorithm string) error {
	query := r.client.Prepared.UpdatePassword.Bind(
		hash, salt, algorithm, time.Now().UTC(), nationalID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update password hash", zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}

	util.Info("Password hash updated")
	return nil
}

// RehashPassword swaps the stored hash without touching the first-login flag,
// for transparent algorithm upgrades after a successful verify.
func (r *authRepository) RehashPassword(ctx context.Context, nationalID, hash, salt, algorithm string) error {
	query := r.client.Prepared.RehashPassword.Bind(
		hash, salt, algorithm, time.Now().UTC(), nationalID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to rehash password", zap.Error(err))
		return fmt.Errorf("failed to rehash password: %w", err)
	}

	return nil
}
