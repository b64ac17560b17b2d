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

type otpRepository struct {
	client *ScyllaClient
	ttl    time.Duration
}

func NewOTPRepository(client *ScyllaClient, ttl time.Duration) OTPRepository {
	return &otpRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *otpRepository) CreateOTP(ctx context.Context, otp *models.OTP) error {
	now := time.Now().UTC()
	otp.CreatedAt = now
	otp.ExpiresAt = now.Add(r.ttl)

	// rows expire from storage shortly after the code itself expires
	ttlSeconds := int(r.ttl.Seconds()) + 60

	query := r.client.Prepared.CreateOTP.Bind(
		otp.BeneficiaryID, otp.Purpose, otp.CreatedAt, otp.ID,
		otp.OTPHash, otp.OTPSalt, otp.HashAlgorithm,
		otp.IsVerified, otp.ExpiresAt, ttlSeconds,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create OTP",
			zap.String("beneficiary_id", otp.BeneficiaryID),
			zap.String("purpose", otp.Purpose),
			zap.Error(err))
		return fmt.Errorf("failed to create OTP: %w", err)
	}

	return nil
}

func (r *otpRepository) GetRecentOTPs(ctx context.Context, beneficiaryID, purpose string, limit int) ([]*models.OTP, error) {
	query := r.client.Prepared.GetRecentOTPs.Bind(beneficiaryID, purpose, limit).WithContext(ctx)

	iter := query.Iter()
	var otps []*models.OTP

	for {
		otp := &models.OTP{}
		if !iter.Scan(
			&otp.BeneficiaryID, &otp.Purpose, &otp.CreatedAt, &otp.ID,
			&otp.OTPHash, &otp.OTPSalt, &otp.HashAlgorithm,
			&otp.IsVerified, &otp.ExpiresAt) {
			break
		}
		otps = append(otps, otp)
	}

	if err := iter.Close(); err != nil && err != gocql.ErrNotFound {
		util.Error("Failed to get recent OTPs",
			zap.String("beneficiary_id", beneficiaryID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get recent OTPs: %w", err)
	}

	return otps, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, otp *models.OTP) error {
	query := r.client.Prepared.MarkOTPVerified.Bind(
		otp.BeneficiaryID, otp.Purpose, otp.CreatedAt, otp.ID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to mark OTP verified",
			zap.String("beneficiary_id", otp.BeneficiaryID),
			zap.Error(err))
		return fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	otp.IsVerified = true
	return nil
}
