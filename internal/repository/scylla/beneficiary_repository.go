package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"beneficiary-portal/internal/bucketing"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

type beneficiaryRepository struct {
	client  *ScyllaClient
	buckets *bucketing.Manager
}

func NewBeneficiaryRepository(client *ScyllaClient, buckets *bucketing.Manager) BeneficiaryRepository {
	return &beneficiaryRepository{
		client:  client,
		buckets: buckets,
	}
}

func (r *beneficiaryRepository) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = &now
	b.Bucket = r.buckets.BeneficiaryBucket(b.ID)

	query := r.client.Prepared.CreateBeneficiary.Bind(
		b.Bucket, b.ID, b.Name, b.NationalID, b.PhoneEncrypted, b.PhoneDEK,
		b.PhoneKeyID, b.Address, b.Governorate, b.OrganizationID, b.FamilyID,
		b.Status, b.IdentityStatus, b.LastPortalAccess, b.CreatedAt, b.UpdatedAt,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create beneficiary",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create beneficiary: %w", err)
	}

	lookup := r.client.Prepared.CreateNationalIDLookup.Bind(
		r.buckets.NationalIDBucket(b.NationalID), b.NationalID, b.ID, now,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(lookup, 2); err != nil {
		util.Error("Failed to create national ID lookup",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create national ID lookup: %w", err)
	}

	util.Info("Beneficiary created",
		zap.String("beneficiary_id", b.ID))
	return nil
}

func (r *beneficiaryRepository) GetBeneficiaryByID(ctx context.Context, id string) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	bucket := r.buckets.BeneficiaryBucket(id)

	query := r.client.Prepared.GetBeneficiaryByID.Bind(bucket, id).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&b.Bucket, &b.ID, &b.Name, &b.NationalID, &b.PhoneEncrypted, &b.PhoneDEK,
		&b.PhoneKeyID, &b.Address, &b.Governorate, &b.OrganizationID, &b.FamilyID,
		&b.Status, &b.IdentityStatus, &b.LastPortalAccess, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get beneficiary by ID",
			zap.String("beneficiary_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}

	return b, nil
}

func (r *beneficiaryRepository) GetBeneficiaryByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, error) {
	var beneficiaryID string
	bucket := r.buckets.NationalIDBucket(nationalID)

	query := r.client.Prepared.GetNationalIDLookup.Bind(bucket, nationalID).WithContext(ctx)

	if err := r.client.ScanWithRetry(query, &beneficiaryID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to resolve national ID",
			zap.Error(err))
		return nil, fmt.Errorf("failed to resolve national ID: %w", err)
	}

	return r.GetBeneficiaryByID(ctx, beneficiaryID)
}

func (r *beneficiaryRepository) UpdateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	now := time.Now().UTC()
	b.UpdatedAt = &now
	bucket := r.buckets.BeneficiaryBucket(b.ID)

	query := r.client.Prepared.UpdateBeneficiary.Bind(
		b.Name, b.PhoneEncrypted, b.PhoneDEK, b.PhoneKeyID,
		b.Address, b.Governorate, b.Status, b.IdentityStatus, b.UpdatedAt,
		bucket, b.ID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update beneficiary",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update beneficiary: %w", err)
	}

	return nil
}

func (r *beneficiaryRepository) UpdatePortalAccess(ctx context.Context, id string, at time.Time) error {
	bucket := r.buckets.BeneficiaryBucket(id)

	query := r.client.Prepared.UpdatePortalAccess.Bind(at, bucket, id).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update portal access time",
			zap.String("beneficiary_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update portal access: %w", err)
	}

	return nil
}

func (r *beneficiaryRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}
