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

type packageRepository struct {
	client *ScyllaClient
}

func NewPackageRepository(client *ScyllaClient) PackageRepository {
	return &packageRepository{client: client}
}

func (r *packageRepository) CreatePackage(ctx context.Context, pkg *models.Package) error {
	now := time.Now().UTC()
	pkg.CreatedAt = now
	pkg.UpdatedAt = &now

	query := r.client.Prepared.CreatePackage.Bind(
		pkg.BeneficiaryID, pkg.ID, pkg.Name, pkg.Type, pkg.OrganizationID,
		pkg.CourierID, pkg.Status, pkg.TrackingNumber,
		pkg.ScheduledDeliveryDate, pkg.DeliveredAt,
		pkg.CreatedAt, pkg.UpdatedAt,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create package",
			zap.String("package_id", pkg.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create package: %w", err)
	}

	util.Info("Package created",
		zap.String("package_id", pkg.ID),
		zap.String("tracking_number", pkg.TrackingNumber))
	return nil
}

func (r *packageRepository) GetPackagesByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Package, error) {
	query := r.client.Prepared.GetPackagesByBeneficiary.Bind(beneficiaryID).WithContext(ctx)

	iter := query.Iter()
	var packages []*models.Package

	for {
		pkg := &models.Package{}
		if !iter.Scan(
			&pkg.BeneficiaryID, &pkg.ID, &pkg.Name, &pkg.Type, &pkg.OrganizationID,
			&pkg.CourierID, &pkg.Status, &pkg.TrackingNumber,
			&pkg.ScheduledDeliveryDate, &pkg.DeliveredAt,
			&pkg.CreatedAt, &pkg.UpdatedAt) {
			break
		}
		packages = append(packages, pkg)
	}

	if err := iter.Close(); err != nil {
		util.Error("Failed to list packages",
			zap.String("beneficiary_id", beneficiaryID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return packages, nil
}

func (r *packageRepository) GetPackageByID(ctx context.Context, beneficiaryID, packageID string) (*models.Package, error) {
	pkg := &models.Package{}

	query := r.client.Prepared.GetPackageByID.Bind(beneficiaryID, packageID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&pkg.BeneficiaryID, &pkg.ID, &pkg.Name, &pkg.Type, &pkg.OrganizationID,
		&pkg.CourierID, &pkg.Status, &pkg.TrackingNumber,
		&pkg.ScheduledDeliveryDate, &pkg.DeliveredAt,
		&pkg.CreatedAt, &pkg.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get package",
			zap.String("package_id", packageID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return pkg, nil
}

func (r *packageRepository) UpdatePackageStatus(ctx context.Context, beneficiaryID, packageID string, status string, deliveredAt *time.Time) error {
	query := r.client.Prepared.UpdatePackageStatus.Bind(
		status, deliveredAt, time.Now().UTC(), beneficiaryID, packageID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update package status",
			zap.String("package_id", packageID),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update package status: %w", err)
	}

	return nil
}
