package scylla

import (
	"context"
	"errors"
	"time"

	"beneficiary-portal/internal/models"
)

// ErrRecordNotFound is returned when a lookup matches no row
var ErrRecordNotFound = errors.New("record not found")

// ErrAuthExists is returned when a credential insert loses the LWT race
var ErrAuthExists = errors.New("auth record already exists")

// BeneficiaryRepository defines the interface for beneficiary storage operations
type BeneficiaryRepository interface {
	CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error
	GetBeneficiaryByID(ctx context.Context, id string) (*models.Beneficiary, error)
	GetBeneficiaryByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, error)
	UpdateBeneficiary(ctx context.Context, b *models.Beneficiary) error
	UpdatePortalAccess(ctx context.Context, id string, at time.Time) error
	HealthCheck(ctx context.Context) error
}

// AuthRepository defines the interface for beneficiary auth records
type AuthRepository interface {
	CreateAuth(ctx context.Context, auth *models.BeneficiaryAuth) error
	GetAuthByNationalID(ctx context.Context, nationalID string) (*models.BeneficiaryAuth, error)
	RecordLoginSuccess(ctx context.Context, nationalID string, at time.Time) error
	RecordLoginFailure(ctx context.Context, nationalID string, attempts int, lockedUntil *time.Time) error
	UpdatePassword(ctx context.Context, nationalID, hash, salt, algorithm string) error
	RehashPassword(ctx context.Context, nationalID, hash, salt, algorithm string) error
}

// OTPRepository defines the interface for one-time code storage
type OTPRepository interface {
	CreateOTP(ctx context.Context, otp *models.OTP) error
	GetRecentOTPs(ctx context.Context, beneficiaryID, purpose string, limit int) ([]*models.OTP, error)
	MarkVerified(ctx context.Context, otp *models.OTP) error
}

// ResetRepository defines the interface for temporary password records
type ResetRepository interface {
	CreateReset(ctx context.Context, reset *models.PasswordReset) error
	GetActiveReset(ctx context.Context, authID string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, reset *models.PasswordReset) error
}

// PackageRepository defines the interface for aid package storage
type PackageRepository interface {
	CreatePackage(ctx context.Context, pkg *models.Package) error
	GetPackagesByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Package, error)
	GetPackageByID(ctx context.Context, beneficiaryID, packageID string) (*models.Package, error)
	UpdatePackageStatus(ctx context.Context, beneficiaryID, packageID, status string, deliveredAt *time.Time) error
}

// FeatureRepository defines the interface for system feature flags
type FeatureRepository interface {
	GetFeature(ctx context.Context, key string) (*models.SystemFeature, error)
	UpdateFeature(ctx context.Context, key string, enabled bool, settings map[string]string, updatedBy string) error
}

// NotificationRepository defines the interface for the WhatsApp queue
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.WhatsAppNotification) error
	GetNotificationByID(ctx context.Context, id string) (*models.WhatsAppNotification, error)
	GetNotificationsByStatus(ctx context.Context, status string, limit int) ([]*models.WhatsAppNotification, error)
	GetNotificationsByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.WhatsAppNotification, error)
	UpdateNotificationStatus(ctx context.Context, n *models.WhatsAppNotification) error
	CountByStatus(ctx context.Context) (*models.NotificationStats, error)
}

// DirectoryRepository defines read access to organizations, families and couriers
type DirectoryRepository interface {
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	GetFamily(ctx context.Context, id string) (*models.Family, error)
	GetCourier(ctx context.Context, id string) (*models.Courier, error)
}
