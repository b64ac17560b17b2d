package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/whatsapp"
)

type packageFixture struct {
	service   *PackageService
	repo      *fakePackageRepo
	notifRepo *fakeNotificationRepo
	activity  *fakeActivityStore
}

func newPackageFixture() *packageFixture {
	cfg := &config.Config{}
	repo := newFakePackageRepo()
	notifRepo := newFakeNotificationRepo()
	features := NewFeatureService(newFakeFeatureRepo(), &fakeSnapshotCache{}, cfg)
	notifications := NewNotificationService(notifRepo, features, nil, cfg)
	activity := &fakeActivityStore{}

	return &packageFixture{
		service:   NewPackageService(repo, &fakeDirectoryRepo{}, notifications, NewActivityService(activity), nil, cfg),
		repo:      repo,
		notifRepo: notifRepo,
		activity:  activity,
	}
}

func TestGenerateTrackingNumber(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	tracking, err := GenerateTrackingNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, `^PKG-20260315-[A-Z2-9]{6}$`, tracking)

	other, err := GenerateTrackingNumber(now)
	require.NoError(t, err)
	assert.NotEqual(t, tracking, other)
}

func TestCreatePackageDefaults(t *testing.T) {
	f := newPackageFixture()

	pkg := &models.Package{BeneficiaryID: "ben-1", Name: "سلة غذائية"}
	require.NoError(t, f.service.CreatePackage(context.Background(), pkg))

	assert.NotEmpty(t, pkg.ID)
	assert.Equal(t, models.PackageStatusPending, pkg.Status)
	assert.Regexp(t, `^PKG-\d{8}-[A-Z2-9]{6}$`, pkg.TrackingNumber)
	assert.Len(t, f.activity.entries, 1)
}

func TestCreatePackageValidation(t *testing.T) {
	f := newPackageFixture()

	err := f.service.CreatePackage(context.Background(), &models.Package{Name: "سلة"})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	err = f.service.CreatePackage(context.Background(), &models.Package{BeneficiaryID: "ben-1"})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestAdvanceStatusWalksLifecycle(t *testing.T) {
	f := newPackageFixture()
	ctx := context.Background()

	pkg := &models.Package{BeneficiaryID: "ben-1", Name: "سلة غذائية"}
	require.NoError(t, f.service.CreatePackage(ctx, pkg))

	for _, status := range []string{
		models.PackageStatusAssigned,
		models.PackageStatusInDelivery,
		models.PackageStatusDelivered,
	} {
		updated, err := f.service.AdvanceStatus(ctx, "ben-1", pkg.ID, status, "أحمد", "0599505699")
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}

	stored := f.repo.packages[pkg.ID]
	assert.Equal(t, models.PackageStatusDelivered, stored.Status)
	assert.NotNil(t, stored.DeliveredAt)

	// each transition queued a status notification
	queued, err := f.notifRepo.GetNotificationsByBeneficiary(ctx, "ben-1", 10)
	require.NoError(t, err)
	assert.Len(t, queued, 3)
	assert.Equal(t, whatsapp.TypePackageStatusChange, queued[0].NotificationType)
}

func TestAdvanceStatusRejectsSkippingStates(t *testing.T) {
	f := newPackageFixture()
	ctx := context.Background()

	pkg := &models.Package{BeneficiaryID: "ben-1", Name: "سلة غذائية"}
	require.NoError(t, f.service.CreatePackage(ctx, pkg))

	_, err := f.service.AdvanceStatus(ctx, "ben-1", pkg.ID, models.PackageStatusDelivered, "أحمد", "")
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))
}

func TestAdvanceStatusRejectsMovingBackwards(t *testing.T) {
	f := newPackageFixture()
	ctx := context.Background()

	pkg := &models.Package{BeneficiaryID: "ben-1", Name: "سلة غذائية", Status: models.PackageStatusDelivered}
	require.NoError(t, f.service.CreatePackage(ctx, pkg))

	_, err := f.service.AdvanceStatus(ctx, "ben-1", pkg.ID, models.PackageStatusPending, "أحمد", "")
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))
}

func TestAdvanceStatusUnknownPackage(t *testing.T) {
	f := newPackageFixture()

	_, err := f.service.AdvanceStatus(context.Background(), "ben-1", "missing", models.PackageStatusAssigned, "", "")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestAdvanceStatusWithoutPhoneSkipsNotification(t *testing.T) {
	f := newPackageFixture()
	ctx := context.Background()

	pkg := &models.Package{BeneficiaryID: "ben-1", Name: "سلة غذائية"}
	require.NoError(t, f.service.CreatePackage(ctx, pkg))

	_, err := f.service.AdvanceStatus(ctx, "ben-1", pkg.ID, models.PackageStatusAssigned, "أحمد", "")
	require.NoError(t, err)

	queued, err := f.notifRepo.GetNotificationsByBeneficiary(ctx, "ben-1", 10)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "قيد التجهيز", StatusLabel(models.PackageStatusPending))
	assert.Equal(t, "تم الإسناد للمندوب", StatusLabel(models.PackageStatusAssigned))
	assert.Equal(t, "قيد التوصيل", StatusLabel(models.PackageStatusInDelivery))
	assert.Equal(t, "تم التسليم", StatusLabel(models.PackageStatusDelivered))
	assert.Equal(t, "custom", StatusLabel("custom"))
}
