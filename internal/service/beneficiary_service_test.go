package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/encryption"
	"beneficiary-portal/internal/models"
)

type beneficiaryFixture struct {
	service     *BeneficiaryService
	repo        *fakeBeneficiaryRepo
	packageRepo *fakePackageRepo
	featureRepo *fakeFeatureRepo
	index       *fakeSearchIndex
	activity    *fakeActivityStore
}

func newBeneficiaryFixture() *beneficiaryFixture {
	cfg := &config.Config{
		Portal: config.PortalConfig{PublicSearchActor: "نظام عام"},
	}

	repo := newFakeBeneficiaryRepo()
	packageRepo := newFakePackageRepo()
	featureRepo := newFakeFeatureRepo()
	index := newFakeSearchIndex()
	activity := &fakeActivityStore{}
	features := NewFeatureService(featureRepo, &fakeSnapshotCache{}, cfg)

	svc := NewBeneficiaryService(
		repo, packageRepo, newFakeNotificationRepo(), &fakeDirectoryRepo{},
		encryption.NewManager(cfg, nil), index, features,
		NewActivityService(activity), cfg)

	return &beneficiaryFixture{
		service:     svc,
		repo:        repo,
		packageRepo: packageRepo,
		featureRepo: featureRepo,
		index:       index,
		activity:    activity,
	}
}

func registerOne(t *testing.T, f *beneficiaryFixture) *models.Beneficiary {
	t.Helper()

	b := &models.Beneficiary{
		Name:        "أحمد خالد",
		NationalID:  "123456789",
		Phone:       "0599505699",
		Governorate: "غزة",
		Status:      "active",
	}
	require.NoError(t, f.service.RegisterBeneficiary(context.Background(), b))
	return b
}

func TestRegisterBeneficiaryEncryptsPhone(t *testing.T) {
	f := newBeneficiaryFixture()
	b := registerOne(t, f)

	assert.NotEmpty(t, b.ID)
	assert.NotEmpty(t, b.PhoneEncrypted)
	assert.NotEmpty(t, b.PhoneDEK)
	assert.NotContains(t, b.PhoneEncrypted, "0599505699")

	// the searchable mirror got the row
	assert.Contains(t, f.index.docs, b.ID)
	assert.Len(t, f.activity.entries, 1)
}

func TestRegisterBeneficiaryValidation(t *testing.T) {
	f := newBeneficiaryFixture()
	ctx := context.Background()

	err := f.service.RegisterBeneficiary(ctx, &models.Beneficiary{Name: "أحمد", NationalID: "12345"})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	err = f.service.RegisterBeneficiary(ctx, &models.Beneficiary{Name: "أحمد", NationalID: "123456789", Phone: "999"})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestRegisterBeneficiaryDuplicateNationalID(t *testing.T) {
	f := newBeneficiaryFixture()
	registerOne(t, f)

	err := f.service.RegisterBeneficiary(context.Background(), &models.Beneficiary{
		Name:       "آخر",
		NationalID: "123456789",
	})
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))
	assert.Equal(t, "رقم الهوية مسجل مسبقاً", apierr.UserMessage(err))
}

func TestGetByNationalIDDecryptsPhone(t *testing.T) {
	f := newBeneficiaryFixture()
	registerOne(t, f)

	b, err := f.service.GetByNationalID(context.Background(), "123 456 789")
	require.NoError(t, err)
	assert.Equal(t, "+970599505699", b.Phone)
}

func TestGetByNationalIDNotFound(t *testing.T) {
	f := newBeneficiaryFixture()

	_, err := f.service.GetByNationalID(context.Background(), "999999999")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
	assert.Equal(t, "رقم الهوية غير موجود", apierr.UserMessage(err))
}

func TestUpdateProfile(t *testing.T) {
	f := newBeneficiaryFixture()
	b := registerOne(t, f)

	updated, err := f.service.UpdateProfile(context.Background(), b.ID, "0598111222", "شارع الوحدة", "رفح")
	require.NoError(t, err)

	assert.Equal(t, "+970598111222", updated.Phone)
	assert.Equal(t, "شارع الوحدة", updated.Address)
	assert.Equal(t, "رفح", updated.Governorate)
}

func TestUpdateProfileInvalidPhone(t *testing.T) {
	f := newBeneficiaryFixture()
	b := registerOne(t, f)

	_, err := f.service.UpdateProfile(context.Background(), b.ID, "123", "", "")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestDashboardAggregates(t *testing.T) {
	f := newBeneficiaryFixture()
	b := registerOne(t, f)

	require.NoError(t, f.packageRepo.CreatePackage(context.Background(), &models.Package{
		ID:            "pkg-1",
		BeneficiaryID: b.ID,
		Name:          "سلة غذائية",
		Status:        models.PackageStatusPending,
	}))

	dashboard, err := f.service.Dashboard(context.Background(), b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, dashboard.Beneficiary.ID)
	assert.Len(t, dashboard.Packages, 1)
	assert.Empty(t, dashboard.Notifications)
}

func TestPublicSearchFeatureGate(t *testing.T) {
	f := newBeneficiaryFixture()
	registerOne(t, f)

	_, err := f.service.PublicSearch(context.Background(), "123456789")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
	assert.Equal(t, "البحث العام غير متاح حالياً", apierr.UserMessage(err))
}

func TestPublicSearchReturnsReducedShapes(t *testing.T) {
	f := newBeneficiaryFixture()
	b := registerOne(t, f)
	f.featureRepo.enable(models.FeaturePublicSearch, nil)

	require.NoError(t, f.packageRepo.CreatePackage(context.Background(), &models.Package{
		ID:             "pkg-1",
		BeneficiaryID:  b.ID,
		Name:           "سلة غذائية",
		Status:         models.PackageStatusInDelivery,
		TrackingNumber: "PKG-20260315-ABCDEF",
	}))

	result, err := f.service.PublicSearch(context.Background(), "123456789")
	require.NoError(t, err)

	assert.Equal(t, "أحمد خالد", result.Beneficiary.Name)
	assert.Equal(t, "123456789", result.Beneficiary.NationalID)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "PKG-20260315-ABCDEF", result.Packages[0].TrackingNumber)

	// the access is logged under the anonymous public actor
	require.NotEmpty(t, f.activity.entries)
	last := f.activity.entries[len(f.activity.entries)-1]
	assert.Equal(t, "نظام عام", last.UserName)
	assert.Equal(t, models.ActivitySourcePublic, last.Source)
}

func TestAdminSearch(t *testing.T) {
	f := newBeneficiaryFixture()
	registerOne(t, f)

	results, err := f.service.AdminSearch(context.Background(), "أحمد", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "123456789", results[0].NationalID)
}

func TestAdminSearchNationalIDQuery(t *testing.T) {
	f := newBeneficiaryFixture()
	registerOne(t, f)

	// a 9-digit query runs an exact term lookup instead of a name match
	results, err := f.service.AdminSearch(context.Background(), "123 456 789", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "أحمد خالد", results[0].Name)

	results, err = f.service.AdminSearch(context.Background(), "999999999", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
