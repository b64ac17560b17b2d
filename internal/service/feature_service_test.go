package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
)

func newFeatureFixture() (*FeatureService, *fakeFeatureRepo, *fakeSnapshotCache) {
	repo := newFakeFeatureRepo()
	cache := &fakeSnapshotCache{}
	cfg := &config.Config{
		WhatsApp: config.WhatsAppConfig{SupportPhone: "+970590000000"},
	}
	return NewFeatureService(repo, cache, cfg), repo, cache
}

func TestSnapshotDefaultsWhenNoFeaturesExist(t *testing.T) {
	svc, _, _ := newFeatureFixture()

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.False(t, snapshot.PortalEnabled)
	assert.False(t, snapshot.PublicSearchEnabled)
	assert.False(t, snapshot.WhatsAppAutoSend)
	assert.Equal(t, "+970590000000", snapshot.SupportPhone)
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestSnapshotReadsFeatureRows(t *testing.T) {
	svc, repo, _ := newFeatureFixture()

	repo.enable(models.FeatureBeneficiaryPortal, map[string]string{"support_phone": "+970591111111"})
	repo.enable(models.FeaturePublicSearch, nil)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snapshot.PortalEnabled)
	assert.True(t, snapshot.PublicSearchEnabled)
	assert.False(t, snapshot.WhatsAppAutoSend)
	// feature settings override the configured default
	assert.Equal(t, "+970591111111", snapshot.SupportPhone)
}

func TestSnapshotServedFromCache(t *testing.T) {
	svc, repo, cache := newFeatureFixture()

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// a repo change is invisible until the cache is invalidated
	repo.enable(models.FeatureBeneficiaryPortal, nil)

	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.PortalEnabled, second.PortalEnabled)
	assert.Equal(t, 1, cache.sets)
}

func TestSetFeatureInvalidatesCache(t *testing.T) {
	svc, _, cache := newFeatureFixture()
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.SetFeature(ctx, models.FeatureBeneficiaryPortal, true, nil, "admin"))
	assert.Nil(t, cache.snapshot)

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot.PortalEnabled)
}

func TestGetFeatureUnknownKey(t *testing.T) {
	svc, repo, _ := newFeatureFixture()
	ctx := context.Background()

	_, err := svc.GetFeature(ctx, "no_such_feature")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	repo.enable(models.FeaturePublicSearch, nil)
	feature, err := svc.GetFeature(ctx, models.FeaturePublicSearch)
	require.NoError(t, err)
	assert.True(t, feature.IsEnabled)
}
