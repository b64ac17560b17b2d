package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	redisrepo "beneficiary-portal/internal/repository/redis"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/util"
)

// SnapshotCache holds the assembled feature snapshot between requests
type SnapshotCache interface {
	GetSnapshot(ctx context.Context) (*models.PortalSnapshot, error)
	SetSnapshot(ctx context.Context, snapshot *models.PortalSnapshot) error
	Invalidate(ctx context.Context) error
}

var _ SnapshotCache = (*redisrepo.FeatureCache)(nil)

// FeatureService assembles the typed portal snapshot from the feature table.
// Callers receive the whole snapshot instead of probing individual keys, so a
// request renders against one consistent view.
type FeatureService struct {
	featureRepo scylla.FeatureRepository
	cache       SnapshotCache
	defaults    config.WhatsAppConfig
}

func NewFeatureService(featureRepo scylla.FeatureRepository, cache SnapshotCache, cfg *config.Config) *FeatureService {
	return &FeatureService{
		featureRepo: featureRepo,
		cache:       cache,
		defaults:    cfg.WhatsApp,
	}
}

// Snapshot returns the current feature state, from cache when fresh.
// A missing feature row counts as disabled.
func (s *FeatureService) Snapshot(ctx context.Context) (*models.PortalSnapshot, error) {
	if cached, err := s.cache.GetSnapshot(ctx); err == nil && cached != nil {
		return cached, nil
	}

	snapshot := &models.PortalSnapshot{
		SupportPhone: s.defaults.SupportPhone,
		FetchedAt:    time.Now().UTC(),
	}

	portal, err := s.lookup(ctx, models.FeatureBeneficiaryPortal)
	if err != nil {
		return nil, err
	}
	if portal != nil {
		snapshot.PortalEnabled = portal.IsEnabled
		if phone, ok := portal.Settings["support_phone"]; ok && phone != "" {
			snapshot.SupportPhone = phone
		}
	}

	publicSearch, err := s.lookup(ctx, models.FeaturePublicSearch)
	if err != nil {
		return nil, err
	}
	if publicSearch != nil {
		snapshot.PublicSearchEnabled = publicSearch.IsEnabled
	}

	autoSend, err := s.lookup(ctx, models.FeatureWhatsAppAutoSend)
	if err != nil {
		return nil, err
	}
	if autoSend != nil {
		snapshot.WhatsAppAutoSend = autoSend.IsEnabled
	}

	if err := s.cache.SetSnapshot(ctx, snapshot); err != nil {
		util.Warn("Failed to cache feature snapshot", zap.Error(err))
	}

	return snapshot, nil
}

func (s *FeatureService) lookup(ctx context.Context, key string) (*models.SystemFeature, error) {
	feature, err := s.featureRepo.GetFeature(ctx, key)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load feature %s: %w", key, err)
	}
	return feature, nil
}

// GetFeature returns a single raw feature row
func (s *FeatureService) GetFeature(ctx context.Context, key string) (*models.SystemFeature, error) {
	feature, err := s.featureRepo.GetFeature(ctx, key)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "الميزة غير موجودة")
		}
		return nil, fmt.Errorf("failed to load feature %s: %w", key, err)
	}
	return feature, nil
}

// SetFeature flips a flag and invalidates the cached snapshot
func (s *FeatureService) SetFeature(ctx context.Context, key string, enabled bool, settings map[string]string, updatedBy string) error {
	if err := s.featureRepo.UpdateFeature(ctx, key, enabled, settings, updatedBy); err != nil {
		return fmt.Errorf("failed to update feature: %w", err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		util.Warn("Failed to invalidate feature snapshot", zap.Error(err))
	}

	return nil
}
