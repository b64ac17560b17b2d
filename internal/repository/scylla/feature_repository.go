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

type featureRepository struct {
	client *ScyllaClient
}

func NewFeatureRepository(client *ScyllaClient) FeatureRepository {
	return &featureRepository{client: client}
}

func (r *featureRepository) GetFeature(ctx context.Context, key string) (*models.SystemFeature, error) {
	feature := &models.SystemFeature{}

	query := r.client.Prepared.GetFeature.Bind(key).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&feature.ID, &feature.FeatureKey, &feature.FeatureName,
		&feature.IsEnabled, &feature.Settings,
		&feature.UpdatedBy, &feature.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get feature flag",
			zap.String("feature_key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get feature flag: %w", err)
	}

	return feature, nil
}

func (r *featureRepository) UpdateFeature(ctx context.Context, key string, enabled bool, settings map[string]string, updatedBy string) error {
	query := r.client.Prepared.UpdateFeature.Bind(
		enabled, settings, updatedBy, time.Now().UTC(), key,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update feature flag",
			zap.String("feature_key", key),
			zap.Error(err))
		return fmt.Errorf("failed to update feature flag: %w", err)
	}

	util.Info("Feature flag updated",
		zap.String("feature_key", key),
		zap.Bool("is_enabled", enabled))
	return nil
}
