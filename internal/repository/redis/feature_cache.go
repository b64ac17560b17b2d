package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

const portalSnapshotKey = "features:portal_snapshot"

// FeatureCache holds the assembled portal feature snapshot for a short TTL
// so every request does not hit the feature table.
type FeatureCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

func NewFeatureCache(client *client.RedisClient, ttl time.Duration) *FeatureCache {
	return &FeatureCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *FeatureCache) GetSnapshot(ctx context.Context) (*models.PortalSnapshot, error) {
	val, err := c.client.Get(ctx, portalSnapshotKey)
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, nil
		}
		util.Error("Failed to get feature snapshot from cache", zap.Error(err))
		return nil, fmt.Errorf("failed to get feature snapshot: %w", err)
	}

	snapshot := &models.PortalSnapshot{}
	if err := json.Unmarshal([]byte(val), snapshot); err != nil {
		// a corrupt entry is treated as a miss and rewritten
		util.Warn("Discarding corrupt feature snapshot", zap.Error(err))
		return nil, nil
	}

	return snapshot, nil
}

func (c *FeatureCache) SetSnapshot(ctx context.Context, snapshot *models.PortalSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal feature snapshot: %w", err)
	}

	if err := c.client.Set(ctx, portalSnapshotKey, string(data), c.ttl); err != nil {
		util.Error("Failed to cache feature snapshot", zap.Error(err))
		return fmt.Errorf("failed to cache feature snapshot: %w", err)
	}

	return nil
}

func (c *FeatureCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, portalSnapshotKey); err != nil {
		util.Error("Failed to invalidate feature snapshot", zap.Error(err))
		return fmt.Errorf("failed to invalidate feature snapshot: %w", err)
	}
	return nil
}
