package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"beneficiary-portal/internal/models"
)

// PortalStats is the admin overview payload
type PortalStats struct {
	Notifications  *models.NotificationStats `json:"notifications"`
	ActivityByType map[string]uint64         `json:"activity_by_type"`
	BySource       map[string]uint64         `json:"activity_by_source"`
	Since          time.Time                 `json:"since"`
}

// StatsService aggregates queue and activity counters for the dashboard
type StatsService struct {
	notifications *NotificationService
	activity      *ActivityService
}

func NewStatsService(notifications *NotificationService, activity *ActivityService) *StatsService {
	return &StatsService{
		notifications: notifications,
		activity:      activity,
	}
}

// Overview collects all counters concurrently over the given lookback window
func (s *StatsService) Overview(ctx context.Context, lookback time.Duration) (*PortalStats, error) {
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	since := time.Now().UTC().Add(-lookback)

	stats := &PortalStats{Since: since}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.notifications.Stats(gctx)
		if err != nil {
			return err
		}
		stats.Notifications = counts
		return nil
	})

	g.Go(func() error {
		byType, err := s.activity.CountByType(gctx, since)
		if err != nil {
			return err
		}
		stats.ActivityByType = byType
		return nil
	})

	g.Go(func() error {
		bySource, err := s.activity.CountBySource(gctx, since)
		if err != nil {
			return err
		}
		stats.BySource = bySource
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}
