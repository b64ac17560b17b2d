package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/clickhouse"
	"beneficiary-portal/internal/util"
)

// ActivityStore is where audit entries land; ClickHouse in production
type ActivityStore interface {
	InsertActivity(ctx context.Context, entry *models.ActivityEntry) error
	GetRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error)
	GetByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.ActivityEntry, error)
	CountByType(ctx context.Context, since time.Time) (map[string]uint64, error)
	CountBySource(ctx context.Context, since time.Time) (map[string]uint64, error)
}

var _ ActivityStore = (*clickhouse.ActivityRepository)(nil)

// ActivityService appends audit entries. Logging is best-effort: a failed
// insert is reported but never fails the operation it describes.
type ActivityService struct {
	activityRepo ActivityStore
}

func NewActivityService(activityRepo ActivityStore) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

func (s *ActivityService) Log(ctx context.Context, entry *models.ActivityEntry) {
	entry.Timestamp = time.Now().UTC()

	if err := s.activityRepo.InsertActivity(ctx, entry); err != nil {
		util.Warn("Activity entry dropped",
			zap.String("action", entry.Action),
			zap.String("type", entry.Type),
			zap.Error(err))
	}
}

func (s *ActivityService) Recent(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.activityRepo.GetRecent(ctx, limit)
}

func (s *ActivityService) ByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.activityRepo.GetByBeneficiary(ctx, beneficiaryID, limit)
}

func (s *ActivityService) CountByType(ctx context.Context, since time.Time) (map[string]uint64, error) {
	return s.activityRepo.CountByType(ctx, since)
}

func (s *ActivityService) CountBySource(ctx context.Context, since time.Time) (map[string]uint64, error) {
	return s.activityRepo.CountBySource(ctx, since)
}
