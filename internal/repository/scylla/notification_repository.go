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

type notificationRepository struct {
	client *ScyllaClient
}

func NewNotificationRepository(client *ScyllaClient) NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *models.WhatsAppNotification) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = &now
	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}

	query := r.client.Prepared.CreateNotification.Bind(
		n.ID, n.BeneficiaryID, n.NotificationType, n.PackageID,
		n.WhatsAppNumber, n.MessageTemplate, n.MessageVariables, n.Status,
		n.SentAt, n.ErrorMessage, n.RetryCount, n.CreatedAt, n.UpdatedAt,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to enqueue notification",
			zap.String("notification_id", n.ID),
			zap.Error(err))
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	util.Info("Notification enqueued",
		zap.String("notification_id", n.ID),
		zap.String("type", n.NotificationType))
	return nil
}

func (r *notificationRepository) GetNotificationByID(ctx context.Context, id string) (*models.WhatsAppNotification, error) {
	n := &models.WhatsAppNotification{}

	query := r.client.Prepared.GetNotificationByID.Bind(id).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&n.ID, &n.BeneficiaryID, &n.NotificationType, &n.PackageID,
		&n.WhatsAppNumber, &n.MessageTemplate, &n.MessageVariables, &n.Status,
		&n.SentAt, &n.ErrorMessage, &n.RetryCount, &n.CreatedAt, &n.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get notification",
			zap.String("notification_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

func (r *notificationRepository) GetNotificationsByStatus(ctx context.Context, status string, limit int) ([]*models.WhatsAppNotification, error) {
	query := r.client.Query(`
        SELECT notification_id, beneficiary_id, notification_type, package_id,
            whatsapp_number, message_template, message_variables, status,
            sent_at, error_message, retry_count, created_at, updated_at
        FROM whatsapp_notifications_queue WHERE status = ? LIMIT ? ALLOW FILTERING`,
		status, limit).WithContext(ctx)

	return r.scanNotifications(query, zap.String("status", status))
}

func (r *notificationRepository) GetNotificationsByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.WhatsAppNotification, error) {
	query := r.client.Query(`
        SELECT notification_id, beneficiary_id, notification_type, package_id,
            whatsapp_number, message_template, message_variables, status,
            sent_at, error_message, retry_count, created_at, updated_at
        FROM whatsapp_notifications_queue WHERE beneficiary_id = ? LIMIT ? ALLOW FILTERING`,
		beneficiaryID, limit).WithContext(ctx)

	return r.scanNotifications(query, zap.String("beneficiary_id", beneficiaryID))
}

func (r *notificationRepository) scanNotifications(query *gocql.Query, field zap.Field) ([]*models.WhatsAppNotification, error) {
	iter := query.Iter()
	var out []*models.WhatsAppNotification

	for {
		n := &models.WhatsAppNotification{}
		if !iter.Scan(
			&n.ID, &n.BeneficiaryID, &n.NotificationType, &n.PackageID,
			&n.WhatsAppNumber, &n.MessageTemplate, &n.MessageVariables, &n.Status,
			&n.SentAt, &n.ErrorMessage, &n.RetryCount, &n.CreatedAt, &n.UpdatedAt) {
			break
		}
		out = append(out, n)
	}

	if err := iter.Close(); err != nil {
		util.Error("Failed to list notifications", field, zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return out, nil
}

func (r *notificationRepository) UpdateNotificationStatus(ctx context.Context, n *models.WhatsAppNotification) error {
	now := time.Now().UTC()
	n.UpdatedAt = &now

	query := r.client.Prepared.UpdateNotificationStatus.Bind(
		n.Status, n.SentAt, n.ErrorMessage, n.RetryCount, n.UpdatedAt, n.ID,
	).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update notification status",
			zap.String("notification_id", n.ID),
			zap.String("status", n.Status),
			zap.Error(err))
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	return nil
}

func (r *notificationRepository) CountByStatus(ctx context.Context) (*models.NotificationStats, error) {
	stats := &models.NotificationStats{}

	counts := map[string]*int{
		models.NotificationStatusPending: &stats.Pending,
		models.NotificationStatusSent:    &stats.Sent,
		models.NotificationStatusFailed:  &stats.Failed,
	}

	for status, dest := range counts {
		query := r.client.Query(`
            SELECT COUNT(*) FROM whatsapp_notifications_queue
            WHERE status = ? ALLOW FILTERING`, status).WithContext(ctx)

		var count int64
		if err := query.Scan(&count); err != nil {
			util.Error("Failed to count notifications",
				zap.String("status", status),
				zap.Error(err))
			return nil, fmt.Errorf("failed to count notifications: %w", err)
		}
		*dest = int(count)
		stats.Total += int(count)
	}

	return stats, nil
}
