package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/retry"
	"beneficiary-portal/internal/util"
	"beneficiary-portal/internal/whatsapp"
)

const dispatchConcurrency = 5

// EnqueueRequest describes one message to queue
type EnqueueRequest struct {
	BeneficiaryID    string
	NotificationType string
	PackageID        string
	Phone            string
	Variables        map[string]string
}

// NotificationEvent is published to Kafka on queue state changes
type NotificationEvent struct {
	EventType      string    `json:"event_type"`
	NotificationID string    `json:"notification_id"`
	BeneficiaryID  string    `json:"beneficiary_id"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NotificationService manages the WhatsApp queue. Messages are stored as
// template plus variables and rendered at send time; delivery is manual
// (operator opens a wa.me link) or automatic through the provider API.
type NotificationService struct {
	notifRepo  scylla.NotificationRepository
	features   *FeatureService
	producer   *client.KafkaProducer
	httpClient *http.Client
	waCfg      config.WhatsAppConfig
	topic      string
}

func NewNotificationService(
	notifRepo scylla.NotificationRepository,
	features *FeatureService,
	producer *client.KafkaProducer,
	cfg *config.Config,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		features:  features,
		producer:  producer,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		waCfg: cfg.WhatsApp,
		topic: cfg.Kafka.NotificationTopic,
	}
}

// Enqueue validates the request and stores a pending queue row
func (s *NotificationService) Enqueue(ctx context.Context, req *EnqueueRequest) error {
	template, ok := whatsapp.TemplateFor(req.NotificationType)
	if !ok {
		return apierr.New(apierr.KindValidation, "نوع الإشعار غير معروف")
	}
	if !whatsapp.ValidatePhoneNumber(req.Phone) {
		return apierr.New(apierr.KindValidation, "رقم الهاتف غير صالح")
	}

	n := &models.WhatsAppNotification{
		ID:               uuid.New().String(),
		BeneficiaryID:    req.BeneficiaryID,
		NotificationType: req.NotificationType,
		PackageID:        req.PackageID,
		WhatsAppNumber:   whatsapp.FormatPhoneNumber(req.Phone),
		MessageTemplate:  template,
		MessageVariables: req.Variables,
		Status:           models.NotificationStatusPending,
	}

	if err := s.notifRepo.CreateNotification(ctx, n); err != nil {
		return err
	}

	s.publishEvent(ctx, "notification_enqueued", n)
	return nil
}

// RenderMessage produces the final text for a queue row
func (s *NotificationService) RenderMessage(n *models.WhatsAppNotification) string {
	return whatsapp.Interpolate(n.MessageTemplate, n.MessageVariables)
}

// SendLink builds the wa.me link an operator opens for manual delivery
func (s *NotificationService) SendLink(n *models.WhatsAppNotification) string {
	return whatsapp.GenerateLink(n.WhatsAppNumber, s.RenderMessage(n))
}

func (s *NotificationService) Get(ctx context.Context, notificationID string) (*models.WhatsAppNotification, error) {
	n, err := s.notifRepo.GetNotificationByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "الإشعار غير موجود")
		}
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) Pending(ctx context.Context, limit int) ([]*models.WhatsAppNotification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.notifRepo.GetNotificationsByStatus(ctx, models.NotificationStatusPending, limit)
}

func (s *NotificationService) ByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.WhatsAppNotification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.notifRepo.GetNotificationsByBeneficiary(ctx, beneficiaryID, limit)
}

// MarkSent finalizes a pending row as delivered
func (s *NotificationService) MarkSent(ctx context.Context, notificationID string) error {
	return s.transition(ctx, notificationID, models.NotificationStatusSent, "")
}

// MarkFailed records a delivery failure and bumps the retry counter
func (s *NotificationService) MarkFailed(ctx context.Context, notificationID, errorMessage string) error {
	return s.transition(ctx, notificationID, models.NotificationStatusFailed, errorMessage)
}

// Cancel withdraws a pending row
func (s *NotificationService) Cancel(ctx context.Context, notificationID string) error {
	return s.transition(ctx, notificationID, models.NotificationStatusCancelled, "")
}

func (s *NotificationService) transition(ctx context.Context, notificationID, newStatus, errorMessage string) error {
	n, err := s.notifRepo.GetNotificationByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return apierr.New(apierr.KindNotFound, "الإشعار غير موجود")
		}
		return err
	}

	if !models.CanTransitionNotification(n.Status, newStatus) {
		return apierr.New(apierr.KindConflict,
			fmt.Sprintf("لا يمكن نقل الإشعار من الحالة %s إلى %s", n.Status, newStatus))
	}

	n.Status = newStatus
	switch newStatus {
	case models.NotificationStatusSent:
		now := time.Now().UTC()
		n.SentAt = &now
	case models.NotificationStatusFailed:
		n.ErrorMessage = errorMessage
		n.RetryCount++
	}

	if err := s.notifRepo.UpdateNotificationStatus(ctx, n); err != nil {
		return err
	}

	s.publishEvent(ctx, "notification_"+newStatus, n)
	return nil
}

type apiSendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// SendViaAPI pushes one message through the configured provider
func (s *NotificationService) SendViaAPI(ctx context.Context, n *models.WhatsAppNotification) error {
	if s.waCfg.APIURL == "" || s.waCfg.APIKey == "" {
		return apierr.New(apierr.KindValidation, "إرسال واتساب التلقائي غير مُعد")
	}

	payload, err := json.Marshal(apiSendRequest{
		To:      n.WhatsAppNumber,
		From:    s.waCfg.SenderNumber,
		Message: s.RenderMessage(n),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.waCfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.waCfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.KindNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apierr.Wrap(apierr.KindNetwork,
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}
	// 4xx is a permanent rejection; the dispatcher must not retry it
	if resp.StatusCode >= 400 {
		return apierr.Wrap(apierr.KindValidation,
			fmt.Errorf("provider rejected message with status %d", resp.StatusCode))
	}

	return nil
}

// DispatchPending pushes queued messages through the provider API when auto
// send is enabled. Transient provider errors retry with backoff; each row
// lands in sent or failed.
func (s *NotificationService) DispatchPending(ctx context.Context, limit int) (int, error) {
	snapshot, err := s.features.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load feature snapshot: %w", err)
	}
	if !snapshot.WhatsAppAutoSend {
		return 0, apierr.New(apierr.KindValidation, "إرسال واتساب التلقائي غير مفعل")
	}

	pending, err := s.Pending(ctx, limit)
	if err != nil {
		return 0, err
	}

	var sent int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchConcurrency)

	results := make(chan bool, len(pending))
	for _, n := range pending {
		notification := n
		g.Go(func() error {
			sendErr := retry.Exec(gctx, func(ctx context.Context) error {
				return s.SendViaAPI(ctx, notification)
			})

			if sendErr != nil {
				if err := s.MarkFailed(gctx, notification.ID, sendErr.Error()); err != nil {
					util.Warn("Failed to record send failure",
						zap.String("notification_id", notification.ID),
						zap.Error(err))
				}
				results <- false
				return nil
			}

			if err := s.MarkSent(gctx, notification.ID); err != nil {
				util.Warn("Failed to record sent status",
					zap.String("notification_id", notification.ID),
					zap.Error(err))
			}
			results <- true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(sent), err
	}
	close(results)
	for ok := range results {
		if ok {
			sent++
		}
	}

	util.Info("Dispatch round finished",
		zap.Int("pending", len(pending)),
		zap.Int64("sent", sent))
	return int(sent), nil
}

// Stats returns queue counts per status
func (s *NotificationService) Stats(ctx context.Context) (*models.NotificationStats, error) {
	return s.notifRepo.CountByStatus(ctx)
}

func (s *NotificationService) publishEvent(ctx context.Context, eventType string, n *models.WhatsAppNotification) {
	// producer is nil when Kafka was unavailable at startup
	if s.producer == nil {
		return
	}

	event := NotificationEvent{
		EventType:      eventType,
		NotificationID: n.ID,
		BeneficiaryID:  n.BeneficiaryID,
		Type:           n.NotificationType,
		Status:         n.Status,
		OccurredAt:     time.Now().UTC(),
	}

	if err := s.producer.PublishJSON(ctx, s.topic, n.BeneficiaryID, event); err != nil {
		util.Warn("Notification event not published",
			zap.String("notification_id", n.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
