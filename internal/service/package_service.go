package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/util"
	"beneficiary-portal/internal/whatsapp"
)

const trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// PackageEvent is published to Kafka on every lifecycle change
type PackageEvent struct {
	EventType      string    `json:"event_type"`
	PackageID      string    `json:"package_id"`
	BeneficiaryID  string    `json:"beneficiary_id"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PackageService owns the package lifecycle. Status moves strictly forward;
// each transition emits an event and queues a WhatsApp notification.
type PackageService struct {
	packageRepo   scylla.PackageRepository
	courierRepo   scylla.DirectoryRepository
	notifications *NotificationService
	activity      *ActivityService
	producer      *client.KafkaProducer
	topic         string
}

func NewPackageService(
	packageRepo scylla.PackageRepository,
	courierRepo scylla.DirectoryRepository,
	notifications *NotificationService,
	activity *ActivityService,
	producer *client.KafkaProducer,
	cfg *config.Config,
) *PackageService {
	return &PackageService{
		packageRepo:   packageRepo,
		courierRepo:   courierRepo,
		notifications: notifications,
		activity:      activity,
		producer:      producer,
		topic:         cfg.Kafka.PackageTopic,
	}
}

// GenerateTrackingNumber builds a PKG-YYYYMMDD-XXXXXX reference
func GenerateTrackingNumber(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate tracking number: %w", err)
		}
		suffix[i] = trackingAlphabet[n.Int64()]
	}
	return fmt.Sprintf("PKG-%s-%s", now.UTC().Format("20060102"), string(suffix)), nil
}

// CreatePackage registers a new package in pending state
func (s *PackageService) CreatePackage(ctx context.Context, pkg *models.Package) error {
	if pkg.BeneficiaryID == "" || pkg.Name == "" {
		return apierr.New(apierr.KindValidation, "بيانات الطرد غير مكتملة")
	}

	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}
	if pkg.Status == "" {
		pkg.Status = models.PackageStatusPending
	}

	if pkg.TrackingNumber == "" {
		tracking, err := GenerateTrackingNumber(time.Now())
		if err != nil {
			return err
		}
		pkg.TrackingNumber = tracking
	}

	if err := s.packageRepo.CreatePackage(ctx, pkg); err != nil {
		return err
	}

	s.publishEvent(ctx, "package_created", pkg)

	s.activity.Log(ctx, &models.ActivityEntry{
		Action:        fmt.Sprintf("إنشاء طرد %s", pkg.TrackingNumber),
		UserName:      "إدارة التوزيع",
		Role:          "مشرف",
		Type:          models.ActivityTypeCreate,
		BeneficiaryID: pkg.BeneficiaryID,
		Source:        models.ActivitySourceAdmin,
	})

	return nil
}

func (s *PackageService) GetPackages(ctx context.Context, beneficiaryID string) ([]*models.Package, error) {
	return s.packageRepo.GetPackagesByBeneficiary(ctx, beneficiaryID)
}

func (s *PackageService) GetPackage(ctx context.Context, beneficiaryID, packageID string) (*models.Package, error) {
	pkg, err := s.packageRepo.GetPackageByID(ctx, beneficiaryID, packageID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "الطرد غير موجود")
		}
		return nil, err
	}
	return pkg, nil
}

// AdvanceStatus moves a package to the next lifecycle state. Skipping states
// or moving backwards is rejected.
func (s *PackageService) AdvanceStatus(ctx context.Context, beneficiaryID, packageID, newStatus, beneficiaryName, beneficiaryPhone string) (*models.Package, error) {
	pkg, err := s.GetPackage(ctx, beneficiaryID, packageID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range models.NextPackageStatuses(pkg.Status) {
		if next == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apierr.New(apierr.KindConflict,
			fmt.Sprintf("لا يمكن نقل الطرد من الحالة %s إلى %s", pkg.Status, newStatus))
	}

	var deliveredAt *time.Time
	if newStatus == models.PackageStatusDelivered {
		now := time.Now().UTC()
		deliveredAt = &now
	}

	if err := s.packageRepo.UpdatePackageStatus(ctx, beneficiaryID, packageID, newStatus, deliveredAt); err != nil {
		return nil, err
	}

	pkg.Status = newStatus
	pkg.DeliveredAt = deliveredAt

	s.publishEvent(ctx, "package_status_changed", pkg)

	if beneficiaryPhone != "" {
		err := s.notifications.Enqueue(ctx, &EnqueueRequest{
			BeneficiaryID:    beneficiaryID,
			NotificationType: whatsapp.TypePackageStatusChange,
			PackageID:        packageID,
			Phone:            beneficiaryPhone,
			Variables: map[string]string{
				"name":         beneficiaryName,
				"package_name": pkg.Name,
				"new_status":   StatusLabel(newStatus),
			},
		})
		if err != nil {
			util.Warn("Status notification not queued",
				zap.String("package_id", packageID),
				zap.Error(err))
		}
	}

	activityType := models.ActivityTypeUpdate
	if newStatus == models.PackageStatusDelivered {
		activityType = models.ActivityTypeDeliver
	}
	s.activity.Log(ctx, &models.ActivityEntry{
		Action:        fmt.Sprintf("تحديث حالة الطرد %s إلى %s", pkg.TrackingNumber, StatusLabel(newStatus)),
		UserName:      "إدارة التوزيع",
		Role:          "مشرف",
		Type:          activityType,
		BeneficiaryID: beneficiaryID,
		Source:        models.ActivitySourceAdmin,
	})

	return pkg, nil
}

// Courier resolves courier details for an assigned package
func (s *PackageService) Courier(ctx context.Context, courierID string) (*models.Courier, error) {
	courier, err := s.courierRepo.GetCourier(ctx, courierID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "المندوب غير موجود")
		}
		return nil, err
	}
	return courier, nil
}

func (s *PackageService) publishEvent(ctx context.Context, eventType string, pkg *models.Package) {
	// producer is nil when Kafka was unavailable at startup
	if s.producer == nil {
		return
	}

	event := PackageEvent{
		EventType:      eventType,
		PackageID:      pkg.ID,
		BeneficiaryID:  pkg.BeneficiaryID,
		TrackingNumber: pkg.TrackingNumber,
		Status:         pkg.Status,
		OccurredAt:     time.Now().UTC(),
	}

	if err := s.producer.PublishJSON(ctx, s.topic, pkg.ID, event); err != nil {
		util.Warn("Package event not published",
			zap.String("package_id", pkg.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// StatusLabel maps a package status to its Arabic display form
func StatusLabel(status string) string {
	switch status {
	case models.PackageStatusPending:
		return "قيد التجهيز"
	case models.PackageStatusAssigned:
		return "تم الإسناد للمندوب"
	case models.PackageStatusInDelivery:
		return "قيد التوصيل"
	case models.PackageStatusDelivered:
		return "تم التسليم"
	default:
		return status
	}
}
