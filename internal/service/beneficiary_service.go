package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/encryption"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/search"
	"beneficiary-portal/internal/util"
	"beneficiary-portal/internal/validate"
	"beneficiary-portal/internal/whatsapp"
)

// Dashboard is the single payload the portal home screen renders from
type Dashboard struct {
	Beneficiary   *models.Beneficiary            `json:"beneficiary"`
	Packages      []*models.Package              `json:"packages"`
	Notifications []*models.WhatsAppNotification `json:"notifications"`
}

// PublicSearchResult is what the anonymous search exposes: identity
// confirmation and package progress, nothing personal beyond the name.
type PublicSearchResult struct {
	Beneficiary *models.PublicBeneficiary `json:"beneficiary"`
	Packages    []*models.PackageSummary  `json:"packages"`
}

// SearchIndex mirrors beneficiaries into the name/ID search backend
type SearchIndex interface {
	IndexBeneficiary(ctx context.Context, b *models.Beneficiary) error
	SearchByName(ctx context.Context, name string, limit int) ([]*models.PublicBeneficiary, error)
	SearchByNationalID(ctx context.Context, nationalID string) ([]*models.PublicBeneficiary, error)
}

var _ SearchIndex = (*search.BeneficiaryIndex)(nil)

type BeneficiaryService struct {
	beneficiaryRepo scylla.BeneficiaryRepository
	packageRepo     scylla.PackageRepository
	notifRepo       scylla.NotificationRepository
	directoryRepo   scylla.DirectoryRepository
	encryptionMgr   *encryption.Manager
	index           SearchIndex
	features        *FeatureService
	activity        *ActivityService
	portalCfg       config.PortalConfig
}

func NewBeneficiaryService(
	beneficiaryRepo scylla.BeneficiaryRepository,
	packageRepo scylla.PackageRepository,
	notifRepo scylla.NotificationRepository,
	directoryRepo scylla.DirectoryRepository,
	encryptionMgr *encryption.Manager,
	index SearchIndex,
	features *FeatureService,
	activity *ActivityService,
	cfg *config.Config,
) *BeneficiaryService {
	return &BeneficiaryService{
		beneficiaryRepo: beneficiaryRepo,
		packageRepo:     packageRepo,
		notifRepo:       notifRepo,
		directoryRepo:   directoryRepo,
		encryptionMgr:   encryptionMgr,
		index:           index,
		features:        features,
		activity:        activity,
		portalCfg:       cfg.Portal,
	}
}

// RegisterBeneficiary creates the identity record, encrypting the phone
// before it touches storage and mirroring searchable fields into the index.
func (s *BeneficiaryService) RegisterBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	b.NationalID = validate.CleanNationalID(b.NationalID)
	if !validate.NationalID(b.NationalID) {
		return apierr.New(apierr.KindValidation, "رقم الهوية يجب أن يتكون من 9 أرقام")
	}
	if b.Phone != "" && !validate.PhoneNumber(b.Phone) {
		return apierr.New(apierr.KindValidation, "رقم الهاتف غير صالح")
	}

	if existing, err := s.beneficiaryRepo.GetBeneficiaryByNationalID(ctx, b.NationalID); err == nil && existing != nil {
		return apierr.New(apierr.KindConflict, "رقم الهوية مسجل مسبقاً")
	} else if err != nil && !errors.Is(err, scylla.ErrRecordNotFound) {
		return fmt.Errorf("failed to check national ID: %w", err)
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	if b.Phone != "" {
		field, err := s.encryptionMgr.EncryptPhone(ctx, whatsapp.FormatPhoneNumber(b.Phone))
		if err != nil {
			return fmt.Errorf("failed to encrypt phone: %w", err)
		}
		b.PhoneEncrypted = field.Ciphertext
		b.PhoneDEK = field.EncryptedDEK
		b.PhoneKeyID = field.KeyID
	}

	if err := s.beneficiaryRepo.CreateBeneficiary(ctx, b); err != nil {
		return err
	}

	if err := s.index.IndexBeneficiary(ctx, b); err != nil {
		util.Warn("Beneficiary not indexed for search",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
	}

	s.activity.Log(ctx, &models.ActivityEntry{
		Action:        "تسجيل مستفيد جديد",
		UserName:      b.Name,
		Role:          "مستفيد",
		Type:          models.ActivityTypeCreate,
		BeneficiaryID: b.ID,
		Source:        models.ActivitySourceBeneficiary,
	})

	return nil
}

// GetByNationalID resolves a beneficiary and decrypts the phone for display
func (s *BeneficiaryService) GetByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, error) {
	nationalID = validate.CleanNationalID(nationalID)
	if !validate.NationalID(nationalID) {
		return nil, apierr.New(apierr.KindValidation, "رقم الهوية يجب أن يتكون من 9 أرقام")
	}

	b, err := s.beneficiaryRepo.GetBeneficiaryByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "رقم الهوية غير موجود")
		}
		return nil, err
	}

	s.decryptPhone(ctx, b)
	return b, nil
}

func (s *BeneficiaryService) GetByID(ctx context.Context, beneficiaryID string) (*models.Beneficiary, error) {
	b, err := s.beneficiaryRepo.GetBeneficiaryByID(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "المستفيد غير موجود")
		}
		return nil, err
	}

	s.decryptPhone(ctx, b)
	return b, nil
}

// decryptPhone fills the transient Phone field; a decryption failure leaves
// it empty rather than failing the read.
func (s *BeneficiaryService) decryptPhone(ctx context.Context, b *models.Beneficiary) {
	if b.PhoneEncrypted == "" {
		return
	}

	phone, err := s.encryptionMgr.DecryptPhone(ctx, &encryption.EncryptedField{
		Ciphertext:   b.PhoneEncrypted,
		EncryptedDEK: b.PhoneDEK,
		KeyID:        b.PhoneKeyID,
	})
	if err != nil {
		util.Warn("Failed to decrypt phone",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
		return
	}
	b.Phone = phone
}

// UpdateProfile applies editable fields and refreshes the search mirror
func (s *BeneficiaryService) UpdateProfile(ctx context.Context, beneficiaryID, phone, address, governorate string) (*models.Beneficiary, error) {
	b, err := s.beneficiaryRepo.GetBeneficiaryByID(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "المستفيد غير موجود")
		}
		return nil, err
	}

	if phone != "" {
		if !validate.PhoneNumber(phone) {
			return nil, apierr.New(apierr.KindValidation, "رقم الهاتف غير صالح")
		}
		field, err := s.encryptionMgr.EncryptPhone(ctx, whatsapp.FormatPhoneNumber(phone))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt phone: %w", err)
		}
		b.PhoneEncrypted = field.Ciphertext
		b.PhoneDEK = field.EncryptedDEK
		b.PhoneKeyID = field.KeyID
	}
	if address != "" {
		b.Address = address
	}
	if governorate != "" {
		b.Governorate = governorate
	}

	if err := s.beneficiaryRepo.UpdateBeneficiary(ctx, b); err != nil {
		return nil, err
	}

	if err := s.index.IndexBeneficiary(ctx, b); err != nil {
		util.Warn("Beneficiary reindex failed",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
	}

	s.activity.Log(ctx, &models.ActivityEntry{
		Action:        "تحديث البيانات الشخصية",
		UserName:      b.Name,
		Role:          "مستفيد",
		Type:          models.ActivityTypeUpdate,
		BeneficiaryID: b.ID,
		Source:        models.ActivitySourceBeneficiary,
	})

	s.decryptPhone(ctx, b)
	return b, nil
}

// Dashboard loads the beneficiary record, packages and recent notifications
// concurrently.
func (s *BeneficiaryService) Dashboard(ctx context.Context, beneficiaryID string) (*Dashboard, error) {
	dashboard := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := s.GetByID(gctx, beneficiaryID)
		if err != nil {
			return err
		}
		dashboard.Beneficiary = b
		return nil
	})

	g.Go(func() error {
		packages, err := s.packageRepo.GetPackagesByBeneficiary(gctx, beneficiaryID)
		if err != nil {
			return err
		}
		dashboard.Packages = packages
		return nil
	})

	g.Go(func() error {
		notifications, err := s.notifRepo.GetNotificationsByBeneficiary(gctx, beneficiaryID, 20)
		if err != nil {
			return err
		}
		dashboard.Notifications = notifications
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dashboard, nil
}

// PublicSearch is the anonymous status lookup. It is feature-gated, returns
// only reduced shapes, and records the access under the configured public
// actor name instead of a personal identity.
func (s *BeneficiaryService) PublicSearch(ctx context.Context, nationalID string) (*PublicSearchResult, error) {
	snapshot, err := s.features.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature snapshot: %w", err)
	}
	if !snapshot.PublicSearchEnabled {
		return nil, apierr.New(apierr.KindValidation, "البحث العام غير متاح حالياً")
	}

	b, err := s.GetByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}

	packages, err := s.packageRepo.GetPackagesByBeneficiary(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.PackageSummary, 0, len(packages))
	for _, pkg := range packages {
		summaries = append(summaries, &models.PackageSummary{
			ID:                    pkg.ID,
			Name:                  pkg.Name,
			Status:                pkg.Status,
			ScheduledDeliveryDate: pkg.ScheduledDeliveryDate,
			TrackingNumber:        pkg.TrackingNumber,
		})
	}

	s.activity.Log(ctx, &models.ActivityEntry{
		Action:        "بحث عام عن حالة مستفيد",
		UserName:      s.portalCfg.PublicSearchActor,
		Role:          "زائر",
		Type:          models.ActivityTypeReview,
		BeneficiaryID: b.ID,
		Source:        models.ActivitySourcePublic,
	})

	return &PublicSearchResult{
		Beneficiary: &models.PublicBeneficiary{
			Name:       b.Name,
			NationalID: b.NationalID,
			Status:     b.Status,
		},
		Packages: summaries,
	}, nil
}

// AdminSearch runs the index search: a query that looks like a national ID
// becomes an exact term lookup, anything else a fuzzy name match.
func (s *BeneficiaryService) AdminSearch(ctx context.Context, query string, limit int) ([]*models.PublicBeneficiary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if cleaned := validate.CleanNationalID(query); validate.NationalID(cleaned) {
		return s.index.SearchByNationalID(ctx, cleaned)
	}
	return s.index.SearchByName(ctx, query, limit)
}

// Organization resolves the distributing organization for display
func (s *BeneficiaryService) Organization(ctx context.Context, organizationID string) (*models.Organization, error) {
	org, err := s.directoryRepo.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "الجهة غير موجودة")
		}
		return nil, err
	}
	return org, nil
}

// Family resolves the beneficiary's family record
func (s *BeneficiaryService) Family(ctx context.Context, familyID string) (*models.Family, error) {
	family, err := s.directoryRepo.GetFamily(ctx, familyID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "العائلة غير موجودة")
		}
		return nil, err
	}
	return family, nil
}
