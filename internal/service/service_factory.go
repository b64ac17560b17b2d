package service

import (
	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/encryption"
	"beneficiary-portal/internal/hashing"
	"beneficiary-portal/internal/repository/clickhouse"
	redisrepo "beneficiary-portal/internal/repository/redis"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/search"
)

// ServiceFactory wires repositories into services, one instance each
type ServiceFactory struct {
	cfg *config.Config

	beneficiaryRepo scylla.BeneficiaryRepository
	authRepo        scylla.AuthRepository
	otpRepo         scylla.OTPRepository
	resetRepo       scylla.ResetRepository
	packageRepo     scylla.PackageRepository
	featureRepo     scylla.FeatureRepository
	notifRepo       scylla.NotificationRepository
	directoryRepo   scylla.DirectoryRepository
	activityRepo    *clickhouse.ActivityRepository

	attemptCache *redisrepo.AttemptCache
	otpCache     *redisrepo.OTPCache
	featureCache *redisrepo.FeatureCache

	hasher        *hashing.Hasher
	encryptionMgr *encryption.Manager
	index         *search.BeneficiaryIndex
	producer      *client.KafkaProducer

	authService         *AuthService
	beneficiaryService  *BeneficiaryService
	packageService      *PackageService
	notificationService *NotificationService
	featureService      *FeatureService
	activityService     *ActivityService
	statsService        *StatsService
}

type FactoryDeps struct {
	Config          *config.Config
	BeneficiaryRepo scylla.BeneficiaryRepository
	AuthRepo        scylla.AuthRepository
	OTPRepo         scylla.OTPRepository
	ResetRepo       scylla.ResetRepository
	PackageRepo     scylla.PackageRepository
	FeatureRepo     scylla.FeatureRepository
	NotifRepo       scylla.NotificationRepository
	DirectoryRepo   scylla.DirectoryRepository
	ActivityRepo    *clickhouse.ActivityRepository
	AttemptCache    *redisrepo.AttemptCache
	OTPCache        *redisrepo.OTPCache
	FeatureCache    *redisrepo.FeatureCache
	Hasher          *hashing.Hasher
	EncryptionMgr   *encryption.Manager
	Index           *search.BeneficiaryIndex
	Producer        *client.KafkaProducer
}

func NewServiceFactory(deps FactoryDeps) *ServiceFactory {
	return &ServiceFactory{
		cfg:             deps.Config,
		beneficiaryRepo: deps.BeneficiaryRepo,
		authRepo:        deps.AuthRepo,
		otpRepo:         deps.OTPRepo,
		resetRepo:       deps.ResetRepo,
		packageRepo:     deps.PackageRepo,
		featureRepo:     deps.FeatureRepo,
		notifRepo:       deps.NotifRepo,
		directoryRepo:   deps.DirectoryRepo,
		activityRepo:    deps.ActivityRepo,
		attemptCache:    deps.AttemptCache,
		otpCache:        deps.OTPCache,
		featureCache:    deps.FeatureCache,
		hasher:          deps.Hasher,
		encryptionMgr:   deps.EncryptionMgr,
		index:           deps.Index,
		producer:        deps.Producer,
	}
}

func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(
			f.authRepo, f.otpRepo, f.resetRepo, f.beneficiaryRepo,
			f.attemptCache, f.otpCache, f.hasher, f.cfg)
	}
	return f.authService
}

func (f *ServiceFactory) FeatureService() *FeatureService {
	if f.featureService == nil {
		f.featureService = NewFeatureService(f.featureRepo, f.featureCache, f.cfg)
	}
	return f.featureService
}

func (f *ServiceFactory) ActivityService() *ActivityService {
	if f.activityService == nil {
		f.activityService = NewActivityService(f.activityRepo)
	}
	return f.activityService
}

func (f *ServiceFactory) BeneficiaryService() *BeneficiaryService {
	if f.beneficiaryService == nil {
		f.beneficiaryService = NewBeneficiaryService(
			f.beneficiaryRepo, f.packageRepo, f.notifRepo, f.directoryRepo,
			f.encryptionMgr, f.index, f.FeatureService(), f.ActivityService(), f.cfg)
	}
	return f.beneficiaryService
}

func (f *ServiceFactory) NotificationService() *NotificationService {
	if f.notificationService == nil {
		f.notificationService = NewNotificationService(
			f.notifRepo, f.FeatureService(), f.producer, f.cfg)
	}
	return f.notificationService
}

func (f *ServiceFactory) PackageService() *PackageService {
	if f.packageService == nil {
		f.packageService = NewPackageService(
			f.packageRepo, f.directoryRepo, f.NotificationService(),
			f.ActivityService(), f.producer, f.cfg)
	}
	return f.packageService
}

func (f *ServiceFactory) StatsService() *StatsService {
	if f.statsService == nil {
		f.statsService = NewStatsService(f.NotificationService(), f.ActivityService())
	}
	return f.statsService
}
