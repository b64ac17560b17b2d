package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"beneficiary-portal/internal/bucketing"
	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/encryption"
	"beneficiary-portal/internal/hashing"
	"beneficiary-portal/internal/repository/clickhouse"
	redisrepo "beneficiary-portal/internal/repository/redis"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/search"
	"beneficiary-portal/internal/service"
	"beneficiary-portal/internal/tls"
	"beneficiary-portal/internal/util"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

const featureCacheTTL = 30 * time.Second

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Managers
	hasher            *hashing.Hasher
	encryptionManager *encryption.Manager
	bucketingManager  *bucketing.Manager

	// Repositories and caches
	beneficiaryRepo scylla.BeneficiaryRepository
	authRepo        scylla.AuthRepository
	otpRepo         scylla.OTPRepository
	resetRepo       scylla.ResetRepository
	packageRepo     scylla.PackageRepository
	featureRepo     scylla.FeatureRepository
	notifRepo       scylla.NotificationRepository
	directoryRepo   scylla.DirectoryRepository
	activityRepo    *clickhouse.ActivityRepository
	attemptCache    *redisrepo.AttemptCache
	otpCache        *redisrepo.OTPCache
	featureCache    *redisrepo.FeatureCache
	index           *search.BeneficiaryIndex

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		tlsConfig := &tls.TLSConfig{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
			Environment: cfg.Environment,
		}
		factory.tlsManager = tls.NewTLSManager(tlsConfig)
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeManagers()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kms_enabled", cfg.KMS.Enabled),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// Redis
	if redisClient, err := client.NewRedisClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = redisClient
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	// ScyllaDB
	if scyllaClient, err := scylla.NewScyllaClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = scyllaClient
		if err := f.scyllaClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		} else {
			util.Info("ScyllaDB client initialized and healthy")
		}
	}

	// Kafka is best-effort: the portal keeps working without event publishing
	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
		util.Info("Kafka producer initialized")
	}

	// Elasticsearch
	if esClient, err := client.NewElasticsearchClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
	} else {
		f.esClient = esClient
		if err := f.esClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	// ClickHouse
	if chClient, err := client.NewClickHouseClient(f.config); err != nil {
		initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
	} else {
		f.clickhouseClient = chClient
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializeManagers initializes hashing, encryption, and bucketing managers
func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher(f.config)

	var kmsClient *kms.Client
	if f.config.KMS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.config.KMS.Region))
		if err != nil {
			util.Warn("KMS disabled - could not load AWS config", util.ErrorField(err))
		} else {
			kmsClient = kms.NewFromConfig(awsCfg)
		}
	}

	f.encryptionManager = encryption.NewManager(f.config, kmsClient)
	f.bucketingManager = bucketing.NewManager(f.config)

	util.Info("Managers initialized successfully",
		util.Bool("hashing_initialized", f.hasher != nil),
		util.Bool("encryption_initialized", f.encryptionManager != nil),
		util.Bool("bucketing_initialized", f.bucketingManager != nil),
	)
}

// ==============================
// Repository Initialization
// ==============================

func (f *Factory) BeneficiaryRepository() scylla.BeneficiaryRepository {
	if f.beneficiaryRepo == nil {
		f.beneficiaryRepo = scylla.NewBeneficiaryRepository(f.scyllaClient, f.bucketingManager)
	}
	return f.beneficiaryRepo
}

func (f *Factory) AuthRepository() scylla.AuthRepository {
	if f.authRepo == nil {
		f.authRepo = scylla.NewAuthRepository(f.scyllaClient)
	}
	return f.authRepo
}

func (f *Factory) OTPRepository() scylla.OTPRepository {
	if f.otpRepo == nil {
		f.otpRepo = scylla.NewOTPRepository(f.scyllaClient, f.config.Portal.OTPTTL)
	}
	return f.otpRepo
}

func (f *Factory) ResetRepository() scylla.ResetRepository {
	if f.resetRepo == nil {
		f.resetRepo = scylla.NewResetRepository(f.scyllaClient, f.config.Portal.TempPasswordTTL)
	}
	return f.resetRepo
}

func (f *Factory) PackageRepository() scylla.PackageRepository {
	if f.packageRepo == nil {
		f.packageRepo = scylla.NewPackageRepository(f.scyllaClient)
	}
	return f.packageRepo
}

func (f *Factory) FeatureRepository() scylla.FeatureRepository {
	if f.featureRepo == nil {
		f.featureRepo = scylla.NewFeatureRepository(f.scyllaClient)
	}
	return f.featureRepo
}

func (f *Factory) NotificationRepository() scylla.NotificationRepository {
	if f.notifRepo == nil {
		f.notifRepo = scylla.NewNotificationRepository(f.scyllaClient)
	}
	return f.notifRepo
}

func (f *Factory) DirectoryRepository() scylla.DirectoryRepository {
	if f.directoryRepo == nil {
		f.directoryRepo = scylla.NewDirectoryRepository(f.scyllaClient)
	}
	return f.directoryRepo
}

func (f *Factory) ActivityRepository() *clickhouse.ActivityRepository {
	if f.activityRepo == nil {
		f.activityRepo = clickhouse.NewActivityRepository(f.clickhouseClient)
	}
	return f.activityRepo
}

func (f *Factory) AttemptCache() *redisrepo.AttemptCache {
	if f.attemptCache == nil {
		f.attemptCache = redisrepo.NewAttemptCache(f.redisClient)
	}
	return f.attemptCache
}

func (f *Factory) OTPCache() *redisrepo.OTPCache {
	if f.otpCache == nil {
		f.otpCache = redisrepo.NewOTPCache(f.redisClient, f.bucketingManager)
	}
	return f.otpCache
}

func (f *Factory) FeatureCache() *redisrepo.FeatureCache {
	if f.featureCache == nil {
		f.featureCache = redisrepo.NewFeatureCache(f.redisClient, featureCacheTTL)
	}
	return f.featureCache
}

func (f *Factory) BeneficiaryIndex() *search.BeneficiaryIndex {
	if f.index == nil {
		f.index = search.NewBeneficiaryIndex(f.esClient, f.config)
	}
	return f.index
}

// ==============================
// Service Factory
// ==============================

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(service.FactoryDeps{
			Config:          f.config,
			BeneficiaryRepo: f.BeneficiaryRepository(),
			AuthRepo:        f.AuthRepository(),
			OTPRepo:         f.OTPRepository(),
			ResetRepo:       f.ResetRepository(),
			PackageRepo:     f.PackageRepository(),
			FeatureRepo:     f.FeatureRepository(),
			NotifRepo:       f.NotificationRepository(),
			DirectoryRepo:   f.DirectoryRepository(),
			ActivityRepo:    f.ActivityRepository(),
			AttemptCache:    f.AttemptCache(),
			OTPCache:        f.OTPCache(),
			FeatureCache:    f.FeatureCache(),
			Hasher:          f.hasher,
			EncryptionMgr:   f.encryptionManager,
			Index:           f.BeneficiaryIndex(),
			Producer:        f.kafkaProducer,
		})
	}
	return f.serviceFactory
}

// ==============================
// Health Checks
// ==============================

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(ctx); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	} else {
		healthErrors["elasticsearch"] = fmt.Errorf("elasticsearch client not initialized")
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	} else {
		healthErrors["clickhouse"] = fmt.Errorf("clickhouse client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	if f.hasher == nil {
		healthErrors["hasher"] = fmt.Errorf("hasher not initialized")
	}
	if f.encryptionManager == nil {
		healthErrors["encryption"] = fmt.Errorf("encryption manager not initialized")
	}
	if f.bucketingManager == nil {
		healthErrors["bucketing"] = fmt.Errorf("bucketing manager not initialized")
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.scyllaClient != nil {
			f.scyllaClient.Close()
			util.Info("ScyllaDB client closed")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.encryptionManager != nil {
			f.encryptionManager.ClearCache()
			util.Info("Encryption manager cache cleared")
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) ScyllaClient() *scylla.ScyllaClient {
	return f.scyllaClient
}

func (f *Factory) Hasher() *hashing.Hasher {
	return f.hasher
}

func (f *Factory) EncryptionManager() *encryption.Manager {
	return f.encryptionManager
}

func (f *Factory) BucketingManager() *bucketing.Manager {
	return f.bucketingManager
}
