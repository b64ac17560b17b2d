package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	Server        ServerConfig
	Scylla        ScyllaConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Clickhouse    ClickhouseConfig
	Hashing       HashingConfig
	KMS           KMSConfig
	Bucketing     BucketingConfig
	Portal        PortalConfig
	WhatsApp      WhatsAppConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	TLSPort      int
	EnableTLS    bool
	AutoCert     bool
	AutoCertDir  string
	Domain       string
	Email        string
	CertFile     string
	KeyFile      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	PackageTopic      string
}

type ElasticsearchConfig struct {
	URL              string
	Username         string
	Password         string
	BeneficiaryIndex string
}

type ClickhouseConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

type HashingConfig struct {
	Argon2MemoryCost  int
	Argon2TimeCost    int
	Argon2Parallelism int
	Pepper            string
}

type KMSConfig struct {
	Enabled bool
	KeyID   string
	Region  string
}

type BucketingConfig struct {
	BeneficiaryBuckets int
}

// PortalConfig carries the portal policy knobs. PublicSearchActor is the actor
// name recorded on anonymous lookups; configurable because the upstream choice
// of a generic system actor was never confirmed as intentional.
type PortalConfig struct {
	LockoutThreshold  int
	LockoutDuration   time.Duration
	OTPTTL            time.Duration
	OTPMaxPerWindow   int
	OTPWindow         time.Duration
	TempPasswordTTL   time.Duration
	PublicSearchActor string
}

type WhatsAppConfig struct {
	APIURL       string
	APIKey       string
	SenderNumber string
	SupportPhone string
	SendMode     string // "manual" or "auto"
}

type LoggingConfig struct {
	Level  string
	Format string
}

func LoadConfig() *Config {
	// .env is optional; real deployments inject environment directly
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			TLSPort:      getEnvInt("SERVER_TLS_PORT", 8443),
			EnableTLS:    getEnvBool("SERVER_ENABLE_TLS", false),
			AutoCert:     getEnvBool("SERVER_AUTO_CERT", false),
			AutoCertDir:  getEnv("SERVER_AUTOCERT_DIR", "/var/cache/portal-certs"),
			Domain:       getEnv("SERVER_DOMAIN", "localhost"),
			Email:        getEnv("SERVER_ACME_EMAIL", ""),
			CertFile:     getEnv("SERVER_CERT_FILE", ""),
			KeyFile:      getEnv("SERVER_KEY_FILE", ""),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Scylla: ScyllaConfig{
			Nodes:    getEnvList("SCYLLA_NODES", []string{"127.0.0.1:9042"}),
			Keyspace: getEnv("SCYLLA_KEYSPACE", "beneficiary_portal"),
			Username: getEnv("SCYLLA_USERNAME", ""),
			Password: getEnv("SCYLLA_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Kafka: KafkaConfig{
			Brokers:           getEnvList("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "portal.notifications"),
			PackageTopic:      getEnv("KAFKA_PACKAGE_TOPIC", "portal.packages"),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:              getEnv("ELASTICSEARCH_URL", "http://127.0.0.1:9200"),
			Username:         getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:         getEnv("ELASTICSEARCH_PASSWORD", ""),
			BeneficiaryIndex: getEnv("ELASTICSEARCH_BENEFICIARY_INDEX", "beneficiaries"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      getEnv("CLICKHOUSE_URL", "127.0.0.1:9000"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			Database: getEnv("CLICKHOUSE_DATABASE", "portal"),
		},
		Hashing: HashingConfig{
			Argon2MemoryCost:  getEnvInt("ARGON2_MEMORY_COST", 64*1024),
			Argon2TimeCost:    getEnvInt("ARGON2_TIME_COST", 3),
			Argon2Parallelism: getEnvInt("ARGON2_PARALLELISM", 2),
			Pepper:            getEnv("HASHING_PEPPER", ""),
		},
		KMS: KMSConfig{
			Enabled: getEnvBool("KMS_ENABLED", false),
			KeyID:   getEnv("KMS_KEY_ID", ""),
			Region:  getEnv("KMS_REGION", "eu-west-1"),
		},
		Bucketing: BucketingConfig{
			BeneficiaryBuckets: getEnvInt("BENEFICIARY_BUCKETS", 64),
		},
		Portal: PortalConfig{
			LockoutThreshold:  getEnvInt("PORTAL_LOCKOUT_THRESHOLD", 5),
			LockoutDuration:   getEnvDuration("PORTAL_LOCKOUT_DURATION", 30*time.Minute),
			OTPTTL:            getEnvDuration("PORTAL_OTP_TTL", 5*time.Minute),
			OTPMaxPerWindow:   getEnvInt("PORTAL_OTP_MAX_PER_WINDOW", 3),
			OTPWindow:         getEnvDuration("PORTAL_OTP_WINDOW", 10*time.Minute),
			TempPasswordTTL:   getEnvDuration("PORTAL_TEMP_PASSWORD_TTL", 24*time.Hour),
			PublicSearchActor: getEnv("PORTAL_PUBLIC_SEARCH_ACTOR", "نظام عام"),
		},
		WhatsApp: WhatsAppConfig{
			APIURL:       getEnv("WHATSAPP_API_URL", ""),
			APIKey:       getEnv("WHATSAPP_API_KEY", ""),
			SenderNumber: getEnv("WHATSAPP_SENDER_NUMBER", ""),
			SupportPhone: getEnv("WHATSAPP_SUPPORT_PHONE", "+970599000000"),
			SendMode:     getEnv("WHATSAPP_SEND_MODE", "manual"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
