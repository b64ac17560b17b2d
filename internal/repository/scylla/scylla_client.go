package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/util"
)

// PreparedStatements holds the hot-path queries prepared once at startup
type PreparedStatements struct {
	// beneficiaries
	CreateBeneficiary      *gocql.Query
	CreateNationalIDLookup *gocql.Query
	GetBeneficiaryByID     *gocql.Query
	GetNationalIDLookup    *gocql.Query
	UpdateBeneficiary      *gocql.Query
	UpdatePortalAccess     *gocql.Query

	// beneficiary_auth
	CreateAuth         *gocql.Query
	GetAuthByNational  *gocql.Query
	UpdateLoginSuccess *gocql.Query
	UpdateLoginFailure *gocql.Query
	UpdatePassword     *gocql.Query
	RehashPassword     *gocql.Query

	// beneficiary_otp
	CreateOTP       *gocql.Query
	GetRecentOTPs   *gocql.Query
	MarkOTPVerified *gocql.Query

	// beneficiary_password_resets
	CreateReset    *gocql.Query
	GetActiveReset *gocql.Query
	MarkResetUsed  *gocql.Query

	// packages
	CreatePackage            *gocql.Query
	GetPackagesByBeneficiary *gocql.Query
	GetPackageByID           *gocql.Query
	UpdatePackageStatus      *gocql.Query

	// system_features
	GetFeature    *gocql.Query
	UpdateFeature *gocql.Query

	// whatsapp_notifications_queue
	CreateNotification       *gocql.Query
	GetNotificationByID      *gocql.Query
	UpdateNotificationStatus *gocql.Query
}

type ScyllaClient struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.Mutex
	isPrepared   bool
}

func NewScyllaClient(cfg *config.Config) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
	}

	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized with prepared statements",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (s *ScyllaClient) prepareStatements() error {
	s.prepareMutex.Lock()
	defer s.prepareMutex.Unlock()

	if s.isPrepared {
		return nil
	}

	prepared := &PreparedStatements{}

	prepared.CreateBeneficiary = s.Session.Query(`
        INSERT INTO beneficiaries (
            bucket, beneficiary_id, name, national_id, phone_encrypted, phone_dek,
            phone_key_id, address, governorate, organization_id, family_id,
            status, identity_status, last_portal_access, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateNationalIDLookup = s.Session.Query(`
        INSERT INTO national_id_to_beneficiary (bucket, national_id, beneficiary_id, created_at)
        VALUES (?, ?, ?, ?)`)

	prepared.GetBeneficiaryByID = s.Session.Query(`
        SELECT bucket, beneficiary_id, name, national_id, phone_encrypted, phone_dek,
            phone_key_id, address, governorate, organization_id, family_id,
            status, identity_status, last_portal_access, created_at, updated_at
        FROM beneficiaries WHERE bucket = ? AND beneficiary_id = ?`)

	prepared.GetNationalIDLookup = s.Session.Query(`
        SELECT beneficiary_id FROM national_id_to_beneficiary
        WHERE bucket = ? AND national_id = ?`)

	prepared.UpdateBeneficiary = s.Session.Query(`
        UPDATE beneficiaries SET name = ?, phone_encrypted = ?, phone_dek = ?,
            phone_key_id = ?, address = ?, governorate = ?, status = ?,
            identity_status = ?, updated_at = ?
        WHERE bucket = ? AND beneficiary_id = ?`)

	prepared.UpdatePortalAccess = s.Session.Query(`
        UPDATE beneficiaries SET last_portal_access = ?
        WHERE bucket = ? AND beneficiary_id = ?`)

	prepared.CreateAuth = s.Session.Query(`
        INSERT INTO beneficiary_auth (
            national_id, auth_id, beneficiary_id, password_hash, password_salt,
            hash_algorithm, is_first_login, last_login_at, login_attempts,
            locked_until, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`)

	prepared.GetAuthByNational = s.Session.Query(`
        SELECT national_id, auth_id, beneficiary_id, password_hash, password_salt,
            hash_algorithm, is_first_login, last_login_at, login_attempts,
            locked_until, created_at, updated_at
        FROM beneficiary_auth WHERE national_id = ?`)

	prepared.UpdateLoginSuccess = s.Session.Query(`
        UPDATE beneficiary_auth SET last_login_at = ?, login_attempts = 0,
            locked_until = null, updated_at = ?
        WHERE national_id = ?`)

	prepared.UpdateLoginFailure = s.Session.Query(`
        UPDATE beneficiary_auth SET login_attempts = ?, locked_until = ?, updated_at = ?
        WHERE national_id = ?`)

	prepared.UpdatePassword = s.Session.Query(`
        UPDATE beneficiary_auth SET password_hash = ?, password_salt = ?,
            hash_algorithm = ?, is_first_login = false, updated_at = ?
        WHERE national_id = ?`)

	prepared.RehashPassword = s.Session.Query(`
        UPDATE beneficiary_auth SET password_hash = ?, password_salt = ?,
            hash_algorithm = ?, updated_at = ?
        WHERE national_id = ?`)

	prepared.CreateOTP = s.Session.Query(`
        INSERT INTO beneficiary_otp (
            beneficiary_id, purpose, created_at, otp_id, otp_hash, otp_salt,
            hash_algorithm, is_verified, expires_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) USING TTL ?`)

	prepared.GetRecentOTPs = s.Session.Query(`
        SELECT beneficiary_id, purpose, created_at, otp_id, otp_hash, otp_salt,
            hash_algorithm, is_verified, expires_at
        FROM beneficiary_otp WHERE beneficiary_id = ? AND purpose = ? LIMIT ?`)

	prepared.MarkOTPVerified = s.Session.Query(`
        UPDATE beneficiary_otp SET is_verified = true
        WHERE beneficiary_id = ? AND purpose = ? AND created_at = ? AND otp_id = ?`)

	prepared.CreateReset = s.Session.Query(`
        INSERT INTO beneficiary_password_resets (
            auth_id, created_at, reset_id, temp_password_hash, temp_password_salt,
            hash_algorithm, is_used, expires_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?) USING TTL ?`)

	prepared.GetActiveReset = s.Session.Query(`
        SELECT auth_id, created_at, reset_id, temp_password_hash, temp_password_salt,
            hash_algorithm, is_used, expires_at
        FROM beneficiary_password_resets WHERE auth_id = ? LIMIT 1`)

	prepared.MarkResetUsed = s.Session.Query(`
        UPDATE beneficiary_password_resets SET is_used = true
        WHERE auth_id = ? AND created_at = ? AND reset_id = ?`)

	prepared.CreatePackage = s.Session.Query(`
        INSERT INTO packages (
            beneficiary_id, package_id, name, type, organization_id, courier_id,
            status, tracking_number, scheduled_delivery_date, delivered_at,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetPackagesByBeneficiary = s.Session.Query(`
        SELECT beneficiary_id, package_id, name, type, organization_id, courier_id,
            status, tracking_number, scheduled_delivery_date, delivered_at,
            created_at, updated_at
        FROM packages WHERE beneficiary_id = ?`)

	prepared.GetPackageByID = s.Session.Query(`
        SELECT beneficiary_id, package_id, name, type, organization_id, courier_id,
            status, tracking_number, scheduled_delivery_date, delivered_at,
            created_at, updated_at
        FROM packages WHERE beneficiary_id = ? AND package_id = ?`)

	prepared.UpdatePackageStatus = s.Session.Query(`
        UPDATE packages SET status = ?, delivered_at = ?, updated_at = ?
        WHERE beneficiary_id = ? AND package_id = ?`)

	prepared.GetFeature = s.Session.Query(`
        SELECT feature_id, feature_key, feature_name, is_enabled, settings,
            updated_by, updated_at
        FROM system_features WHERE feature_key = ?`)

	prepared.UpdateFeature = s.Session.Query(`
        UPDATE system_features SET is_enabled = ?, settings = ?, updated_by = ?, updated_at = ?
        WHERE feature_key = ?`)

	prepared.CreateNotification = s.Session.Query(`
        INSERT INTO whatsapp_notifications_queue (
            notification_id, beneficiary_id, notification_type, package_id,
            whatsapp_number, message_template, message_variables, status,
            sent_at, error_message, retry_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetNotificationByID = s.Session.Query(`
        SELECT notification_id, beneficiary_id, notification_type, package_id,
            whatsapp_number, message_template, message_variables, status,
            sent_at, error_message, retry_count, created_at, updated_at
        FROM whatsapp_notifications_queue WHERE notification_id = ?`)

	prepared.UpdateNotificationStatus = s.Session.Query(`
        UPDATE whatsapp_notifications_queue SET status = ?, sent_at = ?,
            error_message = ?, retry_count = ?, updated_at = ?
        WHERE notification_id = ?`)

	s.Prepared = prepared
	s.isPrepared = true

	util.Info("ScyllaDB prepared statements created")
	return nil
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) HealthCheck(ctx context.Context) error {
	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}
	return nil
}

// ExecuteWithRetry retries transient write failures with a linear backoff
func (s *ScyllaClient) ExecuteWithRetry(query *gocql.Query, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := query.Exec(); err != nil {
			lastErr = err
			if i < maxRetries {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}

// ScanWithRetry retries transient read failures; gocql.ErrNotFound is final
func (s *ScyllaClient) ScanWithRetry(query *gocql.Query, dest ...interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		err := query.Scan(dest...)
		if err == nil {
			return nil
		}
		if err == gocql.ErrNotFound {
			return err
		}
		lastErr = err
		if i < 2 {
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}
	return lastErr
}
