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
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/hashing"
	"beneficiary-portal/internal/models"
	redisrepo "beneficiary-portal/internal/repository/redis"
	"beneficiary-portal/internal/repository/scylla"
	"beneficiary-portal/internal/util"
	"beneficiary-portal/internal/validate"
)

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// otpVerifyWindow bounds how many recent codes a verify attempt compares
// against; it only needs to cover the per-window issue quota.
const otpVerifyWindow = 5

// AttemptCounter tracks consecutive login failures. The Redis-backed
// implementation keeps counting atomic across portal instances.
type AttemptCounter interface {
	IncrementAttempts(ctx context.Context, nationalID string, window time.Duration) (int, error)
	ResetAttempts(ctx context.Context, nationalID string) error
	SetLock(ctx context.Context, nationalID string, duration time.Duration) error
	GetLockRemaining(ctx context.Context, nationalID string) (time.Duration, error)
}

// OTPThrottle counts codes issued per beneficiary per window
type OTPThrottle interface {
	CountIssue(ctx context.Context, beneficiaryID, purpose string, window time.Duration) (int, error)
}

var (
	_ AttemptCounter = (*redisrepo.AttemptCache)(nil)
	_ OTPThrottle    = (*redisrepo.OTPCache)(nil)
)

// AuthService owns PIN verification, lockout, OTPs and temporary passwords.
// Attempt counting goes through Redis so concurrent failures around the
// lockout threshold cannot lose increments.
type AuthService struct {
	authRepo        scylla.AuthRepository
	otpRepo         scylla.OTPRepository
	resetRepo       scylla.ResetRepository
	beneficiaryRepo scylla.BeneficiaryRepository
	attempts        AttemptCounter
	otpThrottle     OTPThrottle
	hasher          *hashing.Hasher
	portalCfg       config.PortalConfig
}

func NewAuthService(
	authRepo scylla.AuthRepository,
	otpRepo scylla.OTPRepository,
	resetRepo scylla.ResetRepository,
	beneficiaryRepo scylla.BeneficiaryRepository,
	attempts AttemptCounter,
	otpThrottle OTPThrottle,
	hasher *hashing.Hasher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		authRepo:        authRepo,
		otpRepo:         otpRepo,
		resetRepo:       resetRepo,
		beneficiaryRepo: beneficiaryRepo,
		attempts:        attempts,
		otpThrottle:     otpThrottle,
		hasher:          hasher,
		portalCfg:       cfg.Portal,
	}
}

// CreateAuth provisions the credential record for a beneficiary. The first
// login flag stays set until the beneficiary picks their own PIN.
func (s *AuthService) CreateAuth(ctx context.Context, beneficiaryID, nationalID, pin string) (*models.BeneficiaryAuth, error) {
	nationalID = validate.CleanNationalID(nationalID)
	if !validate.NationalID(nationalID) {
		return nil, apierr.New(apierr.KindValidation, "رقم الهوية يجب أن يتكون من 9 أرقام")
	}
	if !validate.PIN(pin) {
		return nil, apierr.New(apierr.KindValidation, "كلمة المرور يجب أن تتكون من 6 أرقام")
	}

	result, err := s.hasher.HashPIN(pin)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	auth := &models.BeneficiaryAuth{
		ID:            uuid.New().String(),
		BeneficiaryID: beneficiaryID,
		NationalID:    nationalID,
		PasswordHash:  result.Hash,
		PasswordSalt:  result.Salt,
		HashAlgorithm: result.Algorithm,
		IsFirstLogin:  true,
	}

	if err := s.authRepo.CreateAuth(ctx, auth); err != nil {
		if errors.Is(err, scylla.ErrAuthExists) {
			return nil, apierr.New(apierr.KindConflict, "يوجد حساب مسجل لهذا الرقم مسبقاً")
		}
		return nil, fmt.Errorf("failed to create auth record: %w", err)
	}

	return auth, nil
}

// VerifyPIN checks the credential and drives the lockout state machine.
// Five consecutive failures lock the account for the configured duration;
// a success resets the counter.
func (s *AuthService) VerifyPIN(ctx context.Context, nationalID, pin string) (*models.BeneficiaryAuth, error) {
	nationalID = validate.CleanNationalID(nationalID)

	auth, err := s.authRepo.GetAuthByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "رقم الهوية غير موجود")
		}
		return nil, fmt.Errorf("failed to load auth record: %w", err)
	}

	if locked, lockErr := s.isLocked(ctx, auth); lockErr != nil {
		return nil, lockErr
	} else if locked {
		return nil, apierr.New(apierr.KindLocked, "الحساب مقفل مؤقتاً. يرجى المحاولة لاحقاً")
	}

	ok, err := s.hasher.VerifyPIN(pin, &hashing.HashResult{
		Hash:      auth.PasswordHash,
		Salt:      auth.PasswordSalt,
		Algorithm: auth.HashAlgorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify PIN: %w", err)
	}

	if !ok {
		return nil, s.recordFailure(ctx, auth)
	}

	now := time.Now().UTC()
	if err := s.attempts.ResetAttempts(ctx, nationalID); err != nil {
		util.Warn("Failed to reset attempt counter after login", zap.Error(err))
	}
	if err := s.authRepo.RecordLoginSuccess(ctx, nationalID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	auth.LastLoginAt = &now
	auth.LoginAttempts = 0
	auth.LockedUntil = nil

	s.maybeRehash(ctx, auth, pin)

	util.Info("Beneficiary logged in",
		zap.String("beneficiary_id", auth.BeneficiaryID))
	return auth, nil
}

// isLocked consults the Redis lock first, then the persisted timestamp in
// case the cache was flushed.
func (s *AuthService) isLocked(ctx context.Context, auth *models.BeneficiaryAuth) (bool, error) {
	remaining, err := s.attempts.GetLockRemaining(ctx, auth.NationalID)
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	if remaining > 0 {
		return true, nil
	}
	if auth.LockedUntil != nil && auth.LockedUntil.After(time.Now().UTC()) {
		return true, nil
	}
	return false, nil
}

func (s *AuthService) recordFailure(ctx context.Context, auth *models.BeneficiaryAuth) error {
	count, err := s.attempts.IncrementAttempts(ctx, auth.NationalID, s.portalCfg.LockoutDuration)
	if err != nil {
		return fmt.Errorf("failed to count login failure: %w", err)
	}

	threshold := s.portalCfg.LockoutThreshold

	if count >= threshold {
		lockedUntil := time.Now().UTC().Add(s.portalCfg.LockoutDuration)
		if err := s.attempts.SetLock(ctx, auth.NationalID, s.portalCfg.LockoutDuration); err != nil {
			util.Warn("Failed to set cache lock", zap.Error(err))
		}
		if err := s.authRepo.RecordLoginFailure(ctx, auth.NationalID, count, &lockedUntil); err != nil {
			util.Warn("Failed to persist lockout", zap.Error(err))
		}
		return apierr.New(apierr.KindLocked,
			"تم قفل الحساب لمدة 30 دقيقة بسبب المحاولات المتكررة الفاشلة")
	}

	if err := s.authRepo.RecordLoginFailure(ctx, auth.NationalID, count, nil); err != nil {
		util.Warn("Failed to persist failure count", zap.Error(err))
	}
	return apierr.New(apierr.KindAuth,
		fmt.Sprintf("كلمة المرور غير صحيحة. المحاولات المتبقية: %d", threshold-count))
}

// maybeRehash upgrades a credential still on the legacy digest. Failure here
// never fails the login; the old hash keeps working.
func (s *AuthService) maybeRehash(ctx context.Context, auth *models.BeneficiaryAuth, pin string) {
	if auth.HashAlgorithm != hashing.AlgorithmLegacy {
		return
	}

	result, err := s.hasher.HashPIN(pin)
	if err != nil {
		util.Warn("Failed to rehash legacy credential", zap.Error(err))
		return
	}
	if err := s.authRepo.RehashPassword(ctx, auth.NationalID, result.Hash, result.Salt, result.Algorithm); err != nil {
		util.Warn("Failed to store rehashed credential", zap.Error(err))
		return
	}

	auth.PasswordHash = result.Hash
	auth.PasswordSalt = result.Salt
	auth.HashAlgorithm = result.Algorithm
	util.Info("Legacy credential upgraded",
		zap.String("beneficiary_id", auth.BeneficiaryID))
}

// UpdatePIN sets a new PIN and clears the first-login flag
func (s *AuthService) UpdatePIN(ctx context.Context, nationalID, newPIN string) error {
	nationalID = validate.CleanNationalID(nationalID)
	if !validate.PIN(newPIN) {
		return apierr.New(apierr.KindValidation, "كلمة المرور يجب أن تتكون من 6 أرقام")
	}

	result, err := s.hasher.HashPIN(newPIN)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}

	if err := s.authRepo.UpdatePassword(ctx, nationalID, result.Hash, result.Salt, result.Algorithm); err != nil {
		return fmt.Errorf("failed to update PIN: %w", err)
	}

	return nil
}

// CreateTemporaryPassword issues a single-use 24-hour password and returns
// the plaintext exactly once, for delivery over WhatsApp.
func (s *AuthService) CreateTemporaryPassword(ctx context.Context, nationalID string) (string, error) {
	auth, err := s.authRepo.GetAuthByNationalID(ctx, validate.CleanNationalID(nationalID))
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return "", apierr.New(apierr.KindNotFound, "رقم الهوية غير موجود")
		}
		return "", fmt.Errorf("failed to load auth record: %w", err)
	}

	plain, err := randomTempPassword(8)
	if err != nil {
		return "", fmt.Errorf("failed to generate temporary password: %w", err)
	}

	result, err := s.hasher.HashTempPassword(plain)
	if err != nil {
		return "", fmt.Errorf("failed to hash temporary password: %w", err)
	}

	reset := &models.PasswordReset{
		ID:            uuid.New().String(),
		AuthID:        auth.ID,
		TempHash:      result.Hash,
		TempSalt:      result.Salt,
		HashAlgorithm: result.Algorithm,
	}

	if err := s.resetRepo.CreateReset(ctx, reset); err != nil {
		return "", fmt.Errorf("failed to store temporary password: %w", err)
	}

	util.Info("Temporary password issued",
		zap.String("beneficiary_id", auth.BeneficiaryID))
	return plain, nil
}

// VerifyTemporaryPassword consumes an unexpired, unused ticket. A matching
// ticket is burned even though the caller still has to set a new PIN.
func (s *AuthService) VerifyTemporaryPassword(ctx context.Context, nationalID, tempPassword string) (*models.BeneficiaryAuth, error) {
	auth, err := s.authRepo.GetAuthByNationalID(ctx, validate.CleanNationalID(nationalID))
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindNotFound, "رقم الهوية غير موجود")
		}
		return nil, fmt.Errorf("failed to load auth record: %w", err)
	}

	reset, err := s.resetRepo.GetActiveReset(ctx, auth.ID)
	if err != nil {
		if errors.Is(err, scylla.ErrRecordNotFound) {
			return nil, apierr.New(apierr.KindAuth, "كلمة المرور المؤقتة غير صالحة")
		}
		return nil, fmt.Errorf("failed to load temporary password: %w", err)
	}

	if reset.IsUsed || time.Now().UTC().After(reset.ExpiresAt) {
		return nil, apierr.New(apierr.KindAuth, "كلمة المرور المؤقتة غير صالحة")
	}

	ok, err := s.hasher.VerifyTempPassword(tempPassword, &hashing.HashResult{
		Hash:      reset.TempHash,
		Salt:      reset.TempSalt,
		Algorithm: reset.HashAlgorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify temporary password: %w", err)
	}
	if !ok {
		return nil, apierr.New(apierr.KindAuth, "كلمة المرور المؤقتة غير صالحة")
	}

	if err := s.resetRepo.MarkUsed(ctx, reset); err != nil {
		return nil, fmt.Errorf("failed to consume temporary password: %w", err)
	}

	return auth, nil
}

// GenerateOTP issues a 6-digit code for the given purpose, throttled per
// beneficiary per window. The plaintext code is returned for delivery and
// only its hash is stored.
func (s *AuthService) GenerateOTP(ctx context.Context, beneficiaryID, purpose string) (string, error) {
	if !models.ValidOTPPurpose(purpose) {
		return "", apierr.New(apierr.KindValidation, "غرض رمز التحقق غير معروف")
	}

	issued, err := s.otpThrottle.CountIssue(ctx, beneficiaryID, purpose, s.portalCfg.OTPWindow)
	if err != nil {
		return "", fmt.Errorf("failed to throttle OTP issue: %w", err)
	}
	if issued > s.portalCfg.OTPMaxPerWindow {
		return "", apierr.New(apierr.KindRateLimited,
			"تم طلب عدد كبير من رموز التحقق. يرجى الانتظار قبل المحاولة مجدداً")
	}

	code, err := randomOTPCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	result, err := s.hasher.HashOTP(code)
	if err != nil {
		return "", fmt.Errorf("failed to hash OTP: %w", err)
	}

	otp := &models.OTP{
		ID:            uuid.New().String(),
		BeneficiaryID: beneficiaryID,
		OTPHash:       result.Hash,
		OTPSalt:       result.Salt,
		HashAlgorithm: result.Algorithm,
		Purpose:       purpose,
	}

	if err := s.otpRepo.CreateOTP(ctx, otp); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	util.Info("OTP issued",
		zap.String("beneficiary_id", beneficiaryID),
		zap.String("purpose", purpose))
	return code, nil
}

// VerifyOTP compares the code against the recent unverified codes for the
// purpose; any unexpired match consumes, so a re-requested code does not
// invalidate the one delivered before it. A code verifies at most once;
// expiry and mismatch return the same error so the caller learns nothing
// about which code exists.
func (s *AuthService) VerifyOTP(ctx context.Context, beneficiaryID, code, purpose string) error {
	otps, err := s.otpRepo.GetRecentOTPs(ctx, beneficiaryID, purpose, otpVerifyWindow)
	if err != nil {
		return fmt.Errorf("failed to load OTPs: %w", err)
	}

	now := time.Now().UTC()
	for _, otp := range otps {
		if otp.IsVerified || now.After(otp.ExpiresAt) {
			continue
		}

		ok, err := s.hasher.VerifyOTP(code, &hashing.HashResult{
			Hash:      otp.OTPHash,
			Salt:      otp.OTPSalt,
			Algorithm: otp.HashAlgorithm,
		})
		if err != nil {
			return fmt.Errorf("failed to verify OTP: %w", err)
		}
		if !ok {
			continue
		}

		if err := s.otpRepo.MarkVerified(ctx, otp); err != nil {
			return fmt.Errorf("failed to consume OTP: %w", err)
		}
		return nil
	}

	return apierr.New(apierr.KindAuth, "رمز التحقق غير صحيح أو منتهي الصلاحية")
}

// UpdatePortalAccess stamps the beneficiary's last portal visit
func (s *AuthService) UpdatePortalAccess(ctx context.Context, beneficiaryID string) error {
	return s.beneficiaryRepo.UpdatePortalAccess(ctx, beneficiaryID, time.Now().UTC())
}

func randomOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func randomTempPassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
