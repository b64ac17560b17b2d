package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/hashing"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/scylla"
)

// In-memory fakes backing the auth flow tests. They mirror the repository
// contracts closely enough to exercise the lockout and single-use semantics.

type fakeAuthRepo struct {
	records   map[string]*models.BeneficiaryAuth
	createErr error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{records: make(map[string]*models.BeneficiaryAuth)}
}

func (r *fakeAuthRepo) CreateAuth(ctx context.Context, auth *models.BeneficiaryAuth) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.records[auth.NationalID]; exists {
		return scylla.ErrAuthExists
	}
	auth.CreatedAt = time.Now().UTC()
	r.records[auth.NationalID] = auth
	return nil
}

func (r *fakeAuthRepo) GetAuthByNationalID(ctx context.Context, nationalID string) (*models.BeneficiaryAuth, error) {
	auth, ok := r.records[nationalID]
	if !ok {
		return nil, scylla.ErrRecordNotFound
	}
	clone := *auth
	return &clone, nil
}

func (r *fakeAuthRepo) RecordLoginSuccess(ctx context.Context, nationalID string, at time.Time) error {
	auth := r.records[nationalID]
	auth.LastLoginAt = &at
	auth.LoginAttempts = 0
	auth.LockedUntil = nil
	return nil
}

func (r *fakeAuthRepo) RecordLoginFailure(ctx context.Context, nationalID string, attempts int, lockedUntil *time.Time) error {
	auth := r.records[nationalID]
	auth.LoginAttempts = attempts
	auth.LockedUntil = lockedUntil
	return nil
}

func (r *fakeAuthRepo) UpdatePassword(ctx context.Context, nationalID, hash, salt, algorithm string) error {
	auth := r.records[nationalID]
	auth.PasswordHash = hash
	auth.PasswordSalt = salt
	auth.HashAlgorithm = algorithm
	auth.IsFirstLogin = false
	return nil
}

func (r *fakeAuthRepo) RehashPassword(ctx context.Context, nationalID, hash, salt, algorithm string) error {
	auth := r.records[nationalID]
	auth.PasswordHash = hash
	auth.PasswordSalt = salt
	auth.HashAlgorithm = algorithm
	return nil
}

type fakeOTPRepo struct {
	otps []*models.OTP
	ttl  time.Duration
}

func (r *fakeOTPRepo) CreateOTP(ctx context.Context, otp *models.OTP) error {
	now := time.Now().UTC()
	otp.CreatedAt = now
	otp.ExpiresAt = now.Add(r.ttl)
	r.otps = append(r.otps, otp)
	return nil
}

func (r *fakeOTPRepo) GetRecentOTPs(ctx context.Context, beneficiaryID, purpose string, limit int) ([]*models.OTP, error) {
	var otps []*models.OTP
	for i := len(r.otps) - 1; i >= 0 && len(otps) < limit; i-- {
		if r.otps[i].BeneficiaryID == beneficiaryID && r.otps[i].Purpose == purpose {
			otps = append(otps, r.otps[i])
		}
	}
	return otps, nil
}

func (r *fakeOTPRepo) MarkVerified(ctx context.Context, otp *models.OTP) error {
	otp.IsVerified = true
	return nil
}

type fakeResetRepo struct {
	resets []*models.PasswordReset
	ttl    time.Duration
}

func (r *fakeResetRepo) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	now := time.Now().UTC()
	reset.CreatedAt = now
	reset.ExpiresAt = now.Add(r.ttl)
	r.resets = append(r.resets, reset)
	return nil
}

func (r *fakeResetRepo) GetActiveReset(ctx context.Context, authID string) (*models.PasswordReset, error) {
	for i := len(r.resets) - 1; i >= 0; i-- {
		if r.resets[i].AuthID == authID {
			return r.resets[i], nil
		}
	}
	return nil, scylla.ErrRecordNotFound
}

func (r *fakeResetRepo) MarkUsed(ctx context.Context, reset *models.PasswordReset) error {
	reset.IsUsed = true
	return nil
}

type fakeAttempts struct {
	counts map[string]int
	locks  map[string]time.Time
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{counts: make(map[string]int), locks: make(map[string]time.Time)}
}

func (a *fakeAttempts) IncrementAttempts(ctx context.Context, nationalID string, window time.Duration) (int, error) {
	a.counts[nationalID]++
	return a.counts[nationalID], nil
}

func (a *fakeAttempts) ResetAttempts(ctx context.Context, nationalID string) error {
	delete(a.counts, nationalID)
	delete(a.locks, nationalID)
	return nil
}

func (a *fakeAttempts) SetLock(ctx context.Context, nationalID string, duration time.Duration) error {
	a.locks[nationalID] = time.Now().UTC().Add(duration)
	return nil
}

func (a *fakeAttempts) GetLockRemaining(ctx context.Context, nationalID string) (time.Duration, error) {
	until, ok := a.locks[nationalID]
	if !ok {
		return 0, nil
	}
	remaining := time.Until(until)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

type fakeThrottle struct {
	counts map[string]int
}

func (f *fakeThrottle) CountIssue(ctx context.Context, beneficiaryID, purpose string, window time.Duration) (int, error) {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	key := beneficiaryID + ":" + purpose
	f.counts[key]++
	return f.counts[key], nil
}

type authFixture struct {
	service  *AuthService
	authRepo *fakeAuthRepo
	otpRepo  *fakeOTPRepo
	resets   *fakeResetRepo
	attempts *fakeAttempts
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Pepper:            "test-pepper",
		},
		Portal: config.PortalConfig{
			LockoutThreshold: 5,
			LockoutDuration:  30 * time.Minute,
			OTPTTL:           5 * time.Minute,
			OTPMaxPerWindow:  3,
			OTPWindow:        time.Hour,
			TempPasswordTTL:  24 * time.Hour,
		},
	}

	authRepo := newFakeAuthRepo()
	otpRepo := &fakeOTPRepo{ttl: cfg.Portal.OTPTTL}
	resets := &fakeResetRepo{ttl: cfg.Portal.TempPasswordTTL}
	attempts := newFakeAttempts()

	svc := NewAuthService(
		authRepo, otpRepo, resets, newFakeBeneficiaryRepo(),
		attempts, &fakeThrottle{}, hashing.NewHasher(cfg), cfg)

	return &authFixture{
		service:  svc,
		authRepo: authRepo,
		otpRepo:  otpRepo,
		resets:   resets,
		attempts: attempts,
	}
}

func TestCreateAuthValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "12345", "123456")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	_, err = f.service.CreateAuth(ctx, "ben-1", "123456789", "12ab56")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	auth, err := f.service.CreateAuth(ctx, "ben-1", "123 456 789", "123456")
	require.NoError(t, err)
	assert.Equal(t, "123456789", auth.NationalID)
	assert.True(t, auth.IsFirstLogin)
	assert.NotEqual(t, "123456", auth.PasswordHash)
}

func TestCreateAuthDuplicate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	_, err = f.service.CreateAuth(ctx, "ben-2", "123456789", "654321")
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))
	assert.Equal(t, "يوجد حساب مسجل لهذا الرقم مسبقاً", apierr.UserMessage(err))
}

func TestCreateAuthStoreFailureIsNotConflict(t *testing.T) {
	f := newAuthFixture(t)
	f.authRepo.createErr = fmt.Errorf("gocql: no hosts available in the pool")

	_, err := f.service.CreateAuth(context.Background(), "ben-1", "123456789", "123456")
	require.Error(t, err)
	assert.NotEqual(t, apierr.KindConflict, apierr.KindOf(err))
}

func TestVerifyPINSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	auth, err := f.service.VerifyPIN(ctx, "123456789", "123456")
	require.NoError(t, err)
	assert.Equal(t, "ben-1", auth.BeneficiaryID)
	assert.NotNil(t, auth.LastLoginAt)
	assert.Zero(t, auth.LoginAttempts)
}

func TestVerifyPINUnknownNationalID(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.VerifyPIN(context.Background(), "999999999", "123456")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
	assert.Equal(t, "رقم الهوية غير موجود", apierr.UserMessage(err))
}

func TestVerifyPINLockoutSequence(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	for remaining := 4; remaining >= 1; remaining-- {
		_, err := f.service.VerifyPIN(ctx, "123456789", "000000")
		assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
		assert.Equal(t,
			fmt.Sprintf("كلمة المرور غير صحيحة. المحاولات المتبقية: %d", remaining),
			apierr.UserMessage(err))
	}

	// fifth failure locks the account
	_, err = f.service.VerifyPIN(ctx, "123456789", "000000")
	assert.Equal(t, apierr.KindLocked, apierr.KindOf(err))
	assert.Equal(t,
		"تم قفل الحساب لمدة 30 دقيقة بسبب المحاولات المتكررة الفاشلة",
		apierr.UserMessage(err))

	// even the correct PIN is rejected while locked
	_, err = f.service.VerifyPIN(ctx, "123456789", "123456")
	assert.Equal(t, apierr.KindLocked, apierr.KindOf(err))
	assert.Equal(t, "الحساب مقفل مؤقتاً. يرجى المحاولة لاحقاً", apierr.UserMessage(err))
}

func TestVerifyPINPersistedLockSurvivesCacheFlush(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	lockedUntil := time.Now().UTC().Add(10 * time.Minute)
	f.authRepo.records["123456789"].LockedUntil = &lockedUntil

	_, err = f.service.VerifyPIN(ctx, "123456789", "123456")
	assert.Equal(t, apierr.KindLocked, apierr.KindOf(err))
}

func TestVerifyPINSuccessResetsCounter(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.service.VerifyPIN(ctx, "123456789", "000000")
		assert.Error(t, err)
	}

	_, err = f.service.VerifyPIN(ctx, "123456789", "123456")
	require.NoError(t, err)

	// counter starts over after the successful login
	_, err = f.service.VerifyPIN(ctx, "123456789", "000000")
	assert.Equal(t, "كلمة المرور غير صحيحة. المحاولات المتبقية: 4", apierr.UserMessage(err))
}

func TestVerifyPINRehashesLegacyCredential(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.authRepo.records["123456789"] = &models.BeneficiaryAuth{
		ID:            "auth-1",
		BeneficiaryID: "ben-1",
		NationalID:    "123456789",
		PasswordHash:  hashing.LegacyHash("123456"),
		HashAlgorithm: hashing.AlgorithmLegacy,
	}

	auth, err := f.service.VerifyPIN(ctx, "123456789", "123456")
	require.NoError(t, err)
	assert.Equal(t, hashing.AlgorithmArgon2, auth.HashAlgorithm)

	stored := f.authRepo.records["123456789"]
	assert.Equal(t, hashing.AlgorithmArgon2, stored.HashAlgorithm)
	assert.NotEqual(t, hashing.LegacyHash("123456"), stored.PasswordHash)

	// the upgraded credential still verifies
	_, err = f.service.VerifyPIN(ctx, "123456789", "123456")
	require.NoError(t, err)
}

func TestUpdatePIN(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	err = f.service.UpdatePIN(ctx, "123456789", "12ab")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	require.NoError(t, f.service.UpdatePIN(ctx, "123456789", "654321"))
	assert.False(t, f.authRepo.records["123456789"].IsFirstLogin)

	_, err = f.service.VerifyPIN(ctx, "123456789", "654321")
	require.NoError(t, err)
}

func TestTemporaryPasswordSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	plain, err := f.service.CreateTemporaryPassword(ctx, "123456789")
	require.NoError(t, err)
	assert.Len(t, plain, 8)

	auth, err := f.service.VerifyTemporaryPassword(ctx, "123456789", plain)
	require.NoError(t, err)
	assert.Equal(t, "ben-1", auth.BeneficiaryID)

	// the ticket is burned on first use
	_, err = f.service.VerifyTemporaryPassword(ctx, "123456789", plain)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
}

func TestTemporaryPasswordWrongValue(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	_, err = f.service.CreateTemporaryPassword(ctx, "123456789")
	require.NoError(t, err)

	_, err = f.service.VerifyTemporaryPassword(ctx, "123456789", "WRONGPWD")
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.Equal(t, "كلمة المرور المؤقتة غير صالحة", apierr.UserMessage(err))
}

func TestTemporaryPasswordExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateAuth(ctx, "ben-1", "123456789", "123456")
	require.NoError(t, err)

	plain, err := f.service.CreateTemporaryPassword(ctx, "123456789")
	require.NoError(t, err)

	f.resets.resets[0].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = f.service.VerifyTemporaryPassword(ctx, "123456789", plain)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
}

func TestGenerateOTPInvalidPurpose(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.GenerateOTP(context.Background(), "ben-1", "unknown")
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestOTPVerifyOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9][0-9]{5}$`, code)

	require.NoError(t, f.service.VerifyOTP(ctx, "ben-1", code, models.OTPPurposeLogin))

	// a code verifies at most once
	err = f.service.VerifyOTP(ctx, "ben-1", code, models.OTPPurposeLogin)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.Equal(t, "رمز التحقق غير صحيح أو منتهي الصلاحية", apierr.UserMessage(err))
}

func TestOTPReissueKeepsEarlierCodeValid(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	require.NoError(t, err)
	second, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	// requesting a new code does not invalidate the one sent before it
	require.NoError(t, f.service.VerifyOTP(ctx, "ben-1", first, models.OTPPurposeLogin))
	require.NoError(t, f.service.VerifyOTP(ctx, "ben-1", second, models.OTPPurposeLogin))

	// each code still verifies at most once
	err = f.service.VerifyOTP(ctx, "ben-1", first, models.OTPPurposeLogin)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
}

func TestOTPWrongCodeAndMissingCodeLookTheSame(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	missingErr := f.service.VerifyOTP(ctx, "ben-1", "123456", models.OTPPurposeLogin)

	_, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	require.NoError(t, err)
	wrongErr := f.service.VerifyOTP(ctx, "ben-1", "000000", models.OTPPurposeLogin)

	assert.Equal(t, apierr.UserMessage(missingErr), apierr.UserMessage(wrongErr))
}

func TestOTPExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	require.NoError(t, err)

	f.otpRepo.otps[0].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	err = f.service.VerifyOTP(ctx, "ben-1", code, models.OTPPurposeLogin)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
}

func TestOTPThrottled(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
		require.NoError(t, err)
	}

	_, err := f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeLogin)
	assert.Equal(t, apierr.KindRateLimited, apierr.KindOf(err))

	// a different purpose counts separately
	_, err = f.service.GenerateOTP(ctx, "ben-1", models.OTPPurposeDataUpdate)
	require.NoError(t, err)
}
