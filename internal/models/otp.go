package models

import "time"

// OTP purposes
const (
	OTPPurposeRegistration  = "registration"
	OTPPurposeLogin         = "login"
	OTPPurposePasswordReset = "password_reset"
	OTPPurposeDataUpdate    = "data_update"
)

// OTP is a short-lived one-time code tied to a beneficiary and a purpose.
// The code is stored hashed; consumed (verified) at most once.
type OTP struct {
	ID            string    `json:"id" db:"otp_id"`
	BeneficiaryID string    `json:"beneficiary_id" db:"beneficiary_id"`
	OTPHash       string    `json:"-" db:"otp_hash"`
	OTPSalt       string    `json:"-" db:"otp_salt"`
	HashAlgorithm string    `json:"-" db:"hash_algorithm"`
	Purpose       string    `json:"purpose" db:"purpose"`
	IsVerified    bool      `json:"is_verified" db:"is_verified"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ValidOTPPurpose reports whether purpose is one of the known values
func ValidOTPPurpose(purpose string) bool {
	switch purpose {
	case OTPPurposeRegistration, OTPPurposeLogin, OTPPurposePasswordReset, OTPPurposeDataUpdate:
		return true
	default:
		return false
	}
}
