package models

import "time"

// BeneficiaryAuth is the one-to-one credential record for a beneficiary.
// The attempt counter and lockout timestamp persist here; the live counter
// used for atomic increments lives in Redis.
type BeneficiaryAuth struct {
	ID            string     `json:"id" db:"auth_id"`
	BeneficiaryID string     `json:"beneficiary_id" db:"beneficiary_id"`
	NationalID    string     `json:"national_id" db:"national_id"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	PasswordSalt  string     `json:"-" db:"password_salt"`
	HashAlgorithm string     `json:"-" db:"hash_algorithm"`
	IsFirstLogin  bool       `json:"is_first_login" db:"is_first_login"`
	LastLoginAt   *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts int        `json:"login_attempts" db:"login_attempts"`
	LockedUntil   *time.Time `json:"locked_until" db:"locked_until"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" db:"updated_at"`
}

// PasswordReset is a single-use 24-hour temporary password ticket
type PasswordReset struct {
	ID            string    `json:"id" db:"reset_id"`
	AuthID        string    `json:"auth_id" db:"auth_id"`
	TempHash      string    `json:"-" db:"temp_password_hash"`
	TempSalt      string    `json:"-" db:"temp_password_salt"`
	HashAlgorithm string    `json:"-" db:"hash_algorithm"`
	IsUsed        bool      `json:"is_used" db:"is_used"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
