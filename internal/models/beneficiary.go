package models

import "time"

// Beneficiary is the identity record created by the intake process. The portal
// edits profile fields and stamps portal access but never deletes rows.
type Beneficiary struct {
	Bucket           int        `json:"-" db:"bucket"`
	ID               string     `json:"id" db:"beneficiary_id"`
	Name             string     `json:"name" db:"name"`
	NationalID       string     `json:"national_id" db:"national_id"`
	PhoneEncrypted   string     `json:"-" db:"phone_encrypted"`
	PhoneDEK         string     `json:"-" db:"phone_dek"`
	PhoneKeyID       string     `json:"-" db:"phone_key_id"`
	Phone            string     `json:"phone,omitempty" db:"-"` // decrypted, never stored
	Address          string     `json:"address" db:"address"`
	Governorate      string     `json:"governorate" db:"governorate"`
	OrganizationID   string     `json:"organization_id" db:"organization_id"`
	FamilyID         string     `json:"family_id" db:"family_id"`
	Status           string     `json:"status" db:"status"`
	IdentityStatus   string     `json:"identity_status" db:"identity_status"`
	LastPortalAccess *time.Time `json:"last_portal_access" db:"last_portal_access"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at" db:"updated_at"`
}

// PublicBeneficiary is the reduced shape returned by the anonymous search
type PublicBeneficiary struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Status     string `json:"status"`
}
