package models

import "time"

// SystemFeature is a named toggle with a settings blob, audited by updater
type SystemFeature struct {
	ID          string            `json:"id" db:"feature_id"`
	FeatureKey  string            `json:"feature_key" db:"feature_key"`
	FeatureName string            `json:"feature_name" db:"feature_name"`
	IsEnabled   bool              `json:"is_enabled" db:"is_enabled"`
	Settings    map[string]string `json:"settings" db:"settings"`
	UpdatedBy   string            `json:"updated_by" db:"updated_by"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// Well-known feature keys
const (
	FeatureBeneficiaryPortal = "beneficiary_portal"
	FeaturePublicSearch      = "public_search"
	FeatureWhatsAppAutoSend  = "whatsapp_auto_send"
)

// PortalSnapshot is the typed configuration assembled from the feature table
// once per fetch and passed explicitly, instead of a per-render key/value map.
type PortalSnapshot struct {
	PortalEnabled       bool      `json:"portal_enabled"`
	PublicSearchEnabled bool      `json:"public_search_enabled"`
	WhatsAppAutoSend    bool      `json:"whatsapp_auto_send"`
	SupportPhone        string    `json:"support_phone"`
	FetchedAt           time.Time `json:"fetched_at"`
}
