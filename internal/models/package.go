package models

import "time"

// Package lifecycle statuses; transitions are one-directional
const (
	PackageStatusPending    = "pending"
	PackageStatusAssigned   = "assigned"
	PackageStatusInDelivery = "in_delivery"
	PackageStatusDelivered  = "delivered"
)

// Package is a delivery unit tied to a beneficiary. Read-only from the portal;
// fulfillment operations mutate it.
type Package struct {
	ID                    string     `json:"id" db:"package_id"`
	BeneficiaryID         string     `json:"beneficiary_id" db:"beneficiary_id"`
	Name                  string     `json:"name" db:"name"`
	Type                  string     `json:"type" db:"type"`
	OrganizationID        string     `json:"organization_id" db:"organization_id"`
	CourierID             string     `json:"courier_id" db:"courier_id"`
	Status                string     `json:"status" db:"status"`
	TrackingNumber        string     `json:"tracking_number" db:"tracking_number"`
	ScheduledDeliveryDate *time.Time `json:"scheduled_delivery_date" db:"scheduled_delivery_date"`
	DeliveredAt           *time.Time `json:"delivered_at" db:"delivered_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at" db:"updated_at"`
}

// PackageSummary is the reduced shape returned by the anonymous search
type PackageSummary struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Status                string     `json:"status"`
	ScheduledDeliveryDate *time.Time `json:"scheduled_delivery_date"`
	TrackingNumber        string     `json:"tracking_number"`
}

// NextPackageStatuses returns the statuses reachable from current
func NextPackageStatuses(current string) []string {
	switch current {
	case PackageStatusPending:
		return []string{PackageStatusAssigned}
	case PackageStatusAssigned:
		return []string{PackageStatusInDelivery}
	case PackageStatusInDelivery:
		return []string{PackageStatusDelivered}
	default:
		return nil
	}
}
