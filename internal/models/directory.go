package models

import "time"

// Organization is a distributing aid organization; read-only in the portal
type Organization struct {
	ID        string    `json:"id" db:"organization_id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Family groups beneficiaries for household-level distribution
type Family struct {
	ID           string    `json:"id" db:"family_id"`
	Name         string    `json:"name" db:"name"`
	HeadOfFamily string    `json:"head_of_family" db:"head_of_family"`
	MemberCount  int       `json:"member_count" db:"member_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Courier delivers packages; the dashboard shows assignment info
type Courier struct {
	ID        string    `json:"id" db:"courier_id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Status    string    `json:"status" db:"status"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
