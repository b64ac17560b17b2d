package models

import "time"

// Activity entry types and source channels
const (
	ActivityTypeCreate  = "create"
	ActivityTypeVerify  = "verify"
	ActivityTypeApprove = "approve"
	ActivityTypeUpdate  = "update"
	ActivityTypeDeliver = "deliver"
	ActivityTypeReview  = "review"

	ActivitySourceAdmin       = "admin"
	ActivitySourceBeneficiary = "beneficiary"
	ActivitySourceSystem      = "system"
	ActivitySourcePublic      = "public"
)

// ActivityEntry is an append-only audit record
type ActivityEntry struct {
	Action        string    `json:"action"`
	UserName      string    `json:"user_name"`
	Role          string    `json:"role"`
	Type          string    `json:"type"`
	BeneficiaryID string    `json:"beneficiary_id,omitempty"`
	Details       string    `json:"details,omitempty"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}
