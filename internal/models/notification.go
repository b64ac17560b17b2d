package models

import "time"

// Notification statuses. pending is the only state with outgoing transitions.
const (
	NotificationStatusPending   = "pending"
	NotificationStatusSent      = "sent"
	NotificationStatusFailed    = "failed"
	NotificationStatusCancelled = "cancelled"
)

// WhatsAppNotification is a queued message awaiting manual or API delivery
type WhatsAppNotification struct {
	ID               string            `json:"id" db:"notification_id"`
	BeneficiaryID    string            `json:"beneficiary_id" db:"beneficiary_id"`
	NotificationType string            `json:"notification_type" db:"notification_type"`
	PackageID        string            `json:"package_id,omitempty" db:"package_id"`
	WhatsAppNumber   string            `json:"whatsapp_number" db:"whatsapp_number"`
	MessageTemplate  string            `json:"message_template" db:"message_template"`
	MessageVariables map[string]string `json:"message_variables" db:"message_variables"`
	Status           string            `json:"status" db:"status"`
	SentAt           *time.Time        `json:"sent_at" db:"sent_at"`
	ErrorMessage     string            `json:"error_message,omitempty" db:"error_message"`
	RetryCount       int               `json:"retry_count" db:"retry_count"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time        `json:"updated_at" db:"updated_at"`
}

// NotificationStats aggregates queue state counts
type NotificationStats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// CanTransitionNotification reports whether a queue row may move from one
// status to another; everything fans out of pending and nothing leaves a
// terminal state.
func CanTransitionNotification(from, to string) bool {
	if from != NotificationStatusPending {
		return false
	}
	switch to {
	case NotificationStatusSent, NotificationStatusFailed, NotificationStatusCancelled:
		return true
	default:
		return false
	}
}
