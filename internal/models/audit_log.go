package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit actions recorded by the portal.
const (
	AuditFormSubmitAuthenticated = "form_submit_authenticated"
	AuditFormSubmitGuest         = "form_submit_guest"
	AuditHoneypotTriggered       = "honeypot_triggered"
	AuditRateLimitExceeded       = "rate_limit_exceeded"
	AuditPurchaseCompleted       = "purchase_completed"
	AuditConsentRevoked          = "consent_revoked"
	AuditUserDataExported        = "user_data_exported"
	AuditUserDataDeleted         = "user_data_deleted"
	AuditStatusUpdated           = "status_updated"
)

// Audit resource types.
const (
	ResourceFormSubmission    = "form_submission"
	ResourceContactForm       = "contact_form"
	ResourceProjectRequest    = "project_request"
	ResourcePurchasedPackages = "purchased_packages"
	ResourceGdprConsent       = "gdpr_consent"
	ResourceUserData          = "user_data"
)

// AuditLog is an append-only record of a portal action.
type AuditLog struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       *uuid.UUID     `json:"user_id" gorm:"type:uuid;index"`
	Action       string         `json:"action" gorm:"type:varchar(100);not null;index"`
	ResourceType string         `json:"resource_type" gorm:"type:varchar(100);not null;index"`
	ResourceID   string         `json:"resource_id" gorm:"type:varchar(255)"`
	Details      datatypes.JSON `json:"details" gorm:"type:jsonb"`
	IPAddress    string         `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string { return "audit_logs" }
