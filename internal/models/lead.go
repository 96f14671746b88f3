package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectType enumerates the kinds of projects a lead can request.
type ProjectType string

const (
	ProjectPresentation ProjectType = "prezentare"
	ProjectStore        ProjectType = "magazin"
	ProjectWebApp       ProjectType = "aplicatie"
	ProjectSaaS         ProjectType = "saas"
	ProjectOther        ProjectType = "altele"
)

// Budget brackets offered in the intake form.
const (
	BudgetUnder300  = "<300"
	Budget300To800  = "300-800"
	Budget800To1700 = "800-1700"
	BudgetOver1700  = ">1700"
)

// Timeline brackets offered in the intake form.
const (
	TimelineOneToTwoWeeks  = "1-2saptamani"
	TimelineTwoToFourWeeks = "2-4saptamani"
	TimelineOneToTwoMonths = "1-2luni"
	TimelineOverTwoMonths  = ">2luni"
)

// RequestStatus tracks the lifecycle of a project request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestRejected   RequestStatus = "rejected"
)

// LeadSubmission is the wire payload of the intake form. It is not persisted
// as-is: authenticated submissions materialize into a ProjectRequest, guest
// submissions leave only a consent and audit trail.
type LeadSubmission struct {
	ProjectType string `json:"projectType"`
	Budget      string `json:"budget"`
	Timeline    string `json:"timeline"`
	Details     string `json:"details"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	GDPRConsent bool   `json:"gdprConsent"`
	UserID      string `json:"userId,omitempty"`

	// Honeypot fields. Humans never see them; any content means a bot.
	Website        string `json:"website"`
	CompanyWebsite string `json:"company_website"`
	URL            string `json:"url"`
	Fax            string `json:"fax"`
}

// HoneypotValues returns the honeypot fields for bot detection.
func (s *LeadSubmission) HoneypotValues() map[string]string {
	return map[string]string{
		"website":         s.Website,
		"company_website": s.CompanyWebsite,
		"url":             s.URL,
		"fax":             s.Fax,
	}
}

// ProjectRequest is an authenticated lead's project inquiry, visible in the
// customer dashboard. Status is mutated only by admins.
type ProjectRequest struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	ProjectType string        `json:"project_type" gorm:"type:varchar(50);not null"`
	Budget      string        `json:"budget" gorm:"type:varchar(50);not null"`
	Timeline    string        `json:"timeline" gorm:"type:varchar(50);not null"`
	Details     string        `json:"details" gorm:"type:text"`
	Status      RequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (ProjectRequest) TableName() string { return "project_requests" }

// GdprConsent is an append-only record of a consent event. Rows are never
// mutated; revocation only sets RevokedAt.
type GdprConsent struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Email       string     `json:"email" gorm:"type:varchar(255);index"`
	ConsentType string     `json:"consent_type" gorm:"type:varchar(50);not null"`
	Consented   bool       `json:"consented" gorm:"not null;default:true"`
	ConsentText string     `json:"consent_text" gorm:"type:text;not null"`
	IPAddress   string     `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent   string     `json:"user_agent" gorm:"type:text"`
	RevokedAt   *time.Time `json:"revoked_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (GdprConsent) TableName() string { return "gdpr_consents" }

// RateLimitAttempt is the authoritative server-side rate limit state, one row
// per (identifier, action_type). BlockedUntil in the future denies the action
// unconditionally.
type RateLimitAttempt struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Identifier     string     `json:"identifier" gorm:"type:varchar(255);not null;uniqueIndex:idx_rate_limit_key"`
	ActionType     string     `json:"action_type" gorm:"type:varchar(50);not null;uniqueIndex:idx_rate_limit_key"`
	AttemptCount   int        `json:"attempt_count" gorm:"not null;default:1"`
	FirstAttemptAt time.Time  `json:"first_attempt_at" gorm:"not null"`
	LastAttemptAt  time.Time  `json:"last_attempt_at" gorm:"not null"`
	BlockedUntil   *time.Time `json:"blocked_until" gorm:"index"`
}

func (RateLimitAttempt) TableName() string { return "rate_limit_attempts" }
