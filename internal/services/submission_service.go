package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/email"
	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/ratelimit"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/validation"
)

const contactFormAction = "contact_form"

const notifyTimeout = 15 * time.Second

// ConsentText is stored verbatim with every form consent event.
const ConsentText = "Sunt de acord cu prelucrarea datelor personale conform politicii de confidențialitate HRL.dev."

// SubmissionRequest is a form submission plus its transport context.
type SubmissionRequest struct {
	Payload *models.LeadSubmission
	// AuthUserID is the identity from the verified bearer token, nil for
	// guests. The payload's claimed user id is never trusted on its own.
	AuthUserID *uuid.UUID
	IPAddress  string
	UserAgent  string
}

// SubmissionResult is what the form endpoint returns on success.
type SubmissionResult struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
}

const submissionSuccessMessage = "Mulțumim! Cererea ta a fost trimisă. Te contactăm în curând!"

// SubmissionService is the authoritative intake pipeline. Order matters: the
// rate limiter runs before any other side effect, the honeypot before
// validation, validation before anything touches the database.
type SubmissionService struct {
	limiter  *ratelimit.Limiter
	limitCfg ratelimit.Config
	requests repository.ProjectRequestRepository
	consents repository.GdprConsentRepository
	audit    *AuditService
	mailer   *email.Mailer
	logger   *logrus.Logger
}

func NewSubmissionService(
	limiter *ratelimit.Limiter,
	limitCfg ratelimit.Config,
	requests repository.ProjectRequestRepository,
	consents repository.GdprConsentRepository,
	audit *AuditService,
	mailer *email.Mailer,
	logger *logrus.Logger,
) *SubmissionService {
	return &SubmissionService{
		limiter:  limiter,
		limitCfg: limitCfg,
		requests: requests,
		consents: consents,
		audit:    audit,
		mailer:   mailer,
		logger:   logger,
	}
}

// Submit runs the full intake pipeline and returns the client-facing result.
func (s *SubmissionService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	res := s.limiter.Check(ctx, req.IPAddress, contactFormAction, s.limitCfg)
	if !res.Allowed {
		middleware.RateLimitDenials.WithLabelValues(contactFormAction).Inc()
		s.audit.Record(ctx, AuditEntry{
			UserID:       req.AuthUserID,
			Action:       models.AuditRateLimitExceeded,
			ResourceType: models.ResourceContactForm,
			Details:      map[string]interface{}{"retry_after_seconds": int(res.RetryAfter.Seconds())},
			IPAddress:    req.IPAddress,
			UserAgent:    req.UserAgent,
		})
		return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	if validation.HoneypotTriggered(req.Payload.HoneypotValues()) {
		middleware.HoneypotHits.Inc()
		s.audit.Record(ctx, AuditEntry{
			Action:       models.AuditHoneypotTriggered,
			ResourceType: models.ResourceContactForm,
			IPAddress:    req.IPAddress,
			UserAgent:    req.UserAgent,
		})
		// Bots get the same answer humans do.
		return &SubmissionResult{Success: true, Message: submissionSuccessMessage}, nil
	}

	clean, fieldErrors := validation.ValidateLeadSubmission(req.Payload)
	if len(fieldErrors) > 0 {
		return nil, &ValidationFailedError{Fields: fieldErrors}
	}

	// A claimed user id must be backed by the verified token identity.
	if clean.UserID != "" {
		claimed, err := uuid.Parse(clean.UserID)
		if err != nil || req.AuthUserID == nil || *req.AuthUserID != claimed {
			return nil, ErrUnauthorized
		}
	}

	s.recordConsent(ctx, req, clean)

	if req.AuthUserID != nil {
		projectReq := &models.ProjectRequest{
			UserID:      *req.AuthUserID,
			ProjectType: clean.ProjectType,
			Budget:      clean.Budget,
			Timeline:    clean.Timeline,
			Details:     clean.Details,
			Status:      models.RequestPending,
		}
		if err := s.requests.Create(ctx, projectReq); err != nil {
			s.logger.WithError(err).Error("Failed to create project request")
			return nil, err
		}

		s.audit.Record(ctx, AuditEntry{
			UserID:       req.AuthUserID,
			Action:       models.AuditFormSubmitAuthenticated,
			ResourceType: models.ResourceFormSubmission,
			ResourceID:   projectReq.ID.String(),
			Details: map[string]interface{}{
				"project_type": clean.ProjectType,
				"budget":       clean.Budget,
				"timeline":     clean.Timeline,
			},
			IPAddress: req.IPAddress,
			UserAgent: req.UserAgent,
		})

		s.notify(clean)
		return &SubmissionResult{
			Success:   true,
			Message:   submissionSuccessMessage,
			ProjectID: &projectReq.ID,
		}, nil
	}

	// Guests leave no personal data in the audit trail beyond the domain.
	s.audit.Record(ctx, AuditEntry{
		Action:       models.AuditFormSubmitGuest,
		ResourceType: models.ResourceFormSubmission,
		Details: map[string]interface{}{
			"project_type": clean.ProjectType,
			"budget":       clean.Budget,
			"timeline":     clean.Timeline,
			"email_domain": emailDomain(clean.Email),
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	s.notify(clean)
	return &SubmissionResult{Success: true, Message: submissionSuccessMessage}, nil
}

// recordConsent appends the GDPR consent event. Consent persistence is best
// effort: the lead is not lost when the consent table is unavailable.
func (s *SubmissionService) recordConsent(ctx context.Context, req SubmissionRequest, clean *models.LeadSubmission) {
	consent := &models.GdprConsent{
		UserID:      req.AuthUserID,
		Email:       clean.Email,
		ConsentType: "contact_form",
		Consented:   true,
		ConsentText: ConsentText,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}
	if err := s.consents.Create(ctx, consent); err != nil {
		s.logger.WithError(err).Warn("Failed to record gdpr consent")
	}
}

// notify mails the agency inbox without blocking or failing the submission.
func (s *SubmissionService) notify(clean *models.LeadSubmission) {
	if s.mailer == nil {
		return
	}
	n := email.ContactNotification{
		Name:        clean.Name,
		Email:       clean.Email,
		Phone:       clean.Phone,
		ProjectType: clean.ProjectType,
		Budget:      clean.Budget,
		Timeline:    clean.Timeline,
		Details:     clean.Details,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.mailer.SendContactNotification(ctx, n); err != nil {
			s.logger.WithError(err).Warn("Failed to send contact notification")
		}
	}()
}

func emailDomain(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 {
		return address[i+1:]
	}
	return ""
}
