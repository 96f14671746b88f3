package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
)

// UserDataExport bundles everything the portal stores about one user.
type UserDataExport struct {
	Profile   *models.Profile           `json:"profile,omitempty"`
	Requests  []models.ProjectRequest   `json:"project_requests"`
	Purchases []models.PurchasedPackage `json:"purchased_packages"`
	Messages  []models.Message          `json:"messages"`
	Consents  []models.GdprConsent      `json:"consents"`
	Orders    []models.Order            `json:"orders"`
}

// GDPRService implements the data subject rights: consent revocation, data
// export and erasure.
type GDPRService struct {
	consents  repository.GdprConsentRepository
	profiles  repository.ProfileRepository
	requests  repository.ProjectRequestRepository
	purchases repository.PurchasedPackageRepository
	messages  repository.MessageRepository
	orders    repository.OrderRepository
	audit     *AuditService
	logger    *logrus.Logger
}

func NewGDPRService(
	consents repository.GdprConsentRepository,
	profiles repository.ProfileRepository,
	requests repository.ProjectRequestRepository,
	purchases repository.PurchasedPackageRepository,
	messages repository.MessageRepository,
	orders repository.OrderRepository,
	audit *AuditService,
	logger *logrus.Logger,
) *GDPRService {
	return &GDPRService{
		consents:  consents,
		profiles:  profiles,
		requests:  requests,
		purchases: purchases,
		messages:  messages,
		orders:    orders,
		audit:     audit,
		logger:    logger,
	}
}

// RevokeConsent stamps revoked_at on the user's active consents of the given
// type. Consent rows themselves are never deleted.
func (s *GDPRService) RevokeConsent(ctx context.Context, userID uuid.UUID, consentType, ip, userAgent string) (int64, error) {
	revoked, err := s.consents.RevokeByUser(ctx, userID, consentType, time.Now())
	if err != nil {
		return 0, err
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditConsentRevoked,
		ResourceType: models.ResourceGdprConsent,
		Details:      map[string]interface{}{"consent_type": consentType, "revoked": revoked},
		IPAddress:    ip,
		UserAgent:    userAgent,
	})
	return revoked, nil
}

// Export collects the user's stored data for a portability request.
func (s *GDPRService) Export(ctx context.Context, userID uuid.UUID, ip, userAgent string) (*UserDataExport, error) {
	export := &UserDataExport{}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		export.Profile = profile
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	if export.Requests, err = s.requests.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if export.Purchases, err = s.purchases.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if export.Messages, err = s.messages.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if export.Consents, err = s.consents.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if export.Orders, err = s.orders.ListByUser(ctx, userID); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditUserDataExported,
		ResourceType: models.ResourceUserData,
		IPAddress:    ip,
		UserAgent:    userAgent,
	})
	return export, nil
}

// Erase deletes the user's personal data. The consent trail and audit log
// survive erasure as the legally required record of the request itself.
func (s *GDPRService) Erase(ctx context.Context, userID uuid.UUID, ip, userAgent string) error {
	if err := s.requests.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.messages.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.purchases.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditUserDataDeleted,
		ResourceType: models.ResourceUserData,
		IPAddress:    ip,
		UserAgent:    userAgent,
	})
	s.logger.WithField("user_id", userID).Info("User data erased")
	return nil
}
