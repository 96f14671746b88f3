package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
)

// PortalService backs the customer dashboard and the admin views.
type PortalService struct {
	requests  repository.ProjectRequestRepository
	messages  repository.MessageRepository
	purchases repository.PurchasedPackageRepository
	packages  repository.ServicePackageRepository
	profiles  repository.ProfileRepository
	faqs      repository.FAQRepository
	audit     *AuditService
	logger    *logrus.Logger
}

func NewPortalService(
	requests repository.ProjectRequestRepository,
	messages repository.MessageRepository,
	purchases repository.PurchasedPackageRepository,
	packages repository.ServicePackageRepository,
	profiles repository.ProfileRepository,
	faqs repository.FAQRepository,
	audit *AuditService,
	logger *logrus.Logger,
) *PortalService {
	return &PortalService{
		requests:  requests,
		messages:  messages,
		purchases: purchases,
		packages:  packages,
		profiles:  profiles,
		faqs:      faqs,
		audit:     audit,
		logger:    logger,
	}
}

// Catalog

func (s *PortalService) ListPackages(ctx context.Context, category string) ([]models.ServicePackage, error) {
	if category != "" {
		return s.packages.ListByCategory(ctx, models.PackageCategory(category))
	}
	return s.packages.ListActive(ctx)
}

func (s *PortalService) GetPackage(ctx context.Context, slug string) (*models.ServicePackage, []models.PackageContent, error) {
	pkg, err := s.packages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	contents, err := s.packages.ListContents(ctx, pkg.ID)
	if err != nil {
		return nil, nil, err
	}
	return pkg, contents, nil
}

func (s *PortalService) ListFAQs(ctx context.Context) ([]models.FAQ, error) {
	return s.faqs.ListActive(ctx)
}

// Dashboard

func (s *PortalService) ListProjectRequests(ctx context.Context, userID uuid.UUID) ([]models.ProjectRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

func (s *PortalService) ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.PurchasedPackage, error) {
	return s.purchases.ListByUser(ctx, userID)
}

func (s *PortalService) ScheduleConsultation(ctx context.Context, userID, purchaseID uuid.UUID, date time.Time) error {
	purchases, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range purchases {
		if p.ID == purchaseID {
			return s.purchases.ScheduleConsultation(ctx, purchaseID, date)
		}
	}
	return repository.ErrNotFound
}

func (s *PortalService) ListMessages(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	return s.messages.ListByUser(ctx, userID)
}

func (s *PortalService) CountUnreadMessages(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}

func (s *PortalService) MarkMessageRead(ctx context.Context, messageID, userID uuid.UUID) error {
	return s.messages.MarkRead(ctx, messageID, userID)
}

func (s *PortalService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *PortalService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone string) error {
	return s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"full_name": fullName,
		"phone":     phone,
	})
}

// SendUserMessage posts a message from the owning user to the agency.
func (s *PortalService) SendUserMessage(ctx context.Context, userID uuid.UUID, subject, content string) (*models.Message, error) {
	msg := &models.Message{
		UserID:      userID,
		Subject:     subject,
		Content:     content,
		IsFromAdmin: false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Admin

func (s *PortalService) AdminListRequests(ctx context.Context, status string, limit, offset int) ([]models.ProjectRequest, int64, error) {
	return s.requests.ListAll(ctx, status, limit, offset)
}

// AdminUpdateRequestStatus transitions a project request and records who did it.
func (s *PortalService) AdminUpdateRequestStatus(ctx context.Context, adminID, requestID uuid.UUID, status models.RequestStatus, ip, userAgent string) (*models.ProjectRequest, error) {
	updated, err := s.requests.UpdateStatus(ctx, requestID, status)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:       &adminID,
		Action:       models.AuditStatusUpdated,
		ResourceType: models.ResourceProjectRequest,
		ResourceID:   requestID.String(),
		Details:      map[string]interface{}{"status": string(status)},
		IPAddress:    ip,
		UserAgent:    userAgent,
	})
	return updated, nil
}

// AdminSendMessage posts a message from the agency into a user's inbox.
func (s *PortalService) AdminSendMessage(ctx context.Context, userID uuid.UUID, subject, content string) (*models.Message, error) {
	msg := &models.Message{
		UserID:      userID,
		Subject:     subject,
		Content:     content,
		IsFromAdmin: true,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *PortalService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.profiles.HasRole(ctx, userID, models.RoleAdmin)
}

// RequireAdmin checks the admin role against the user_roles table. The
// token claim alone does not grant admin access.
func (s *PortalService) RequireAdmin(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("check admin role: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
