package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
)

// AuditEntry is the caller-facing shape of one audit event.
type AuditEntry struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
	IPAddress    string
	UserAgent    string
}

// AuditService appends audit events. Recording never fails the calling
// operation: failures are logged and swallowed.
type AuditService struct {
	repo   repository.AuditLogRepository
	logger *logrus.Logger
}

func NewAuditService(repo repository.AuditLogRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record writes one audit row. Errors are logged, never returned, so audit
// trouble cannot break form submission or payment processing.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}

	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			s.logger.WithError(err).WithField("action", entry.Action).
				Warn("Failed to encode audit details")
		} else {
			row.Details = datatypes.JSON(data)
		}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
		}).Error("Failed to write audit log")
	}
}

// List queries the audit trail for the admin dashboard.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}

// PurgeOlderThan removes audit rows past the retention horizon.
func (s *AuditService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}
