package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// GdprConsentRepository appends consent events. Rows are never updated except
// to stamp RevokedAt.
type GdprConsentRepository interface {
	Create(ctx context.Context, consent *models.GdprConsent) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.GdprConsent, error)
	ListByEmail(ctx context.Context, email string) ([]models.GdprConsent, error)
	// RevokeByUser stamps revoked_at on all active consents of the given type.
	RevokeByUser(ctx context.Context, userID uuid.UUID, consentType string, at time.Time) (int64, error)
}

type gdprConsentRepository struct {
	db *gorm.DB
}

func NewGdprConsentRepository(db *gorm.DB) GdprConsentRepository {
	return &gdprConsentRepository{db: db}
}

func (r *gdprConsentRepository) Create(ctx context.Context, consent *models.GdprConsent) error {
	return r.db.WithContext(ctx).Create(consent).Error
}

func (r *gdprConsentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.GdprConsent, error) {
	var consents []models.GdprConsent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&consents).Error
	return consents, err
}

func (r *gdprConsentRepository) ListByEmail(ctx context.Context, email string) ([]models.GdprConsent, error) {
	var consents []models.GdprConsent
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&consents).Error
	return consents, err
}

func (r *gdprConsentRepository) RevokeByUser(ctx context.Context, userID uuid.UUID, consentType string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GdprConsent{}).
		Where("user_id = ? AND consent_type = ? AND revoked_at IS NULL", userID, consentType).
		Update("revoked_at", at)
	return result.RowsAffected, result.Error
}
