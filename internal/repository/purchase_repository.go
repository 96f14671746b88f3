package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// PurchasedPackageRepository persists paid entitlements. The unique index on
// order_id backs up the order state machine against concurrent webhook
// deliveries.
type PurchasedPackageRepository interface {
	// CreateOnce inserts the entitlement, translating a unique violation on
	// order_id into ErrDuplicatePurchase.
	CreateOnce(ctx context.Context, purchase *models.PurchasedPackage) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PurchasedPackage, error)
	ScheduleConsultation(ctx context.Context, id uuid.UUID, date time.Time) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type purchasedPackageRepository struct {
	db *gorm.DB
}

func NewPurchasedPackageRepository(db *gorm.DB) PurchasedPackageRepository {
	return &purchasedPackageRepository{db: db}
}

func (r *purchasedPackageRepository) CreateOnce(ctx context.Context, purchase *models.PurchasedPackage) error {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicatePurchase
		}
		return err
	}
	return nil
}

func (r *purchasedPackageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PurchasedPackage, error) {
	var purchases []models.PurchasedPackage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *purchasedPackageRepository) ScheduleConsultation(ctx context.Context, id uuid.UUID, date time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchasedPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"consultation_scheduled": true,
			"consultation_date":      date,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *purchasedPackageRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PurchasedPackage{}).Error
}
