package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hrldev/portal-service/internal/models"
)

// ProfileRepository persists portal profiles and role assignments.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error
	ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
	HasRole(ctx context.Context, userID uuid.UUID, role models.AppRole) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "phone", "avatar_url", "updated_at"}),
		}).
		Create(profile).Error
}

func (r *profileRepository) UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	var roles []models.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&roles).Error
	return roles, err
}

func (r *profileRepository) HasRole(ctx context.Context, userID uuid.UUID, role models.AppRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Profile{}).Error
}
