package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// ProjectRequestRepository persists lead project requests.
type ProjectRequestRepository interface {
	Create(ctx context.Context, req *models.ProjectRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProjectRequest, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.ProjectRequest, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) (*models.ProjectRequest, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type projectRequestRepository struct {
	db *gorm.DB
}

func NewProjectRequestRepository(db *gorm.DB) ProjectRequestRepository {
	return &projectRequestRepository{db: db}
}

func (r *projectRequestRepository) Create(ctx context.Context, req *models.ProjectRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *projectRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectRequest, error) {
	var req models.ProjectRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *projectRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProjectRequest, error) {
	var reqs []models.ProjectRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *projectRequestRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.ProjectRequest, int64, error) {
	var reqs []models.ProjectRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ProjectRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error
	return reqs, total, err
}

func (r *projectRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) (*models.ProjectRequest, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProjectRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *projectRequestRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ProjectRequest{}).Error
}
