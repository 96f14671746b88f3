package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// FAQRepository reads the public FAQ list.
type FAQRepository interface {
	ListActive(ctx context.Context) ([]models.FAQ, error)
}

type faqRepository struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) FAQRepository {
	return &faqRepository{db: db}
}

func (r *faqRepository) ListActive(ctx context.Context) ([]models.FAQ, error) {
	var faqs []models.FAQ
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&faqs).Error
	return faqs, err
}
