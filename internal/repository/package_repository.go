package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// ServicePackageRepository reads the package catalog and caches Stripe price
// ids created on first checkout.
type ServicePackageRepository interface {
	ListActive(ctx context.Context) ([]models.ServicePackage, error)
	ListByCategory(ctx context.Context, category models.PackageCategory) ([]models.ServicePackage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error)
	GetBySlug(ctx context.Context, slug string) (*models.ServicePackage, error)
	ListContents(ctx context.Context, packageID uuid.UUID) ([]models.PackageContent, error)
	SetStripePriceID(ctx context.Context, id uuid.UUID, priceID string) error
}

type servicePackageRepository struct {
	db *gorm.DB
}

func NewServicePackageRepository(db *gorm.DB) ServicePackageRepository {
	return &servicePackageRepository{db: db}
}

func (r *servicePackageRepository) ListActive(ctx context.Context) ([]models.ServicePackage, error) {
	var pkgs []models.ServicePackage
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&pkgs).Error
	return pkgs, err
}

func (r *servicePackageRepository) ListByCategory(ctx context.Context, category models.PackageCategory) ([]models.ServicePackage, error) {
	var pkgs []models.ServicePackage
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND category = ?", true, category).
		Order("sort_order ASC, name ASC").
		Find(&pkgs).Error
	return pkgs, err
}

func (r *servicePackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	var pkg models.ServicePackage
	if err := r.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *servicePackageRepository) GetBySlug(ctx context.Context, slug string) (*models.ServicePackage, error) {
	var pkg models.ServicePackage
	if err := r.db.WithContext(ctx).First(&pkg, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *servicePackageRepository) ListContents(ctx context.Context, packageID uuid.UUID) ([]models.PackageContent, error) {
	var contents []models.PackageContent
	err := r.db.WithContext(ctx).
		Where("package_id = ? AND is_active = ?", packageID, true).
		Order("sort_order ASC").
		Find(&contents).Error
	return contents, err
}

func (r *servicePackageRepository) SetStripePriceID(ctx context.Context, id uuid.UUID, priceID string) error {
	return r.db.WithContext(ctx).
		Model(&models.ServicePackage{}).
		Where("id = ?", id).
		Update("stripe_price_id", priceID).Error
}
