package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// Run applies the schema. AutoMigrate is additive; destructive changes are
// handled manually.
func Run(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.UserRole{},
		&models.ProjectRequest{},
		&models.GdprConsent{},
		&models.RateLimitAttempt{},
		&models.ServicePackage{},
		&models.PackageContent{},
		&models.Order{},
		&models.PurchasedPackage{},
		&models.Message{},
		&models.FAQ{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
