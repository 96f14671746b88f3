package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

type stubProfileRepo struct {
	roles map[uuid.UUID][]models.AppRole
}

func (s *stubProfileRepo) GetByUserID(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	return nil, repository.ErrNotFound
}

func (s *stubProfileRepo) Upsert(_ context.Context, _ *models.Profile) error { return nil }

func (s *stubProfileRepo) UpdateFields(_ context.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (s *stubProfileRepo) ListRoles(_ context.Context, _ uuid.UUID) ([]models.UserRole, error) {
	return nil, nil
}

func (s *stubProfileRepo) HasRole(_ context.Context, userID uuid.UUID, role models.AppRole) (bool, error) {
	for _, r := range s.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubProfileRepo) DeleteByUser(_ context.Context, _ uuid.UUID) error { return nil }

type stubMessageRepo struct{}

func (stubMessageRepo) Create(_ context.Context, _ *models.Message) error { return nil }

func (stubMessageRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Message, error) {
	return nil, repository.ErrNotFound
}

func (stubMessageRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.Message, error) {
	return nil, nil
}

func (stubMessageRepo) CountUnread(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil }

func (stubMessageRepo) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func (stubMessageRepo) DeleteByUser(_ context.Context, _ uuid.UUID) error { return nil }

type stubFAQRepo struct{}

func (stubFAQRepo) ListActive(_ context.Context) ([]models.FAQ, error) { return nil, nil }

// adminTestEnv routes a guarded endpoint through RequireRole with user_id
// seeded the way AuthRequired would after token validation.
func adminTestEnv(profiles *stubProfileRepo, userID *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	portal := services.NewPortalService(
		&stubRequestRepo{}, stubMessageRepo{}, &stubPurchaseRepo{}, stubPackageRepo{},
		profiles, stubFAQRepo{},
		services.NewAuditService(&stubAuditRepo{}, logger), logger,
	)
	handler := NewAdminHandler(portal, services.NewAuditService(&stubAuditRepo{}, logger), logger)

	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) {
			if userID != nil {
				c.Set("user_id", *userID)
			}
		},
		handler.RequireRole(),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	return router
}

func getGuarded(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoleAllowsRoleHolder(t *testing.T) {
	adminID := uuid.New()
	profiles := &stubProfileRepo{roles: map[uuid.UUID][]models.AppRole{
		adminID: {models.RoleAdmin},
	}}

	rec := getGuarded(adminTestEnv(profiles, &adminID))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsClaimWithoutRoleRow(t *testing.T) {
	// A token claiming admin is not enough, the role row must exist.
	userID := uuid.New()
	profiles := &stubProfileRepo{roles: map[uuid.UUID][]models.AppRole{}}

	rec := getGuarded(adminTestEnv(profiles, &userID))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ADMIN_ONLY")
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	profiles := &stubProfileRepo{roles: map[uuid.UUID][]models.AppRole{}}

	rec := getGuarded(adminTestEnv(profiles, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
