package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/ratelimit"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

type stubRequestRepo struct {
	created []*models.ProjectRequest
}

func (s *stubRequestRepo) Create(_ context.Context, req *models.ProjectRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	s.created = append(s.created, req)
	return nil
}

func (s *stubRequestRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.ProjectRequest, error) {
	return nil, repository.ErrNotFound
}

func (s *stubRequestRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.ProjectRequest, error) {
	return nil, nil
}

func (s *stubRequestRepo) ListAll(_ context.Context, _ string, _, _ int) ([]models.ProjectRequest, int64, error) {
	return nil, 0, nil
}

func (s *stubRequestRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ models.RequestStatus) (*models.ProjectRequest, error) {
	return nil, repository.ErrNotFound
}

func (s *stubRequestRepo) DeleteByUser(_ context.Context, _ uuid.UUID) error { return nil }

type stubConsentRepo struct {
	created []*models.GdprConsent
}

func (s *stubConsentRepo) Create(_ context.Context, consent *models.GdprConsent) error {
	s.created = append(s.created, consent)
	return nil
}

func (s *stubConsentRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.GdprConsent, error) {
	return nil, nil
}

func (s *stubConsentRepo) ListByEmail(_ context.Context, _ string) ([]models.GdprConsent, error) {
	return nil, nil
}

func (s *stubConsentRepo) RevokeByUser(_ context.Context, _ uuid.UUID, _ string, _ time.Time) (int64, error) {
	return 0, nil
}

type stubAuditRepo struct {
	entries []*models.AuditLog
}

func (s *stubAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditRepo) List(_ context.Context, _ repository.AuditFilter) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func (s *stubAuditRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubLimiterStore struct {
	rows map[string]*models.RateLimitAttempt
}

func (s *stubLimiterStore) Get(_ context.Context, identifier, action string) (*models.RateLimitAttempt, error) {
	return s.rows[identifier+"|"+action], nil
}

func (s *stubLimiterStore) Save(_ context.Context, attempt *models.RateLimitAttempt) error {
	s.rows[attempt.Identifier+"|"+attempt.ActionType] = attempt
	return nil
}

type formTestEnv struct {
	router   *gin.Engine
	requests *stubRequestRepo
	consents *stubConsentRepo
	audit    *stubAuditRepo
}

func newFormTestEnv(authUserID *uuid.UUID) *formTestEnv {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	env := &formTestEnv{
		requests: &stubRequestRepo{},
		consents: &stubConsentRepo{},
		audit:    &stubAuditRepo{},
	}

	limiter := ratelimit.NewLimiter(
		&stubLimiterStore{rows: map[string]*models.RateLimitAttempt{}},
		time.Now, logger,
	)
	svc := services.NewSubmissionService(
		limiter, ratelimit.DefaultConfig(),
		env.requests, env.consents,
		services.NewAuditService(env.audit, logger),
		nil, logger,
	)
	handler := NewFormHandler(svc, logger)

	env.router = gin.New()
	env.router.POST("/api/v1/forms/contact", func(c *gin.Context) {
		if authUserID != nil {
			c.Set("user_id", *authUserID)
		}
		handler.Submit(c)
	})
	return env
}

func (env *formTestEnv) post(t *testing.T, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func contactBody() map[string]interface{} {
	return map[string]interface{}{
		"projectType": "prezentare",
		"budget":      "<300",
		"timeline":    "1-2luni",
		"details":     "Vreau un site nou pentru afacerea mea.",
		"name":        "Ana Pop",
		"email":       "ana@example.com",
		"gdprConsent": true,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFormSubmitGuest(t *testing.T) {
	env := newFormTestEnv(nil)

	rec := env.post(t, contactBody())
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Mulțumim! Cererea ta a fost trimisă. Te contactăm în curând!", body["message"])

	// Guests leave no project request, only a consent row and an audit trace.
	assert.Empty(t, env.requests.created)
	assert.Len(t, env.consents.created, 1)
}

func TestFormSubmitAuthenticated(t *testing.T) {
	userID := uuid.New()
	env := newFormTestEnv(&userID)

	body := contactBody()
	body["userId"] = userID.String()
	rec := env.post(t, body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.requests.created, 1)
	assert.Equal(t, userID, env.requests.created[0].UserID)
}

func TestFormSubmitIdentityMismatch(t *testing.T) {
	userID := uuid.New()
	env := newFormTestEnv(&userID)

	body := contactBody()
	body["userId"] = uuid.New().String()
	rec := env.post(t, body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Sesiune invalidă", decodeBody(t, rec)["error"])
	assert.Empty(t, env.requests.created)
}

func TestFormSubmitMalformedJSON(t *testing.T) {
	env := newFormTestEnv(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Date invalide", decodeBody(t, rec)["error"])
}

func TestFormSubmitValidationErrors(t *testing.T) {
	env := newFormTestEnv(nil)

	body := contactBody()
	body["email"] = "not-an-email"
	body["details"] = "scurt"
	rec := env.post(t, body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	decoded := decodeBody(t, rec)
	assert.Equal(t, "Date invalide", decoded["error"])

	fields, ok := decoded["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "details")
	assert.Empty(t, env.consents.created)
}

func TestFormSubmitHoneypot(t *testing.T) {
	env := newFormTestEnv(nil)

	body := contactBody()
	body["website"] = "https://spam.example"
	rec := env.post(t, body)

	// Bots get the same success shape as humans.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Empty(t, env.requests.created)
	assert.Empty(t, env.consents.created)
}

func TestFormSubmitRateLimited(t *testing.T) {
	env := newFormTestEnv(nil)

	for i := 0; i < 5; i++ {
		rec := env.post(t, contactBody())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.post(t, contactBody())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	decoded := decodeBody(t, rec)
	assert.Contains(t, decoded["error"], "Prea multe încercări")
	assert.InDelta(t, 1800, decoded["retry_after"], 1)
}
