package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/ratelimit"
	"github.com/hrldev/portal-service/internal/repository"
)

// In-memory fakes shared by the service tests.

type fakeRequestRepo struct {
	created []*models.ProjectRequest
	err     error
}

func (f *fakeRequestRepo) Create(_ context.Context, req *models.ProjectRequest) error {
	if f.err != nil {
		return f.err
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.created = append(f.created, req)
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ProjectRequest, error) {
	for _, r := range f.created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.ProjectRequest, error) {
	var out []models.ProjectRequest
	for _, r := range f.created {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListAll(_ context.Context, _ string, _, _ int) ([]models.ProjectRequest, int64, error) {
	var out []models.ProjectRequest
	for _, r := range f.created {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequestRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.RequestStatus) (*models.ProjectRequest, error) {
	for _, r := range f.created {
		if r.ID == id {
			r.Status = status
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequestRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	kept := f.created[:0]
	for _, r := range f.created {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.created = kept
	return nil
}

type fakeConsentRepo struct {
	created []*models.GdprConsent
	revoked int64
	err     error
}

func (f *fakeConsentRepo) Create(_ context.Context, consent *models.GdprConsent) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, consent)
	return nil
}

func (f *fakeConsentRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.GdprConsent, error) {
	var out []models.GdprConsent
	for _, c := range f.created {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeConsentRepo) ListByEmail(_ context.Context, _ string) ([]models.GdprConsent, error) {
	return nil, nil
}

func (f *fakeConsentRepo) RevokeByUser(_ context.Context, _ uuid.UUID, _ string, _ time.Time) (int64, error) {
	return f.revoked, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ repository.AuditFilter) ([]models.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditLog
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAuditRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeLimiterStore struct {
	mu   sync.Mutex
	rows map[string]*models.RateLimitAttempt
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{rows: make(map[string]*models.RateLimitAttempt)}
}

func (s *fakeLimiterStore) Get(_ context.Context, identifier, action string) (*models.RateLimitAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[identifier+"|"+action]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (s *fakeLimiterStore) Save(_ context.Context, attempt *models.RateLimitAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *attempt
	s.rows[attempt.Identifier+"|"+attempt.ActionType] = &copied
	return nil
}

type submissionHarness struct {
	svc      *SubmissionService
	requests *fakeRequestRepo
	consents *fakeConsentRepo
	audit    *fakeAuditRepo
	now      time.Time
}

func newSubmissionHarness() *submissionHarness {
	h := &submissionHarness{
		requests: &fakeRequestRepo{},
		consents: &fakeConsentRepo{},
		audit:    &fakeAuditRepo{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	logger := logrus.New()
	limiter := ratelimit.NewLimiter(newFakeLimiterStore(), func() time.Time { return h.now }, logger)
	auditSvc := NewAuditService(h.audit, logger)
	h.svc = NewSubmissionService(limiter, ratelimit.DefaultConfig(), h.requests, h.consents, auditSvc, nil, logger)
	return h
}

func validLead() *models.LeadSubmission {
	return &models.LeadSubmission{
		ProjectType: "prezentare",
		Budget:      "<300",
		Timeline:    "1-2saptamani",
		Details:     "Site de prezentare pentru un cabinet stomatologic.",
		Name:        "Ana Popescu",
		Email:       "ana@example.com",
		GDPRConsent: true,
	}
}

func TestSubmitGuest(t *testing.T) {
	h := newSubmissionHarness()

	res, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   validLead(),
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.ProjectID)

	// No project request for guests, but consent and audit recorded.
	assert.Empty(t, h.requests.created)
	require.Len(t, h.consents.created, 1)
	assert.Equal(t, "ana@example.com", h.consents.created[0].Email)
	assert.Nil(t, h.consents.created[0].UserID)

	actions := h.audit.actions()
	require.Len(t, actions, 1)
	assert.Equal(t, models.AuditFormSubmitGuest, actions[0])
	// Guest audit details carry the domain only, never the address.
	assert.NotContains(t, string(h.audit.entries[0].Details), "ana@example.com")
	assert.Contains(t, string(h.audit.entries[0].Details), "example.com")
}

func TestSubmitAuthenticatedCreatesProjectRequest(t *testing.T) {
	h := newSubmissionHarness()
	userID := uuid.New()

	payload := validLead()
	payload.UserID = userID.String()

	res, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:    payload,
		AuthUserID: &userID,
		IPAddress:  "10.0.0.1",
		UserAgent:  "test",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.ProjectID)

	require.Len(t, h.requests.created, 1)
	assert.Equal(t, userID, h.requests.created[0].UserID)
	assert.Equal(t, models.RequestPending, h.requests.created[0].Status)
	assert.Equal(t, *res.ProjectID, h.requests.created[0].ID)

	actions := h.audit.actions()
	require.Len(t, actions, 1)
	assert.Equal(t, models.AuditFormSubmitAuthenticated, actions[0])
	require.Len(t, h.consents.created, 1)
	assert.Equal(t, &userID, h.consents.created[0].UserID)
}

func TestSubmitRejectsMismatchedIdentity(t *testing.T) {
	h := newSubmissionHarness()
	tokenUser := uuid.New()

	payload := validLead()
	payload.UserID = uuid.New().String() // different user claimed

	_, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:    payload,
		AuthUserID: &tokenUser,
		IPAddress:  "10.0.0.1",
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, h.requests.created)

	// Claimed id with no token at all is rejected the same way.
	_, err = h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   payload,
		IPAddress: "10.0.0.1",
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmitValidationFailure(t *testing.T) {
	h := newSubmissionHarness()

	payload := validLead()
	payload.Email = "not-an-email"
	payload.GDPRConsent = false

	_, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   payload,
		IPAddress: "10.0.0.1",
	})
	var valErr *ValidationFailedError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "email")
	assert.Contains(t, valErr.Fields, "gdprConsent")

	// Nothing persisted for invalid submissions.
	assert.Empty(t, h.requests.created)
	assert.Empty(t, h.consents.created)
	assert.Empty(t, h.audit.actions())
}

func TestSubmitHoneypotFakeSuccess(t *testing.T) {
	h := newSubmissionHarness()

	payload := validLead()
	payload.CompanyWebsite = "http://spam.example"

	res, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   payload,
		IPAddress: "10.0.0.1",
		UserAgent: "bot/1.0",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.ProjectID)

	// Fake success: no request, no consent, only the honeypot audit row.
	assert.Empty(t, h.requests.created)
	assert.Empty(t, h.consents.created)
	actions := h.audit.actions()
	require.Len(t, actions, 1)
	assert.Equal(t, models.AuditHoneypotTriggered, actions[0])
}

func TestSubmitRateLimited(t *testing.T) {
	h := newSubmissionHarness()
	cfg := ratelimit.DefaultConfig()

	for i := 0; i < cfg.MaxAttempts; i++ {
		_, err := h.svc.Submit(context.Background(), SubmissionRequest{
			Payload:   validLead(),
			IPAddress: "10.0.0.9",
		})
		require.NoError(t, err, "submission %d", i+1)
	}

	_, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   validLead(),
		IPAddress: "10.0.0.9",
	})
	var rateErr *RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, cfg.Block, rateErr.RetryAfter)

	actions := h.audit.actions()
	assert.Equal(t, models.AuditRateLimitExceeded, actions[len(actions)-1])

	// A different address is unaffected.
	res, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   validLead(),
		IPAddress: "10.0.0.10",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSubmitConsentFailureDoesNotBlockLead(t *testing.T) {
	h := newSubmissionHarness()
	h.consents.err = errors.New("consents table gone")

	res, err := h.svc.Submit(context.Background(), SubmissionRequest{
		Payload:   validLead(),
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
}
