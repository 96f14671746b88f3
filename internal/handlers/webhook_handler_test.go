package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/payments"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

type stubGateway struct {
	event    stripe.Event
	eventErr error
}

func (g *stubGateway) FindCustomerByEmail(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (g *stubGateway) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	return "cus_stub", nil
}

func (g *stubGateway) CreatePrice(_ context.Context, _ payments.PriceInput) (string, error) {
	return "price_stub", nil
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, _ payments.CheckoutInput) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_stub"}, nil
}

func (g *stubGateway) ConstructEvent(_ []byte, _ string) (stripe.Event, error) {
	return g.event, g.eventErr
}

type stubOrderRepo struct {
	order *models.Order
}

func (s *stubOrderRepo) Create(_ context.Context, _ *models.Order) error { return nil }

func (s *stubOrderRepo) GetBySessionID(_ context.Context, _ string) (*models.Order, error) {
	return nil, repository.ErrNotFound
}

func (s *stubOrderRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) CompleteBySessionID(_ context.Context, sessionID, paymentIntentID string) (*models.Order, error) {
	if s.order == nil || s.order.StripeSessionID != sessionID {
		return nil, repository.ErrNotFound
	}
	if s.order.Status == models.OrderCompleted {
		return s.order, repository.ErrOrderAlreadyCompleted
	}
	s.order.Status = models.OrderCompleted
	s.order.StripePaymentIntentID = paymentIntentID
	return s.order, nil
}

type stubPurchaseRepo struct {
	created int
}

func (s *stubPurchaseRepo) CreateOnce(_ context.Context, p *models.PurchasedPackage) error {
	s.created++
	p.ID = uuid.New()
	return nil
}

func (s *stubPurchaseRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.PurchasedPackage, error) {
	return nil, nil
}

func (s *stubPurchaseRepo) ScheduleConsultation(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (s *stubPurchaseRepo) DeleteByUser(_ context.Context, _ uuid.UUID) error { return nil }

type stubPackageRepo struct{}

func (stubPackageRepo) ListActive(_ context.Context) ([]models.ServicePackage, error) {
	return nil, nil
}

func (stubPackageRepo) ListByCategory(_ context.Context, _ models.PackageCategory) ([]models.ServicePackage, error) {
	return nil, nil
}

func (stubPackageRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.ServicePackage, error) {
	return nil, repository.ErrNotFound
}

func (stubPackageRepo) GetBySlug(_ context.Context, _ string) (*models.ServicePackage, error) {
	return nil, repository.ErrNotFound
}

func (stubPackageRepo) ListContents(_ context.Context, _ uuid.UUID) ([]models.PackageContent, error) {
	return nil, nil
}

func (stubPackageRepo) SetStripePriceID(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type webhookTestEnv struct {
	router    *gin.Engine
	gateway   *stubGateway
	orders    *stubOrderRepo
	purchases *stubPurchaseRepo
}

func newWebhookTestEnv() *webhookTestEnv {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	env := &webhookTestEnv{
		gateway:   &stubGateway{},
		orders:    &stubOrderRepo{},
		purchases: &stubPurchaseRepo{},
	}
	svc := services.NewWebhookService(
		env.gateway, env.orders, env.purchases, stubPackageRepo{},
		services.NewAuditService(&stubAuditRepo{}, logger), nil, logger,
	)
	handler := NewWebhookHandler(svc, logger)

	env.router = gin.New()
	env.router.POST("/webhooks/stripe", handler.HandleStripe)
	return env
}

func (env *webhookTestEnv) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func completedEvent(t *testing.T, sessionID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": sessionID})
	require.NoError(t, err)
	return stripe.Event{Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}
}

func TestWebhookEndpointProcessesEvent(t *testing.T) {
	env := newWebhookTestEnv()
	env.orders.order = &models.Order{
		ID: uuid.New(), UserID: uuid.New(), PackageID: uuid.New(),
		StripeSessionID: "cs_live_1", Amount: 500, Status: models.OrderPending,
	}
	env.gateway.event = completedEvent(t, "cs_live_1")

	rec := env.post(`{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	assert.Equal(t, 1, env.purchases.created)
	assert.Equal(t, models.OrderCompleted, env.orders.order.Status)
}

func TestWebhookEndpointReplayStillAcknowledged(t *testing.T) {
	env := newWebhookTestEnv()
	env.orders.order = &models.Order{
		ID: uuid.New(), UserID: uuid.New(), PackageID: uuid.New(),
		StripeSessionID: "cs_live_1", Amount: 500, Status: models.OrderCompleted,
	}
	env.gateway.event = completedEvent(t, "cs_live_1")

	rec := env.post(`{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.purchases.created)
}

func TestWebhookEndpointBadSignature(t *testing.T) {
	env := newWebhookTestEnv()
	env.gateway.eventErr = errors.New("webhook signature verification failed")

	rec := env.post(`{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpointProcessingFailure(t *testing.T) {
	env := newWebhookTestEnv()
	// Event verifies but no matching order exists, Stripe should retry.
	env.gateway.event = completedEvent(t, "cs_unknown")

	rec := env.post(`{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookEndpointIgnoresOtherEvents(t *testing.T) {
	env := newWebhookTestEnv()
	env.gateway.event = stripe.Event{Type: "charge.refunded", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	rec := env.post(`{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.purchases.created)
}
