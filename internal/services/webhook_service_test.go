package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/hrldev/portal-service/internal/email"
	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
)

type fakeEmailProvider struct {
	mu   sync.Mutex
	sent []email.Message
}

func (f *fakeEmailProvider) Send(_ context.Context, msg *email.Message) (*email.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *msg)
	return &email.SendResult{ProviderName: f.GetName(), Success: true}, nil
}

func (f *fakeEmailProvider) GetName() string { return "fake" }

func (f *fakeEmailProvider) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, msg := range f.sent {
		out = append(out, msg.To)
	}
	return out
}

type fakePurchaseRepo struct {
	purchases []*models.PurchasedPackage
	byOrder   map[uuid.UUID]bool
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{byOrder: map[uuid.UUID]bool{}}
}

func (f *fakePurchaseRepo) CreateOnce(_ context.Context, purchase *models.PurchasedPackage) error {
	if f.byOrder[purchase.OrderID] {
		return repository.ErrDuplicatePurchase
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	f.byOrder[purchase.OrderID] = true
	f.purchases = append(f.purchases, purchase)
	return nil
}

func (f *fakePurchaseRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.PurchasedPackage, error) {
	var out []models.PurchasedPackage
	for _, p := range f.purchases {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) ScheduleConsultation(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakePurchaseRepo) DeleteByUser(_ context.Context, _ uuid.UUID) error { return nil }

func checkoutCompletedEvent(t *testing.T, sessionID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": sessionID})
	require.NoError(t, err)
	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

type webhookHarness struct {
	svc       *WebhookService
	gateway   *fakeGateway
	orders    *fakeOrderRepo
	purchases *fakePurchaseRepo
	packages  *fakePackageRepo
	audit     *fakeAuditRepo
}

func newWebhookHarness() *webhookHarness {
	h := &webhookHarness{
		gateway:   newFakeGateway(),
		orders:    &fakeOrderRepo{},
		purchases: newFakePurchaseRepo(),
		packages:  newFakePackageRepo(),
		audit:     &fakeAuditRepo{},
	}
	logger := logrus.New()
	h.svc = NewWebhookService(
		h.gateway, h.orders, h.purchases, h.packages,
		NewAuditService(h.audit, logger), nil, logger,
	)
	return h
}

func (h *webhookHarness) withMailer() *fakeEmailProvider {
	provider := &fakeEmailProvider{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	h.svc.mailer = email.NewMailer(provider, "contact@hrldev.ro", "https://hrldev.ro", logger)
	return provider
}

func (h *webhookHarness) seedPendingOrder(t *testing.T) *models.Order {
	t.Helper()
	pkgID := uuid.New()
	h.packages.pkgs[pkgID] = &models.ServicePackage{
		ID: pkgID, Name: "Site de prezentare",
		Category: models.CategoryWebsite, Price: price(500), IsActive: true,
	}
	order := &models.Order{
		UserID:          uuid.New(),
		PackageID:       pkgID,
		StripeSessionID: "cs_test_123",
		Amount:          500,
		Currency:        "eur",
		Status:          models.OrderPending,
		CustomerEmail:   "ana@example.com",
	}
	require.NoError(t, h.orders.Create(context.Background(), order))
	return order
}

func TestWebhookCompletesOrderAndGrantsPackage(t *testing.T) {
	h := newWebhookHarness()
	order := h.seedPendingOrder(t)
	h.gateway.event = checkoutCompletedEvent(t, "cs_test_123")

	err := h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)

	assert.Equal(t, models.OrderCompleted, h.orders.orders[0].Status)

	require.Len(t, h.purchases.purchases, 1)
	granted := h.purchases.purchases[0]
	assert.Equal(t, order.UserID, granted.UserID)
	assert.Equal(t, order.ID, granted.OrderID)
	assert.Equal(t, "Site de prezentare", granted.PackageName)
	assert.Equal(t, "website", granted.PackageType)
	assert.Equal(t, models.PurchaseActive, granted.Status)

	assert.Equal(t, []string{models.AuditPurchaseCompleted}, h.audit.actions())
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	h := newWebhookHarness()
	h.seedPendingOrder(t)
	h.gateway.event = checkoutCompletedEvent(t, "cs_test_123")

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	// Same event delivered again. Acknowledged, no second entitlement
	// and no second audit row.
	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	assert.Len(t, h.purchases.purchases, 1)
	assert.Len(t, h.audit.actions(), 1)
}

func TestWebhookDuplicateEntitlementTolerated(t *testing.T) {
	h := newWebhookHarness()
	order := h.seedPendingOrder(t)
	h.gateway.event = checkoutCompletedEvent(t, "cs_test_123")

	// Entitlement already exists, order transition raced through elsewhere.
	require.NoError(t, h.purchases.CreateOnce(context.Background(), &models.PurchasedPackage{
		UserID: order.UserID, OrderID: order.ID, PackageName: "Site de prezentare",
		PackageType: "website", Status: models.PurchaseActive, StartDate: time.Now(),
	}))

	err := h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Len(t, h.purchases.purchases, 1)
}

func TestWebhookUnknownSessionFails(t *testing.T) {
	h := newWebhookHarness()
	h.gateway.event = checkoutCompletedEvent(t, "cs_missing")

	err := h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, h.purchases.purchases)
}

func TestWebhookSignatureFailure(t *testing.T) {
	h := newWebhookHarness()
	h.gateway.eventErr = errors.New("webhook signature verification failed")

	err := h.svc.HandleEvent(context.Background(), []byte(`{}`), "bad")
	require.Error(t, err)
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.purchases.purchases)
}

func TestWebhookIgnoresUnrelatedEvents(t *testing.T) {
	h := newWebhookHarness()
	h.gateway.event = stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))
	assert.Empty(t, h.purchases.purchases)
	assert.Empty(t, h.audit.actions())
}

func TestWebhookAttachesPaymentIntent(t *testing.T) {
	h := newWebhookHarness()
	h.seedPendingOrder(t)
	h.gateway.event = stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: []byte(`{"id": "cs_test_123", "payment_intent": "pi_123"}`)},
	}

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	assert.Equal(t, models.OrderCompleted, h.orders.orders[0].Status)
	assert.Equal(t, "pi_123", h.orders.orders[0].StripePaymentIntentID)
}

func TestWebhookConfirmationPrefersEventEmail(t *testing.T) {
	h := newWebhookHarness()
	provider := h.withMailer()
	h.seedPendingOrder(t)
	// The customer paid with a different address than the one stored at
	// session creation. The confirmation goes to the paying address.
	h.gateway.event = stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: []byte(`{
			"id": "cs_test_123",
			"customer_details": {"email": "platitor@example.com"}
		}`)},
	}

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	require.Eventually(t, func() bool {
		return len(provider.recipients()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "platitor@example.com", provider.recipients()[0])
}

func TestWebhookConfirmationFallsBackToOrderEmail(t *testing.T) {
	h := newWebhookHarness()
	provider := h.withMailer()
	h.seedPendingOrder(t)
	h.gateway.event = checkoutCompletedEvent(t, "cs_test_123")

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	require.Eventually(t, func() bool {
		return len(provider.recipients()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "ana@example.com", provider.recipients()[0])
}

func TestWebhookPackageLookupFallback(t *testing.T) {
	h := newWebhookHarness()
	order := &models.Order{
		UserID:          uuid.New(),
		PackageID:       uuid.New(),
		StripeSessionID: "cs_orphan",
		Amount:          300,
		Status:          models.OrderPending,
		CustomerEmail:   "ana@example.com",
	}
	require.NoError(t, h.orders.Create(context.Background(), order))
	h.gateway.event = checkoutCompletedEvent(t, "cs_orphan")

	require.NoError(t, h.svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))

	require.Len(t, h.purchases.purchases, 1)
	assert.Equal(t, "Pachet HRL.dev", h.purchases.purchases[0].PackageName)
	assert.Equal(t, "website", h.purchases.purchases[0].PackageType)
}
