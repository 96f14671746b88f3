package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"

	"github.com/hrldev/portal-service/internal/email"
	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/payments"
	"github.com/hrldev/portal-service/internal/repository"
)

// WebhookService turns verified payment events into completed orders and
// entitlements. Processing is idempotent at two levels: the conditional order
// transition and the unique order_id on purchased packages.
type WebhookService struct {
	gateway   payments.Gateway
	orders    repository.OrderRepository
	purchases repository.PurchasedPackageRepository
	packages  repository.ServicePackageRepository
	audit     *AuditService
	mailer    *email.Mailer
	logger    *logrus.Logger
}

func NewWebhookService(
	gateway payments.Gateway,
	orders repository.OrderRepository,
	purchases repository.PurchasedPackageRepository,
	packages repository.ServicePackageRepository,
	audit *AuditService,
	mailer *email.Mailer,
	logger *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:   gateway,
		orders:    orders,
		purchases: purchases,
		packages:  packages,
		audit:     audit,
		mailer:    mailer,
		logger:    logger,
	}
}

// HandleEvent verifies the payload signature and dispatches the event.
// Unhandled event types are acknowledged without action.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.gateway.ConstructEvent(payload, sigHeader)
	if err != nil {
		middleware.WebhookEvents.WithLabelValues("unknown", "signature_failed").Inc()
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	default:
		s.logger.WithField("type", event.Type).Debug("Ignoring webhook event")
		middleware.WebhookEvents.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		middleware.WebhookEvents.WithLabelValues(eventType, "malformed").Inc()
		return fmt.Errorf("decode checkout session: %w", err)
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	order, err := s.orders.CompleteBySessionID(ctx, session.ID, paymentIntentID)
	if errors.Is(err, repository.ErrOrderAlreadyCompleted) {
		// Replay. The first delivery did all the work.
		s.logger.WithField("session_id", session.ID).Info("Webhook replay, order already completed")
		middleware.WebhookEvents.WithLabelValues(eventType, "duplicate").Inc()
		return nil
	}
	if err != nil {
		middleware.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("complete order for session %s: %w", session.ID, err)
	}

	packageType := "website"
	packageName := "Pachet HRL.dev"
	if pkg, err := s.packages.GetByID(ctx, order.PackageID); err == nil {
		packageName = pkg.Name
		packageType = string(pkg.Category)
	} else {
		s.logger.WithError(err).WithField("package_id", order.PackageID).
			Warn("Package lookup failed for completed order")
	}

	purchase := &models.PurchasedPackage{
		UserID:      order.UserID,
		PackageID:   &order.PackageID,
		OrderID:     order.ID,
		PackageName: packageName,
		PackageType: packageType,
		Price:       order.Amount,
		Status:      models.PurchaseActive,
		StartDate:   time.Now(),
	}
	if err := s.purchases.CreateOnce(ctx, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicatePurchase) {
			s.logger.WithField("order_id", order.ID).Info("Entitlement already exists for order")
		} else {
			middleware.WebhookEvents.WithLabelValues(eventType, "error").Inc()
			return fmt.Errorf("create entitlement for order %s: %w", order.ID, err)
		}
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &order.UserID,
		Action:       models.AuditPurchaseCompleted,
		ResourceType: models.ResourcePurchasedPackages,
		ResourceID:   order.ID.String(),
		Details: map[string]interface{}{
			"package_name": packageName,
			"amount":       order.Amount,
			"session_id":   session.ID,
		},
	})

	// The email the customer typed at checkout wins over what we stored
	// when the session was created.
	recipient := order.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		recipient = session.CustomerDetails.Email
	}

	if s.mailer != nil && recipient != "" {
		confirmation := email.PurchaseConfirmation{
			Email:       recipient,
			PackageName: packageName,
			Amount:      order.Amount,
			OrderID:     order.ID.String(),
		}
		go func() {
			mailCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := s.mailer.SendPurchaseConfirmation(mailCtx, confirmation); err != nil {
				s.logger.WithError(err).Warn("Failed to send purchase confirmation")
			}
		}()
	}

	middleware.WebhookEvents.WithLabelValues(eventType, "processed").Inc()
	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"session_id": session.ID,
		"amount":     order.Amount,
	}).Info("Purchase completed")
	return nil
}
