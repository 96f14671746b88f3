package services

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/payments"
	"github.com/hrldev/portal-service/internal/repository"
)

// CheckoutRequest opens a hosted checkout session for an authenticated buyer.
type CheckoutRequest struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	PackageID uuid.UUID
}

// CheckoutResult carries the hosted session the client redirects to.
type CheckoutResult struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"url"`
}

// CheckoutService opens payment sessions. The pending order row is written
// only after the provider session exists, so an abandoned provider call leaves
// no orphan order.
type CheckoutService struct {
	gateway    payments.Gateway
	packages   repository.ServicePackageRepository
	orders     repository.OrderRepository
	siteOrigin string
	logger     *logrus.Logger
}

func NewCheckoutService(
	gateway payments.Gateway,
	packages repository.ServicePackageRepository,
	orders repository.OrderRepository,
	siteOrigin string,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		gateway:    gateway,
		packages:   packages,
		orders:     orders,
		siteOrigin: siteOrigin,
		logger:     logger,
	}
}

// CreateSession validates the package, resolves customer and price on the
// provider and opens the checkout session.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	pkg, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, repository.ErrNotFound
	}
	if pkg.Price == nil {
		return nil, ErrQuoteRequired
	}

	customerID, err := s.gateway.FindCustomerByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, req.Email, req.Name)
		if err != nil {
			return nil, err
		}
	}

	priceID := pkg.StripePriceID
	if priceID == "" {
		priceID, err = s.gateway.CreatePrice(ctx, payments.PriceInput{
			PackageName: pkg.Name,
			AmountCents: int64(math.Round(*pkg.Price * 100)),
			Currency:    "eur",
		})
		if err != nil {
			return nil, err
		}
		if err := s.packages.SetStripePriceID(ctx, pkg.ID, priceID); err != nil {
			// Next checkout creates a fresh price; harmless beyond clutter.
			s.logger.WithError(err).WithField("package_id", pkg.ID).
				Warn("Failed to cache stripe price id")
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutInput{
		CustomerID:  customerID,
		PriceID:     priceID,
		SuccessURL:  s.siteOrigin + "/#/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.siteOrigin + "/#/checkout/cancel",
		UserID:      req.UserID.String(),
		PackageID:   pkg.ID.String(),
		PackageName: pkg.Name,
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          req.UserID,
		PackageID:       pkg.ID,
		StripeSessionID: session.ID,
		Amount:          *pkg.Price,
		Currency:        "eur",
		Status:          models.OrderPending,
		CustomerEmail:   req.Email,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.WithError(err).WithField("session_id", session.ID).
			Error("Failed to record pending order")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"package_id": pkg.ID,
		"session_id": session.ID,
	}).Info("Checkout session created")

	return &CheckoutResult{SessionID: session.ID, SessionURL: session.URL}, nil
}
