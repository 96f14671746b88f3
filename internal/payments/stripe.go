package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/webhook"
)

// CheckoutInput carries everything needed to open a hosted checkout session.
type CheckoutInput struct {
	CustomerID  string
	PriceID     string
	SuccessURL  string
	CancelURL   string
	UserID      string
	PackageID   string
	PackageName string
}

// PriceInput describes a package price to create on first checkout.
type PriceInput struct {
	PackageName string
	AmountCents int64
	Currency    string
}

// Gateway is the payment provider surface the services depend on. Kept small
// so checkout and webhook logic can be tested against a mock.
type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreatePrice(ctx context.Context, in PriceInput) (string, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

// FindCustomerByEmail returns the id of the first customer with the given
// email, or "" when none exists.
func (g *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}
	return "", nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return c.ID, nil
}

// CreatePrice creates a product and a one-time price for it.
func (g *StripeGateway) CreatePrice(ctx context.Context, in PriceInput) (string, error) {
	productParams := &stripe.ProductParams{Name: stripe.String(in.PackageName)}
	productParams.Context = ctx

	prod, err := product.New(productParams)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(in.AmountCents),
		Currency:   stripe.String(in.Currency),
	}
	priceParams.Context = ctx

	p, err := price.New(priceParams)
	if err != nil {
		return "", fmt.Errorf("create price: %w", err)
	}
	return p.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(in.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", in.UserID)
	params.AddMetadata("package_id", in.PackageID)
	params.AddMetadata("package_name", in.PackageName)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return s, nil
}

// ConstructEvent verifies the webhook signature. An empty webhook secret skips
// verification, which is only acceptable in local development.
func (g *StripeGateway) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if g.webhookSecret == "" {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, fmt.Errorf("parse webhook payload: %w", err)
		}
		return event, nil
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
