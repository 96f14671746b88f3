package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PackageCategory groups service packages on the pricing page.
type PackageCategory string

const (
	CategoryWebsite       PackageCategory = "website"
	CategorySEO           PackageCategory = "seo"
	CategoryGraphicDesign PackageCategory = "graphic_design"
	CategoryMaintenance   PackageCategory = "maintenance"
)

// ServicePackage is a purchasable offering. Managed out of band; the
// application treats it as read-only except for the cached Stripe price id.
type ServicePackage struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Slug             string          `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex"`
	Name             string          `json:"name" gorm:"type:varchar(255);not null"`
	Category         PackageCategory `json:"category" gorm:"type:varchar(50);not null;index"`
	Description      string          `json:"description" gorm:"type:text"`
	ShortDescription string          `json:"short_description" gorm:"type:text"`
	// Price in EUR. Nil means the package requires a custom quote and
	// cannot go through checkout.
	Price         *float64       `json:"price" gorm:"type:numeric"`
	Features      datatypes.JSON `json:"features" gorm:"type:jsonb;not null;default:'[]'"`
	StripePriceID string         `json:"stripe_price_id" gorm:"type:varchar(255)"`
	SortOrder     int            `json:"sort_order" gorm:"not null;default:0"`
	IsActive      bool           `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (ServicePackage) TableName() string { return "service_packages" }

// PackageContent is an ordered content block attached to a package detail page.
type PackageContent struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PackageID   uuid.UUID      `json:"package_id" gorm:"type:uuid;not null;index"`
	ContentType string         `json:"content_type" gorm:"type:varchar(50);not null;default:'text'"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Content     datatypes.JSON `json:"content" gorm:"type:jsonb;not null;default:'{}'"`
	SortOrder   int            `json:"sort_order" gorm:"not null;default:0"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (PackageContent) TableName() string { return "package_contents" }

// OrderStatus tracks checkout progress. The only transition is
// pending -> completed, performed by the webhook handler.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
)

// Order is created when a hosted checkout session is opened and completed by
// the payment webhook, keyed idempotently on the Stripe session id.
type Order struct {
	ID                    uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID                uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	PackageID             uuid.UUID   `json:"package_id" gorm:"type:uuid;not null"`
	StripeSessionID       string      `json:"stripe_session_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	StripePaymentIntentID string      `json:"stripe_payment_intent_id" gorm:"type:varchar(255)"`
	Amount                float64     `json:"amount" gorm:"type:numeric;not null"`
	Currency              string      `json:"currency" gorm:"type:varchar(3);not null;default:'eur'"`
	Status                OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerEmail         string      `json:"customer_email" gorm:"type:varchar(255)"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// PurchaseStatus tracks a purchased package entitlement.
type PurchaseStatus string

const (
	PurchaseActive    PurchaseStatus = "active"
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
)

// PurchasedPackage is the entitlement proving a user paid for a package.
// OrderID carries a unique index so a replayed webhook can never create a
// second entitlement for the same order.
type PurchasedPackage struct {
	ID                    uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID                uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	PackageID             *uuid.UUID     `json:"package_id" gorm:"type:uuid"`
	OrderID               uuid.UUID      `json:"order_id" gorm:"type:uuid;not null;uniqueIndex"`
	PackageName           string         `json:"package_name" gorm:"type:varchar(255);not null"`
	PackageType           string         `json:"package_type" gorm:"type:varchar(50);not null"`
	Price                 float64        `json:"price" gorm:"type:numeric;not null"`
	Status                PurchaseStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	StartDate             time.Time      `json:"start_date" gorm:"not null"`
	EndDate               *time.Time     `json:"end_date"`
	ConsultationScheduled bool           `json:"consultation_scheduled" gorm:"not null;default:false"`
	ConsultationDate      *time.Time     `json:"consultation_date"`
	CreatedAt             time.Time      `json:"created_at"`
}

func (PurchasedPackage) TableName() string { return "purchased_packages" }
