package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hrldev/portal-service/internal/models"
)

// OrderRepository persists checkout orders and owns the pending->completed
// transition used by the payment webhook.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	// CompleteBySessionID flips a pending order to completed and attaches
	// the payment intent id in the same update. It is the idempotency gate
	// for webhook replays: a second call for the same session returns
	// ErrOrderAlreadyCompleted.
	CompleteBySessionID(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "stripe_session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) CompleteBySessionID(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, models.OrderPending).
		Updates(map[string]interface{}{
			"status":                   models.OrderCompleted,
			"stripe_payment_intent_id": paymentIntentID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the order never existed or it was already completed.
		order, err := r.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if order.Status == models.OrderCompleted {
			return order, ErrOrderAlreadyCompleted
		}
		return nil, ErrNotFound
	}
	return r.GetBySessionID(ctx, sessionID)
}

// IsUniqueViolation reports whether err is a unique constraint failure.
// Matched by message so both postgres and sqlite test databases work.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed")
}
