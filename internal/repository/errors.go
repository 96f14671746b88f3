package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrOrderAlreadyCompleted is returned by the conditional order
	// transition when the pending->completed update matched no row, i.e.
	// the webhook event was already processed.
	ErrOrderAlreadyCompleted = errors.New("order already completed")

	// ErrDuplicatePurchase is returned when the unique order_id constraint
	// on purchased_packages rejects a second entitlement for one order.
	ErrDuplicatePurchase = errors.New("purchase already recorded for order")
)
