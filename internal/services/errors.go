package services

import (
	"errors"
	"time"
)

var (
	// ErrUnauthorized means the caller has no valid identity for the action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller's identity does not permit the action.
	ErrForbidden = errors.New("forbidden")

	// ErrQuoteRequired means the package has no fixed price and cannot be
	// bought through checkout.
	ErrQuoteRequired = errors.New("package requires a custom quote")
)

// RateLimitedError is returned when the authoritative limiter denies an
// action. RetryAfter is surfaced to the client.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return "rate limit exceeded" }

// ValidationFailedError carries per-field messages for a rejected submission.
type ValidationFailedError struct {
	Fields map[string]string
}

func (e *ValidationFailedError) Error() string { return "validation failed" }
