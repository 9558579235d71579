package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")

	ErrInvalidEnvelope       = errors.New("invalid event envelope")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrUnsupportedEventClass = errors.New("unsupported event class")
)
