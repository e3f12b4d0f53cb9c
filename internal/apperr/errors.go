// Package apperr holds the sentinel errors shared across mealtime packages.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrMalformedPayload = errors.New("malformed export payload")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)
