package model

import (
	"context"
	"errors"
)

var (
	// Record related errors
	ErrNotFound       = errors.New("record not found")
	ErrNotSoftDeleted = errors.New("record is not soft-deleted")
	ErrNotDeleted     = errors.New("record is not deleted")

	// Collection related errors
	ErrCollectionNotFound   = errors.New("collection not found")
	ErrSoftDeleteDisabled   = errors.New("soft delete is disabled for collection")
	ErrNotDecorated         = errors.New("collection primitives not captured")
	ErrConfirmationRequired = errors.New("confirmation required")

	// Permission/Access related errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorCode maps an error to the stable code reported in API envelopes and
// bulk item results.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrNotSoftDeleted):
		return "NOT_SOFT_DELETED"
	case errors.Is(err, ErrNotDeleted):
		return "NOT_DELETED"
	case errors.Is(err, ErrCollectionNotFound):
		return "COLLECTION_NOT_FOUND"
	case errors.Is(err, ErrSoftDeleteDisabled):
		return "SOFT_DELETE_DISABLED"
	case errors.Is(err, ErrConfirmationRequired):
		return "CONFIRMATION_REQUIRED"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "STORAGE_FAILURE"
	}
}
