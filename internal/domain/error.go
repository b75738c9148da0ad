package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Credit code rejections, in the order the store checks them.
	ErrCodeNotFound  = errors.New("credit code not found")
	ErrCodeInactive  = errors.New("credit code disabled")
	ErrCodeExpired   = errors.New("credit code expired")
	ErrCodeExhausted = errors.New("no credits remaining")

	ErrInvalidCodeFormat = errors.New("malformed credit code")
	ErrDuplicateCode     = errors.New("generated code already exists")

	ErrAllowanceExhausted = errors.New("free allowance exhausted")

	// Transient infrastructure failure; safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Restoration collaborator failures.
	ErrUpstreamAuth       = errors.New("restoration provider rejected credentials")
	ErrUpstreamProcessing = errors.New("restoration failed")

	ErrMalformedNotification = errors.New("malformed payment notification")

	ErrRateLimited = errors.New("too many requests")
)
