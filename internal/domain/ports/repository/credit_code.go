package repository

import (
	"context"

	"fotomagic-pro/internal/domain/model"
)

// CreditCodeRepository is the port for the code ledger. All lookups take the
// canonical uppercase code; callers canonicalize before the store is touched.
type CreditCodeRepository interface {
	// Create persists a freshly generated code. Returns domain.ErrDuplicateCode
	// when the code string collides with an existing record (the caller may
	// regenerate and retry) and domain.ErrAlreadyExists when a record bound to
	// the same payment id already exists.
	Create(ctx context.Context, tx Tx, code *model.CreditCode) error

	// FindByCode returns the record or domain.ErrCodeNotFound.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.CreditCode, error)

	// FindByPaymentID returns the code minted for a payment, if any.
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.CreditCode, error)

	// Consume atomically increments credits_used by one and returns the new
	// remaining count. Rejections, classified in order: domain.ErrCodeNotFound,
	// domain.ErrCodeInactive, domain.ErrCodeExpired, domain.ErrCodeExhausted.
	// Two concurrent calls against a code with one credit left never both
	// succeed.
	Consume(ctx context.Context, tx Tx, code string) (remaining int, err error)

	// Deactivate permanently disables a code regardless of remaining credits.
	Deactivate(ctx context.Context, tx Tx, code string) error

	// ListByEmail returns all codes issued to an owner contact, newest first.
	ListByEmail(ctx context.Context, tx Tx, email string) ([]*model.CreditCode, error)

	// Stats aggregates the whole ledger.
	Stats(ctx context.Context, tx Tx) (*model.LedgerStats, error)
}
