package repository

import (
	"context"

	"fotomagic-pro/internal/domain/model"
)

// FreeAllowanceRepository tracks the per-account free-tier counters.
type FreeAllowanceRepository interface {
	// Ensure creates the allowance row with the default allotment if the
	// account has none yet, then returns it.
	Ensure(ctx context.Context, tx Tx, accountID, email string) (*model.FreeAllowance, error)

	// Find returns the allowance or domain.ErrNotFound.
	Find(ctx context.Context, tx Tx, accountID string) (*model.FreeAllowance, error)

	// Consume atomically spends one free credit and returns the new remaining
	// count, or domain.ErrAllowanceExhausted when none are left.
	Consume(ctx context.Context, tx Tx, accountID string) (remaining int, err error)
}
