package repository

import "context"

// ProcessedPaymentRepository is the append-only set of payment identifiers
// that already resulted in code issuance. Membership is permanent.
type ProcessedPaymentRepository interface {
	// Mark records the id as processed. Returns first=true only for the first
	// caller; concurrent duplicate notifications lose here.
	Mark(ctx context.Context, tx Tx, paymentID string) (first bool, err error)

	// Contains reports membership without mutating the set.
	Contains(ctx context.Context, tx Tx, paymentID string) (bool, error)
}
