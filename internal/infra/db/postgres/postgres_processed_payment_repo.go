package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/ports/repository"
)

var _ repository.ProcessedPaymentRepository = (*processedPaymentRepo)(nil)

type processedPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewProcessedPaymentRepo(pool *pgxpool.Pool) repository.ProcessedPaymentRepository {
	return &processedPaymentRepo{pool: pool}
}

// Mark inserts the id into the permanent set. RowsAffected distinguishes the
// first caller from every later duplicate, including concurrent ones.
func (r *processedPaymentRepo) Mark(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	const q = `INSERT INTO processed_payments (payment_id, processed_at) VALUES ($1, NOW()) ON CONFLICT (payment_id) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrStorageUnavailable
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *processedPaymentRepo) Contains(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM processed_payments WHERE payment_id = $1);`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return false, err
	}
	var seen bool
	if err := row.Scan(&seen); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return seen, nil
}
