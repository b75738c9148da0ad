package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

var _ repository.FreeAllowanceRepository = (*allowanceRepo)(nil)

type allowanceRepo struct {
	pool *pgxpool.Pool
}

func NewAllowanceRepo(pool *pgxpool.Pool) repository.FreeAllowanceRepository {
	return &allowanceRepo{pool: pool}
}

const allowanceColumns = `account_id, email, credits_limit, credits_used, created_at, updated_at`

func (r *allowanceRepo) Ensure(ctx context.Context, tx repository.Tx, accountID, email string) (*model.FreeAllowance, error) {
	const q = `
INSERT INTO free_allowances (account_id, email, credits_limit, credits_used, created_at, updated_at)
VALUES ($1, $2, $3, 0, NOW(), NOW())
ON CONFLICT (account_id) DO NOTHING;
`
	if _, err := execSQL(ctx, r.pool, tx, q, accountID, email, model.DefaultFreeCredits); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrStorageUnavailable
	}
	return r.Find(ctx, tx, accountID)
}

func (r *allowanceRepo) Find(ctx context.Context, tx repository.Tx, accountID string) (*model.FreeAllowance, error) {
	const q = `SELECT ` + allowanceColumns + ` FROM free_allowances WHERE account_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return nil, err
	}

	var fa model.FreeAllowance
	if err := row.Scan(&fa.AccountID, &fa.Email, &fa.CreditsLimit, &fa.CreditsUsed, &fa.CreatedAt, &fa.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &fa, nil
}

// Consume spends one free credit behind the same conditional-update guard the
// code ledger uses.
func (r *allowanceRepo) Consume(ctx context.Context, tx repository.Tx, accountID string) (int, error) {
	const q = `
UPDATE free_allowances
   SET credits_used = credits_used + 1,
       updated_at = NOW()
 WHERE account_id = $1
   AND credits_used < credits_limit
RETURNING credits_limit - credits_used;
`
	row, err := pickRow(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return 0, err
	}

	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, ferr := r.Find(ctx, tx, accountID); ferr != nil {
				return 0, ferr
			}
			return 0, domain.ErrAllowanceExhausted
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return remaining, nil
}
