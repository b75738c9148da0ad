package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

var _ repository.PaymentIntentRepository = (*paymentIntentRepo)(nil)

type paymentIntentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentIntentRepo(pool *pgxpool.Pool) repository.PaymentIntentRepository {
	return &paymentIntentRepo{pool: pool}
}

const intentColumns = `id, provider_intent_id, email, package_id, package_name, credits, amount_cents, currency, status, redirect_url, created_at, updated_at, paid_at`

func (r *paymentIntentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	const q = `
INSERT INTO payment_intents (` + intentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at,
  paid_at = EXCLUDED.paid_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.ProviderIntentID, p.Email, p.PackageID, p.PackageName, p.Credits, p.AmountCents, p.Currency, p.Status, p.RedirectURL, p.CreatedAt, p.UpdatedAt, p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	return nil
}

func scanIntent(row pgx.Row) (*model.PaymentIntent, error) {
	p := new(model.PaymentIntent)
	err := row.Scan(&p.ID, &p.ProviderIntentID, &p.Email, &p.PackageID, &p.PackageName, &p.Credits, &p.AmountCents, &p.Currency, &p.Status, &p.RedirectURL, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentIntentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentIntent, error) {
	const q = `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanIntent(row)
}

func (r *paymentIntentRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerIntentID string) (*model.PaymentIntent, error) {
	const q = `SELECT ` + intentColumns + ` FROM payment_intents WHERE provider_intent_id = $1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, providerIntentID)
	if err != nil {
		return nil, err
	}
	return scanIntent(row)
}

func (r *paymentIntentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payment_intents
   SET status = $2,
       paid_at = COALESCE($3, paid_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';
`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), paidAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrStorageUnavailable
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentIntentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentIntent, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + intentColumns + ` FROM payment_intents WHERE status = 'pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrStorageUnavailable
	}
	defer rows.Close()

	var out []*model.PaymentIntent
	for rows.Next() {
		p := new(model.PaymentIntent)
		if err := rows.Scan(&p.ID, &p.ProviderIntentID, &p.Email, &p.PackageID, &p.PackageName, &p.Credits, &p.AmountCents, &p.Currency, &p.Status, &p.RedirectURL, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
