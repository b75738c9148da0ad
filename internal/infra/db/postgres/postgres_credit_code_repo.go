package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CreditCodeRepository = (*creditCodeRepo)(nil)

const uniqueViolation = "23505"

type creditCodeRepo struct {
	pool *pgxpool.Pool
}

func NewCreditCodeRepo(pool *pgxpool.Pool) repository.CreditCodeRepository {
	return &creditCodeRepo{pool: pool}
}

func (r *creditCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.CreditCode) error {
	const q = `
INSERT INTO credit_codes (code, email, credits_total, credits_used, package_name, payment_id, is_active, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.Code, code.Email, code.CreditsTotal, code.CreditsUsed, code.PackageName, code.PaymentID, code.IsActive, code.CreatedAt, code.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The payment_id unique index is the exactly-once tie-break for
			// concurrent issuance; a code collision just means regenerate.
			if pgErr.ConstraintName == "credit_codes_payment_id_key" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrDuplicateCode
		}
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	return nil
}

const creditCodeColumns = `code, email, credits_total, credits_used, package_name, payment_id, is_active, created_at, expires_at`

func scanCreditCode(row pgx.Row) (*model.CreditCode, error) {
	var cc model.CreditCode
	err := row.Scan(&cc.Code, &cc.Email, &cc.CreditsTotal, &cc.CreditsUsed, &cc.PackageName, &cc.PaymentID, &cc.IsActive, &cc.CreatedAt, &cc.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &cc, nil
}

func (r *creditCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.CreditCode, error) {
	const q = `SELECT ` + creditCodeColumns + ` FROM credit_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCreditCode(row)
}

func (r *creditCodeRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.CreditCode, error) {
	const q = `SELECT ` + creditCodeColumns + ` FROM credit_codes WHERE payment_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	cc, err := scanCreditCode(row)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return cc, nil
}

// Consume spends one credit with a single conditional update. The row version
// both concurrent callers race on is the credits_used counter itself, so two
// consumes of a one-credit code can never both see the guard pass.
func (r *creditCodeRepo) Consume(ctx context.Context, tx repository.Tx, code string) (int, error) {
	const q = `
UPDATE credit_codes
   SET credits_used = credits_used + 1
 WHERE code = $1
   AND is_active = TRUE
   AND expires_at > NOW()
   AND credits_used < credits_total
RETURNING credits_total - credits_used;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return 0, err
	}

	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.classifyRejection(ctx, tx, code)
		}
		return 0, domain.ErrReadDatabaseRow
	}

	if err := r.appendUsage(ctx, tx, code); err != nil {
		return 0, err
	}
	return remaining, nil
}

// classifyRejection re-reads the row after a zero-row consume and reports the
// first failed precondition: not-found, inactive, expired, exhausted.
func (r *creditCodeRepo) classifyRejection(ctx context.Context, tx repository.Tx, code string) error {
	cc, err := r.FindByCode(ctx, tx, code)
	if err != nil {
		return err
	}
	switch {
	case !cc.IsActive:
		return domain.ErrCodeInactive
	case cc.Expired(time.Now()):
		return domain.ErrCodeExpired
	case cc.Exhausted():
		return domain.ErrCodeExhausted
	default:
		// The guard failed but the re-read looks consumable: a concurrent
		// consume landed between the two statements. Exhausted is the only
		// precondition that can change underneath us.
		return domain.ErrCodeExhausted
	}
}

// appendUsage writes the audit row for a successful consume.
func (r *creditCodeRepo) appendUsage(ctx context.Context, tx repository.Tx, code string) error {
	const q = `INSERT INTO credit_usage (id, code, action, used_at) VALUES ($1, $2, 'restoration', NOW());`
	if _, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), code); err != nil {
		return domain.ErrStorageUnavailable
	}
	return nil
}

func (r *creditCodeRepo) Deactivate(ctx context.Context, tx repository.Tx, code string) error {
	const q = `UPDATE credit_codes SET is_active = FALSE WHERE code = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *creditCodeRepo) ListByEmail(ctx context.Context, tx repository.Tx, email string) ([]*model.CreditCode, error) {
	const q = `SELECT ` + creditCodeColumns + ` FROM credit_codes WHERE email = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrStorageUnavailable
	}
	defer rows.Close()

	var out []*model.CreditCode
	for rows.Next() {
		cc := new(model.CreditCode)
		if err := rows.Scan(&cc.Code, &cc.Email, &cc.CreditsTotal, &cc.CreditsUsed, &cc.PackageName, &cc.PaymentID, &cc.IsActive, &cc.CreatedAt, &cc.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *creditCodeRepo) Stats(ctx context.Context, tx repository.Tx) (*model.LedgerStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_active AND expires_at > NOW() AND credits_used < credits_total),
       COALESCE(SUM(credits_total), 0),
       COALESCE(SUM(credits_used), 0)
  FROM credit_codes;
`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	var s model.LedgerStats
	if err := row.Scan(&s.TotalCodes, &s.ActiveCodes, &s.CreditsIssued, &s.CreditsUsed); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	s.CreditsOutstanding = s.CreditsIssued - s.CreditsUsed
	return &s, nil
}
