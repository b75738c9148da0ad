package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/ports/repository"
)

var _ repository.EmailOutboxRepository = (*outboxRepo)(nil)

type outboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) repository.EmailOutboxRepository {
	return &outboxRepo{pool: pool}
}

func (r *outboxRepo) Enqueue(ctx context.Context, tx repository.Tx, msg *repository.OutboxMessage) error {
	const q = `
INSERT INTO email_outbox (id, recipient, code, package_name, credits, status, attempts, last_error, created_at, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		msg.ID, msg.Recipient, msg.Code, msg.PackageName, msg.Credits, msg.Status, msg.Attempts, msg.LastError, msg.CreatedAt, msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	return nil
}

func (r *outboxRepo) ListPending(ctx context.Context, tx repository.Tx, maxAttempts, limit int) ([]*repository.OutboxMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, recipient, code, package_name, credits, status, attempts, last_error, created_at, sent_at
  FROM email_outbox
 WHERE status = 'pending' AND attempts < $1
 ORDER BY created_at ASC
 LIMIT $2;
`
	rows, err := queryRows(ctx, r.pool, tx, q, maxAttempts, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrStorageUnavailable
	}
	defer rows.Close()

	var out []*repository.OutboxMessage
	for rows.Next() {
		m := new(repository.OutboxMessage)
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Code, &m.PackageName, &m.Credits, &m.Status, &m.Attempts, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkSent(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE email_outbox SET status = 'sent', sent_at = $2 WHERE id = $1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, at); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	return nil
}

// MarkFailed bumps the attempt counter; terminal flips the message to failed
// so the retry worker stops picking it up.
func (r *outboxRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, attemptErr string, terminal bool) error {
	status := repository.OutboxPending
	if terminal {
		status = repository.OutboxFailed
	}
	const q = `UPDATE email_outbox SET attempts = attempts + 1, last_error = $2, status = $3 WHERE id = $1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, attemptErr, status); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrStorageUnavailable
	}
	return nil
}
