package repository

import (
	"context"
	"time"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxMessage is one queued code-delivery email. Delivery is best-effort
// from the ledger's perspective; the outbox keeps it eventually reliable.
type OutboxMessage struct {
	ID          string
	Recipient   string
	Code        string
	PackageName string
	Credits     int
	Status      OutboxStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	SentAt      *time.Time
}

// EmailOutboxRepository is the retryable delivery log for code emails.
type EmailOutboxRepository interface {
	Enqueue(ctx context.Context, tx Tx, msg *OutboxMessage) error

	// ListPending returns undelivered messages with fewer than maxAttempts
	// attempts, oldest first.
	ListPending(ctx context.Context, tx Tx, maxAttempts, limit int) ([]*OutboxMessage, error)

	MarkSent(ctx context.Context, tx Tx, id string, at time.Time) error
	MarkFailed(ctx context.Context, tx Tx, id string, attemptErr string, terminal bool) error
}
