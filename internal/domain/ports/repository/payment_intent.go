package repository

import (
	"context"
	"time"

	"fotomagic-pro/internal/domain/model"
)

// PaymentIntentRepository stores checkout intents so the reconciler and the
// front-channel verify endpoint can correlate provider events with an order.
type PaymentIntentRepository interface {
	Save(ctx context.Context, tx Tx, intent *model.PaymentIntent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentIntent, error)
	FindByProviderID(ctx context.Context, tx Tx, providerIntentID string) (*model.PaymentIntent, error)

	// UpdateStatusIfPending flips status only when the intent is still
	// pending; reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error)

	// ListPendingOlderThan feeds the sweeper that re-checks intents whose
	// webhook never arrived.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentIntent, error)
}
