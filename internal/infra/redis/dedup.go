package redis

import (
	"context"
	"fmt"
	"time"

	"fotomagic-pro/internal/usecase"
)

var _ usecase.DedupGuard = (*DedupGuard)(nil)

// DedupGuard short-circuits duplicate payment notifications before they hit
// the database or the provider API. Entries expire; the Postgres
// processed_payments set remains the permanent authority.
type DedupGuard struct {
	client *Client
	ttl    time.Duration
}

func NewDedupGuard(client *Client) *DedupGuard {
	return &DedupGuard{
		client: client,
		ttl:    72 * time.Hour, // provider redelivery windows are much shorter
	}
}

func dedupKey(paymentID string) string {
	return fmt.Sprintf("processed_payment:%s", paymentID)
}

func (g *DedupGuard) Seen(ctx context.Context, paymentID string) (bool, error) {
	return g.client.Exists(ctx, dedupKey(paymentID))
}

func (g *DedupGuard) Remember(ctx context.Context, paymentID string) error {
	return g.client.Set(ctx, dedupKey(paymentID), "1", g.ttl)
}
