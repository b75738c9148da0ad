package adapter

import "context"

// CodeDelivery is the payload of one code email.
type CodeDelivery struct {
	Code        string
	PackageName string
	Credits     int
}

// Notifier delivers a freshly minted code to its owner. Fire-and-forget from
// the ledger's perspective: failures are logged and retried by the outbox
// worker, never escalated to the payment path.
type Notifier interface {
	SendCode(ctx context.Context, recipient string, delivery CodeDelivery) error
}
