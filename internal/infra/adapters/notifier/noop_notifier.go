package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs deliveries instead of sending email; used in dev runs
// without a Resend key.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	compLog := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{log: &compLog}
}

func (n *NoopNotifier) SendCode(ctx context.Context, recipient string, delivery adapter.CodeDelivery) error {
	n.log.Info().Str("to", recipient).Str("code", delivery.Code).Int("credits", delivery.Credits).Msg("code email (noop)")
	return nil
}
