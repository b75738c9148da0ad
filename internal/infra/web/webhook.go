package web

import (
	"context"
	"io"
	"net/http"

	"fotomagic-pro/internal/infra/logging"
)

const maxWebhookBody = 64 << 10

// handleWebhook acks fast and settles in the background. The provider
// retries on anything but a 2xx, so even a malformed body is acknowledged;
// settlement is idempotent and a retry of a processed payment is a no-op.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.log.Warn().Err(err).Msg("webhook body read failed")
		w.WriteHeader(http.StatusOK)
		return
	}

	traceID := logging.TraceID(r.Context())
	task := func(ctx context.Context) error {
		if traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		return s.reconcilerUC.OnPaymentNotification(ctx, body)
	}

	if s.pool != nil {
		if err := s.pool.Submit(task); err != nil {
			// Queue saturated. Settle inline rather than lose the event;
			// the sweeper would catch it eventually, but this is cheaper.
			if err := task(r.Context()); err != nil {
				s.log.Error().Err(err).Msg("inline webhook settlement failed")
			}
		}
	} else {
		if err := task(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("webhook settlement failed")
		}
	}

	w.WriteHeader(http.StatusOK)
}
