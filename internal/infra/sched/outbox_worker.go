package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/domain/ports/repository"
	"fotomagic-pro/internal/infra/metrics"
)

// OutboxWorker retries parked code emails until they deliver or run out of
// attempts. Delivery is at-least-once; a resent code email is harmless.
type OutboxWorker struct {
	outbox      repository.EmailOutboxRepository
	notifier    adapter.Notifier
	interval    time.Duration
	maxAttempts int
	log         *zerolog.Logger
}

func NewOutboxWorker(outbox repository.EmailOutboxRepository, notifier adapter.Notifier, interval time.Duration, maxAttempts int, logger *zerolog.Logger) *OutboxWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	compLog := logger.With().Str("component", "OutboxWorker").Logger()
	return &OutboxWorker{
		outbox:      outbox,
		notifier:    notifier,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         &compLog,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OutboxWorker) tick(ctx context.Context) {
	pending, err := w.outbox.ListPending(ctx, repository.NoTX, w.maxAttempts, 50)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending failed")
		return
	}
	metrics.SetOutboxPending(len(pending))

	for _, msg := range pending {
		err := w.notifier.SendCode(ctx, msg.Recipient, adapter.CodeDelivery{
			Code:        msg.Code,
			PackageName: msg.PackageName,
			Credits:     msg.Credits,
		})
		if err != nil {
			metrics.IncEmail("failed")
			terminal := msg.Attempts+1 >= w.maxAttempts
			if terminal {
				w.log.Error().Err(err).Str("id", msg.ID).Str("code", msg.Code).Msg("delivery abandoned after max attempts")
			} else {
				w.log.Warn().Err(err).Str("id", msg.ID).Int("attempts", msg.Attempts+1).Msg("delivery retry failed")
			}
			if merr := w.outbox.MarkFailed(ctx, repository.NoTX, msg.ID, err.Error(), terminal); merr != nil {
				w.log.Error().Err(merr).Str("id", msg.ID).Msg("mark failed errored")
			}
			continue
		}
		metrics.IncEmail("sent")
		if merr := w.outbox.MarkSent(ctx, repository.NoTX, msg.ID, time.Now().UTC()); merr != nil {
			w.log.Error().Err(merr).Str("id", msg.ID).Msg("mark sent errored")
		}
	}
}
