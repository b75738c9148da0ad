package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fotomagic-pro/internal/usecase"
)

// IntentSweeper periodically re-checks stale pending checkout intents whose
// webhook never arrived and settles the ones the provider reports approved.
// This covers lost notifications and crashes mid-settlement.
type IntentSweeper struct {
	uc         usecase.ReconcilerUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending intent must be to retry
	log        *zerolog.Logger
}

func NewIntentSweeper(uc usecase.ReconcilerUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *IntentSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "IntentSweeper").Logger()
	return &IntentSweeper{uc: uc, interval: interval, staleAfter: staleAfter, log: &compLog}
}

func (w *IntentSweeper) Start(ctx context.Context) {
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

func (w *IntentSweeper) tick(ctx context.Context) {
	settled, err := w.uc.ReconcilePending(ctx, w.staleAfter, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile pending failed")
		return
	}
	if settled > 0 {
		w.log.Info().Int("settled", settled).Msg("stale intents settled")
	}
}
