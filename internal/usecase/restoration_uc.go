package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/infra/metrics"
)

// RestorationRequest carries one photo through the credit gate to the
// generative backend. Exactly one credit source ends up paying: an explicit
// code wins, then the session's activated code, then the free allowance.
type RestorationRequest struct {
	Image     []byte
	MimeType  string
	Mode      model.RestorationMode
	Code      string // optional explicit code
	SessionID string // optional, resolves the activated code
	AccountID string // required for the free-allowance fallback
}

// RestorationOutcome pairs the restored image with the billing facts the
// client renders (remaining balance, watermark flag).
type RestorationOutcome struct {
	Restoration model.Restoration
	Result      *model.RestorationResult
}

// Compile-time check
var _ RestorationUseCase = (*restorationUC)(nil)

type RestorationUseCase interface {
	// Restore spends one credit and forwards the photo to the restoration
	// backend. The credit is consumed before the upstream call and is not
	// returned when the call fails.
	Restore(ctx context.Context, req RestorationRequest) (*RestorationOutcome, error)
}

type restorationUC struct {
	ledger    LedgerUseCase
	allowance AllowanceUseCase
	sessions  SessionResolver // may be nil when Redis is absent
	backend   adapter.RestorationAdapter
	timeout   time.Duration
	log       *zerolog.Logger
}

// SessionResolver is the read side of the per-session active-code cache.
type SessionResolver interface {
	ActiveCode(ctx context.Context, sessionID string) (string, error)
}

func NewRestorationUseCase(
	ledger LedgerUseCase,
	allowance AllowanceUseCase,
	sessions SessionResolver,
	backend adapter.RestorationAdapter,
	timeout time.Duration,
	logger *zerolog.Logger,
) *restorationUC {
	compLog := logger.With().Str("component", "RestorationUC").Logger()
	return &restorationUC{
		ledger:    ledger,
		allowance: allowance,
		sessions:  sessions,
		backend:   backend,
		timeout:   timeout,
		log:       &compLog,
	}
}

func (u *restorationUC) Restore(ctx context.Context, req RestorationRequest) (*RestorationOutcome, error) {
	if len(req.Image) == 0 || req.MimeType == "" {
		return nil, domain.ErrInvalidArgument
	}

	rst, err := u.charge(ctx, req)
	if err != nil {
		return nil, err
	}
	rst.ID = ulid.MustNew(ulid.Timestamp(rst.StartedAt), rand.Reader).String()
	rst.Mode = req.Mode

	log := u.log.With().Str("restoration", rst.ID).Str("source", string(rst.Source)).Str("mode", string(rst.Mode)).Logger()
	log.Info().Msg("credit consumed, calling backend")

	callCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	result, err := u.backend.Restore(callCtx, req.Image, req.MimeType, rst.Mode)
	if err != nil {
		// The credit stays spent; refunding here would let a flaky backend
		// mint unlimited retries against a one-credit code.
		metrics.IncRestoration(u.backend.Name(), "failed")
		log.Error().Err(err).Msg("backend restore failed")
		if errors.Is(err, domain.ErrUpstreamAuth) {
			return nil, err
		}
		if callCtx.Err() != nil {
			return nil, domain.ErrUpstreamProcessing
		}
		return nil, err
	}

	metrics.IncRestoration(u.backend.Name(), "ok")
	log.Info().Int("bytes", len(result.ImageBytes)).Msg("restoration done")
	return &RestorationOutcome{Restoration: *rst, Result: result}, nil
}

// charge resolves the credit source and spends exactly one credit from it.
func (u *restorationUC) charge(ctx context.Context, req RestorationRequest) (*model.Restoration, error) {
	now := time.Now().UTC()

	code := model.CanonicalCode(req.Code)
	if code == "" && req.SessionID != "" && u.sessions != nil {
		active, err := u.sessions.ActiveCode(ctx, req.SessionID)
		switch {
		case err == nil:
			code = model.CanonicalCode(active)
		case errors.Is(err, domain.ErrNotFound):
			// fall through to the free allowance
		default:
			// Session cache down must not block a paying user who typed
			// nothing; treat as no active code.
			u.log.Warn().Err(err).Msg("session lookup failed, ignoring")
		}
	}

	if code != "" {
		remaining, err := u.ledger.UseCredit(ctx, code)
		if err != nil {
			return nil, err
		}
		return &model.Restoration{
			Source:           model.SourceCode,
			Code:             code,
			Watermark:        false,
			CreditsRemaining: remaining,
			StartedAt:        now,
		}, nil
	}

	if req.AccountID == "" {
		return nil, domain.ErrInvalidArgument
	}
	remaining, err := u.allowance.UseFreeCredit(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	return &model.Restoration{
		Source:           model.SourceFree,
		AccountID:        req.AccountID,
		Watermark:        true,
		CreditsRemaining: remaining,
		StartedAt:        now,
	}, nil
}
