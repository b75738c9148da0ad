package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

// Compile-time check
var _ AllowanceUseCase = (*allowanceUC)(nil)

// AllowanceUseCase manages the per-account free tier.
type AllowanceUseCase interface {
	// Get returns the account's allowance, creating it with the default
	// allotment on first sight.
	Get(ctx context.Context, accountID, email string) (*model.FreeAllowance, error)

	// UseFreeCredit spends one free credit; restorations paid this way carry
	// a watermark.
	UseFreeCredit(ctx context.Context, accountID string) (remaining int, err error)
}

type allowanceUC struct {
	allowances repository.FreeAllowanceRepository
	log        *zerolog.Logger
}

func NewAllowanceUseCase(allowances repository.FreeAllowanceRepository, logger *zerolog.Logger) *allowanceUC {
	compLog := logger.With().Str("component", "AllowanceUC").Logger()
	return &allowanceUC{allowances: allowances, log: &compLog}
}

func (u *allowanceUC) Get(ctx context.Context, accountID, email string) (*model.FreeAllowance, error) {
	if accountID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.allowances.Ensure(ctx, repository.NoTX, accountID, model.NormalizeEmail(email))
}

func (u *allowanceUC) UseFreeCredit(ctx context.Context, accountID string) (int, error) {
	if accountID == "" {
		return 0, domain.ErrInvalidArgument
	}
	remaining, err := u.allowances.Consume(ctx, repository.NoTX, accountID)
	if err != nil {
		return 0, err
	}
	u.log.Debug().Str("account", accountID).Int("remaining", remaining).Msg("free credit consumed")
	return remaining, nil
}
