package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

// RejectReason is the wire classification of a business-rule rejection.
// Infrastructure failures are never mapped to a reason; callers must be able
// to tell "retry later" from "permanently unusable".
type RejectReason string

const (
	ReasonNotFound  RejectReason = "not_found"
	ReasonInactive  RejectReason = "inactive"
	ReasonExpired   RejectReason = "expired"
	ReasonExhausted RejectReason = "exhausted"
	ReasonMalformed RejectReason = "malformed"
)

// ReasonFor maps a ledger rejection to its wire reason. ok=false means the
// error is not a business rejection (infrastructure, retryable).
func ReasonFor(err error) (RejectReason, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidCodeFormat):
		return ReasonMalformed, true
	case errors.Is(err, domain.ErrCodeNotFound):
		return ReasonNotFound, true
	case errors.Is(err, domain.ErrCodeInactive):
		return ReasonInactive, true
	case errors.Is(err, domain.ErrCodeExpired):
		return ReasonExpired, true
	case errors.Is(err, domain.ErrCodeExhausted):
		return ReasonExhausted, true
	default:
		return "", false
	}
}

// ValidationResult is the read-only preview of a code's usability.
type ValidationResult struct {
	Valid            bool
	Reason           RejectReason
	Code             string
	CreditsRemaining int
	CreditsTotal     int
	PackageName      string
	Email            string
	ExpiresAt        time.Time
}

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the redemption protocol: every entry point (HTTP handler,
// CLI, reconciler) issues, validates and consumes codes through here instead
// of re-deriving the precondition chain.
type LedgerUseCase interface {
	// CreateCode mints a fresh code for email with the given credit total.
	// paymentID is nil on the administrative path.
	CreateCode(ctx context.Context, email string, credits int, packageName string, paymentID *string) (*model.CreditCode, error)

	// ValidateCode previews usability without mutating anything. Format is
	// checked before the store is touched.
	ValidateCode(ctx context.Context, code string) (*ValidationResult, error)

	// UseCredit consumes exactly one credit and returns the remaining count.
	// The only mutating client-facing operation on a code.
	UseCredit(ctx context.Context, code string) (remaining int, err error)

	// DeactivateCode administratively disables a code; terminal.
	DeactivateCode(ctx context.Context, code string) error

	// ListCodes returns all codes issued to an owner contact.
	ListCodes(ctx context.Context, email string) ([]*model.CreditCode, error)

	// Stats aggregates the ledger for the admin dashboard.
	Stats(ctx context.Context) (*model.LedgerStats, error)
}

// createRetries bounds regenerate-and-retry on a generation collision.
const createRetries = 3

type ledgerUC struct {
	codes repository.CreditCodeRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewLedgerUseCase(codes repository.CreditCodeRepository, tm repository.TransactionManager, logger *zerolog.Logger) *ledgerUC {
	compLog := logger.With().Str("component", "LedgerUC").Logger()
	return &ledgerUC{codes: codes, tm: tm, log: &compLog}
}

func (u *ledgerUC) CreateCode(ctx context.Context, email string, credits int, packageName string, paymentID *string) (*model.CreditCode, error) {
	return u.CreateCodeInTx(ctx, repository.NoTX, email, credits, packageName, paymentID)
}

// CreateCodeInTx mints inside a caller-owned transaction, so issuance can
// commit together with whatever made it due (the processed-payment mark).
// A code collision aborts a live transaction; the surfaced error rolls the
// whole unit back and the caller's retry starts a fresh one.
func (u *ledgerUC) CreateCodeInTx(ctx context.Context, tx repository.Tx, email string, credits int, packageName string, paymentID *string) (*model.CreditCode, error) {
	email = model.NormalizeEmail(email)
	if email == "" || credits <= 0 || packageName == "" {
		return nil, domain.ErrInvalidArgument
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		cc := &model.CreditCode{
			Code:         code,
			Email:        email,
			CreditsTotal: credits,
			CreditsUsed:  0,
			PackageName:  packageName,
			PaymentID:    paymentID,
			IsActive:     true,
			CreatedAt:    now,
			ExpiresAt:    now.Add(model.ValidityPeriod),
		}
		err = u.codes.Create(ctx, tx, cc)
		if err == nil {
			u.log.Info().Str("code", cc.Code).Int("credits", credits).Str("package", packageName).Msg("code created")
			return cc, nil
		}
		if errors.Is(err, domain.ErrDuplicateCode) {
			// Regenerate; never surfaced to the user.
			u.log.Warn().Str("code", code).Msg("generation collision, retrying")
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (u *ledgerUC) ValidateCode(ctx context.Context, code string) (*ValidationResult, error) {
	canonical := model.CanonicalCode(code)
	if !model.ValidCodeFormat(canonical) {
		return &ValidationResult{Valid: false, Reason: ReasonMalformed}, nil
	}

	cc, err := u.codes.FindByCode(ctx, repository.NoTX, canonical)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return &ValidationResult{Valid: false, Reason: ReasonNotFound}, nil
		}
		return nil, err
	}

	// Same precondition chain as consume, read-only.
	switch {
	case !cc.IsActive:
		return &ValidationResult{Valid: false, Reason: ReasonInactive}, nil
	case cc.Expired(time.Now()):
		return &ValidationResult{Valid: false, Reason: ReasonExpired}, nil
	case cc.Exhausted():
		return &ValidationResult{Valid: false, Reason: ReasonExhausted}, nil
	}

	return &ValidationResult{
		Valid:            true,
		Code:             cc.Code,
		CreditsRemaining: cc.CreditsRemaining(),
		CreditsTotal:     cc.CreditsTotal,
		PackageName:      cc.PackageName,
		Email:            cc.Email,
		ExpiresAt:        cc.ExpiresAt,
	}, nil
}

func (u *ledgerUC) UseCredit(ctx context.Context, code string) (int, error) {
	canonical := model.CanonicalCode(code)
	if !model.ValidCodeFormat(canonical) {
		return 0, domain.ErrInvalidCodeFormat
	}
	// The consume and its usage audit row commit together.
	var remaining int
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		remaining, err = u.codes.Consume(ctx, tx, canonical)
		return err
	})
	if err != nil {
		return 0, err
	}
	u.log.Debug().Str("code", canonical).Int("remaining", remaining).Msg("credit consumed")
	return remaining, nil
}

func (u *ledgerUC) DeactivateCode(ctx context.Context, code string) error {
	canonical := model.CanonicalCode(code)
	if !model.ValidCodeFormat(canonical) {
		return domain.ErrInvalidCodeFormat
	}
	if err := u.codes.Deactivate(ctx, repository.NoTX, canonical); err != nil {
		return err
	}
	u.log.Info().Str("code", canonical).Msg("code deactivated")
	return nil
}

func (u *ledgerUC) ListCodes(ctx context.Context, email string) ([]*model.CreditCode, error) {
	return u.codes.ListByEmail(ctx, repository.NoTX, model.NormalizeEmail(email))
}

func (u *ledgerUC) Stats(ctx context.Context) (*model.LedgerStats, error) {
	return u.codes.Stats(ctx, repository.NoTX)
}
