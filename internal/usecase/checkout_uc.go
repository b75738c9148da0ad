package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/domain/ports/repository"
	"fotomagic-pro/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase starts a purchase with the payment provider.
type CheckoutUseCase interface {
	// CreateIntent registers a checkout for the package and returns the
	// persisted intent carrying the provider redirect URL.
	CreateIntent(ctx context.Context, packageID, payerEmail string) (*model.PaymentIntent, error)
}

type checkoutUC struct {
	intents repository.PaymentIntentRepository
	gateway adapter.PaymentGateway
	log     *zerolog.Logger
}

func NewCheckoutUseCase(intents repository.PaymentIntentRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *checkoutUC {
	compLog := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{intents: intents, gateway: gateway, log: &compLog}
}

func (u *checkoutUC) CreateIntent(ctx context.Context, packageID, payerEmail string) (*model.PaymentIntent, error) {
	email := model.NormalizeEmail(payerEmail)
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	pkg, ok := model.FindPackage(packageID)
	if !ok {
		return nil, domain.ErrNotFound
	}

	orderRef := model.OrderContext{
		Email:       email,
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Credits:     pkg.Credits,
		Timestamp:   time.Now().UnixMilli(),
	}.Encode()

	providerID, redirectURL, err := u.gateway.CreateIntent(ctx, pkg, email, orderRef)
	if err != nil {
		metrics.IncPayment("initiate_failed")
		return nil, err
	}

	now := time.Now().UTC()
	intent := &model.PaymentIntent{
		ID:               uuid.NewString(),
		ProviderIntentID: providerID,
		Email:            email,
		PackageID:        pkg.ID,
		PackageName:      pkg.Name,
		Credits:          pkg.Credits,
		AmountCents:      pkg.PriceCents,
		Currency:         "BRL",
		Status:           model.PaymentStatusPending,
		RedirectURL:      redirectURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.intents.Save(ctx, repository.NoTX, intent); err != nil {
		return nil, err
	}
	metrics.IncPayment("initiated")
	u.log.Info().Str("intent", intent.ID).Str("package", pkg.ID).Msg("checkout intent created")
	return intent, nil
}
