package adapter

import (
	"context"

	"fotomagic-pro/internal/domain/model"
)

// PaymentGateway is the port for the payment provider.
type PaymentGateway interface {
	Name() string

	// CreateIntent registers a checkout preference with the provider and
	// returns the provider intent id plus the URL the payer is redirected to.
	// The order context travels in the provider's external reference field and
	// comes back verbatim in FetchPayment.
	CreateIntent(ctx context.Context, pkg model.CreditPackage, payerEmail string, orderRef string) (intentID, redirectURL string, err error)

	// FetchPayment retrieves full payment details by the provider's payment
	// id, as delivered in a webhook notification.
	FetchPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error)

	// FindPaymentByIntent searches for the payment created from a checkout
	// intent. domain.ErrNotFound when the payer never completed checkout.
	FindPaymentByIntent(ctx context.Context, providerIntentID string) (*model.PaymentDetails, error)
}
