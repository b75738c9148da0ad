package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway approves everything instantly for local/dev runs.
type NoopGateway struct {
	payments map[string]*model.PaymentDetails
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{payments: make(map[string]*model.PaymentDetails)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateIntent(ctx context.Context, pkg model.CreditPackage, payerEmail string, orderRef string) (string, string, error) {
	intentID := uuid.NewString()
	paymentID := uuid.NewString()
	g.payments[intentID] = &model.PaymentDetails{
		ID:                paymentID,
		Status:            model.PaymentStatusApproved,
		ExternalReference: orderRef,
		PayerEmail:        payerEmail,
	}
	g.payments[paymentID] = g.payments[intentID]
	return intentID, fmt.Sprintf("http://localhost/dev-checkout/%s", intentID), nil
}

func (g *NoopGateway) FetchPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error) {
	if p, ok := g.payments[paymentID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (g *NoopGateway) FindPaymentByIntent(ctx context.Context, providerIntentID string) (*model.PaymentDetails, error) {
	if p, ok := g.payments[providerIntentID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}
