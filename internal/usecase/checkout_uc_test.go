//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
)

func TestCheckoutCreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a pending intent with the provider redirect", func(t *testing.T) {
		intents := newMemIntentRepo()
		uc := NewCheckoutUseCase(intents, newFakeGateway(), testLogger())

		intent, err := uc.CreateIntent(ctx, "family", "Buyer@Example.com")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if intent.Status != model.PaymentStatusPending {
			t.Errorf("status = %s, want pending", intent.Status)
		}
		if intent.RedirectURL == "" || intent.ProviderIntentID == "" {
			t.Errorf("provider fields missing: %+v", intent)
		}
		if intent.Credits != 35 || intent.AmountCents != 4900 || intent.Currency != "BRL" {
			t.Errorf("catalog fields wrong: %+v", intent)
		}
		if intent.Email != "buyer@example.com" {
			t.Errorf("email not normalized: %q", intent.Email)
		}

		saved, err := intents.FindByID(ctx, nil, intent.ID)
		if err != nil {
			t.Fatalf("intent not persisted: %v", err)
		}
		if saved.ProviderIntentID != intent.ProviderIntentID {
			t.Errorf("persisted intent differs: %+v", saved)
		}
	})

	t.Run("order context round-trips through the external reference", func(t *testing.T) {
		uc := NewCheckoutUseCase(newMemIntentRepo(), newFakeGateway(), testLogger())
		intent, err := uc.CreateIntent(ctx, "starter", "a@b.c")
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		order := model.OrderContext{
			Email:       intent.Email,
			PackageID:   intent.PackageID,
			PackageName: intent.PackageName,
			Credits:     intent.Credits,
		}
		decoded, ok := model.DecodeOrderContext(order.Encode())
		if !ok {
			t.Fatal("encoded order context failed to decode")
		}
		if decoded.Email != "a@b.c" || decoded.Credits != 10 || decoded.PackageName != "Starter" {
			t.Errorf("round-trip lost data: %+v", decoded)
		}
	})

	t.Run("unknown package is rejected", func(t *testing.T) {
		uc := NewCheckoutUseCase(newMemIntentRepo(), newFakeGateway(), testLogger())
		if _, err := uc.CreateIntent(ctx, "mega", "a@b.c"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing email is rejected", func(t *testing.T) {
		uc := NewCheckoutUseCase(newMemIntentRepo(), newFakeGateway(), testLogger())
		if _, err := uc.CreateIntent(ctx, "starter", "   "); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}
