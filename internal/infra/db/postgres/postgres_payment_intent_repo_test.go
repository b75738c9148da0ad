//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

func seedIntent(t *testing.T, repo repository.PaymentIntentRepository, id string, createdAt time.Time) *model.PaymentIntent {
	t.Helper()
	in := &model.PaymentIntent{
		ID:               id,
		ProviderIntentID: "pref-" + id,
		Email:            "buyer@example.com",
		PackageID:        "starter",
		PackageName:      "Starter",
		Credits:          10,
		AmountCents:      1900,
		Currency:         "BRL",
		Status:           model.PaymentStatusPending,
		RedirectURL:      "https://pay.example/" + id,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	if err := repo.Save(context.Background(), repository.NoTX, in); err != nil {
		t.Fatalf("seed intent %s: %v", id, err)
	}
	return in
}

func TestPaymentIntentRepo_SaveAndFind(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewPaymentIntentRepo(testPool)
	seedIntent(t, repo, "intent-1", time.Now().UTC())

	got, err := repo.FindByID(ctx, repository.NoTX, "intent-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ProviderIntentID != "pref-intent-1" || got.Status != model.PaymentStatusPending {
		t.Errorf("got %+v", got)
	}

	byProvider, err := repo.FindByProviderID(ctx, repository.NoTX, "pref-intent-1")
	if err != nil {
		t.Fatalf("find by provider: %v", err)
	}
	if byProvider.ID != "intent-1" {
		t.Errorf("by provider = %s", byProvider.ID)
	}

	if _, err := repo.FindByID(ctx, repository.NoTX, "intent-nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestPaymentIntentRepo_UpdateStatusIfPending(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewPaymentIntentRepo(testPool)
	seedIntent(t, repo, "intent-1", time.Now().UTC())

	now := time.Now().UTC()
	changed, err := repo.UpdateStatusIfPending(ctx, repository.NoTX, "intent-1", model.PaymentStatusApproved, &now)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !changed {
		t.Fatal("pending intent must change")
	}

	// A settled intent never moves again.
	changed, err = repo.UpdateStatusIfPending(ctx, repository.NoTX, "intent-1", model.PaymentStatusRejected, nil)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if changed {
		t.Fatal("approved intent was re-settled")
	}

	got, _ := repo.FindByID(ctx, repository.NoTX, "intent-1")
	if got.Status != model.PaymentStatusApproved || got.PaidAt == nil {
		t.Errorf("final state = %+v", got)
	}
}

func TestPaymentIntentRepo_ListPendingOlderThan(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewPaymentIntentRepo(testPool)

	old := time.Now().UTC().Add(-time.Hour)
	seedIntent(t, repo, "intent-old", old)
	seedIntent(t, repo, "intent-new", time.Now().UTC())
	settled := seedIntent(t, repo, "intent-done", old)
	if _, err := repo.UpdateStatusIfPending(ctx, repository.NoTX, settled.ID, model.PaymentStatusApproved, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}

	stale, err := repo.ListPendingOlderThan(ctx, repository.NoTX, time.Now().Add(-10*time.Minute), 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "intent-old" {
		t.Fatalf("stale = %+v, want only intent-old", stale)
	}
}
