//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/repository"
)

func TestTxManager_RollbackOnError(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewCreditCodeRepo(testPool)

	boom := errors.New("boom")
	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()
		cc := &model.CreditCode{
			Code: "FOTO-ABCD-2345", Email: "a@b.c", CreditsTotal: 10,
			PackageName: "Starter", IsActive: true, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}
		if err := repo.Create(ctx, tx, cc); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the callback error", err)
	}

	if _, err := repo.FindByCode(ctx, repository.NoTX, "FOTO-ABCD-2345"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("rolled-back insert is visible: err = %v", err)
	}
}

func TestTxManager_ConsumeAndAuditCommitTogether(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewCreditCodeRepo(testPool)
	seedCode(t, repo, "FOTO-ABCD-2345", 2, nil)

	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		_, err := repo.Consume(ctx, tx, "FOTO-ABCD-2345")
		return err
	})
	if err != nil {
		t.Fatalf("consume tx: %v", err)
	}

	var used, usageRows int
	if err := testPool.QueryRow(ctx, `SELECT credits_used FROM credit_codes WHERE code = $1`, "FOTO-ABCD-2345").Scan(&used); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM credit_usage WHERE code = $1`, "FOTO-ABCD-2345").Scan(&usageRows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if used != 1 || usageRows != 1 {
		t.Errorf("used = %d, audit rows = %d, want 1 and 1", used, usageRows)
	}
}
