//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"fotomagic-pro/internal/domain/ports/repository"
)

func enqueueMsg(t *testing.T, repo repository.EmailOutboxRepository) *repository.OutboxMessage {
	t.Helper()
	msg := &repository.OutboxMessage{
		ID:          uuid.NewString(),
		Recipient:   "buyer@example.com",
		Code:        "FOTO-ABCD-2345",
		PackageName: "Starter",
		Credits:     10,
		Status:      repository.OutboxPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Enqueue(context.Background(), repository.NoTX, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestOutboxRepo_Lifecycle(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewOutboxRepo(testPool)
	msg := enqueueMsg(t, repo)

	pending, err := repo.ListPending(ctx, repository.NoTX, 5, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSent(ctx, repository.NoTX, msg.ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, _ = repo.ListPending(ctx, repository.NoTX, 5, 10)
	if len(pending) != 0 {
		t.Errorf("sent message still pending: %+v", pending)
	}
}

func TestOutboxRepo_FailureRetries(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewOutboxRepo(testPool)
	msg := enqueueMsg(t, repo)

	// Non-terminal failures keep the message retryable and count attempts.
	if err := repo.MarkFailed(ctx, repository.NoTX, msg.ID, "smtp timeout", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	pending, _ := repo.ListPending(ctx, repository.NoTX, 5, 10)
	if len(pending) != 1 || pending[0].Attempts != 1 || pending[0].LastError != "smtp timeout" {
		t.Fatalf("after one failure: %+v", pending)
	}

	// Attempt budget exhausted: no longer listed.
	for i := 0; i < 4; i++ {
		_ = repo.MarkFailed(ctx, repository.NoTX, msg.ID, "smtp timeout", false)
	}
	pending, _ = repo.ListPending(ctx, repository.NoTX, 5, 10)
	if len(pending) != 0 {
		t.Errorf("message over the attempt budget still listed: %+v", pending)
	}

	// Terminal failure parks it regardless of attempts.
	msg2 := enqueueMsg(t, repo)
	if err := repo.MarkFailed(ctx, repository.NoTX, msg2.ID, "mailbox does not exist", true); err != nil {
		t.Fatalf("terminal fail: %v", err)
	}
	pending, _ = repo.ListPending(ctx, repository.NoTX, 5, 10)
	if len(pending) != 0 {
		t.Errorf("terminally failed message still pending: %+v", pending)
	}
}
