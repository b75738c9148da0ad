//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
)

type restorationDeps struct {
	codes      *memCodeRepo
	allowances *memAllowanceRepo
	sessions   *fakeSessions
	backend    *fakeBackend
	ledger     LedgerUseCase
	uc         RestorationUseCase
}

func newRestorationDeps() *restorationDeps {
	d := &restorationDeps{
		codes:      newMemCodeRepo(),
		allowances: newMemAllowanceRepo(),
		sessions:   &fakeSessions{active: make(map[string]string)},
		backend:    &fakeBackend{},
	}
	d.ledger = NewLedgerUseCase(d.codes, nopTxManager{}, testLogger())
	allowanceUC := NewAllowanceUseCase(d.allowances, testLogger())
	d.uc = NewRestorationUseCase(d.ledger, allowanceUC, d.sessions, d.backend, time.Minute, testLogger())
	return d
}

func (d *restorationDeps) mintCode(t *testing.T, credits int) *model.CreditCode {
	t.Helper()
	cc, err := d.ledger.CreateCode(context.Background(), "a@b.c", credits, "Starter", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return cc
}

var photo = []byte("jpeg bytes")

func TestRestorationChargesExplicitCode(t *testing.T) {
	ctx := context.Background()
	d := newRestorationDeps()
	cc := d.mintCode(t, 3)

	out, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", Code: cc.Code})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Restoration.Source != model.SourceCode || out.Restoration.Watermark {
		t.Errorf("paid restoration got %+v", out.Restoration)
	}
	if out.Restoration.CreditsRemaining != 2 {
		t.Errorf("remaining = %d, want 2", out.Restoration.CreditsRemaining)
	}
	if out.Restoration.ID == "" {
		t.Error("restoration id missing")
	}
}

func TestRestorationCodePrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit code wins over the session code", func(t *testing.T) {
		d := newRestorationDeps()
		explicit := d.mintCode(t, 5)
		inSession := d.mintCode(t, 5)
		d.sessions.active["sess-1"] = inSession.Code

		if _, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", Code: explicit.Code, SessionID: "sess-1"}); err != nil {
			t.Fatalf("restore: %v", err)
		}
		if got := d.codes.store[explicit.Code].CreditsUsed; got != 1 {
			t.Errorf("explicit code used = %d, want 1", got)
		}
		if got := d.codes.store[inSession.Code].CreditsUsed; got != 0 {
			t.Errorf("session code used = %d, want 0", got)
		}
	})

	t.Run("session code wins over the free allowance", func(t *testing.T) {
		d := newRestorationDeps()
		cc := d.mintCode(t, 5)
		d.sessions.active["sess-1"] = cc.Code

		out, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", SessionID: "sess-1", AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if out.Restoration.Source != model.SourceCode {
			t.Errorf("source = %s, want code", out.Restoration.Source)
		}
	})

	t.Run("session cache outage falls back to the free allowance", func(t *testing.T) {
		d := newRestorationDeps()
		d.sessions.err = errors.New("redis down")

		out, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", SessionID: "sess-1", AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if out.Restoration.Source != model.SourceFree {
			t.Errorf("source = %s, want free", out.Restoration.Source)
		}
	})
}

func TestRestorationFreeAllowance(t *testing.T) {
	ctx := context.Background()

	t.Run("free restorations carry a watermark", func(t *testing.T) {
		d := newRestorationDeps()
		out, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", AccountID: "acct-1"})
		if err != nil {
			t.Fatalf("restore: %v", err)
		}
		if !out.Restoration.Watermark || out.Restoration.Source != model.SourceFree {
			t.Errorf("free restoration got %+v", out.Restoration)
		}
	})

	t.Run("allotment is exactly the default", func(t *testing.T) {
		d := newRestorationDeps()
		for i := 0; i < model.DefaultFreeCredits; i++ {
			if _, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", AccountID: "acct-1"}); err != nil {
				t.Fatalf("free restore %d: %v", i, err)
			}
		}
		_, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", AccountID: "acct-1"})
		if !errors.Is(err, domain.ErrAllowanceExhausted) {
			t.Fatalf("err = %v, want ErrAllowanceExhausted", err)
		}
	})

	t.Run("no code and no account is rejected", func(t *testing.T) {
		d := newRestorationDeps()
		if _, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg"}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestRestorationCreditNotRefundedOnFailure(t *testing.T) {
	ctx := context.Background()
	d := newRestorationDeps()
	cc := d.mintCode(t, 3)
	d.backend.restoreErr = errors.New("model overloaded")

	_, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", Code: cc.Code})
	if err == nil {
		t.Fatal("expected the backend failure to surface")
	}
	if got := d.codes.store[cc.Code].CreditsUsed; got != 1 {
		t.Fatalf("credits used = %d after failed restore, want 1 (no refund)", got)
	}
}

func TestRestorationRejectedCodeNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	d := newRestorationDeps()
	cc := d.mintCode(t, 1)
	if _, err := d.ledger.UseCredit(ctx, cc.Code); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", Code: cc.Code})
	if !errors.Is(err, domain.ErrCodeExhausted) {
		t.Fatalf("err = %v, want ErrCodeExhausted", err)
	}
	if d.backend.calls != 0 {
		t.Errorf("backend called %d times for a rejected code", d.backend.calls)
	}
}

func TestRestorationAuthFailurePassthrough(t *testing.T) {
	ctx := context.Background()
	d := newRestorationDeps()
	cc := d.mintCode(t, 3)
	d.backend.restoreErr = domain.ErrUpstreamAuth

	_, err := d.uc.Restore(ctx, RestorationRequest{Image: photo, MimeType: "image/jpeg", Code: cc.Code})
	if !errors.Is(err, domain.ErrUpstreamAuth) {
		t.Fatalf("err = %v, want ErrUpstreamAuth", err)
	}
}
