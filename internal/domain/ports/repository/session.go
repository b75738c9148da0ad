package repository

import "context"

// SessionRepository remembers which code a browser session activated so the
// client does not retype it per restoration. A convenience cache only: every
// consuming path re-validates the code against the ledger, so a stale or
// tampered session entry can never spend credits a code does not have.
type SessionRepository interface {
	ActivateCode(ctx context.Context, sessionID, code string) error

	// ActiveCode returns the session's activated code or domain.ErrNotFound.
	ActiveCode(ctx context.Context, sessionID string) (string, error)

	DeactivateCode(ctx context.Context, sessionID string) error
}
