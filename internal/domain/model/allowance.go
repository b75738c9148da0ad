package model

import "time"

// DefaultFreeCredits is the allotment granted to every account at creation.
const DefaultFreeCredits = 2

// FreeAllowance is the per-account free-tier counter pair. It lives in a
// separate namespace from credit codes; restorations paid from it carry a
// watermark.
type FreeAllowance struct {
	AccountID    string
	Email        string
	CreditsLimit int
	CreditsUsed  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *FreeAllowance) CreditsRemaining() int {
	return a.CreditsLimit - a.CreditsUsed
}
