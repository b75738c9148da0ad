package model

import (
	"regexp"
	"strings"
	"time"
)

// CodePrefix is the fixed tag every redemption code carries. One prefix per
// deployment; codes from other deployments never validate here.
const CodePrefix = "FOTO"

// CodeAlphabet is the 31-symbol set codes are drawn from. It excludes the
// characters users confuse when transcribing by hand: 0/O, 1/I/L.
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ValidityPeriod is how long a code stays redeemable after issuance.
const ValidityPeriod = 365 * 24 * time.Hour

var codePattern = regexp.MustCompile(`^` + CodePrefix + `-[A-HJKMNP-Z2-9]{4}-[A-HJKMNP-Z2-9]{4}$`)

// CreditCode is a prepaid bundle of restoration credits, redeemable by anyone
// holding the code string. The canonical uppercase code is the primary key.
type CreditCode struct {
	Code         string
	Email        string
	CreditsTotal int
	CreditsUsed  int
	PackageName  string
	PaymentID    *string // nil for administratively created codes
	IsActive     bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (c *CreditCode) CreditsRemaining() int {
	return c.CreditsTotal - c.CreditsUsed
}

func (c *CreditCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c *CreditCode) Exhausted() bool {
	return c.CreditsRemaining() <= 0
}

// LedgerStats aggregates the code ledger for the admin dashboard.
type LedgerStats struct {
	TotalCodes         int   `json:"total_codes"`
	ActiveCodes        int   `json:"active_codes"`
	CreditsIssued      int64 `json:"credits_issued"`
	CreditsUsed        int64 `json:"credits_used"`
	CreditsOutstanding int64 `json:"credits_outstanding"`
}

// CanonicalCode normalizes user-entered input to the stored form: trimmed and
// uppercased. It does not validate.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCodeFormat reports whether the canonical form of code matches
// PREFIX-AAAA-BBBB over the restricted alphabet.
func ValidCodeFormat(code string) bool {
	return codePattern.MatchString(CanonicalCode(code))
}

// NormalizeEmail lowercases and trims an owner contact for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
