package model

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusExpired  PaymentStatus = "expired"
)

// PaymentIntent is our record of a checkout started with the payment
// provider. The provider's asynchronous approval notification (or the
// front-channel verify call) moves it out of pending.
type PaymentIntent struct {
	ID               string // our id
	ProviderIntentID string // provider preference/intent id
	Email            string
	PackageID        string
	PackageName      string
	Credits          int
	AmountCents      int64
	Currency         string
	Status           PaymentStatus
	RedirectURL      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
}

// OrderContext is the external reference payload attached to a payment at
// creation time and read back by the reconciler.
type OrderContext struct {
	Email       string `json:"email"`
	PackageID   string `json:"packageId"`
	PackageName string `json:"packageName"`
	Credits     int    `json:"credits"`
	Timestamp   int64  `json:"timestamp"`
}

func (o OrderContext) Encode() string {
	b, _ := json.Marshal(o)
	return string(b)
}

// DecodeOrderContext parses an external reference payload. An empty or
// unparseable payload yields ok=false; the caller treats that as an
// unrecoverable data-integrity condition for the event.
func DecodeOrderContext(raw string) (OrderContext, bool) {
	var o OrderContext
	if raw == "" {
		return o, false
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return o, false
	}
	return o, true
}

// PaymentDetails is what the provider reports for a payment id.
type PaymentDetails struct {
	ID                string
	Status            PaymentStatus
	ExternalReference string
	PayerEmail        string
	AmountCents       int64
	Currency          string
}
