package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/domain/ports/repository"
	"fotomagic-pro/internal/infra/metrics"
)

// DedupGuard is an optional fast-path membership check in front of the
// authoritative processed-payment set (backed by Redis in production). It is
// advisory only; the transactional mint-and-mark, tie-broken by the unique
// payment_id constraint, is what guarantees exactly-once issuance.
type DedupGuard interface {
	Seen(ctx context.Context, paymentID string) (bool, error)
	Remember(ctx context.Context, paymentID string) error
}

// Compile-time check
var _ ReconcilerUseCase = (*reconcilerUC)(nil)

// ReconcilerUseCase translates at-least-once payment-approval notifications
// into exactly-once code issuance and delivery.
type ReconcilerUseCase interface {
	// OnPaymentNotification handles one raw webhook body. It never returns an
	// error for malformed or non-approval events; those are acknowledged,
	// logged and dropped. A non-nil error means transient infrastructure
	// trouble for which provider redelivery is useful.
	OnPaymentNotification(ctx context.Context, body []byte) error

	// VerifyPayment is the front-channel path: the payer returns from
	// checkout with a payment id and asks for their code. Runs the same
	// exactly-once issuance as the webhook.
	VerifyPayment(ctx context.Context, paymentID string) (*model.CreditCode, model.PaymentStatus, error)

	// ReconcilePending re-checks stale pending intents whose webhook never
	// arrived. Returns how many intents were settled.
	ReconcilePending(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
}

// CodeMinter is the slice of the ledger the reconciler needs: minting inside
// the transaction that also records the payment as processed.
type CodeMinter interface {
	CreateCodeInTx(ctx context.Context, tx repository.Tx, email string, credits int, packageName string, paymentID *string) (*model.CreditCode, error)
}

type reconcilerUC struct {
	codes     repository.CreditCodeRepository
	processed repository.ProcessedPaymentRepository
	intents   repository.PaymentIntentRepository
	outbox    repository.EmailOutboxRepository
	gateway   adapter.PaymentGateway
	notifier  adapter.Notifier
	dedup     DedupGuard // may be nil
	ledger    CodeMinter
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewReconcilerUseCase(
	codes repository.CreditCodeRepository,
	processed repository.ProcessedPaymentRepository,
	intents repository.PaymentIntentRepository,
	outbox repository.EmailOutboxRepository,
	gateway adapter.PaymentGateway,
	notifier adapter.Notifier,
	dedup DedupGuard,
	ledger CodeMinter,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *reconcilerUC {
	compLog := logger.With().Str("component", "ReconcilerUC").Logger()
	return &reconcilerUC{
		codes:     codes,
		processed: processed,
		intents:   intents,
		outbox:    outbox,
		gateway:   gateway,
		notifier:  notifier,
		dedup:     dedup,
		ledger:    ledger,
		tm:        tm,
		log:       &compLog,
	}
}

// notification is the provider's push shape: {"type":"payment","data":{"id":…}}.
type notification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (u *reconcilerUC) OnPaymentNotification(ctx context.Context, body []byte) error {
	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		metrics.IncNotification("malformed")
		u.log.Error().Err(err).Bytes("body", body).Msg("unparseable payment notification")
		return nil // acked and dropped; redelivery would not help
	}
	if n.Type != "payment" || n.Data.ID.String() == "" {
		metrics.IncNotification("ignored")
		return nil
	}
	return u.settle(ctx, n.Data.ID.String())
}

// settle runs steps 2–7 of the reconciliation algorithm for one payment id.
func (u *reconcilerUC) settle(ctx context.Context, paymentID string) error {
	log := u.log.With().Str("payment_id", paymentID).Logger()

	// Fast-path dedup before the provider round-trip.
	if u.dedup != nil {
		if seen, err := u.dedup.Seen(ctx, paymentID); err == nil && seen {
			metrics.IncNotification("duplicate")
			return nil
		}
	}
	if seen, err := u.processed.Contains(ctx, repository.NoTX, paymentID); err != nil {
		return err
	} else if seen {
		metrics.IncNotification("duplicate")
		return nil
	}

	details, err := u.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		log.Error().Err(err).Msg("fetch payment details failed")
		return err // transient; redelivery useful
	}
	if details.Status != model.PaymentStatusApproved {
		// pending/rejected are expected non-approved states, not errors
		metrics.IncNotification("not_approved")
		log.Info().Str("status", string(details.Status)).Msg("payment not approved, skipping")
		return nil
	}

	order, ok := model.DecodeOrderContext(details.ExternalReference)
	if !ok || model.NormalizeEmail(order.Email) == "" {
		// Unrecoverable data-integrity condition for this event; membership
		// is still recorded so redeliveries stop refetching it.
		if _, err := u.processed.Mark(ctx, repository.NoTX, paymentID); err != nil {
			return err
		}
		metrics.IncNotification("no_order_context")
		log.Error().Str("external_reference", details.ExternalReference).Msg("cannot determine order email, dropping")
		return nil
	}

	// Mint and mark the payment processed in one transaction, so a failed
	// mint leaves the payment claimable by the next delivery. The unique
	// payment_id constraint on credit_codes breaks concurrency ties: the
	// loser sees ErrAlreadyExists and its mark rolls back with the rest.
	var cc *model.CreditCode
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		minted, mintErr := u.ledger.CreateCodeInTx(ctx, tx, order.Email, order.Credits, order.PackageName, &paymentID)
		if mintErr != nil {
			return mintErr
		}
		cc = minted
		_, markErr := u.processed.Mark(ctx, tx, paymentID)
		return markErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			metrics.IncNotification("duplicate")
			log.Info().Msg("code already minted for payment")
			return nil
		}
		log.Error().Err(err).Msg("code issuance failed")
		return err
	}
	if u.dedup != nil {
		_ = u.dedup.Remember(ctx, paymentID)
	}
	metrics.IncNotification("issued")
	metrics.IncCodeIssued("payment")
	metrics.IncPayment("approved")
	metrics.AddPaymentRevenue(details.Currency, details.AmountCents)

	u.deliver(ctx, cc)
	return nil
}

// deliver enqueues the code email and attempts one immediate send. A send
// failure parks the message for the outbox worker; the code stands either way.
func (u *reconcilerUC) deliver(ctx context.Context, cc *model.CreditCode) {
	msg := &repository.OutboxMessage{
		ID:          uuid.NewString(),
		Recipient:   cc.Email,
		Code:        cc.Code,
		PackageName: cc.PackageName,
		Credits:     cc.CreditsTotal,
		Status:      repository.OutboxPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := u.outbox.Enqueue(ctx, repository.NoTX, msg); err != nil {
		u.log.Error().Err(err).Str("code", cc.Code).Msg("outbox enqueue failed")
	}

	err := u.notifier.SendCode(ctx, cc.Email, adapter.CodeDelivery{
		Code:        cc.Code,
		PackageName: cc.PackageName,
		Credits:     cc.CreditsTotal,
	})
	if err != nil {
		metrics.IncEmail("failed")
		u.log.Error().Err(err).Str("code", cc.Code).Msg("code email failed, left in outbox")
		_ = u.outbox.MarkFailed(ctx, repository.NoTX, msg.ID, err.Error(), false)
		return
	}
	metrics.IncEmail("sent")
	now := time.Now().UTC()
	_ = u.outbox.MarkSent(ctx, repository.NoTX, msg.ID, now)
}

func (u *reconcilerUC) VerifyPayment(ctx context.Context, paymentID string) (*model.CreditCode, model.PaymentStatus, error) {
	if paymentID == "" {
		return nil, "", domain.ErrInvalidArgument
	}

	// Already settled: hand back the existing code.
	if cc, err := u.codes.FindByPaymentID(ctx, repository.NoTX, paymentID); err == nil {
		return cc, model.PaymentStatusApproved, nil
	} else if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrCodeNotFound) {
		return nil, "", err
	}

	details, err := u.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, "", err
	}
	if details.Status != model.PaymentStatusApproved {
		return nil, details.Status, nil
	}

	if err := u.settle(ctx, paymentID); err != nil {
		return nil, "", err
	}
	cc, err := u.codes.FindByPaymentID(ctx, repository.NoTX, paymentID)
	if err != nil {
		// Settled by this call but the order context was unusable.
		return nil, model.PaymentStatusApproved, nil
	}
	return cc, model.PaymentStatusApproved, nil
}

func (u *reconcilerUC) ReconcilePending(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-staleAfter)
	pending, err := u.intents.ListPendingOlderThan(ctx, repository.NoTX, cutoff, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, intent := range pending {
		details, err := u.gateway.FindPaymentByIntent(ctx, intent.ProviderIntentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // payer never finished checkout
			}
			u.log.Error().Err(err).Str("intent", intent.ID).Msg("intent reconcile lookup failed")
			continue
		}

		switch details.Status {
		case model.PaymentStatusApproved:
			if err := u.settle(ctx, details.ID); err != nil {
				u.log.Error().Err(err).Str("intent", intent.ID).Msg("intent settle failed")
				continue
			}
			now := time.Now().UTC()
			_, _ = u.intents.UpdateStatusIfPending(ctx, repository.NoTX, intent.ID, model.PaymentStatusApproved, &now)
			settled++
		case model.PaymentStatusRejected:
			_, _ = u.intents.UpdateStatusIfPending(ctx, repository.NoTX, intent.ID, model.PaymentStatusRejected, nil)
			metrics.IncPayment("rejected")
		}
	}
	return settled, nil
}
