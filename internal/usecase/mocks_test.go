package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// nopTxManager runs the function without a real transaction; the in-memory
// repos are already atomic under their own locks.
type nopTxManager struct{}

func (nopTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memCodeRepo is a small in-memory code ledger used by unit tests.
type memCodeRepo struct {
	mu         sync.Mutex
	store      map[string]*model.CreditCode // by canonical code
	createErr  error                        // simulate store failures
	collisions int                          // first N creates report a code collision
	calls      int                          // Create invocations, for retry tests
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.CreditCode)}
}

func (m *memCodeRepo) Create(ctx context.Context, _ repository.Tx, cc *model.CreditCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.collisions > 0 {
		m.collisions--
		return domain.ErrDuplicateCode
	}
	if _, ok := m.store[cc.Code]; ok {
		return domain.ErrDuplicateCode
	}
	if cc.PaymentID != nil {
		for _, other := range m.store {
			if other.PaymentID != nil && *other.PaymentID == *cc.PaymentID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *cc
	m.store[cc.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.CreditCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.store[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *cc
	return &cp, nil
}

func (m *memCodeRepo) FindByPaymentID(ctx context.Context, _ repository.Tx, paymentID string) (*model.CreditCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cc := range m.store {
		if cc.PaymentID != nil && *cc.PaymentID == paymentID {
			cp := *cc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCodeRepo) Consume(ctx context.Context, _ repository.Tx, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.store[code]
	if !ok {
		return 0, domain.ErrCodeNotFound
	}
	switch {
	case !cc.IsActive:
		return 0, domain.ErrCodeInactive
	case cc.Expired(time.Now()):
		return 0, domain.ErrCodeExpired
	case cc.Exhausted():
		return 0, domain.ErrCodeExhausted
	}
	cc.CreditsUsed++
	return cc.CreditsRemaining(), nil
}

func (m *memCodeRepo) Deactivate(ctx context.Context, _ repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.store[code]
	if !ok {
		return domain.ErrCodeNotFound
	}
	cc.IsActive = false
	return nil
}

func (m *memCodeRepo) ListByEmail(ctx context.Context, _ repository.Tx, email string) ([]*model.CreditCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CreditCode
	for _, cc := range m.store {
		if cc.Email == email {
			cp := *cc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCodeRepo) Stats(ctx context.Context, _ repository.Tx) (*model.LedgerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.LedgerStats{}
	now := time.Now()
	for _, cc := range m.store {
		s.TotalCodes++
		if cc.IsActive && !cc.Expired(now) && !cc.Exhausted() {
			s.ActiveCodes++
		}
		s.CreditsIssued += int64(cc.CreditsTotal)
		s.CreditsUsed += int64(cc.CreditsUsed)
	}
	s.CreditsOutstanding = s.CreditsIssued - s.CreditsUsed
	return s, nil
}

type memAllowanceRepo struct {
	mu    sync.Mutex
	store map[string]*model.FreeAllowance
}

func newMemAllowanceRepo() *memAllowanceRepo {
	return &memAllowanceRepo{store: make(map[string]*model.FreeAllowance)}
}

func (m *memAllowanceRepo) Ensure(ctx context.Context, _ repository.Tx, accountID, email string) (*model.FreeAllowance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fa, ok := m.store[accountID]
	if !ok {
		now := time.Now().UTC()
		fa = &model.FreeAllowance{AccountID: accountID, Email: email, CreditsLimit: model.DefaultFreeCredits, CreatedAt: now, UpdatedAt: now}
		m.store[accountID] = fa
	}
	cp := *fa
	return &cp, nil
}

func (m *memAllowanceRepo) Find(ctx context.Context, _ repository.Tx, accountID string) (*model.FreeAllowance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fa, ok := m.store[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *fa
	return &cp, nil
}

func (m *memAllowanceRepo) Consume(ctx context.Context, _ repository.Tx, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fa, ok := m.store[accountID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if fa.CreditsUsed >= fa.CreditsLimit {
		return 0, domain.ErrAllowanceExhausted
	}
	fa.CreditsUsed++
	return fa.CreditsRemaining(), nil
}

type memProcessedRepo struct {
	mu    sync.Mutex
	store map[string]bool
}

func newMemProcessedRepo() *memProcessedRepo {
	return &memProcessedRepo{store: make(map[string]bool)}
}

func (m *memProcessedRepo) Mark(ctx context.Context, _ repository.Tx, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store[paymentID] {
		return false, nil
	}
	m.store[paymentID] = true
	return true, nil
}

func (m *memProcessedRepo) Contains(ctx context.Context, _ repository.Tx, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[paymentID], nil
}

type memIntentRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentIntent
}

func newMemIntentRepo() *memIntentRepo {
	return &memIntentRepo{store: make(map[string]*model.PaymentIntent)}
}

func (m *memIntentRepo) Save(ctx context.Context, _ repository.Tx, intent *model.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *intent
	m.store[intent.ID] = &cp
	return nil
}

func (m *memIntentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *memIntentRepo) FindByProviderID(ctx context.Context, _ repository.Tx, providerID string) (*model.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.store {
		if in.ProviderIntentID == providerID {
			cp := *in
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memIntentRepo) UpdateStatusIfPending(ctx context.Context, _ repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.store[id]
	if !ok || in.Status != model.PaymentStatusPending {
		return false, nil
	}
	in.Status = status
	if paidAt != nil {
		in.PaidAt = paidAt
	}
	return true, nil
}

func (m *memIntentRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentIntent
	for _, in := range m.store {
		if in.Status == model.PaymentStatusPending && in.CreatedAt.Before(olderThan) {
			cp := *in
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type memOutboxRepo struct {
	mu    sync.Mutex
	store map[string]*repository.OutboxMessage
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{store: make(map[string]*repository.OutboxMessage)}
}

func (m *memOutboxRepo) Enqueue(ctx context.Context, _ repository.Tx, msg *repository.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.store[msg.ID] = &cp
	return nil
}

func (m *memOutboxRepo) ListPending(ctx context.Context, _ repository.Tx, maxAttempts, limit int) ([]*repository.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.OutboxMessage
	for _, msg := range m.store {
		if msg.Status == repository.OutboxPending && msg.Attempts < maxAttempts {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOutboxRepo) MarkSent(ctx context.Context, _ repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.store[id]; ok {
		msg.Status = repository.OutboxSent
		msg.SentAt = &at
	}
	return nil
}

func (m *memOutboxRepo) MarkFailed(ctx context.Context, _ repository.Tx, id string, attemptErr string, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.store[id]; ok {
		msg.Attempts++
		msg.LastError = attemptErr
		if terminal {
			msg.Status = repository.OutboxFailed
		}
	}
	return nil
}

// fakeGateway serves canned payment details keyed by payment id.
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]*model.PaymentDetails // by payment id
	byIntent map[string]string                // provider intent id -> payment id
	fetchErr error
	fetches  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*model.PaymentDetails), byIntent: make(map[string]string)}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateIntent(ctx context.Context, pkg model.CreditPackage, payerEmail, orderRef string) (string, string, error) {
	return "pref-" + pkg.ID, "https://pay.example/" + pkg.ID, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	d, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (g *fakeGateway) FindPaymentByIntent(ctx context.Context, providerIntentID string) (*model.PaymentDetails, error) {
	g.mu.Lock()
	pid, ok := g.byIntent[providerIntentID]
	g.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g.FetchPayment(ctx, pid)
}

type fakeNotifier struct {
	mu      sync.Mutex
	sendErr error
	sent    []string // recipients, in order
}

func (n *fakeNotifier) SendCode(ctx context.Context, recipient string, _ adapter.CodeDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, recipient)
	return nil
}

type fakeSessions struct {
	active map[string]string // session id -> code
	err    error
}

func (s *fakeSessions) ActiveCode(ctx context.Context, sessionID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	code, ok := s.active[sessionID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return code, nil
}

type fakeBackend struct {
	mu         sync.Mutex
	restoreErr error
	calls      int
	result     *model.RestorationResult
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.restoreErr != nil {
		return nil, b.restoreErr
	}
	if b.result != nil {
		return b.result, nil
	}
	return &model.RestorationResult{ImageBytes: image, MimeType: mimeType}, nil
}
