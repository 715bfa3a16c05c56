// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, repository.NoTX)
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSubRepo is a small in-memory implementation used by unit tests.
type memSubRepo struct {
	mu   sync.RWMutex
	subs map[string]*model.UserSubscription // by subscription ID

	saveErr error // used by tests to simulate save failures
	findErr error
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{subs: make(map[string]*model.UserSubscription)}
}

func (m *memSubRepo) Save(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *memSubRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserSubscription, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.UserSubscription{}
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) FindByProviderSubscriptionID(ctx context.Context, tx repository.Tx, providerSubID string) (*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.ProviderSubscriptionID == providerSubID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubRepo) UpdateStatusByProviderSubscriptionID(ctx context.Context, tx repository.Tx, providerSubID string, status model.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ProviderSubscriptionID == providerSubID {
			s.Status = status
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

// memCreditRepo keeps one credit record per user, like the real table.
type memCreditRepo struct {
	mu     sync.RWMutex
	byUser map[string]*model.CreditUsage

	saveErr   error
	updateErr error
	findErr   error
}

func newMemCreditRepo() *memCreditRepo {
	return &memCreditRepo{byUser: make(map[string]*model.CreditUsage)}
}

func (m *memCreditRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.CreditUsage, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memCreditRepo) Save(ctx context.Context, tx repository.Tx, usage *model.CreditUsage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *usage
	m.byUser[usage.UserID] = &cp
	return nil
}

func (m *memCreditRepo) Update(ctx context.Context, tx repository.Tx, usage *model.CreditUsage) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *usage
	m.byUser[usage.UserID] = &cp
	return nil
}

// memPaymentRepo records saves and keyed updates separately so tests can
// assert which path ran.
type memPaymentRepo struct {
	mu       sync.RWMutex
	byID     map[string]*model.PaymentHistory
	updated  []*model.PaymentHistory // UpdateByProviderSubscriptionID calls
	saveErr  error
	updError error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byID: make(map[string]*model.PaymentHistory)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) UpdateByProviderSubscriptionID(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) error {
	if m.updError != nil {
		return m.updError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.updated = append(m.updated, &cp)
	for _, existing := range m.byID {
		if existing.ProviderSubscriptionID == p.ProviderSubscriptionID {
			existing.UserID = p.UserID
			existing.PlanID = p.PlanID
			existing.Amount = p.Amount
			existing.Currency = p.Currency
			existing.Interval = p.Interval
			existing.Status = p.Status
			existing.UpdatedAt = p.UpdatedAt
		}
	}
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.PaymentHistory{}
	for _, p := range m.byID {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) HasCompletedByUser(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.byID {
		if p.UserID == userID && p.Status == model.PaymentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPaymentRepo) all() []*model.PaymentHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.PaymentHistory, 0, len(m.byID))
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// memPlanRepo minimal mock used by tests.
type memPlanRepo struct {
	mu    sync.RWMutex
	plans map[int64]*model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[int64]*model.SubscriptionPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[cp.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) FindByProviderProductID(ctx context.Context, tx repository.Tx, productID string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plans {
		if p.ProviderProductID == productID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// mockDeduper tracks claims in memory.
type mockDeduper struct {
	mu       sync.Mutex
	claimed  map[string]bool
	claimErr error
	released []string
}

func newMockDeduper() *mockDeduper {
	return &mockDeduper{claimed: make(map[string]bool)}
}

func (m *mockDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed[eventID] {
		return false, nil
	}
	m.claimed[eventID] = true
	return true, nil
}

func (m *mockDeduper) Release(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, eventID)
	m.released = append(m.released, eventID)
	return nil
}

// mockLocker hands out tokens and records lock/unlock pairs.
type mockLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	tryErr   error
	lastKey  string
	lastsTTL time.Duration
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tryErr != nil {
		return "", m.tryErr
	}
	m.locks++
	m.lastKey = key
	m.lastsTTL = ttl
	return "tok", nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocks++
	return nil
}
