package subscription

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nthanda/internal/checkout"
	"nthanda/internal/domain"
	"nthanda/internal/models"
	"nthanda/internal/repository"
)

// MockSubStore implements SubscriptionStore with the same single-row-per-user
// semantics as the real repository, behind a mutex so the concurrency test
// mirrors production behavior.
type MockSubStore struct {
	mu   sync.Mutex
	rows map[string]*models.SubscriptionRecord
}

func NewMockSubStore() *MockSubStore {
	return &MockSubStore{rows: make(map[string]*models.SubscriptionRecord)}
}

func (m *MockSubStore) GetByUserUID(userUID string) (*models.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[userUID]
	if !ok {
		return nil, repository.ErrSubscriptionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockSubStore) ActivateTier(userUID string, tier domain.Tier, gw domain.Gateway, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userUID] = &models.SubscriptionRecord{
		UserUID:   userUID,
		Tier:      tier,
		Status:    domain.SubscriptionActive,
		Gateway:   gw,
		Reference: reference,
	}
	return nil
}

func (m *MockSubStore) CancelActive(userUID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[userUID]
	if !ok || rec.Status != domain.SubscriptionActive {
		return false, nil
	}
	rec.Status = domain.SubscriptionCanceled
	return true, nil
}

// MockCheckout implements CheckoutService and doubles as the transaction
// source, like the real wiring where both sit on the same table.
type MockCheckout struct {
	txns         map[string]*models.Transaction
	verifyStatus domain.TransactionStatus
	initiated    []checkout.InitiateRequest
}

func NewMockCheckout() *MockCheckout {
	return &MockCheckout{txns: make(map[string]*models.Transaction), verifyStatus: domain.StatusVerified}
}

func (m *MockCheckout) GetByReference(reference string) (*models.Transaction, error) {
	t, ok := m.txns[reference]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return t, nil
}

func (m *MockCheckout) Initiate(_ context.Context, req checkout.InitiateRequest) (*domain.CheckoutSession, error) {
	m.initiated = append(m.initiated, req)
	reference := "nthanda-sub-" + req.Items[0].ItemID
	m.txns[reference] = &models.Transaction{
		Reference: reference,
		Gateway:   domain.GatewaySquare,
		Status:    domain.StatusCreated,
		Metadata:  req.Metadata,
	}
	return &domain.CheckoutSession{
		Reference:   reference,
		Gateway:     domain.GatewaySquare,
		Currency:    domain.CurrencyGBP,
		RedirectURL: "https://square.link/u/sub",
	}, nil
}

func (m *MockCheckout) Verify(_ context.Context, reference string, _ domain.Gateway) (domain.TransactionStatus, error) {
	if t, ok := m.txns[reference]; ok && m.verifyStatus.IsTerminal() {
		t.Status = m.verifyStatus
	}
	return m.verifyStatus, nil
}

var testPlans = PlanPricing{PlusMonthlyPence: 499, PremiumMonthlyPence: 999}

func newTestManager() (*Manager, *MockSubStore, *MockCheckout) {
	subs := NewMockSubStore()
	co := NewMockCheckout()
	return NewManager(subs, co, co, testPlans), subs, co
}

func TestSubscribe_OpensCheckoutWithoutActivating(t *testing.T) {
	mgr, subs, co := newTestManager()

	sess, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "https://s", "https://c")

	require.NoError(t, err)
	assert.NotEmpty(t, sess.RedirectURL)
	require.Len(t, co.initiated, 1)
	assert.Equal(t, int64(499), co.initiated[0].Items[0].UnitPrice.AmountMinor)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(co.initiated[0].Metadata), &meta))
	assert.Equal(t, "SUBSCRIPTION", meta.Type)
	assert.Equal(t, domain.TierPlus, meta.Tier)

	// no ACTIVE record until confirmation
	_, err = subs.GetByUserUID("user-1")
	assert.ErrorIs(t, err, repository.ErrSubscriptionNotFound)
}

func TestSubscribe_TwiceBeforeConfirmationIsAllowed(t *testing.T) {
	mgr, _, _ := newTestManager()

	_, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "", "")
	require.NoError(t, err)
	_, err = mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "", "")
	assert.NoError(t, err)
}

func TestSubscribe_DuplicateActiveTier(t *testing.T) {
	mgr, subs, _ := newTestManager()
	require.NoError(t, subs.ActivateTier("user-1", domain.TierPlus, domain.GatewaySquare, "ref-0"))

	_, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "", "")

	assert.ErrorIs(t, err, ErrDuplicateSubscription)
}

func TestSubscribe_UpgradeFromActivePlusIsAllowed(t *testing.T) {
	mgr, subs, _ := newTestManager()
	require.NoError(t, subs.ActivateTier("user-1", domain.TierPlus, domain.GatewaySquare, "ref-0"))

	_, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPremium, "GB", "a@b.c", "", "")

	assert.NoError(t, err)
}

func TestSubscribe_FreeTierRejected(t *testing.T) {
	mgr, _, _ := newTestManager()

	_, err := mgr.Subscribe(context.Background(), "user-1", domain.TierFree, "GB", "a@b.c", "", "")

	assert.Error(t, err)
}

func TestConfirm_ActivatesOnVerified(t *testing.T) {
	mgr, subs, _ := newTestManager()
	sess, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "", "")
	require.NoError(t, err)

	result, err := mgr.Confirm(context.Background(), sess.Reference)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, result.Status)
	require.NotNil(t, result.Record)
	assert.Equal(t, domain.TierPlus, result.Record.Tier)
	assert.True(t, result.Record.IsActive())

	rec, err := subs.GetByUserUID("user-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Reference, rec.Reference)
}

func TestConfirm_FailedLeavesRecordUntouched(t *testing.T) {
	mgr, subs, co := newTestManager()
	require.NoError(t, subs.ActivateTier("user-1", domain.TierPlus, domain.GatewaySquare, "ref-0"))
	sess, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPremium, "GB", "a@b.c", "", "")
	require.NoError(t, err)
	co.verifyStatus = domain.StatusFailed

	result, err := mgr.Confirm(context.Background(), sess.Reference)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Status)
	rec, err := subs.GetByUserUID("user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierPlus, rec.Tier)
	assert.True(t, rec.IsActive())
}

func TestConfirm_UpgradeSupersedesPriorTier(t *testing.T) {
	mgr, subs, _ := newTestManager()
	require.NoError(t, subs.ActivateTier("user-1", domain.TierPlus, domain.GatewaySquare, "ref-0"))
	sess, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPremium, "GB", "a@b.c", "", "")
	require.NoError(t, err)

	result, err := mgr.Confirm(context.Background(), sess.Reference)

	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, result.Record.Tier)
	// single row per user: exactly one record, and it is the new tier
	assert.Len(t, subs.rows, 1)
}

func TestConfirm_ConcurrentConfirmationsLeaveOneActive(t *testing.T) {
	mgr, subs, _ := newTestManager()
	sess, err := mgr.Subscribe(context.Background(), "user-1", domain.TierPlus, "GB", "a@b.c", "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mgr.Confirm(context.Background(), sess.Reference)
		}()
	}
	wg.Wait()

	active := 0
	for _, rec := range subs.rows {
		if rec.Status == domain.SubscriptionActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestConfirm_NonSubscriptionTransaction(t *testing.T) {
	mgr, _, co := newTestManager()
	co.txns["plain-ref"] = &models.Transaction{Reference: "plain-ref", Gateway: domain.GatewaySquare, Status: domain.StatusCreated}

	_, err := mgr.Confirm(context.Background(), "plain-ref")

	assert.ErrorIs(t, err, ErrNotSubscription)
}

func TestCancel(t *testing.T) {
	mgr, subs, _ := newTestManager()

	err := mgr.Cancel(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	require.NoError(t, subs.ActivateTier("user-1", domain.TierPlus, domain.GatewaySquare, "ref-0"))
	require.NoError(t, mgr.Cancel(context.Background(), "user-1"))

	rec, err := mgr.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, rec.IsActive())

	// cancelling again is the same caller bug
	assert.ErrorIs(t, mgr.Cancel(context.Background(), "user-1"), ErrNoActiveSubscription)
}

func TestStatus_DefaultsToFreeNone(t *testing.T) {
	mgr, _, _ := newTestManager()

	rec, err := mgr.Status(context.Background(), "fresh-user")

	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, rec.Tier)
	assert.Equal(t, domain.SubscriptionNone, rec.Status)
}
