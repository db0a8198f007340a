package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"nthanda/internal/checkout"
	"nthanda/internal/domain"
	"nthanda/internal/models"
	"nthanda/internal/repository"
)

var (
	ErrDuplicateSubscription = errors.New("an active subscription for this tier already exists")
	ErrNoActiveSubscription  = errors.New("no active subscription")
	ErrNotSubscription       = errors.New("transaction is not a subscription checkout")
)

const metadataType = "SUBSCRIPTION"

// Metadata is the subscription tag stored on a Transaction's metadata blob.
type Metadata struct {
	Type    string      `json:"type"`
	UserUID string      `json:"user_uid"`
	Tier    domain.Tier `json:"tier"`
}

type SubscriptionStore interface {
	GetByUserUID(userUID string) (*models.SubscriptionRecord, error)
	ActivateTier(userUID string, tier domain.Tier, gateway domain.Gateway, reference string) error
	CancelActive(userUID string) (bool, error)
}

type TransactionSource interface {
	GetByReference(reference string) (*models.Transaction, error)
}

type CheckoutService interface {
	Initiate(ctx context.Context, req checkout.InitiateRequest) (*domain.CheckoutSession, error)
	Verify(ctx context.Context, reference string, gw domain.Gateway) (domain.TransactionStatus, error)
}

// PlanPricing is the monthly canonical (GBP pence) price per paid tier.
type PlanPricing struct {
	PlusMonthlyPence    int64
	PremiumMonthlyPence int64
}

func (p PlanPricing) MonthlyPence(tier domain.Tier) (int64, error) {
	switch tier {
	case domain.TierPlus:
		return p.PlusMonthlyPence, nil
	case domain.TierPremium:
		return p.PremiumMonthlyPence, nil
	}
	return 0, fmt.Errorf("no monthly price for tier %s", tier)
}

func tierLabel(tier domain.Tier) string {
	switch tier {
	case domain.TierPlus:
		return "Plus"
	case domain.TierPremium:
		return "Premium"
	default:
		return "Free"
	}
}

// Manager enforces the single-active-subscription invariant. Subscribing
// only opens a checkout session; the tier is applied exclusively by Confirm
// observing a VERIFIED transaction.
type Manager struct {
	subs     SubscriptionStore
	txns     TransactionSource
	checkout CheckoutService
	plans    PlanPricing
}

func NewManager(subs SubscriptionStore, txns TransactionSource, co CheckoutService, plans PlanPricing) *Manager {
	return &Manager{subs: subs, txns: txns, checkout: co, plans: plans}
}

// Subscribe opens a subscription checkout for a paid tier. Re-subscribing to
// the tier that is already active is an error, not a silent no-op. Upgrades
// are just a Subscribe with the new tier; the old one is superseded at
// confirmation, never before payment.
func (m *Manager) Subscribe(ctx context.Context, userUID string, tier domain.Tier, countryCode, customerEmail, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	if !tier.Paid() {
		return nil, fmt.Errorf("tier %s does not require checkout", tier)
	}
	rec, err := m.subs.GetByUserUID(userUID)
	if err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, err
	}
	if rec != nil && rec.IsActive() && rec.Tier == tier {
		return nil, ErrDuplicateSubscription
	}
	pence, err := m.plans.MonthlyPence(tier)
	if err != nil {
		return nil, err
	}
	meta, _ := json.Marshal(Metadata{Type: metadataType, UserUID: userUID, Tier: tier})
	sess, err := m.checkout.Initiate(ctx, checkout.InitiateRequest{
		Items: []domain.CartLine{{
			ItemID:    "subscription-" + strings.ToLower(string(tier)),
			Name:      fmt.Sprintf("Nthanda %s (monthly)", tierLabel(tier)),
			UnitPrice: domain.NewMoney(pence, domain.CurrencyGBP),
			Quantity:  1,
		}},
		CountryCode:   countryCode,
		CustomerEmail: customerEmail,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Description:   fmt.Sprintf("%s subscription", tier),
		Metadata:      string(meta),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[SUBSCRIPTION] checkout opened user=%s tier=%s reference=%s", userUID, tier, sess.Reference)
	return sess, nil
}

// ConfirmResult reports the outcome of one confirmation attempt.
type ConfirmResult struct {
	Status domain.TransactionStatus   `json:"status"`
	Record *models.SubscriptionRecord `json:"record,omitempty"`
}

// Confirm verifies the subscription transaction and, on VERIFIED, activates
// the tier. Activation is a conditional, row-locked write, so two concurrent
// confirmations still leave exactly one ACTIVE record and the call is
// idempotent. Any non-verified outcome leaves the record untouched.
func (m *Manager) Confirm(ctx context.Context, reference string) (*ConfirmResult, error) {
	txn, err := m.txns.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(txn.Metadata), &meta); err != nil || meta.Type != metadataType {
		return nil, ErrNotSubscription
	}
	status, err := m.checkout.Verify(ctx, reference, txn.Gateway)
	if err != nil {
		return nil, err
	}
	if status != domain.StatusVerified {
		rec, _ := m.subs.GetByUserUID(meta.UserUID)
		return &ConfirmResult{Status: status, Record: rec}, nil
	}
	if err := m.subs.ActivateTier(meta.UserUID, meta.Tier, txn.Gateway, reference); err != nil {
		return nil, err
	}
	log.Printf("[SUBSCRIPTION] activated user=%s tier=%s reference=%s", meta.UserUID, meta.Tier, reference)
	rec, err := m.subs.GetByUserUID(meta.UserUID)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Status: status, Record: rec}, nil
}

// Cancel moves the ACTIVE record to CANCELED. Cancelling with nothing active
// is an error so caller bugs are not masked.
func (m *Manager) Cancel(_ context.Context, userUID string) error {
	ok, err := m.subs.CancelActive(userUID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveSubscription
	}
	log.Printf("[SUBSCRIPTION] canceled user=%s", userUID)
	return nil
}

// Status returns the user's record, or a synthetic FREE/NONE one when they
// have never subscribed.
func (m *Manager) Status(_ context.Context, userUID string) (*models.SubscriptionRecord, error) {
	rec, err := m.subs.GetByUserUID(userUID)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return &models.SubscriptionRecord{
			UserUID: userUID,
			Tier:    domain.TierFree,
			Status:  domain.SubscriptionNone,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
