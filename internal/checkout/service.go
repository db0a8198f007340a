package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nthanda/internal/domain"
	"nthanda/internal/models"
	"nthanda/internal/pricing"
	"nthanda/pkg/gateway"
)

// TransactionStore is the slice of the transaction repository the checkout
// service needs.
type TransactionStore interface {
	Create(t *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
	UpdateStatusFrom(reference string, from []domain.TransactionStatus, to domain.TransactionStatus, verifiedAt *time.Time) (bool, error)
}

// StatusNotifier receives transaction status transitions (websocket hub).
type StatusNotifier interface {
	NotifyStatus(reference string, status domain.TransactionStatus)
}

var pendingStates = []domain.TransactionStatus{domain.StatusCreated, domain.StatusRedirected}

// Service composes gateway selection, price normalization and the provider
// adapters into checkout initiation and idempotent verification.
type Service struct {
	store         TransactionStore
	rates         pricing.RateSource
	adapters      map[domain.Gateway]gateway.Adapter
	pendingMaxAge time.Duration
	verifyTimeout time.Duration
	notifier      StatusNotifier // may be nil
}

func NewService(store TransactionStore, rates pricing.RateSource, adapters []gateway.Adapter, pendingMaxAge, verifyTimeout time.Duration, notifier StatusNotifier) *Service {
	byGateway := make(map[domain.Gateway]gateway.Adapter, len(adapters))
	for _, a := range adapters {
		byGateway[a.Gateway()] = a
	}
	return &Service{
		store:         store,
		rates:         rates,
		adapters:      byGateway,
		pendingMaxAge: pendingMaxAge,
		verifyTimeout: verifyTimeout,
		notifier:      notifier,
	}
}

type InitiateRequest struct {
	Items         []domain.CartLine // canonical GBP prices
	CountryCode   string            // best-effort; "" and unknown default to Square/GBP
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Description   string
	Metadata      string // JSON blob stored on the transaction
}

// Initiate runs one checkout attempt end to end: select gateway, normalize
// prices, open the provider session, then persist the CREATED transaction.
// If the provider call fails nothing is persisted and the adapter error is
// surfaced wrapped with the attempted pairing. Redirecting the customer is
// the caller's job.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*domain.CheckoutSession, error) {
	choice := pricing.SelectGateway(req.CountryCode)
	items, err := pricing.Normalize(req.Items, choice, s.rates)
	if err != nil {
		return nil, err
	}
	adapter, ok := s.adapters[choice.Gateway]
	if !ok {
		return nil, fmt.Errorf("no adapter configured for %s", choice.Gateway)
	}
	reference := fmt.Sprintf("nthanda-%s", uuid.New().String())
	sess, err := adapter.CreateSession(ctx, gateway.CreateSessionRequest{
		Reference:     reference,
		Items:         items,
		Currency:      choice.Currency,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Description:   req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create session via %s in %s: %w", choice.Gateway, choice.Currency, err)
	}
	total := domain.CartTotal(items, choice.Currency)
	txn := &models.Transaction{
		Reference:     reference,
		Gateway:       choice.Gateway,
		SessionID:     sess.SessionID,
		CustomerEmail: req.CustomerEmail,
		Status:        domain.StatusCreated,
		AmountMinor:   total.AmountMinor,
		Currency:      choice.Currency,
		Metadata:      req.Metadata,
	}
	if err := s.store.Create(txn); err != nil {
		// The provider session exists but we have no local row; it will age
		// out provider-side. Log enough to reconcile by hand.
		log.Printf("[CHECKOUT] orphaned provider session reference=%s gateway=%s session=%s: %v", reference, choice.Gateway, sess.SessionID, err)
		return nil, fmt.Errorf("persist transaction: %w", err)
	}
	log.Printf("[CHECKOUT] initiated reference=%s gateway=%s total=%s", reference, choice.Gateway, total)
	return &domain.CheckoutSession{
		Reference:   reference,
		SessionID:   sess.SessionID,
		Gateway:     choice.Gateway,
		Currency:    choice.Currency,
		Items:       items,
		Total:       total,
		RedirectURL: sess.RedirectURL,
		CreatedAt:   txn.CreatedAt,
	}, nil
}

// Verify resolves the transaction's terminal state. The adapter is chosen by
// the gateway tag stored at creation, never re-derived from location.
// Terminal transactions are answered from the store without contacting the
// provider; stale pending transactions expire instead of polling forever.
func (s *Service) Verify(ctx context.Context, reference string, gw domain.Gateway) (domain.TransactionStatus, error) {
	txn, err := s.store.GetByReference(reference)
	if err != nil {
		return "", err
	}
	if txn.Gateway != gw {
		return "", fmt.Errorf("reference %s was created on %s, not %s", reference, txn.Gateway, gw)
	}
	if txn.Status.IsTerminal() {
		return txn.Status, nil
	}
	if s.pendingMaxAge > 0 && time.Since(txn.CreatedAt) > s.pendingMaxAge {
		moved, err := s.store.UpdateStatusFrom(reference, pendingStates, domain.StatusExpired, nil)
		if err != nil {
			return "", err
		}
		if moved {
			s.notify(reference, domain.StatusExpired)
			return domain.StatusExpired, nil
		}
		return s.storedStatus(reference)
	}
	adapter, ok := s.adapters[txn.Gateway]
	if !ok {
		return "", fmt.Errorf("no adapter configured for %s", txn.Gateway)
	}
	vctx := ctx
	if s.verifyTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, s.verifyTimeout)
		defer cancel()
	}
	result, err := adapter.Verify(vctx, reference)
	if err != nil {
		return "", err
	}
	switch result.Status {
	case gateway.VerifyVerified:
		now := time.Now()
		moved, err := s.store.UpdateStatusFrom(reference, pendingStates, domain.StatusVerified, &now)
		if err != nil {
			return "", err
		}
		if !moved {
			return s.storedStatus(reference)
		}
		log.Printf("[CHECKOUT] verified reference=%s gateway=%s", reference, gw)
		s.notify(reference, domain.StatusVerified)
		return domain.StatusVerified, nil
	case gateway.VerifyFailed:
		moved, err := s.store.UpdateStatusFrom(reference, pendingStates, domain.StatusFailed, nil)
		if err != nil {
			return "", err
		}
		if !moved {
			return s.storedStatus(reference)
		}
		log.Printf("[CHECKOUT] failed reference=%s gateway=%s", reference, gw)
		s.notify(reference, domain.StatusFailed)
		return domain.StatusFailed, nil
	default:
		// Provider still pending: first such observation is the evidence the
		// customer reached the provider, so CREATED moves to REDIRECTED.
		if txn.Status == domain.StatusCreated {
			if moved, err := s.store.UpdateStatusFrom(reference, []domain.TransactionStatus{domain.StatusCreated}, domain.StatusRedirected, nil); err == nil && moved {
				s.notify(reference, domain.StatusRedirected)
			}
		}
		return domain.StatusRedirected, nil
	}
}

func (s *Service) storedStatus(reference string) (domain.TransactionStatus, error) {
	txn, err := s.store.GetByReference(reference)
	if err != nil {
		return "", err
	}
	return txn.Status, nil
}

func (s *Service) notify(reference string, status domain.TransactionStatus) {
	if s.notifier != nil {
		s.notifier.NotifyStatus(reference, status)
	}
}
