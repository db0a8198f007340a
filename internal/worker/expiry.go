package worker

import (
	"context"
	"log"
	"time"

	"nthanda/internal/checkout"
	"nthanda/internal/domain"
	"nthanda/internal/models"
)

type staleLister interface {
	ListStalePending(olderThan time.Duration, limit int) ([]models.Transaction, error)
}

// ExpiryWorker sweeps transactions stuck in CREATED/REDIRECTED past the
// pending age and marks them EXPIRED. Verify-time aging already covers any
// reference a caller still polls; the sweep catches abandoned checkouts
// nobody asks about again.
type ExpiryWorker struct {
	repo     staleLister
	store    checkout.TransactionStore
	notifier checkout.StatusNotifier // may be nil
	maxAge   time.Duration
	interval time.Duration
}

func NewExpiryWorker(repo staleLister, store checkout.TransactionStore, notifier checkout.StatusNotifier, maxAge, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{repo: repo, store: store, notifier: notifier, maxAge: maxAge, interval: interval}
}

func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	log.Printf("[EXPIRY] sweep started interval=%s max_age=%s", w.interval, w.maxAge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweep(); err != nil {
				log.Printf("[EXPIRY] sweep failed: %v", err)
			}
		}
	}
}

func (w *ExpiryWorker) sweep() error {
	stale, err := w.repo.ListStalePending(w.maxAge, 200)
	if err != nil {
		return err
	}
	for _, txn := range stale {
		moved, err := w.store.UpdateStatusFrom(txn.Reference,
			[]domain.TransactionStatus{domain.StatusCreated, domain.StatusRedirected},
			domain.StatusExpired, nil)
		if err != nil {
			log.Printf("[EXPIRY] could not expire %s: %v", txn.Reference, err)
			continue
		}
		// moved == false means a verify won the race; nothing to do.
		if moved {
			log.Printf("[EXPIRY] expired reference=%s gateway=%s age=%s", txn.Reference, txn.Gateway, time.Since(txn.CreatedAt).Round(time.Second))
			if w.notifier != nil {
				w.notifier.NotifyStatus(txn.Reference, domain.StatusExpired)
			}
		}
	}
	return nil
}
