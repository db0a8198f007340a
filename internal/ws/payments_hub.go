package ws

import (
	"encoding/json"
	"sync"

	"nthanda/internal/domain"
)

// client is one WebSocket connection watching a single checkout reference.
type client struct {
	reference string
	send      chan []byte
}

// PaymentsHub fans transaction status transitions out to connected clients.
// Connections are keyed by checkout reference; knowing the reference is the
// capability, so no auth is needed to watch one's own checkout.
type PaymentsHub struct {
	mu          sync.RWMutex
	byReference map[string]map[*client]struct{}
}

func NewPaymentsHub() *PaymentsHub {
	return &PaymentsHub{byReference: make(map[string]map[*client]struct{})}
}

func (h *PaymentsHub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byReference[c.reference] == nil {
		h.byReference[c.reference] = make(map[*client]struct{})
	}
	h.byReference[c.reference][c] = struct{}{}
}

func (h *PaymentsHub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byReference[c.reference]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byReference, c.reference)
		}
	}
}

type statusEvent struct {
	Type      string                   `json:"type"`
	Reference string                   `json:"reference"`
	Status    domain.TransactionStatus `json:"status"`
}

// NotifyStatus implements checkout.StatusNotifier. Slow consumers are
// dropped rather than blocking the verifier.
func (h *PaymentsHub) NotifyStatus(reference string, status domain.TransactionStatus) {
	data, _ := json.Marshal(statusEvent{Type: "transaction_status", Reference: reference, Status: status})
	h.mu.RLock()
	watchers := make([]*client, 0, len(h.byReference[reference]))
	for c := range h.byReference[reference] {
		watchers = append(watchers, c)
	}
	h.mu.RUnlock()
	for _, c := range watchers {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *PaymentsHub) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byReference {
		n += len(m)
	}
	return n
}
