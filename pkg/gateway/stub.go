package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"nthanda/internal/domain"
)

// StubAdapter is a no-op adapter for development: every session "succeeds"
// once verified, without leaving the process.
type StubAdapter struct {
	Tag domain.Gateway

	mu   sync.Mutex
	seen map[string]bool
}

func NewStubAdapter(tag domain.Gateway) *StubAdapter {
	return &StubAdapter{Tag: tag, seen: make(map[string]bool)}
}

func (s *StubAdapter) Gateway() domain.Gateway { return s.Tag }

func (s *StubAdapter) CreateSession(_ context.Context, req CreateSessionRequest) (*Session, error) {
	s.mu.Lock()
	s.seen[req.Reference] = true
	s.mu.Unlock()
	return &Session{
		Reference:   req.Reference,
		SessionID:   "stub-" + req.Reference,
		RedirectURL: "https://checkout.invalid/stub/" + req.Reference,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *StubAdapter) Verify(_ context.Context, reference string) (*VerifyResult, error) {
	s.mu.Lock()
	known := s.seen[reference]
	s.mu.Unlock()
	if !known && !strings.HasPrefix(reference, "stub-") {
		return &VerifyResult{Status: VerifyFailed}, nil
	}
	now := time.Now()
	return &VerifyResult{Status: VerifyVerified, PaidAt: &now}, nil
}
