package gateway

import (
	"context"
	"time"

	"nthanda/internal/domain"
)

// CreateSessionRequest carries everything an adapter needs to open a
// provider-side checkout session. Items are already denominated in the
// currency the provider accepts.
type CreateSessionRequest struct {
	Reference     string // our durable reference; becomes the provider's merchant/tx ref
	Items         []domain.CartLine
	Currency      domain.Currency
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Description   string
}

// Session is the provider-side checkout object: where to send the customer,
// and the provider's own id for later reconciliation.
type Session struct {
	Reference   string
	SessionID   string
	RedirectURL string
	CreatedAt   time.Time
}

type VerifyStatus string

const (
	VerifyVerified VerifyStatus = "VERIFIED"
	VerifyFailed   VerifyStatus = "FAILED"
	// VerifyPending is a legitimate non-final answer; callers re-poll.
	VerifyPending VerifyStatus = "PENDING"
)

// VerifyResult is the provider's view of one checkout attempt.
type VerifyResult struct {
	Status      VerifyStatus
	AmountMinor int64
	Currency    string
	PaidAt      *time.Time
}

// Adapter is the capability contract each payment provider implements. The
// two providers differ in request shapes and reference formats, but neither
// difference leaks past this interface.
type Adapter interface {
	Gateway() domain.Gateway
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}
