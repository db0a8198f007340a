package domain

import "fmt"

type Gateway string

const (
	GatewaySquare    Gateway = "SQUARE"
	GatewayPayChangu Gateway = "PAYCHANGU"
)

// ParseGateway validates a gateway tag coming from a client or a stored row.
func ParseGateway(s string) (Gateway, error) {
	switch Gateway(s) {
	case GatewaySquare, GatewayPayChangu:
		return Gateway(s), nil
	}
	return "", fmt.Errorf("unknown gateway %q", s)
}

type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyMWK Currency = "MWK"
)

// MinorPerUnit returns how many minor units make one unit of the currency.
// MWK has no fractional minor unit; amounts are whole kwacha.
func (c Currency) MinorPerUnit() int64 {
	switch c {
	case CurrencyGBP:
		return 100
	default:
		return 1
	}
}

type TransactionStatus string

const (
	StatusCreated    TransactionStatus = "CREATED"
	StatusRedirected TransactionStatus = "REDIRECTED"
	StatusVerified   TransactionStatus = "VERIFIED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusExpired    TransactionStatus = "EXPIRED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusExpired
}

func (s TransactionStatus) String() string {
	return string(s)
}

type Tier string

const (
	TierFree    Tier = "FREE"
	TierPlus    Tier = "PLUS"
	TierPremium Tier = "PREMIUM"
)

// Paid reports whether the tier requires a verified payment before activation.
func (t Tier) Paid() bool {
	return t == TierPlus || t == TierPremium
}

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPlus, TierPremium:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
	SubscriptionNone     SubscriptionStatus = "NONE"
)
