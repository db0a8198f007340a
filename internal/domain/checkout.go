package domain

import "time"

// GatewayChoice pairs a gateway with the only currency it accepts. Exactly
// two pairings exist: (SQUARE, GBP) and (PAYCHANGU, MWK).
type GatewayChoice struct {
	Gateway  Gateway  `json:"gateway"`
	Currency Currency `json:"currency"`
}

// CartLine is one cart position captured at checkout time. Once captured it
// is never mutated; normalization returns fresh copies.
type CartLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"` // e.g. size/colour descriptor
}

func (l CartLine) Subtotal() Money {
	return l.UnitPrice.Times(l.Quantity)
}

// CartTotal sums line subtotals. All lines must share a currency, which
// normalization guarantees.
func CartTotal(lines []CartLine, currency Currency) Money {
	total := Money{Currency: currency}
	for _, l := range lines {
		total.AmountMinor += l.Subtotal().AmountMinor
	}
	return total
}

// CheckoutSession is the result of one initiated checkout attempt. The
// Reference is the durable key used to re-enter verification after the
// caller redirects the customer to RedirectURL.
type CheckoutSession struct {
	Reference   string     `json:"reference"`
	SessionID   string     `json:"session_id"` // provider-side session/order id
	Gateway     Gateway    `json:"gateway"`
	Currency    Currency   `json:"currency"`
	Items       []CartLine `json:"items"`
	Total       Money      `json:"total"`
	RedirectURL string     `json:"redirect_url"`
	CreatedAt   time.Time  `json:"created_at"`
}
