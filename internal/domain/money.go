package domain

import "fmt"

// Money is an amount in the currency's minor unit: pence for GBP, whole
// kwacha for MWK.
type Money struct {
	AmountMinor int64    `json:"amount_minor"`
	Currency    Currency `json:"currency"`
}

func NewMoney(amountMinor int64, currency Currency) Money {
	return Money{AmountMinor: amountMinor, Currency: currency}
}

// Times scales the amount by a quantity. Quantities are always small
// (cart line counts), so overflow is not a concern here.
func (m Money) Times(qty int) Money {
	return Money{AmountMinor: m.AmountMinor * int64(qty), Currency: m.Currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.Currency, m.Currency)
	}
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

// String renders for logs and receipts: "£12.50" or "MK235800".
func (m Money) String() string {
	switch m.Currency {
	case CurrencyGBP:
		return fmt.Sprintf("£%d.%02d", m.AmountMinor/100, m.AmountMinor%100)
	case CurrencyMWK:
		return fmt.Sprintf("MK%d", m.AmountMinor)
	default:
		return fmt.Sprintf("%d %s", m.AmountMinor, m.Currency)
	}
}
