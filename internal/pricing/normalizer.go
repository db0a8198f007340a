package pricing

import (
	"fmt"
	"math"

	"nthanda/internal/domain"
)

// RateSource supplies the GBP→MWK exchange rate (kwacha per pound). The
// table is injected so rates can be refreshed independently; normalization
// never fetches rates itself.
type RateSource interface {
	GBPToMWK() float64
}

// InvalidPriceError names the cart line whose canonical price was unusable.
// This is a caller bug and is never retried.
type InvalidPriceError struct {
	ItemID string
	Reason string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price on item %s: %s", e.ItemID, e.Reason)
}

// Normalize rewrites cart line prices into the currency the chosen gateway
// accepts. Canonical prices are GBP pence; a GBP choice passes lines through
// unchanged, an MWK choice converts each unit price to whole kwacha by the
// injected rate, rounded to the nearest unit. An empty cart is valid and
// yields an empty slice.
func Normalize(items []domain.CartLine, choice domain.GatewayChoice, rates RateSource) ([]domain.CartLine, error) {
	out := make([]domain.CartLine, 0, len(items))
	for _, line := range items {
		if line.UnitPrice.AmountMinor < 0 {
			return nil, &InvalidPriceError{ItemID: line.ItemID, Reason: "negative canonical price"}
		}
		if line.UnitPrice.Currency != domain.CurrencyGBP {
			return nil, &InvalidPriceError{ItemID: line.ItemID, Reason: fmt.Sprintf("canonical price must be GBP, got %s", line.UnitPrice.Currency)}
		}
		if line.Quantity <= 0 {
			return nil, &InvalidPriceError{ItemID: line.ItemID, Reason: "quantity must be positive"}
		}
		switch choice.Currency {
		case domain.CurrencyGBP:
			out = append(out, line)
		case domain.CurrencyMWK:
			rate := rates.GBPToMWK()
			if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
				return nil, &InvalidPriceError{ItemID: line.ItemID, Reason: fmt.Sprintf("unusable GBP→MWK rate %v", rate)}
			}
			kwacha := int64(math.Round(float64(line.UnitPrice.AmountMinor) * rate / 100))
			converted := line
			converted.UnitPrice = domain.NewMoney(kwacha, domain.CurrencyMWK)
			out = append(out, converted)
		default:
			return nil, &InvalidPriceError{ItemID: line.ItemID, Reason: fmt.Sprintf("unsupported currency %s", choice.Currency)}
		}
	}
	return out, nil
}
