package pricing

import "nthanda/internal/domain"

// SelectGateway maps a best-effort ISO 3166-1 alpha-2 country code to the
// gateway/currency pairing for a checkout attempt. Geolocation failure is an
// expected input, not an error: empty or unrecognized codes fall through to
// Square/GBP so an unresolvable location never blocks checkout. Malawi is
// the one corridor served by PayChangu mobile money, denominated in kwacha.
func SelectGateway(countryCode string) domain.GatewayChoice {
	if countryCode == "MW" {
		return domain.GatewayChoice{Gateway: domain.GatewayPayChangu, Currency: domain.CurrencyMWK}
	}
	return domain.GatewayChoice{Gateway: domain.GatewaySquare, Currency: domain.CurrencyGBP}
}
