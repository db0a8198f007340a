package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nthanda/internal/domain"
)

type fixedRate float64

func (r fixedRate) GBPToMWK() float64 { return float64(r) }

func gbpLine(id string, pence int64, qty int) domain.CartLine {
	return domain.CartLine{
		ItemID:    id,
		Name:      "item " + id,
		UnitPrice: domain.NewMoney(pence, domain.CurrencyGBP),
		Quantity:  qty,
	}
}

func TestNormalize_GBPPassThrough(t *testing.T) {
	items := []domain.CartLine{gbpLine("1", 10000, 2)}
	choice := SelectGateway("GB")

	out, err := Normalize(items, choice, fixedRate(2358))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(10000), out[0].UnitPrice.AmountMinor)
	assert.Equal(t, domain.CurrencyGBP, out[0].UnitPrice.Currency)
}

func TestNormalize_MWKConversion(t *testing.T) {
	// £100 at 2358 kwacha to the pound, quantity 2: unit 235800, total 471600.
	items := []domain.CartLine{gbpLine("1", 10000, 2)}
	choice := SelectGateway("MW")

	out, err := Normalize(items, choice, fixedRate(2358))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(235800), out[0].UnitPrice.AmountMinor)
	assert.Equal(t, domain.CurrencyMWK, out[0].UnitPrice.Currency)
	total := domain.CartTotal(out, domain.CurrencyMWK)
	assert.Equal(t, int64(471600), total.AmountMinor)
}

func TestNormalize_RoundTripWithinOneUnit(t *testing.T) {
	rate := 2358.0
	for _, pence := range []int64{1, 99, 150, 10000, 123457} {
		items := []domain.CartLine{gbpLine("rt", pence, 1)}

		out, err := Normalize(items, SelectGateway("MW"), fixedRate(rate))
		require.NoError(t, err)

		back := int64(math.Round(float64(out[0].UnitPrice.AmountMinor) / rate * 100))
		assert.InDelta(t, pence, back, 1, "pence %d", pence)
	}
}

func TestNormalize_EmptyCart(t *testing.T) {
	out, err := Normalize(nil, SelectGateway("MW"), fixedRate(2358))

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalize_NegativePrice(t *testing.T) {
	items := []domain.CartLine{gbpLine("bad", -500, 1)}

	_, err := Normalize(items, SelectGateway("GB"), fixedRate(2358))

	var priceErr *InvalidPriceError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, "bad", priceErr.ItemID)
}

func TestNormalize_UnusableRate(t *testing.T) {
	items := []domain.CartLine{gbpLine("1", 1000, 1)}

	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Normalize(items, SelectGateway("MW"), fixedRate(rate))

		var priceErr *InvalidPriceError
		assert.ErrorAs(t, err, &priceErr, "rate %v", rate)
	}
}

func TestNormalize_NonGBPCanonicalPrice(t *testing.T) {
	items := []domain.CartLine{{
		ItemID:    "mwk",
		UnitPrice: domain.NewMoney(500, domain.CurrencyMWK),
		Quantity:  1,
	}}

	_, err := Normalize(items, SelectGateway("GB"), fixedRate(2358))

	var priceErr *InvalidPriceError
	require.ErrorAs(t, err, &priceErr)
}
