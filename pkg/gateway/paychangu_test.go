package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nthanda/internal/domain"
)

func TestPayChanguCreateSession(t *testing.T) {
	var gotBody paychanguPaymentReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment", r.URL.Path)
		require.Equal(t, "Bearer sec-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"status":"success","data":{"checkout_url":"https://checkout.paychangu.com/abc"}}`))
	}))
	defer srv.Close()

	a := NewPayChanguAdapter(srv.URL, "sec-key")
	sess, err := a.CreateSession(context.Background(), CreateSessionRequest{
		Reference: "nthanda-ref-9",
		Items: []domain.CartLine{{
			ItemID:    "sku-1",
			Name:      "Chitenje wrap",
			UnitPrice: domain.NewMoney(235800, domain.CurrencyMWK),
			Quantity:  2,
		}},
		Currency:      domain.CurrencyMWK,
		CustomerEmail: "amayi@example.mw",
		SuccessURL:    "https://shop.example/success",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paychangu.com/abc", sess.RedirectURL)
	// tx_ref is our reference; total is the whole-kwacha cart total.
	assert.Equal(t, "nthanda-ref-9", gotBody.TxRef)
	assert.Equal(t, int64(471600), gotBody.Amount)
	assert.Equal(t, "MWK", gotBody.Currency)
}

func TestPayChanguCreateSession_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid currency"}`))
	}))
	defer srv.Close()

	a := NewPayChanguAdapter(srv.URL, "sec-key")
	_, err := a.CreateSession(context.Background(), CreateSessionRequest{
		Reference: "nthanda-ref-10",
		Currency:  domain.CurrencyMWK,
	})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "invalid currency", rejected.Message)
}

func TestPayChanguVerify_States(t *testing.T) {
	cases := []struct {
		provider string
		want     VerifyStatus
	}{
		{"success", VerifyVerified},
		{"failed", VerifyFailed},
		{"pending", VerifyPending},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/verify-payment/nthanda-ref-9", r.URL.Path)
			resp := `{"status":"success","data":{"status":"` + tc.provider + `","amount":471600,"currency":"MWK","completed_at":"2026-08-30T10:00:00Z"}}`
			w.Write([]byte(resp))
		}))

		a := NewPayChanguAdapter(srv.URL, "sec-key")
		result, err := a.Verify(context.Background(), "nthanda-ref-9")
		srv.Close()

		require.NoError(t, err, tc.provider)
		assert.Equal(t, tc.want, result.Status, tc.provider)
		assert.Equal(t, int64(471600), result.AmountMinor, tc.provider)
	}
}

func TestPayChanguVerify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a := NewPayChanguAdapter(srv.URL, "sec-key")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Verify(ctx, "nthanda-ref-9")

	var timeout *VerifyTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "nthanda-ref-9", timeout.Reference)
}
