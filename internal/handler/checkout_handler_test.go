package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nthanda/internal/domain"
	"nthanda/internal/pricing"
	"nthanda/internal/repository"
	"nthanda/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWritePaymentError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid price is a client error",
			err:  &pricing.InvalidPriceError{ItemID: "tote-bag", Reason: "negative unit price"},
			want: http.StatusBadRequest,
		},
		{
			name: "provider rejection is a client error",
			err:  &gateway.RejectedError{Gateway: string(domain.GatewaySquare), StatusCode: 422, Message: "bad location"},
			want: http.StatusBadRequest,
		},
		{
			name: "provider outage maps to bad gateway",
			err:  &gateway.UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: errors.New("connection refused")},
			want: http.StatusBadGateway,
		},
		{
			name: "verify timeout maps to gateway timeout",
			err:  &gateway.VerifyTimeoutError{Gateway: string(domain.GatewaySquare), Reference: "nthanda-x"},
			want: http.StatusGatewayTimeout,
		},
		{
			name: "unknown reference maps to not found",
			err:  repository.ErrTransactionNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "anything else is a server error",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			writePaymentError(c, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestVerify_UnknownGatewayParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &CheckoutHandler{}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/checkout/nthanda-x/verify?gateway=STRIPE", nil)
	c.Params = gin.Params{{Key: "reference", Value: "nthanda-x"}}
	h.Verify(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
