package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"nthanda/internal/domain"
)

// SquareAdapter drives the Square-style card processor used for every
// non-Malawi checkout. Sessions are hosted payment links; verification goes
// through order search on our reference_id, since Square mints its own
// order ids.
type SquareAdapter struct {
	BaseURL     string
	AccessToken string
	LocationID  string
	APIVersion  string
	client      *http.Client
}

func NewSquareAdapter(baseURL, accessToken, locationID string) *SquareAdapter {
	if baseURL == "" {
		baseURL = "https://connect.squareup.com"
	}
	return &SquareAdapter{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		LocationID:  locationID,
		APIVersion:  "2025-01-23",
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *SquareAdapter) Gateway() domain.Gateway { return domain.GatewaySquare }

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squareLineItem struct {
	Name           string      `json:"name"`
	Quantity       string      `json:"quantity"`
	BasePriceMoney squareMoney `json:"base_price_money"`
}

type squareOrderBody struct {
	LocationID  string           `json:"location_id"`
	ReferenceID string           `json:"reference_id"`
	LineItems   []squareLineItem `json:"line_items"`
}

type squarePaymentLinkReq struct {
	IdempotencyKey   string          `json:"idempotency_key"`
	Order            squareOrderBody `json:"order"`
	CheckoutOptions  map[string]any  `json:"checkout_options,omitempty"`
	PrePopulatedData map[string]any  `json:"pre_populated_data,omitempty"`
}

type squarePaymentLinkResp struct {
	PaymentLink struct {
		ID      string `json:"id"`
		URL     string `json:"url"`
		OrderID string `json:"order_id"`
	} `json:"payment_link"`
	Errors []squareAPIError `json:"errors"`
}

type squareAPIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

func (a *SquareAdapter) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	lines := make([]squareLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, squareLineItem{
			Name:     item.Name,
			Quantity: strconv.Itoa(item.Quantity),
			BasePriceMoney: squareMoney{
				Amount:   item.UnitPrice.AmountMinor,
				Currency: string(item.UnitPrice.Currency),
			},
		})
	}
	payload := squarePaymentLinkReq{
		IdempotencyKey: req.Reference,
		Order: squareOrderBody{
			LocationID:  a.LocationID,
			ReferenceID: req.Reference,
			LineItems:   lines,
		},
	}
	if req.SuccessURL != "" {
		payload.CheckoutOptions = map[string]any{"redirect_url": req.SuccessURL}
	}
	if req.CustomerEmail != "" {
		payload.PrePopulatedData = map[string]any{"buyer_email": req.CustomerEmail}
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v2/online-checkout/payment-links", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	a.setHeaders(apiReq)
	log.Printf("[SQUARE] POST /v2/online-checkout/payment-links reference=%s lines=%d", req.Reference, len(lines))
	resp, err := a.client.Do(apiReq)
	if err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewaySquare), Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, a.classify(resp.StatusCode, respBody)
	}
	var out squarePaymentLinkResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewaySquare), Err: fmt.Errorf("decode payment link: %w", err)}
	}
	if out.PaymentLink.URL == "" {
		return nil, &RejectedError{Gateway: string(domain.GatewaySquare), StatusCode: resp.StatusCode, Message: "payment link missing url"}
	}
	return &Session{
		Reference:   req.Reference,
		SessionID:   out.PaymentLink.OrderID,
		RedirectURL: out.PaymentLink.URL,
		CreatedAt:   time.Now(),
	}, nil
}

type squareSearchReq struct {
	LocationIDs []string       `json:"location_ids"`
	Query       map[string]any `json:"query"`
	Limit       int            `json:"limit"`
}

type squareSearchResp struct {
	Orders []struct {
		ID          string      `json:"id"`
		State       string      `json:"state"` // OPEN, COMPLETED, CANCELED, DRAFT
		ReferenceID string      `json:"reference_id"`
		TotalMoney  squareMoney `json:"total_money"`
		ClosedAt    string      `json:"closed_at"`
	} `json:"orders"`
	Errors []squareAPIError `json:"errors"`
}

func (a *SquareAdapter) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	payload := squareSearchReq{
		LocationIDs: []string{a.LocationID},
		Query: map[string]any{
			"filter": map[string]any{
				"reference_id_filter": map[string]any{"reference_id": reference},
			},
		},
		Limit: 1,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v2/orders/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	a.setHeaders(apiReq)
	resp, err := a.client.Do(apiReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &VerifyTimeoutError{Gateway: string(domain.GatewaySquare), Reference: reference, Err: err}
		}
		return nil, &UnavailableError{Gateway: string(domain.GatewaySquare), Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, a.classify(resp.StatusCode, respBody)
	}
	var out squareSearchResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewaySquare), Err: fmt.Errorf("decode order search: %w", err)}
	}
	if len(out.Orders) == 0 {
		return nil, &RejectedError{Gateway: string(domain.GatewaySquare), StatusCode: http.StatusNotFound, Message: "no order for reference " + reference}
	}
	order := out.Orders[0]
	result := &VerifyResult{
		AmountMinor: order.TotalMoney.Amount,
		Currency:    order.TotalMoney.Currency,
	}
	switch order.State {
	case "COMPLETED":
		result.Status = VerifyVerified
		if t, err := time.Parse(time.RFC3339, order.ClosedAt); err == nil {
			result.PaidAt = &t
		}
	case "CANCELED":
		result.Status = VerifyFailed
	default:
		result.Status = VerifyPending
	}
	return result, nil
}

func (a *SquareAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AccessToken)
	req.Header.Set("Square-Version", a.APIVersion)
}

func (a *SquareAdapter) classify(status int, body []byte) error {
	var parsed struct {
		Errors []squareAPIError `json:"errors"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		msg = parsed.Errors[0].Code + ": " + parsed.Errors[0].Detail
	}
	if status >= 500 {
		return &UnavailableError{Gateway: string(domain.GatewaySquare), Err: fmt.Errorf("status %d: %s", status, msg)}
	}
	return &RejectedError{Gateway: string(domain.GatewaySquare), StatusCode: status, Message: msg}
}
