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
	"strings"
	"time"

	"nthanda/internal/domain"
)

// PayChanguAdapter drives the PayChangu mobile-money processor serving
// Malawi checkouts in kwacha. The tx_ref we supply at creation is the same
// reference used for verification, so no provider-side id mapping is needed.
type PayChanguAdapter struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewPayChanguAdapter(baseURL, secretKey string) *PayChanguAdapter {
	if baseURL == "" {
		baseURL = "https://api.paychangu.com"
	}
	return &PayChanguAdapter{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *PayChanguAdapter) Gateway() domain.Gateway { return domain.GatewayPayChangu }

type paychanguPaymentReq struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	TxRef     string `json:"tx_ref"`
	ReturnURL string `json:"return_url,omitempty"`
	Title     string `json:"customization_title,omitempty"`
}

type paychanguPaymentResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		Data        struct {
			TxRef string `json:"tx_ref"`
		} `json:"data"`
	} `json:"data"`
}

func (a *PayChanguAdapter) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	total := domain.CartTotal(req.Items, req.Currency)
	payload := paychanguPaymentReq{
		Amount:    total.AmountMinor,
		Currency:  string(req.Currency),
		Email:     req.CustomerEmail,
		TxRef:     req.Reference,
		ReturnURL: req.SuccessURL,
		Title:     req.Description,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	a.setHeaders(apiReq)
	log.Printf("[PAYCHANGU] POST /payment tx_ref=%s amount=%s", req.Reference, total)
	resp, err := a.client.Do(apiReq)
	if err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, a.classify(resp.StatusCode, respBody)
	}
	var out paychanguPaymentResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: fmt.Errorf("decode payment: %w", err)}
	}
	if !strings.EqualFold(out.Status, "success") || out.Data.CheckoutURL == "" {
		return nil, &RejectedError{Gateway: string(domain.GatewayPayChangu), StatusCode: resp.StatusCode, Message: out.Message}
	}
	return &Session{
		Reference:   req.Reference,
		SessionID:   req.Reference, // PayChangu keys everything on tx_ref
		RedirectURL: out.Data.CheckoutURL,
		CreatedAt:   time.Now(),
	}, nil
}

type paychanguVerifyResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status      string  `json:"status"` // success, failed, pending
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		CompletedAt string  `json:"completed_at"`
	} `json:"data"`
}

func (a *PayChanguAdapter) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/verify-payment/"+reference, nil)
	if err != nil {
		return nil, err
	}
	a.setHeaders(apiReq)
	resp, err := a.client.Do(apiReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &VerifyTimeoutError{Gateway: string(domain.GatewayPayChangu), Reference: reference, Err: err}
		}
		return nil, &UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, a.classify(resp.StatusCode, respBody)
	}
	var out paychanguVerifyResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: fmt.Errorf("decode verify: %w", err)}
	}
	result := &VerifyResult{
		AmountMinor: int64(out.Data.Amount), // MWK has no minor unit
		Currency:    out.Data.Currency,
	}
	switch strings.ToLower(out.Data.Status) {
	case "success", "successful":
		result.Status = VerifyVerified
		if t, err := time.Parse(time.RFC3339, out.Data.CompletedAt); err == nil {
			result.PaidAt = &t
		}
	case "failed", "cancelled":
		result.Status = VerifyFailed
	default:
		result.Status = VerifyPending
	}
	return result, nil
}

func (a *PayChanguAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.SecretKey)
}

func (a *PayChanguAdapter) classify(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	if status >= 500 {
		return &UnavailableError{Gateway: string(domain.GatewayPayChangu), Err: fmt.Errorf("status %d: %s", status, msg)}
	}
	return &RejectedError{Gateway: string(domain.GatewayPayChangu), StatusCode: status, Message: msg}
}
