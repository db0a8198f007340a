package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin pass-through to the remote catalog/backend API. This
// service never owns catalog data; it reads canonical prices to cross-check
// cart snapshots and fetches order views for receipts.
type Client struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Product is the slice of the catalog product this service cares about:
// the canonical GBP price.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PricePence int64  `json:"price_pence"`
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.get(ctx, "/v1/products/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Order is the catalog-side order view keyed by our checkout reference.
type Order struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Items     json.RawMessage `json:"items"`
}

func (c *Client) GetOrder(ctx context.Context, reference string) (*Order, error) {
	var out Order
	if err := c.get(ctx, "/v1/orders/"+reference, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
