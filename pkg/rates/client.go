package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client fetches live GBP→MWK quotes from the FX rates API.
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

// Quote is the rates endpoint response.
type Quote struct {
	Base     string  `json:"base"`
	GBPToMWK float64 `json:"gbp_mwk"`
	AsOf     string  `json:"as_of"`
}

func (c *Client) GetQuote(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/rates/gbp", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates fetch: %d %s", resp.StatusCode, string(respBody))
	}
	var out Quote
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh polls the rates API on the given interval and feeds the table.
// Failures keep the previous rate; the seeded config rate is the floor.
func (c *Client) Refresh(ctx context.Context, table *Table, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			quote, err := c.GetQuote(ctx)
			if err != nil {
				log.Printf("[RATES] refresh failed: %v", err)
				continue
			}
			table.SetGBPToMWK(quote.GBPToMWK)
			log.Printf("[RATES] GBP→MWK updated to %.2f (as of %s)", quote.GBPToMWK, quote.AsOf)
		}
	}
}
