package banklink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"finquest/internal/config"
)

// Client talks to the link provider's HTTP API. Service-level calls are
// authenticated with OAuth2 client credentials; per-item access tokens
// ride in the request body the way aggregator APIs expect.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client from config
func NewClient(cfg *config.Config) *Client {
	ccfg := clientcredentials.Config{
		ClientID:     cfg.LinkProviderClientID,
		ClientSecret: cfg.LinkProviderClientSecret,
		TokenURL:     cfg.LinkProviderTokenURL,
	}

	httpClient := ccfg.Client(context.Background())
	httpClient.Timeout = 15 * time.Second

	return &Client{
		baseURL:    cfg.LinkProviderBaseURL,
		httpClient: httpClient,
	}
}

// ExchangePublicToken trades a public token for an item access token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*LinkResult, error) {
	var result LinkResult
	err := c.post(ctx, "/item/public_token/exchange", map[string]string{
		"public_token": publicToken,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchTransactions pulls an item's transactions since a date
func (c *Client) FetchTransactions(ctx context.Context, accessToken, since string) ([]ProviderTransaction, error) {
	var result struct {
		Transactions []ProviderTransaction `json:"transactions"`
	}
	err := c.post(ctx, "/transactions/sync", map[string]string{
		"access_token": accessToken,
		"start_date":   since,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Transactions, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
