package redeem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type topupRequest struct {
	PlayerID string `json:"player_id"`
	SKU      string `json:"sku"`
	Qty      int    `json:"qty"`
}

type topupResponse struct {
	Status  string `json:"status"` // ok | error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Redeem tops up qty units of sku onto the given player id. The http client
// timeout is the upper bound; the passed ctx may cut it shorter.
func (c *Client) Redeem(ctx context.Context, playerID, sku string, qty int) Outcome {
	body, err := json.Marshal(topupRequest{PlayerID: playerID, SKU: sku, Qty: qty})
	if err != nil {
		return Outcome{Err: fmt.Sprintf("encode request: %v", err)}
	}

	url := fmt.Sprintf("%s/api/v1/topup", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Err: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("do request: %v", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res topupResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return Outcome{Err: fmt.Sprintf("decode response: %v", err)}
		}
		if res.Status != "ok" {
			return Outcome{Err: fmt.Sprintf("provider rejected: %s", res.Message)}
		}
		return Outcome{Success: true, Code: res.Code}
	case http.StatusTooManyRequests:
		return Outcome{Err: "provider rate limit exceeded"}
	default:
		raw, _ := io.ReadAll(resp.Body)
		return Outcome{Err: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(raw))}
	}
}
