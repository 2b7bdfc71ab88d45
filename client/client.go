package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TaxRequest is the input to a tax estimate.
type TaxRequest struct {
	WalletAddress string `json:"walletAddress"`
	FilingStatus  string `json:"filingStatus"` // single, mfj, mfs or hoh
	State         string `json:"state"`        // two-letter code
}

// TaxEstimate is the server's tax breakdown for a wallet.
type TaxEstimate struct {
	TotalPnl     float64 `json:"totalPnl"`
	PnlSol       float64 `json:"pnlSol"`
	TotalBuySol  float64 `json:"totalBuySol"`
	TotalSellSol float64 `json:"totalSellSol"`
	TradeCount   int     `json:"tradeCount"`
	FederalTax   float64 `json:"federalTax"`
	StateTax     float64 `json:"stateTax"`
	TotalTax     float64 `json:"totalTax"`
	FederalRate  float64 `json:"federalRate"`
	StateRate    float64 `json:"stateRate"`
	IsLoss       bool    `json:"isLoss"`
	DataSource   string  `json:"dataSource"` // primary, secondary or demo
}

// WalletPNL is a scalar USD PNL and the tier that produced it.
type WalletPNL struct {
	WalletAddress string  `json:"walletAddress"`
	PnlUSD        float64 `json:"pnlUsd"`
	Source        string  `json:"source"`
}

// State is one supported state and its flat rate.
type State struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// FilingStatus is an accepted filing status and its label.
type FilingStatus struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// States is the rate table exposed by the server.
type States struct {
	FederalRate    float64        `json:"federalRate"`
	States         []State        `json:"states"`
	FilingStatuses []FilingStatus `json:"filingStatuses"`
}

// APIError is a structured error returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Client is the HTTP client for the solwallet-tax service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// CalculateTax requests a tax estimate for a wallet.
func (c *Client) CalculateTax(ctx context.Context, in TaxRequest) (*TaxEstimate, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/calculate-tax", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out TaxEstimate
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	c.logger.Debug("tax estimate received",
		"wallet", in.WalletAddress,
		"source", out.DataSource,
		"total_tax", out.TotalTax,
	)
	return &out, nil
}

// WalletPNL resolves the scalar USD PNL for an address.
func (c *Client) WalletPNL(ctx context.Context, address string) (*WalletPNL, error) {
	u := fmt.Sprintf("%s/api/v1/pnl/%s", c.baseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var out WalletPNL
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// States retrieves the supported states and filing statuses.
func (c *Client) States(ctx context.Context) (*States, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/states", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var out States
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// do sends req and decodes a 200 response into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       errResp.Error,
		Message:    errResp.Message,
	}
}
