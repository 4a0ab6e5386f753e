package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TreasuryClient moves custody of funds through the treasury signer
// service. Pull draws funds from a caller's escrow into the proxy, Push
// pays out of the proxy.
type TreasuryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTreasuryClient creates a new treasury client
func NewTreasuryClient(baseURL string) *TreasuryClient {
	return &TreasuryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TransferRequest represents a custody transfer request
type TransferRequest struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// TransferResponse represents a custody transfer response
type TransferResponse struct {
	Completed bool   `json:"completed"`
	TxHash    string `json:"txHash,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pull draws amount of asset from the account's custody into the proxy.
func (c *TreasuryClient) Pull(ctx context.Context, asset common.Address, from common.Address, amount *big.Int) error {
	return c.transfer(ctx, "/v1/pull", asset, from, amount)
}

// Push pays amount of asset out of the proxy to the recipient.
func (c *TreasuryClient) Push(ctx context.Context, asset common.Address, to common.Address, amount *big.Int) error {
	return c.transfer(ctx, "/v1/push", asset, to, amount)
}

func (c *TreasuryClient) transfer(ctx context.Context, path string, asset common.Address,
	account common.Address, amount *big.Int) error {

	req := TransferRequest{
		Token:   strings.ToLower(asset.Hex()),
		Account: strings.ToLower(account.Hex()),
		Amount:  amount.String(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("treasury error (status %d): %s", resp.StatusCode, string(raw))
	}

	var transferResp TransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&transferResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !transferResp.Completed {
		return fmt.Errorf("treasury rejected transfer: %s", transferResp.Error)
	}
	return nil
}
