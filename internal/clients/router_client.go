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

// RouterClient hands net principal to the external cross-chain relay
// operator.
type RouterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRouterClient creates a new relay router client
func NewRouterClient(baseURL string) *RouterClient {
	return &RouterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ForwardRequest represents a relay forwarding request
type ForwardRequest struct {
	Token              string `json:"token"`
	Amount             string `json:"amount"`
	DestinationChainID uint64 `json:"destinationChainId"`
	DestinationToken   string `json:"destinationToken"`
	Recipient          string `json:"recipient"`
	RouterID           string `json:"routerId"`
}

// ForwardResponse represents a relay forwarding response
type ForwardResponse struct {
	Accepted bool   `json:"accepted"`
	TxHash   string `json:"txHash,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Forward submits the transfer to the relay. A nil return means the
// relay accepted custody of the amount for cross-chain delivery.
func (c *RouterClient) Forward(ctx context.Context, asset common.Address, amount *big.Int,
	destinationChainID uint64, destinationAsset common.Address, recipient string, routerID string) error {

	req := ForwardRequest{
		Token:              strings.ToLower(asset.Hex()),
		Amount:             amount.String(),
		DestinationChainID: destinationChainID,
		DestinationToken:   strings.ToLower(destinationAsset.Hex()),
		Recipient:          recipient,
		RouterID:           routerID,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/forward", bytes.NewReader(body))
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
		return fmt.Errorf("router error (status %d): %s", resp.StatusCode, string(raw))
	}

	var fwdResp ForwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&fwdResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !fwdResp.Accepted {
		return fmt.Errorf("router rejected transfer: %s", fwdResp.Error)
	}
	return nil
}
