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

	"multichain-proxy/internal/bridge"

	"github.com/ethereum/go-ethereum/common"
)

// SwapAdapterClient calls the on-chain swap adapter service. The adapter
// executes the pre-bridge swap and reports the realized output amount.
type SwapAdapterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSwapAdapterClient creates a new swap adapter client
func NewSwapAdapterClient(baseURL string) *SwapAdapterClient {
	return &SwapAdapterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SwapRequest represents a swap adapter execution request
type SwapRequest struct {
	InputToken      string `json:"inputToken"`
	InputAmount     string `json:"inputAmount"`
	OutputToken     string `json:"outputToken"`
	MinOutputAmount string `json:"minOutputAmount,omitempty"`
	Payload         string `json:"payload,omitempty"` // hex-encoded adapter calldata
}

// SwapResponse represents a swap adapter execution response
type SwapResponse struct {
	OutputAmount string `json:"outputAmount"`
	TxHash       string `json:"txHash,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// Swap executes the swap and returns the realized output amount. A
// response flagged as slippage maps to the slippage sentinel so the
// caller can reject the request without treating the adapter as down.
func (c *SwapAdapterClient) Swap(ctx context.Context, inputAsset common.Address, inputAmount *big.Int,
	outputAsset common.Address, minOutputAmount *big.Int, payload []byte) (*big.Int, error) {

	req := SwapRequest{
		InputToken:  strings.ToLower(inputAsset.Hex()),
		InputAmount: inputAmount.String(),
		OutputToken: strings.ToLower(outputAsset.Hex()),
	}
	if minOutputAmount != nil {
		req.MinOutputAmount = minOutputAmount.String()
	}
	if len(payload) > 0 {
		req.Payload = fmt.Sprintf("0x%x", payload)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/swap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var swapResp SwapResponse
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &swapResp) == nil && swapResp.ErrorCode == "SLIPPAGE_EXCEEDED" {
			return nil, fmt.Errorf("%w: %s", bridge.ErrSlippageExceeded, swapResp.Error)
		}
		return nil, fmt.Errorf("swap adapter error (status %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out, ok := new(big.Int).SetString(swapResp.OutputAmount, 10)
	if !ok {
		return nil, fmt.Errorf("swap adapter returned invalid output amount: %q", swapResp.OutputAmount)
	}
	return out, nil
}
