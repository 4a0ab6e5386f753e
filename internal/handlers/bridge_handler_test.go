package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"multichain-proxy/internal/bridge"
	"multichain-proxy/internal/feeconfig"
	"multichain-proxy/internal/fees"
	"multichain-proxy/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssets struct{}

func (stubAssets) Pull(ctx context.Context, asset, from common.Address, amount *big.Int) error {
	return nil
}
func (stubAssets) Push(ctx context.Context, asset, to common.Address, amount *big.Int) error {
	return nil
}

type stubSwapper struct{ out *big.Int }

func (s stubSwapper) Swap(ctx context.Context, inputAsset common.Address, inputAmount *big.Int,
	outputAsset common.Address, minOutputAmount *big.Int, payload []byte) (*big.Int, error) {
	return new(big.Int).Set(s.out), nil
}

type stubRouter struct{}

func (stubRouter) Forward(ctx context.Context, asset common.Address, amount *big.Int,
	destinationChainID uint64, destinationAsset common.Address, recipient string, routerID string) error {
	return nil
}

type stubPublisher struct{}

func (stubPublisher) PublishRequestSent(ctx context.Context, event bridge.RequestSentEvent) error {
	return nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *ledger.MemoryLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := feeconfig.NewMemoryStore(feeconfig.Global{
		FixedCryptoFee:       big.NewInt(1000),
		PlatformTokenFeeRate: 30000,
	})
	l := ledger.NewMemoryLedger()
	dispatcher := bridge.NewDispatcher(fees.NewCalculator(store), l,
		stubAssets{}, stubSwapper{out: big.NewInt(900)}, stubRouter{}, stubPublisher{})

	h := NewBridgeHandler(dispatcher)
	r := gin.New()
	r.POST("/api/v1/bridge", h.BridgeToken)
	r.POST("/api/v1/bridge/native", h.BridgeNative)
	r.POST("/api/v1/bridge/swap", h.BridgeTokenWithSwap)
	return r, l
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() BridgeRequestBody {
	return BridgeRequestBody{
		Caller:        "0x0000000000000000000000000000000000000c01",
		SourceToken:   "0x0000000000000000000000000000000000000001",
		Amount:        "1000",
		DstChainID:    137,
		DstToken:      "0x0000000000000000000000000000000000000002",
		Recipient:     "0x00000000000000000000000000000000000000ff",
		Router:        "anyswap-v4",
		AttachedValue: "1000",
	}
}

func TestBridgeTokenRoute(t *testing.T) {
	r, l := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/bridge", validBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool                    `json:"success"`
		Event   bridge.RequestSentEvent `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Event.RequestID)
	assert.Equal(t, "970", resp.Event.BridgedAmount)

	asset := common.HexToAddress("0x0000000000000000000000000000000000000001")
	balance, _ := l.PlatformTokenBalance(context.Background(), asset)
	assert.Equal(t, "30", balance.String())
}

func TestBridgeRouteValueMismatch(t *testing.T) {
	r, _ := newTestEngine(t)

	body := validBody()
	body.AttachedValue = "999"
	w := postJSON(t, r, "/api/v1/bridge", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBridgeRouteInvalidAddress(t *testing.T) {
	r, _ := newTestEngine(t)

	body := validBody()
	body.SourceToken = "not-an-address"
	w := postJSON(t, r, "/api/v1/bridge", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBridgeRouteInvalidAmount(t *testing.T) {
	r, _ := newTestEngine(t)

	body := validBody()
	body.Amount = "12.5"
	w := postJSON(t, r, "/api/v1/bridge", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBridgeRouteMissingFields(t *testing.T) {
	r, _ := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/bridge", gin.H{"amount": "1000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBridgeNativeRoute(t *testing.T) {
	r, l := newTestEngine(t)

	body := validBody()
	body.SourceToken = ""
	body.AttachedValue = "2000" // principal + crypto fee
	w := postJSON(t, r, "/api/v1/bridge/native", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	balance, _ := l.PlatformTokenBalance(context.Background(), ledger.NativeAsset)
	assert.Equal(t, "30", balance.String())
}

func TestBridgeSwapRouteSlippage(t *testing.T) {
	r, _ := newTestEngine(t)

	body := validBody()
	body.MinOutputAmount = "901" // stub swapper returns 900
	w := postJSON(t, r, "/api/v1/bridge/swap", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBridgeErrorStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, bridgeErrorStatus(bridge.ErrInvalidAmount))
	assert.Equal(t, http.StatusBadRequest, bridgeErrorStatus(bridge.ErrValueMismatch))
	assert.Equal(t, http.StatusUnprocessableEntity, bridgeErrorStatus(bridge.ErrSlippageExceeded))
	assert.Equal(t, http.StatusForbidden, bridgeErrorStatus(bridge.ErrUnauthorizedConfigChange))
	assert.Equal(t, http.StatusBadGateway, bridgeErrorStatus(bridge.ErrExternalCollaboratorFailure))
	assert.Equal(t, http.StatusInternalServerError, bridgeErrorStatus(assert.AnError))
}
