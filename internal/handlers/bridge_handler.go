package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"multichain-proxy/internal/bridge"
	"multichain-proxy/internal/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// BridgeHandler exposes the four bridge entry points over HTTP
type BridgeHandler struct {
	dispatcher *bridge.Dispatcher
}

// NewBridgeHandler creates a new bridge handler
func NewBridgeHandler(dispatcher *bridge.Dispatcher) *BridgeHandler {
	return &BridgeHandler{dispatcher: dispatcher}
}

// BridgeRequestBody is the JSON body shared by the four bridge routes.
// Amounts are decimal strings so uint256 values survive the transport.
type BridgeRequestBody struct {
	Caller          string `json:"caller" binding:"required"`
	SourceToken     string `json:"sourceToken"` // empty on native routes
	Amount          string `json:"amount" binding:"required"`
	DstChainID      uint64 `json:"dstChainId" binding:"required"`
	DstToken        string `json:"dstToken"`
	MinOutputAmount string `json:"minOutputAmount"`
	Recipient       string `json:"recipient" binding:"required"`
	Integrator      string `json:"integrator"`
	Router          string `json:"router" binding:"required"`
	Payload         string `json:"payload"` // hex-encoded swap calldata
	AttachedValue   string `json:"attachedValue" binding:"required"`
}

// BridgeToken handles POST /api/v1/bridge
func (h *BridgeHandler) BridgeToken(c *gin.Context) {
	h.handle(c, h.dispatcher.BridgeToken)
}

// BridgeNative handles POST /api/v1/bridge/native
func (h *BridgeHandler) BridgeNative(c *gin.Context) {
	h.handle(c, h.dispatcher.BridgeNative)
}

// BridgeTokenWithSwap handles POST /api/v1/bridge/swap
func (h *BridgeHandler) BridgeTokenWithSwap(c *gin.Context) {
	h.handle(c, h.dispatcher.BridgeTokenWithSwap)
}

// BridgeNativeWithSwap handles POST /api/v1/bridge/native/swap
func (h *BridgeHandler) BridgeNativeWithSwap(c *gin.Context) {
	h.handle(c, h.dispatcher.BridgeNativeWithSwap)
}

type dispatchFunc func(ctx context.Context, req bridge.Request, attachedValue *big.Int) (bridge.RequestSentEvent, error)

func (h *BridgeHandler) handle(c *gin.Context, dispatch dispatchFunc) {

	var body BridgeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	req, attachedValue, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	event, err := dispatch(c.Request.Context(), req, attachedValue)
	if err != nil {
		status := bridgeErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   event,
	})
}

// toRequest validates and converts the wire body into a dispatch request.
func (b *BridgeRequestBody) toRequest() (bridge.Request, *big.Int, error) {
	var req bridge.Request
	var err error

	if req.Caller, err = utils.ParseAddress(b.Caller); err != nil {
		return req, nil, err
	}
	if req.SourceAsset, err = utils.ParseAddress(b.SourceToken); err != nil {
		return req, nil, err
	}
	if req.DestinationAsset, err = utils.ParseAddress(b.DstToken); err != nil {
		return req, nil, err
	}
	if req.Integrator, err = utils.ParseAddress(b.Integrator); err != nil {
		return req, nil, err
	}

	if req.SourceAmount, err = parseAmount("amount", b.Amount); err != nil {
		return req, nil, err
	}
	attachedValue, err := parseAmount("attachedValue", b.AttachedValue)
	if err != nil {
		return req, nil, err
	}
	if b.MinOutputAmount != "" {
		if req.MinDestinationAmount, err = parseAmount("minOutputAmount", b.MinOutputAmount); err != nil {
			return req, nil, err
		}
	}

	if b.Payload != "" {
		if req.SwapPayload, err = hexutil.Decode(b.Payload); err != nil {
			return req, nil, errors.New("invalid payload: " + err.Error())
		}
	}

	req.DestinationChainID = b.DstChainID
	req.Recipient = b.Recipient
	req.Router = b.Router
	return req, attachedValue, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.New("invalid " + field + ": must be a non-negative decimal string")
	}
	return amount, nil
}

// bridgeErrorStatus maps dispatch sentinels onto HTTP status codes.
func bridgeErrorStatus(err error) int {
	switch {
	case errors.Is(err, bridge.ErrInvalidAmount), errors.Is(err, bridge.ErrValueMismatch):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrSlippageExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bridge.ErrUnauthorizedConfigChange):
		return http.StatusForbidden
	case errors.Is(err, bridge.ErrExternalCollaboratorFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
