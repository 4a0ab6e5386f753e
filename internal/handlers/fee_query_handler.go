package handlers

import (
	"net/http"

	"multichain-proxy/internal/ledger"
	"multichain-proxy/internal/utils"

	"github.com/gin-gonic/gin"
)

// FeeQueryHandler serves the public read-only fee balance endpoints.
// Token pools are keyed by asset address (zero address for native value);
// the crypto fee pools are native-denominated and keyed by integrator.
type FeeQueryHandler struct {
	ledger ledger.Ledger
}

// NewFeeQueryHandler creates a fee query handler backed by the given ledger
func NewFeeQueryHandler(l ledger.Ledger) *FeeQueryHandler {
	return &FeeQueryHandler{ledger: l}
}

// PlatformTokenBalance handles GET /api/v1/fees/platform/:asset
func (h *FeeQueryHandler) PlatformTokenBalance(c *gin.Context) {
	asset, err := utils.ParseAddress(c.Param("asset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	balance, err := h.ledger.PlatformTokenBalance(c.Request.Context(), asset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to query balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"asset":   utils.NormalizeAddress(asset),
		"balance": balance.String(),
	})
}

// IntegratorTokenBalance handles GET /api/v1/fees/integrator/:integrator/:asset
func (h *FeeQueryHandler) IntegratorTokenBalance(c *gin.Context) {
	integrator, err := utils.ParseAddress(c.Param("integrator"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	asset, err := utils.ParseAddress(c.Param("asset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	balance, err := h.ledger.IntegratorTokenBalance(c.Request.Context(), asset, integrator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to query balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"asset":      utils.NormalizeAddress(asset),
		"integrator": utils.NormalizeAddress(integrator),
		"balance":    balance.String(),
	})
}

// PlatformCryptoBalance handles GET /api/v1/fees/crypto/platform
func (h *FeeQueryHandler) PlatformCryptoBalance(c *gin.Context) {
	balance, err := h.ledger.PlatformCryptoBalance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to query balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance.String(),
	})
}

// IntegratorCryptoBalance handles GET /api/v1/fees/crypto/integrator/:integrator
func (h *FeeQueryHandler) IntegratorCryptoBalance(c *gin.Context) {
	integrator, err := utils.ParseAddress(c.Param("integrator"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	balance, err := h.ledger.IntegratorCryptoBalance(c.Request.Context(), integrator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to query balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"integrator": utils.NormalizeAddress(integrator),
		"balance":    balance.String(),
	})
}
