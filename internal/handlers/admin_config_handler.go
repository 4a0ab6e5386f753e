package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"multichain-proxy/internal/bridge"
	"multichain-proxy/internal/feeconfig"
	"multichain-proxy/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminConfigHandler is the operator surface for fee configuration and
// fee pool withdrawals. All routes sit behind the operator JWT guard.
type AdminConfigHandler struct {
	store     feeconfig.Store
	collector *bridge.Collector
}

// NewAdminConfigHandler creates a new admin config handler
func NewAdminConfigHandler(store feeconfig.Store, collector *bridge.Collector) *AdminConfigHandler {
	return &AdminConfigHandler{store: store, collector: collector}
}

// IntegratorProfileBody is the wire form of an integrator profile.
// Rate fields are ppm: 1000000 == 100%.
type IntegratorProfileBody struct {
	IsIntegrator             bool   `json:"isIntegrator"`
	TokenFeeRate             uint32 `json:"tokenFeeRate"`
	PlatformFixedCryptoShare uint32 `json:"platformFixedCryptoShare"`
	PlatformTokenShare       uint32 `json:"platformTokenShare"`
	FixedFeeAmount           string `json:"fixedFeeAmount"` // native wei, "0" = use global default
}

// GlobalFeeBody is the wire form of the platform-wide fee defaults.
type GlobalFeeBody struct {
	FixedCryptoFee       string `json:"fixedCryptoFee"`
	PlatformTokenFeeRate uint32 `json:"platformTokenFeeRate"`
}

// CollectBody names the payout recipient for a fee pool withdrawal.
type CollectBody struct {
	Recipient string `json:"recipient" binding:"required"`
}

func operatorName(c *gin.Context) (string, error) {
	name := c.GetString("operator_username")
	if name == "" {
		return "", bridge.ErrUnauthorizedConfigChange
	}
	return name, nil
}

// SetIntegratorInfo handles PUT /api/v1/admin/integrators/:address
func (h *AdminConfigHandler) SetIntegratorInfo(c *gin.Context) {
	operator, err := operatorName(c)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
		return
	}

	integrator, err := utils.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	var body IntegratorProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}

	profile := feeconfig.IntegratorProfile{
		IsIntegrator:             body.IsIntegrator,
		TokenFeeRate:             body.TokenFeeRate,
		PlatformFixedCryptoShare: body.PlatformFixedCryptoShare,
		PlatformTokenShare:       body.PlatformTokenShare,
		FixedFeeAmount:           new(big.Int),
	}
	if body.FixedFeeAmount != "" {
		fee, ok := new(big.Int).SetString(body.FixedFeeAmount, 10)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid fixedFeeAmount"})
			return
		}
		profile.FixedFeeAmount = fee
	}

	if err := profile.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.store.SetIntegratorInfo(c.Request.Context(), integrator, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store profile"})
		return
	}

	logrus.WithFields(logrus.Fields{
		"operator":   operator,
		"integrator": utils.NormalizeAddress(integrator),
	}).Info("integrator profile updated")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetIntegratorInfo handles GET /api/v1/admin/integrators/:address
func (h *AdminConfigHandler) GetIntegratorInfo(c *gin.Context) {
	integrator, err := utils.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	profile, err := h.store.Profile(c.Request.Context(), integrator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load profile"})
		return
	}

	fixedFee := "0"
	if profile.FixedFeeAmount != nil {
		fixedFee = profile.FixedFeeAmount.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"integrator": utils.NormalizeAddress(integrator),
		"profile": IntegratorProfileBody{
			IsIntegrator:             profile.IsIntegrator,
			TokenFeeRate:             profile.TokenFeeRate,
			PlatformFixedCryptoShare: profile.PlatformFixedCryptoShare,
			PlatformTokenShare:       profile.PlatformTokenShare,
			FixedFeeAmount:           fixedFee,
		},
	})
}

// SetGlobalFees handles PUT /api/v1/admin/fees/global
func (h *AdminConfigHandler) SetGlobalFees(c *gin.Context) {
	operator, err := operatorName(c)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
		return
	}

	var body GlobalFeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}

	global := feeconfig.Global{
		FixedCryptoFee:       new(big.Int),
		PlatformTokenFeeRate: body.PlatformTokenFeeRate,
	}
	if body.FixedCryptoFee != "" {
		fee, ok := new(big.Int).SetString(body.FixedCryptoFee, 10)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid fixedCryptoFee"})
			return
		}
		global.FixedCryptoFee = fee
	}

	if err := global.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.store.SetGlobal(c.Request.Context(), global, operator); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store global fees"})
		return
	}

	logrus.WithFields(logrus.Fields{
		"operator":                operator,
		"fixed_crypto_fee":        global.FixedCryptoFee.String(),
		"platform_token_fee_rate": global.PlatformTokenFeeRate,
	}).Info("global fee config updated")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetGlobalFees handles GET /api/v1/admin/fees/global
func (h *AdminConfigHandler) GetGlobalFees(c *gin.Context) {
	global, err := h.store.Global(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load global fees"})
		return
	}

	fixedFee := "0"
	if global.FixedCryptoFee != nil {
		fixedFee = global.FixedCryptoFee.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"global": GlobalFeeBody{
			FixedCryptoFee:       fixedFee,
			PlatformTokenFeeRate: global.PlatformTokenFeeRate,
		},
	})
}

// CollectPlatformToken handles POST /api/v1/admin/fees/platform/:asset/collect
func (h *AdminConfigHandler) CollectPlatformToken(c *gin.Context) {
	asset, err := utils.ParseAddress(c.Param("asset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	var body CollectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}
	recipient, err := utils.ParseAddress(body.Recipient)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	amount, err := h.collector.CollectPlatformToken(c.Request.Context(), asset, recipient)
	h.respondCollect(c, amount, err)
}

// CollectIntegratorToken handles POST /api/v1/admin/fees/integrator/:integrator/:asset/collect
func (h *AdminConfigHandler) CollectIntegratorToken(c *gin.Context) {
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

	amount, err := h.collector.CollectIntegratorToken(c.Request.Context(), asset, integrator)
	h.respondCollect(c, amount, err)
}

// CollectPlatformCrypto handles POST /api/v1/admin/fees/crypto/platform/collect
func (h *AdminConfigHandler) CollectPlatformCrypto(c *gin.Context) {
	var body CollectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}
	recipient, err := utils.ParseAddress(body.Recipient)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	amount, err := h.collector.CollectPlatformCrypto(c.Request.Context(), recipient)
	h.respondCollect(c, amount, err)
}

// CollectIntegratorCrypto handles POST /api/v1/admin/fees/crypto/integrator/:integrator/collect
func (h *AdminConfigHandler) CollectIntegratorCrypto(c *gin.Context) {
	integrator, err := utils.ParseAddress(c.Param("integrator"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	amount, err := h.collector.CollectIntegratorCrypto(c.Request.Context(), integrator)
	h.respondCollect(c, amount, err)
}

func (h *AdminConfigHandler) respondCollect(c *gin.Context, amount *big.Int, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrExternalCollaboratorFailure) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"amount":  amount.String(),
	})
}
