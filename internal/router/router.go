package router

import (
	"net/http"
	"strings"

	"multichain-proxy/internal/config"
	"multichain-proxy/internal/handlers"
	"multichain-proxy/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware CORS middleware
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigins := []string{"*"}
		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter wires the HTTP surface: the four bridge routes, the fee
// pool queries, and the operator-guarded fee configuration routes.
func SetupRouter(
	bridgeHandler *handlers.BridgeHandler,
	feeQueryHandler *handlers.FeeQueryHandler,
	adminAuthHandler *handlers.AdminAuthHandler,
	adminConfigHandler *handlers.AdminConfigHandler,
) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	adminAuth := middleware.NewAdminAuthMiddleware(logrus.StandardLogger())

	// ============ Health Check ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "multichain-proxy",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	api := r.Group("/api/v1")
	{
		// Bridge entry points
		api.POST("/bridge", bridgeHandler.BridgeToken)
		api.POST("/bridge/native", bridgeHandler.BridgeNative)
		api.POST("/bridge/swap", bridgeHandler.BridgeTokenWithSwap)
		api.POST("/bridge/native/swap", bridgeHandler.BridgeNativeWithSwap)

		// Fee pool queries
		fees := api.Group("/fees")
		{
			fees.GET("/platform/:asset", feeQueryHandler.PlatformTokenBalance)
			fees.GET("/integrator/:integrator/:asset", feeQueryHandler.IntegratorTokenBalance)
			fees.GET("/crypto/platform", feeQueryHandler.PlatformCryptoBalance)
			fees.GET("/crypto/integrator/:integrator", feeQueryHandler.IntegratorCryptoBalance)
		}

		// Operator login
		api.POST("/admin/login", adminAuthHandler.AdminLoginHandler)

		// Operator-guarded fee configuration and withdrawals
		admin := api.Group("/admin")
		admin.Use(adminAuth.RequireOperatorAuth())
		{
			admin.GET("/integrators/:address", adminConfigHandler.GetIntegratorInfo)
			admin.PUT("/integrators/:address", adminConfigHandler.SetIntegratorInfo)
			admin.GET("/fees/global", adminConfigHandler.GetGlobalFees)
			admin.PUT("/fees/global", adminConfigHandler.SetGlobalFees)

			admin.POST("/fees/platform/:asset/collect", adminConfigHandler.CollectPlatformToken)
			admin.POST("/fees/integrator/:integrator/:asset/collect", adminConfigHandler.CollectIntegratorToken)
			admin.POST("/fees/crypto/platform/collect", adminConfigHandler.CollectPlatformCrypto)
			admin.POST("/fees/crypto/integrator/:integrator/collect", adminConfigHandler.CollectIntegratorCrypto)
		}
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api/v1 endpoints for available APIs",
		})
	})

	return r
}
