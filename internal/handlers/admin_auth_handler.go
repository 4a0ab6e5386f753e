package handlers

import (
	"fmt"
	"net/http"
	"time"

	"multichain-proxy/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthHandler issues operator tokens for the fee-config surface
type AdminAuthHandler struct {
	jwtSecret []byte
	passHash  string
}

// AdminLoginRequest operator login request
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse operator login response
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// AdminJWTClaims operator JWT claims
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminAuthHandler creates the operator auth handler from config
func NewAdminAuthHandler() *AdminAuthHandler {
	var secret, passHash string
	if config.AppConfig != nil {
		secret = config.AppConfig.Admin.JWTSecret
		passHash = config.AppConfig.Admin.OperatorPassHash
	}
	if secret == "" || passHash == "" {
		logrus.Warn("admin.jwtSecret or admin.operatorPassHash not configured, operator login disabled")
	}
	return &AdminAuthHandler{
		jwtSecret: []byte(secret),
		passHash:  passHash,
	}
}

// AdminLoginHandler verifies the operator secret and issues a JWT
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	if len(h.jwtSecret) == 0 || h.passHash == "" {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "Server misconfiguration: operator credentials not set",
		})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AdminLoginResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passHash), []byte(req.Password)); err != nil {
		// Generic message on purpose
		c.JSON(http.StatusUnauthorized, AdminLoginResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	token, err := h.generateAdminJWTToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, AdminLoginResponse{
		Success: true,
		Token:   token,
		Message: "Login successful",
	})
}

// generateAdminJWTToken signs a 24h operator token
func (h *AdminAuthHandler) generateAdminJWTToken(username string) (string, error) {
	claims := AdminJWTClaims{
		Username: username,
		Role:     "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "multichain-proxy",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateAdminJWTToken validates an operator JWT token
func ValidateAdminJWTToken(tokenString string) (*AdminJWTClaims, error) {
	var jwtSecret []byte
	if config.AppConfig != nil {
		jwtSecret = []byte(config.AppConfig.Admin.JWTSecret)
	}
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("operator JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*AdminJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
