package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/utils"
	"github.com/tourdesk/booking-backend/pkg/jwt"
)

type tokenIssuer interface {
	ValidateRefreshToken(tokenString string) (*jwt.Claims, error)
	GenerateAccessToken(userID int64, email string) (string, error)
	GenerateRefreshToken(userID int64, email string) (string, error)
}

// RefreshTokenRequest carries a dashboard refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler rotates dashboard tokens
type AuthHandler struct {
	tokens tokenIssuer
	logger *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens tokenIssuer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, logger: logger}
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).WithField("ip", utils.ClientIP(c)).Warn("Refresh token rejected")
		respondError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired refresh token")
		return
	}

	access, err := h.tokens.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	refresh, err := h.tokens.GenerateRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	device := utils.ParseUserAgent(utils.UserAgent(c))
	h.logger.WithFields(logrus.Fields{
		"user_id": claims.UserID,
		"device":  device.DeviceType,
		"browser": device.Browser,
	}).Info("Dashboard token refreshed")

	respondOK(c, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
	})
}
