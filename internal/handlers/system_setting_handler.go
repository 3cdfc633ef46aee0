package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/middleware"
	"github.com/tourdesk/booking-backend/internal/models"
)

type settingStore interface {
	GetAll(ctx context.Context) ([]models.SystemSetting, error)
	GetByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	GetValue(ctx context.Context, key, defaultValue string) string
	Upsert(ctx context.Context, key, value string, description *string) (*models.SystemSetting, error)
}

var publicSettingKeys = []string{
	models.SettingPaymentGatewayMode,
	models.SettingTermsText,
	models.SettingBusinessEmail,
	models.SettingBusinessPhone,
	models.SettingBusinessAddress,
}

// SystemSettingHandler handles system settings requests
type SystemSettingHandler struct {
	settings settingStore
	logger   *logrus.Logger
}

// NewSystemSettingHandler creates a new SystemSettingHandler
func NewSystemSettingHandler(settings settingStore, logger *logrus.Logger) *SystemSettingHandler {
	return &SystemSettingHandler{settings: settings, logger: logger}
}

// GetAll handles GET /api/v1/system-settings
func (h *SystemSettingHandler) GetAll(c *gin.Context) {
	settings, err := h.settings.GetAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"settings": settings})
}

// GetByKey handles GET /api/v1/system-settings/:key
func (h *SystemSettingHandler) GetByKey(c *gin.Context) {
	setting, err := h.settings.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"setting": setting})
}

// Update handles PUT /api/v1/system-settings/:key
func (h *SystemSettingHandler) Update(c *gin.Context) {
	var req models.UpdateSystemSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	key := c.Param("key")
	if key == models.SettingPaymentGatewayMode {
		switch req.SettingValue {
		case "live", "test", "disabled":
		default:
			respondServiceError(c, h.logger, models.NewValidationError("setting_value", "must be live, test or disabled"))
			return
		}
	}

	setting, err := h.settings.Upsert(c.Request.Context(), key, req.SettingValue, req.Description)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	user, _ := middleware.GetUserContext(c)
	h.logger.WithFields(logrus.Fields{"key": key, "user_id": user.UserID}).Info("System setting updated")
	respondOK(c, gin.H{"setting": setting})
}

// Public handles GET /api/v1/settings/public. Missing keys come back empty.
func (h *SystemSettingHandler) Public(c *gin.Context) {
	values := make(gin.H, len(publicSettingKeys))
	for _, key := range publicSettingKeys {
		values[key] = h.settings.GetValue(c.Request.Context(), key, "")
	}
	respondOK(c, gin.H{"settings": values})
}
