package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

// LicenseHandler serves the end-user activation and status endpoints.
type LicenseHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewLicenseHandler(service *service.LicenseService, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.Named("LicenseHandler"),
	}
}

func (h *LicenseHandler) Activate(c *gin.Context) {
	var req dto.KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Failed to bind or validate activation request", zap.Error(err))
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	activated, err := h.service.Activate(c.Request.Context(), req.Key, identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLicenseStatusResponse(activated, h.service.Now()))
}

func (h *LicenseHandler) Status(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	lic, err := h.service.StatusFor(c.Request.Context(), identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLicenseStatusResponse(lic, h.service.Now()))
}
