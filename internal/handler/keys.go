package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

// KeyHandler serves the admin key management endpoints.
type KeyHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewKeyHandler(service *service.LicenseService, logger *zap.Logger) *KeyHandler {
	return &KeyHandler{
		service: service,
		logger:  logger.Named("KeyHandler"),
	}
}

func (h *KeyHandler) Generate(c *gin.Context) {
	var req dto.GenerateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Failed to bind or validate generate request", zap.Error(err))
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	keys, err := h.service.Generate(c.Request.Context(), service.GenerateRequest{
		Count:        req.Count,
		KeyType:      req.KeyType,
		DurationDays: req.DurationDays,
		Prefix:       req.Prefix,
		ActorID:      identity.UserID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewLicenseKeyResponses(keys))
}

func (h *KeyHandler) List(c *gin.Context) {
	var req dto.ListKeysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}

	list := h.service.List
	if req.Unused {
		list = h.service.ListUnused
	}

	keys, err := list(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLicenseKeyResponses(keys))
}

func (h *KeyHandler) Revoke(c *gin.Context) {
	var req dto.KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	revoked, err := h.service.Revoke(c.Request.Context(), req.Key, identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLicenseKeyResponse(revoked))
}
