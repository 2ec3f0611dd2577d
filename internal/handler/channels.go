package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

// ChannelHandler serves the caller's tracked channels.
type ChannelHandler struct {
	service *service.ChannelService
	logger  *zap.Logger
}

func NewChannelHandler(service *service.ChannelService, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{
		service: service,
		logger:  logger.Named("ChannelHandler"),
	}
}

func (h *ChannelHandler) Create(c *gin.Context) {
	var req dto.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Failed to bind or validate channel request", zap.Error(err))
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	created, err := h.service.Add(c.Request.Context(), identity.UserID, req.ChannelName)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ChannelHandler) List(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	channels, err := h.service.ListForUser(c.Request.Context(), identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *ChannelHandler) Update(c *gin.Context) {
	var param dto.ChannelIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}
	var req dto.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	updated, err := h.service.Update(c.Request.Context(), identity.UserID, param.ID, req.Patch())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ChannelHandler) Delete(c *gin.Context) {
	var param dto.ChannelIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}

	identity := middleware.GetIdentity(c)
	if err := h.service.Remove(c.Request.Context(), identity.UserID, param.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Channel removed successfully"})
}
