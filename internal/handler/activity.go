package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	service *service.ActivityService
	logger  *zap.Logger
}

func NewActivityHandler(service *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.Named("ActivityHandler"),
	}
}

// Mine returns the caller's own activity, newest first.
func (h *ActivityHandler) Mine(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	logs, err := h.service.ListForUser(c.Request.Context(), identity.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// Recent returns the newest activity across all users.
func (h *ActivityHandler) Recent(c *gin.Context) {
	var req dto.ListActivityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(middleware.BindError(err))
		return
	}

	logs, err := h.service.ListRecent(c.Request.Context(), req.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
