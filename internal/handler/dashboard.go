package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	licenseService *service.LicenseService
	logger         *zap.Logger
}

func NewDashboardHandler(licenseService *service.LicenseService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		licenseService: licenseService,
		logger:         logger.Named("DashboardHandler"),
	}
}

// GetSummary godoc
// @Summary      Get dashboard summary
// @Description  Key counts by state and type, plus entitlements expiring soon.
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.DashboardSummaryResponse
// @Failure      503 {object} dto.APIErrorResponse
// @Router       /admin/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	h.logger.Debug("Received request for dashboard summary")

	summary, err := h.licenseService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
