package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/handler/middleware"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Licenses       *service.LicenseService
	Activity       *service.ActivityService
	Channels       *service.ChannelService
	Auth           middleware.TokenValidator
	HealthChecks   map[string]Pinger
	Gatherer       prometheus.Gatherer
	ActivationRate *middleware.RateLimiter
	AllowOrigins   []string
	Logger         *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	appLogger := deps.Logger

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(middleware.ErrorHandlerMiddleware(appLogger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appLogger.Error("Panic recovered", zap.Any("panic", recovered), zap.Stack("stack"))
		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	if len(deps.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := NewHealthHandler(deps.HealthChecks, appLogger)
	keyHandler := NewKeyHandler(deps.Licenses, appLogger)
	licenseHandler := NewLicenseHandler(deps.Licenses, appLogger)
	activityHandler := NewActivityHandler(deps.Activity, appLogger)
	dashboardHandler := NewDashboardHandler(deps.Licenses, appLogger)
	channelHandler := NewChannelHandler(deps.Channels, appLogger)

	router.GET("/healthz", healthHandler.Check)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	activationLimit := func(c *gin.Context) { c.Next() }
	if deps.ActivationRate != nil {
		activationLimit = deps.ActivationRate.Middleware()
	}

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(deps.Auth, appLogger))
	{
		licenseRoutes := apiV1.Group("/license")
		{
			licenseRoutes.POST("/activate", activationLimit, licenseHandler.Activate)
			licenseRoutes.GET("/status", licenseHandler.Status)
		}
		apiV1.GET("/logs", activityHandler.Mine)

		channelRoutes := apiV1.Group("/channels")
		{
			channelRoutes.POST("", channelHandler.Create)
			channelRoutes.GET("", channelHandler.List)
			channelRoutes.PATCH("/:id", channelHandler.Update)
			channelRoutes.DELETE("/:id", channelHandler.Delete)
		}

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.POST("/keys/generate", keyHandler.Generate)
			adminRoutes.GET("/keys", keyHandler.List)
			adminRoutes.POST("/keys/revoke", keyHandler.Revoke)
			adminRoutes.GET("/logs", activityHandler.Recent)
			adminRoutes.GET("/dashboard/summary", dashboardHandler.GetSummary)
		}
	}

	return router
}
