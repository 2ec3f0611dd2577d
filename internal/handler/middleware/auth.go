package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	identityContextKey  = "identity"
)

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, rawToken string) (*service.Identity, error)
}

func AuthMiddleware(validator TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			log.Debug("Authorization header is missing")
			_ = c.Error(fmt.Errorf("%w: authorization header required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			log.Debug("Authorization header format is invalid")
			_ = c.Error(fmt.Errorf("%w: invalid authorization header format", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			log.Debug("Token is missing after Bearer prefix")
			_ = c.Error(fmt.Errorf("%w: token missing", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		identity, err := validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("Token validation failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			_ = c.Error(fmt.Errorf("%w: no identity", ierr.ErrUnauthorized))
			c.Abort()
			return
		}
		if !identity.IsAdmin {
			_ = c.Error(fmt.Errorf("%w: admin role required", ierr.ErrForbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetIdentity(c *gin.Context) *service.Identity {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}
