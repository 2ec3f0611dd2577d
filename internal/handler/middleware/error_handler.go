package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

type errorMapping struct {
	status  int
	message string
}

var errorMappings = map[string]errorMapping{
	ierr.CodeInvalidRequest: {http.StatusBadRequest, "The request is invalid."},
	ierr.CodeNotFound:       {http.StatusNotFound, "The requested resource was not found."},
	ierr.CodeAlreadyUsed:    {http.StatusConflict, "This license key has already been used."},
	ierr.CodeRevoked:        {http.StatusConflict, "This license key has been revoked."},
	ierr.CodeInactive:       {http.StatusConflict, "This license key is not active."},
	ierr.CodeDependency:     {http.StatusServiceUnavailable, "A required service is temporarily unavailable."},
	ierr.CodeUnauthorized:   {http.StatusUnauthorized, "Authentication required or failed."},
	ierr.CodeForbidden:      {http.StatusForbidden, "Access denied."},
	ierr.CodeRateLimited:    {http.StatusTooManyRequests, "Too many requests, try again later."},
	ierr.CodeInternal:       {http.StatusInternalServerError, "An unexpected error occurred."},
}

// HTTPStatus returns the response status used for an ierr code.
func HTTPStatus(code string) int {
	if m, ok := errorMappings[code]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		code := ierr.Code(err)
		mapping, ok := errorMappings[code]
		if !ok {
			code, mapping = ierr.CodeInternal, errorMappings[ierr.CodeInternal]
		}

		if mapping.status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("code", code), zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			log.Debug("Request rejected", zap.String("code", code), zap.String("path", c.FullPath()), zap.Error(err))
		}

		errResponse := dto.APIErrorResponse{
			Code:    code,
			Message: mapping.message,
		}

		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &ve):
			errResponse.Message = "Input validation failed."
			errResponse.Details = buildValidationErrors(ve)
		case code == ierr.CodeInvalidRequest:
			errResponse.Details = err.Error()
		}

		c.AbortWithStatusJSON(mapping.status, errResponse)
	}
}

func buildValidationErrors(ve validator.ValidationErrors) []dto.FieldError {
	details := make([]dto.FieldError, len(ve))
	for i, fe := range ve {
		details[i] = dto.FieldError{
			Field:   fe.Field(),
			Message: getValidationErrorMsg(fe),
		}
	}
	return details
}

func getValidationErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("Field '%s' must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("Field '%s' must be less than or equal to %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s characters", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("Field '%s' must contain only letters and digits", fe.Field())
	default:
		return fmt.Sprintf("Field '%s' failed validation on the '%s' tag", fe.Field(), fe.Tag())
	}
}

// BindError marks a request binding failure as an invalid request while
// keeping validator details reachable.
func BindError(err error) error {
	return fmt.Errorf("%w: %w", ierr.ErrInvalidRequest, err)
}
