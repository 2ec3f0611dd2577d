package ierr

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrDependency     = errors.New("dependency unavailable")
	ErrInternalServer = errors.New("internal server error")

	ErrAlreadyUsed  = errors.New("license key already used")
	ErrRevoked      = errors.New("license key has been revoked")
	ErrInactive     = errors.New("license key is inactive")
	ErrDuplicateKey = errors.New("license key already exists")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// Stable machine-readable codes returned to API callers.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeAlreadyUsed    = "ALREADY_USED"
	CodeRevoked        = "REVOKED"
	CodeInactive       = "INACTIVE"
	CodeDependency     = "DEPENDENCY_FAILURE"
	CodeUnauthorized   = "UNAUTHENTICATED"
	CodeForbidden      = "FORBIDDEN"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)

// Code classifies err by the first sentinel it wraps. ErrDuplicateKey is
// reported as an internal error because it should never escape key generation.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyUsed):
		return CodeAlreadyUsed
	case errors.Is(err, ErrRevoked):
		return CodeRevoked
	case errors.Is(err, ErrInactive):
		return CodeInactive
	case errors.Is(err, ErrDependency):
		return CodeDependency
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
