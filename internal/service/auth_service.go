package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Claims is the bearer token payload. Subject carries the numeric user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Identity is what the session layer hands to the license core.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

type AuthService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewAuthService(cfg *config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	log := logger.Named("AuthService")
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
		logger: log,
	}, nil
}

// IssueToken signs a token for userID. It backs the development token CLI
// and tests; production tokens come from the identity provider.
func (s *AuthService) IssueToken(userID int64, role string) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}
	if role != RoleAdmin && role != RoleUser {
		return "", fmt.Errorf("%w: unknown role %q", ierr.ErrInvalidRequest, role)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (*Identity, error) {
	s.logger.Debug("Attempting to validate access token")

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		s.logger.Warn("Failed to verify access token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		s.logger.Warn("Access token subject is not a user id", zap.String("subject", claims.Subject))
		return nil, fmt.Errorf("%w: invalid subject", ierr.ErrInvalidToken)
	}

	identity := &Identity{UserID: userID, IsAdmin: claims.Role == RoleAdmin}
	s.logger.Debug("Access token validated", zap.Int64("user_id", userID), zap.Bool("admin", identity.IsAdmin))
	return identity, nil
}
